// Package storage 聚合目录服务用到的存储资源：数据库、资源文件、KV 与消息队列.
//
// Example:
//
// 初始化
//
//	ctx := context.Background()
//	mgr, err := storage.Init(ctx, configs.GetConfig())
//
//	if err != nil {
//	    // 处理错误
//	}
//
// 获取存储客户端
//
//	dbClient := mgr.GetDBClient()
//	store := mgr.GetAssetStore()
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yeisme/worksheethub/pkg/configs"
	"github.com/yeisme/worksheethub/pkg/internal/model"
	"github.com/yeisme/worksheethub/pkg/internal/storage/assets"
	dbc "github.com/yeisme/worksheethub/pkg/internal/storage/db"
	kvc "github.com/yeisme/worksheethub/pkg/internal/storage/kv"
	mqc "github.com/yeisme/worksheethub/pkg/internal/storage/mq"
	s3c "github.com/yeisme/worksheethub/pkg/internal/storage/s3"
	nlog "github.com/yeisme/worksheethub/pkg/log"
)

// Manager 聚合所有存储资源. KV 与 MQ 可能为 nil.
type Manager struct {
	DB     *dbc.Client
	Assets assets.Store
	S3     *s3c.Client
	KV     *kvc.Client
	MQ     *mqc.Client
}

var (
	mgr     *Manager
	mgrErr  error
	mgrOnce sync.Once
)

// Init 初始化默认存储.重复调用只返回已初始化实例.
func Init(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	mgrOnce.Do(func() {
		mgr, mgrErr = open(ctx, cfg)
		if mgrErr == nil {
			nlog.Logger().Info().
				Str("db", string(cfg.DB.GetDBType())).
				Str("assets", mgr.Assets.Name()).
				Bool("mq", mgr.MQ != nil).
				Msg("storage manager initialized")
		}
	})

	return mgr, mgrErr
}

func open(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	m := &Manager{}

	dbi, err := dbc.New(ctx, &cfg.DB)
	if err != nil {
		return nil, err
	}

	m.DB = dbi

	if cfg.DB.AutoMigrate {
		if err := dbi.Migrate(ctx, model.All()...); err != nil {
			_ = m.Close()
			return nil, err
		}
	}

	switch cfg.Upload.Backend {
	case configs.AssetBackendS3:
		s3i, err := s3c.New(ctx, &cfg.S3)
		if err != nil {
			_ = m.Close()
			return nil, err
		}

		m.S3 = s3i
		m.Assets = assets.NewS3(s3i)
	default:
		local, err := assets.NewLocal(cfg.Upload.RootDir)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("init asset store: %w", err)
		}

		m.Assets = local
	}

	kvi, err := kvc.NewKVClient(ctx, &cfg.KV)
	if err != nil {
		_ = m.Close()
		return nil, err
	}

	m.KV = kvi

	if cfg.Events.Enabled {
		mqi, err := mqc.New(ctx, &cfg.MQ)
		if err != nil {
			_ = m.Close()
			return nil, err
		}

		m.MQ = mqi
	}

	return m, nil
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetAssetStore 获取资源文件存储.
func (m *Manager) GetAssetStore() assets.Store {
	return m.Assets
}

// GetS3Client 获取 S3 客户端，本地后端时为 nil.
func (m *Manager) GetS3Client() *s3c.Client {
	return m.S3
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient 获取 MQ 客户端，未启用事件时为 nil.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// Close 释放所有连接.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
