package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/worksheethub/pkg/cache"
	"github.com/yeisme/worksheethub/pkg/configs"
	ctxPkg "github.com/yeisme/worksheethub/pkg/context"
	"github.com/yeisme/worksheethub/pkg/internal/storage"
	"github.com/yeisme/worksheethub/pkg/internal/storage/assets"
	"github.com/yeisme/worksheethub/pkg/internal/storage/db"
	"github.com/yeisme/worksheethub/pkg/internal/storage/mq"
	nlog "github.com/yeisme/worksheethub/pkg/log"
	"github.com/yeisme/worksheethub/pkg/queue"
)

// registryCachePrefix 注册表缓存的键前缀，与响应缓存分开.
const registryCachePrefix = "ws.registry."

// CatalogService 目录服务的公共依赖.
type CatalogService struct {
	dbClient *db.Client
	store    assets.Store
	mqClient *mq.Client
	registry *cache.Cache // 可能为 nil

	origin      string
	upload      configs.UploadConfig
	events      configs.EventsConfig
	registryTTL time.Duration
	orphanAge   time.Duration

	now    func() time.Time
	logger zerolog.Logger
}

// NewCatalogService 从上下文中取出存储并按全局配置构造服务.
func NewCatalogService(c context.Context) *CatalogService {
	return NewCatalogServiceWith(ctxPkg.GetManager(c), configs.GetConfig())
}

// NewCatalogServiceWith 使用显式的存储与配置构造服务.
func NewCatalogServiceWith(mgr *storage.Manager, cfg *configs.AppConfig) *CatalogService {
	s := &CatalogService{
		origin:      cfg.Server.Origin(),
		upload:      cfg.Upload,
		events:      cfg.Events,
		registryTTL: cfg.Cache.RegistryTTL,
		orphanAge:   cfg.Jobs.OrphanSweep.MinAge,
		now:         time.Now,
		logger:      nlog.Component("service"),
	}

	if mgr != nil {
		s.dbClient = mgr.GetDBClient()
		s.store = mgr.GetAssetStore()
		s.mqClient = mgr.GetMQClient()

		if kv := mgr.GetKVClient(); kv != nil {
			s.registry = cache.NewCache(kv, registryCachePrefix)
		}
	}

	return s
}

// Origin 返回用于补全资源地址的公开源.
func (s *CatalogService) Origin() string { return s.origin }

// publish 尽力发布事件，失败只记录日志.
func publish[T any](ctx context.Context, s *CatalogService, enabled bool, topic string, payload T) {
	if s.mqClient == nil || !s.events.Enabled || !enabled {
		return
	}

	opts := []func(*queue.EventHeader){queue.WithProducer(configs.AppName)}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		opts = append(opts, queue.WithTraceID(sc.TraceID().String()))
	}

	if err := queue.Publish(ctx, s.mqClient, topic, payload, opts...); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("publish event failed")
	}
}
