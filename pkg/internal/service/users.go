package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yeisme/worksheethub/pkg/internal/model"
	"github.com/yeisme/worksheethub/pkg/internal/storage/db"
	"github.com/yeisme/worksheethub/pkg/internal/types"
)

// UserService 登录与注册. 密码以明文比较，仅适用于演示环境.
type UserService struct{ *CatalogService }

func NewUserService(c context.Context) *UserService {
	return &UserService{NewCatalogService(c)}
}

// Login 按用户名与密码查找用户，不匹配时返回 ErrBadCredentials.
func (s *UserService) Login(ctx context.Context, req types.LoginRequest) (*types.UserView, error) {
	var u model.User

	err := s.dbClient.WithContext(ctx).
		Where("username = ? AND password = ?", req.Username, req.Password).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBadCredentials
		}

		return nil, fmt.Errorf("login: %w", err)
	}

	return UserView(&u), nil
}

// Register 以 user 角色注册.
func (s *UserService) Register(ctx context.Context, req types.RegisterRequest) (*types.UserView, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}

	return s.Create(ctx, req.Username, req.Password, req.Name, model.RoleUser)
}

// Create 创建任意角色的用户，供命令行初始化管理员.
func (s *UserService) Create(ctx context.Context, username, password, name, role string) (*types.UserView, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, invalid("username", "username is required")
	}

	if password == "" {
		return nil, invalid("password", "password is required")
	}

	if role != model.RoleUser && role != model.RoleAdmin {
		return nil, invalid("role", "role must be one of [user admin]")
	}

	u := model.User{Username: username, Password: password, Name: name, Role: role}
	if err := s.dbClient.WithContext(ctx).Create(&u).Error; err != nil {
		if db.IsDuplicateKey(err) {
			return nil, fmt.Errorf("username taken: %w", ErrConflict)
		}

		return nil, fmt.Errorf("create user: %w", err)
	}

	return UserView(&u), nil
}
