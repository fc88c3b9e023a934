package auth

import (
	"context"

	"github.com/goadmin/pkg/dal"
	"github.com/goadmin/services/system/internal/model"
	"gorm.io/gorm"
)

// TokenRepository 访问令牌仓储接口
type TokenRepository interface {
	dal.Repository[model.AccessToken]
	FindByToken(ctx context.Context, token string) (*model.AccessToken, error)
	DeleteByToken(ctx context.Context, token string) error
}

// tokenRepository 访问令牌仓储实现
type tokenRepository struct {
	*dal.BaseRepository[model.AccessToken]
}

// NewTokenRepository 创建访问令牌仓储
func NewTokenRepository() TokenRepository {
	return &tokenRepository{
		BaseRepository: dal.NewBaseRepository[model.AccessToken](),
	}
}

// NewTokenRepositoryWithDB 使用指定DB创建访问令牌仓储
func NewTokenRepositoryWithDB(db *gorm.DB) TokenRepository {
	return &tokenRepository{
		BaseRepository: dal.NewBaseRepositoryWithDB[model.AccessToken](db),
	}
}

// FindByToken 根据令牌值查找
func (r *tokenRepository) FindByToken(ctx context.Context, token string) (*model.AccessToken, error) {
	return r.FindOne(ctx, map[string]interface{}{"token": token})
}

// DeleteByToken 根据令牌值删除
func (r *tokenRepository) DeleteByToken(ctx context.Context, token string) error {
	return r.DB().WithContext(ctx).
		Where("token = ?", token).
		Delete(&model.AccessToken{}).Error
}

// UserRepository 用户仓储接口
type UserRepository interface {
	dal.Repository[model.User]
	FindByUsername(ctx context.Context, tenantID, username string) (*model.User, error)
}

// userRepository 用户仓储实现
type userRepository struct {
	*dal.BaseRepository[model.User]
}

// NewUserRepository 创建用户仓储
func NewUserRepository() UserRepository {
	return &userRepository{
		BaseRepository: dal.NewBaseRepository[model.User](),
	}
}

// NewUserRepositoryWithDB 使用指定DB创建用户仓储
func NewUserRepositoryWithDB(db *gorm.DB) UserRepository {
	return &userRepository{
		BaseRepository: dal.NewBaseRepositoryWithDB[model.User](db),
	}
}

// FindByUsername 在租户内根据用户名查找用户
func (r *userRepository) FindByUsername(ctx context.Context, tenantID, username string) (*model.User, error) {
	return r.FindOne(ctx, map[string]interface{}{
		"tenant_id": tenantID,
		"username":  username,
	})
}
