package tenant

import (
	"context"

	"github.com/goadmin/pkg/dal"
	"github.com/goadmin/services/system/internal/model"
	"gorm.io/gorm"
)

// Repository 租户仓储接口
type Repository interface {
	dal.Repository[model.Tenant]
	FindByWebsite(ctx context.Context, website string) (*model.Tenant, error)
	FindByName(ctx context.Context, name string) (*model.Tenant, error)
}

// repository 租户仓储实现
type repository struct {
	*dal.BaseRepository[model.Tenant]
}

// NewRepository 创建租户仓储
func NewRepository() Repository {
	return &repository{
		BaseRepository: dal.NewBaseRepository[model.Tenant](),
	}
}

// NewRepositoryWithDB 使用指定DB创建租户仓储
func NewRepositoryWithDB(db *gorm.DB) Repository {
	return &repository{
		BaseRepository: dal.NewBaseRepositoryWithDB[model.Tenant](db),
	}
}

// FindByWebsite 根据站点域名查找租户
func (r *repository) FindByWebsite(ctx context.Context, website string) (*model.Tenant, error) {
	return r.FindOne(ctx, map[string]interface{}{"website": website})
}

// FindByName 根据名称查找租户
func (r *repository) FindByName(ctx context.Context, name string) (*model.Tenant, error) {
	return r.FindOne(ctx, map[string]interface{}{"name": name})
}
