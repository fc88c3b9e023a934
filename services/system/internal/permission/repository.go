package permission

import (
	"context"

	"github.com/goadmin/pkg/dal"
	"github.com/goadmin/services/system/internal/model"
	"gorm.io/gorm"
)

// Repository 权限聚合所需的查询集合
type Repository interface {
	FindUser(ctx context.Context, id string) (*model.User, error)
	RoleIDsByUser(ctx context.Context, userID string) ([]string, error)
	RolesByIDs(ctx context.Context, ids []string) ([]model.Role, error)
	MenuIDsByRoles(ctx context.Context, roleIDs []string) ([]string, error)
	MenusByIDs(ctx context.Context, ids []string) ([]model.Menu, error)
	AllMenus(ctx context.Context) ([]model.Menu, error)
}

// repository 权限仓储实现
type repository struct {
	db *gorm.DB
}

// NewRepository 创建权限仓储
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// FindUser 根据ID查找用户
func (r *repository) FindUser(ctx context.Context, id string) (*model.User, error) {
	users := dal.NewBaseRepositoryWithDB[model.User](r.db)
	return users.FindByID(ctx, id)
}

// RoleIDsByUser 查找用户关联的角色ID
func (r *repository) RoleIDsByUser(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.UserRole{}).
		Where("user_id = ?", userID).
		Pluck("role_id", &ids).Error
	return ids, err
}

// RolesByIDs 根据ID集合查找角色
func (r *repository) RolesByIDs(ctx context.Context, ids []string) ([]model.Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var roles []model.Role
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&roles).Error
	return roles, err
}

// MenuIDsByRoles 查找角色关联的菜单ID
func (r *repository) MenuIDsByRoles(ctx context.Context, roleIDs []string) ([]string, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.RoleMenu{}).
		Where("role_id IN ?", roleIDs).
		Pluck("menu_id", &ids).Error
	return ids, err
}

// MenusByIDs 根据ID集合查找菜单
func (r *repository) MenusByIDs(ctx context.Context, ids []string) ([]model.Menu, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var menus []model.Menu
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&menus).Error
	return menus, err
}

// AllMenus 查找全部菜单
func (r *repository) AllMenus(ctx context.Context) ([]model.Menu, error) {
	var menus []model.Menu
	err := r.db.WithContext(ctx).Find(&menus).Error
	return menus, err
}
