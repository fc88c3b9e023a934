package model

import (
	"github.com/goadmin/pkg/dal"
	"github.com/goadmin/pkg/enums"
)

// Role 角色模型
type Role struct {
	dal.Model
	TenantID string             `gorm:"size:36;index" json:"tenantId"`
	Name     string             `gorm:"size:50;not null" json:"name"`
	Code     string             `gorm:"size:50;index;not null" json:"code"`
	Status   enums.CommonStatus `gorm:"size:1;default:0" json:"status"`
	Sort     int                `gorm:"default:0" json:"sort"`
	Remark   string             `gorm:"size:255" json:"remark"`
}

// TableName 表名
func (Role) TableName() string {
	return "sys_role"
}

// UserRole 用户角色关联
type UserRole struct {
	dal.Model
	UserID string `gorm:"size:36;index;not null" json:"userId"`
	RoleID string `gorm:"size:36;index;not null" json:"roleId"`
}

// TableName 表名
func (UserRole) TableName() string {
	return "sys_user_role"
}

// RoleMenu 角色菜单关联
type RoleMenu struct {
	dal.Model
	RoleID string `gorm:"size:36;index;not null" json:"roleId"`
	MenuID string `gorm:"size:36;index;not null" json:"menuId"`
}

// TableName 表名
func (RoleMenu) TableName() string {
	return "sys_role_menu"
}
