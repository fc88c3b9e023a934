package model

import (
	"github.com/goadmin/pkg/dal"
	"github.com/goadmin/pkg/enums"
)

// User 用户模型
type User struct {
	dal.Model
	TenantID string             `gorm:"size:36;index:idx_tenant_username,unique;not null" json:"tenantId"`
	Username string             `gorm:"size:50;index:idx_tenant_username,unique;not null" json:"username"`
	Password string             `gorm:"size:255;not null" json:"-"`
	Nickname string             `gorm:"size:50" json:"nickname"`
	Email    string             `gorm:"size:100" json:"email"`
	Phone    string             `gorm:"size:20" json:"phone"`
	Avatar   string             `gorm:"size:255" json:"avatar"`
	Status   enums.CommonStatus `gorm:"size:1;default:0" json:"status"`
}

// TableName 表名
func (User) TableName() string {
	return "sys_user"
}
