package model

import (
	"time"

	"github.com/goadmin/pkg/dal"
)

// AccessToken 访问令牌模型
// 不透明令牌的权威存储，登录时写入，登出时删除
type AccessToken struct {
	dal.Model
	Token     string    `gorm:"size:64;uniqueIndex;not null" json:"accessToken"`
	UserID    string    `gorm:"size:36;index;not null" json:"userId"`
	TenantID  string    `gorm:"size:36;index;not null" json:"tenantId"`
	ExpiresAt time.Time `gorm:"index" json:"expiresTime"`
}

// TableName 表名
func (AccessToken) TableName() string {
	return "sys_access_token"
}
