package model

import (
	"time"

	"github.com/goadmin/pkg/dal"
	"github.com/goadmin/pkg/enums"
)

// Tenant 租户模型
type Tenant struct {
	dal.Model
	Name       string             `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Website    string             `gorm:"size:255;index" json:"website"`
	Status     enums.CommonStatus `gorm:"size:1;default:0" json:"status"`
	ExpireTime time.Time          `json:"expireTime"`
	Remark     string             `gorm:"size:255" json:"remark"`
}

// TableName 表名
func (Tenant) TableName() string {
	return "sys_tenant"
}
