package model

import (
	"github.com/goadmin/pkg/dal"
	"github.com/goadmin/pkg/enums"
)

// RootMenuID 菜单树根节点的父ID哨兵值
const RootMenuID = "0"

// Menu 菜单模型
// 目录和菜单构成导航树，按钮只携带权限编码不入树
type Menu struct {
	dal.Model
	ParentID   string             `gorm:"size:36;index;default:'0'" json:"parentId"`
	Name       string             `gorm:"size:50;not null" json:"name"`
	Path       string             `gorm:"size:200" json:"path"`
	Component  string             `gorm:"size:255" json:"component"`
	Icon       string             `gorm:"size:100" json:"icon"`
	Type       enums.MenuType     `gorm:"size:20;not null" json:"type"`
	Permission string             `gorm:"size:100" json:"permission"`
	Visible    bool               `gorm:"default:true" json:"visible"`
	Status     enums.CommonStatus `gorm:"size:1;default:0" json:"status"`
	Sort       int                `gorm:"default:0" json:"sort"`
}

// TableName 表名
func (Menu) TableName() string {
	return "sys_menu"
}
