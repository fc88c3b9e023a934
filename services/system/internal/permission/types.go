package permission

import (
	"github.com/goadmin/services/system/internal/model"
)

// UserInfo 聚合结果中的用户信息
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	TenantID string `json:"tenantId"`
}

// MenuNode 菜单树节点
type MenuNode struct {
	model.Menu
	Children []*MenuNode `json:"children,omitempty"`
}

// PermissionInfo 权限聚合结果
// 任何一步失败都退化为空集合而不是报错（用户查找除外的持久化错误仍会传播）
type PermissionInfo struct {
	User        *UserInfo   `json:"user,omitempty"`
	Roles       []string    `json:"roles"`
	Permissions []string    `json:"permissions"`
	Menus       []*MenuNode `json:"menus"`
}

// emptyPermissionInfo 空权限集合
func emptyPermissionInfo() *PermissionInfo {
	return &PermissionInfo{
		Roles:       []string{},
		Permissions: []string{},
		Menus:       []*MenuNode{},
	}
}
