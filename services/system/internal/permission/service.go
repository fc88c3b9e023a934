package permission

import (
	"context"
	"sort"

	"github.com/goadmin/pkg/config"
	"github.com/goadmin/pkg/enums"
	"github.com/goadmin/pkg/logger"
	"github.com/goadmin/pkg/utils"
	"github.com/goadmin/services/system/internal/model"
	"go.uber.org/zap"
)

// Service 权限聚合服务
type Service struct {
	repo Repository
}

// NewService 创建权限聚合服务
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetPermissionInfo 聚合用户的角色、权限编码和菜单树
//
// 登录身份缺失或用户不存在时返回空集合而不是错误，
// 后续查询的持久化错误正常传播。超级管理员直接获得全量菜单。
func (s *Service) GetPermissionInfo(ctx context.Context, loginID string) (*PermissionInfo, error) {
	if loginID == "" {
		return emptyPermissionInfo(), nil
	}

	user, err := s.repo.FindUser(ctx, loginID)
	if err != nil {
		logger.Warn("查找用户失败，返回空权限", zap.String("loginId", loginID), zap.Error(err))
		return emptyPermissionInfo(), nil
	}
	if user == nil {
		return emptyPermissionInfo(), nil
	}

	roleIDs, err := s.repo.RoleIDsByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	roleIDs = utils.Unique(roleIDs)

	roles, err := s.repo.RolesByIDs(ctx, roleIDs)
	if err != nil {
		return nil, err
	}

	// 只保留启用的角色
	roles = utils.Filter(roles, func(r model.Role) bool {
		return r.Status.IsEnable()
	})
	roleCodes := utils.Unique(utils.Map(roles, func(r model.Role) string { return r.Code }))

	menus, err := s.menusForRoles(ctx, roles)
	if err != nil {
		return nil, err
	}

	// 只保留启用的菜单
	menus = utils.Filter(menus, func(m model.Menu) bool {
		return m.Status.IsEnable()
	})

	// 按钮保留在权限编码里但不进树
	permissions := make([]string, 0, len(menus))
	for _, m := range menus {
		if m.Permission != "" {
			permissions = append(permissions, m.Permission)
		}
	}
	permissions = utils.Unique(permissions)

	return &PermissionInfo{
		User: &UserInfo{
			ID:       user.ID,
			Username: user.Username,
			Nickname: user.Nickname,
			Avatar:   user.Avatar,
			TenantID: user.TenantID,
		},
		Roles:       roleCodes,
		Permissions: permissions,
		Menus:       BuildMenuTree(menus),
	}, nil
}

// menusForRoles 查找角色可见的菜单，超级管理员返回全量
func (s *Service) menusForRoles(ctx context.Context, roles []model.Role) ([]model.Menu, error) {
	superAdmin := config.GetAuth().SuperAdmin()
	for _, r := range roles {
		if r.Code == superAdmin {
			return s.repo.AllMenus(ctx)
		}
	}

	roleIDs := utils.Map(roles, func(r model.Role) string { return r.ID })
	menuIDs, err := s.repo.MenuIDsByRoles(ctx, roleIDs)
	if err != nil {
		return nil, err
	}
	return s.repo.MenusByIDs(ctx, utils.Unique(menuIDs))
}

// Permissions 查询用户的权限编码，供路由守卫使用
func (s *Service) Permissions(ctx context.Context, loginID string) ([]string, error) {
	info, err := s.GetPermissionInfo(ctx, loginID)
	if err != nil {
		return nil, err
	}
	return info.Permissions, nil
}

// RoleCodes 查询用户的角色编码，供路由守卫使用
func (s *Service) RoleCodes(ctx context.Context, loginID string) ([]string, error) {
	info, err := s.GetPermissionInfo(ctx, loginID)
	if err != nil {
		return nil, err
	}
	return info.Roles, nil
}

// BuildMenuTree 从根哨兵节点开始组装菜单树
//
// 按钮不进树；同级按sort升序排列；父节点缺失或成环的片段
// 从根出发不可达，自然被丢弃。
func BuildMenuTree(menus []model.Menu) []*MenuNode {
	children := make(map[string][]*MenuNode)
	for i := range menus {
		if menus[i].Type == enums.MenuTypeButton {
			continue
		}
		node := &MenuNode{Menu: menus[i]}
		children[node.ParentID] = append(children[node.ParentID], node)
	}

	for _, nodes := range children {
		sort.SliceStable(nodes, func(i, j int) bool {
			return nodes[i].Sort < nodes[j].Sort
		})
	}

	var attach func(parentID string) []*MenuNode
	attach = func(parentID string) []*MenuNode {
		nodes := children[parentID]
		for _, node := range nodes {
			node.Children = attach(node.ID)
		}
		return nodes
	}

	tree := attach(model.RootMenuID)
	if tree == nil {
		tree = []*MenuNode{}
	}
	return tree
}
