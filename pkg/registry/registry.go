package registry

import (
	"go-micro.dev/v5/registry"
)

// ServiceConfig 服务注册配置
type ServiceConfig struct {
	Name     string // 服务名称
	Version  string // 服务版本
	NodeID   string // 节点ID
	Address  string // 服务地址
	BasePath string // 服务基础路径，网关按 /api/v1/{BasePath}/* 代理
}

// BuildService 构建服务注册信息
func BuildService(cfg *ServiceConfig) *registry.Service {
	return &registry.Service{
		Name:    cfg.Name,
		Version: cfg.Version,
		Nodes: []*registry.Node{
			{
				Id:      cfg.NodeID,
				Address: cfg.Address,
				Metadata: map[string]string{
					"base_path": cfg.BasePath,
				},
			},
		},
	}
}

// BasePath 从服务元数据中解析基础路径
func BasePath(svc *registry.Service) string {
	for _, node := range svc.Nodes {
		if bp, ok := node.Metadata["base_path"]; ok {
			return bp
		}
	}
	return ""
}

// ServiceBuilder 服务注册信息构建器
type ServiceBuilder struct {
	config *ServiceConfig
}

// NewServiceBuilder 创建服务注册信息构建器
func NewServiceBuilder(name, version string) *ServiceBuilder {
	return &ServiceBuilder{
		config: &ServiceConfig{
			Name:    name,
			Version: version,
		},
	}
}

// WithNodeID 设置节点ID
func (b *ServiceBuilder) WithNodeID(nodeID string) *ServiceBuilder {
	b.config.NodeID = nodeID
	return b
}

// WithAddress 设置服务地址
func (b *ServiceBuilder) WithAddress(addr string) *ServiceBuilder {
	b.config.Address = addr
	return b
}

// WithBasePath 设置服务基础路径
func (b *ServiceBuilder) WithBasePath(basePath string) *ServiceBuilder {
	b.config.BasePath = basePath
	return b
}

// Build 构建服务注册信息
func (b *ServiceBuilder) Build() *registry.Service {
	if b.config.NodeID == "" {
		b.config.NodeID = b.config.Name + "-1"
	}
	return BuildService(b.config)
}
