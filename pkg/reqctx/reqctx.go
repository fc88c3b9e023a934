// Package reqctx 提供请求级上下文的设置与读取
//
// 每个在途请求恰好持有一份上下文，挂载在该请求自己的 fiber.Ctx 和
// context.Context 链上，对并发执行的其他请求不可见。
// 不使用任何进程级可变变量保存请求身份。
package reqctx

import (
	"context"

	"github.com/goadmin/pkg/errors"
	"github.com/gofiber/fiber/v2"
)

// Locals 键
const localsKey = "requestContext"

// ctxKey context.Context 键
type ctxKey struct{}

// 上下文字段缺失错误
var (
	ErrNoContext  = errors.Unauthenticated("request context is not set")
	ErrNoLoginID  = errors.Unauthenticated("login id is not set")
	ErrNoTenantID = errors.Unauthenticated("tenant id is not set")
)

// Context 请求级上下文
// 指针字段区分"未设置"与"零值"
type Context struct {
	Token        *string
	TenantID     *string
	LoginID      *string
	IgnoreTenant *bool
}

// New 创建空上下文
func New() *Context {
	return &Context{}
}

// SetToken 设置令牌
func (c *Context) SetToken(token string) *Context {
	c.Token = &token
	return c
}

// SetTenantID 设置租户ID
func (c *Context) SetTenantID(tenantID string) *Context {
	c.TenantID = &tenantID
	return c
}

// SetLoginID 设置登录ID
func (c *Context) SetLoginID(loginID string) *Context {
	c.LoginID = &loginID
	return c
}

// SetIgnoreTenant 设置是否忽略租户
func (c *Context) SetIgnoreTenant(ignore bool) *Context {
	c.IgnoreTenant = &ignore
	return c
}

// With 将上下文挂载到 context.Context
func With(ctx context.Context, rc *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext 从 context.Context 读取上下文，未挂载时返回 nil
func FromContext(ctx context.Context) *Context {
	rc, _ := ctx.Value(ctxKey{}).(*Context)
	return rc
}

// Attach 将上下文挂载到请求
// 同时写入 fiber Locals 和请求的 context.Context，
// 下游处理器和 ctx 感知的调用（缓存、持久化）都能读到同一份
func Attach(c *fiber.Ctx, rc *Context) {
	c.Locals(localsKey, rc)
	c.SetUserContext(With(c.UserContext(), rc))
}

// Clear 清除请求上的上下文
// 必须在请求结束时调用一次，无论成功、失败还是panic
func Clear(c *fiber.Ctx) {
	c.Locals(localsKey, nil)
}

// FromFiber 从请求读取上下文，未挂载时返回 nil
func FromFiber(c *fiber.Ctx) *Context {
	rc, _ := c.Locals(localsKey).(*Context)
	return rc
}

// LoginID 获取登录ID，未设置时返回类型化的缺失错误
// 需要身份的调用方必须显式处理未认证情况，而不是得到默认值
func LoginID(ctx context.Context) (string, error) {
	rc := FromContext(ctx)
	if rc == nil {
		return "", ErrNoContext
	}
	if rc.LoginID == nil {
		return "", ErrNoLoginID
	}
	return *rc.LoginID, nil
}

// TenantID 获取租户ID，未设置时返回类型化的缺失错误
func TenantID(ctx context.Context) (string, error) {
	rc := FromContext(ctx)
	if rc == nil {
		return "", ErrNoContext
	}
	if rc.TenantID == nil {
		return "", ErrNoTenantID
	}
	return *rc.TenantID, nil
}

// Token 获取令牌，未设置时返回空串
func Token(ctx context.Context) string {
	rc := FromContext(ctx)
	if rc == nil || rc.Token == nil {
		return ""
	}
	return *rc.Token
}

// IsIgnoreTenant 是否忽略租户，未设置时为 false
func IsIgnoreTenant(ctx context.Context) bool {
	rc := FromContext(ctx)
	if rc == nil || rc.IgnoreTenant == nil {
		return false
	}
	return *rc.IgnoreTenant
}
