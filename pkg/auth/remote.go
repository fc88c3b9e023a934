package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/goadmin/pkg/errors"
	"github.com/gofiber/fiber/v2"
)

// checkEnvelope 校验接口的响应信封
type checkEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// RemoteAuthority 远程权威来源
// 通过HTTP调用认证中心的校验接口获取权威记录
type RemoteAuthority struct {
	tokenCheckURL  string
	tenantCheckURL string
	timeout        time.Duration
}

// NewRemoteAuthority 创建远程权威来源
func NewRemoteAuthority(tokenCheckURL, tenantCheckURL string) *RemoteAuthority {
	return &RemoteAuthority{
		tokenCheckURL:  tokenCheckURL,
		tenantCheckURL: tenantCheckURL,
		timeout:        5 * time.Second,
	}
}

// FindToken 调用远程令牌校验接口
func (r *RemoteAuthority) FindToken(ctx context.Context, token string) (*VerifiedToken, error) {
	verified := &VerifiedToken{}
	if err := r.postCheck(r.tokenCheckURL, "token", token, verified); err != nil {
		return nil, errors.Wrap(err, "Token check failed")
	}
	return verified, nil
}

// FindTenant 调用远程租户校验接口
func (r *RemoteAuthority) FindTenant(ctx context.Context, tenantID string) (*TenantInfo, error) {
	tenant := &TenantInfo{}
	if err := r.postCheck(r.tenantCheckURL, "tenantId", tenantID, tenant); err != nil {
		return nil, errors.Wrap(err, "Tenant check failed")
	}
	return tenant, nil
}

// postCheck 发起校验请求并解出信封中的数据
func (r *RemoteAuthority) postCheck(checkURL, param, value string, dest interface{}) error {
	if checkURL == "" {
		return errors.Unauthenticated("check url is not configured")
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(fiber.MethodPost)
	req.SetRequestURI(fmt.Sprintf("%s?%s=%s", checkURL, param, url.QueryEscape(value)))
	agent.Timeout(r.timeout)

	if err := agent.Parse(); err != nil {
		return errors.Unauthenticated("check request failed: " + err.Error())
	}

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return errors.Unauthenticated("check request failed: " + errs[0].Error())
	}
	if status < 200 || status >= 300 {
		return errors.Unauthenticated(fmt.Sprintf("check request failed: status %d", status))
	}

	var envelope checkEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return errors.Unauthenticated("check response malformed: " + err.Error())
	}
	if envelope.Code != 0 {
		return errors.Unauthenticated(envelope.Message)
	}
	if len(envelope.Data) == 0 {
		return errors.Unauthenticated("check response has no data")
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		return errors.Unauthenticated("check response malformed: " + err.Error())
	}
	return nil
}
