package auth

import (
	"time"

	"github.com/goadmin/pkg/enums"
)

// VerifiedToken 校验通过的令牌声明
// ExpiresAt 严格位于未来时才允许进入缓存
type VerifiedToken struct {
	LoginID     string    `json:"userId"`
	TenantID    string    `json:"tenantId"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresTime"`
}

// TenantInfo 校验通过的租户信息
type TenantInfo struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Status    enums.CommonStatus `json:"status"`
	Websites  string             `json:"websites"`
	ExpiresAt time.Time          `json:"expireTime"`
}

// TokenInfo 登录颁发的令牌信息
type TokenInfo struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
}
