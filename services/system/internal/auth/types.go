package auth

import "time"

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	TenantID    string    `json:"tenantId"`
	UserID      string    `json:"userId"`
	AccessToken string    `json:"accessToken"`
	ExpiresTime time.Time `json:"expiresTime"`
}
