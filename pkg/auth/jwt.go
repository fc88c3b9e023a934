package auth

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/goadmin/pkg/config"
	"github.com/goadmin/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
)

// JWT解析错误
var (
	ErrTokenExpired   = stderrors.New("token has expired")
	ErrTokenMalformed = stderrors.New("token is malformed")
	ErrTokenInvalid   = stderrors.New("token is invalid")
)

// Claims JWT声明
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	TenantID string `json:"tenantId"`
	jwt.RegisteredClaims
}

// JWTManager JWT管理器
type JWTManager struct {
	secret   []byte
	issuer   string
	expireIn time.Duration
}

// NewJWTManager 创建JWT管理器
func NewJWTManager(cfg *config.JWTConfig) *JWTManager {
	expire := cfg.Expire
	if expire <= 0 {
		expire = 3600
	}
	return &JWTManager{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		expireIn: time.Duration(expire) * time.Second,
	}
}

// GenerateToken 生成Token
func (m *JWTManager) GenerateToken(userID, username, tenantID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expireIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken 解析Token
func (m *JWTManager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})

	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		if stderrors.Is(err, jwt.ErrTokenMalformed) {
			return nil, ErrTokenMalformed
		}
		return nil, ErrTokenInvalid
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrTokenInvalid
}

// GetExpireIn 获取有效期
func (m *JWTManager) GetExpireIn() time.Duration {
	return m.expireIn
}

// CreateTokenInfo 生成Token信息
func (m *JWTManager) CreateTokenInfo(userID, username, tenantID string) (*TokenInfo, error) {
	token, err := m.GenerateToken(userID, username, tenantID)
	if err != nil {
		return nil, err
	}

	return &TokenInfo{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(m.expireIn.Seconds()),
	}, nil
}

// JWTAuthority 无状态令牌权威来源
// jwt部署模式下令牌本地解析即可验证，不依赖令牌表和远程接口
type JWTAuthority struct {
	manager *JWTManager
}

// NewJWTAuthority 创建无状态令牌权威来源
func NewJWTAuthority(manager *JWTManager) *JWTAuthority {
	return &JWTAuthority{manager: manager}
}

// FindToken 本地解析令牌
func (a *JWTAuthority) FindToken(ctx context.Context, token string) (*VerifiedToken, error) {
	claims, err := a.manager.ParseToken(token)
	if err != nil {
		return nil, errors.Unauthenticated(err.Error())
	}
	return &VerifiedToken{
		LoginID:     claims.UserID,
		TenantID:    claims.TenantID,
		AccessToken: token,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}
