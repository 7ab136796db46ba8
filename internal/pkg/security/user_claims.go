package security

import (
	"CPOverflow/internal/api/config"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	jwtSecret         = []byte("CPOverflow")
	jwtIssuer         = "CPOverflow"
	jwtExpirationTime = time.Hour * 24
)

// UserClaims Token 中携带的业务信息
type UserClaims struct {
	UserID uint64   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// InitJWT 使用配置覆盖默认的签名密钥与过期时间
func InitJWT(cfg config.JWTConfig) {
	if cfg.Secret != "" {
		jwtSecret = []byte(cfg.Secret)
	}
	if cfg.Issuer != "" {
		jwtIssuer = cfg.Issuer
	}
	if cfg.Expire > 0 {
		jwtExpirationTime = time.Duration(cfg.Expire) * time.Hour
	}
}

// TokenTTL 新签发 Token 的有效期
func TokenTTL() time.Duration {
	return jwtExpirationTime
}
