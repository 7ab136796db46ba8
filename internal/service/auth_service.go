package service

import (
	"CPOverflow/internal/model"
	"CPOverflow/internal/pkg/consts"
	"CPOverflow/internal/pkg/redis"
	"CPOverflow/internal/pkg/security"
	"CPOverflow/internal/repository"
	"context"
	log "log/slog"
)

// ConnAuthenticator 建立连接时解析用户
type ConnAuthenticator interface {
	// Resolve 任何失败都返回 nil 代表匿名
	Resolve(ctx context.Context, token string) *model.User
}

// AuthService 令牌校验，HTTP 与 websocket 共用
type AuthService interface {
	ConnAuthenticator
	Authenticate(ctx context.Context, token string) (*security.UserClaims, error)
}

type authServiceImpl struct {
	userRepo repository.UserRepo
}

func NewAuthService(userRepo repository.UserRepo) AuthService {
	return &authServiceImpl{userRepo: userRepo}
}

// Authenticate 校验签名、过期时间与黑名单
func (s *authServiceImpl) Authenticate(ctx context.Context, token string) (*security.UserClaims, error) {
	claims, err := security.ValidateToken(token)
	if err != nil {
		return nil, UnauthorizedError
	}
	signature, err := security.ExtractSignature(token)
	if err != nil {
		return nil, UnauthorizedError
	}
	revoked, err := redis.GetValue(ctx, consts.TokenBlacklistKey+signature)
	if err != nil {
		return nil, err
	}
	if revoked != "" {
		return nil, UnauthorizedError
	}
	return claims, nil
}

func (s *authServiceImpl) Resolve(ctx context.Context, token string) *model.User {
	if token == "" {
		return nil
	}
	claims, err := s.Authenticate(ctx, token)
	if err != nil {
		log.DebugContext(ctx, "connection token rejected", "err", err)
		return nil
	}
	user, err := s.userRepo.GetUserById(ctx, claims.UserID)
	if err != nil {
		log.WarnContext(ctx, "resolve connection user failed", "uid", claims.UserID, "err", err)
		return nil
	}
	if user == nil || user.IsBan {
		return nil
	}
	return user
}
