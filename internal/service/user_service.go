package service

import (
	"CPOverflow/internal/api/dto"
	"CPOverflow/internal/model"
	"CPOverflow/internal/pkg/consts"
	"CPOverflow/internal/pkg/database"
	"CPOverflow/internal/pkg/redis"
	"CPOverflow/internal/pkg/security"
	"CPOverflow/internal/repository"
	"context"
	log "log/slog"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

const userSimpleCacheTTL = time.Hour

type UserService interface {
	Register(ctx context.Context, dto *dto.RegisterDTO) (*dto.UserSimpleDTO, error)
	Login(ctx context.Context, dto *dto.CredentialDTO) (*dto.TokenDTO, error)
	Logout(ctx context.Context, token string) error
	GetUserSimpleInfo(ctx context.Context, id uint64) (*dto.UserSimpleDTO, error)
	GetUserSimpleInfoByIds(ctx context.Context, ids []uint64) ([]*dto.UserSimpleDTO, error)
}

type UserServiceImpl struct {
	userRepo repository.UserRepo
}

func NewUserService(userRepo repository.UserRepo) UserService {
	return &UserServiceImpl{
		userRepo: userRepo,
	}
}

func (s *UserServiceImpl) Register(ctx context.Context, regDTO *dto.RegisterDTO) (*dto.UserSimpleDTO, error) {
	exist, err := s.userRepo.GetUserByUsername(ctx, regDTO.Username)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrUserUsernameExist
	}

	passwordHash, err := security.HashPassword(regDTO.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: regDTO.Username,
		Email:    regDTO.Email,
		Password: passwordHash,
	}
	nickname := regDTO.Nickname
	if nickname == "" {
		nickname = regDTO.Username
	}
	detail := &model.UserDetail{
		Nickname:  nickname,
		AvatarURL: consts.DefaultAvatarURL,
	}

	if err = s.userRepo.CreateUser(ctx, user, detail); err != nil {
		if database.IsDuplicateKey(err) {
			return nil, ErrUserUsernameExist
		}
		return nil, err
	}
	user.UserDetail = *detail

	log.InfoContext(ctx, "user registered", "uid", user.ID, "username", user.Username)
	return toUserSimpleDTO(user), nil
}

func (s *UserServiceImpl) Login(ctx context.Context, credential *dto.CredentialDTO) (*dto.TokenDTO, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, credential.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrPasswordIncorrect
	}
	if err = security.CheckPasswordHash(credential.Password, user.Password); err != nil {
		return nil, ErrPasswordIncorrect
	}
	if user.IsBan {
		return nil, ErrUserBan
	}

	token, err := security.GenerateToken(user.ID, nil)
	if err != nil {
		return nil, err
	}
	return &dto.TokenDTO{
		Token:     token,
		ExpiresIn: int64(security.TokenTTL().Seconds()),
		User:      toUserSimpleDTO(user),
	}, nil
}

// Logout 将 Token 签名加入黑名单，过期时间与 Token 剩余有效期一致
func (s *UserServiceImpl) Logout(ctx context.Context, token string) error {
	claims, err := security.ValidateToken(token)
	if err != nil {
		return UnauthorizedError
	}
	signature, err := security.ExtractSignature(token)
	if err != nil {
		return UnauthorizedError
	}
	ttl := security.RemainingTTL(claims)
	if ttl <= 0 {
		return nil
	}
	return redis.SetWithExpiration(ctx, consts.TokenBlacklistKey+signature, 1, ttl)
}

func (s *UserServiceImpl) GetUserSimpleInfo(ctx context.Context, id uint64) (*dto.UserSimpleDTO, error) {
	list, err := s.GetUserSimpleInfoByIds(ctx, []uint64{id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrUserNotFound
	}
	return list[0], nil
}

// GetUserSimpleInfoByIds 批量获取用户快照，优先读缓存，不存在的 id 被忽略
func (s *UserServiceImpl) GetUserSimpleInfoByIds(ctx context.Context, ids []uint64) ([]*dto.UserSimpleDTO, error) {
	newIds := make([]uint64, 0, len(ids))
	mp := make(map[uint64]*dto.UserSimpleDTO)
	for _, id := range ids {
		value, err := redis.GetValue(ctx, consts.UserSimpleInfoKey+strconv.FormatUint(id, 10))
		if err != nil {
			return nil, err
		}
		if value == "" {
			newIds = append(newIds, id)
			continue
		}
		var userDTO *dto.UserSimpleDTO
		if err = json.Unmarshal([]byte(value), &userDTO); err != nil || userDTO == nil {
			newIds = append(newIds, id)
			continue
		}
		mp[id] = userDTO
	}

	if len(newIds) > 0 {
		users, err := s.userRepo.GetUserByIds(ctx, newIds)
		if err != nil {
			return nil, err
		}
		for _, user := range users {
			userDTO := toUserSimpleDTO(user)
			mp[user.ID] = userDTO
			jsonStr, err := json.Marshal(userDTO)
			if err != nil {
				return nil, err
			}
			err = redis.SetWithExpiration(ctx, consts.UserSimpleInfoKey+strconv.FormatUint(user.ID, 10), string(jsonStr), userSimpleCacheTTL)
			if err != nil {
				log.WarnContext(ctx, "cache user simple info failed", "uid", user.ID, "err", err)
			}
		}
	}

	res := make([]*dto.UserSimpleDTO, 0, len(ids))
	for _, id := range ids {
		if mp[id] == nil {
			continue
		}
		res = append(res, mp[id])
	}
	return res, nil
}
