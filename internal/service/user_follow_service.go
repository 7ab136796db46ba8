package service

import (
	"CPOverflow/internal/api/dto"
	"CPOverflow/internal/pkg/consts"
	"CPOverflow/internal/pkg/redis"
	"CPOverflow/internal/repository"
	"context"
	log "log/slog"
	"slices"
	"strconv"
	"time"
)

const (
	MaxCacheSize       = 1000
	followCacheTTL     = time.Hour
	followCountTTL     = 10 * time.Minute
)

type UserFollowService interface {
	GetUserFollowers(ctx context.Context, userId uint64, limit, offset int) ([]*dto.FollowUserDTO, error)
	GetUserFollowing(ctx context.Context, userId uint64, limit, offset int) ([]*dto.FollowUserDTO, error)
	GetUserFollowCount(ctx context.Context, userId uint64) (*dto.FollowCountDTO, error)
	GetAllFollowingIds(ctx context.Context, userId uint64) ([]uint64, error)
	IsFollowing(ctx context.Context, userId, followingId uint64) (bool, error)
	Unfollow(ctx context.Context, userId, followingId uint64) error
}

type UserFollowServiceImpl struct {
	userFollowRepo repository.UserFollowRepo
}

func NewUserFollowService(userFollowRepo repository.UserFollowRepo) UserFollowService {
	return &UserFollowServiceImpl{userFollowRepo: userFollowRepo}
}

func (s *UserFollowServiceImpl) GetUserFollowers(ctx context.Context, userId uint64, limit, offset int) ([]*dto.FollowUserDTO, error) {
	list, err := s.userFollowRepo.GetUserFollowers(ctx, userId, limit, offset)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.FollowUserDTO, 0, len(list))
	for _, f := range list {
		res = append(res, &dto.FollowUserDTO{UserID: f.FollowerID, CreatedAt: f.CreatedAt})
	}
	return res, nil
}

func (s *UserFollowServiceImpl) GetUserFollowing(ctx context.Context, userId uint64, limit, offset int) ([]*dto.FollowUserDTO, error) {
	list, err := s.userFollowRepo.GetUserFollowing(ctx, userId, limit, offset)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.FollowUserDTO, 0, len(list))
	for _, f := range list {
		res = append(res, &dto.FollowUserDTO{UserID: f.FollowingID, CreatedAt: f.CreatedAt})
	}
	return res, nil
}

func (s *UserFollowServiceImpl) GetUserFollowCount(ctx context.Context, userId uint64) (*dto.FollowCountDTO, error) {
	followers, err := s.getCountCommon(ctx, consts.UserFollowerCountKey, userId, s.userFollowRepo.GetUserFollowerCount)
	if err != nil {
		return nil, err
	}
	followings, err := s.getCountCommon(ctx, consts.UserFollowingCountKey, userId, s.userFollowRepo.GetUserFollowingCount)
	if err != nil {
		return nil, err
	}
	return &dto.FollowCountDTO{Followers: followers, Followings: followings}, nil
}

func (s *UserFollowServiceImpl) GetAllFollowingIds(ctx context.Context, userId uint64) ([]uint64, error) {
	return s.userFollowRepo.GetAllFollowingIds(ctx, userId)
}

// IsFollowing 优先查询关注缓存，缓存缺失时从数据库重建
func (s *UserFollowServiceImpl) IsFollowing(ctx context.Context, userId, followingId uint64) (bool, error) {
	key := consts.UserFollowingKey + strconv.FormatUint(userId, 10)
	isMember, exists, err := redis.ZIsMember(ctx, key, strconv.FormatUint(followingId, 10))
	if err != nil {
		log.WarnContext(ctx, "follow cache unavailable", "err", err)
		return s.userFollowRepo.IsFollowing(ctx, userId, followingId)
	}
	if exists {
		return isMember, nil
	}

	ids, err := s.userFollowRepo.GetAllFollowingIds(ctx, userId)
	if err != nil {
		return false, err
	}
	if len(ids) > 0 && len(ids) <= MaxCacheSize {
		if err = redis.ZAddUint64s(ctx, key, ids, followCacheTTL); err != nil {
			log.WarnContext(ctx, "rebuild follow cache failed", "uid", userId, "err", err)
		}
	}
	return slices.Contains(ids, followingId), nil
}

// Unfollow 只删除 userId -> followingId 一条边，反向关注保持不变
func (s *UserFollowServiceImpl) Unfollow(ctx context.Context, userId, followingId uint64) error {
	if userId == followingId {
		return ErrParamInvalid
	}
	rows, err := s.userFollowRepo.DeleteUserFollow(ctx, userId, followingId)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFollowing
	}
	RemoveFollowCache(ctx, userId, followingId)
	return nil
}

type fetchCountFunc func(ctx context.Context, userId uint64) (int64, error)

func (s *UserFollowServiceImpl) getCountCommon(ctx context.Context, keyPrefix string, userId uint64, fetchDB fetchCountFunc) (int64, error) {
	key := keyPrefix + strconv.FormatUint(userId, 10)
	count, ok, err := redis.GetInt64(ctx, key)
	if err == nil && ok {
		return count, nil
	}
	count, err = fetchDB(ctx, userId)
	if err != nil {
		return 0, err
	}
	if err = redis.SetWithExpiration(ctx, key, count, followCountTTL); err != nil {
		log.WarnContext(ctx, "cache follow count failed", "key", key, "err", err)
	}
	return count, nil
}

// AddFollowCache 关注边写入后同步缓存，未缓存的集合不做处理
func AddFollowCache(ctx context.Context, followerID, followingID uint64) {
	key := consts.UserFollowingKey + strconv.FormatUint(followerID, 10)
	if err := redis.ZAddIfExists(ctx, key, float64(time.Now().Unix()), strconv.FormatUint(followingID, 10)); err != nil {
		log.WarnContext(ctx, "update follow cache failed", "key", key, "err", err)
	}
	dropFollowCounts(ctx, followerID, followingID)
}

// RemoveFollowCache 关注边删除后同步缓存
func RemoveFollowCache(ctx context.Context, followerID, followingID uint64) {
	key := consts.UserFollowingKey + strconv.FormatUint(followerID, 10)
	if err := redis.ZRem(ctx, key, strconv.FormatUint(followingID, 10)); err != nil {
		log.WarnContext(ctx, "update follow cache failed", "key", key, "err", err)
	}
	dropFollowCounts(ctx, followerID, followingID)
}

func dropFollowCounts(ctx context.Context, followerID, followingID uint64) {
	err := redis.DeleteKey(ctx,
		consts.UserFollowingCountKey+strconv.FormatUint(followerID, 10),
		consts.UserFollowerCountKey+strconv.FormatUint(followingID, 10),
	)
	if err != nil {
		log.WarnContext(ctx, "drop follow count cache failed", "err", err)
	}
}
