package repository

import (
	"CPOverflow/internal/model"
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type UserFollowRepo interface {
	GetUserFollowers(ctx context.Context, userID uint64, limit, offset int) ([]*model.UserFollow, error)
	GetUserFollowing(ctx context.Context, userID uint64, limit, offset int) ([]*model.UserFollow, error)
	GetAllFollowingIds(ctx context.Context, userID uint64) ([]uint64, error)
	GetUserFollowerCount(ctx context.Context, userID uint64) (int64, error)
	GetUserFollowingCount(ctx context.Context, userID uint64) (int64, error)
	IsFollowing(ctx context.Context, followerID, followingID uint64) (bool, error)
	DeleteUserFollow(ctx context.Context, followerID, followingID uint64) (int64, error)
}

type userFollowRepoImpl struct {
	db *gorm.DB
}

func NewUserFollowRepo(db *gorm.DB) UserFollowRepo {
	return &userFollowRepoImpl{db: db}
}

// GetUserFollowers 获取用户的粉丝列表
func (s *userFollowRepoImpl) GetUserFollowers(ctx context.Context, userID uint64, limit, offset int) ([]*model.UserFollow, error) {
	var follows []*model.UserFollow
	err := s.db.WithContext(ctx).
		Where("following_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&follows).Error
	return follows, errors.Wrap(err, "get followers")
}

// GetUserFollowing 获取用户的关注列表
func (s *userFollowRepoImpl) GetUserFollowing(ctx context.Context, userID uint64, limit, offset int) ([]*model.UserFollow, error) {
	var follows []*model.UserFollow
	err := s.db.WithContext(ctx).
		Where("follower_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&follows).Error
	return follows, errors.Wrap(err, "get followings")
}

// GetAllFollowingIds 用户关注的全部 id，用于重建缓存
func (s *userFollowRepoImpl) GetAllFollowingIds(ctx context.Context, userID uint64) ([]uint64, error) {
	ids := make([]uint64, 0)
	err := s.db.WithContext(ctx).
		Model(&model.UserFollow{}).
		Where("follower_id = ?", userID).
		Order("created_at asc").
		Pluck("following_id", &ids).Error
	return ids, errors.Wrap(err, "get following ids")
}

// GetUserFollowerCount 获取用户的粉丝数量
func (s *userFollowRepoImpl) GetUserFollowerCount(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.UserFollow{}).
		Where("following_id = ?", userID).
		Count(&count).Error
	return count, errors.Wrap(err, "count followers")
}

// GetUserFollowingCount 获取用户的关注数量
func (s *userFollowRepoImpl) GetUserFollowingCount(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.UserFollow{}).
		Where("follower_id = ?", userID).
		Count(&count).Error
	return count, errors.Wrap(err, "count followings")
}

// IsFollowing 是否存在 follower -> following 的关注边
func (s *userFollowRepoImpl) IsFollowing(ctx context.Context, followerID, followingID uint64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.UserFollow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, errors.Wrap(err, "check follow")
}

// DeleteUserFollow 删除关注边，返回影响行数
func (s *userFollowRepoImpl) DeleteUserFollow(ctx context.Context, followerID, followingID uint64) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&model.UserFollow{})
	return result.RowsAffected, errors.Wrap(result.Error, "delete follow")
}
