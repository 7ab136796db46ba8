package repository

import (
	"CPOverflow/internal/model"
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserActivityRepo interface {
	GetActivity(ctx context.Context, userID uint64) (*model.UserActivity, error)
	GetActivities(ctx context.Context, userIDs []uint64) ([]*model.UserActivity, error)
	SetOnline(ctx context.Context, userID uint64, online bool, at time.Time) error
	Touch(ctx context.Context, userID uint64, at time.Time) error
	GetOnlineIds(ctx context.Context, userIDs []uint64) ([]uint64, error)
}

type userActivityRepoImpl struct {
	db *gorm.DB
}

func NewUserActivityRepo(db *gorm.DB) UserActivityRepo {
	return &userActivityRepoImpl{db: db}
}

func (s *userActivityRepoImpl) GetActivity(ctx context.Context, userID uint64) (*model.UserActivity, error) {
	var activity model.UserActivity
	err := s.db.WithContext(ctx).First(&activity, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "get activity %d", userID)
	}
	return &activity, nil
}

func (s *userActivityRepoImpl) GetActivities(ctx context.Context, userIDs []uint64) ([]*model.UserActivity, error) {
	list := make([]*model.UserActivity, 0, len(userIDs))
	if len(userIDs) == 0 {
		return list, nil
	}
	err := s.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&list).Error
	return list, errors.Wrap(err, "get activities")
}

// SetOnline 显式切换在线状态，同时刷新活跃时间，行不存在则创建
func (s *userActivityRepoImpl) SetOnline(ctx context.Context, userID uint64, online bool, at time.Time) error {
	activity := &model.UserActivity{UserID: userID, IsOnline: online, LastActivity: at, LastSeen: at}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_online", "last_activity", "last_seen"}),
		}).
		Create(activity).Error
	return errors.Wrap(err, "set online")
}

// Touch 只会把 last_activity 往后推，行不存在则创建
func (s *userActivityRepoImpl) Touch(ctx context.Context, userID uint64, at time.Time) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.UserActivity{}).
			Where("user_id = ? AND last_activity < ?", userID, at).
			Updates(map[string]interface{}{"last_activity": at, "last_seen": at})
		if result.Error != nil || result.RowsAffected > 0 {
			return result.Error
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.UserActivity{UserID: userID, LastActivity: at, LastSeen: at}).Error
	})
	return errors.Wrap(err, "touch activity")
}

func (s *userActivityRepoImpl) GetOnlineIds(ctx context.Context, userIDs []uint64) ([]uint64, error) {
	ids := make([]uint64, 0)
	if len(userIDs) == 0 {
		return ids, nil
	}
	err := s.db.WithContext(ctx).
		Model(&model.UserActivity{}).
		Where("user_id IN ? AND is_online = ?", userIDs, true).
		Pluck("user_id", &ids).Error
	return ids, errors.Wrap(err, "get online ids")
}
