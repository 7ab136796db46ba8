package repository

import (
	"CPOverflow/internal/model"
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type UserRepo interface {
	GetUserById(ctx context.Context, id uint64) (*model.User, error)
	GetUserByIds(ctx context.Context, ids []uint64) ([]*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetExistingIds(ctx context.Context, ids []uint64) ([]uint64, error)
	CreateUser(ctx context.Context, user *model.User, detail *model.UserDetail) error
}

type userRepoImpl struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepo {
	return &userRepoImpl{db: db}
}

func (s *userRepoImpl) GetUserById(ctx context.Context, id uint64) (*model.User, error) {
	user := &model.User{}
	err := s.db.WithContext(ctx).
		Preload("UserDetail").
		First(user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "get user %d", id)
	}
	return user, nil
}

func (s *userRepoImpl) GetUserByIds(ctx context.Context, ids []uint64) ([]*model.User, error) {
	users := make([]*model.User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	err := s.db.WithContext(ctx).
		Preload("UserDetail").
		Where("id IN ?", ids).
		Find(&users).Error
	return users, errors.Wrap(err, "get users by ids")
}

func (s *userRepoImpl) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	user := &model.User{}
	err := s.db.WithContext(ctx).
		Preload("UserDetail").
		Where("username = ?", username).
		First(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get user by username")
	}
	return user, nil
}

// GetExistingIds 过滤出真实存在的用户 id
func (s *userRepoImpl) GetExistingIds(ctx context.Context, ids []uint64) ([]uint64, error) {
	existing := make([]uint64, 0, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}
	err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id IN ?", ids).
		Pluck("id", &existing).Error
	return existing, errors.Wrap(err, "filter existing user ids")
}

// CreateUser 事务内创建用户与资料
func (s *userRepoImpl) CreateUser(ctx context.Context, user *model.User, detail *model.UserDetail) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		detail.UserID = user.ID
		if err := tx.Create(detail).Error; err != nil {
			return err
		}
		user.UserDetail = *detail
		return nil
	})
}
