package repository

import (
	"CPOverflow/internal/model"
	"CPOverflow/internal/pkg/consts"
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FollowRequestRepo interface {
	GetFollowRequest(ctx context.Context, id uint64) (*model.FollowRequest, error)
	GetFollowRequestByPair(ctx context.Context, requesterID, requestedID uint64) (*model.FollowRequest, error)
	CreateFollowRequest(ctx context.Context, fr *model.FollowRequest) error
	ResetToPending(ctx context.Context, id uint64) (bool, error)
	GetReceivedPending(ctx context.Context, requestedID uint64, limit, offset int) ([]*model.FollowRequest, error)
	Reject(ctx context.Context, id, requestedID uint64) (*model.FollowRequest, error)
	Accept(ctx context.Context, id, requestedID uint64) (*model.FollowRequest, *model.ChatRoom, error)
}

type followRequestRepoImpl struct {
	db *gorm.DB
}

func NewFollowRequestRepo(db *gorm.DB) FollowRequestRepo {
	return &followRequestRepoImpl{db: db}
}

func (s *followRequestRepoImpl) GetFollowRequest(ctx context.Context, id uint64) (*model.FollowRequest, error) {
	var fr model.FollowRequest
	err := s.db.WithContext(ctx).First(&fr, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "get follow request %d", id)
	}
	return &fr, nil
}

func (s *followRequestRepoImpl) GetFollowRequestByPair(ctx context.Context, requesterID, requestedID uint64) (*model.FollowRequest, error) {
	var fr model.FollowRequest
	err := s.db.WithContext(ctx).
		Where("requester_id = ? AND requested_id = ?", requesterID, requestedID).
		First(&fr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get follow request by pair")
	}
	return &fr, nil
}

// CreateFollowRequest 唯一索引冲突原样返回，由上层判断
func (s *followRequestRepoImpl) CreateFollowRequest(ctx context.Context, fr *model.FollowRequest) error {
	fr.Status = consts.FollowRequestPending
	return s.db.WithContext(ctx).Create(fr).Error
}

// ResetToPending 非 pending 的请求重置为 pending，复用原行
func (s *followRequestRepoImpl) ResetToPending(ctx context.Context, id uint64) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&model.FollowRequest{}).
		Where("id = ? AND status <> ?", id, consts.FollowRequestPending).
		Update("status", consts.FollowRequestPending)
	return result.RowsAffected > 0, errors.Wrap(result.Error, "reset follow request")
}

// GetReceivedPending 收到的待处理请求，按创建时间倒序
func (s *followRequestRepoImpl) GetReceivedPending(ctx context.Context, requestedID uint64, limit, offset int) ([]*model.FollowRequest, error) {
	list := make([]*model.FollowRequest, 0)
	err := s.db.WithContext(ctx).
		Preload("Requester.UserDetail").
		Where("requested_id = ? AND status = ?", requestedID, consts.FollowRequestPending).
		Order("created_at desc, id desc").
		Limit(limit).
		Offset(offset).
		Find(&list).Error
	return list, errors.Wrap(err, "get received follow requests")
}

// Reject 仅能拒绝发给自己的 pending 请求，不满足条件返回 nil
func (s *followRequestRepoImpl) Reject(ctx context.Context, id, requestedID uint64) (*model.FollowRequest, error) {
	var fr *model.FollowRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		fr, err = transitPending(tx, id, requestedID, consts.FollowRequestRejected)
		return err
	})
	return fr, errors.Wrap(err, "reject follow request")
}

// Accept 事务内通过请求、写入双向关注边并获取或创建单聊
func (s *followRequestRepoImpl) Accept(ctx context.Context, id, requestedID uint64) (*model.FollowRequest, *model.ChatRoom, error) {
	var (
		fr   *model.FollowRequest
		room *model.ChatRoom
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		fr, err = transitPending(tx, id, requestedID, consts.FollowRequestAccepted)
		if err != nil || fr == nil {
			return err
		}

		edges := []*model.UserFollow{
			{FollowerID: fr.RequesterID, FollowingID: fr.RequestedID},
			{FollowerID: fr.RequestedID, FollowingID: fr.RequesterID},
		}
		if err = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edges).Error; err != nil {
			return err
		}

		room, _, err = findOrCreateDirectRoom(tx, fr.RequesterID, fr.RequestedID)
		return err
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "accept follow request")
	}
	return fr, room, nil
}

// transitPending 条件更新 pending -> status，保证同一请求只被处理一次
func transitPending(tx *gorm.DB, id, requestedID uint64, status string) (*model.FollowRequest, error) {
	result := tx.Model(&model.FollowRequest{}).
		Where("id = ? AND requested_id = ? AND status = ?", id, requestedID, consts.FollowRequestPending).
		Update("status", status)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	var fr model.FollowRequest
	if err := tx.First(&fr, id).Error; err != nil {
		return nil, err
	}
	return &fr, nil
}
