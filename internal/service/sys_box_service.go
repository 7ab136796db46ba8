package service

import (
	"CPOverflow/internal/api/dto"
	"CPOverflow/internal/pkg/mongo"
	"CPOverflow/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	mongoDB "go.mongodb.org/mongo-driver/mongo"
)

// Notifier 投递系统通知
type Notifier interface {
	Notify(ctx context.Context, msg *mongo.SysBoxModel) error
}

type SysBoxService interface {
	Notifier
	GetNotificationList(ctx context.Context, userID uint64, page, pageSize int) ([]*dto.SysBoxDTO, error)
	GetUnreadCount(ctx context.Context, userID uint64) (*dto.SysBoxUnreadDTO, error)
	MarkRead(ctx context.Context, userID uint64, msgID string) error
	MarkAllRead(ctx context.Context, userID uint64) error
	CleanupRead(ctx context.Context, olderThan time.Duration) (int64, error)
}

type sysBoxServiceImpl struct {
	sysBoxRepo mongo.SysBoxRepo
	userRepo   repository.UserRepo
}

func NewSysBoxService(sysBox mongo.SysBoxRepo, user repository.UserRepo) SysBoxService {
	return &sysBoxServiceImpl{
		sysBoxRepo: sysBox,
		userRepo:   user,
	}
}

func (s *sysBoxServiceImpl) Notify(ctx context.Context, msg *mongo.SysBoxModel) error {
	return s.sysBoxRepo.CreateNotification(ctx, msg)
}

// GetNotificationList 获取通知列表并补全发送者信息
func (s *sysBoxServiceImpl) GetNotificationList(ctx context.Context, userID uint64, page, pageSize int) ([]*dto.SysBoxDTO, error) {
	limit := int64(pageSize)
	offset := int64((page - 1) * pageSize)

	list, err := s.sysBoxRepo.GetNotificationList(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	senderIds := make([]uint64, 0, len(list))
	for _, m := range list {
		if m.SenderID > 0 {
			senderIds = append(senderIds, m.SenderID)
		}
	}
	senders, err := s.userRepo.GetUserByIds(ctx, uniqueIds(senderIds, 0))
	if err != nil {
		return nil, err
	}
	senderMap := make(map[uint64]*dto.UserSimpleDTO, len(senders))
	for _, u := range senders {
		senderMap[u.ID] = toUserSimpleDTO(u)
	}

	res := make([]*dto.SysBoxDTO, 0, len(list))
	for _, m := range list {
		d := &dto.SysBoxDTO{
			ID:        m.ID.Hex(),
			SenderID:  m.SenderID,
			Type:      m.Type,
			TargetID:  m.TargetID,
			Content:   m.Content,
			Payload:   m.Payload,
			IsRead:    m.IsRead,
			CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
		}
		// SenderID 为 0 代表系统发送
		if sender, ok := senderMap[m.SenderID]; ok {
			d.SenderName = sender.Nickname
			d.AvatarURL = sender.ProfilePicture
		} else {
			d.SenderName = "系统通知"
		}
		res = append(res, d)
	}
	return res, nil
}

// GetUnreadCount 获取未读数
func (s *sysBoxServiceImpl) GetUnreadCount(ctx context.Context, userID uint64) (*dto.SysBoxUnreadDTO, error) {
	count, err := s.sysBoxRepo.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.SysBoxUnreadDTO{UnreadCount: count}, nil
}

// MarkRead 标记单条已读
func (s *sysBoxServiceImpl) MarkRead(ctx context.Context, userID uint64, msgID string) error {
	objectID, err := primitive.ObjectIDFromHex(msgID)
	if err != nil {
		return ErrParamInvalid
	}

	notice, err := s.sysBoxRepo.GetByID(ctx, objectID)
	if err != nil {
		if errors.Is(err, mongoDB.ErrNoDocuments) {
			return ErrSysBoxNotFound
		}
		return err
	}
	if notice.ReceiverID != userID {
		return ErrSysBoxNotFound
	}
	if notice.IsRead {
		return nil
	}
	return s.sysBoxRepo.MarkAsRead(ctx, userID, objectID)
}

// MarkAllRead 一键已读
func (s *sysBoxServiceImpl) MarkAllRead(ctx context.Context, userID uint64) error {
	return s.sysBoxRepo.MarkAllAsRead(ctx, userID)
}

func (s *sysBoxServiceImpl) CleanupRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.sysBoxRepo.DeleteReadBefore(ctx, time.Now().Add(-olderThan))
}
