package repository

import (
	"CPOverflow/internal/model"
	"CPOverflow/internal/pkg/database"
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatRoomRepo interface {
	GetRoom(ctx context.Context, roomID uint64) (*model.ChatRoom, error)
	CreateOrGetDirectRoom(ctx context.Context, a, b uint64) (*model.ChatRoom, bool, error)
	CreateGroupRoom(ctx context.Context, room *model.ChatRoom, memberIDs []uint64) error
	IsParticipant(ctx context.Context, roomID, userID uint64) (bool, error)
	GetParticipants(ctx context.Context, roomIDs []uint64) ([]*model.ChatRoomParticipant, error)
	GetUserRooms(ctx context.Context, userID uint64, limit, offset int) ([]*model.ChatRoom, error)
	CountUserRooms(ctx context.Context, userID uint64) (int64, error)
}

type chatRoomRepoImpl struct {
	db *gorm.DB
}

func NewChatRoomRepo(db *gorm.DB) ChatRoomRepo {
	return &chatRoomRepoImpl{db: db}
}

// DirectPeerKey 单聊唯一标识 min_max
func DirectPeerKey(a, b uint64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d_%d", a, b)
}

// GetRoom 根据 ID 获取聊天室，不存在返回 nil
func (s *chatRoomRepoImpl) GetRoom(ctx context.Context, roomID uint64) (*model.ChatRoom, error) {
	var room model.ChatRoom
	err := s.db.WithContext(ctx).First(&room, roomID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "get room %d", roomID)
	}
	return &room, nil
}

// CreateOrGetDirectRoom 获取或创建单聊，第二个返回值表示是否新建
func (s *chatRoomRepoImpl) CreateOrGetDirectRoom(ctx context.Context, a, b uint64) (*model.ChatRoom, bool, error) {
	var (
		room    *model.ChatRoom
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		room, created, err = findOrCreateDirectRoom(tx, a, b)
		return err
	})
	if err != nil {
		// 并发创建时唯一索引冲突，读取胜出的那一行
		if database.IsDuplicateKey(err) {
			room, err = findRoomByPeerKey(s.db.WithContext(ctx), DirectPeerKey(a, b))
			if err == nil && room != nil {
				return room, false, nil
			}
		}
		return nil, false, errors.Wrap(err, "create or get direct room")
	}
	return room, created, nil
}

// CreateGroupRoom 事务内创建群聊及成员
func (s *chatRoomRepoImpl) CreateGroupRoom(ctx context.Context, room *model.ChatRoom, memberIDs []uint64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room.IsGroup = true
		room.PeerKey = nil
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		return addParticipants(tx, room.ID, memberIDs)
	})
	return errors.Wrap(err, "create group room")
}

// IsParticipant 检查用户是否是聊天室成员
func (s *chatRoomRepoImpl) IsParticipant(ctx context.Context, roomID, userID uint64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.ChatRoomParticipant{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	return count > 0, errors.Wrap(err, "check participant")
}

// GetParticipants 批量获取多个聊天室的成员及资料
func (s *chatRoomRepoImpl) GetParticipants(ctx context.Context, roomIDs []uint64) ([]*model.ChatRoomParticipant, error) {
	participants := make([]*model.ChatRoomParticipant, 0)
	if len(roomIDs) == 0 {
		return participants, nil
	}
	err := s.db.WithContext(ctx).
		Preload("User.UserDetail").
		Where("room_id IN ?", roomIDs).
		Order("room_id asc, user_id asc").
		Find(&participants).Error
	return participants, errors.Wrap(err, "get participants")
}

// GetUserRooms 用户参与的聊天室，按最近活跃倒序
func (s *chatRoomRepoImpl) GetUserRooms(ctx context.Context, userID uint64, limit, offset int) ([]*model.ChatRoom, error) {
	rooms := make([]*model.ChatRoom, 0)
	err := s.db.WithContext(ctx).
		Table("chat_rooms r").
		Select("r.*").
		Joins("JOIN chat_room_participants p ON p.room_id = r.id").
		Where("p.user_id = ?", userID).
		Order("r.updated_at desc, r.id desc").
		Limit(limit).
		Offset(offset).
		Find(&rooms).Error
	return rooms, errors.Wrap(err, "get user rooms")
}

func (s *chatRoomRepoImpl) CountUserRooms(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.ChatRoomParticipant{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, errors.Wrap(err, "count user rooms")
}

func findRoomByPeerKey(db *gorm.DB, peerKey string) (*model.ChatRoom, error) {
	var room model.ChatRoom
	err := db.Where("peer_key = ?", peerKey).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

// findOrCreateDirectRoom 必须在事务内调用
func findOrCreateDirectRoom(tx *gorm.DB, a, b uint64) (*model.ChatRoom, bool, error) {
	peerKey := DirectPeerKey(a, b)
	room, err := findRoomByPeerKey(tx, peerKey)
	if err != nil {
		return nil, false, err
	}
	if room != nil {
		return room, false, nil
	}

	room = &model.ChatRoom{IsGroup: false, PeerKey: &peerKey}
	if err = tx.Create(room).Error; err != nil {
		return nil, false, err
	}
	if err = addParticipants(tx, room.ID, []uint64{a, b}); err != nil {
		return nil, false, err
	}
	return room, true, nil
}

func addParticipants(tx *gorm.DB, roomID uint64, userIDs []uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	participants := make([]*model.ChatRoomParticipant, 0, len(userIDs))
	for _, uid := range userIDs {
		participants = append(participants, &model.ChatRoomParticipant{RoomID: roomID, UserID: uid, JoinedAt: now})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&participants).Error
}
