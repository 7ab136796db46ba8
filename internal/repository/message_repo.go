package repository

import (
	"CPOverflow/internal/model"
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageRepo interface {
	CreateMessage(ctx context.Context, msg *model.Message) error
	GetMessage(ctx context.Context, messageID uint64) (*model.Message, error)
	GetRecentMessages(ctx context.Context, roomID uint64, limit int) ([]*model.Message, error)
	GetMessagesBefore(ctx context.Context, roomID uint64, before *model.Message, limit int) ([]*model.Message, error)
	GetLastMessages(ctx context.Context, roomIDs []uint64) (map[uint64]*model.Message, error)
	MarkRead(ctx context.Context, messageID, userID uint64, readAt time.Time) (bool, error)
	MarkRoomRead(ctx context.Context, roomID, userID uint64, readAt time.Time) (int64, error)
	CountUnread(ctx context.Context, roomID, userID uint64) (int64, error)
	CountUnreadByRooms(ctx context.Context, roomIDs []uint64, userID uint64) (map[uint64]int64, error)
	GetReadMessageIds(ctx context.Context, messageIDs []uint64, userID uint64) (map[uint64]bool, error)
}

type messageRepoImpl struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) MessageRepo {
	return &messageRepoImpl{db: db}
}

// CreateMessage 事务内写入消息并刷新聊天室 updated_at，返回时已装配发送者资料
func (s *messageRepoImpl) CreateMessage(ctx context.Context, msg *model.Message) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		err := tx.Model(&model.ChatRoom{}).
			Where("id = ?", msg.RoomID).
			UpdateColumn("updated_at", msg.CreatedAt).Error
		if err != nil {
			return err
		}
		return tx.Preload("Sender.UserDetail").First(msg, msg.ID).Error
	})
	return errors.Wrap(err, "create message")
}

// GetMessage 获取单条消息，不存在返回 nil
func (s *messageRepoImpl) GetMessage(ctx context.Context, messageID uint64) (*model.Message, error) {
	var msg model.Message
	err := s.db.WithContext(ctx).First(&msg, messageID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "get message %d", messageID)
	}
	return &msg, nil
}

// GetRecentMessages 最近 limit 条消息，按时间升序返回
func (s *messageRepoImpl) GetRecentMessages(ctx context.Context, roomID uint64, limit int) ([]*model.Message, error) {
	return s.GetMessagesBefore(ctx, roomID, nil, limit)
}

// GetMessagesBefore before 之前的 limit 条消息，按 (created_at, id) 升序返回
func (s *messageRepoImpl) GetMessagesBefore(ctx context.Context, roomID uint64, before *model.Message, limit int) ([]*model.Message, error) {
	msgs := make([]*model.Message, 0, limit)
	query := s.db.WithContext(ctx).
		Preload("Sender.UserDetail").
		Where("room_id = ?", roomID)
	if before != nil {
		query = query.Where("(created_at < ? OR (created_at = ? AND id < ?))", before.CreatedAt, before.CreatedAt, before.ID)
	}
	err := query.
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, errors.Wrap(err, "get messages")
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// GetLastMessages 每个聊天室按 (created_at, id) 排序的最后一条消息，与历史记录末尾一致
func (s *messageRepoImpl) GetLastMessages(ctx context.Context, roomIDs []uint64) (map[uint64]*model.Message, error) {
	res := make(map[uint64]*model.Message, len(roomIDs))
	if len(roomIDs) == 0 {
		return res, nil
	}

	var msgs []*model.Message
	err := s.db.WithContext(ctx).
		Preload("Sender.UserDetail").
		Where("messages.room_id IN ?", roomIDs).
		Where("NOT EXISTS (SELECT 1 FROM messages n WHERE n.room_id = messages.room_id " +
			"AND (n.created_at > messages.created_at OR (n.created_at = messages.created_at AND n.id > messages.id)))").
		Find(&msgs).Error
	if err != nil {
		return nil, errors.Wrap(err, "get last messages")
	}
	for _, m := range msgs {
		res[m.RoomID] = m
	}
	return res, nil
}

// MarkRead 写入已读回执，已存在时不做任何事，返回是否新写入
func (s *messageRepoImpl) MarkRead(ctx context.Context, messageID, userID uint64, readAt time.Time) (bool, error) {
	status := &model.MessageReadStatus{MessageID: messageID, UserID: userID, ReadAt: readAt}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(status)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "mark read")
	}
	return result.RowsAffected > 0, nil
}

// MarkRoomRead 单条语句将聊天室内他人发送且未读的消息全部标记为已读
// 与单条已读回执并发时由 (message_id, user_id) 唯一索引去重，冲突行被忽略
func (s *messageRepoImpl) MarkRoomRead(ctx context.Context, roomID, userID uint64, readAt time.Time) (int64, error) {
	insert, suffix := insertIgnore(s.db)
	result := s.db.WithContext(ctx).Exec(
		insert+" message_read_statuses (message_id, user_id, read_at) "+
			"SELECT m.id, ?, ? FROM messages m "+
			"WHERE m.room_id = ? AND m.sender_id <> ? "+
			"AND NOT EXISTS (SELECT 1 FROM message_read_statuses r WHERE r.message_id = m.id AND r.user_id = ?)"+suffix,
		userID, readAt, roomID, userID, userID,
	)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "mark room read")
	}
	return result.RowsAffected, nil
}

// insertIgnore 按方言返回忽略唯一键冲突的插入前缀与后缀
func insertIgnore(db *gorm.DB) (string, string) {
	switch db.Dialector.Name() {
	case "mysql":
		return "INSERT IGNORE INTO", ""
	case "sqlite":
		return "INSERT OR IGNORE INTO", ""
	default:
		return "INSERT INTO", " ON CONFLICT DO NOTHING"
	}
}

// CountUnread 他人发送且没有当前用户已读记录的消息数
func (s *messageRepoImpl) CountUnread(ctx context.Context, roomID, userID uint64) (int64, error) {
	var count int64
	err := s.unreadQuery(ctx, userID).
		Where("m.room_id = ?", roomID).
		Count(&count).Error
	return count, errors.Wrap(err, "count unread")
}

func (s *messageRepoImpl) CountUnreadByRooms(ctx context.Context, roomIDs []uint64, userID uint64) (map[uint64]int64, error) {
	res := make(map[uint64]int64, len(roomIDs))
	if len(roomIDs) == 0 {
		return res, nil
	}
	type row struct {
		RoomID uint64
		Total  int64
	}
	var rows []row
	err := s.unreadQuery(ctx, userID).
		Select("m.room_id AS room_id, COUNT(*) AS total").
		Where("m.room_id IN ?", roomIDs).
		Group("m.room_id").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "count unread by rooms")
	}
	for _, r := range rows {
		res[r.RoomID] = r.Total
	}
	return res, nil
}

// GetReadMessageIds 返回 messageIDs 中已被 userID 读过的集合
func (s *messageRepoImpl) GetReadMessageIds(ctx context.Context, messageIDs []uint64, userID uint64) (map[uint64]bool, error) {
	res := make(map[uint64]bool, len(messageIDs))
	if len(messageIDs) == 0 {
		return res, nil
	}
	var ids []uint64
	err := s.db.WithContext(ctx).
		Model(&model.MessageReadStatus{}).
		Where("user_id = ? AND message_id IN ?", userID, messageIDs).
		Pluck("message_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "get read message ids")
	}
	for _, id := range ids {
		res[id] = true
	}
	return res, nil
}

func (s *messageRepoImpl) unreadQuery(ctx context.Context, userID uint64) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("messages m").
		Where("m.sender_id <> ?", userID).
		Where("NOT EXISTS (SELECT 1 FROM message_read_statuses r WHERE r.message_id = m.id AND r.user_id = ?)", userID)
}
