package service

import (
	"CPOverflow/internal/api/dto"
	"CPOverflow/internal/model"
	"CPOverflow/internal/pkg/consts"
	"CPOverflow/internal/repository"
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxMessageLength   = 5000
	defaultHistorySize = 50
)

type MessageService interface {
	// Append 持久化消息并刷新聊天室活跃时间，返回带发送者快照的消息
	Append(ctx context.Context, roomID, senderID uint64, content, messageType string, fileURL *string) (*dto.MessageDTO, error)
	MarkRead(ctx context.Context, messageID, userID uint64) error
	MarkRoomRead(ctx context.Context, roomID, userID uint64) (int64, error)
	UnreadCount(ctx context.Context, roomID, userID uint64) (int64, error)
	History(ctx context.Context, roomID, userID, beforeID uint64, limit int) ([]*dto.MessageDTO, error)
}

type messageServiceImpl struct {
	messageRepo  repository.MessageRepo
	chatRoomSvc  ChatRoomService
	historyLimit int
	now          func() time.Time
}

func NewMessageService(messageRepo repository.MessageRepo, chatRoomSvc ChatRoomService, historyLimit int) MessageService {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &messageServiceImpl{
		messageRepo:  messageRepo,
		chatRoomSvc:  chatRoomSvc,
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

func (s *messageServiceImpl) Append(ctx context.Context, roomID, senderID uint64, content, messageType string, fileURL *string) (*dto.MessageDTO, error) {
	msgType, err := normalizeMessage(content, messageType, fileURL)
	if err != nil {
		return nil, err
	}
	if err = s.chatRoomSvc.CheckAccess(ctx, senderID, roomID); err != nil {
		return nil, err
	}

	msg := &model.Message{
		RoomID:      roomID,
		SenderID:    senderID,
		MessageType: msgType,
		Content:     content,
		FileURL:     fileURL,
		CreatedAt:   s.now().UTC(),
	}
	if err = s.messageRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return toMessageDTO(msg), nil
}

// MarkRead 幂等，标记自己发送的消息不做任何事
func (s *messageServiceImpl) MarkRead(ctx context.Context, messageID, userID uint64) error {
	msg, err := s.messageRepo.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if err = s.chatRoomSvc.CheckAccess(ctx, userID, msg.RoomID); err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return ErrChatNotAllowed
		}
		return err
	}
	if msg.SenderID == userID {
		return nil
	}
	_, err = s.messageRepo.MarkRead(ctx, messageID, userID, s.now().UTC())
	return err
}

func (s *messageServiceImpl) MarkRoomRead(ctx context.Context, roomID, userID uint64) (int64, error) {
	if err := s.chatRoomSvc.CheckAccess(ctx, userID, roomID); err != nil {
		return 0, err
	}
	return s.messageRepo.MarkRoomRead(ctx, roomID, userID, s.now().UTC())
}

func (s *messageServiceImpl) UnreadCount(ctx context.Context, roomID, userID uint64) (int64, error) {
	if err := s.chatRoomSvc.CheckAccess(ctx, userID, roomID); err != nil {
		return 0, err
	}
	return s.messageRepo.CountUnread(ctx, roomID, userID)
}

// History beforeID 为 0 时返回最新的一页，结果按时间升序
func (s *messageServiceImpl) History(ctx context.Context, roomID, userID, beforeID uint64, limit int) ([]*dto.MessageDTO, error) {
	if err := s.chatRoomSvc.CheckAccess(ctx, userID, roomID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistorySize
	}
	if limit > s.historyLimit {
		limit = s.historyLimit
	}

	var before *model.Message
	if beforeID > 0 {
		msg, err := s.messageRepo.GetMessage(ctx, beforeID)
		if err != nil {
			return nil, err
		}
		if msg == nil || msg.RoomID != roomID {
			return nil, ErrMessageNotFound
		}
		before = msg
	}

	msgs, err := s.messageRepo.GetMessagesBefore(ctx, roomID, before, limit)
	if err != nil {
		return nil, err
	}
	return withReadFlags(ctx, s.messageRepo, msgs, userID)
}

// normalizeMessage 校验消息内容并返回规范化后的类型
func normalizeMessage(content, messageType string, fileURL *string) (string, error) {
	if messageType == "" {
		messageType = consts.MessageTypeText
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return "", ErrParamInvalid
	}
	switch messageType {
	case consts.MessageTypeText:
		if strings.TrimSpace(content) == "" {
			return "", ErrParamInvalid
		}
	case consts.MessageTypeImage, consts.MessageTypeFile:
		if fileURL == nil || strings.TrimSpace(*fileURL) == "" {
			return "", ErrParamInvalid
		}
	default:
		return "", ErrParamInvalid
	}
	return messageType, nil
}
