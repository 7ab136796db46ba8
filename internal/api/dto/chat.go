package dto

import "time"

// CreateRoomDTO 创建聊天室，单聊可用 participant_id 或单元素 user_ids
type CreateRoomDTO struct {
	ParticipantID uint64   `json:"participant_id"`
	UserIDs       []uint64 `json:"user_ids" validate:"omitempty,max=200"`
	IsGroup       bool     `json:"is_group"`
	Name          *string  `json:"name" validate:"omitempty,max=100"`
}

// SendMessageDTO REST 发送消息
type SendMessageDTO struct {
	Content     string  `json:"content" validate:"max=5000"`
	MessageType string  `json:"message_type" validate:"omitempty,oneof=text image file"`
	FileURL     *string `json:"file_url" validate:"omitempty,max=512"`
}

// AttachmentDTO 申请附件上传
type AttachmentDTO struct {
	FileName string `json:"file_name" binding:"required" validate:"min=1,max=255"`
	MimeType string `json:"mime_type" binding:"required" validate:"min=1,max=127"`
}

// AttachmentUploadDTO 附件直传地址
type AttachmentUploadDTO struct {
	UploadURL string `json:"upload_url"`
	FileURL   string `json:"file_url"`
	ObjectKey string `json:"object_key"`
	ExpiresIn int64  `json:"expires_in"`
}

// MessageDTO 带发送者快照的消息，同时用于 websocket 推送
type MessageDTO struct {
	ID          uint64         `json:"id"`
	RoomID      uint64         `json:"room_id"`
	Content     string         `json:"content"`
	Sender      *UserSimpleDTO `json:"sender"`
	MessageType string         `json:"message_type"`
	FileURL     *string        `json:"file_url"`
	CreatedAt   time.Time      `json:"created_at"`
	IsRead      bool           `json:"is_read"`
}

// ChatRoomDTO 聊天室列表项
type ChatRoomDTO struct {
	ID                    uint64           `json:"id"`
	Name                  *string          `json:"name"`
	IsGroup               bool             `json:"is_group"`
	Participants          []*UserSimpleDTO `json:"participants"`
	OtherParticipant      *UserSimpleDTO   `json:"other_participant"`
	OtherParticipantState string           `json:"other_participant_status,omitempty"`
	LastMessage           *MessageDTO      `json:"last_message"`
	UnreadCount           int64            `json:"unread_count"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// ChatRoomDetailDTO 聊天室详情，附最近消息
type ChatRoomDetailDTO struct {
	ChatRoomDTO
	Messages []*MessageDTO `json:"messages"`
}

// CreateRoomResultDTO 创建结果
type CreateRoomResultDTO struct {
	Room    *ChatRoomDTO `json:"room"`
	Created bool         `json:"created"`
}

// MarkReadResultDTO 标记已读结果
type MarkReadResultDTO struct {
	Marked int64 `json:"marked"`
}
