package model

import "time"

// Message 聊天消息，房间内按 (created_at, id) 升序
type Message struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomID      uint64    `gorm:"not null;index:idx_room_created,priority:1" json:"roomId"`
	SenderID    uint64    `gorm:"not null;index" json:"senderId"`
	MessageType string    `gorm:"type:varchar(16);not null;default:'text'" json:"messageType"`
	Content     string    `gorm:"type:text" json:"content"`
	FileURL     *string   `gorm:"type:varchar(512)" json:"fileUrl"`
	CreatedAt   time.Time `gorm:"index:idx_room_created,priority:2" json:"createdAt"`

	Sender User `gorm:"foreignKey:SenderID;references:ID" json:"-"`
}

func (Message) TableName() string { return "messages" }

// MessageReadStatus 已读回执，(message, user) 唯一
type MessageReadStatus struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageID uint64    `gorm:"not null;uniqueIndex:idx_message_user" json:"messageId"`
	UserID    uint64    `gorm:"not null;uniqueIndex:idx_message_user;index" json:"userId"`
	ReadAt    time.Time `json:"readAt"`
}

func (MessageReadStatus) TableName() string { return "message_read_statuses" }
