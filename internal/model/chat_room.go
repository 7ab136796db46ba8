package model

import "time"

// ChatRoom 聊天室，单聊通过 PeerKey(min_max) 唯一，群聊 PeerKey 为空
type ChatRoom struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      *string   `gorm:"type:varchar(100)" json:"name"`
	IsGroup   bool      `gorm:"type:tinyint(1);not null;default:0" json:"isGroup"`
	PeerKey   *string   `gorm:"uniqueIndex;type:varchar(64)" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `gorm:"index" json:"updatedAt"`

	Participants []ChatRoomParticipant `gorm:"foreignKey:RoomID;references:ID" json:"-"`
}

func (ChatRoom) TableName() string { return "chat_rooms" }

// ChatRoomParticipant 聊天室成员
type ChatRoomParticipant struct {
	RoomID   uint64    `gorm:"primaryKey" json:"roomId"`
	UserID   uint64    `gorm:"primaryKey;index" json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`

	User User `gorm:"foreignKey:UserID;references:ID" json:"-"`
}

func (ChatRoomParticipant) TableName() string { return "chat_room_participants" }
