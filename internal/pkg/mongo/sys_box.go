package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SysBoxModel 系统通知模型
type SysBoxModel struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReceiverID uint64             `bson:"receiver_id" json:"receiverId"` // 通知接收者
	SenderID   uint64             `bson:"sender_id" json:"senderId"`     // 动作发起者，系统通知为 0
	Type       int8               `bson:"type" json:"type"`              // 1-收到关注请求, 2-关注请求已通过
	TargetID   uint64             `bson:"target_id" json:"targetId"`     // 关注请求 ID
	Content    string             `bson:"content" json:"content"`
	Payload    map[string]any     `bson:"payload" json:"payload"` // 如 room_id
	IsRead     bool               `bson:"is_read" json:"isRead"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
}
