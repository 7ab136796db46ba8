package model

import "time"

// FollowRequest 关注请求，(requester, requested) 唯一，拒绝后重发复用同一行
type FollowRequest struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	RequesterID uint64    `gorm:"not null;uniqueIndex:idx_requester_requested" json:"requesterId"`
	RequestedID uint64    `gorm:"not null;uniqueIndex:idx_requester_requested;index:idx_requested_status" json:"requestedId"`
	Status      string    `gorm:"type:varchar(16);not null;default:'pending';index:idx_requested_status" json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Requester User `gorm:"foreignKey:RequesterID;references:ID" json:"-"`
}

func (FollowRequest) TableName() string { return "follow_requests" }
