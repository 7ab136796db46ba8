package dto

import "time"

// SendFollowRequestDTO 发送关注请求
type SendFollowRequestDTO struct {
	UserID uint64 `json:"user_id" binding:"required"`
}

// FollowRequestDTO 关注请求
type FollowRequestDTO struct {
	ID            uint64         `json:"id"`
	RequesterID   uint64         `json:"requester_id"`
	RequestedID   uint64         `json:"requested_id"`
	RequesterInfo *UserSimpleDTO `json:"requester,omitempty"`
	Status        string         `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// AcceptFollowRequestDTO 通过请求的结果
type AcceptFollowRequestDTO struct {
	RequestID uint64 `json:"request_id"`
	RoomID    uint64 `json:"room_id"`
}

// FollowCountDTO 关注数据
type FollowCountDTO struct {
	Followers  int64 `json:"followers"`
	Followings int64 `json:"followings"`
}

// FollowUserDTO 关注列表项
type FollowUserDTO struct {
	UserID    uint64    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
