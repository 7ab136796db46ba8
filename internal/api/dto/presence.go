package dto

import "time"

// SetOnlineDTO 显式切换在线状态
type SetOnlineDTO struct {
	IsOnline *bool `json:"is_online" binding:"required"`
}

// ActivityStatusDTO 用户在线状态
type ActivityStatusDTO struct {
	UserID         uint64     `json:"user_id"`
	IsOnline       bool       `json:"is_online"`
	ActivityStatus string     `json:"activity_status"`
	LastActivity   *time.Time `json:"last_activity"`
}

// OnlineUserDTO 在线的关注用户
type OnlineUserDTO struct {
	User           *UserSimpleDTO `json:"user"`
	ActivityStatus string         `json:"activity_status"`
}
