package model

import "time"

// UserActivity 用户在线状态，首次 touch 时惰性创建
type UserActivity struct {
	UserID       uint64    `gorm:"primaryKey" json:"userId"`
	IsOnline     bool      `gorm:"type:tinyint(1);not null;default:0" json:"isOnline"`
	LastActivity time.Time `gorm:"index" json:"lastActivity"`
	LastSeen     time.Time `gorm:"autoUpdateTime" json:"lastSeen"`
}

func (UserActivity) TableName() string { return "user_activities" }
