package consts

const (
	DefaultAvatarURL = "default_avatar.png"
)

// 消息类型
const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeFile   = "file"
	MessageTypeSystem = "system"
)

// 关注请求状态
const (
	FollowRequestPending  = "pending"
	FollowRequestAccepted = "accepted"
	FollowRequestRejected = "rejected"
)

// 在线状态
const (
	ActivityOnline  = "online"
	ActivityActive  = "active"
	ActivityAway    = "away"
	ActivityOffline = "offline"
)

// 系统通知类型
const (
	SysBoxFollowRequest  int8 = 1
	SysBoxFollowAccepted int8 = 2
)
