package consts

const (
	TokenBlacklistKey     = "token:blacklist:"
	UserSimpleInfoKey     = "user:simple:info:"
	UserFollowingKey      = "user:following:"
	UserFollowerCountKey  = "user:follower:count:"
	UserFollowingCountKey = "user:following:count:"
	PresenceActivityKey   = "presence:activity"
	PresenceDirtyKey      = "presence:dirty"
	ChatRoomChannelPrefix = "chat:room:"
)

const (
	PresenceFlushLock = "lock:presence:flush"
)
