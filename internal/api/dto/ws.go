package dto

// 实时事件类型
const (
	WSTypeMessage     = "message"
	WSTypeTyping      = "typing"
	WSTypeReadMessage = "read_message"
	WSTypeUserJoined  = "user_joined"
	WSTypeUserLeft    = "user_left"
)

// WSInbound 客户端上行帧，字段按 type 取用
type WSInbound struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	MessageType string  `json:"message_type"`
	FileURL     *string `json:"file_url"`
	IsTyping    bool    `json:"is_typing"`
	MessageID   uint64  `json:"message_id"`
}

// WSMessageEvent 消息推送
type WSMessageEvent struct {
	Type    string      `json:"type"`
	Message *MessageDTO `json:"message"`
}

// WSPresenceEvent 进出房间与输入状态推送
type WSPresenceEvent struct {
	Type     string `json:"type"`
	User     string `json:"user"`
	UserID   uint64 `json:"user_id"`
	IsTyping *bool  `json:"is_typing,omitempty"`
}
