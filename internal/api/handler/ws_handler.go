package handler

import (
	"CPOverflow/internal/api/config"
	"CPOverflow/internal/api/dto"
	"CPOverflow/internal/model"
	"CPOverflow/internal/pkg/response"
	"CPOverflow/internal/pkg/util"
	"CPOverflow/internal/pkg/ws"
	"CPOverflow/internal/service"
	"context"
	log "log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type WsHandler struct {
	authSvc     service.ConnAuthenticator
	chatRoomSvc service.ChatRoomService
	messageSvc  service.MessageService
	presenceSvc service.PresenceService
	hub         *ws.Hub
	broker      ws.Broker
	opts        ws.Options
}

func NewWsHandler(
	authSvc service.ConnAuthenticator,
	chatRoomSvc service.ChatRoomService,
	messageSvc service.MessageService,
	presenceSvc service.PresenceService,
	hub *ws.Hub,
	broker ws.Broker,
	cfg config.ChatConfig,
) *WsHandler {
	return &WsHandler{
		authSvc:     authSvc,
		chatRoomSvc: chatRoomSvc,
		messageSvc:  messageSvc,
		presenceSvc: presenceSvc,
		hub:         hub,
		broker:      broker,
		opts: ws.Options{
			SendBuffer:     cfg.SendBuffer,
			PingPeriod:     time.Duration(cfg.PingPeriod) * time.Second,
			PongWait:       time.Duration(cfg.PongWait) * time.Second,
			MaxMessageSize: int64(cfg.MaxMessageSize),
		},
	}
}

// Connect 建立聊天室连接，鉴权与成员校验均在协议升级前完成
func (h *WsHandler) Connect(c *gin.Context) {
	roomID, ok := util.ParseUint64Param(c, "room_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	// 连接中 -> 已认证
	user := h.authSvc.Resolve(c.Request.Context(), c.Query("token"))
	if user == nil {
		response.Error(c, service.UnauthorizedError)
		return
	}

	// 已认证 -> 已加入房间，成员身份只在此处校验一次
	if err := h.chatRoomSvc.CheckAccess(c.Request.Context(), user.ID, roomID); err != nil {
		log.InfoContext(c.Request.Context(), "WS 拒绝加入聊天室", "uid", user.ID, "room_id", roomID, "err", err)
		response.Error(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WS 协议升级失败", "err", err)
		return
	}

	// 连接生命周期长于请求，保留 trace 等值但不随请求取消
	ctx := context.WithoutCancel(c.Request.Context())
	s := &session{
		h:      h,
		ctx:    ctx,
		user:   user,
		client: ws.NewClient(conn, user.ID, user.Username, roomID, h.opts),
	}
	s.run()
}

// session 单个连接的事件处理，读循环内顺序执行
type session struct {
	h      *WsHandler
	ctx    context.Context
	user   *model.User
	client *ws.Client
}

func (s *session) run() {
	h, client := s.h, s.client

	h.hub.Join(client)
	h.presenceSvc.Touch(s.user.ID)
	log.InfoContext(s.ctx, "用户 WS 连接已建立", "uid", s.user.ID, "room_id", client.RoomID, "session", client.ID)

	go client.WritePump()
	s.publish(&dto.WSPresenceEvent{Type: dto.WSTypeUserJoined, User: s.user.Username, UserID: s.user.ID}, s.user.ID)

	client.ReadPump(s.handle)

	// 已加入房间 -> 已关闭
	h.hub.Leave(client)
	s.publish(&dto.WSPresenceEvent{Type: dto.WSTypeUserLeft, User: s.user.Username, UserID: s.user.ID}, s.user.ID)
	log.InfoContext(s.ctx, "用户 WS 连接已断开", "uid", s.user.ID, "room_id", client.RoomID, "session", client.ID)
}

// handle 未知类型与格式错误的帧直接忽略，缺少 type 的帧按 message 处理
func (s *session) handle(data []byte) {
	var in dto.WSInbound
	if err := json.Unmarshal(data, &in); err != nil {
		log.DebugContext(s.ctx, "WS 帧解析失败", "session", s.client.ID, "err", err)
		return
	}

	if in.Type == "" {
		in.Type = dto.WSTypeMessage
	}

	switch in.Type {
	case dto.WSTypeMessage:
		s.h.presenceSvc.Touch(s.user.ID)
		s.onMessage(&in)
	case dto.WSTypeTyping:
		s.h.presenceSvc.Touch(s.user.ID)
		isTyping := in.IsTyping
		s.publish(&dto.WSPresenceEvent{
			Type:     dto.WSTypeTyping,
			User:     s.user.Username,
			UserID:   s.user.ID,
			IsTyping: &isTyping,
		}, s.user.ID)
	case dto.WSTypeReadMessage:
		s.h.presenceSvc.Touch(s.user.ID)
		s.onReadMessage(&in)
	}
}

// onMessage 先持久化再推送给整个房间，发送者也会收到
func (s *session) onMessage(in *dto.WSInbound) {
	msg, err := s.h.messageSvc.Append(s.ctx, s.client.RoomID, s.user.ID, in.Message, in.MessageType, in.FileURL)
	if err != nil {
		log.DebugContext(s.ctx, "WS 消息被丢弃", "uid", s.user.ID, "room_id", s.client.RoomID, "err", err)
		return
	}
	s.publish(&dto.WSMessageEvent{Type: dto.WSTypeMessage, Message: msg}, 0)
}

// onReadMessage 已读回执只落库不广播
func (s *session) onReadMessage(in *dto.WSInbound) {
	if in.MessageID == 0 {
		return
	}
	if err := s.h.messageSvc.MarkRead(s.ctx, in.MessageID, s.user.ID); err != nil {
		log.DebugContext(s.ctx, "WS 已读回执被丢弃", "uid", s.user.ID, "message_id", in.MessageID, "err", err)
	}
}

func (s *session) publish(event any, excludeUserID uint64) {
	if err := publishEvent(s.ctx, s.h.broker, s.client.RoomID, event, excludeUserID); err != nil {
		log.WarnContext(s.ctx, "WS 广播失败", "room_id", s.client.RoomID, "err", err)
	}
}

// publishEvent 编码一次后交给 broker 分发
func publishEvent(ctx context.Context, broker ws.Broker, roomID uint64, event any, excludeUserID uint64) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return broker.Publish(ctx, roomID, data, excludeUserID)
}
