package handler

import (
	"CPOverflow/internal/api/dto"
	"CPOverflow/internal/pkg/response"
	"CPOverflow/internal/pkg/util"
	"CPOverflow/internal/pkg/ws"
	"CPOverflow/internal/service"
	log "log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatRoomSvc   service.ChatRoomService
	messageSvc    service.MessageService
	attachmentSvc service.AttachmentService
	broker        ws.Broker
}

func NewChatHandler(
	chatRoomSvc service.ChatRoomService,
	messageSvc service.MessageService,
	attachmentSvc service.AttachmentService,
	broker ws.Broker,
) *ChatHandler {
	return &ChatHandler{
		chatRoomSvc:   chatRoomSvc,
		messageSvc:    messageSvc,
		attachmentSvc: attachmentSvc,
		broker:        broker,
	}
}

// ListRooms 当前用户参与的聊天室，按最近活跃倒序
func (h *ChatHandler) ListRooms(c *gin.Context) {
	userID := c.GetUint64("user_id")
	page, pageSize, _, _ := util.GetPagination(c)

	rooms, err := h.chatRoomSvc.ListRooms(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rooms)
}

// CreateRoom is_group 为真时创建群聊，否则 participant_id 或仅含一个 id 的 user_ids 创建单聊
func (h *ChatHandler) CreateRoom(c *gin.Context) {
	var req dto.CreateRoomDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}
	userID := c.GetUint64("user_id")

	if req.IsGroup {
		if len(req.UserIDs) == 0 {
			response.Error(c, service.ErrParamInvalid)
			return
		}
		room, err := h.chatRoomSvc.CreateGroupRoom(c.Request.Context(), userID, req.UserIDs, req.Name)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, &dto.CreateRoomResultDTO{Room: room, Created: true})
		return
	}

	targetID := req.ParticipantID
	if targetID == 0 && len(req.UserIDs) == 1 {
		targetID = req.UserIDs[0]
	}
	if targetID == 0 || len(req.UserIDs) > 1 {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	room, created, err := h.chatRoomSvc.CreateOrGetDirectRoom(c.Request.Context(), userID, targetID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.CreateRoomResultDTO{Room: room, Created: created})
}

func (h *ChatHandler) GetRoomDetail(c *gin.Context) {
	roomID, ok := util.ParseUint64Param(c, "id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	detail, err := h.chatRoomSvc.GetRoomDetail(c.Request.Context(), c.GetUint64("user_id"), roomID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, detail)
}

// GetMessages 历史消息，before_id 为游标
func (h *ChatHandler) GetMessages(c *gin.Context) {
	roomID, ok := util.ParseUint64Param(c, "id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	var beforeID uint64
	if v := c.Query("before_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			response.Error(c, service.ErrParamInvalid)
			return
		}
		beforeID = id
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	messages, err := h.messageSvc.History(c.Request.Context(), roomID, c.GetUint64("user_id"), beforeID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, messages)
}

// SendMessage 通过 REST 发送消息，同时推送给房间内的在线连接
func (h *ChatHandler) SendMessage(c *gin.Context) {
	roomID, ok := util.ParseUint64Param(c, "id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	var req dto.SendMessageDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	msg, err := h.messageSvc.Append(ctx, roomID, c.GetUint64("user_id"), req.Content, req.MessageType, req.FileURL)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err = publishEvent(ctx, h.broker, roomID, &dto.WSMessageEvent{Type: dto.WSTypeMessage, Message: msg}, 0); err != nil {
		log.WarnContext(ctx, "broadcast message failed", "room_id", roomID, "err", err)
	}
	response.Success(c, msg)
}

func (h *ChatHandler) MarkRoomRead(c *gin.Context) {
	roomID, ok := util.ParseUint64Param(c, "id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	marked, err := h.messageSvc.MarkRoomRead(c.Request.Context(), roomID, c.GetUint64("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.MarkReadResultDTO{Marked: marked})
}

func (h *ChatHandler) MarkMessageRead(c *gin.Context) {
	messageID, ok := util.ParseUint64Param(c, "id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := h.messageSvc.MarkRead(c.Request.Context(), messageID, c.GetUint64("user_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// PresignAttachment 图片与文件消息先直传对象存储，再以 file_url 发送
func (h *ChatHandler) PresignAttachment(c *gin.Context) {
	roomID, ok := util.ParseUint64Param(c, "id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	var req dto.AttachmentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}
	upload, err := h.attachmentSvc.PresignUpload(c.Request.Context(), c.GetUint64("user_id"), roomID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, upload)
}
