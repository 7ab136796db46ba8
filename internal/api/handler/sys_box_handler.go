package handler

import (
	"CPOverflow/internal/api/dto"
	"CPOverflow/internal/pkg/response"
	"CPOverflow/internal/pkg/util"
	"CPOverflow/internal/service"

	"github.com/gin-gonic/gin"
)

type SysBoxHandler struct {
	sysBoxService service.SysBoxService
}

func NewSysBoxHandler(s service.SysBoxService) *SysBoxHandler {
	return &SysBoxHandler{
		sysBoxService: s,
	}
}

// GetNotificationList 获取通知列表
func (h *SysBoxHandler) GetNotificationList(c *gin.Context) {
	page, pageSize, _, _ := util.GetPagination(c)
	userID := c.GetUint64("user_id")

	list, err := h.sysBoxService.GetNotificationList(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, list)
}

// GetUnreadCount 获取未读数
func (h *SysBoxHandler) GetUnreadCount(c *gin.Context) {
	userID := c.GetUint64("user_id")

	unread, err := h.sysBoxService.GetUnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, unread)
}

// MarkRead 标记已读，未指定 id 时一键已读
func (h *SysBoxHandler) MarkRead(c *gin.Context) {
	var req dto.SysBoxReadDTO
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, service.ErrParamInvalid)
			return
		}
	}

	userID := c.GetUint64("user_id")
	var err error
	if req.ID == "" {
		err = h.sysBoxService.MarkAllRead(c.Request.Context(), userID)
	} else {
		err = h.sysBoxService.MarkRead(c.Request.Context(), userID, req.ID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}
