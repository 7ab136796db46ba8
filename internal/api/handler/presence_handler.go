package handler

import (
	"CPOverflow/internal/api/dto"
	"CPOverflow/internal/pkg/response"
	"CPOverflow/internal/pkg/util"
	"CPOverflow/internal/service"

	"github.com/gin-gonic/gin"
)

type PresenceHandler struct {
	presenceSvc service.PresenceService
}

func NewPresenceHandler(presenceSvc service.PresenceService) *PresenceHandler {
	return &PresenceHandler{presenceSvc: presenceSvc}
}

func (h *PresenceHandler) SetOnline(c *gin.Context) {
	var req dto.SetOnlineDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	status, err := h.presenceSvc.SetOnline(c.Request.Context(), c.GetUint64("user_id"), *req.IsOnline)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}

func (h *PresenceHandler) GetActivityStatus(c *gin.Context) {
	userID, ok := util.ParseUint64Param(c, "user_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	status, err := h.presenceSvc.GetActivityStatus(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}

func (h *PresenceHandler) GetOnlineFollowings(c *gin.Context) {
	list, err := h.presenceSvc.GetOnlineFollowings(c.Request.Context(), c.GetUint64("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}
