package handler

import (
	"CPOverflow/internal/api/dto"
	"CPOverflow/internal/pkg/response"
	"CPOverflow/internal/pkg/util"
	"CPOverflow/internal/service"

	"github.com/gin-gonic/gin"
)

type FollowRequestHandler struct {
	followRequestSvc service.FollowRequestService
}

func NewFollowRequestHandler(followRequestSvc service.FollowRequestService) *FollowRequestHandler {
	return &FollowRequestHandler{followRequestSvc: followRequestSvc}
}

func (h *FollowRequestHandler) Send(c *gin.Context) {
	var req dto.SendFollowRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	request, err := h.followRequestSvc.Send(c.Request.Context(), c.GetUint64("user_id"), req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, request)
}

// ListReceived 收到的待处理请求，新的在前
func (h *FollowRequestHandler) ListReceived(c *gin.Context) {
	_, _, limit, offset := util.GetPagination(c)
	list, err := h.followRequestSvc.ListReceived(c.Request.Context(), c.GetUint64("user_id"), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

func (h *FollowRequestHandler) Accept(c *gin.Context) {
	requestID, ok := util.ParseUint64Param(c, "id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	result, err := h.followRequestSvc.Accept(c.Request.Context(), c.GetUint64("user_id"), requestID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *FollowRequestHandler) Reject(c *gin.Context) {
	requestID, ok := util.ParseUint64Param(c, "id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := h.followRequestSvc.Reject(c.Request.Context(), c.GetUint64("user_id"), requestID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
