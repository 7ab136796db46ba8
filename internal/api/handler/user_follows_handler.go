package handler

import (
	"CPOverflow/internal/pkg/response"
	"CPOverflow/internal/pkg/util"
	"CPOverflow/internal/service"

	"github.com/gin-gonic/gin"
)

type UserFollowHandler struct {
	userFollowSvc service.UserFollowService
}

func NewUserFollowHandler(userFollowSvc service.UserFollowService) *UserFollowHandler {
	return &UserFollowHandler{userFollowSvc: userFollowSvc}
}

func (s *UserFollowHandler) GetUserFollowers(c *gin.Context) {
	userId := c.GetUint64("user_id")
	_, _, limit, offset := util.GetPagination(c)

	followers, err := s.userFollowSvc.GetUserFollowers(c.Request.Context(), userId, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, followers)
}

func (s *UserFollowHandler) GetUserFollowings(c *gin.Context) {
	userId := c.GetUint64("user_id")
	_, _, limit, offset := util.GetPagination(c)

	followings, err := s.userFollowSvc.GetUserFollowing(c.Request.Context(), userId, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, followings)
}

func (s *UserFollowHandler) GetUserFollowCount(c *gin.Context) {
	userId := c.GetUint64("user_id")
	count, err := s.userFollowSvc.GetUserFollowCount(c.Request.Context(), userId)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, count)
}

func (s *UserFollowHandler) IsFollowing(c *gin.Context) {
	userId := c.GetUint64("user_id")
	followingId, ok := util.ParseUint64Param(c, "user_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	following, err := s.userFollowSvc.IsFollowing(c.Request.Context(), userId, followingId)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, map[string]bool{"is_following": following})
}

func (s *UserFollowHandler) Unfollow(c *gin.Context) {
	userId := c.GetUint64("user_id")
	followingId, ok := util.ParseUint64Param(c, "user_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := s.userFollowSvc.Unfollow(c.Request.Context(), userId, followingId); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
