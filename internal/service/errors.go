package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
)

var (
	ErrParamInvalid          = errors.New("参数错误")
	ErrUserNotFound          = errors.New("用户不存在")
	ErrUserBan               = errors.New("用户已被封禁")
	ErrUserUsernameExist     = errors.New("用户名已存在")
	ErrPasswordIncorrect     = errors.New("用户名或密码错误")
	ErrFollowSelf            = errors.New("不能关注自己")
	ErrAlreadyFollowing      = errors.New("已经关注该用户")
	ErrNotFollowing          = errors.New("尚未关注该用户")
	ErrFollowRequestPending  = errors.New("关注请求已发送，等待对方处理")
	ErrFollowRequestNotFound = errors.New("关注请求不存在或已处理")
	ErrRoomNotFound          = errors.New("聊天室不存在")
	ErrMessageNotFound       = errors.New("消息不存在")
	ErrChatNotAllowed        = errors.New("无权访问该聊天")
	ErrSysBoxNotFound        = errors.New("系统通知不存在")
	ErrAttachmentUnavailable = errors.New("附件上传不可用")
	UnauthorizedError        = errors.New("未登录或登录已过期")
	UnExpectedError          = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:          BadRequest,
	ErrUserNotFound:          NotFound,
	ErrUserBan:               Forbidden,
	ErrUserUsernameExist:     BadRequest,
	ErrPasswordIncorrect:     Unauthorized,
	ErrFollowSelf:            BadRequest,
	ErrAlreadyFollowing:      BadRequest,
	ErrNotFollowing:          BadRequest,
	ErrFollowRequestPending:  Conflict,
	ErrFollowRequestNotFound: NotFound,
	ErrRoomNotFound:          NotFound,
	ErrMessageNotFound:       NotFound,
	ErrChatNotAllowed:        Forbidden,
	ErrSysBoxNotFound:        NotFound,
	ErrAttachmentUnavailable: InternalServerError,
	UnauthorizedError:        Unauthorized,
	UnExpectedError:          InternalServerError,
}
