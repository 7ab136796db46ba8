package api

import (
	"CPOverflow/internal/api/handler"
	"CPOverflow/internal/service"
)

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	UserHandler          *handler.UserHandler
	UserFollowHandler    *handler.UserFollowHandler
	FollowRequestHandler *handler.FollowRequestHandler
	ChatHandler          *handler.ChatHandler
	PresenceHandler      *handler.PresenceHandler
	SysBoxHandler        *handler.SysBoxHandler
	WSHandler            *handler.WsHandler

	// 中间件依赖
	AuthService     service.AuthService
	PresenceService service.PresenceService
}
