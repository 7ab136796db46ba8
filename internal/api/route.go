package api

import (
	"CPOverflow/internal/api/middleware"
	"CPOverflow/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	// websocket 通过 query 中的 token 鉴权
	r.GET("/ws/chat/:room_id", group.WSHandler.Connect)

	auth := middleware.AuthMiddleware(group.AuthService)
	activity := middleware.ActivityMiddleware(group.PresenceService)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		userGroup := apiGroup.Group("/user")
		{
			// 无需登录即可访问的接口
			userGroup.POST("/login", group.UserHandler.Login)
			userGroup.POST("/register", group.UserHandler.Register)
			userGroup.GET("/:user_id/simple", group.UserHandler.GetUserSimpleInfo)

			authGroup := userGroup.Group("")
			authGroup.Use(auth)
			{
				authGroup.POST("/logout", group.UserHandler.Logout)
			}
		}

		followGroup := apiGroup.Group("/follow")
		followGroup.Use(auth, activity)
		{
			followGroup.GET("/followers", group.UserFollowHandler.GetUserFollowers)
			followGroup.GET("/followings", group.UserFollowHandler.GetUserFollowings)
			followGroup.GET("/count", group.UserFollowHandler.GetUserFollowCount)
			followGroup.GET("/is-following/:user_id", group.UserFollowHandler.IsFollowing)
			followGroup.DELETE("/:user_id", group.UserFollowHandler.Unfollow)

			followGroup.POST("/requests", group.FollowRequestHandler.Send)
			followGroup.GET("/requests", group.FollowRequestHandler.ListReceived)
			followGroup.POST("/requests/:id/accept", group.FollowRequestHandler.Accept)
			followGroup.POST("/requests/:id/reject", group.FollowRequestHandler.Reject)
		}

		chatGroup := apiGroup.Group("/chat")
		chatGroup.Use(auth, activity)
		{
			chatGroup.GET("/rooms", group.ChatHandler.ListRooms)
			chatGroup.POST("/rooms", group.ChatHandler.CreateRoom)
			chatGroup.GET("/rooms/:id", group.ChatHandler.GetRoomDetail)
			chatGroup.GET("/rooms/:id/messages", group.ChatHandler.GetMessages)
			chatGroup.POST("/rooms/:id/messages", group.ChatHandler.SendMessage)
			chatGroup.POST("/rooms/:id/read", group.ChatHandler.MarkRoomRead)
			chatGroup.POST("/rooms/:id/attachments", group.ChatHandler.PresignAttachment)
			chatGroup.POST("/messages/:id/read", group.ChatHandler.MarkMessageRead)
		}

		presenceGroup := apiGroup.Group("/presence")
		presenceGroup.Use(auth, activity)
		{
			presenceGroup.PUT("/online", group.PresenceHandler.SetOnline)
			presenceGroup.GET("/online-followings", group.PresenceHandler.GetOnlineFollowings)
			presenceGroup.GET("/:user_id", group.PresenceHandler.GetActivityStatus)
		}

		notificationGroup := apiGroup.Group("/notifications")
		notificationGroup.Use(auth)
		{
			notificationGroup.GET("", group.SysBoxHandler.GetNotificationList)
			notificationGroup.GET("/unread", group.SysBoxHandler.GetUnreadCount)
			notificationGroup.POST("/read", group.SysBoxHandler.MarkRead)
		}
	}

	return r
}
