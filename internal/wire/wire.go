package wire

import (
	"CPOverflow/internal/api"
	"CPOverflow/internal/api/config"
	"CPOverflow/internal/api/handler"
	"CPOverflow/internal/job"
	"CPOverflow/internal/pkg/cron"
	"CPOverflow/internal/pkg/kafka"
	"CPOverflow/internal/pkg/mongo"
	"CPOverflow/internal/pkg/ws"
	"CPOverflow/internal/repository"
	"CPOverflow/internal/service"

	"github.com/gin-gonic/gin"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	Hub          *ws.Hub
	Broker       ws.Broker
	CronMgr      *cron.Manager
	KafkaManager *kafka.ConsumerManager
	PresenceSvc  service.PresenceService
}

func BuildApplication(db *gorm.DB, mongoDB *mongodrv.Database, cfg *config.Config) (*ApplicationContainer, error) {
	// repository
	userRepo := repository.NewUserRepo(db)
	userFollowRepo := repository.NewUserFollowRepo(db)
	followRequestRepo := repository.NewFollowRequestRepo(db)
	chatRoomRepo := repository.NewChatRoomRepo(db)
	messageRepo := repository.NewMessageRepo(db)
	userActivityRepo := repository.NewUserActivityRepo(db)
	sysBoxRepo := mongo.NewSysBoxRepo(mongoDB)

	// service
	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo)
	userFollowService := service.NewUserFollowService(userFollowRepo)
	presenceService := service.NewPresenceService(userActivityRepo, userRepo, userFollowRepo, cfg.Presence)
	chatRoomService := service.NewChatRoomService(chatRoomRepo, messageRepo, userRepo, userFollowService, presenceService, cfg.Chat.DetailMessageLimit)
	messageService := service.NewMessageService(messageRepo, chatRoomService, cfg.Chat.HistoryLimit)
	attachmentService := service.NewAttachmentService(chatRoomService, cfg.MinIO.UploadExpire)
	sysBoxService := service.NewSysBoxService(sysBoxRepo, userRepo)
	followRequestService := service.NewFollowRequestService(followRequestRepo, userRepo, userFollowService, sysBoxService)

	// realtime
	hub := ws.NewHub()
	broker := ws.NewBroker(cfg.Server.Broker, hub)

	handlers := &api.HandlersGroup{
		UserHandler:          handler.NewUserHandler(userService),
		UserFollowHandler:    handler.NewUserFollowHandler(userFollowService),
		FollowRequestHandler: handler.NewFollowRequestHandler(followRequestService),
		ChatHandler:          handler.NewChatHandler(chatRoomService, messageService, attachmentService, broker),
		PresenceHandler:      handler.NewPresenceHandler(presenceService),
		SysBoxHandler:        handler.NewSysBoxHandler(sysBoxService),
		WSHandler:            handler.NewWsHandler(authService, chatRoomService, messageService, presenceService, hub, broker, cfg.Chat),
		AuthService:          authService,
		PresenceService:      presenceService,
	}

	router := api.SetupRouter(handlers)

	// 定时任务
	cronMgr := cron.NewCronManager(cfg.Presence.FlushSpec,
		job.NewPresenceFlushJob(presenceService),
		job.NewNotificationCleanupJob(sysBoxService),
	)

	kafkaMgr, err := kafka.NewConsumerManager(cfg)
	if err != nil {
		return nil, err
	}

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		Hub:          hub,
		Broker:       broker,
		CronMgr:      cronMgr,
		KafkaManager: kafkaMgr,
		PresenceSvc:  presenceService,
	}, nil
}
