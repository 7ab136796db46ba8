package job

import (
	"CPOverflow/internal/pkg/logger"
	"CPOverflow/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

const notificationRetention = 30 * 24 * time.Hour

type NotificationCleanupJob struct {
	sysBoxSvc service.SysBoxService
	retention time.Duration
}

func NewNotificationCleanupJob(sysBoxSvc service.SysBoxService) *NotificationCleanupJob {
	return &NotificationCleanupJob{
		sysBoxSvc: sysBoxSvc,
		retention: notificationRetention,
	}
}

// Run 删除超过保留期的已读通知
func (s *NotificationCleanupJob) Run() {
	traceID := "job-notification-" + uuid.NewString()
	ctx, cancel := context.WithTimeout(logger.WithTrace(context.Background(), traceID), 5*time.Minute)
	defer cancel()

	deleted, err := s.sysBoxSvc.CleanupRead(ctx, s.retention)
	if err != nil {
		log.ErrorContext(ctx, "notification cleanup failed", "err", err)
		return
	}
	log.InfoContext(ctx, "notification cleanup finished", "deleted", deleted)
}
