package job

import (
	"CPOverflow/internal/pkg/logger"
	"CPOverflow/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// PresenceFlushJob 将 redis 中缓冲的活跃时间批量写回数据库
type PresenceFlushJob struct {
	presenceSvc service.PresenceService
	timeout     time.Duration
}

func NewPresenceFlushJob(presenceSvc service.PresenceService) *PresenceFlushJob {
	return &PresenceFlushJob{
		presenceSvc: presenceSvc,
		timeout:     time.Minute,
	}
}

func (s *PresenceFlushJob) Run() {
	traceID := "job-presence-" + uuid.NewString()
	ctx, cancel := context.WithTimeout(logger.WithTrace(context.Background(), traceID), s.timeout)
	defer cancel()

	n, err := s.presenceSvc.Flush(ctx)
	if err != nil {
		log.ErrorContext(ctx, "presence flush failed", "flushed", n, "err", err)
		return
	}
	if n > 0 {
		log.InfoContext(ctx, "presence flush finished", "flushed", n)
	}
}
