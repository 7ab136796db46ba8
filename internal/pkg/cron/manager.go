package cron

import (
	"CPOverflow/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

const notificationCleanupSpec = "0 30 3 * * *"

type Manager struct {
	engine                 *cron.Cron
	flushSpec              string
	presenceFlushJob       *job.PresenceFlushJob
	notificationCleanupJob *job.NotificationCleanupJob
}

func NewCronManager(flushSpec string, presenceFlushJob *job.PresenceFlushJob, notificationCleanupJob *job.NotificationCleanupJob) *Manager {
	if flushSpec == "" {
		flushSpec = "@every 30s"
	}
	return &Manager{
		engine:                 cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		flushSpec:              flushSpec,
		presenceFlushJob:       presenceFlushJob,
		notificationCleanupJob: notificationCleanupJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(s.flushSpec, s.presenceFlushJob); err != nil {
		return err
	}
	if s.notificationCleanupJob != nil {
		if _, err := s.engine.AddJob(notificationCleanupSpec, s.notificationCleanupJob); err != nil {
			return err
		}
	}
	return nil
}

func (s *Manager) Entries() int {
	return len(s.engine.Entries())
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

// Stop 等待正在执行的任务结束
func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}
