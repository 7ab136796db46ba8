package cron

import (
	"CPOverflow/internal/job"
	"testing"
)

func TestRegisterJobs(t *testing.T) {
	mgr := NewCronManager("@every 30s", job.NewPresenceFlushJob(nil), job.NewNotificationCleanupJob(nil))
	if err := mgr.RegisterJobs(); err != nil {
		t.Fatalf("register: %v", err)
	}
	if mgr.Entries() != 2 {
		t.Errorf("expected 2 entries, got %d", mgr.Entries())
	}
}

func TestRegisterJobsInvalidSpec(t *testing.T) {
	mgr := NewCronManager("not a spec", job.NewPresenceFlushJob(nil), nil)
	if err := mgr.RegisterJobs(); err == nil {
		t.Fatalf("expected invalid spec error")
	}
}
