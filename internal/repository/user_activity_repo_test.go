package repository

import (
	"CPOverflow/internal/pkg/testutil"
	"context"
	"testing"
	"time"
)

func TestTouchCreatesRowLazilyAndOnlyMovesForward(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserActivityRepo(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "alice")

	if got, _ := repo.GetActivity(ctx, a.ID); got != nil {
		t.Fatal("no row expected before first touch")
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := repo.Touch(ctx, a.ID, now); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if err := repo.Touch(ctx, a.ID, now.Add(-time.Hour)); err != nil {
		t.Fatalf("stale touch: %v", err)
	}

	got, err := repo.GetActivity(ctx, a.ID)
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if !got.LastActivity.Equal(now) {
		t.Fatalf("last activity moved backwards: %v", got.LastActivity)
	}
	if got.IsOnline {
		t.Fatal("touch must not flip online flag")
	}
}

func TestSetOnlineUpserts(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserActivityRepo(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")
	now := time.Now().UTC()

	if err := repo.SetOnline(ctx, a.ID, true, now); err != nil {
		t.Fatalf("set online: %v", err)
	}
	_ = repo.SetOnline(ctx, b.ID, true, now)
	_ = repo.SetOnline(ctx, b.ID, false, now)

	online, err := repo.GetOnlineIds(ctx, []uint64{a.ID, b.ID})
	if err != nil || len(online) != 1 || online[0] != a.ID {
		t.Fatalf("expected only alice online, got %v err %v", online, err)
	}
}
