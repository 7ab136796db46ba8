package repository

import (
	"CPOverflow/internal/model"
	"CPOverflow/internal/pkg/consts"
	"CPOverflow/internal/pkg/database"
	"CPOverflow/internal/pkg/testutil"
	"context"
	"testing"
)

func TestAcceptCreatesMutualEdgesAndRoom(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewFollowRequestRepo(db)
	follows := NewUserFollowRepo(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")

	fr := &model.FollowRequest{RequesterID: a.ID, RequestedID: b.ID}
	if err := repo.CreateFollowRequest(ctx, fr); err != nil {
		t.Fatalf("create: %v", err)
	}

	// 只有被请求者能处理
	got, room, err := repo.Accept(ctx, fr.ID, a.ID)
	if err != nil || got != nil || room != nil {
		t.Fatalf("requester must not accept: fr=%v room=%v err=%v", got, room, err)
	}

	got, room, err = repo.Accept(ctx, fr.ID, b.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if got.Status != consts.FollowRequestAccepted || room == nil {
		t.Fatalf("unexpected accept result fr=%+v room=%+v", got, room)
	}

	ab, _ := follows.IsFollowing(ctx, a.ID, b.ID)
	ba, _ := follows.IsFollowing(ctx, b.ID, a.ID)
	if !ab || !ba {
		t.Fatalf("expected mutual follow, a->b=%v b->a=%v", ab, ba)
	}

	var rooms int64
	db.Model(&model.ChatRoom{}).Count(&rooms)
	if rooms != 1 {
		t.Fatalf("expected exactly one room, got %d", rooms)
	}

	// 已处理的请求不能再次通过
	again, _, err := repo.Accept(ctx, fr.ID, b.ID)
	if err != nil || again != nil {
		t.Fatalf("second accept should be a no-op: %v %v", again, err)
	}
}

func TestDuplicateFollowRequestViolatesUniqueIndex(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewFollowRequestRepo(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")

	if err := repo.CreateFollowRequest(ctx, &model.FollowRequest{RequesterID: a.ID, RequestedID: b.ID}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := repo.CreateFollowRequest(ctx, &model.FollowRequest{RequesterID: a.ID, RequestedID: b.ID})
	if !database.IsDuplicateKey(err) {
		t.Fatalf("expected duplicate key, got %v", err)
	}
}

func TestRejectedRequestResetsOnSameRow(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewFollowRequestRepo(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")

	fr := &model.FollowRequest{RequesterID: a.ID, RequestedID: b.ID}
	_ = repo.CreateFollowRequest(ctx, fr)

	rejected, err := repo.Reject(ctx, fr.ID, b.ID)
	if err != nil || rejected == nil || rejected.Status != consts.FollowRequestRejected {
		t.Fatalf("reject: %+v %v", rejected, err)
	}

	reset, err := repo.ResetToPending(ctx, fr.ID)
	if err != nil || !reset {
		t.Fatalf("reset: %v %v", reset, err)
	}
	reset, _ = repo.ResetToPending(ctx, fr.ID)
	if reset {
		t.Fatal("pending request must not be reset twice")
	}

	pending, err := repo.GetReceivedPending(ctx, b.ID, 10, 0)
	if err != nil || len(pending) != 1 || pending[0].ID != fr.ID {
		t.Fatalf("expected the original row pending, got %+v err %v", pending, err)
	}
	if pending[0].Requester.Username != "alice" {
		t.Fatalf("requester not preloaded: %+v", pending[0].Requester)
	}

	var rows int64
	db.Model(&model.FollowRequest{}).Count(&rows)
	if rows != 1 {
		t.Fatalf("expected a single row, got %d", rows)
	}
}
