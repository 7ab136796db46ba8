package repository

import (
	"CPOverflow/internal/model"
	"CPOverflow/internal/pkg/testutil"
	"context"
	"testing"
	"time"
)

func TestDirectPeerKeyIsOrderIndependent(t *testing.T) {
	if DirectPeerKey(7, 3) != DirectPeerKey(3, 7) {
		t.Fatal("peer key must not depend on argument order")
	}
	if DirectPeerKey(3, 7) != "3_7" {
		t.Fatalf("unexpected key %s", DirectPeerKey(3, 7))
	}
}

func TestCreateOrGetDirectRoomIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewChatRoomRepo(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")

	first, created, err := repo.CreateOrGetDirectRoom(ctx, a.ID, b.ID)
	if err != nil || !created {
		t.Fatalf("first create: created=%v err=%v", created, err)
	}
	second, created, err := repo.CreateOrGetDirectRoom(ctx, b.ID, a.ID)
	if err != nil || created {
		t.Fatalf("second create: created=%v err=%v", created, err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same room, got %d and %d", first.ID, second.ID)
	}

	participants, err := repo.GetParticipants(ctx, []uint64{first.ID})
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if len(participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(participants))
	}

	var rooms int64
	db.Model(&model.ChatRoom{}).Count(&rooms)
	if rooms != 1 {
		t.Fatalf("expected 1 room, got %d", rooms)
	}
}

func TestGroupRoomsDoNotCollideOnPeerKey(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewChatRoomRepo(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")

	for i := 0; i < 2; i++ {
		name := "study group"
		room := &model.ChatRoom{Name: &name}
		if err := repo.CreateGroupRoom(ctx, room, []uint64{a.ID, b.ID}); err != nil {
			t.Fatalf("create group %d: %v", i, err)
		}
		if !room.IsGroup {
			t.Fatal("group flag not set")
		}
	}

	ok, err := repo.IsParticipant(ctx, 1, b.ID)
	if err != nil || !ok {
		t.Fatalf("expected bob in room 1: ok=%v err=%v", ok, err)
	}
}

func TestGetUserRoomsOrderedByRecency(t *testing.T) {
	db := testutil.NewTestDB(t)
	rooms := NewChatRoomRepo(db)
	messages := NewMessageRepo(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")
	c := testutil.CreateUser(t, db, "carol")

	ab, _, _ := rooms.CreateOrGetDirectRoom(ctx, a.ID, b.ID)
	ac, _, _ := rooms.CreateOrGetDirectRoom(ctx, a.ID, c.ID)

	base := time.Now().UTC().Add(time.Minute)
	_ = messages.CreateMessage(ctx, &model.Message{RoomID: ac.ID, SenderID: c.ID, MessageType: "text", Content: "old", CreatedAt: base})
	_ = messages.CreateMessage(ctx, &model.Message{RoomID: ab.ID, SenderID: b.ID, MessageType: "text", Content: "new", CreatedAt: base.Add(time.Second)})

	list, err := rooms.GetUserRooms(ctx, a.ID, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != ab.ID || list[1].ID != ac.ID {
		t.Fatalf("unexpected order: %+v", list)
	}

	total, _ := rooms.CountUserRooms(ctx, a.ID)
	if total != 2 {
		t.Fatalf("expected 2 rooms, got %d", total)
	}
	other, _ := rooms.GetUserRooms(ctx, b.ID, 10, 0)
	if len(other) != 1 {
		t.Fatalf("bob should see one room, got %d", len(other))
	}
}
