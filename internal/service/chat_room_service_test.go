package service

import (
	"CPOverflow/internal/pkg/consts"
	"CPOverflow/internal/pkg/testutil"
	"context"
	"errors"
	"testing"
)

func TestDirectRoomRequiresFollow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, env.db, "alice")
	b := testutil.CreateUser(t, env.db, "bob")

	if _, _, err := env.rooms.CreateOrGetDirectRoom(ctx, a.ID, b.ID); !errors.Is(err, ErrChatNotAllowed) {
		t.Fatalf("expected ErrChatNotAllowed, got %v", err)
	}
	if _, _, err := env.rooms.CreateOrGetDirectRoom(ctx, a.ID, a.ID); !errors.Is(err, ErrParamInvalid) {
		t.Fatalf("expected ErrParamInvalid for self, got %v", err)
	}
	if _, _, err := env.rooms.CreateOrGetDirectRoom(ctx, a.ID, 9999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	testutil.Follow(t, env.db, a.ID, b.ID)

	room, created, err := env.rooms.CreateOrGetDirectRoom(ctx, a.ID, b.ID)
	if err != nil || !created {
		t.Fatalf("create: created=%v err=%v", created, err)
	}
	if room.IsGroup || room.OtherParticipant == nil || room.OtherParticipant.ID != b.ID {
		t.Fatalf("unexpected room %+v", room)
	}

	again, created, err := env.rooms.CreateOrGetDirectRoom(ctx, a.ID, b.ID)
	if err != nil || created || again.ID != room.ID {
		t.Fatalf("second call must return the same room: id=%d created=%v err=%v", again.ID, created, err)
	}

	// 关注是单向的，bob 没有关注 alice
	if _, _, err = env.rooms.CreateOrGetDirectRoom(ctx, b.ID, a.ID); !errors.Is(err, ErrChatNotAllowed) {
		t.Fatalf("expected ErrChatNotAllowed for reverse direction, got %v", err)
	}
}

func TestGroupRoomSkipsUnknownMembers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, env.db, "alice")
	b := testutil.CreateUser(t, env.db, "bob")
	c := testutil.CreateUser(t, env.db, "carol")

	name := "study"
	room, err := env.rooms.CreateGroupRoom(ctx, a.ID, []uint64{b.ID, 4242, c.ID, b.ID}, &name)
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if !room.IsGroup || len(room.Participants) != 3 || room.OtherParticipant != nil {
		t.Fatalf("unexpected group %+v", room)
	}

	other, err := env.rooms.OtherParticipant(ctx, room.ID, a.ID)
	if err != nil || other != nil {
		t.Fatalf("group room has no other participant, got %v %v", other, err)
	}

	for _, uid := range []uint64{a.ID, b.ID, c.ID} {
		ok, err := env.rooms.CanAccess(ctx, uid, room.ID)
		if err != nil || !ok {
			t.Fatalf("member %d should have access", uid)
		}
	}
}

func TestAccessChecks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, env.db, "alice")
	b := testutil.CreateUser(t, env.db, "bob")
	c := testutil.CreateUser(t, env.db, "carol")
	roomID := env.directRoom(t, a, b)

	if ok, _ := env.rooms.CanAccess(ctx, c.ID, roomID); ok {
		t.Fatal("outsider must not have access")
	}
	if err := env.rooms.CheckAccess(ctx, c.ID, roomID); !errors.Is(err, ErrChatNotAllowed) {
		t.Fatalf("expected ErrChatNotAllowed, got %v", err)
	}
	if err := env.rooms.CheckAccess(ctx, a.ID, 777); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
	if _, err := env.rooms.GetRoomDetail(ctx, c.ID, roomID); !errors.Is(err, ErrChatNotAllowed) {
		t.Fatalf("detail by outsider: %v", err)
	}

	other, err := env.rooms.OtherParticipant(ctx, roomID, a.ID)
	if err != nil || other == nil || other.ID != b.ID {
		t.Fatalf("expected bob as other participant, got %v %v", other, err)
	}
	other, err = env.rooms.OtherParticipant(ctx, roomID, c.ID)
	if err != nil || other != nil {
		t.Fatalf("non member has no other participant, got %v %v", other, err)
	}
}

func TestListRoomsCarriesSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, env.db, "alice")
	b := testutil.CreateUser(t, env.db, "bob")
	c := testutil.CreateUser(t, env.db, "carol")
	ab := env.directRoom(t, a, b)
	ac := env.directRoom(t, a, c)

	if _, err := env.messages.Append(ctx, ab, b.ID, "hello", "", nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := env.messages.Append(ctx, ab, b.ID, "again", "", nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := env.presence.SetOnline(ctx, b.ID, true); err != nil {
		t.Fatalf("set online: %v", err)
	}

	page, err := env.rooms.ListRooms(ctx, a.ID, 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 || len(page.List) != 2 || page.HasMore {
		t.Fatalf("unexpected page %+v", page)
	}
	first := page.List[0]
	if first.ID != ab {
		t.Fatalf("room with latest message should come first, got %d (ac=%d)", first.ID, ac)
	}
	if first.UnreadCount != 2 || first.LastMessage == nil || first.LastMessage.Content != "again" {
		t.Fatalf("unexpected summary %+v", first)
	}
	if first.OtherParticipantState != consts.ActivityOnline {
		t.Fatalf("expected bob online, got %q", first.OtherParticipantState)
	}
	if page.List[1].OtherParticipantState != consts.ActivityOffline {
		t.Fatalf("carol never active, got %q", page.List[1].OtherParticipantState)
	}
}

func TestRoomDetailReturnsRecentMessagesAscending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, env.db, "alice")
	b := testutil.CreateUser(t, env.db, "bob")
	roomID := env.directRoom(t, a, b)

	for _, text := range []string{"one", "two", "three"} {
		if _, err := env.messages.Append(ctx, roomID, a.ID, text, "", nil); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	detail, err := env.rooms.GetRoomDetail(ctx, b.ID, roomID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if len(detail.Messages) != 3 || detail.Messages[0].Content != "one" || detail.Messages[2].Content != "three" {
		t.Fatalf("unexpected messages %+v", detail.Messages)
	}
	if detail.Messages[0].IsRead {
		t.Fatal("bob has not read anything yet")
	}
}
