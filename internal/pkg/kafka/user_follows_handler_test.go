package kafka

import (
	"CPOverflow/internal/pkg/consts"
	"CPOverflow/internal/pkg/testutil"
	"context"
	"testing"

	"github.com/IBM/sarama"
)

func canal(typ, table string, follower, following string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{
		Topic: "canal-user-follows",
		Value: []byte(`{"database":"cpoverflow","table":"` + table + `","type":"` + typ +
			`","isDdl":false,"data":[{"follower_id":"` + follower + `","following_id":"` + following + `"}]}`),
	}
}

func TestUserFollowsHandlerInsertAndDelete(t *testing.T) {
	mr := testutil.NewTestRedis(t)
	ctx := context.Background()
	h := NewUserFollowsHandler()

	// 已有缓存才增量更新
	followingKey := consts.UserFollowingKey + "1"
	if _, err := mr.ZAdd(followingKey, 1, "9"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	mr.Set(consts.UserFollowingCountKey+"1", "1")
	mr.Set(consts.UserFollowerCountKey+"2", "0")

	if err := h.logic(ctx, canal(INSERT, userFollowsTable, "1", "2")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	members, err := mr.ZMembers(followingKey)
	if err != nil {
		t.Fatalf("zmembers: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("expected following cache to gain a member, got %v", members)
	}
	if mr.Exists(consts.UserFollowingCountKey+"1") || mr.Exists(consts.UserFollowerCountKey+"2") {
		t.Errorf("count caches should be dropped")
	}

	if err = h.logic(ctx, canal(DELETE, userFollowsTable, "1", "2")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	members, _ = mr.ZMembers(followingKey)
	if len(members) != 1 || members[0] != "9" {
		t.Errorf("expected member 2 removed, got %v", members)
	}
}

func TestUserFollowsHandlerSkipsColdCacheAndOtherTables(t *testing.T) {
	mr := testutil.NewTestRedis(t)
	ctx := context.Background()
	h := NewUserFollowsHandler()

	if err := h.logic(ctx, canal(INSERT, userFollowsTable, "3", "4")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if mr.Exists(consts.UserFollowingKey + "3") {
		t.Errorf("cold cache must not be created from a single event")
	}

	if err := h.logic(ctx, canal(INSERT, "users", "3", "4")); err != nil {
		t.Fatalf("other table should be ignored: %v", err)
	}
	if err := h.logic(ctx, &sarama.ConsumerMessage{Value: []byte("not json")}); err != nil {
		t.Fatalf("malformed payload should be ignored: %v", err)
	}
}

func TestStrToUint64(t *testing.T) {
	cases := []struct {
		in   interface{}
		want uint64
	}{
		{"42", 42},
		{float64(7), 7},
		{"-1", 0},
		{nil, 0},
		{"abc", 0},
	}
	for _, tc := range cases {
		if got := StrToUint64(tc.in); got != tc.want {
			t.Errorf("StrToUint64(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
