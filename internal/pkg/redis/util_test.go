package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setup(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	prev := Rdb
	Rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = Rdb.Close()
		Rdb = prev
	})
	return mr
}

func TestZAddIfExists(t *testing.T) {
	mr := setup(t)
	ctx := context.Background()

	if err := ZAddIfExists(ctx, "z", 1, "a"); err != nil {
		t.Fatalf("zadd: %v", err)
	}
	if mr.Exists("z") {
		t.Fatalf("missing key must not be created")
	}

	_, _ = mr.ZAdd("z", 1, "a")
	if err := ZAddIfExists(ctx, "z", 2, "b"); err != nil {
		t.Fatalf("zadd: %v", err)
	}
	members, _ := mr.ZMembers("z")
	if len(members) != 2 {
		t.Errorf("expected new member appended, got %v", members)
	}
}

func TestTryLock(t *testing.T) {
	setup(t)
	ctx := context.Background()

	ok, err := TryLock(ctx, "lock", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first lock: %v %v", ok, err)
	}
	ok, _ = TryLock(ctx, "lock", time.Minute)
	if ok {
		t.Fatalf("second lock should fail")
	}
	_ = Unlock(ctx, "lock")
	ok, _ = TryLock(ctx, "lock", time.Minute)
	if !ok {
		t.Fatalf("lock after unlock should succeed")
	}
}

func TestHMGetInt64s(t *testing.T) {
	mr := setup(t)
	mr.HSet("h", "1", "100")
	mr.HSet("h", "2", "bad")

	got, err := HMGetInt64s(context.Background(), "h", "1", "2", "3")
	if err != nil {
		t.Fatalf("hmget: %v", err)
	}
	if len(got) != 1 || got["1"] != 100 {
		t.Errorf("unexpected result %v", got)
	}
}

func TestMergeSetKeepsLeftover(t *testing.T) {
	mr := setup(t)
	ctx := context.Background()

	n, err := MergeSet(ctx, "dirty", "processing")
	if err != nil || n != 0 {
		t.Fatalf("empty merge: n=%d err=%v", n, err)
	}

	_, _ = mr.SAdd("processing", "1")
	_, _ = mr.SAdd("dirty", "1", "2")
	n, err = MergeSet(ctx, "dirty", "processing")
	if err != nil || n != 2 {
		t.Fatalf("merge: n=%d err=%v", n, err)
	}
	if mr.Exists("dirty") {
		t.Fatal("source set should be removed")
	}
	members, _ := mr.Members("processing")
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %v", members)
	}
}
