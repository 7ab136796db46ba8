package ws

import (
	"sync"
	"testing"
)

func newTestClient(userID, roomID uint64, buffer int) *Client {
	return NewClient(nil, userID, "u", roomID, Options{SendBuffer: buffer})
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case data := <-c.send:
			out = append(out, data)
		default:
			return out
		}
	}
}

func TestHubDeliverExclude(t *testing.T) {
	hub := NewHub()
	alice := newTestClient(1, 10, 4)
	bob := newTestClient(2, 10, 4)
	other := newTestClient(3, 11, 4)
	hub.Join(alice)
	hub.Join(bob)
	hub.Join(other)

	if n := hub.Deliver(10, []byte(`{"type":"typing"}`), 1); n != 1 {
		t.Fatalf("expected 1 recipient, got %d", n)
	}
	if got := drain(alice); len(got) != 0 {
		t.Errorf("sender should be excluded, got %d frames", len(got))
	}
	if got := drain(bob); len(got) != 1 {
		t.Errorf("bob expected 1 frame, got %d", len(got))
	}
	if got := drain(other); len(got) != 0 {
		t.Errorf("other room must not receive, got %d frames", len(got))
	}

	// excludeUserID 为 0 时包含发送者
	if n := hub.Deliver(10, []byte(`{"type":"message"}`), 0); n != 2 {
		t.Fatalf("expected 2 recipients, got %d", n)
	}
}

func TestHubExcludeAllSessionsOfUser(t *testing.T) {
	hub := NewHub()
	tab1 := newTestClient(1, 10, 4)
	tab2 := newTestClient(1, 10, 4)
	bob := newTestClient(2, 10, 4)
	hub.Join(tab1)
	hub.Join(tab2)
	hub.Join(bob)

	if n := hub.Deliver(10, []byte(`{}`), 1); n != 1 {
		t.Fatalf("expected only bob, got %d", n)
	}
}

func TestHubLeaveReclaimsRoom(t *testing.T) {
	hub := NewHub()
	c := newTestClient(1, 10, 1)
	hub.Join(c)
	if hub.Count(10) != 1 {
		t.Fatalf("expected 1 client")
	}
	hub.Leave(c)
	if hub.Count(10) != 0 {
		t.Fatalf("expected empty room")
	}
	if _, ok := hub.rooms.Load(uint64(10)); ok {
		t.Errorf("empty room should be reclaimed")
	}

	// 回收后可重新加入
	hub.Join(c)
	if hub.Count(10) != 1 {
		t.Errorf("rejoin failed")
	}
}

func TestHubSlowClientClosed(t *testing.T) {
	hub := NewHub()
	slow := newTestClient(1, 10, 1)
	fast := newTestClient(2, 10, 8)
	hub.Join(slow)
	hub.Join(fast)

	hub.Deliver(10, []byte(`1`), 0)
	hub.Deliver(10, []byte(`2`), 0)

	select {
	case <-slow.Done():
	default:
		t.Fatalf("slow client should be closed")
	}
	if got := drain(fast); len(got) != 2 {
		t.Errorf("fast client expected 2 frames, got %d", len(got))
	}
	if slow.Enqueue([]byte(`3`)) {
		t.Errorf("closed client must reject frames")
	}
}

func TestHubConcurrentJoinLeave(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(uid uint64) {
			defer wg.Done()
			c := newTestClient(uid, 10, 4)
			hub.Join(c)
			hub.Deliver(10, []byte(`{}`), uid)
			hub.Leave(c)
		}(uint64(i + 1))
	}
	wg.Wait()
	if hub.Count(10) != 0 {
		t.Errorf("expected empty room, got %d", hub.Count(10))
	}
}

func TestClientCloseIdempotent(t *testing.T) {
	c := newTestClient(1, 10, 1)
	c.Close()
	c.Close()
	select {
	case <-c.Done():
	default:
		t.Fatalf("done should be closed")
	}
}
