package ws

import (
	"sync"
)

// Hub 按房间分组管理在线连接，每个房间独立加锁
type Hub struct {
	rooms sync.Map // roomID -> *group
}

type group struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{}
}

// Join 将连接加入所属房间
func (h *Hub) Join(c *Client) {
	for {
		v, _ := h.rooms.LoadOrStore(c.RoomID, &group{clients: make(map[*Client]struct{})})
		g := v.(*group)
		g.mu.Lock()
		if g.closed {
			// 该分组刚被回收，重新获取
			g.mu.Unlock()
			continue
		}
		g.clients[c] = struct{}{}
		g.mu.Unlock()
		return
	}
}

// Leave 移除连接，房间为空时回收分组
func (h *Hub) Leave(c *Client) {
	v, ok := h.rooms.Load(c.RoomID)
	if !ok {
		return
	}
	g := v.(*group)
	g.mu.Lock()
	delete(g.clients, c)
	if len(g.clients) == 0 && !g.closed {
		g.closed = true
		h.rooms.CompareAndDelete(c.RoomID, g)
	}
	g.mu.Unlock()
}

// Deliver 向房间内除 excludeUserID 以外的连接投递数据，返回成功入队的连接数。
// 发送缓冲已满的连接会被关闭。
func (h *Hub) Deliver(roomID uint64, data []byte, excludeUserID uint64) int {
	v, ok := h.rooms.Load(roomID)
	if !ok {
		return 0
	}
	g := v.(*group)

	delivered := 0
	var slow []*Client
	g.mu.RLock()
	for c := range g.clients {
		if excludeUserID != 0 && c.UserID == excludeUserID {
			continue
		}
		if c.Enqueue(data) {
			delivered++
		} else {
			slow = append(slow, c)
		}
	}
	g.mu.RUnlock()

	for _, c := range slow {
		c.Close()
	}
	return delivered
}

// Count 房间内的在线连接数
func (h *Hub) Count(roomID uint64) int {
	v, ok := h.rooms.Load(roomID)
	if !ok {
		return 0
	}
	g := v.(*group)
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.clients)
}

// CloseAll 关闭所有连接，服务退出时调用
func (h *Hub) CloseAll() {
	h.rooms.Range(func(_, v any) bool {
		g := v.(*group)
		g.mu.RLock()
		clients := make([]*Client, 0, len(g.clients))
		for c := range g.clients {
			clients = append(clients, c)
		}
		g.mu.RUnlock()
		for _, c := range clients {
			c.Close()
		}
		return true
	})
}
