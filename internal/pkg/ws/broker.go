package ws

import (
	"context"
	"errors"
	log "log/slog"
	"strconv"
	"strings"
	"sync"

	"CPOverflow/internal/pkg/consts"
	"CPOverflow/internal/pkg/redis"

	"github.com/goccy/go-json"
)

// Broker 房间事件的分发通道
type Broker interface {
	// Publish 将事件投递给房间内的连接，excludeUserID 为 0 时不排除任何人
	Publish(ctx context.Context, roomID uint64, data []byte, excludeUserID uint64) error
	// Run 阻塞直到 ctx 结束
	Run(ctx context.Context) error
}

// NewBroker 根据配置选择广播方式
func NewBroker(kind string, hub *Hub) Broker {
	if strings.EqualFold(kind, "redis") {
		return NewRedisBroker(hub)
	}
	return NewLocalBroker(hub)
}

// LocalBroker 单实例部署，直接投递到本地 Hub
type LocalBroker struct {
	hub *Hub
}

func NewLocalBroker(hub *Hub) *LocalBroker {
	return &LocalBroker{hub: hub}
}

func (b *LocalBroker) Publish(_ context.Context, roomID uint64, data []byte, excludeUserID uint64) error {
	b.hub.Deliver(roomID, data, excludeUserID)
	return nil
}

func (b *LocalBroker) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// envelope 跨实例转发的房间事件
type envelope struct {
	RoomID        uint64          `json:"room_id"`
	ExcludeUserID uint64          `json:"exclude_user_id"`
	Data          json.RawMessage `json:"data"`
}

// RedisBroker 多实例部署，经 redis 发布订阅转发后由各实例投递到本地连接
type RedisBroker struct {
	hub       *Hub
	ready     chan struct{}
	readyOnce sync.Once
}

func NewRedisBroker(hub *Hub) *RedisBroker {
	return &RedisBroker{hub: hub, ready: make(chan struct{})}
}

func (b *RedisBroker) Publish(ctx context.Context, roomID uint64, data []byte, excludeUserID uint64) error {
	payload, err := json.Marshal(&envelope{
		RoomID:        roomID,
		ExcludeUserID: excludeUserID,
		Data:          data,
	})
	if err != nil {
		return err
	}
	return redis.Publish(ctx, consts.ChatRoomChannelPrefix+strconv.FormatUint(roomID, 10), payload)
}

// Ready 订阅建立后关闭
func (b *RedisBroker) Ready() <-chan struct{} {
	return b.ready
}

func (b *RedisBroker) Run(ctx context.Context) error {
	pubsub := redis.PSubscribe(ctx, consts.ChatRoomChannelPrefix+"*")
	defer func() {
		_ = pubsub.Close()
	}()

	// 等待订阅确认
	if _, err := pubsub.Receive(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	b.readyOnce.Do(func() { close(b.ready) })
	log.Info("chat broker subscribed", "pattern", consts.ChatRoomChannelPrefix+"*")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Warn("invalid chat envelope", "channel", msg.Channel, "err", err)
				continue
			}
			b.hub.Deliver(env.RoomID, env.Data, env.ExcludeUserID)
		}
	}
}
