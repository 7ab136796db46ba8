package service

import (
	"CPOverflow/internal/api/config"
	"CPOverflow/internal/model"
	"CPOverflow/internal/pkg/mongo"
	"CPOverflow/internal/pkg/testutil"
	"CPOverflow/internal/repository"
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"gorm.io/gorm"
)

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []*mongo.SysBoxModel
}

func (f *fakeNotifier) Notify(_ context.Context, msg *mongo.SysBoxModel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeNotifier) sent() []*mongo.SysBoxModel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*mongo.SysBoxModel(nil), f.msgs...)
}

type testEnv struct {
	db       *gorm.DB
	mr       *miniredis.Miniredis
	users    UserService
	auth     AuthService
	follows  UserFollowService
	presence *presenceServiceImpl
	rooms    ChatRoomService
	messages MessageService
	requests FollowRequestService
	notifier *fakeNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	mr := testutil.NewTestRedis(t)
	cfg := config.Default()

	userRepo := repository.NewUserRepo(db)
	followRepo := repository.NewUserFollowRepo(db)
	roomRepo := repository.NewChatRoomRepo(db)
	messageRepo := repository.NewMessageRepo(db)

	follows := NewUserFollowService(followRepo)
	presence := NewPresenceService(repository.NewUserActivityRepo(db), userRepo, followRepo, cfg.Presence)
	rooms := NewChatRoomService(roomRepo, messageRepo, userRepo, follows, presence, cfg.Chat.DetailMessageLimit)
	notifier := &fakeNotifier{}

	return &testEnv{
		db:       db,
		mr:       mr,
		users:    NewUserService(userRepo),
		auth:     NewAuthService(userRepo),
		follows:  follows,
		presence: presence.(*presenceServiceImpl),
		rooms:    rooms,
		messages: NewMessageService(messageRepo, rooms, cfg.Chat.HistoryLimit),
		requests: NewFollowRequestService(repository.NewFollowRequestRepo(db), userRepo, follows, notifier),
		notifier: notifier,
	}
}

// directRoom 建立互相关注的两人及其单聊
func (e *testEnv) directRoom(t *testing.T, a, b *model.User) uint64 {
	t.Helper()
	testutil.Follow(t, e.db, a.ID, b.ID)
	testutil.Follow(t, e.db, b.ID, a.ID)
	room, _, err := e.rooms.CreateOrGetDirectRoom(context.Background(), a.ID, b.ID)
	if err != nil {
		t.Fatalf("direct room: %v", err)
	}
	return room.ID
}
