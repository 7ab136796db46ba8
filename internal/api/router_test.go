package api

import (
	"CPOverflow/internal/api/config"
	"CPOverflow/internal/api/handler"
	"CPOverflow/internal/model"
	"CPOverflow/internal/pkg/mongo"
	"CPOverflow/internal/pkg/security"
	"CPOverflow/internal/pkg/testutil"
	"CPOverflow/internal/pkg/ws"
	"CPOverflow/internal/repository"
	"CPOverflow/internal/service"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

type fakeSysBox struct {
	service.SysBoxService
}

func (fakeSysBox) Notify(context.Context, *mongo.SysBoxModel) error { return nil }

type testServer struct {
	srv      *httptest.Server
	db       *gorm.DB
	hub      *ws.Hub
	rooms    service.ChatRoomService
	messages service.MessageService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewTestDB(t)
	testutil.NewTestRedis(t)
	cfg := config.Default()

	userRepo := repository.NewUserRepo(db)
	followRepo := repository.NewUserFollowRepo(db)
	roomRepo := repository.NewChatRoomRepo(db)
	messageRepo := repository.NewMessageRepo(db)

	authSvc := service.NewAuthService(userRepo)
	follows := service.NewUserFollowService(followRepo)
	presence := service.NewPresenceService(repository.NewUserActivityRepo(db), userRepo, followRepo, cfg.Presence)
	rooms := service.NewChatRoomService(roomRepo, messageRepo, userRepo, follows, presence, cfg.Chat.DetailMessageLimit)
	messages := service.NewMessageService(messageRepo, rooms, cfg.Chat.HistoryLimit)
	sysBox := fakeSysBox{}
	requests := service.NewFollowRequestService(repository.NewFollowRequestRepo(db), userRepo, follows, sysBox)

	hub := ws.NewHub()
	broker := ws.NewLocalBroker(hub)

	router := SetupRouter(&HandlersGroup{
		UserHandler:          handler.NewUserHandler(service.NewUserService(userRepo)),
		UserFollowHandler:    handler.NewUserFollowHandler(follows),
		FollowRequestHandler: handler.NewFollowRequestHandler(requests),
		ChatHandler:          handler.NewChatHandler(rooms, messages, service.NewAttachmentService(rooms, cfg.MinIO.UploadExpire), broker),
		PresenceHandler:      handler.NewPresenceHandler(presence),
		SysBoxHandler:        handler.NewSysBoxHandler(sysBox),
		WSHandler:            handler.NewWsHandler(authSvc, rooms, messages, presence, hub, broker, cfg.Chat),
		AuthService:          authSvc,
		PresenceService:      presence,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	t.Cleanup(hub.CloseAll)

	return &testServer{srv: srv, db: db, hub: hub, rooms: rooms, messages: messages}
}

func (s *testServer) directRoom(t *testing.T, a, b *model.User) uint64 {
	t.Helper()
	testutil.Follow(t, s.db, a.ID, b.ID)
	testutil.Follow(t, s.db, b.ID, a.ID)
	room, _, err := s.rooms.CreateOrGetDirectRoom(context.Background(), a.ID, b.ID)
	if err != nil {
		t.Fatalf("direct room: %v", err)
	}
	return room.ID
}

func token(t *testing.T, u *model.User) string {
	t.Helper()
	tk, err := security.GenerateToken(u.ID, nil)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tk
}

func (s *testServer) dial(roomID uint64, tk string) (*websocket.Conn, *http.Response, error) {
	u := "ws" + strings.TrimPrefix(s.srv.URL, "http") + fmt.Sprintf("/ws/chat/%d?token=%s", roomID, tk)
	return websocket.DefaultDialer.Dial(u, nil)
}

func (s *testServer) join(t *testing.T, roomID uint64, u *model.User) *websocket.Conn {
	t.Helper()
	before := s.hub.Count(roomID)
	conn, _, err := s.dial(roomID, token(t, u))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	waitFor(t, func() bool { return s.hub.Count(roomID) == before+1 })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var event map[string]any
	if err = json.Unmarshal(data, &event); err != nil {
		t.Fatalf("decode event %s: %v", data, err)
	}
	return event
}

func send(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func decodeEnvelope(t *testing.T, body io.Reader) (int, json.RawMessage) {
	t.Helper()
	var resp struct {
		Code int             `json:"code"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp.Code, resp.Data
}

func TestChatSessionScenario(t *testing.T) {
	s := newTestServer(t)
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")
	roomID := s.directRoom(t, alice, bob)

	aliceConn := s.join(t, roomID, alice)
	bobConn := s.join(t, roomID, bob)

	// 进入房间不通知自己
	joined := readEvent(t, aliceConn)
	if joined["type"] != "user_joined" || joined["user"] != "bob" {
		t.Fatalf("unexpected join event %v", joined)
	}

	// 消息推送给包括发送者在内的所有人
	send(t, aliceConn, `{"type":"message","message":"hi"}`)
	for _, conn := range []*websocket.Conn{aliceConn, bobConn} {
		event := readEvent(t, conn)
		if event["type"] != "message" {
			t.Fatalf("expected message event, got %v", event)
		}
		msg := event["message"].(map[string]any)
		sender := msg["sender"].(map[string]any)
		if msg["content"] != "hi" || sender["username"] != "alice" || msg["is_read"] != false {
			t.Errorf("unexpected message payload %v", msg)
		}
	}

	// 输入状态不回送给自己，未知类型被忽略
	send(t, aliceConn, `{"type":"typing","is_typing":true}`)
	typing := readEvent(t, bobConn)
	if typing["type"] != "typing" || typing["user"] != "alice" || typing["is_typing"] != true {
		t.Fatalf("unexpected typing event %v", typing)
	}
	send(t, bobConn, `{"type":"dance"}`)
	send(t, bobConn, `not json`)
	send(t, bobConn, `{"type":"message","message":"yo"}`)
	next := readEvent(t, aliceConn)
	if next["type"] != "message" || next["message"].(map[string]any)["content"] != "yo" {
		t.Fatalf("alice should only see bob's message, got %v", next)
	}
	_ = readEvent(t, bobConn)

	// 已读回执只落库
	history, err := s.messages.History(context.Background(), roomID, bob.ID, 0, 10)
	if err != nil || len(history) != 2 {
		t.Fatalf("history: %v %d", err, len(history))
	}
	send(t, bobConn, fmt.Sprintf(`{"type":"read_message","message_id":%d}`, history[0].ID))
	waitFor(t, func() bool {
		n, err := s.messages.UnreadCount(context.Background(), roomID, bob.ID)
		return err == nil && n == 0
	})

	// 断开后通知剩余成员
	_ = bobConn.Close()
	left := readEvent(t, aliceConn)
	if left["type"] != "user_left" || left["user"] != "bob" {
		t.Fatalf("unexpected leave event %v", left)
	}
	waitFor(t, func() bool { return s.hub.Count(roomID) == 1 })
}

func TestWebsocketHandshakeRejected(t *testing.T) {
	s := newTestServer(t)
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")
	carol := testutil.CreateUser(t, s.db, "carol")
	roomID := s.directRoom(t, alice, bob)

	cases := []struct {
		name   string
		roomID uint64
		token  string
		code   int
	}{
		{"missing token", roomID, "", 401},
		{"garbage token", roomID, "a.b.c", 401},
		{"not a participant", roomID, token(t, carol), 403},
		{"room missing", roomID + 100, token(t, alice), 404},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn, resp, err := s.dial(tc.roomID, tc.token)
			if err == nil {
				_ = conn.Close()
				t.Fatalf("handshake should be rejected")
			}
			if resp == nil {
				t.Fatalf("expected http response, got %v", err)
			}
			defer resp.Body.Close()
			code, _ := decodeEnvelope(t, resp.Body)
			if code != tc.code {
				t.Errorf("expected code %d, got %d", tc.code, code)
			}
		})
	}
	if s.hub.Count(roomID) != 0 {
		t.Errorf("rejected sessions must not join")
	}
}

func TestRestSendBroadcastsToSessions(t *testing.T) {
	s := newTestServer(t)
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")
	roomID := s.directRoom(t, alice, bob)
	bobConn := s.join(t, roomID, bob)

	body := bytes.NewBufferString(`{"content":"over rest"}`)
	req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/api/chat/rooms/%d/messages", s.srv.URL, roomID), body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token(t, alice))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if code, data := decodeEnvelope(t, resp.Body); code != 200 {
		t.Fatalf("unexpected code %d: %s", code, data)
	}

	event := readEvent(t, bobConn)
	if event["type"] != "message" || event["message"].(map[string]any)["content"] != "over rest" {
		t.Fatalf("unexpected event %v", event)
	}
}

func TestRestAuthAndFollowGate(t *testing.T) {
	s := newTestServer(t)
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")

	do := func(method, path, tk, payload string) int {
		req, _ := http.NewRequest(method, s.srv.URL+path, strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		if tk != "" {
			req.Header.Set("Authorization", "Bearer "+tk)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", method, path, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("envelope responses are always 200, got %d", resp.StatusCode)
		}
		code, _ := decodeEnvelope(t, resp.Body)
		return code
	}

	if code := do(http.MethodGet, "/api/chat/rooms", "", ""); code != 401 {
		t.Errorf("anonymous request expected 401, got %d", code)
	}

	payload := fmt.Sprintf(`{"participant_id":%d}`, bob.ID)
	if code := do(http.MethodPost, "/api/chat/rooms", token(t, alice), payload); code != 403 {
		t.Errorf("direct room without follow expected 403, got %d", code)
	}

	testutil.Follow(t, s.db, alice.ID, bob.ID)
	if code := do(http.MethodPost, "/api/chat/rooms", token(t, alice), payload); code != 200 {
		t.Errorf("direct room after follow expected 200, got %d", code)
	}

	// 登出后 Token 失效
	tk := token(t, alice)
	if code := do(http.MethodPost, "/api/user/logout", tk, ""); code != 200 {
		t.Fatalf("logout expected 200, got %d", code)
	}
	if code := do(http.MethodGet, "/api/chat/rooms", tk, ""); code != 401 {
		t.Errorf("revoked token expected 401, got %d", code)
	}
}

func TestUntypedFrameIsTreatedAsMessage(t *testing.T) {
	s := newTestServer(t)
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")
	roomID := s.directRoom(t, alice, bob)
	conn := s.join(t, roomID, alice)

	send(t, conn, `{"message":"hi"}`)
	event := readEvent(t, conn)
	if event["type"] != "message" || event["message"].(map[string]any)["content"] != "hi" {
		t.Fatalf("unexpected event %v", event)
	}
	history, err := s.messages.History(context.Background(), roomID, alice.ID, 0, 10)
	if err != nil || len(history) != 1 {
		t.Fatalf("expected 1 persisted message: %v %d", err, len(history))
	}
}

func TestCreateRoomRouting(t *testing.T) {
	s := newTestServer(t)
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")
	carol := testutil.CreateUser(t, s.db, "carol")
	tk := token(t, alice)

	create := func(payload string) (int, map[string]any) {
		req, _ := http.NewRequest(http.MethodPost, s.srv.URL+"/api/chat/rooms", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+tk)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		defer resp.Body.Close()
		code, data := decodeEnvelope(t, resp.Body)
		var result map[string]any
		if code == 200 {
			if err = json.Unmarshal(data, &result); err != nil {
				t.Fatalf("decode result: %v", err)
			}
		}
		return code, result
	}
	countRooms := func() int64 {
		var n int64
		s.db.Model(&model.ChatRoom{}).Count(&n)
		return n
	}

	// 单个 user_ids 且非群聊走单聊，需要关注关系
	direct := fmt.Sprintf(`{"user_ids":[%d]}`, bob.ID)
	if code, _ := create(direct); code != 403 {
		t.Fatalf("direct room without follow expected 403, got %d", code)
	}
	if n := countRooms(); n != 0 {
		t.Fatalf("no room should be created, got %d", n)
	}

	testutil.Follow(t, s.db, alice.ID, bob.ID)
	var roomIDs []any
	for i := 0; i < 2; i++ {
		code, result := create(direct)
		if code != 200 {
			t.Fatalf("direct room #%d expected 200, got %d", i, code)
		}
		room := result["room"].(map[string]any)
		if room["is_group"] != false || result["created"] != (i == 0) {
			t.Fatalf("unexpected result #%d: %v", i, result)
		}
		roomIDs = append(roomIDs, room["id"])
	}
	if roomIDs[0] != roomIDs[1] || countRooms() != 1 {
		t.Fatalf("direct room should be reused: %v, %d rooms", roomIDs, countRooms())
	}

	// 群聊必须给出成员
	if code, _ := create(`{"is_group":true,"user_ids":[]}`); code != 400 {
		t.Fatalf("empty group expected 400, got %d", code)
	}
	if code, _ := create(fmt.Sprintf(`{"user_ids":[%d,%d]}`, bob.ID, carol.ID)); code != 400 {
		t.Fatalf("multiple ids without is_group expected 400, got %d", code)
	}
	code, result := create(fmt.Sprintf(`{"is_group":true,"user_ids":[%d,%d]}`, bob.ID, carol.ID))
	if code != 200 || result["room"].(map[string]any)["is_group"] != true {
		t.Fatalf("group room: code %d result %v", code, result)
	}
	if n := countRooms(); n != 2 {
		t.Fatalf("expected 2 rooms, got %d", n)
	}
}
