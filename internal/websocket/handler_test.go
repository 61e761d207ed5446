package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"truthgate-api/config"
	"truthgate-api/internal/domain/conversation"
	"truthgate-api/internal/domain/user"
	"truthgate-api/internal/events"
	"truthgate-api/internal/redis"
	"truthgate-api/internal/repository"
	"truthgate-api/internal/services"
	"truthgate-api/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type socketFixture struct {
	server  *httptest.Server
	auth    *services.AuthService
	counsel *services.CounselService
	hub     *Hub
	handler *Handler
}

func newSocketFixture(t *testing.T) *socketFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t, repository.Models()...)
	users := repository.NewUserRepository(db)
	conversations := repository.NewConversationRepository(db)
	messages := repository.NewMessageRepository(db)

	hub := startHub(t)
	auth := services.NewAuthService(users, &config.Config{JWTSecret: "ws-secret", JWTExpiryMin: 5})
	counsel := services.NewCounselService(conversations, messages, users, NewLocalBroadcaster(hub), nil)
	handler := NewHandler(auth, counsel, hub, nil)

	router := gin.New()
	router.GET("/ws/counsel/:id", handler.Connect)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &socketFixture{server: srv, auth: auth, counsel: counsel, hub: hub, handler: handler}
}

func (f *socketFixture) register(t *testing.T, username string, staff bool) (services.AuthResponse, string) {
	t.Helper()
	ctx := context.Background()
	if staff {
		_, err := f.auth.EnsureAdmin(ctx, username, "", "password123")
		require.NoError(t, err)
		res, err := f.auth.Login(ctx, services.LoginInput{Username: username, Password: "password123"})
		require.NoError(t, err)
		return res, res.AccessToken
	}
	res, err := f.auth.Register(ctx, services.RegisterInput{Username: username, Password: "password123"})
	require.NoError(t, err)
	return res, res.AccessToken
}

func (f *socketFixture) url(conversationID string, token string) string {
	u := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/counsel/" + conversationID
	if token != "" {
		u += "?token=" + token
	}
	return u
}

func (f *socketFixture) dial(t *testing.T, conversationID uuid.UUID, token string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(f.url(conversationID.String(), token), nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame map[string]interface{}
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestConnect_RejectsWithBare403(t *testing.T) {
	f := newSocketFixture(t)
	alice, aliceToken := f.register(t, "alice", false)
	_, malloryToken := f.register(t, "mallory", false)

	aliceActor, err := f.auth.Authenticate(context.Background(), aliceToken)
	require.NoError(t, err)
	conv, err := f.counsel.StartConversation(context.Background(), aliceActor, conversation.RetentionPermanent)
	require.NoError(t, err)
	require.Equal(t, alice.User.ID, conv.UserID.String())

	tests := []struct {
		name string
		url  string
	}{
		{"no token", f.url(conv.ID.String(), "")},
		{"bad token", f.url(conv.ID.String(), "garbage")},
		{"unknown conversation", f.url(uuid.NewString(), aliceToken)},
		{"malformed conversation id", f.url("not-a-uuid", aliceToken)},
		{"not the owner", f.url(conv.ID.String(), malloryToken)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(tt.url, nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestConnect_MessagesReachEveryParticipantInOrder(t *testing.T) {
	f := newSocketFixture(t)
	ctx := context.Background()
	_, aliceToken := f.register(t, "alice", false)
	_, graceToken := f.register(t, "grace", true)

	alice, err := f.auth.Authenticate(ctx, aliceToken)
	require.NoError(t, err)
	conv, err := f.counsel.StartConversation(ctx, alice, "")
	require.NoError(t, err)

	aliceConn := f.dial(t, conv.ID, aliceToken)
	graceConn := f.dial(t, conv.ID, graceToken)
	require.Equal(t, 2, f.hub.ChannelSubscriberCount(events.ConversationChannel(conv.ID)))

	for _, text := range []string{"first", "second", "third"} {
		require.NoError(t, aliceConn.WriteJSON(map[string]string{"message": text}))
	}

	for _, conn := range []*websocket.Conn{aliceConn, graceConn} {
		for _, want := range []string{"first", "second", "third"} {
			frame := readFrame(t, conn)
			assert.Equal(t, "message", frame["type"])
			assert.Equal(t, want, frame["message"])
			assert.Equal(t, "alice", frame["sender_username"])
			assert.Equal(t, conv.ID.String(), frame["conversation_id"])
		}
	}

	t.Run("edits made over REST are pushed", func(t *testing.T) {
		history, _, err := f.counsel.History(ctx, conv.ID, alice, 1, 10)
		require.NoError(t, err)
		require.Len(t, history, 3)

		_, err = f.counsel.EditMessage(ctx, history[0].ID, alice, "first!")
		require.NoError(t, err)
		frame := readFrame(t, graceConn)
		assert.Equal(t, "message_edit", frame["type"])
		assert.Equal(t, "first!", frame["message"])

		require.NoError(t, f.counsel.DeleteMessage(ctx, history[1].ID, alice))
		frame = readFrame(t, graceConn)
		assert.Equal(t, "message_delete", frame["type"])
		assert.Equal(t, history[1].ID.String(), frame["message_id"])
	})

	t.Run("closed conversation answers with an error frame", func(t *testing.T) {
		_, err := f.counsel.CloseConversation(ctx, conv.ID, alice)
		require.NoError(t, err)
		// drain the edit/delete frames alice also received
		readFrame(t, aliceConn)
		readFrame(t, aliceConn)

		require.NoError(t, aliceConn.WriteJSON(map[string]string{"message": "hello?"}))
		frame := readFrame(t, aliceConn)
		assert.Equal(t, "error", frame["type"])
		assert.Equal(t, "conversation_closed", frame["error"])
	})
}

func TestConnect_RateLimitAndPresence(t *testing.T) {
	f := newSocketFixture(t)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	presence := redis.NewPresenceStore(client, time.Minute)
	f.handler.
		WithLimiter(redis.NewRateLimiter(client, redis.RateLimitConfig{MessageLimit: 1, MessageWindow: time.Minute})).
		WithPresence(presence)

	_, aliceToken := f.register(t, "alice", false)
	_, graceToken := f.register(t, "grace", true)
	alice, err := f.auth.Authenticate(ctx, aliceToken)
	require.NoError(t, err)
	conv, err := f.counsel.StartConversation(ctx, alice, "")
	require.NoError(t, err)

	graceConn := f.dial(t, conv.ID, graceToken)
	require.Eventually(t, func() bool {
		n, err := presence.OnlineCount(ctx)
		return err == nil && n == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, graceConn.WriteJSON(map[string]string{"message": "welcome"}))
	assert.Equal(t, "message", readFrame(t, graceConn)["type"])

	require.NoError(t, graceConn.WriteJSON(map[string]string{"message": "again"}))
	frame := readFrame(t, graceConn)
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, "rate_limited", frame["error"])

	require.NoError(t, graceConn.Close())
	require.Eventually(t, func() bool {
		n, err := presence.OnlineCount(ctx)
		return err == nil && n == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConnect_FirstFrameAfterHandshakeIsDelivered(t *testing.T) {
	f := newSocketFixture(t)
	ctx := context.Background()
	_, aliceToken := f.register(t, "alice", false)
	alice, err := f.auth.Authenticate(ctx, aliceToken)
	require.NoError(t, err)
	conv, err := f.counsel.StartConversation(ctx, alice, "")
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		conn, resp, err := websocket.DefaultDialer.Dial(f.url(conv.ID.String(), aliceToken), nil)
		require.NoError(t, err)
		resp.Body.Close()

		text := fmt.Sprintf("hello %d", i)
		_, err = f.counsel.SendMessage(ctx, conv.ID, alice, text)
		require.NoError(t, err)

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		var frame map[string]interface{}
		require.NoError(t, conn.ReadJSON(&frame), "attempt %d", i)
		assert.Equal(t, text, frame["message"])
		require.NoError(t, conn.Close())
	}
}

func TestLocalBroadcaster_EncodesFrames(t *testing.T) {
	hub := startHub(t)
	conv := uuid.New()
	c := NewClient(nil, user.Actor{ID: uuid.New()}, conv)
	hub.Register(c)
	hub.Subscribe(c, events.ConversationChannel(conv))

	msgID := uuid.New()
	require.NoError(t, NewLocalBroadcaster(hub).Broadcast(context.Background(), conv, events.NewMessageDeleteFrame(msgID)))

	var got events.MessageDeleteFrame
	require.NoError(t, json.Unmarshal(<-c.Send, &got))
	assert.Equal(t, msgID.String(), got.MessageID)
}
