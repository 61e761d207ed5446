package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"truthgate-api/internal/domain/message"
	"truthgate-api/internal/domain/user"
	"truthgate-api/internal/events"
	"truthgate-api/internal/metrics"
	"truthgate-api/internal/proxy"
	"truthgate-api/internal/redis"
	apperrors "truthgate-api/pkg/errors"
	"truthgate-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (user.Actor, error)
}

// ChatService is the part of the counsel service a socket needs.
type ChatService interface {
	CanJoin(ctx context.Context, conversationID uuid.UUID, actor user.Actor) error
	SendMessage(ctx context.Context, conversationID uuid.UUID, actor user.Actor, content string) (*message.Message, error)
}

type MessageLimiter interface {
	AllowMessage(ctx context.Context, userID string) (*redis.RateLimitResult, error)
}

type PresenceTracker interface {
	TrackConnection(ctx context.Context, userID, clientID string) error
	Heartbeat(ctx context.Context, userID string) error
	RemoveConnection(ctx context.Context, userID, clientID string) error
}

// inbound is what a participant sends over the socket.
type inbound struct {
	Message string `json:"message"`
}

// errorFrame goes only to the socket that caused it.
type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type Handler struct {
	auth     Authenticator
	chat     ChatService
	hub      *Hub
	limiter  MessageLimiter
	presence PresenceTracker
	metrics  *metrics.Metrics
	logger   socketLogger
	upgrader websocket.Upgrader
}

func NewHandler(auth Authenticator, chat ChatService, hub *Hub, log *logger.Logger) *Handler {
	return &Handler{
		auth:   auth,
		chat:   chat,
		hub:    hub,
		logger: newSocketLogger(log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) WithLimiter(l MessageLimiter) *Handler {
	h.limiter = l
	return h
}

func (h *Handler) WithPresence(p PresenceTracker) *Handler {
	h.presence = p
	return h
}

func (h *Handler) WithMetrics(m *metrics.Metrics) *Handler {
	h.metrics = m
	return h
}

// Connect upgrades GET /ws/counsel/:id. A bad token, an unknown conversation
// and a denied actor all get the same bare 403 before the upgrade.
func (h *Handler) Connect(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	actor, err := h.auth.Authenticate(c.Request.Context(), extractToken(c))
	if err != nil {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	if err := h.chat.CanJoin(c.Request.Context(), conversationID, actor); err != nil {
		if !proxy.IsDenied(err) {
			h.logger.Error("join_check_failed", actor.ID, "", err)
		}
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	// Join before the handshake completes so frames sent right after the
	// peer sees 101 are already queued on Send.
	client := NewClient(nil, actor, conversationID)
	h.hub.Register(client)
	h.hub.Subscribe(client, events.ConversationChannel(conversationID))

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.Unregister(client)
		h.logger.Error("upgrade_failed", actor.ID, client.ID, err)
		return
	}
	client.Conn = conn

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.metrics.SocketOpened()
	h.trackPresence(ctx, client)
	h.logger.Info("connected", actor.ID, client.ID,
		zap.String("conversation_id", conversationID.String()),
		zap.Int("open_sockets", h.hub.ClientCount()),
		zap.Int("conversation_sockets", h.hub.ChannelSubscriberCount(events.ConversationChannel(conversationID))))

	go client.WriteLoop(ctx)
	h.readLoop(ctx, client)

	h.hub.Unregister(client)
	h.metrics.SocketClosed()
	h.releasePresence(client)
	h.logger.Info("disconnected", actor.ID, client.ID)
}

func (h *Handler) readLoop(ctx context.Context, client *Client) {
	conn := client.Conn
	conn.SetReadLimit(maxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		if h.presence != nil && client.Actor.IsStaff {
			_ = h.presence.Heartbeat(ctx, client.Actor.ID.String())
		}
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("read_failed", client.Actor.ID, client.ID, zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var in inbound
		if err := json.Unmarshal(raw, &in); err != nil {
			h.reject(client, "invalid_frame")
			continue
		}
		if strings.TrimSpace(in.Message) == "" {
			continue
		}

		if h.limiter != nil {
			res, err := h.limiter.AllowMessage(ctx, client.Actor.ID.String())
			if err != nil {
				h.logger.Error("rate_limit_failed", client.Actor.ID, client.ID, err)
			} else if !res.Allowed {
				h.reject(client, "rate_limited")
				continue
			}
		}

		if _, err := h.chat.SendMessage(ctx, client.ConversationID, client.Actor, in.Message); err != nil {
			switch {
			case errors.Is(err, apperrors.ErrConversationClosed):
				h.reject(client, "conversation_closed")
			case errors.Is(err, apperrors.ErrInvalidInput):
				h.reject(client, "invalid_message")
			case proxy.IsDenied(err):
				// access was revoked while connected
				return
			default:
				h.logger.Error("send_failed", client.Actor.ID, client.ID, err)
				h.reject(client, "internal_error")
			}
		}
	}
}

func (h *Handler) reject(client *Client, reason string) {
	payload, _ := json.Marshal(errorFrame{Type: "error", Error: reason})
	client.SendMessage(payload)
}

func (h *Handler) trackPresence(ctx context.Context, client *Client) {
	if h.presence == nil || !client.Actor.IsStaff {
		return
	}
	if err := h.presence.TrackConnection(ctx, client.Actor.ID.String(), client.ID); err != nil {
		h.logger.Warn("presence_track_failed", client.Actor.ID, client.ID, zap.Error(err))
	}
}

func (h *Handler) releasePresence(client *Client) {
	if h.presence == nil || !client.Actor.IsStaff {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.presence.RemoveConnection(ctx, client.Actor.ID.String(), client.ID); err != nil {
		h.logger.Warn("presence_release_failed", client.Actor.ID, client.ID, zap.Error(err))
	}
}

func extractToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
