package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chatsyncgo/internal/auth"
	"chatsyncgo/internal/services/chat"
)

const dispatchTimeout = 1900 * time.Millisecond

var (
	errUnknownEvent = errors.New("unknown_event")
	errAccessDenied = errors.New("access_denied")
)

type WsServer struct {
	hub      *Hub
	bus      *eventBus
	bridge   *Bridge
	signaler *Signaler
	verifier *auth.Verifier
	chatSvc  chat.IChatService
	upgrader websocket.Upgrader
}

func NewWsServer(h *Hub, rdc *redis.Client, verifier *auth.Verifier, chatSvc chat.IChatService) *WsServer {
	bus := newEventBus(rdc, h)
	return &WsServer{
		hub:      h,
		bus:      bus,
		bridge:   NewBridge(h, bus),
		signaler: NewSignaler(h, bus),
		verifier: verifier,
		chatSvc:  chatSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true }, // dev-only
		},
	}
}

// Bridge exposes the delivery bridge for the REST send path.
func (s *WsServer) Bridge() *Bridge { return s.bridge }

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

// Handle authenticates the handshake and upgrades the connection. The
// token travels in the initial request (query param, Bearer header as a
// fallback); a failed check is rejected before the upgrade so the client
// sees the auth reason instead of a bare socket close.
func (s *WsServer) Handle(ginCtx *gin.Context) {
	raw := ginCtx.Query("token")
	if raw == "" {
		if h := ginCtx.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			raw = strings.TrimPrefix(h, "Bearer ")
		}
	}

	identity, err := s.verifier.Authenticate(raw)
	if err != nil {
		ginCtx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	rawConn, err := s.upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.upgrade", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(maxFrameSize)

	// ─────────────────── Client connected ────────────────────────
	conn := newClientConn(rawConn, identity)
	zap.L().Debug("ws.connected",
		zap.Int64("user_id", identity.ID),
		zap.String("username", identity.Username))

	go conn.writePump()
	go s.reader(conn)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) reader(conn *clientConn) {
	defer s.disconnect(conn)

	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := conn.rawConn.ReadJSON(&env); err != nil {
			return // client closed or errored
		}

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		res, err := s.dispatch(ctx, conn, env)
		cancel()

		// ---- error -> {"event":"error", "body":{...}} ---------------
		if err != nil {
			conn.reply(EventError, ErrorBody{Error: err.Error()})
			continue
		}

		// ---- success -> {"event":"<evt>-ack", "body":{...}} --------
		conn.reply(env.Event+"-ack", res)
	}
}

// disconnect runs the cleanup exactly once: registry purge, event-bus
// teardown, socket close. Safe against in-flight joins from the same
// connection — the purge wins.
func (s *WsServer) disconnect(conn *clientConn) {
	for _, conversationID := range s.hub.Purge(conn) {
		s.bus.unsubscribe(conversationID)
	}
	conn.rawConn.Close()
	zap.L().Debug("ws.disconnected", zap.Int64("user_id", conn.identity.ID))
}

// dispatch routes one inbound frame over the closed event set. Unknown
// events are reported back to the client without dropping the connection.
func (s *WsServer) dispatch(ctx context.Context, conn *clientConn, env Envelope) (any, error) {
	switch env.Event {
	case EventJoin:
		body, err := decodeBody[JoinBody](env.Body)
		if err != nil {
			return nil, err
		}
		return s.handleJoin(ctx, conn, body)

	case EventLeave:
		body, err := decodeBody[JoinBody](env.Body)
		if err != nil {
			return nil, err
		}
		if s.hub.Leave(body.ConversationID, conn) {
			s.bus.unsubscribe(body.ConversationID)
		}
		return AckBody{}, nil

	case EventTyping:
		body, err := decodeBody[TypingBody](env.Body)
		if err != nil {
			return nil, err
		}
		s.signaler.Typing(ctx, body.ConversationID, conn)
		return AckBody{}, nil

	case EventStopTyping:
		body, err := decodeBody[TypingBody](env.Body)
		if err != nil {
			return nil, err
		}
		s.signaler.StopTyping(ctx, body.ConversationID, conn)
		return AckBody{}, nil

	default:
		return nil, errUnknownEvent
	}
}

// handleJoin authorizes the join against the conversation membership and
// registers the connection. Denial keeps the connection alive.
func (s *WsServer) handleJoin(ctx context.Context, conn *clientConn, body JoinBody) (any, error) {
	ok, err := s.chatSvc.IsMember(ctx, body.ConversationID, conn.identity.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errAccessDenied
	}
	if s.hub.Join(body.ConversationID, conn) {
		s.bus.subscribe(body.ConversationID)
	}
	return AckBody{}, nil
}

// decodeBody unmarshals a frame body into its typed payload; an absent
// body yields the zero value.
func decodeBody[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, err
	}
	return v, nil
}
