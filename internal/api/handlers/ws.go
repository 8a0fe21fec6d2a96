package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/jcorriveau23/backend-pool-nhl/internal/draft"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebSocketHandler upgrades /ws/{jwt}|/ws/unauthenticated connections and
// pumps frames through the Command Dispatcher, per spec.md §4.4/§6.
type WebSocketHandler struct {
	registry     *draft.Registry
	dispatcher   *draft.Dispatcher
	rateLimit    rate.Limit
	rateBurst    int
}

// NewWebSocketHandler wires a handler over the shared coordinator and
// dispatcher. commandsPerSecond/burst bound how many command frames a
// single socket may submit, per spec.md's DOMAIN STACK rate-limiting entry —
// a socket spamming DraftPlayer cannot starve the room's other sockets,
// since the dispatcher itself has no notion of per-sender fairness.
func NewWebSocketHandler(registry *draft.Registry, dispatcher *draft.Dispatcher, commandsPerSecond, burst int) *WebSocketHandler {
	return &WebSocketHandler{
		registry:   registry,
		dispatcher: dispatcher,
		rateLimit:  rate.Limit(commandsPerSecond),
		rateBurst:  burst,
	}
}

// HandleWebSocket upgrades the connection, authenticates the socket if a
// real token was supplied in the path, requires the first frame to be
// JoinRoom (per §4.4 step 1), then links a read pump and write pump: when
// either ends, the other is aborted (§5's cancellation rule).
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	token := c.Param("token")
	socketID := uuid.NewString()

	if token != "" && token != "unauthenticated" {
		if _, err := h.registry.AuthenticateSocket(socketID, token); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := rate.NewLimiter(h.rateLimit, h.rateBurst)

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		h.dispatcher.OnSocketClosed(socketID)
		return
	}
	if reply := h.dispatcher.Dispatch(ctx, socketID, raw); reply != nil {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		conn.WriteMessage(websocket.TextMessage, reply)
	}
	poolName, joined := h.dispatcher.PoolNameFor(socketID)
	if !joined {
		h.dispatcher.OnSocketClosed(socketID)
		return
	}
	broadcast, _ := h.registry.RoomChannel(poolName, socketID)

	send := make(chan []byte, 64)
	go h.writePump(conn, send, broadcast, cancel)
	h.readPump(ctx, conn, socketID, send, limiter)

	h.dispatcher.OnSocketClosed(socketID)
	cancel()
}

// readPump is the suspension point for inbound frames; it owns the
// connection's only reader, per gorilla/websocket's concurrency contract.
// Frames arriving faster than limiter allows are rejected with an Error
// frame rather than dispatched, so one socket's burst never delays the
// engine calls other sockets in the room are waiting on.
func (h *WebSocketHandler) readPump(ctx context.Context, conn *websocket.Conn, socketID string, send chan<- []byte, limiter *rate.Limiter) {
	defer close(send)

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Debug("websocket read error")
			}
			return
		}

		if !limiter.Allow() {
			if rejection, err := json.Marshal(draft.ErrorFrame("rate limit exceeded, slow down")); err == nil {
				select {
				case send <- rejection:
				default:
				}
			}
			continue
		}

		reply := h.dispatcher.Dispatch(ctx, socketID, raw)
		if reply != nil {
			select {
			case send <- reply:
			default:
			}
		}
	}
}

// writePump drains the socket's direct-reply channel and its room broadcast
// channel (nil before JoinRoom ever succeeds), and sends periodic pings to
// detect dead peers. A full or closed broadcast channel disconnects the
// peer rather than back-pressuring the room (§5).
func (h *WebSocketHandler) writePump(conn *websocket.Conn, send <-chan []byte, broadcast <-chan []byte, cancel context.CancelFunc) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	defer cancel()
	defer conn.Close()

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case msg, ok := <-broadcast:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
