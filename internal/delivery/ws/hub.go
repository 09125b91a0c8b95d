package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"agladiator/internal/domain/game"
)

const defaultWriteTimeout = 2 * time.Second

// Hub fans match events out to websocket subscribers, one room per match.
// It implements the match notifier.
type Hub struct {
	log          *zap.SugaredLogger
	writeTimeout time.Duration
	upgrader     websocket.Upgrader

	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func NewHub(log *zap.SugaredLogger, writeTimeout time.Duration) *Hub {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &Hub{
		log:          log,
		writeTimeout: writeTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		rooms: make(map[string]map[*client]struct{}),
	}
}

// Serve upgrades the request and subscribes it to matchID. initial is sent
// first so a late subscriber starts from the current board. Messages the
// client sends are passed to onMessage. Serve returns when the connection
// closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, matchID string, initial game.BoardUpdate,
	onMessage func(context.Context, game.ClientMessage)) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn}
	h.join(matchID, c)
	defer h.leave(matchID, c)

	if err := c.write(r.Context(), h.writeTimeout, game.Envelope{Event: game.EventBoardUpdate, Data: initial}); err != nil {
		return err
	}

	for {
		var msg game.ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warnw("subscriber read failed", "match_id", matchID, "error", err)
			}
			return nil
		}
		if onMessage != nil {
			onMessage(r.Context(), msg)
		}
	}
}

func (h *Hub) join(matchID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[matchID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[matchID] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) leave(matchID string, c *client) {
	h.mu.Lock()
	room := h.rooms[matchID]
	_, ok := room[c]
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, matchID)
	}
	h.mu.Unlock()

	if ok {
		_ = c.conn.Close()
	}
}

// Subscribers reports how many connections follow matchID.
func (h *Hub) Subscribers(matchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[matchID])
}

func (h *Hub) OnBoardUpdate(ctx context.Context, upd game.BoardUpdate) error {
	return h.broadcast(ctx, upd.MatchID, game.Envelope{Event: game.EventBoardUpdate, Data: upd})
}

func (h *Hub) OnClockUpdate(ctx context.Context, upd game.ClockUpdate) error {
	return h.broadcast(ctx, upd.MatchID, game.Envelope{Event: game.EventClockUpdate, Data: upd})
}

// broadcast writes env to every subscriber of matchID. Subscribers whose
// write fails are dropped.
func (h *Hub) broadcast(ctx context.Context, matchID string, env game.Envelope) error {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.rooms[matchID]))
	for c := range h.rooms[matchID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	var errs []error
	for _, c := range clients {
		if err := c.write(ctx, h.writeTimeout, env); err != nil {
			errs = append(errs, err)
			h.leave(matchID, c)
		}
	}
	return errors.Join(errs...)
}

func (c *client) write(ctx context.Context, timeout time.Duration, v any) error {
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	rooms := h.rooms
	h.rooms = make(map[string]map[*client]struct{})
	h.mu.Unlock()

	for _, room := range rooms {
		for c := range room {
			c.writeMu.Lock()
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			c.writeMu.Unlock()
			_ = c.conn.Close()
		}
	}
}
