package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/backdrop/internal/slides"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	sendBuffer = 8
)

// feedMessage is the outgoing WebSocket message format.
type feedMessage struct {
	Type  string       `json:"type"` // "state"
	State slides.State `json:"state"`
}

type feedClient struct {
	id   string
	send chan slides.State
}

// Hub fans slide states out to connected browsers. Slow clients miss
// intermediate states rather than holding up the rotator.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*feedClient
	closed  bool
	logger  *zap.Logger
}

// NewHub returns an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{clients: make(map[string]*feedClient), logger: logger}
}

// Broadcast queues st for every client without blocking.
func (h *Hub) Broadcast(st slides.State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		select {
		case c.send <- st:
		default:
			h.logger.Debug("feed client lagging, state dropped", zap.String("client", c.id))
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
}

func (h *Hub) register() (*feedClient, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	c := &feedClient{id: uuid.NewString(), send: make(chan slides.State, sendBuffer)}
	h.clients[c.id] = c
	return c, true
}

func (h *Hub) unregister(c *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
}

// ServeWS upgrades the request and streams states until either side goes
// away. current supplies the state sent on connect.
func (h *Hub) ServeWS(current func() (slides.State, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Debug("websocket upgrade", zap.Error(err))
			return
		}
		defer conn.Close()

		c, ok := h.register()
		if !ok {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
			return
		}
		defer h.unregister(c)
		log := h.logger.With(zap.String("client", c.id))
		log.Debug("feed client connected")

		if st, ok := current(); ok {
			if err := h.write(conn, st); err != nil {
				log.Debug("websocket write", zap.Error(err))
				return
			}
		}

		// Incoming frames are ignored; reading surfaces the client closing.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						log.Debug("websocket read", zap.Error(err))
					}
					return
				}
			}
		}()

		for {
			select {
			case <-gone:
				return
			case st, ok := <-c.send:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
						time.Now().Add(writeWait))
					conn.Close()
					<-gone
					return
				}
				if err := h.write(conn, st); err != nil {
					log.Debug("websocket write", zap.Error(err))
					return
				}
			}
		}
	}
}

func (h *Hub) write(conn *websocket.Conn, st slides.State) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(feedMessage{Type: "state", State: st})
}
