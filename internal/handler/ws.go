package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"facegate/internal/model"
	"facegate/internal/service"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development, configure for production
			return true
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	writeTimeout = 10 * time.Second
)

// SignalEvent is pushed to WebSocket clients for every dispatched lock or
// unlock signal.
type SignalEvent struct {
	Signal    model.Signal `json:"signal"`
	Delivered bool         `json:"delivered"`
}

// WSHub broadcasts dispatched signals and publisher state transitions to
// connected dashboard clients.
type WSHub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	stopOnce   sync.Once
}

// NewWSHub creates a new hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
}

// SignalDispatched implements service.SignalObserver.
func (h *WSHub) SignalDispatched(signal model.Signal, delivered bool) {
	h.send("signal", SignalEvent{Signal: signal, Delivered: delivered})
}

// WatchPublisher forwards publisher state transitions to clients. Runs until
// the event channel closes or the hub stops.
func (h *WSHub) WatchPublisher(events <-chan service.StateChange) {
	for {
		select {
		case change, ok := <-events:
			if !ok {
				return
			}
			h.send("broker_state", map[string]string{
				"from": change.From.String(),
				"to":   change.To.String(),
			})
		case <-h.done:
			return
		}
	}
}

func (h *WSHub) send(msgType string, payload interface{}) {
	data, err := json.Marshal(map[string]interface{}{
		"type": msgType,
		"data": payload,
	})
	if err != nil {
		log.Printf("[WS] Failed to marshal broadcast message: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		// Slow consumers drop messages rather than stalling dispatch.
	}
}

// Run starts the hub's event loop.
func (h *WSHub) Run() {
	log.Println("[WS] Hub started")
	for {
		select {
		case conn := <-h.register:
			h.clients[conn] = true
		case conn := <-h.unregister:
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
		case data := <-h.broadcast:
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					delete(h.clients, conn)
					conn.Close()
				}
			}
		case <-h.done:
			for conn := range h.clients {
				conn.Close()
			}
			return
		}
	}
}

// Stop shuts the hub down and closes every client connection.
func (h *WSHub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// HandleSignals upgrades the connection and streams signal events
// @Summary Live signal feed
// @Description WebSocket stream of dispatched lock/unlock signals and broker state changes
// @Tags Sync
// @Router /ws/signals [get]
func (h *WSHub) HandleSignals(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed: %v", err)
		return
	}

	h.register <- conn

	// Reader loop only detects client disconnects; clients do not send.
	go func() {
		defer func() { h.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
