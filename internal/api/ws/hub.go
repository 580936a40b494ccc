package ws

import (
	"net/http"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sentinelos/dispatch/internal/infrastructure/logging"
	"github.com/sentinelos/dispatch/internal/sched/inproc"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // inspection surface, not exposed beyond the host
	},
}

// Hub broadcasts dispatch events to connected observers. It implements
// inproc.Sink; Publish must not block the dispatch path, so slow clients
// get dropped frames instead of backpressure.
type Hub struct {
	log *logging.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]chan []byte
}

// NewHub creates an event hub.
func NewHub(log *logging.Logger) *Hub {
	return &Hub{
		log:   log,
		conns: make(map[*websocket.Conn]chan []byte),
	}
}

// Publish implements inproc.Sink.
func (h *Hub) Publish(e inproc.Event) {
	data, err := sonic.Marshal(e)
	if err != nil {
		h.log.Warn("event encode failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	for _, ch := range h.conns {
		select {
		case ch <- data:
		default:
		}
	}
	h.mu.Unlock()
}

// HandleConnection upgrades an inspection API request into an event stream.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ch := make(chan []byte, 64)
	h.mu.Lock()
	h.conns[conn] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	// Reader goroutine just watches for close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case data := <-ch:
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
