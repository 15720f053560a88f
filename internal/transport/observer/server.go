// Package observer streams per-tick world stats to local websocket clients.
package observer

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"voxelstream.ai/internal/sim/world"
	"voxelstream.ai/internal/sim/world/terrain"
)

const Version = "1.0"

// TickMsg is sent to every client once per tick.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	world.TickStats
}

type BootstrapResponse struct {
	ProtocolVersion string   `json:"protocol_version"`
	ChunkSize       [3]int   `json:"chunk_size"`
	Window          [2]int   `json:"window"`
	Last            *TickMsg `json:"last,omitempty"`
}

const clientQueue = 8

// Hub fans tick messages out to websocket clients. Slow clients lose
// messages instead of stalling Publish.
type Hub struct {
	log    *log.Logger
	window [2]int

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
	dropped  atomic.Uint64

	mu      sync.Mutex
	clients map[uint64]chan []byte
	last    *TickMsg
}

func NewHub(width, depth int, logger *log.Logger) *Hub {
	return &Hub{
		log:    logger,
		window: [2]int{width, depth},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // loopback only
		},
		clients: map[uint64]chan []byte{},
	}
}

// Publish broadcasts st. It never blocks.
func (h *Hub) Publish(st world.TickStats) {
	msg := &TickMsg{Type: "TICK", ProtocolVersion: Version, TickStats: st}
	b, err := json.Marshal(msg)
	if err != nil {
		h.logf("encode tick %d: %v", st.Tick, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = msg
	for _, ch := range h.clients {
		select {
		case ch <- b:
		default:
			h.dropped.Add(1)
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped counts messages skipped for clients whose queue was full.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

func (h *Hub) subscribe() (uint64, chan []byte) {
	id := h.nextID.Add(1)
	ch := make(chan []byte, clientQueue)
	h.mu.Lock()
	h.clients[id] = ch
	h.mu.Unlock()
	return id, ch
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
}

func (h *Hub) logf(format string, args ...any) {
	if h.log != nil {
		h.log.Printf(format, args...)
	}
}

// Mux serves the bootstrap document and the tick stream.
func (h *Hub) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/bootstrap", h.BootstrapHandler())
	mux.HandleFunc("/v1/ticks", h.WSHandler())
	return mux
}

func (h *Hub) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		h.mu.Lock()
		resp := BootstrapResponse{
			ProtocolVersion: Version,
			ChunkSize:       [3]int{terrain.ChunkX, terrain.ChunkY, terrain.ChunkZ},
			Window:          h.window,
			Last:            h.last,
		}
		h.mu.Unlock()
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (h *Hub) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id, out := h.subscribe()
		defer h.unsubscribe(id)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						cancel()
						return
					}
				}
			}
		}()

		// Clients only listen; reading detects the close.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
