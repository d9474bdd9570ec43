package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 250 * time.Millisecond

// Hub fans status frames out to websocket clients.  Clients are read-only;
// anything they send is discarded.
type Hub struct {
	upgrader websocket.Upgrader

	lock    sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  map[*websocket.Conn]struct{}{},
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		fmt.Println("TLM: websocket upgrade failed:", err)
		return
	}
	fmt.Println("TLM: client connected", conn.RemoteAddr())

	h.lock.Lock()
	h.clients[conn] = struct{}{}
	h.lock.Unlock()

	// Reading is what notices the client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(conn)
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if _, ok := h.clients[conn]; !ok {
		return
	}
	delete(h.clients, conn)
	_ = conn.Close()
	fmt.Println("TLM: client disconnected", conn.RemoteAddr())
}

func (h *Hub) NumClients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.lock.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.lock.Unlock()
	for _, c := range conns {
		h.drop(c)
	}
}

// Broadcast must only be called from one goroutine at a time.
func (h *Hub) Broadcast(f Frame) {
	h.lock.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.lock.Unlock()

	for _, c := range conns {
		_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.WriteJSON(f); err != nil {
			fmt.Println("TLM: write failed:", err)
			h.drop(c)
		}
	}
}

// ListenAndServe serves the hub on /status until ctx is done.
func ListenAndServe(ctx context.Context, wg *sync.WaitGroup, addr string, h *Hub) {
	defer wg.Done()

	mux := http.NewServeMux()
	mux.Handle("/status", h)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		h.Close()
	}()

	fmt.Println("TLM: listening on", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Println("TLM: server failed, ignoring:", err)
	}
}
