// Package telemetry streams per-episode summaries to websocket
// subscribers (dashboards, notebooks watching a long run).
package telemetry

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// EpisodeSummary is the payload broadcast after each completed episode.
type EpisodeSummary struct {
	RunID                 string    `json:"run_id"`
	Episode               int       `json:"episode"`
	Steps                 int       `json:"steps"`
	NumTrajectories       int       `json:"num_trajectories"`
	MeanReward            float64   `json:"mean_reward"`
	MeanTerminalCash      float64   `json:"mean_terminal_cash"`
	MeanTerminalInventory float64   `json:"mean_terminal_inventory"`
	CompletedAt           time.Time `json:"completed_at"`
}

// Broadcaster fans episode summaries out to connected clients. Slow
// clients are dropped rather than allowed to stall a run.
type Broadcaster struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the client.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	b.mu.Lock()
	b.clients[conn] = struct{}{}
	b.mu.Unlock()
	b.logger.Info("telemetry client connected", zap.String("remote", conn.RemoteAddr().String()))

	// Drain control frames until the client goes away.
	go func() {
		defer b.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish sends the summary to every connected client.
func (b *Broadcaster) Publish(summary EpisodeSummary) {
	b.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(b.clients))
	for c := range b.clients {
		conns = append(conns, c)
	}
	b.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(time.Second))
		if err := conn.WriteJSON(summary); err != nil {
			b.logger.Warn("dropping slow telemetry client",
				zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
			b.drop(conn)
		}
	}
}

// ClientCount reports the number of connected subscribers.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Close disconnects all clients.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(b.clients))
	for c := range b.clients {
		conns = append(conns, c)
	}
	b.clients = make(map[*websocket.Conn]struct{})
	b.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
}

// Serve starts a websocket endpoint on addr/ws in the background.
func (b *Broadcaster) Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/ws", b)
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}

func (b *Broadcaster) drop(conn *websocket.Conn) {
	b.mu.Lock()
	delete(b.clients, conn)
	b.mu.Unlock()
	_ = conn.Close()
}
