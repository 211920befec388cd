// Package devtools exposes a development inspector over HTTP: a WebSocket
// event stream of runtime activity, a Prometheus scrape endpoint, and a
// JSON snapshot of the observed entity set.
package devtools

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sigil-ui/sigil/pkg/observer"
)

// EventType classifies inspector events.
type EventType string

const (
	EventPass    EventType = "pass"
	EventAdd     EventType = "add"
	EventRemove  EventType = "remove"
	EventFailure EventType = "failure"
)

// Event is sent to inspector clients via WebSocket.
type Event struct {
	Type     EventType `json:"type"`
	Entity   string    `json:"entity,omitempty"`
	Added    int       `json:"added,omitempty"`
	Removed  int       `json:"removed,omitempty"`
	Tracked  int       `json:"tracked,omitempty"`
	Failures int       `json:"failures,omitempty"`
	Duration string    `json:"duration,omitempty"`
	Time     time.Time `json:"time"`
}

// Broadcaster fans inspector events out to connected WebSocket clients.
type Broadcaster struct {
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
}

// NewBroadcaster creates a broadcaster with no clients.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in dev
			},
		},
	}
}

// HandleWebSocket handles WebSocket upgrade and connection.
func (b *Broadcaster) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := b.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	b.mu.Lock()
	b.clients[conn] = true
	b.mu.Unlock()

	// Keep connection alive until client disconnects
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
	}

	b.mu.Lock()
	delete(b.clients, conn)
	b.mu.Unlock()
	conn.Close()
}

// Publish sends an event to all connected clients.
func (b *Broadcaster) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	b.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(b.clients))
	for client := range b.clients {
		clients = append(clients, client)
	}
	b.mu.RUnlock()

	for _, client := range clients {
		err := client.WriteMessage(websocket.TextMessage, data)
		if err != nil {
			b.mu.Lock()
			delete(b.clients, client)
			b.mu.Unlock()
			client.Close()
		}
	}
}

// PublishPass publishes one reconciliation pass summary. Wire it through
// observer.WithOnPass.
func (b *Broadcaster) PublishPass(stats observer.PassStats) {
	b.Publish(Event{
		Type:     EventPass,
		Added:    stats.Added,
		Removed:  stats.Removed,
		Tracked:  stats.Tracked,
		Failures: stats.Failures,
		Duration: stats.Duration.String(),
	})
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Close closes all client connections.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for client := range b.clients {
		client.Close()
		delete(b.clients, client)
	}
}
