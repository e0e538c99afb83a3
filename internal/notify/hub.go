// Package notify pushes notification rows to connected browser sessions
// over WebSocket.
package notify

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
)

const (
	EventNotification = "notification"
	EventConnected    = "connected"

	// clientBuffer is the number of undelivered events a slow client may
	// accumulate before further events to it are dropped.
	clientBuffer = 32
	writeTimeout = 10 * time.Second

	// dropLogInterval bounds how often dropped events are logged; the
	// notify_events_total counter still counts every one.
	dropLogInterval = 10 * time.Second
)

var (
	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notify_connected_clients",
		Help: "Number of open notification WebSocket connections.",
	})

	publishedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_events_total",
		Help: "Notification events by delivery outcome.",
	}, []string{"outcome"})
)

// Event is the frame written to clients.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type client struct {
	id     string
	userID int64
	events chan Event
}

// Hub fans notifications out to the connections of their recipient, or to
// every connection for broadcasts. A recipient that is not connected
// misses the push.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*client]struct{}
	origins []string
	log     zerolog.Logger
	dropLog *rate.Sometimes
}

// NewHub returns a hub. origins lists the host patterns allowed in the
// Origin header of upgrade requests; same-origin requests are always
// allowed.
func NewHub(logger zerolog.Logger, origins []string) *Hub {
	return &Hub{
		clients: make(map[int64]map[*client]struct{}),
		origins: originPatterns(origins),
		log:     logger.With().Str("component", "notify").Logger(),
		dropLog: &rate.Sometimes{Interval: dropLogInterval},
	}
}

// Publish queues n for delivery without blocking.
func (h *Hub) Publish(_ context.Context, n *model.Notification) {
	ev := Event{Type: EventNotification, Data: n}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if n.IsBroadcast() {
		for _, set := range h.clients {
			for c := range set {
				h.send(c, ev)
			}
		}
		return
	}
	for c := range h.clients[*n.UserID] {
		h.send(c, ev)
	}
}

func (h *Hub) send(c *client, ev Event) {
	select {
	case c.events <- ev:
		publishedEvents.WithLabelValues("queued").Inc()
	default:
		publishedEvents.WithLabelValues("dropped").Inc()
		h.dropLog.Do(func() {
			h.log.Warn().Str("conn_id", c.id).Int64("user_id", c.userID).Msg("notification dropped for slow client")
		})
	}
}

// Connections reports the number of open connections for userID.
func (h *Hub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) register(userID int64) *client {
	c := &client{id: platform.NewID(), userID: userID, events: make(chan Event, clientBuffer)}
	h.mu.Lock()
	set, ok := h.clients[userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	connectedClients.Inc()
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if set, ok := h.clients[c.userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
	h.mu.Unlock()
	connectedClients.Dec()
}

// Serve upgrades the request and streams events for userID until the
// client disconnects or the request context ends. The caller must have
// authenticated the request.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID int64) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("websocket upgrade failed")
		return
	}
	defer ws.CloseNow()

	c := h.register(userID)
	defer h.unregister(c)
	log := h.log.With().Str("conn_id", c.id).Int64("user_id", userID).Logger()
	log.Debug().Msg("notification stream opened")

	// The client never sends anything; CloseRead handles control frames and
	// cancels ctx once the peer goes away.
	ctx := ws.CloseRead(r.Context())

	hello := map[string]any{"userId": userID, "connectionId": c.id}
	if err := h.write(ctx, ws, Event{Type: EventConnected, Data: hello}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			ws.Close(websocket.StatusNormalClosure, "")
			return
		case ev := <-c.events:
			if err := h.write(ctx, ws, ev); err != nil {
				log.Debug().Err(err).Msg("notification write failed")
				return
			}
		}
	}
}

func (h *Hub) write(ctx context.Context, ws *websocket.Conn, ev Event) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, ws, ev)
}

// originPatterns strips schemes from configured CORS origins; the
// websocket library matches on host only.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
