// Package realtime pushes "jobs pending" nudges to connected tablets so they
// can poll right away instead of waiting for their next poll interval.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"print-bridge/internal/models"
)

const (
	DefaultDebounce = 50 * time.Millisecond

	writeTimeout = 3 * time.Second
	pingInterval = 20 * time.Second
	pongWait     = 60 * time.Second
	maxWorkers   = 20
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type Message struct {
	Type         string    `json:"type"`
	RestaurantID string    `json:"restaurantId"`
	Timestamp    time.Time `json:"timestamp"`
}

type Client struct {
	conn         Conn
	restaurantID string
	writeMu      sync.Mutex
	closed       bool
}

// Hub keeps tablet connections grouped by restaurant. It implements
// queue.Notifier; only enqueues produce a nudge.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}

	timerMu sync.Mutex
	timers  map[string]*time.Timer
	delay   time.Duration

	log zerolog.Logger
}

func NewHub(delay time.Duration) *Hub {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		timers:  make(map[string]*time.Timer),
		delay:   delay,
		log:     log.With().Str("component", "realtime").Logger(),
	}
}

func (h *Hub) Register(restaurantID string, conn Conn) *Client {
	c := &Client{conn: conn, restaurantID: restaurantID}

	h.mu.Lock()
	set, ok := h.clients[restaurantID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[restaurantID] = set
	}
	set[c] = struct{}{}
	total := len(set)
	h.mu.Unlock()

	h.log.Info().Str("restaurant_id", restaurantID).Int("clients", total).Msg("tablet connected")
	return c
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.restaurantID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.restaurantID)
		}
	}
	h.mu.Unlock()

	c.writeMu.Lock()
	if !c.closed {
		c.closed = true
		_ = c.conn.Close()
	}
	c.writeMu.Unlock()

	h.log.Info().Str("restaurant_id", c.restaurantID).Msg("tablet disconnected")
}

func (h *Hub) ClientCount(restaurantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[restaurantID])
}

// Notify schedules a nudge for the restaurant. Bursts inside the debounce
// window collapse into a single message.
func (h *Hub) Notify(restaurantID string) {
	h.timerMu.Lock()
	defer h.timerMu.Unlock()
	h.schedule(restaurantID)
}

// schedule must be called with timerMu held. A timer that already fired is
// replaced rather than re-armed, its callback is on its way.
func (h *Hub) schedule(restaurantID string) {
	if t, ok := h.timers[restaurantID]; ok && t.Stop() {
		t.Reset(h.delay)
		return
	}

	var t *time.Timer
	t = time.AfterFunc(h.delay, func() {
		h.timerMu.Lock()
		if h.timers[restaurantID] == t {
			delete(h.timers, restaurantID)
		}
		h.timerMu.Unlock()

		h.broadcast(restaurantID)
	})
	h.timers[restaurantID] = t
}

func (h *Hub) JobEnqueued(_ context.Context, job models.PrintJob) {
	h.Notify(job.RestaurantID)
}

func (h *Hub) JobCompleted(context.Context, string, time.Time) {}

// Close drops every connection and pending nudge.
func (h *Hub) Close() {
	h.timerMu.Lock()
	for rid, t := range h.timers {
		t.Stop()
		delete(h.timers, rid)
	}
	h.timerMu.Unlock()

	h.mu.RLock()
	var all []*Client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.Unregister(c)
	}
}

func (h *Hub) broadcast(restaurantID string) {
	msg, err := json.Marshal(Message{
		Type:         "jobs_pending",
		RestaurantID: restaurantID,
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to marshal nudge")
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients[restaurantID]))
	for c := range h.clients[restaurantID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	sem := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		sem <- struct{}{}
		go func(c *Client) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := h.write(c, websocket.TextMessage, msg); err != nil {
				h.log.Warn().Err(err).Str("restaurant_id", restaurantID).Msg("nudge write failed")
				h.Unregister(c)
			}
		}(c)
	}
	wg.Wait()
}

func (h *Hub) write(c *Client, messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed {
		return nil
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(messageType, data)
}

// Serve runs a tablet connection until it closes: it keeps the connection
// alive with pings and discards anything the tablet sends.
func (h *Hub) Serve(restaurantID string, conn *websocket.Conn) {
	client := h.Register(restaurantID, conn)
	defer h.Unregister(client)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := h.write(client, websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Str("restaurant_id", restaurantID).Msg("tablet connection dropped")
			}
			return
		}
	}
}
