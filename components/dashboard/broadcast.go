package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// BroadcastHook fans store events out to in-process subscribers, WebSocket and SSE clients.
// Events published for a user reach that user's subscribers and the unscoped ones.
type BroadcastHook struct {
	mu          sync.RWMutex
	subs        map[string]subscriber
	logger      *zap.Logger
	buffer      int
	requestUser func(*http.Request) (string, error)
}

type subscriber struct {
	userID string
	ch     chan StoreEvent
}

// NewBroadcastHook creates a broadcast hook.
func NewBroadcastHook(logger *zap.Logger) *BroadcastHook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BroadcastHook{
		subs:   make(map[string]subscriber),
		logger: logger,
		buffer: 8,
	}
}

// WithRequestUser makes ServeWebSocket and ServeSSE subscribe to the user resolved from
// each request. Resolution errors answer 401.
func (h *BroadcastHook) WithRequestUser(fn func(*http.Request) (string, error)) *BroadcastHook {
	h.requestUser = fn
	return h
}

// Attach subscribes the hook to store and returns the cancel func.
func (h *BroadcastHook) Attach(store *PresetStore) func() {
	return store.Subscribe(h.Publish)
}

// AttachViewer subscribes the hook to a user's store and returns the detach func. It fits
// ViewerStoresOptions.OnCreate.
func (h *BroadcastHook) AttachViewer(viewer ViewerContext, store *PresetStore) func() {
	return store.Subscribe(func(_ context.Context, event StoreEvent) {
		h.publish(viewer.UserID, event)
	})
}

// Publish delivers event to every subscriber without blocking. Slow subscribers drop events.
func (h *BroadcastHook) Publish(_ context.Context, event StoreEvent) {
	h.publish("", event)
}

// PublishFor delivers event to userID's subscribers and the unscoped ones.
func (h *BroadcastHook) PublishFor(userID string, event StoreEvent) {
	h.publish(userID, event)
}

func (h *BroadcastHook) publish(userID string, event StoreEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, sub := range h.subs {
		if userID != "" && sub.userID != "" && sub.userID != userID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			h.logger.Debug("dashboard: dropping event for slow subscriber", zap.String("subscriber", id), zap.String("reason", event.Reason))
		}
	}
}

// Subscribe returns a channel of every store event and a cancel func.
func (h *BroadcastHook) Subscribe() (<-chan StoreEvent, func()) {
	return h.SubscribeUser("")
}

// SubscribeUser returns a channel of the events published for userID. An empty userID
// receives everything.
func (h *BroadcastHook) SubscribeUser(userID string) (<-chan StoreEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := uuid.NewString()
	ch := make(chan StoreEvent, h.buffer)
	h.subs[id] = subscriber{userID: userID, ch: ch}
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub.ch)
		}
	}
	return ch, cancel
}

// Subscribers reports the number of live subscriptions.
func (h *BroadcastHook) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *BroadcastHook) subscribeRequest(w http.ResponseWriter, r *http.Request) (<-chan StoreEvent, func(), bool) {
	if h.requestUser == nil {
		events, cancel := h.Subscribe()
		return events, cancel, true
	}
	userID, err := h.requestUser(r)
	if err != nil || userID == "" {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return nil, nil, false
	}
	events, cancel := h.SubscribeUser(userID)
	return events, cancel, true
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the request and streams store events as JSON.
func (h *BroadcastHook) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	events, cancel, ok := h.subscribeRequest(w, r)
	if !ok {
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("dashboard: websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// ServeSSE provides a Server-Sent Events endpoint for store events.
func (h *BroadcastHook) ServeSSE(w http.ResponseWriter, r *http.Request) {
	events, cancel, ok := h.subscribeRequest(w, r)
	if !ok {
		return
	}
	defer cancel()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	encoder := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			w.Write([]byte("event: " + event.Reason + "\ndata: "))
			if err := encoder.Encode(event); err != nil {
				return
			}
			w.Write([]byte("\n"))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}
