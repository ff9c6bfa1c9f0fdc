package rpc

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"nhooyr.io/websocket"

	"github.com/StorkBison/escrow-sell-SC/core/events"
	"github.com/StorkBison/escrow-sell-SC/observability"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsBufferSize   = 64
)

type subscriber struct {
	prefix string
	ch     chan []byte
}

// Hub fans committed events out to websocket subscribers. Slow subscribers
// lose events rather than stalling the node.
type Hub struct {
	logger    *slog.Logger
	delivered metric.Int64Counter

	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

// NewHub returns an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	delivered, err := otel.Meter("escrow/rpc").Int64Counter("escrow.ws.events_delivered",
		metric.WithDescription("Events queued for websocket subscribers."))
	if err != nil {
		logger.Warn("register websocket meter", slog.Any("error", err))
		delivered = noop.Int64Counter{}
	}
	return &Hub{logger: logger, delivered: delivered, subs: make(map[*subscriber]struct{})}
}

// Emit implements events.Emitter.
func (h *Hub) Emit(evt events.Event) {
	committed, ok := evt.(events.Committed)
	if !ok {
		return
	}
	data, err := json.Marshal(committed)
	if err != nil {
		h.logger.Warn("encode event", slog.String("type", committed.EventType()), slog.Any("error", err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if !strings.HasPrefix(committed.EventType(), sub.prefix) {
			continue
		}
		select {
		case sub.ch <- data:
			h.delivered.Add(context.Background(), 1, metric.WithAttributes(attribute.String("type", committed.EventType())))
		default:
			observability.ModuleMetrics().RecordThrottle("ws_drop")
		}
	}
}

// Subscribers reports the number of connected streams.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) subscribe(prefix string) (*subscriber, func()) {
	sub := &subscriber{prefix: prefix, ch: make(chan []byte, wsBufferSize)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub, func() {
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
	}
}

// ServeHTTP upgrades the request and streams events whose type starts with
// the optional "type" query parameter.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimSpace(r.URL.Query().Get("type"))
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")

	sub, cancel := h.subscribe(prefix)
	defer cancel()
	// Subscribers never send; CloseRead surfaces the peer going away.
	ctx := conn.CloseRead(r.Context())
	h.logger.Debug("event stream opened", slog.String("requestId", RequestID(r.Context())), slog.String("type", prefix))
	if err := stream(ctx, conn, sub.ch); err != nil {
		if status := websocket.CloseStatus(err); status == -1 && ctx.Err() == nil {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func stream(ctx context.Context, conn *websocket.Conn, updates <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data := <-updates:
			writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}
