// Package broadcast keeps the registry of live order viewers and fans every order
// snapshot out to them.
//
// Example:
//
//	hub := broadcast.NewHub(broadcast.DefaultConfig(), presenter.NewOrderPresenter(qr), logger)
//	conn, err := hub.Subscribe(ctx, viewer)
//	if err != nil {
//	    return err
//	}
//	defer hub.Unsubscribe(conn)
package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	EventConnected = "connected"
	EventNewOrder  = "new-order"
)

var (
	ErrAdmissionDenied    = errors.New("viewer admission denied")
	ErrConnectionIsClosed = errors.New("viewer connection is closed")
	ErrWriteTimedOut      = errors.New("viewer write timed out")
)

// Event is one message for a viewer. Data is always a JSON document.
type Event struct {
	Name string
	Data []byte
}

// Viewer is the transport end of a subscription. Send and Ping should honour ctx; the hub
// gives up on them after the write timeout either way.
type Viewer interface {
	Send(ctx context.Context, event Event) error
	Ping(ctx context.Context) error
	Close() error
}

type OrderEncoder interface {
	EncodeOrder(o *order.Order) ([]byte, error)
}

type Config struct {
	WriteTimeout   time.Duration
	Parallelism    int
	AdmissionRate  rate.Limit
	AdmissionBurst int
	AdmissionWait  time.Duration
}

func DefaultConfig() Config {
	return Config{
		WriteTimeout:   5 * time.Second,
		Parallelism:    32,
		AdmissionRate:  50,
		AdmissionBurst: 100,
		AdmissionWait:  2 * time.Second,
	}
}

// ConnectionInfo is the diagnostic view of a live connection.
type ConnectionInfo struct {
	ID           string    `json:"id"`
	ConnectedAt  time.Time `json:"connectedAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// Hub is safe for concurrent use. Publishing iterates over a snapshot of the registry, so
// subscribers come and go while a fanout is in flight.
type Hub struct {
	cfg     Config
	encoder OrderEncoder
	limiter *rate.Limiter
	logger  logrus.FieldLogger
	now     func() time.Time

	mu    sync.RWMutex
	conns map[string]*Connection
}

func NewHub(cfg Config, encoder OrderEncoder, logger logrus.FieldLogger) *Hub {
	defaults := DefaultConfig()
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = defaults.Parallelism
	}
	if cfg.AdmissionRate <= 0 {
		cfg.AdmissionRate = defaults.AdmissionRate
	}
	if cfg.AdmissionBurst <= 0 {
		cfg.AdmissionBurst = defaults.AdmissionBurst
	}
	if cfg.AdmissionWait <= 0 {
		cfg.AdmissionWait = defaults.AdmissionWait
	}

	return &Hub{
		cfg:     cfg,
		encoder: encoder,
		limiter: rate.NewLimiter(cfg.AdmissionRate, cfg.AdmissionBurst),
		logger:  logger.WithField("component", "broadcast-hub"),
		now:     time.Now,
		conns:   make(map[string]*Connection),
	}
}

// Subscribe admits viewer and sends it the connected event. The connection is registered
// before that event goes out, but its write lock is held until it is delivered, so no
// new-order event can overtake it.
func (h *Hub) Subscribe(ctx context.Context, viewer Viewer) (*Connection, error) {
	admitCtx, cancel := context.WithTimeout(ctx, h.cfg.AdmissionWait)
	defer cancel()
	if err := h.limiter.Wait(admitCtx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAdmissionDenied, err)
	}

	now := h.now()
	conn := &Connection{
		id:          kernel.NewUUID().String(),
		viewer:      viewer,
		connectedAt: now,
		lastSeen:    now,
		now:         h.now,
	}

	conn.writeMu.Lock()
	h.mu.Lock()
	h.conns[conn.id] = conn
	h.mu.Unlock()

	err := conn.writeLocked(ctx, h.cfg.WriteTimeout, func(ctx context.Context) error {
		return viewer.Send(ctx, Event{Name: EventConnected, Data: connectedPayload})
	})
	conn.writeMu.Unlock()

	if err != nil {
		h.Unsubscribe(conn)
		return nil, err
	}

	h.logger.WithField("viewer_id", conn.id).Debug("viewer subscribed")
	return conn, nil
}

// Unsubscribe removes conn and closes its viewer. Calling it more than once is harmless.
func (h *Hub) Unsubscribe(conn *Connection) {
	if conn == nil {
		return
	}

	h.mu.Lock()
	_, ok := h.conns[conn.id]
	delete(h.conns, conn.id)
	h.mu.Unlock()

	conn.close()
	if ok {
		h.logger.WithField("viewer_id", conn.id).Debug("viewer unsubscribed")
	}
}

// PublishOrder sends a new-order event with the snapshot to every viewer connected when
// the call starts. Viewers that fail or time out are dropped after the pass.
func (h *Hub) PublishOrder(ctx context.Context, snapshot *order.Order) {
	conns := h.snapshot()
	if len(conns) == 0 {
		return
	}

	data, err := h.encoder.EncodeOrder(snapshot)
	if err != nil {
		h.logger.WithError(err).WithField("order_id", snapshot.ID().String()).Error("cannot encode order")
		return
	}

	event := Event{Name: EventNewOrder, Data: data}
	failed := h.deliver(ctx, conns, func(ctx context.Context, viewer Viewer) error {
		return viewer.Send(ctx, event)
	})
	h.drop(failed, "publish")
}

// Sweep pings every viewer and drops the ones that do not answer in time. It returns the
// number of dropped viewers.
func (h *Hub) Sweep(ctx context.Context) int {
	conns := h.snapshot()
	if len(conns) == 0 {
		return 0
	}

	failed := h.deliver(ctx, conns, func(ctx context.Context, viewer Viewer) error {
		return viewer.Ping(ctx)
	})
	h.drop(failed, "heartbeat")
	return len(failed)
}

// Touch records inbound activity on conn.
func (h *Hub) Touch(conn *Connection) {
	conn.touch()
}

func (h *Hub) ActiveCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Connections lists the live connections, oldest first.
func (h *Hub) Connections() []ConnectionInfo {
	conns := h.snapshot()
	infos := make([]ConnectionInfo, 0, len(conns))
	for _, conn := range conns {
		infos = append(infos, conn.info())
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].ConnectedAt.Equal(infos[j].ConnectedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].ConnectedAt.Before(infos[j].ConnectedAt)
	})
	return infos
}

// Close drops every viewer.
func (h *Hub) Close() {
	for _, conn := range h.snapshot() {
		h.Unsubscribe(conn)
	}
}

func (h *Hub) snapshot() []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns := make([]*Connection, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
	}
	return conns
}

type failure struct {
	conn *Connection
	err  error
}

func (h *Hub) deliver(
	ctx context.Context,
	conns []*Connection,
	write func(ctx context.Context, viewer Viewer) error,
) []failure {
	var (
		mu     sync.Mutex
		failed []failure
	)

	var g errgroup.Group
	g.SetLimit(h.cfg.Parallelism)
	for _, conn := range conns {
		g.Go(func() error {
			if err := conn.write(ctx, h.cfg.WriteTimeout, write); err != nil {
				mu.Lock()
				failed = append(failed, failure{conn: conn, err: err})
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return failed
}

func (h *Hub) drop(failed []failure, operation string) {
	for _, f := range failed {
		h.logger.WithError(f.err).WithFields(logrus.Fields{
			"viewer_id": f.conn.id,
			"operation": operation,
		}).Warn("dropping viewer")
		h.Unsubscribe(f.conn)
	}
}

var connectedPayload = mustJSON("connected")

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
