// Package hub owns the console's live in-memory snapshots of the four store
// collections. Each inbound change replaces the affected snapshot in full;
// there is no merging or diffing, so an external write always wins over
// anything the operator has not yet saved.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/woomarket/console/internal/metrics"
	"github.com/woomarket/console/internal/store"
)

// Event notifies listeners that a collection snapshot was replaced.
type Event struct {
	Collection string    `json:"collection"`
	At         time.Time `json:"at"`
}

// Config holds hub configuration.
type Config struct {
	Store  store.Store
	Logger *slog.Logger
	Clock  clockwork.Clock
}

func (c *Config) Validate() error {
	if c.Store == nil {
		return fmt.Errorf("store is required")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Hub subscribes to the four collections and serves their latest snapshots.
type Hub struct {
	cfg   Config
	log   *slog.Logger
	clock clockwork.Clock

	mu          sync.RWMutex
	siteConfig  store.SiteConfig
	hasConfig   bool
	tasks       map[string]store.Task
	users       map[string]store.User
	withdrawals map[string]store.WithdrawalRequest
	arrived     map[string]bool

	ready     chan struct{}
	readyOnce sync.Once

	listenerMu sync.Mutex
	nextID     int
	listeners  map[int]chan Event
}

func New(cfg Config) (*Hub, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid hub config: %w", err)
	}
	return &Hub{
		cfg:         cfg,
		log:         cfg.Logger,
		clock:       cfg.Clock,
		tasks:       make(map[string]store.Task),
		users:       make(map[string]store.User),
		withdrawals: make(map[string]store.WithdrawalRequest),
		arrived:     make(map[string]bool),
		ready:       make(chan struct{}),
		listeners:   make(map[int]chan Event),
	}, nil
}

// Run registers the four collection subscriptions and blocks until ctx is
// done, then unsubscribes them all.
func (h *Hub) Run(ctx context.Context) error {
	type subscription struct {
		path     string
		onChange store.ChangeFunc
	}
	subs := []subscription{
		{store.PathConfig, h.onConfig},
		{store.PathTasks, h.onTasks},
		{store.PathUsers, h.onUsers},
		{store.PathWithdrawals, h.onWithdrawals},
	}

	var unsubs []store.UnsubscribeFunc
	defer func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}()

	for _, sub := range subs {
		unsub, err := h.cfg.Store.Subscribe(ctx, sub.path, sub.onChange)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", sub.path, err)
		}
		unsubs = append(unsubs, unsub)
	}

	h.log.Info("hub subscribed to store collections", "count", len(subs))
	<-ctx.Done()
	return ctx.Err()
}

// Ready is closed once the initial snapshot of every collection has arrived.
func (h *Hub) Ready() <-chan struct{} { return h.ready }

// IsReady reports whether all four initial snapshots have arrived.
func (h *Hub) IsReady() bool {
	select {
	case <-h.ready:
		return true
	default:
		return false
	}
}

// markArrived is called with h.mu held.
func (h *Hub) markArrived(collection string) {
	h.arrived[collection] = true
	if len(h.arrived) == 4 {
		h.readyOnce.Do(func() { close(h.ready) })
	}
}

func (h *Hub) onConfig(snap store.Snapshot) {
	var cfg store.SiteConfig
	if len(snap) > 0 && string(snap) != "null" {
		if err := json.Unmarshal(snap, &cfg); err != nil {
			h.log.Error("failed to decode config snapshot, keeping previous", "error", err)
			h.dropSnapshot(store.PathConfig)
			return
		}
	}
	h.mu.Lock()
	h.siteConfig = cfg
	h.hasConfig = len(snap) > 0 && string(snap) != "null"
	h.markArrived(store.PathConfig)
	h.mu.Unlock()
	h.snapshotArrived(store.PathConfig, 1)
}

func (h *Hub) onTasks(snap store.Snapshot) {
	tasks, err := store.DecodeCollection(snap, func(t *store.Task, id string) { t.ID = id })
	if err != nil {
		h.log.Error("failed to decode tasks snapshot, keeping previous", "error", err)
		h.dropSnapshot(store.PathTasks)
		return
	}
	h.mu.Lock()
	h.tasks = tasks
	h.markArrived(store.PathTasks)
	h.mu.Unlock()
	h.snapshotArrived(store.PathTasks, len(tasks))
}

func (h *Hub) onUsers(snap store.Snapshot) {
	users, err := store.DecodeCollection(snap, func(u *store.User, id string) { u.ID = id })
	if err != nil {
		h.log.Error("failed to decode users snapshot, keeping previous", "error", err)
		h.dropSnapshot(store.PathUsers)
		return
	}
	h.mu.Lock()
	h.users = users
	h.markArrived(store.PathUsers)
	h.mu.Unlock()
	h.snapshotArrived(store.PathUsers, len(users))
}

func (h *Hub) onWithdrawals(snap store.Snapshot) {
	withdrawals, err := store.DecodeCollection(snap, func(w *store.WithdrawalRequest, id string) { w.ID = id })
	if err != nil {
		h.log.Error("failed to decode withdrawals snapshot, keeping previous", "error", err)
		h.dropSnapshot(store.PathWithdrawals)
		return
	}
	h.mu.Lock()
	h.withdrawals = withdrawals
	h.markArrived(store.PathWithdrawals)
	h.mu.Unlock()
	h.snapshotArrived(store.PathWithdrawals, len(withdrawals))
}

// dropSnapshot records an undecodable snapshot. It still counts toward
// readiness: the collection did deliver, the console just keeps serving the
// previous state.
func (h *Hub) dropSnapshot(collection string) {
	h.mu.Lock()
	h.markArrived(collection)
	h.mu.Unlock()
	metrics.SnapshotUpdatesTotal.WithLabelValues(collection).Inc()
}

// snapshotArrived records metrics and fans the change out to listeners.
func (h *Hub) snapshotArrived(collection string, size int) {
	metrics.SnapshotUpdatesTotal.WithLabelValues(collection).Inc()
	metrics.CollectionSize.WithLabelValues(collection).Set(float64(size))

	event := Event{Collection: collection, At: h.clock.Now().UTC()}
	h.listenerMu.Lock()
	for _, ch := range h.listeners {
		select {
		case ch <- event:
		default:
			// Slow listener; drop rather than block snapshot delivery.
		}
	}
	h.listenerMu.Unlock()
}

// Listen registers a change-event channel for SSE fanout. The returned func
// unregisters it.
func (h *Hub) Listen() (<-chan Event, func()) {
	h.listenerMu.Lock()
	h.nextID++
	id := h.nextID
	ch := make(chan Event, 16)
	h.listeners[id] = ch
	h.listenerMu.Unlock()

	return ch, func() {
		h.listenerMu.Lock()
		delete(h.listeners, id)
		h.listenerMu.Unlock()
	}
}

// SiteConfig returns the latest config snapshot and whether one has arrived.
func (h *Hub) SiteConfig() (store.SiteConfig, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.siteConfig, h.hasConfig
}

// Tasks returns a copy of the latest tasks snapshot.
func (h *Hub) Tasks() map[string]store.Task {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]store.Task, len(h.tasks))
	for id, t := range h.tasks {
		out[id] = t
	}
	return out
}

// Users returns a copy of the latest users snapshot.
func (h *Hub) Users() map[string]store.User {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]store.User, len(h.users))
	for id, u := range h.users {
		out[id] = u
	}
	return out
}

// Withdrawals returns a copy of the latest withdrawal snapshot.
func (h *Hub) Withdrawals() map[string]store.WithdrawalRequest {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]store.WithdrawalRequest, len(h.withdrawals))
	for id, w := range h.withdrawals {
		out[id] = w
	}
	return out
}
