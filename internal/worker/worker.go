package worker

import (
	"context"
	"sync"
	"time"

	"marketplace-storefront/internal/util"

	"go.uber.org/zap"
)

// CartRefresher refreshes the cached cart count.
type CartRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// UnreadAPI returns the unread message count.
type UnreadAPI interface {
	UnreadCount(ctx context.Context) (int, error)
}

// AuthChecker reports whether a user is signed in.
type AuthChecker interface {
	IsAuthenticated() bool
}

// Badges is the navigation badge snapshot.
type Badges struct {
	CartCount      int `json:"cartCount"`
	UnreadMessages int `json:"unreadMessages"`
}

// BadgeWorker keeps the navigation badges fresh while a user is signed in
type BadgeWorker struct {
	cart     CartRefresher
	unread   UnreadAPI
	auth     AuthChecker
	interval time.Duration
	logger   *zap.Logger

	mu     sync.RWMutex
	badges Badges
	gen    uint64
	stop   chan struct{}
	once   sync.Once
}

// NewBadgeWorker creates a new badge worker
func NewBadgeWorker(cart CartRefresher, unread UnreadAPI, auth AuthChecker, interval time.Duration) *BadgeWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &BadgeWorker{
		cart:     cart,
		unread:   unread,
		auth:     auth,
		interval: interval,
		logger:   util.GetLogger(),
		stop:     make(chan struct{}),
	}
}

// Start polls until ctx is cancelled or Stop is called
func (w *BadgeWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting badge worker", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Badge worker context cancelled, stopping")
			return ctx.Err()
		case <-w.stop:
			return nil
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}

// Stop stops the worker
func (w *BadgeWorker) Stop() {
	w.once.Do(func() {
		w.logger.Info("Stopping badge worker")
		close(w.stop)
	})
}

// Poll refreshes both badges once. Signed out, the badges are zeroed
// without calling the API.
func (w *BadgeWorker) Poll(ctx context.Context) {
	if !w.auth.IsAuthenticated() {
		w.Reset()
		return
	}

	w.mu.RLock()
	next := w.badges
	gen := w.gen
	w.mu.RUnlock()

	if n, err := w.cart.Refresh(ctx); err == nil {
		next.CartCount = n
	}
	if n, err := w.unread.UnreadCount(ctx); err != nil {
		w.logger.Warn("Failed to refresh unread count", zap.Error(err))
	} else {
		next.UnreadMessages = n
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	// A Reset during the calls means the user logged out.
	if gen != w.gen || !w.auth.IsAuthenticated() {
		return
	}
	w.badges = next
}

func (w *BadgeWorker) Snapshot() Badges {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.badges
}

// Reset zeroes the badges, e.g. on logout.
func (w *BadgeWorker) Reset() {
	w.mu.Lock()
	w.badges = Badges{}
	w.gen++
	w.mu.Unlock()
}
