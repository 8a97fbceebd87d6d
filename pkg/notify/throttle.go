package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-posture/internal/log"
)

// DefaultCooldown is the minimum time between two dispatched alerts.
const DefaultCooldown = 5 * time.Second

// Throttle gates alerts: only while the window is unfocused, at most once per
// cooldown, and only with permission.
type Throttle struct {
	notifier Notifier
	cooldown time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu        sync.Mutex
	lastFired time.Time
	requested bool
}

// ThrottleOption configures a Throttle.
type ThrottleOption func(*Throttle)

// WithCooldown overrides DefaultCooldown.
func WithCooldown(d time.Duration) ThrottleOption {
	return func(t *Throttle) { t.cooldown = d }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) ThrottleOption {
	return func(t *Throttle) { t.now = now }
}

// NewThrottle creates a throttle dispatching through n.
func NewThrottle(n Notifier, opts ...ThrottleOption) *Throttle {
	t := &Throttle{
		notifier: n,
		cooldown: DefaultCooldown,
		now:      time.Now,
		logger:   log.With("component", "notify"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// LastFired returns when the last alert was dispatched (zero if never).
func (t *Throttle) LastFired() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastFired
}

// Evaluate decides whether alert should be dispatched now and dispatches it.
// sustained is the two-cycle correction signal, focused the window state.
// Permission is requested at most once per process; until it is granted
// nothing is dispatched. A Multi asks every undecided member in that one
// request and meanwhile delivers through the members already granted.
func (t *Throttle) Evaluate(ctx context.Context, sustained, focused bool, alert Alert) (bool, error) {
	if !sustained || focused {
		return false, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if !t.lastFired.IsZero() && now.Sub(t.lastFired) < t.cooldown {
		return false, nil
	}

	perm := t.notifier.Permission()
	if perm == PermissionDefault && !t.requested {
		t.requested = true
		t.logger.Info("requesting notification permission")
		var err error
		if perm, err = t.notifier.RequestPermission(ctx); err != nil {
			return false, fmt.Errorf("request permission: %w", err)
		}
	}
	if !deliverable(t.notifier, perm) {
		return false, nil
	}

	alert.FiredAt = now
	if err := t.notifier.Dispatch(ctx, alert); err != nil {
		return false, fmt.Errorf("dispatch: %w", err)
	}
	t.lastFired = now
	t.logger.Info("posture alert dispatched", "reasons", alert.Reasons)
	return true, nil
}
