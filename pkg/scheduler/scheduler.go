// Package scheduler decides whether posture sampling runs and how often.
//
// All inputs (feature toggle, current UI route, window focus, user-selected
// interval) flow through one Machine. Every event recomputes the schedule with
// the same Interval function, so there is exactly one place that knows the
// rules.
package scheduler

import (
	"errors"
	"strings"
	"time"

	"github.com/teslashibe/go-posture/pkg/settings"
)

// FastInterval is used while the user is on the stretching view with the
// window focused.
const FastInterval = time.Second

// DefaultInterval is used when no interval has been configured.
const DefaultInterval = time.Duration(settings.Interval10s) * time.Millisecond

// ErrInvalidInterval is returned for intervals outside settings.AllowedIntervals.
var ErrInvalidInterval = errors.New("scheduler: interval not selectable")

// Inputs is the complete scheduler state.
type Inputs struct {
	Enabled         bool
	StretchingRoute bool
	Focused         bool
	Configured      time.Duration
}

// Interval returns the active sampling interval, or false when sampling must
// not run at all.
func Interval(in Inputs) (time.Duration, bool) {
	if !in.Enabled {
		return 0, false
	}
	if in.StretchingRoute && in.Focused {
		return FastInterval, true
	}
	if in.Configured <= 0 {
		return DefaultInterval, true
	}
	return in.Configured, true
}

// IsStretchingRoute reports whether route (a path or a "#/path" hash) is the
// stretching view or one of its sub-routes.
func IsStretchingRoute(route, stretching string) bool {
	route = normalizeRoute(route)
	stretching = normalizeRoute(stretching)
	if route == "" || stretching == "" {
		return false
	}
	return route == stretching || strings.HasPrefix(route, stretching+"/")
}

func normalizeRoute(r string) string {
	r = strings.TrimSpace(r)
	r = strings.TrimPrefix(r, "#")
	if i := strings.IndexAny(r, "?"); i >= 0 {
		r = r[:i]
	}
	r = strings.TrimSuffix(r, "/")
	if r != "" && !strings.HasPrefix(r, "/") {
		r = "/" + r
	}
	return r
}
