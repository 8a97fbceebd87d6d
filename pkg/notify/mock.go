package notify

import (
	"context"
	"sync"
)

// Mock implements Notifier for testing.
type Mock struct {
	mu       sync.Mutex
	perm     Permission
	grantOn  Permission // returned by RequestPermission
	requests int
	alerts   []Alert
}

// NewMock creates a mock with the given current permission. RequestPermission
// answers with answer and adopts it.
func NewMock(current, answer Permission) *Mock {
	return &Mock{perm: current, grantOn: answer}
}

// Permission returns the current state.
func (m *Mock) Permission() Permission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.perm
}

// SetPermission changes the current state, as a late user answer would.
func (m *Mock) SetPermission(p Permission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.perm = p
}

// RequestPermission records the request and returns the configured answer.
func (m *Mock) RequestPermission(ctx context.Context) (Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
	m.perm = m.grantOn
	return m.perm, nil
}

// Dispatch records the alert.
func (m *Mock) Dispatch(ctx context.Context, alert Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.perm != PermissionGranted {
		return ErrPermissionDenied
	}
	m.alerts = append(m.alerts, alert)
	return nil
}

// Requests returns how many times permission was requested.
func (m *Mock) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests
}

// Alerts returns the dispatched alerts.
func (m *Mock) Alerts() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Alert, len(m.alerts))
	copy(out, m.alerts)
	return out
}
