// Package notify decides when a posture alert reaches the user and sends it.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/teslashibe/go-posture/pkg/posture"
)

// Permission is the user's alert permission state.
type Permission string

const (
	PermissionDefault Permission = "default" // not asked yet, or request pending
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// ErrPermissionDenied is returned when dispatching without permission.
var ErrPermissionDenied = errors.New("notify: permission denied")

// Alert is a posture correction notification.
type Alert struct {
	Title    string           `json:"title"`
	Body     string           `json:"body"`
	Reasons  []string         `json:"reasons"`
	Analysis posture.Analysis `json:"analysis"`
	FiredAt  time.Time        `json:"fired_at"`
}

// Notifier is the platform alert boundary.
type Notifier interface {
	// Permission returns the current permission state.
	Permission() Permission

	// RequestPermission asks the user for permission. It may return
	// PermissionDefault when the answer arrives later.
	RequestPermission(ctx context.Context) (Permission, error)

	// Dispatch shows the alert.
	Dispatch(ctx context.Context, alert Alert) error
}

// NewAlert builds the user-facing alert for a sustained correction.
func NewAlert(a posture.Analysis, reasons []string, now time.Time) Alert {
	var neck, face bool
	for _, r := range reasons {
		switch r {
		case posture.ReasonNeckAngle:
			neck = true
		case posture.ReasonFacePosition:
			face = true
		}
	}

	body := "Sit up straight and relax your shoulders."
	switch {
	case neck && !face:
		body = "Your neck is leaning. Bring your head back over your shoulders."
	case face && !neck:
		body = "Your head is dropping low. Raise your screen or sit back."
	}

	return Alert{
		Title:    "Check your posture",
		Body:     body,
		Reasons:  reasons,
		Analysis: a,
		FiredAt:  now,
	}
}

// partial is implemented by notifiers that deliver through several channels,
// some of which may be granted while others are still undecided.
type partial interface {
	AnyGranted() bool
}

// deliverable reports whether n can take an alert given its permission perm.
func deliverable(n Notifier, perm Permission) bool {
	if perm == PermissionGranted {
		return true
	}
	if p, ok := n.(partial); ok {
		return p.AnyGranted()
	}
	return false
}
