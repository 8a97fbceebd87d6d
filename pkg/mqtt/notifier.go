package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/teslashibe/go-posture/pkg/notify"
)

// AlertNotifier publishes alerts to "<prefix>/alert". Subscribers on the broker
// are machines, so there is no permission to ask for.
type AlertNotifier struct {
	pub    Publisher
	prefix string
}

// NewAlertNotifier creates a notifier publishing through pub.
func NewAlertNotifier(pub Publisher, prefix string) *AlertNotifier {
	return &AlertNotifier{pub: pub, prefix: prefix}
}

// Permission is always granted.
func (n *AlertNotifier) Permission() notify.Permission {
	return notify.PermissionGranted
}

// RequestPermission is a no-op.
func (n *AlertNotifier) RequestPermission(ctx context.Context) (notify.Permission, error) {
	return notify.PermissionGranted, nil
}

// Dispatch publishes the alert as JSON.
func (n *AlertNotifier) Dispatch(ctx context.Context, alert notify.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	return n.pub.Publish(Topic(n.prefix, "alert"), payload)
}
