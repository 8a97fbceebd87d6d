package notify

import (
	"context"
	"sync"
)

// Broadcaster pushes JSON messages to connected UI clients.
type Broadcaster interface {
	BroadcastJSON(v interface{}) error
}

// Message types sent to UI clients.
const (
	MessagePermissionRequest = "permission_request"
	MessageNotification      = "notification"
)

type hubMessage struct {
	Type  string `json:"type"`
	Alert *Alert `json:"alert,omitempty"`
}

// HubNotifier shows alerts through the connected UI, which owns the desktop
// notification API. The UI reports the user's answer with SetPermission.
type HubNotifier struct {
	out Broadcaster

	mu   sync.RWMutex
	perm Permission
}

// NewHubNotifier creates a notifier with permission not yet asked.
func NewHubNotifier(out Broadcaster) *HubNotifier {
	return &HubNotifier{out: out, perm: PermissionDefault}
}

// Permission returns the state last reported by the UI.
func (n *HubNotifier) Permission() Permission {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.perm
}

// SetPermission records the user's answer.
func (n *HubNotifier) SetPermission(p Permission) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.perm = p
}

// RequestPermission asks the UI to prompt the user. The answer arrives later
// through SetPermission, so the current state is returned.
func (n *HubNotifier) RequestPermission(ctx context.Context) (Permission, error) {
	if err := n.out.BroadcastJSON(hubMessage{Type: MessagePermissionRequest}); err != nil {
		return n.Permission(), err
	}
	return n.Permission(), nil
}

// Dispatch pushes the alert to the UI.
func (n *HubNotifier) Dispatch(ctx context.Context, alert Alert) error {
	if n.Permission() != PermissionGranted {
		return ErrPermissionDenied
	}
	return n.out.BroadcastJSON(hubMessage{Type: MessageNotification, Alert: &alert})
}
