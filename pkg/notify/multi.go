package notify

import (
	"context"
	"errors"
)

// Multi fans an alert out to several notifiers.
type Multi []Notifier

// Permission is default while any notifier is still undecided, so the
// throttle asks each of them. Otherwise it is granted if any notifier is
// granted and denied if all are denied.
func (m Multi) Permission() Permission {
	if len(m) == 0 {
		return PermissionDefault
	}
	granted := false
	for _, n := range m {
		switch n.Permission() {
		case PermissionDefault:
			return PermissionDefault
		case PermissionGranted:
			granted = true
		}
	}
	if granted {
		return PermissionGranted
	}
	return PermissionDenied
}

// AnyGranted reports whether at least one notifier can receive alerts now.
func (m Multi) AnyGranted() bool {
	for _, n := range m {
		if n.Permission() == PermissionGranted {
			return true
		}
	}
	return false
}

// RequestPermission asks every notifier that has not answered yet.
func (m Multi) RequestPermission(ctx context.Context) (Permission, error) {
	var errs []error
	for _, n := range m {
		if n.Permission() != PermissionDefault {
			continue
		}
		if _, err := n.RequestPermission(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return m.Permission(), errors.Join(errs...)
}

// Dispatch sends to every granted notifier.
func (m Multi) Dispatch(ctx context.Context, alert Alert) error {
	var errs []error
	sent := 0
	for _, n := range m {
		if n.Permission() != PermissionGranted {
			continue
		}
		if err := n.Dispatch(ctx, alert); err != nil {
			errs = append(errs, err)
			continue
		}
		sent++
	}
	if sent == 0 && len(errs) == 0 {
		return ErrPermissionDenied
	}
	return errors.Join(errs...)
}
