package camera

import (
	"context"
	"errors"

	"gocv.io/x/gocv"
)

var (
	// ErrNotOpen is returned when reading from a source that is not open.
	ErrNotOpen = errors.New("camera: source not open")

	// ErrNoFrame is returned when the source has no frame available yet.
	ErrNoFrame = errors.New("camera: no frame available")

	// ErrUnavailable is returned when the source cannot be opened.
	ErrUnavailable = errors.New("camera: source unavailable")
)

// Source is a live video handle.
type Source interface {
	// Open acquires the underlying device.
	Open(ctx context.Context) error

	// Read decodes the current frame into dst.
	Read(dst *gocv.Mat) error

	// Size returns the natural frame size, zero until known.
	Size() (width, height int)

	// Ready reports whether frames can be read and the size is known.
	Ready() bool

	// Close releases the device. Safe to call more than once.
	Close() error
}
