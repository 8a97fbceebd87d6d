package camera

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/teslashibe/go-posture/internal/log"
	"gocv.io/x/gocv"
)

// Device captures from a local camera or stream through OpenCV.
type Device struct {
	config Config
	logger *slog.Logger

	mu     sync.Mutex
	vc     *gocv.VideoCapture
	width  int
	height int
}

// NewDevice creates a device source. The device is not opened until Open.
func NewDevice(cfg Config) (*Device, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera: invalid config: %s", strings.Join(errs, "; "))
	}
	return &Device{
		config: cfg,
		logger: log.With("component", "camera", "device", cfg.Device),
	}, nil
}

type openResult struct {
	vc  *gocv.VideoCapture
	err error
}

// Open opens the device and applies the requested resolution and framerate.
// Opening can block for seconds on some drivers; if ctx ends first the
// device is closed as soon as the open completes.
func (d *Device) Open(ctx context.Context) error {
	d.mu.Lock()
	opened := d.vc != nil
	d.mu.Unlock()
	if opened {
		return nil
	}

	ch := make(chan openResult, 1)
	go func() {
		vc, err := gocv.OpenVideoCapture(d.config.deviceID())
		ch <- openResult{vc: vc, err: err}
	}()

	var res openResult
	select {
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.vc != nil {
				r.vc.Close()
			}
		}()
		return ctx.Err()
	case res = <-ch:
	}

	if res.err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, d.config.Device, res.err)
	}
	if !res.vc.IsOpened() {
		res.vc.Close()
		return fmt.Errorf("%w: %s", ErrUnavailable, d.config.Device)
	}

	if d.config.Width > 0 {
		res.vc.Set(gocv.VideoCaptureFrameWidth, float64(d.config.Width))
	}
	if d.config.Height > 0 {
		res.vc.Set(gocv.VideoCaptureFrameHeight, float64(d.config.Height))
	}
	if d.config.Framerate > 0 {
		res.vc.Set(gocv.VideoCaptureFPS, float64(d.config.Framerate))
	}

	d.mu.Lock()
	d.vc = res.vc
	d.width = int(res.vc.Get(gocv.VideoCaptureFrameWidth))
	d.height = int(res.vc.Get(gocv.VideoCaptureFrameHeight))
	w, h := d.width, d.height
	d.mu.Unlock()

	d.logger.Info("camera opened", "width", w, "height", h)
	return nil
}

// Read grabs the next frame into dst.
func (d *Device) Read(dst *gocv.Mat) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.vc == nil {
		return ErrNotOpen
	}
	if ok := d.vc.Read(dst); !ok || dst.Empty() {
		return ErrNoFrame
	}
	// Drivers may ignore the requested size; trust the frame.
	d.width, d.height = dst.Cols(), dst.Rows()
	return nil
}

// Size returns the frame size reported by the device.
func (d *Device) Size() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.width, d.height
}

// Ready reports whether the device is open with a known frame size.
func (d *Device) Ready() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.vc != nil && d.width > 0 && d.height > 0
}

// Close releases the device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.vc == nil {
		return nil
	}
	err := d.vc.Close()
	d.vc = nil
	d.width, d.height = 0, 0
	d.logger.Info("camera released")
	return err
}
