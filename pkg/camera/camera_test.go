package camera

import (
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errs   int
	}{
		{name: "default", mutate: func(*Config) {}, errs: 0},
		{name: "device defaults", mutate: func(c *Config) { c.Width, c.Height, c.Framerate = 0, 0, 0 }, errs: 0},
		{name: "no device", mutate: func(c *Config) { c.Device = "" }, errs: 1},
		{name: "tiny", mutate: func(c *Config) { c.Width, c.Height = 10, 10 }, errs: 2},
		{name: "fps", mutate: func(c *Config) { c.Framerate = 500 }, errs: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if got := cfg.Validate(); len(got) != tc.errs {
				t.Errorf("Validate() = %v, want %d errors", got, tc.errs)
			}
		})
	}
}

func TestDeviceID(t *testing.T) {
	cfg := Config{Device: "2"}
	if id, ok := cfg.deviceID().(int); !ok || id != 2 {
		t.Errorf("numeric device: got %v", cfg.deviceID())
	}
	cfg.Device = "rtsp://cam.local/stream"
	if _, ok := cfg.deviceID().(string); !ok {
		t.Errorf("url device: got %T", cfg.deviceID())
	}
}

func TestPresets(t *testing.T) {
	for _, name := range PresetNames() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Errorf("preset %q missing", name)
			continue
		}
		if errs := cfg.Validate(); len(errs) > 0 {
			t.Errorf("preset %q invalid: %v", name, errs)
		}
	}
	if GetPreset("8k") != nil {
		t.Error("unknown preset should be nil")
	}
}

func TestDeviceLifecycle(t *testing.T) {
	if _, err := NewDevice(Config{}); err == nil {
		t.Error("empty config should be rejected")
	}

	cfg := DefaultConfig()
	cfg.Device = filepath.Join(t.TempDir(), "missing.mp4")
	dev, err := NewDevice(cfg)
	if err != nil {
		t.Fatal(err)
	}

	frame := gocv.NewMat()
	defer frame.Close()
	if err := dev.Read(&frame); !errors.Is(err, ErrNotOpen) {
		t.Errorf("read before open: %v", err)
	}
	if err := dev.Open(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("open missing device: %v", err)
	}
	if dev.Ready() {
		t.Error("unopened device should not be ready")
	}
	if err := dev.Close(); err != nil {
		t.Errorf("close unopened device: %v", err)
	}
}

func TestStillFromFile(t *testing.T) {
	dir := t.TempDir()
	wide := filepath.Join(dir, "wide.png")
	tall := filepath.Join(dir, "tall.jpg")
	if err := imaging.Save(imaging.New(320, 180, color.NRGBA{R: 255, A: 255}), wide); err != nil {
		t.Fatal(err)
	}
	if err := imaging.Save(imaging.New(90, 160, color.NRGBA{B: 255, A: 255}), tall); err != nil {
		t.Fatal(err)
	}

	src := NewStill(wide, tall)
	if src.Ready() {
		t.Error("should not be ready before Open")
	}
	if err := src.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if w, h := src.Size(); w != 320 || h != 180 {
		t.Errorf("size: %dx%d", w, h)
	}

	frame := gocv.NewMat()
	defer frame.Close()

	want := []image.Point{{320, 180}, {90, 160}, {320, 180}}
	for i, size := range want {
		if err := src.Read(&frame); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if frame.Cols() != size.X || frame.Rows() != size.Y {
			t.Errorf("frame %d: %dx%d, want %v", i, frame.Cols(), frame.Rows(), size)
		}
	}

	// Red in, BGR out.
	px := frame.GetVecbAt(10, 10)
	if px[2] != 255 || px[0] != 0 {
		t.Errorf("pixel: %v", px)
	}
}

func TestStillErrors(t *testing.T) {
	src := NewStill(filepath.Join(t.TempDir(), "missing.png"))
	if err := src.Open(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("missing file: %v", err)
	}

	empty := NewStill()
	if err := empty.Open(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("no images: %v", err)
	}

	frame := gocv.NewMat()
	defer frame.Close()
	if err := empty.Read(&frame); !errors.Is(err, ErrNotOpen) {
		t.Errorf("read unopened: %v", err)
	}
}

func TestStillFromImagesClose(t *testing.T) {
	src := NewStillFromImages(imaging.New(64, 48, color.NRGBA{G: 200, A: 255}))
	if err := src.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !src.Ready() {
		t.Fatal("should be ready")
	}
	src.Close()
	src.Close()
	if src.Ready() {
		t.Error("closed source should not be ready")
	}
}
