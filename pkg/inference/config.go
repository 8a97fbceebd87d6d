package inference

import (
	"log/slog"

	"github.com/teslashibe/go-posture/internal/log"
	"github.com/teslashibe/go-posture/pkg/preprocess"
	"gocv.io/x/gocv"
)

// Config holds adapter configuration.
type Config struct {
	// InputSize is the square model input edge in pixels.
	InputSize int

	// DNN execution
	Backend gocv.NetBackendType
	Target  gocv.NetTargetType

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring the adapter.
type Option func(*Config)

// WithInputSize sets the model input edge length.
func WithInputSize(px int) Option {
	return func(c *Config) { c.InputSize = px }
}

// WithBackend sets the DNN backend and target device.
func WithBackend(backend gocv.NetBackendType, target gocv.NetTargetType) Option {
	return func(c *Config) {
		c.Backend = backend
		c.Target = target
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns defaults for a YOLOv8-pose ONNX export on CPU.
func DefaultConfig() *Config {
	return &Config{
		InputSize: preprocess.Size,
		Backend:   gocv.NetBackendDefault,
		Target:    gocv.NetTargetCPU,
		Logger:    log.With("component", "inference"),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
