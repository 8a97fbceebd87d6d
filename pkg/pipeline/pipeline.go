// Package pipeline runs the posture sampling cycle: capture, letterbox,
// inference, decoding, analysis, alerting and state distribution.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"github.com/teslashibe/go-posture/internal/log"
	"github.com/teslashibe/go-posture/pkg/camera"
	"github.com/teslashibe/go-posture/pkg/inference"
	"github.com/teslashibe/go-posture/pkg/notify"
	"github.com/teslashibe/go-posture/pkg/pose"
	"github.com/teslashibe/go-posture/pkg/posture"
	"github.com/teslashibe/go-posture/pkg/preprocess"
	"github.com/teslashibe/go-posture/pkg/state"
	"gocv.io/x/gocv"
)

// Inferer runs the pose model on a letterboxed buffer.
type Inferer interface {
	Infer(buf gocv.Mat) (pose.RawDetections, error)
}

// SetupError is a failure that stops sampling until the user intervenes.
type SetupError struct {
	Stage string // "camera" or "model"
	Err   error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s setup failed: %v", e.Stage, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one cycle.
type Result struct {
	// Skipped is set when the frame was not ready; nothing else is valid.
	Skipped bool `json:"skipped"`

	Detected   bool             `json:"detected"`
	Recognized bool             `json:"recognized"`
	Keypoints  *pose.Keypoints  `json:"keypoints"`
	Analysis   posture.Analysis `json:"analysis"`

	// Set by Commit.
	Sustained bool `json:"sustained"`
	Alerted   bool `json:"alerted"`
}

// Pipeline holds the collaborators of one sampling cycle.
type Pipeline struct {
	source   camera.Source
	model    Inferer
	throttle *notify.Throttle
	dist     *state.Distributor
	state    *state.Container

	decoder pose.DecoderConfig
	fill    color.RGBA
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDecoder overrides the decoding thresholds.
func WithDecoder(cfg pose.DecoderConfig) Option {
	return func(p *Pipeline) { p.decoder = cfg }
}

// WithFill overrides the letterbox padding color.
func WithFill(c color.RGBA) Option {
	return func(p *Pipeline) { p.fill = c }
}

// WithClock injects the time source used for alert timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a pipeline. throttle may be nil to disable alerts.
func New(source camera.Source, model Inferer, throttle *notify.Throttle, dist *state.Distributor, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:   source,
		model:    model,
		throttle: throttle,
		dist:     dist,
		state:    &state.Container{},
		decoder:  pose.DefaultDecoderConfig(),
		fill:     preprocess.DefaultFill,
		now:      time.Now,
		logger:   log.With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Source returns the capture source.
func (p *Pipeline) Source() camera.Source {
	return p.source
}

// State returns the container carried between cycles.
func (p *Pipeline) State() *state.Container {
	return p.state
}

// Analyze runs the frame stages of a cycle: read, letterbox, infer, decode,
// gate and analyze. Every buffer it allocates is released before it returns.
// Inference failures are logged and reported as no detection. Only context
// cancellation is returned as an error.
func (p *Pipeline) Analyze(ctx context.Context) (Result, error) {
	if !p.source.Ready() {
		return Result{Skipped: true}, nil
	}

	scope := inference.NewScope()
	defer scope.Release()

	frame := scope.Track(gocv.NewMat())
	if err := p.source.Read(&frame); err != nil {
		if !errors.Is(err, camera.ErrNoFrame) {
			p.logger.Warn("frame read failed", "error", err)
		}
		return Result{Skipped: true}, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	buf, layout, err := preprocess.Letterbox(frame, p.fill)
	if err != nil {
		return Result{Skipped: true}, nil
	}
	scope.Track(buf)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	raw, err := p.model.Infer(buf)
	if err != nil {
		p.logger.Warn("inference failed, treating as no detection", "error", err)
		raw = nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	det := pose.Decode(raw, p.decoder)
	res := Result{
		Detected:   det != nil,
		Recognized: pose.Recognized(det),
	}

	var kp pose.Keypoints
	if det != nil {
		kp = det.Keypoints.Map(layout.ToSource)
		res.Keypoints = &kp
	}
	res.Analysis = posture.Analyze(kp, float64(layout.SrcH))
	return res, nil
}

// Commit finishes a cycle: sustained check against the previous analysis,
// throttled alert, then the state container and distributor. It must be
// called from one goroutine, in cycle order.
func (p *Pipeline) Commit(ctx context.Context, res Result, focused bool, checks posture.Checks) Result {
	if res.Skipped {
		return res
	}

	res.Sustained = posture.Sustained(p.state.Analysis, res.Analysis, checks)
	if res.Sustained && p.throttle != nil {
		alert := notify.NewAlert(res.Analysis, posture.Reasons(res.Analysis, checks), p.now())
		fired, err := p.throttle.Evaluate(ctx, true, focused, alert)
		if err != nil {
			p.logger.Warn("alert failed", "error", err)
		}
		res.Alerted = fired
	}

	p.state.Commit(res.Recognized, res.Keypoints, res.Analysis)
	p.dist.PublishRecognition(res.Recognized, res.Keypoints)
	p.dist.PublishAnalysis(res.Analysis)
	return res
}

// Cycle runs Analyze then Commit.
func (p *Pipeline) Cycle(ctx context.Context, focused bool, checks posture.Checks) (Result, error) {
	res, err := p.Analyze(ctx)
	if err != nil {
		return res, err
	}
	return p.Commit(ctx, res, focused, checks), nil
}

// Fail records a setup failure as the persistent error state.
func (p *Pipeline) Fail(err error) {
	p.state.SetupError = err
	p.dist.PublishError(err)
}

// Recover clears a previous setup failure.
func (p *Pipeline) Recover() {
	if p.state.SetupError == nil {
		return
	}
	p.state.SetupError = nil
	p.dist.PublishError(nil)
}

// ResetHistory forgets the previous cycles so a restarted session never
// compares against a stale analysis. The setup error is kept.
func (p *Pipeline) ResetHistory() {
	setupErr := p.state.SetupError
	p.state.Reset()
	p.state.SetupError = setupErr
}

// SetThrottle replaces the alert throttle. Call before the runner starts.
func (p *Pipeline) SetThrottle(t *notify.Throttle) {
	p.throttle = t
}
