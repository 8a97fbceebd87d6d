package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-posture/internal/log"
	"github.com/teslashibe/go-posture/pkg/posture"
	"github.com/teslashibe/go-posture/pkg/scheduler"
)

// DefaultOpenTimeout bounds capture source acquisition.
const DefaultOpenTimeout = 15 * time.Second

// RunnerStats counts what the runner did.
type RunnerStats struct {
	Cycles    uint64 `json:"cycles"`    // committed
	Skipped   uint64 `json:"skipped"`   // ticks dropped while a cycle was in flight
	Discarded uint64 `json:"discarded"` // results from a schedule that was canceled
}

type cycleResult struct {
	epoch uint64
	res   Result
	err   error
}

// Runner drives the pipeline from the scheduler. One goroutine (Run) owns the
// scheduler machine, the timer and the pipeline's state; each cycle's frame
// stages run in their own goroutine and never overlap.
type Runner struct {
	pipeline *Pipeline
	machine  *scheduler.Machine
	checks   func() posture.Checks
	events   chan scheduler.Event

	// OnSetupError is called, from its own goroutine, when the capture
	// source cannot be acquired and sampling was turned off.
	OnSetupError func(err error)

	// OnCycle is called from the run loop after every committed cycle.
	OnCycle func(Result)

	openTimeout time.Duration
	logger      *slog.Logger

	cycles    atomic.Uint64
	skipped   atomic.Uint64
	discarded atomic.Uint64
	running   atomic.Bool
}

// NewRunner creates a runner. checks is read at the end of every cycle so
// settings changes apply immediately.
func NewRunner(p *Pipeline, m *scheduler.Machine, checks func() posture.Checks) *Runner {
	return &Runner{
		pipeline:    p,
		machine:     m,
		checks:      checks,
		events:      make(chan scheduler.Event, 64),
		openTimeout: DefaultOpenTimeout,
		logger:      log.With("component", "runner"),
	}
}

// Send queues a scheduler event. It blocks only while the queue is full.
func (r *Runner) Send(ev scheduler.Event) {
	r.events <- ev
}

// Stats returns the runner counters.
func (r *Runner) Stats() RunnerStats {
	return RunnerStats{
		Cycles:    r.cycles.Load(),
		Skipped:   r.skipped.Load(),
		Discarded: r.discarded.Load(),
	}
}

// Running reports whether Run is active.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Run processes events and timer ticks until ctx is done. On return the
// timer is stopped, any in-flight cycle has finished its cleanup and the
// capture source is closed.
func (r *Runner) Run(ctx context.Context) {
	r.running.Store(true)
	defer r.running.Store(false)

	var (
		timer    *time.Timer
		tick     <-chan time.Time
		epoch    uint64
		inflight bool
		open     bool
		results  = make(chan cycleResult, 1)
	)

	// Cycles get their own context so teardown cancels them without waiting
	// on the caller's.
	cycleCtx, cancelCycles := context.WithCancel(context.Background())
	defer cancelCycles()

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
		timer, tick = nil, nil
	}
	arm := func(d time.Duration) {
		stopTimer()
		timer = time.NewTimer(d)
		tick = timer.C
	}
	closeSource := func() {
		if err := r.pipeline.Source().Close(); err != nil {
			r.logger.Warn("capture release failed", "error", err)
		}
		open = false
	}

	defer func() {
		stopTimer()
		cancelCycles()
		if inflight {
			<-results
		}
		if open {
			closeSource()
		}
	}()

	// stop cancels the schedule. The capture source is released now, or as
	// soon as the in-flight cycle returns.
	stop := func() {
		stopTimer()
		epoch++
		r.pipeline.ResetHistory()
		if open && !inflight {
			closeSource()
		}
	}

	start := func() bool {
		if !open {
			openCtx, cancel := context.WithTimeout(ctx, r.openTimeout)
			err := r.pipeline.Source().Open(openCtx)
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					return false
				}
				setupErr := &SetupError{Stage: "camera", Err: err}
				r.logger.Error("capture source unavailable", "error", err)
				r.pipeline.Fail(setupErr)
				if r.OnSetupError != nil {
					go r.OnSetupError(setupErr)
				}
				return false
			}
			open = true
		}
		r.pipeline.Recover()
		r.pipeline.ResetHistory()
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-r.events:
			d, err := r.machine.Apply(ev)
			if err != nil {
				r.logger.Warn("scheduler event rejected", "event", ev.Kind, "error", err)
				continue
			}
			r.logger.Debug("scheduler event", "event", ev.Kind, "run", d.Run, "interval", d.Interval)

			switch {
			case d.StartCapture:
				if !start() {
					// Back to disabled; the user must re-enable.
					r.machine.Apply(scheduler.Toggle(false))
					continue
				}
				r.logger.Info("sampling started", "interval", d.Interval)
				arm(0)
			case d.StopCapture:
				stop()
				r.logger.Info("sampling stopped")
			case d.Changed && d.Run:
				// Interval changed while running: replace the schedule.
				r.logger.Info("sampling interval changed", "interval", d.Interval)
				arm(d.Interval)
			}

		case <-tick:
			current := r.machine.Current()
			if !current.Run {
				stopTimer()
				continue
			}
			arm(current.Interval)
			if inflight {
				r.skipped.Add(1)
				r.logger.Debug("cycle still running, tick skipped")
				continue
			}
			inflight = true
			go func(epoch uint64) {
				res, err := r.pipeline.Analyze(cycleCtx)
				results <- cycleResult{epoch: epoch, res: res, err: err}
			}(epoch)

		case cr := <-results:
			inflight = false
			if cr.epoch != epoch || !r.machine.Current().Run {
				r.discarded.Add(1)
				if open && !r.machine.Current().Run {
					closeSource()
				}
				continue
			}
			if cr.err != nil {
				continue
			}
			res := r.pipeline.Commit(ctx, cr.res, r.machine.Inputs().Focused, r.checks())
			if res.Skipped {
				continue
			}
			r.cycles.Add(1)
			if r.OnCycle != nil {
				r.OnCycle(res)
			}
		}
	}
}
