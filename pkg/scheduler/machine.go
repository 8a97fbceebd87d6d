package scheduler

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-posture/pkg/settings"
)

// EventKind identifies a scheduler input.
type EventKind int

const (
	EventToggle EventKind = iota
	EventRoute
	EventFocus
	EventInterval
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventToggle:
		return "toggle"
	case EventRoute:
		return "route"
	case EventFocus:
		return "focus"
	case EventInterval:
		return "interval"
	default:
		return "unknown"
	}
}

// Event is one discrete input to the Machine.
type Event struct {
	Kind     EventKind
	Enabled  bool
	Route    string
	Focused  bool
	Interval time.Duration
}

// Toggle enables or disables sampling.
func Toggle(enabled bool) Event { return Event{Kind: EventToggle, Enabled: enabled} }

// RouteChanged reports a UI navigation.
func RouteChanged(route string) Event { return Event{Kind: EventRoute, Route: route} }

// FocusChanged reports window focus or blur.
func FocusChanged(focused bool) Event { return Event{Kind: EventFocus, Focused: focused} }

// IntervalSelected reports a user interval choice.
func IntervalSelected(d time.Duration) Event { return Event{Kind: EventInterval, Interval: d} }

// Decision is what the runner must do after an event.
type Decision struct {
	Run      bool
	Interval time.Duration

	// Changed is set when Run or Interval differ from the previous decision;
	// the runner then cancels its timer before arming a new one.
	Changed bool

	// StartCapture and StopCapture mark enable/disable edges.
	StartCapture bool
	StopCapture  bool
}

// Machine is the scheduler state machine. It is not safe for concurrent use;
// the runner owns it from a single goroutine.
type Machine struct {
	inputs     Inputs
	stretching string
	route      string
	last       Decision
}

// NewMachine creates a machine. stretching is the route that selects the
// fast interval; configured is the initial user interval.
func NewMachine(stretching string, configured time.Duration) *Machine {
	return &Machine{
		stretching: stretching,
		inputs:     Inputs{Configured: configured},
	}
}

// Inputs returns the current input state.
func (m *Machine) Inputs() Inputs { return m.inputs }

// Route returns the last reported route.
func (m *Machine) Route() string { return m.route }

// Current returns the last decision.
func (m *Machine) Current() Decision { return m.last }

// Apply feeds one event and returns the recomputed decision.
func (m *Machine) Apply(ev Event) (Decision, error) {
	switch ev.Kind {
	case EventToggle:
		m.inputs.Enabled = ev.Enabled
	case EventRoute:
		m.route = ev.Route
		m.inputs.StretchingRoute = IsStretchingRoute(ev.Route, m.stretching)
	case EventFocus:
		m.inputs.Focused = ev.Focused
	case EventInterval:
		if !settings.IsAllowedInterval(int(ev.Interval / time.Millisecond)) {
			return m.last, fmt.Errorf("%w: %v", ErrInvalidInterval, ev.Interval)
		}
		m.inputs.Configured = ev.Interval
	default:
		return m.last, fmt.Errorf("scheduler: unknown event %d", ev.Kind)
	}

	interval, run := Interval(m.inputs)
	d := Decision{
		Run:          run,
		Interval:     interval,
		Changed:      run != m.last.Run || interval != m.last.Interval,
		StartCapture: run && !m.last.Run,
		StopCapture:  !run && m.last.Run,
	}
	m.last = d
	return d, nil
}
