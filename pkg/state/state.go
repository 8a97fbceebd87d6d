// Package state holds the pipeline's cross-cycle state and distributes it to
// consumers.
package state

import (
	"time"

	"github.com/teslashibe/go-posture/pkg/pose"
	"github.com/teslashibe/go-posture/pkg/posture"
)

// Kind identifies an Update.
type Kind string

const (
	KindRecognition Kind = "recognition"
	KindAnalysis    Kind = "analysis"
	KindError       Kind = "error"
)

// Recognition is emitted on every completed cycle.
type Recognition struct {
	Recognized bool            `json:"recognized"`
	Keypoints  *pose.Keypoints `json:"keypoints"`
}

// Update is one pushed state change.
type Update struct {
	Kind        Kind              `json:"kind"`
	Recognition *Recognition      `json:"recognition,omitempty"`
	Analysis    *posture.Analysis `json:"analysis,omitempty"`
	Error       string            `json:"error,omitempty"`
	At          time.Time         `json:"at"`
}

// Snapshot is the latest known state.
type Snapshot struct {
	Recognized bool              `json:"recognized"`
	Keypoints  *pose.Keypoints   `json:"keypoints"`
	Analysis   *posture.Analysis `json:"analysis"`
	Error      string            `json:"error,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Container is the state carried from one cycle to the next. It is owned by
// the pipeline and written only at the end of a completed cycle.
type Container struct {
	Recognized bool
	Keypoints  *pose.Keypoints
	Analysis   *posture.Analysis
	Previous   *posture.Analysis
	SetupError error
}

// Commit stores a completed cycle's result, shifting the current analysis
// one cycle back.
func (c *Container) Commit(recognized bool, kp *pose.Keypoints, a posture.Analysis) {
	c.Recognized = recognized
	c.Keypoints = kp
	c.Previous = c.Analysis
	c.Analysis = &a
}

// Reset forgets everything, so a restarted pipeline never compares against a
// stale analysis.
func (c *Container) Reset() {
	*c = Container{}
}
