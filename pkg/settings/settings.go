// Package settings holds the user-facing posture monitoring options.
// The UI layer may change them at any time; every change is validated and
// handed to the pipeline through the manager's change callback.
package settings

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-posture/pkg/posture"
)

// Sampling intervals the user may pick, in milliseconds.
const (
	Interval10s = 10000
	Interval1m  = 60000
	Interval3m  = 180000
	Interval5m  = 300000
)

// AllowedIntervals lists the selectable sampling intervals in milliseconds.
var AllowedIntervals = []int{Interval10s, Interval1m, Interval3m, Interval5m}

// Settings is the runtime configuration surface.
type Settings struct {
	Enabled                  bool `json:"enabled"`
	SampleIntervalMs         int  `json:"sample_interval_ms"`
	NeckAngleCheckEnabled    bool `json:"neck_angle_check_enabled"`
	FacePositionCheckEnabled bool `json:"face_position_check_enabled"`
}

// Default returns the initial settings: sampling off, 10 s interval, both
// posture checks on.
func Default() Settings {
	return Settings{
		Enabled:                  false,
		SampleIntervalMs:         Interval10s,
		NeckAngleCheckEnabled:    true,
		FacePositionCheckEnabled: true,
	}
}

// Interval returns the configured sampling interval.
func (s Settings) Interval() time.Duration {
	return time.Duration(s.SampleIntervalMs) * time.Millisecond
}

// Checks returns the posture checks allowed to raise a correction.
func (s Settings) Checks() posture.Checks {
	return posture.Checks{
		NeckAngle:    s.NeckAngleCheckEnabled,
		FacePosition: s.FacePositionCheckEnabled,
	}
}

// IsAllowedInterval reports whether ms is one of AllowedIntervals.
func IsAllowedInterval(ms int) bool {
	for _, v := range AllowedIntervals {
		if v == ms {
			return true
		}
	}
	return false
}

// Validate checks the settings.
// Returns a list of validation errors, or nil if valid.
func (s *Settings) Validate() []string {
	var errors []string

	if !IsAllowedInterval(s.SampleIntervalMs) {
		errors = append(errors, fmt.Sprintf("sample_interval_ms must be one of %v", AllowedIntervals))
	}

	return errors
}
