package posture

// Checks selects which posture conditions are allowed to raise a correction.
type Checks struct {
	NeckAngle    bool `json:"neck_angle"`
	FacePosition bool `json:"face_position"`
}

// Reasons for a correction, used in alert payloads.
const (
	ReasonNeckAngle    = "neck_angle"
	ReasonFacePosition = "face_position"
)

// Reasons lists the enabled conditions that hold for a.
func Reasons(a Analysis, checks Checks) []string {
	var reasons []string
	if checks.NeckAngle && a.IsAngleGreaterThan20 {
		reasons = append(reasons, ReasonNeckAngle)
	}
	if checks.FacePosition && a.FaceInLowerHalf {
		reasons = append(reasons, ReasonFacePosition)
	}
	return reasons
}

// NeedsCorrection reports whether a single analysis is correction-worthy.
func NeedsCorrection(a Analysis, checks Checks) bool {
	return len(Reasons(a, checks)) > 0
}

// Sustained reports whether both the previous and the current analysis need
// correction. A nil prev (first cycle, or history reset) never qualifies.
func Sustained(prev *Analysis, cur Analysis, checks Checks) bool {
	if prev == nil {
		return false
	}
	return NeedsCorrection(*prev, checks) && NeedsCorrection(cur, checks)
}
