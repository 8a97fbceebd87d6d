// Package posture computes upper-body posture metrics from pose keypoints.
package posture

import (
	"math"

	"github.com/teslashibe/go-posture/pkg/pose"
)

const (
	// AngleLimit is the shoulder-neck lean (degrees) above which posture is flagged.
	AngleLimit = 20.0

	// LowerFaceRatio marks the line below which the face counts as "low" in frame.
	LowerFaceRatio = 0.6

	// MinVisibility is the score a keypoint needs to take part in the angle.
	MinVisibility = 0.3
)

// Analysis is the posture assessment of a single frame.
type Analysis struct {
	ShoulderNeckAngle    *float64 `json:"shoulder_neck_angle"`
	IsAngleGreaterThan20 bool     `json:"is_angle_greater_than_20"`
	FaceInLowerHalf      bool     `json:"face_in_lower_half"`
	IsValid              bool     `json:"is_valid"`
}

// Analyze computes posture metrics for a keypoint set. frameHeight is the
// height of the coordinate space the keypoints are expressed in.
func Analyze(kp pose.Keypoints, frameHeight float64) Analysis {
	a := Analysis{
		FaceInLowerHalf: faceInLowerHalf(&kp, frameHeight),
	}

	angle, ok := shoulderNeckAngle(&kp)
	if !ok {
		return a
	}
	a.ShoulderNeckAngle = &angle
	a.IsAngleGreaterThan20 = angle > AngleLimit
	a.IsValid = true
	return a
}

func faceInLowerHalf(kp *pose.Keypoints, frameHeight float64) bool {
	face := kp.Face()
	if len(face) == 0 {
		return false
	}
	var sum float64
	for _, p := range face {
		sum += p.Y
	}
	return sum/float64(len(face)) > frameHeight*LowerFaceRatio
}

// shoulderNeckAngle returns the angle in degrees between the shoulder-midpoint
// to nose vector and straight up. Image Y grows downward, so up is (0, -1).
func shoulderNeckAngle(kp *pose.Keypoints) (float64, bool) {
	nose := visible(kp, pose.Nose)
	left := visible(kp, pose.LeftShoulder)
	right := visible(kp, pose.RightShoulder)
	if nose == nil || left == nil || right == nil {
		return 0, false
	}

	mx := (left.X + right.X) / 2
	my := (left.Y + right.Y) / 2
	vx := nose.X - mx
	vy := nose.Y - my

	norm := math.Hypot(vx, vy)
	if norm == 0 {
		return 0, false
	}

	cos := -vy / norm
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi, true
}

func visible(kp *pose.Keypoints, name pose.Name) *pose.Keypoint {
	p := kp.Get(name)
	if p == nil || p.Score < MinVisibility {
		return nil
	}
	return p
}
