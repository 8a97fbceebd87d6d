// Package pose decodes single-person pose model output into named keypoints.
package pose

import (
	"encoding/json"
	"fmt"
)

// Name identifies one of the 17 COCO body landmarks, in model output order.
type Name int

const (
	Nose Name = iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	NumKeypoints
)

var names = [NumKeypoints]string{
	"nose", "left_eye", "right_eye", "left_ear", "right_ear",
	"left_shoulder", "right_shoulder", "left_elbow", "right_elbow",
	"left_wrist", "right_wrist", "left_hip", "right_hip",
	"left_knee", "right_knee", "left_ankle", "right_ankle",
}

// FaceNames are the landmarks that count as "face" for framing and position checks.
var FaceNames = []Name{Nose, LeftEye, RightEye, LeftEar, RightEar}

// String returns the snake_case landmark name.
func (n Name) String() string {
	if n < 0 || n >= NumKeypoints {
		return fmt.Sprintf("keypoint(%d)", int(n))
	}
	return names[n]
}

// MarshalJSON encodes the name as its string form.
func (n Name) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

// UnmarshalJSON accepts the string form produced by MarshalJSON.
func (n *Name) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, name := range names {
		if name == s {
			*n = Name(i)
			return nil
		}
	}
	return fmt.Errorf("pose: unknown keypoint %q", s)
}

// Keypoint is a visible landmark position with its visibility score (0-1).
type Keypoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
	Name  Name    `json:"name"`
}

// Keypoints holds one slot per landmark. A nil slot means the landmark was not
// visible enough to be trusted; it is never replaced by a zero position.
type Keypoints [NumKeypoints]*Keypoint

// Get returns the keypoint for name, or nil when absent.
func (k *Keypoints) Get(name Name) *Keypoint {
	if name < 0 || name >= NumKeypoints {
		return nil
	}
	return k[name]
}

// Present reports whether the landmark was detected.
func (k *Keypoints) Present(name Name) bool {
	return k.Get(name) != nil
}

// Face returns the present face landmarks.
func (k *Keypoints) Face() []Keypoint {
	var face []Keypoint
	for _, n := range FaceNames {
		if kp := k.Get(n); kp != nil {
			face = append(face, *kp)
		}
	}
	return face
}

// Count returns the number of present landmarks.
func (k *Keypoints) Count() int {
	n := 0
	for _, kp := range k {
		if kp != nil {
			n++
		}
	}
	return n
}

// Map returns a copy with every present keypoint's position passed through f.
// Used to move model-space coordinates back into source frame pixels.
func (k *Keypoints) Map(f func(x, y float64) (float64, float64)) Keypoints {
	var out Keypoints
	for i, kp := range k {
		if kp == nil {
			continue
		}
		moved := *kp
		moved.X, moved.Y = f(kp.X, kp.Y)
		out[i] = &moved
	}
	return out
}
