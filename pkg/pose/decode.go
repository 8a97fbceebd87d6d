package pose

// Candidate layout: 5 header values followed by (x, y, visibility) per keypoint.
const (
	FieldCX = iota
	FieldCY
	FieldW
	FieldH
	FieldObjectness
	HeaderFields

	FieldCount = HeaderFields + int(NumKeypoints)*3 // 56
)

// Default thresholds.
const (
	DefaultBoxThreshold      = 0.25
	DefaultKeypointThreshold = 0.3
)

// Candidate is one row of model output in the model's input pixel space.
type Candidate [FieldCount]float32

// Objectness returns the candidate's box confidence.
func (c *Candidate) Objectness() float32 {
	return c[FieldObjectness]
}

// Keypoint returns the raw (x, y, visibility) triple for a landmark.
func (c *Candidate) Keypoint(n Name) (x, y, v float32) {
	i := HeaderFields + int(n)*3
	return c[i], c[i+1], c[i+2]
}

// RawDetections is the normalized [N, 56] model output.
type RawDetections []Candidate

// Box is a center-format bounding box.
type Box struct {
	CX float64 `json:"cx"`
	CY float64 `json:"cy"`
	W  float64 `json:"w"`
	H  float64 `json:"h"`
}

// Detection is the single best subject found in a frame.
type Detection struct {
	Box        Box       `json:"box"`
	Objectness float64   `json:"objectness"`
	Keypoints  Keypoints `json:"keypoints"`
}

// DecoderConfig holds decoding thresholds.
type DecoderConfig struct {
	BoxThreshold      float32 // candidates at or below are ignored
	KeypointThreshold float32 // keypoints at or below are absent
}

// DefaultDecoderConfig returns the production thresholds.
func DefaultDecoderConfig() DecoderConfig {
	return DecoderConfig{
		BoxThreshold:      DefaultBoxThreshold,
		KeypointThreshold: DefaultKeypointThreshold,
	}
}

// Decode keeps the candidate with the highest objectness above the box threshold
// and extracts its keypoints. Returns nil when no candidate qualifies.
//
// When two candidates share the maximum objectness exactly, the first one scanned
// is kept. Callers must not depend on which one that is.
func Decode(raw RawDetections, cfg DecoderConfig) *Detection {
	best := -1
	var bestScore float32
	for i := range raw {
		score := raw[i].Objectness()
		if score <= cfg.BoxThreshold {
			continue
		}
		if best < 0 || score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best < 0 {
		return nil
	}

	c := &raw[best]
	det := &Detection{
		Box: Box{
			CX: float64(c[FieldCX]),
			CY: float64(c[FieldCY]),
			W:  float64(c[FieldW]),
			H:  float64(c[FieldH]),
		},
		Objectness: float64(bestScore),
	}
	for n := Name(0); n < NumKeypoints; n++ {
		x, y, v := c.Keypoint(n)
		if v <= cfg.KeypointThreshold {
			continue
		}
		det.Keypoints[n] = &Keypoint{
			X:     float64(x),
			Y:     float64(y),
			Score: float64(v),
			Name:  n,
		}
	}
	return det
}

// Recognized reports whether the subject is framed well enough for posture
// analysis: a detection exists, at least one face landmark is visible and both
// shoulders are visible. A bounding box alone is not enough.
func Recognized(d *Detection) bool {
	if d == nil {
		return false
	}
	kp := &d.Keypoints
	if !kp.Present(LeftShoulder) || !kp.Present(RightShoulder) {
		return false
	}
	for _, n := range FaceNames {
		if kp.Present(n) {
			return true
		}
	}
	return false
}
