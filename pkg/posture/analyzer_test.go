package posture

import (
	"math"
	"testing"

	"github.com/teslashibe/go-posture/pkg/pose"
)

func kp(name pose.Name, x, y, score float64) *pose.Keypoint {
	return &pose.Keypoint{X: x, Y: y, Score: score, Name: name}
}

func upright(noseX float64) pose.Keypoints {
	var k pose.Keypoints
	k[pose.Nose] = kp(pose.Nose, noseX, 0, 0.9)
	k[pose.LeftShoulder] = kp(pose.LeftShoulder, 50, 100, 0.9)
	k[pose.RightShoulder] = kp(pose.RightShoulder, 150, 100, 0.9)
	return k
}

func TestAnalyze_AngleBoundary(t *testing.T) {
	tests := []struct {
		name        string
		noseX       float64
		expectAngle float64
		expectOver  bool
	}{
		{name: "straight up", noseX: 100, expectAngle: 0, expectOver: false},
		{name: "45 degree lean", noseX: 200, expectAngle: 45, expectOver: true},
		{name: "lean left", noseX: 0, expectAngle: 45, expectOver: true},
		{name: "small lean", noseX: 110, expectAngle: math.Atan(0.1) * 180 / math.Pi, expectOver: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := Analyze(upright(tc.noseX), 640)
			if !a.IsValid {
				t.Fatal("expected valid analysis")
			}
			if a.ShoulderNeckAngle == nil {
				t.Fatal("expected angle")
			}
			if diff := *a.ShoulderNeckAngle - tc.expectAngle; math.Abs(diff) > 1e-9 {
				t.Errorf("angle: got %.6f, want %.6f", *a.ShoulderNeckAngle, tc.expectAngle)
			}
			if a.IsAngleGreaterThan20 != tc.expectOver {
				t.Errorf("IsAngleGreaterThan20: got %v, want %v", a.IsAngleGreaterThan20, tc.expectOver)
			}
		})
	}
}

func TestAnalyze_UpsideDownClamped(t *testing.T) {
	k := upright(100)
	k[pose.Nose] = kp(pose.Nose, 100, 300, 0.9)

	a := Analyze(k, 640)
	if !a.IsValid || a.ShoulderNeckAngle == nil {
		t.Fatal("expected valid analysis")
	}
	if math.Abs(*a.ShoulderNeckAngle-180) > 1e-9 {
		t.Errorf("angle: got %.4f, want 180", *a.ShoulderNeckAngle)
	}
}

func TestAnalyze_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(k *pose.Keypoints)
	}{
		{name: "missing nose", mutate: func(k *pose.Keypoints) { k[pose.Nose] = nil }},
		{name: "missing left shoulder", mutate: func(k *pose.Keypoints) { k[pose.LeftShoulder] = nil }},
		{name: "missing right shoulder", mutate: func(k *pose.Keypoints) { k[pose.RightShoulder] = nil }},
		{name: "weak shoulder", mutate: func(k *pose.Keypoints) { k[pose.RightShoulder].Score = 0.29 }},
		{name: "nose on midpoint", mutate: func(k *pose.Keypoints) { k[pose.Nose].Y = 100 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			k := upright(100)
			tc.mutate(&k)
			a := Analyze(k, 640)
			if a.IsValid {
				t.Error("expected invalid analysis")
			}
			if a.ShoulderNeckAngle != nil {
				t.Errorf("expected nil angle, got %v", *a.ShoulderNeckAngle)
			}
			if a.IsAngleGreaterThan20 {
				t.Error("invalid analysis must not report angle exceeded")
			}
		})
	}
}

func TestAnalyze_FaceInLowerHalf(t *testing.T) {
	tests := []struct {
		name   string
		face   map[pose.Name]float64 // name -> Y
		height float64
		want   bool
	}{
		{name: "no face", face: nil, height: 100, want: false},
		{name: "high face", face: map[pose.Name]float64{pose.Nose: 20, pose.LeftEye: 18}, height: 100, want: false},
		{name: "low face", face: map[pose.Name]float64{pose.Nose: 70, pose.LeftEar: 64}, height: 100, want: true},
		{name: "exactly on line", face: map[pose.Name]float64{pose.Nose: 60}, height: 100, want: false},
		{name: "average decides", face: map[pose.Name]float64{pose.Nose: 90, pose.RightEye: 40}, height: 100, want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var k pose.Keypoints
			for n, y := range tc.face {
				k[n] = kp(n, 10, y, 0.9)
			}
			a := Analyze(k, tc.height)
			if a.FaceInLowerHalf != tc.want {
				t.Errorf("FaceInLowerHalf: got %v, want %v", a.FaceInLowerHalf, tc.want)
			}
		})
	}
}

func TestSustained(t *testing.T) {
	bad := Analysis{IsAngleGreaterThan20: true, IsValid: true}
	low := Analysis{FaceInLowerHalf: true}
	good := Analysis{IsValid: true}
	all := Checks{NeckAngle: true, FacePosition: true}

	tests := []struct {
		name   string
		prev   *Analysis
		cur    Analysis
		checks Checks
		want   bool
	}{
		{name: "first cycle", prev: nil, cur: bad, checks: all, want: false},
		{name: "single bad frame", prev: &good, cur: bad, checks: all, want: false},
		{name: "recovered", prev: &bad, cur: good, checks: all, want: false},
		{name: "two bad frames", prev: &bad, cur: bad, checks: all, want: true},
		{name: "mixed reasons", prev: &bad, cur: low, checks: all, want: true},
		{name: "angle check disabled", prev: &bad, cur: bad, checks: Checks{FacePosition: true}, want: false},
		{name: "face check disabled", prev: &low, cur: low, checks: Checks{NeckAngle: true}, want: false},
		{name: "no checks", prev: &bad, cur: bad, checks: Checks{}, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Sustained(tc.prev, tc.cur, tc.checks); got != tc.want {
				t.Errorf("Sustained: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestReasons(t *testing.T) {
	a := Analysis{IsAngleGreaterThan20: true, FaceInLowerHalf: true}
	got := Reasons(a, Checks{NeckAngle: true, FacePosition: true})
	if len(got) != 2 || got[0] != ReasonNeckAngle || got[1] != ReasonFacePosition {
		t.Errorf("Reasons: got %v", got)
	}
}
