package preprocess

import (
	"errors"
	"math"
	"testing"

	"gocv.io/x/gocv"
)

func TestPlan_AspectPreserved(t *testing.T) {
	dims := [][2]int{
		{640, 480}, {1920, 1080}, {480, 640}, {1080, 1920},
		{640, 640}, {1, 1000}, {1000, 1}, {333, 777}, {4608, 2592},
	}

	for _, d := range dims {
		w, h := d[0], d[1]
		l, ok := Plan(w, h)
		if !ok {
			t.Fatalf("Plan(%d,%d): not ok", w, h)
		}

		if l.ScaledW > Size+1e-9 || l.ScaledH > Size+1e-9 {
			t.Errorf("Plan(%d,%d): scaled %.2fx%.2f exceeds %d", w, h, l.ScaledW, l.ScaledH, Size)
		}
		if math.Max(l.ScaledW, l.ScaledH) != Size {
			t.Errorf("Plan(%d,%d): longest side should be %d", w, h, Size)
		}

		want := float64(w) / float64(h)
		got := l.ScaledW / l.ScaledH
		if math.Abs(got-want)/want > 1e-9 {
			t.Errorf("Plan(%d,%d): aspect %.6f, want %.6f", w, h, got, want)
		}

		if math.Abs(l.OffsetX*2+l.ScaledW-Size) > 1e-9 || math.Abs(l.OffsetY*2+l.ScaledH-Size) > 1e-9 {
			t.Errorf("Plan(%d,%d): content not centered: %+v", w, h, l)
		}

		r := l.Rect()
		if r.Min.X < 0 || r.Min.Y < 0 || r.Max.X > Size || r.Max.Y > Size || r.Empty() {
			t.Errorf("Plan(%d,%d): rect %v out of bounds", w, h, r)
		}
	}
}

func TestPlan_InvalidDimensions(t *testing.T) {
	for _, d := range [][2]int{{0, 480}, {640, 0}, {-1, 10}, {0, 0}} {
		if _, ok := Plan(d[0], d[1]); ok {
			t.Errorf("Plan(%d,%d): expected not ok", d[0], d[1])
		}
	}
}

func TestLayout_ToSource(t *testing.T) {
	l, _ := Plan(1280, 720)

	// Buffer center maps to frame center.
	x, y := l.ToSource(Size/2, Size/2)
	if math.Abs(x-640) > 1e-9 || math.Abs(y-360) > 1e-9 {
		t.Errorf("center: got (%.3f, %.3f), want (640, 360)", x, y)
	}

	// Top-left of content maps to frame origin.
	x, y = l.ToSource(l.OffsetX, l.OffsetY)
	if math.Abs(x) > 1e-9 || math.Abs(y) > 1e-9 {
		t.Errorf("origin: got (%.3f, %.3f)", x, y)
	}
}

func TestLetterbox_OutputSize(t *testing.T) {
	dims := [][2]int{{640, 480}, {320, 640}, {1280, 720}, {17, 5}}

	for _, d := range dims {
		src := gocv.NewMatWithSize(d[1], d[0], gocv.MatTypeCV8UC3)
		src.SetTo(gocv.NewScalar(255, 255, 255, 0))

		out, layout, err := Letterbox(src, DefaultFill)
		src.Close()
		if err != nil {
			t.Fatalf("Letterbox(%dx%d): %v", d[0], d[1], err)
		}

		if out.Cols() != Size || out.Rows() != Size {
			t.Errorf("Letterbox(%dx%d): got %dx%d", d[0], d[1], out.Cols(), out.Rows())
		}
		if layout.SrcW != d[0] || layout.SrcH != d[1] {
			t.Errorf("layout source: got %dx%d", layout.SrcW, layout.SrcH)
		}

		// Corner pixel is padding unless the frame is square.
		if d[0] != d[1] {
			px := out.GetVecbAt(0, 0)
			if px[0] != DefaultFill.B || px[1] != DefaultFill.G || px[2] != DefaultFill.R {
				t.Errorf("Letterbox(%dx%d): corner %v is not fill color", d[0], d[1], px)
			}
		}
		center := out.GetVecbAt(Size/2, Size/2)
		if center[0] != 255 {
			t.Errorf("Letterbox(%dx%d): center %v is not frame content", d[0], d[1], center)
		}
		out.Close()
	}
}

func TestLetterbox_NotReady(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()

	_, _, err := Letterbox(empty, DefaultFill)
	if !errors.Is(err, ErrFrameNotReady) {
		t.Errorf("expected ErrFrameNotReady, got %v", err)
	}
}
