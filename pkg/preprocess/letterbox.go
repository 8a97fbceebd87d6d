// Package preprocess turns camera frames into the square model input.
package preprocess

import (
	"errors"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

// Size is the model input edge length in pixels.
const Size = 640

// DefaultFill is the letterbox padding color (the YOLO training pad gray).
var DefaultFill = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// ErrFrameNotReady is returned for frames with no pixels yet. The caller should
// skip the cycle instead of feeding a degenerate buffer to the model.
var ErrFrameNotReady = errors.New("preprocess: frame not ready")

// Layout describes where the source frame sits inside the square buffer.
type Layout struct {
	SrcW, SrcH       int
	ScaledW, ScaledH float64
	OffsetX, OffsetY float64
}

// Plan computes the aspect-preserving placement of a w×h frame in a Size×Size
// buffer. ok is false when either dimension is not positive.
func Plan(w, h int) (l Layout, ok bool) {
	if w <= 0 || h <= 0 {
		return Layout{}, false
	}
	aspect := float64(w) / float64(h)

	l = Layout{SrcW: w, SrcH: h}
	if aspect > 1 {
		l.ScaledW = Size
		l.ScaledH = Size / aspect
	} else {
		l.ScaledH = Size
		l.ScaledW = Size * aspect
	}
	l.OffsetX = (Size - l.ScaledW) / 2
	l.OffsetY = (Size - l.ScaledH) / 2
	return l, true
}

// Rect returns the pixel rectangle holding the scaled frame.
func (l Layout) Rect() image.Rectangle {
	w := max(1, int(math.Round(l.ScaledW)))
	h := max(1, int(math.Round(l.ScaledH)))
	x := int(math.Round(l.OffsetX))
	y := int(math.Round(l.OffsetY))
	// Rounding both offset and size can overshoot by one pixel.
	w = min(w, Size-x)
	h = min(h, Size-y)
	return image.Rect(x, y, x+w, y+h)
}

// ToSource maps a point in buffer space back to source frame pixels.
func (l Layout) ToSource(x, y float64) (float64, float64) {
	if l.ScaledW == 0 || l.ScaledH == 0 {
		return x, y
	}
	sx := (x - l.OffsetX) * float64(l.SrcW) / l.ScaledW
	sy := (y - l.OffsetY) * float64(l.SrcH) / l.ScaledH
	return sx, sy
}

// Letterbox resizes src into a new Size×Size Mat, centered and padded with fill.
// On success the caller owns the returned Mat and must Close it.
func Letterbox(src gocv.Mat, fill color.RGBA) (gocv.Mat, Layout, error) {
	if src.Empty() {
		return gocv.Mat{}, Layout{}, ErrFrameNotReady
	}
	layout, ok := Plan(src.Cols(), src.Rows())
	if !ok {
		return gocv.Mat{}, Layout{}, ErrFrameNotReady
	}
	rect := layout.Rect()

	dst := gocv.NewMatWithSize(Size, Size, src.Type())
	dst.SetTo(gocv.NewScalar(float64(fill.B), float64(fill.G), float64(fill.R), 0))

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(src, &resized, rect.Size(), 0, 0, gocv.InterpolationLinear)

	roi := dst.Region(rect)
	defer roi.Close()
	resized.CopyTo(&roi)

	return dst, layout, nil
}
