package inference

import (
	"errors"
	"testing"

	"github.com/teslashibe/go-posture/pkg/pose"
	"github.com/teslashibe/go-posture/pkg/preprocess"
	"gocv.io/x/gocv"
)

func testRows() pose.RawDetections {
	rows := make(pose.RawDetections, 3)
	for i := range rows {
		for f := range rows[i] {
			rows[i][f] = float32(i*100 + f)
		}
	}
	rows[0][pose.FieldObjectness] = 0.1
	rows[1][pose.FieldObjectness] = 0.9
	rows[2][pose.FieldObjectness] = 0.4
	return rows
}

func testBuffer() gocv.Mat {
	buf := gocv.NewMatWithSize(preprocess.Size, preprocess.Size, gocv.MatTypeCV8UC3)
	buf.SetTo(gocv.NewScalar(114, 114, 114, 0))
	return buf
}

func TestInfer_ShapeNormalization(t *testing.T) {
	tests := []struct {
		name          string
		channelsFirst bool
	}{
		{name: "[1,56,N] transposed", channelsFirst: true},
		{name: "[1,N,56] passthrough", channelsFirst: false},
	}

	want := testRows()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mock := &Mock{ForwardFunc: func() gocv.Mat { return NewOutput(want, tc.channelsFirst) }}
			adapter := NewAdapter(mock)
			defer adapter.Close()

			buf := testBuffer()
			defer buf.Close()

			raw, err := adapter.Infer(buf)
			if err != nil {
				t.Fatalf("Infer: %v", err)
			}
			if len(raw) != len(want) {
				t.Fatalf("rows: got %d, want %d", len(raw), len(want))
			}
			for i := range want {
				if raw[i] != want[i] {
					t.Errorf("row %d differs: got %v, want %v", i, raw[i][:6], want[i][:6])
				}
			}

			det := pose.Decode(raw, pose.DefaultDecoderConfig())
			if det == nil || det.Objectness < 0.89 {
				t.Errorf("decode after normalization picked %+v", det)
			}
		})
	}
}

func TestInfer_UnexpectedShape(t *testing.T) {
	mock := &Mock{ForwardFunc: func() gocv.Mat {
		return gocv.NewMatWithSizes([]int{1, 84, 10}, gocv.MatTypeCV32F)
	}}
	adapter := NewAdapter(mock)
	defer adapter.Close()

	buf := testBuffer()
	defer buf.Close()

	before := LiveTensors()
	_, err := adapter.Infer(buf)
	if !errors.Is(err, ErrUnexpectedShape) {
		t.Fatalf("expected ErrUnexpectedShape, got %v", err)
	}
	if LiveTensors() != before {
		t.Errorf("tensors leaked on error path: %d -> %d", before, LiveTensors())
	}
}

func TestInfer_PanicReleases(t *testing.T) {
	mock := &Mock{ForwardFunc: func() gocv.Mat { panic("backend exploded") }}
	adapter := NewAdapter(mock)
	defer adapter.Close()

	buf := testBuffer()
	defer buf.Close()

	before := LiveTensors()
	if _, err := adapter.Infer(buf); err == nil {
		t.Fatal("expected error from panicking model")
	}
	if LiveTensors() != before {
		t.Errorf("tensors leaked on panic path: %d -> %d", before, LiveTensors())
	}
}

func TestInfer_EmptyInput(t *testing.T) {
	adapter := NewAdapter(NewMock(nil))
	defer adapter.Close()

	empty := gocv.NewMat()
	defer empty.Close()

	if _, err := adapter.Infer(empty); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestInfer_AfterClose(t *testing.T) {
	mock := NewMock(testRows())
	adapter := NewAdapter(mock)
	adapter.Close()
	adapter.Close()

	if mock.Closes() != 1 {
		t.Errorf("model closed %d times, want 1", mock.Closes())
	}

	buf := testBuffer()
	defer buf.Close()
	if _, err := adapter.Infer(buf); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestInfer_NoLeakUnderLoad(t *testing.T) {
	adapter := NewAdapter(NewMock(testRows()))
	defer adapter.Close()

	buf := testBuffer()
	defer buf.Close()

	if _, err := adapter.Infer(buf); err != nil {
		t.Fatalf("Infer: %v", err)
	}
	afterOne := LiveTensors()

	for i := 0; i < 1000; i++ {
		if _, err := adapter.Infer(buf); err != nil {
			t.Fatalf("Infer #%d: %v", i, err)
		}
	}

	if got := LiveTensors(); got != afterOne {
		t.Errorf("live tensors after 1001 cycles = %d, after 1 = %d", got, afterOne)
	}
	if afterOne != 0 {
		t.Errorf("tensors outlived their cycle: %d", afterOne)
	}
}

func TestScope_ReleaseTwice(t *testing.T) {
	before := LiveTensors()
	s := NewScope()
	s.Track(gocv.NewMat())
	s.Track(gocv.NewMat())
	if s.Len() != 2 || LiveTensors() != before+2 {
		t.Fatalf("tracking: len=%d live=%d", s.Len(), LiveTensors())
	}
	s.Release()
	s.Release()
	if LiveTensors() != before {
		t.Errorf("live after release = %d, want %d", LiveTensors(), before)
	}
}
