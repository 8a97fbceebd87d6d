package inference

import (
	"sync"

	"github.com/teslashibe/go-posture/pkg/pose"
	"gocv.io/x/gocv"
)

// Mock implements Model for testing.
type Mock struct {
	// ForwardFunc is called when Forward is invoked. The default returns an
	// empty [1,56,0]-equivalent output.
	ForwardFunc func() gocv.Mat

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu       sync.Mutex
	forwards int
	inputs   int
	closed   int
}

// NewMock creates a mock that answers every forward pass with rows.
func NewMock(rows pose.RawDetections) *Mock {
	return &Mock{
		ForwardFunc: func() gocv.Mat {
			return NewOutput(rows, true)
		},
	}
}

// SetInput records the call.
func (m *Mock) SetInput(blob gocv.Mat, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs++
}

// Forward calls ForwardFunc and records the call.
func (m *Mock) Forward(outputName string) gocv.Mat {
	m.mu.Lock()
	m.forwards++
	fn := m.ForwardFunc
	m.mu.Unlock()

	if fn == nil {
		return gocv.NewMat()
	}
	return fn()
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed++
	fn := m.CloseFunc
	m.mu.Unlock()

	if fn != nil {
		return fn()
	}
	return nil
}

// Forwards returns the number of forward passes.
func (m *Mock) Forwards() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forwards
}

// Closes returns the number of Close calls.
func (m *Mock) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// NewOutput builds a float32 model output from rows. With channelsFirst the
// layout is [1,56,N] (the native YOLOv8 export), otherwise [1,N,56].
func NewOutput(rows pose.RawDetections, channelsFirst bool) gocv.Mat {
	n := len(rows)
	sizes := []int{1, n, pose.FieldCount}
	if channelsFirst {
		sizes = []int{1, pose.FieldCount, n}
	}

	out := gocv.NewMatWithSizes(sizes, gocv.MatTypeCV32F)
	if n == 0 {
		return out
	}
	data, err := out.DataPtrFloat32()
	if err != nil {
		return out
	}
	for i, row := range rows {
		for f, v := range row {
			if channelsFirst {
				data[f*n+i] = v
			} else {
				data[i*pose.FieldCount+f] = v
			}
		}
	}
	return out
}
