package inference

import (
	"fmt"
	"image"
	"sync"

	"github.com/teslashibe/go-posture/pkg/pose"
	"gocv.io/x/gocv"
)

// Adapter runs the pose model on preprocessed buffers.
type Adapter struct {
	model  Model
	config *Config
	mu     sync.Mutex
	closed bool
}

// NewAdapter wraps a loaded model.
func NewAdapter(model Model, opts ...Option) *Adapter {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	return &Adapter{model: model, config: cfg}
}

// Infer runs one forward pass over a Size×Size BGR buffer and returns the
// candidates as [N,56] rows copied into Go memory. Every tensor allocated here
// is released before returning, including on error and panic.
func (a *Adapter) Infer(buf gocv.Mat) (raw pose.RawDetections, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, ErrClosed
	}
	if buf.Empty() {
		return nil, ErrEmptyInput
	}

	scope := NewScope()
	defer scope.Release()
	defer func() {
		if r := recover(); r != nil {
			raw, err = nil, fmt.Errorf("inference: forward panicked: %v", r)
		}
	}()

	size := image.Pt(a.config.InputSize, a.config.InputSize)
	blob := scope.Track(gocv.BlobFromImage(buf, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), true, false))

	a.model.SetInput(blob, "")
	output := scope.Track(a.model.Forward(""))
	if output.Empty() {
		return nil, ErrEmptyOutput
	}

	rows, n, err := normalize(scope, output)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return pose.RawDetections{}, nil
	}
	return copyRows(rows, n)
}

// normalize returns an [N,56] view of the model output. [1,56,N] is transposed,
// [1,N,56] and [N,56] pass through. When N is also 56 the output is taken as
// already row-major. n is the candidate count; when it is zero the Mat is unset.
func normalize(scope *Scope, output gocv.Mat) (rows gocv.Mat, n int, err error) {
	dims := output.Size()

	switch {
	case len(dims) == 3 && dims[0] == 1 && dims[2] == pose.FieldCount:
		if dims[1] == 0 {
			return gocv.Mat{}, 0, nil
		}
		return scope.Track(output.Reshape(1, dims[1])), dims[1], nil

	case len(dims) == 3 && dims[0] == 1 && dims[1] == pose.FieldCount:
		if dims[2] == 0 {
			return gocv.Mat{}, 0, nil
		}
		flat := scope.Track(output.Reshape(1, pose.FieldCount))
		transposed := scope.Track(gocv.NewMat())
		gocv.Transpose(flat, &transposed)
		return transposed, dims[2], nil

	case len(dims) == 2 && dims[1] == pose.FieldCount:
		return output, dims[0], nil
	}

	return gocv.Mat{}, 0, fmt.Errorf("%w: %v", ErrUnexpectedShape, dims)
}

// copyRows copies an [N,56] float Mat out of C memory so nothing returned
// aliases a released tensor.
func copyRows(rows gocv.Mat, n int) (pose.RawDetections, error) {
	data, err := rows.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	if len(data) < n*pose.FieldCount {
		return nil, fmt.Errorf("%w: %d values for %d rows", ErrUnexpectedShape, len(data), n)
	}

	raw := make(pose.RawDetections, n)
	for i := range raw {
		copy(raw[i][:], data[i*pose.FieldCount:(i+1)*pose.FieldCount])
	}
	return raw, nil
}

// Close releases the model. Safe to call more than once.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return a.model.Close()
}
