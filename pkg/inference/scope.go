package inference

import (
	"sync/atomic"

	"gocv.io/x/gocv"
)

// live counts tensors currently held by any Scope.
var live atomic.Int64

// LiveTensors returns how many tracked Mats have not been released yet.
// After every cycle has returned this must be back to zero.
func LiveTensors() int64 {
	return live.Load()
}

// Scope collects the Mats allocated during one cycle and releases them all at
// once. Use with defer so the exceptional path releases too:
//
//	scope := inference.NewScope()
//	defer scope.Release()
//	blob := scope.Track(gocv.BlobFromImage(...))
type Scope struct {
	mats []gocv.Mat
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{mats: make([]gocv.Mat, 0, 4)}
}

// Track registers m for release and returns it.
func (s *Scope) Track(m gocv.Mat) gocv.Mat {
	s.mats = append(s.mats, m)
	live.Add(1)
	return m
}

// Len returns the number of tracked Mats.
func (s *Scope) Len() int {
	return len(s.mats)
}

// Release closes tracked Mats in reverse order. Safe to call more than once.
func (s *Scope) Release() {
	for i := len(s.mats) - 1; i >= 0; i-- {
		s.mats[i].Close()
		live.Add(-1)
	}
	s.mats = s.mats[:0]
}
