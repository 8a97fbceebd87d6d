package camera

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	// Register WebP so imaging.Open can decode it.
	_ "golang.org/x/image/webp"
)

// Still replays image files as a video source, cycling through them one per
// Read. It backs one-shot analysis and tests.
type Still struct {
	paths  []string
	images []image.Image

	mu     sync.Mutex
	frames []gocv.Mat
	next   int
}

// NewStill creates a source replaying the image files at paths. JPEG, PNG,
// GIF, BMP, TIFF and WebP are supported; EXIF orientation is applied.
func NewStill(paths ...string) *Still {
	return &Still{paths: paths}
}

// NewStillFromImages creates a source replaying in-memory images.
func NewStillFromImages(images ...image.Image) *Still {
	return &Still{images: images}
}

// Open decodes every image.
func (s *Still) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frames != nil {
		return nil
	}

	images := append([]image.Image(nil), s.images...)
	for _, path := range s.paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := imaging.Open(path, imaging.AutoOrientation(true))
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return fmt.Errorf("%w: no images", ErrUnavailable)
	}

	frames := make([]gocv.Mat, 0, len(images))
	for _, img := range images {
		// Normalize to NRGBA so every decoder's output converts the same way.
		mat, err := gocv.ImageToMatRGB(imaging.Clone(img))
		if err != nil {
			for _, f := range frames {
				f.Close()
			}
			return fmt.Errorf("%w: convert image: %v", ErrUnavailable, err)
		}
		frames = append(frames, mat)
	}

	s.frames = frames
	s.next = 0
	return nil
}

// Read copies the next image into dst.
func (s *Still) Read(dst *gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frames == nil {
		return ErrNotOpen
	}
	s.frames[s.next].CopyTo(dst)
	s.next = (s.next + 1) % len(s.frames)
	return nil
}

// Size returns the size of the image the next Read returns.
func (s *Still) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frames == nil {
		return 0, 0
	}
	f := s.frames[s.next]
	return f.Cols(), f.Rows()
}

// Ready reports whether images are loaded.
func (s *Still) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames) > 0
}

// Close releases the decoded frames.
func (s *Still) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.frames {
		f.Close()
	}
	s.frames = nil
	return nil
}
