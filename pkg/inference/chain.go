package inference

import (
	"fmt"
	"os"

	"gocv.io/x/gocv"
)

// Reader opens one candidate model location.
type Reader func(path string, cfg *Config) (Model, error)

// ReadONNX loads an ONNX file with gocv's DNN module.
func ReadONNX(path string, cfg *Config) (Model, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("stat model: %w", err)
	}

	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		net.Close()
		return nil, ErrEmptyModel
	}

	if err := net.SetPreferableBackend(cfg.Backend); err != nil {
		net.Close()
		return nil, fmt.Errorf("set backend: %w", err)
	}
	if err := net.SetPreferableTarget(cfg.Target); err != nil {
		net.Close()
		return nil, fmt.Errorf("set target: %w", err)
	}

	return &net, nil
}

// LoadNet tries each ONNX candidate in order and returns the first that loads.
func LoadNet(paths []string, opts ...Option) (Model, string, error) {
	return Load(paths, ReadONNX, opts...)
}

// Load tries each candidate with read until one succeeds. The winning location
// is returned so it can be logged; it is used for the rest of the process.
// If every candidate fails the result is a *LoadError.
func Load(paths []string, read Reader, opts ...Option) (Model, string, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if len(paths) == 0 {
		return nil, "", ErrNoCandidates
	}

	var errors []error
	for i, path := range paths {
		model, err := read(path, cfg)
		if err == nil {
			if i > 0 {
				cfg.Logger.Info("fallback model location succeeded",
					"candidate_index", i,
					"path", path,
				)
			} else {
				cfg.Logger.Info("model loaded", "path", path)
			}
			return model, path, nil
		}

		errors = append(errors, &CandidateError{Path: path, Err: err})
		cfg.Logger.Warn("model candidate failed, trying next",
			"candidate_index", i,
			"path", path,
			"error", err,
		)
	}

	return nil, "", &LoadError{Errors: errors}
}
