package monitor

import (
	"context"
	"fmt"

	"github.com/teslashibe/go-posture/pkg/camera"
	"github.com/teslashibe/go-posture/pkg/inference"
	"github.com/teslashibe/go-posture/pkg/pipeline"
	"github.com/teslashibe/go-posture/pkg/state"
)

// ImageResult is the analysis of one still image.
type ImageResult struct {
	Path string `json:"path"`
	pipeline.Result
}

// AnalyzeImages runs the frame stages once per image and returns the results
// in order. No alerts are sent.
func AnalyzeImages(ctx context.Context, modelPaths []string, images []string) ([]ImageResult, error) {
	model, _, err := inference.LoadNet(modelPaths)
	if err != nil {
		return nil, err
	}
	adapter := inference.NewAdapter(model)
	defer adapter.Close()

	return analyzeImages(ctx, adapter, images)
}

func analyzeImages(ctx context.Context, model pipeline.Inferer, images []string) ([]ImageResult, error) {
	dist := state.NewDistributor()
	defer dist.Close()

	results := make([]ImageResult, 0, len(images))
	for _, path := range images {
		src := camera.NewStill(path)
		if err := src.Open(ctx); err != nil {
			return results, err
		}
		p := pipeline.New(src, model, nil, dist)
		res, err := p.Analyze(ctx)
		src.Close()
		if err != nil {
			return results, err
		}
		if res.Skipped {
			return results, fmt.Errorf("%s: frame not ready", path)
		}
		results = append(results, ImageResult{Path: path, Result: res})
	}
	return results, nil
}
