// Package inference owns the pose detection model.
//
// The model is an opaque ONNX network that maps a 640×640 image to a
// [1,56,N] (or [1,N,56]) float tensor. The adapter loads it once from an
// ordered list of candidate locations and exposes a single Infer call that
// releases every intermediate tensor before returning.
//
// Example usage:
//
//	model, path, err := inference.LoadNet([]string{"models/yolov8n-pose.onnx"})
//	if err != nil {
//	    return err // terminal
//	}
//	adapter := inference.NewAdapter(model)
//	defer adapter.Close()
//
//	raw, err := adapter.Infer(buf)
//	det := pose.Decode(raw, pose.DefaultDecoderConfig())
package inference

import "gocv.io/x/gocv"

// Model is the network boundary. *gocv.Net satisfies it.
type Model interface {
	// SetInput binds the input blob for the next forward pass.
	SetInput(blob gocv.Mat, name string)

	// Forward runs the network; the caller owns the returned Mat.
	Forward(outputName string) gocv.Mat

	// Close releases the network.
	Close() error
}
