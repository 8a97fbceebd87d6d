package monitor

import (
	"context"
	"errors"
	"image/color"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/teslashibe/go-posture/internal/config"
	"github.com/teslashibe/go-posture/pkg/camera"
	"github.com/teslashibe/go-posture/pkg/inference"
	"github.com/teslashibe/go-posture/pkg/pose"
	"github.com/teslashibe/go-posture/pkg/settings"
	"gocv.io/x/gocv"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	return FromEnv(&config.Config{
		ModelPaths:      []string{filepath.Join(t.TempDir(), "missing.onnx")},
		CameraDevice:    "0",
		CameraWidth:     1280,
		CameraHeight:    720,
		CameraFPS:       30,
		HTTPPort:        "0",
		StretchingRoute: "/stretching",
		MQTTClientID:    "go-posture",
		MQTTTopicPrefix: "posture",
		StartEnabled:    true,
	})
}

func TestFromEnv(t *testing.T) {
	cfg := validConfig(t)
	if !cfg.Settings.Enabled || cfg.Settings.SampleIntervalMs != settings.Interval10s {
		t.Errorf("settings: %+v", cfg.Settings)
	}
	if cfg.Camera.Device != "0" || cfg.Camera.Framerate != 30 {
		t.Errorf("camera: %+v", cfg.Camera)
	}
	if cfg.MQTT.Broker != "" || cfg.MQTTPrefix != "posture" {
		t.Errorf("mqtt: %+v", cfg.MQTT)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := validConfig(t)
	cfg.ModelPaths = nil
	cfg.Camera.Device = ""
	cfg.Settings.SampleIntervalMs = 5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{"model path", "camera", "settings"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err, want)
		}
	}

	// Replaying images needs no camera.
	cfg = validConfig(t)
	cfg.Camera = camera.Config{}
	cfg.Images = []string{"a.png"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("image replay: %v", err)
	}

	if _, err := New(Config{}); err == nil {
		t.Error("New should reject an empty config")
	}
}

func TestInitWithoutModel(t *testing.T) {
	app, err := New(validConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := app.Init(); err != nil {
		t.Fatalf("missing model must not fail Init: %v", err)
	}
	defer app.Shutdown()

	if app.runner != nil {
		t.Error("sampling must be unavailable without a model")
	}
	snap := app.dist.Snapshot()
	if !strings.Contains(snap.Error, "model setup failed") {
		t.Errorf("persistent error: %q", snap.Error)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type fixedModel struct {
	rows pose.RawDetections
	err  error
}

func (m fixedModel) Infer(gocv.Mat) (pose.RawDetections, error) {
	return m.rows, m.err
}

func TestAnalyzeImages(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "desk.png")
	if err := imaging.Save(imaging.New(640, 640, color.NRGBA{A: 255}), path); err != nil {
		t.Fatal(err)
	}

	var c pose.Candidate
	c[pose.FieldObjectness] = 0.8
	set := func(n pose.Name, x, y float32) {
		i := pose.HeaderFields + int(n)*3
		c[i], c[i+1], c[i+2] = x, y, 0.9
	}
	set(pose.Nose, 320, 500)
	set(pose.LeftShoulder, 280, 600)
	set(pose.RightShoulder, 360, 600)

	results, err := analyzeImages(context.Background(), fixedModel{rows: pose.RawDetections{c}}, []string{path})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Path != path {
		t.Fatalf("results: %+v", results)
	}
	res := results[0]
	if !res.Recognized || !res.Analysis.IsValid || !res.Analysis.FaceInLowerHalf {
		t.Errorf("analysis: %+v", res.Analysis)
	}

	// Inference failures are no detection, not an error.
	results, err = analyzeImages(context.Background(), fixedModel{err: inference.ErrUnexpectedShape}, []string{path})
	if err != nil || results[0].Detected {
		t.Errorf("failed inference: %+v, %v", results, err)
	}

	_, err = analyzeImages(context.Background(), fixedModel{}, []string{filepath.Join(dir, "missing.png")})
	if !errors.Is(err, camera.ErrUnavailable) {
		t.Errorf("missing image should fail: %v", err)
	}
}
