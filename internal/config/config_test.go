package config

import (
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTURE_MODEL_PATHS", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("MQTT_BROKER", "")

	cfg := Load()

	if len(cfg.ModelPaths) != 2 {
		t.Errorf("ModelPaths: got %v", cfg.ModelPaths)
	}
	if cfg.HTTPPort != DefaultHTTPPort {
		t.Errorf("HTTPPort: got %q", cfg.HTTPPort)
	}
	if cfg.MQTTEnabled() {
		t.Error("MQTT should be disabled without a broker")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("POSTURE_MODEL_PATHS", " a.onnx, ,b.onnx ")
	t.Setenv("CAMERA_WIDTH", "640")
	t.Setenv("CAMERA_FPS", "not-a-number")
	t.Setenv("POSTURE_ENABLED", "true")
	t.Setenv("MQTT_BROKER", "tcp://localhost:1883")

	cfg := Load()

	if !reflect.DeepEqual(cfg.ModelPaths, []string{"a.onnx", "b.onnx"}) {
		t.Errorf("ModelPaths: got %v", cfg.ModelPaths)
	}
	if cfg.CameraWidth != 640 {
		t.Errorf("CameraWidth: got %d", cfg.CameraWidth)
	}
	if cfg.CameraFPS != 30 {
		t.Errorf("CameraFPS should fall back to default, got %d", cfg.CameraFPS)
	}
	if !cfg.StartEnabled {
		t.Error("StartEnabled should be true")
	}
	if !cfg.MQTTEnabled() {
		t.Error("MQTT should be enabled")
	}
}
