// Package monitor wires the posture monitor together: model, capture source,
// pipeline runner, web surface and optional MQTT mirroring.
package monitor

import (
	"errors"
	"time"

	"github.com/teslashibe/go-posture/internal/config"
	"github.com/teslashibe/go-posture/pkg/camera"
	"github.com/teslashibe/go-posture/pkg/mqtt"
	"github.com/teslashibe/go-posture/pkg/settings"
)

// Config holds all configuration for the monitor.
// Flag parsing is done in cmd/posture/main.go; this struct is data only.
type Config struct {
	// ModelPaths are candidate model locations, tried in order.
	ModelPaths []string

	// Camera is the capture device. Ignored when Images is set.
	Camera camera.Config

	// Images replays still images instead of a camera.
	Images []string

	// HTTP surface.
	HTTPPort  string
	StaticDir string

	// StretchingRoute is the UI route sampled at the fast rate.
	StretchingRoute string

	// Settings are the initial user settings.
	Settings settings.Settings

	// MQTT mirroring, disabled when Broker is empty.
	MQTT       mqtt.Config
	MQTTPrefix string

	// Cooldown between alerts; zero uses the notifier default.
	AlertCooldown time.Duration
}

// FromEnv builds a Config from process configuration.
func FromEnv(env *config.Config) Config {
	s := settings.Default()
	s.Enabled = env.StartEnabled

	return Config{
		ModelPaths: env.ModelPaths,
		Camera: camera.Config{
			Device:    env.CameraDevice,
			Width:     env.CameraWidth,
			Height:    env.CameraHeight,
			Framerate: env.CameraFPS,
		},
		HTTPPort:        env.HTTPPort,
		StaticDir:       env.StaticDir,
		StretchingRoute: env.StretchingRoute,
		Settings:        s,
		MQTT: mqtt.Config{
			Broker:   env.MQTTBroker,
			ClientID: env.MQTTClientID,
			Username: env.MQTTUsername,
			Password: env.MQTTPassword,
		},
		MQTTPrefix: env.MQTTTopicPrefix,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error
	if len(c.ModelPaths) == 0 {
		errs = append(errs, errors.New("at least one model path is required"))
	}
	if c.HTTPPort == "" {
		errs = append(errs, errors.New("http port is required"))
	}
	if len(c.Images) == 0 {
		for _, e := range c.Camera.Validate() {
			errs = append(errs, errors.New("camera: "+e))
		}
	}
	for _, e := range c.Settings.Validate() {
		errs = append(errs, errors.New("settings: "+e))
	}
	return errors.Join(errs...)
}
