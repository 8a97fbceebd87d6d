// Package config loads process configuration for go-posture commands.
// Values come from the environment, optionally seeded from a .env file.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/teslashibe/go-posture/internal/log"
)

// Defaults.
const (
	DefaultModelPaths      = "models/yolov8n-pose.onnx,/usr/share/go-posture/yolov8n-pose.onnx"
	DefaultCameraDevice    = "0"
	DefaultHTTPPort        = "8090"
	DefaultStretchingRoute = "/stretching"
	DefaultMQTTClientID    = "go-posture"
	DefaultMQTTTopicPrefix = "posture"
)

// Config is the process-level configuration.
type Config struct {
	// Model candidate locations, tried in order
	ModelPaths []string

	// Camera
	CameraDevice string // device index ("0") or stream URL
	CameraWidth  int
	CameraHeight int
	CameraFPS    int

	// HTTP surface
	HTTPPort  string
	StaticDir string // optional UI bundle served at /

	// StretchingRoute is the UI route that gets the fast sampling rate.
	StretchingRoute string

	// MQTT (empty broker disables it)
	MQTTBroker      string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicPrefix string

	// StartEnabled turns sampling on at startup.
	StartEnabled bool

	LogLevel string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ModelPaths: getEnvList("POSTURE_MODEL_PATHS", DefaultModelPaths),

		CameraDevice: getEnv("CAMERA_DEVICE", DefaultCameraDevice),
		CameraWidth:  getEnvInt("CAMERA_WIDTH", 1280),
		CameraHeight: getEnvInt("CAMERA_HEIGHT", 720),
		CameraFPS:    getEnvInt("CAMERA_FPS", 30),

		HTTPPort:        getEnv("HTTP_PORT", DefaultHTTPPort),
		StaticDir:       getEnv("STATIC_DIR", ""),
		StretchingRoute: getEnv("STRETCHING_ROUTE", DefaultStretchingRoute),

		MQTTBroker:      getEnv("MQTT_BROKER", ""),
		MQTTClientID:    getEnv("MQTT_CLIENT_ID", DefaultMQTTClientID),
		MQTTUsername:    getEnv("MQTT_USERNAME", ""),
		MQTTPassword:    getEnv("MQTT_PASSWORD", ""),
		MQTTTopicPrefix: getEnv("MQTT_TOPIC_PREFIX", DefaultMQTTTopicPrefix),

		StartEnabled: getEnvBool("POSTURE_ENABLED", false),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// MQTTEnabled reports whether a broker was configured.
func (c *Config) MQTTEnabled() bool {
	return c.MQTTBroker != ""
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Warn("invalid integer in environment, using default", "key", key, "error", err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Warn("invalid boolean in environment, using default", "key", key, "error", err)
		return defaultValue
	}
	return boolValue
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
