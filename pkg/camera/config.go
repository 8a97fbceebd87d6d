// Package camera provides the capture sources feeding the posture pipeline.
package camera

import (
	"fmt"
	"strconv"
)

// Config describes a capture device.
type Config struct {
	// Device is a device index ("0") or a stream URL / file path.
	Device string `json:"device"`

	Width     int `json:"width"`     // Requested frame width in pixels
	Height    int `json:"height"`    // Requested frame height in pixels
	Framerate int `json:"framerate"` // Requested FPS
}

// Limits for requested capture settings.
const (
	MinWidth     = 160
	MinHeight    = 120
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig returns 720p at 30 FPS on the first device.
func DefaultConfig() Config {
	return Config{
		Device:    "0",
		Width:     1280,
		Height:    720,
		Framerate: 30,
	}
}

// Validate checks the config. Returns a list of problems, or nil if valid.
// Zero width, height or framerate means "device default".
func (c *Config) Validate() []string {
	var errors []string

	if c.Device == "" {
		errors = append(errors, "device is required")
	}
	if c.Width != 0 && (c.Width < MinWidth || c.Width > MaxWidth) {
		errors = append(errors, fmt.Sprintf("width must be 0 or between %d and %d", MinWidth, MaxWidth))
	}
	if c.Height != 0 && (c.Height < MinHeight || c.Height > MaxHeight) {
		errors = append(errors, fmt.Sprintf("height must be 0 or between %d and %d", MinHeight, MaxHeight))
	}
	if c.Framerate < 0 || c.Framerate > MaxFramerate {
		errors = append(errors, fmt.Sprintf("framerate must be between 0 and %d", MaxFramerate))
	}

	return errors
}

// deviceID returns the index for numeric devices and the raw string otherwise,
// which is what gocv.OpenVideoCapture expects.
func (c *Config) deviceID() interface{} {
	if id, err := strconv.Atoi(c.Device); err == nil {
		return id
	}
	return c.Device
}
