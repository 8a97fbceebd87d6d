package settings

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Manager holds the current settings and handles updates.
type Manager struct {
	settings Settings
	mu       sync.RWMutex

	// writeMu serializes writers and OnChange delivery, so callbacks see
	// changes in the order they were applied.
	writeMu sync.Mutex

	// Callback when settings change (feeds the scheduler). It must not call
	// Set or Update.
	OnChange func(prev, next Settings)
}

// NewManager creates a manager holding s.
func NewManager(s Settings) *Manager {
	return &Manager{settings: s}
}

// Get returns the current settings.
func (m *Manager) Get() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// Set replaces the settings after validation.
func (m *Manager) Set(s Settings) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.set(s)
}

func (m *Manager) set(s Settings) error {
	if errors := s.Validate(); len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	m.mu.Lock()
	prev := m.settings
	m.settings = s
	callback := m.OnChange
	m.mu.Unlock()

	if callback != nil && prev != s {
		callback(prev, s)
	}
	return nil
}

// Update applies a partial update from a decoded JSON object. Unknown keys
// are ignored; keys with the wrong type are rejected.
func (m *Manager) Update(params map[string]interface{}) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	s := m.Get()

	for key, value := range params {
		switch key {
		case "enabled":
			v, ok := value.(bool)
			if !ok {
				return fmt.Errorf("enabled must be a boolean")
			}
			s.Enabled = v
		case "sample_interval_ms":
			v, ok := toInt(value)
			if !ok {
				return fmt.Errorf("sample_interval_ms must be a number")
			}
			s.SampleIntervalMs = v
		case "neck_angle_check_enabled":
			v, ok := value.(bool)
			if !ok {
				return fmt.Errorf("neck_angle_check_enabled must be a boolean")
			}
			s.NeckAngleCheckEnabled = v
		case "face_position_check_enabled":
			v, ok := value.(bool)
			if !ok {
				return fmt.Errorf("face_position_check_enabled must be a boolean")
			}
			s.FacePositionCheckEnabled = v
		}
	}

	return m.set(s)
}

func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		if val != float64(int(val)) {
			return 0, false
		}
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}
