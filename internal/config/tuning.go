package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oculab-data/gaze.report/internal/gaze"
)

// Preset names for known tracker hardware classes.
const (
	PresetClinical = "clinical"
	PresetWebcam   = "webcam"
)

// TuningConfig represents the root configuration for classification and
// reporting parameters. The schema matches the /api/config endpoint so the
// same JSON can be used for startup configuration and runtime inspection.
// All fields are optional; Get* accessors supply defaults, so partial
// configs are safe.
type TuningConfig struct {
	// Hardware preset: "clinical" or "webcam". Selects the default
	// dispersion threshold; explicit fields below still win.
	Preset *string `json:"preset,omitempty"`

	// Detector params
	DispersionThresholdPx *float64 `json:"dispersion_threshold_px,omitempty"`
	MinFixationDurationMs *int64   `json:"min_fixation_duration_ms,omitempty"`
	ProlongedFixationMs   *int64   `json:"prolonged_fixation_ms,omitempty"`

	// Raw-sample window
	SampleWindowSize *int `json:"sample_window_size,omitempty"`

	// Snapshot flush params
	FlushInterval *string `json:"flush_interval,omitempty"` // duration string like "30s"

	// Screen geometry for pixel/degree conversion in reports
	ScreenPitchMmPerPx *float64 `json:"screen_pitch_mm_per_px,omitempty"`
	ViewingDistanceMm  *float64 `json:"viewing_distance_mm,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must
// have a .json extension and stay under the max file size. Fields omitted
// from the JSON retain their defaults.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.Preset != nil {
		switch *c.Preset {
		case PresetClinical, PresetWebcam:
		default:
			return fmt.Errorf("unknown preset %q: expected %q or %q", *c.Preset, PresetClinical, PresetWebcam)
		}
	}

	if c.DispersionThresholdPx != nil && *c.DispersionThresholdPx <= 0 {
		return fmt.Errorf("dispersion_threshold_px must be positive, got %f", *c.DispersionThresholdPx)
	}

	if c.MinFixationDurationMs != nil && *c.MinFixationDurationMs <= 0 {
		return fmt.Errorf("min_fixation_duration_ms must be positive, got %d", *c.MinFixationDurationMs)
	}

	if c.ProlongedFixationMs != nil && *c.ProlongedFixationMs <= 0 {
		return fmt.Errorf("prolonged_fixation_ms must be positive, got %d", *c.ProlongedFixationMs)
	}

	if c.SampleWindowSize != nil && *c.SampleWindowSize < 3 {
		return fmt.Errorf("sample_window_size must be at least 3, got %d", *c.SampleWindowSize)
	}

	if c.FlushInterval != nil && *c.FlushInterval != "" {
		if _, err := time.ParseDuration(*c.FlushInterval); err != nil {
			return fmt.Errorf("invalid flush_interval '%s': %w", *c.FlushInterval, err)
		}
	}

	if c.ScreenPitchMmPerPx != nil && *c.ScreenPitchMmPerPx <= 0 {
		return fmt.Errorf("screen_pitch_mm_per_px must be positive, got %f", *c.ScreenPitchMmPerPx)
	}

	if c.ViewingDistanceMm != nil && *c.ViewingDistanceMm <= 0 {
		return fmt.Errorf("viewing_distance_mm must be positive, got %f", *c.ViewingDistanceMm)
	}

	return nil
}

// GetPreset returns the preset name or the default.
func (c *TuningConfig) GetPreset() string {
	if c.Preset == nil {
		return PresetClinical
	}
	return *c.Preset
}

// GetDispersionThresholdPx returns the dispersion threshold or the
// preset-appropriate default.
func (c *TuningConfig) GetDispersionThresholdPx() float64 {
	if c.DispersionThresholdPx != nil {
		return *c.DispersionThresholdPx
	}
	if c.GetPreset() == PresetWebcam {
		return 35.0
	}
	return 15.0
}

// GetMinFixationDurationMs returns the minimum fixation duration or the default.
func (c *TuningConfig) GetMinFixationDurationMs() int64 {
	if c.MinFixationDurationMs == nil {
		return 100
	}
	return *c.MinFixationDurationMs
}

// GetProlongedFixationMs returns the prolonged-fixation threshold or the default.
func (c *TuningConfig) GetProlongedFixationMs() int64 {
	if c.ProlongedFixationMs == nil {
		return 400
	}
	return *c.ProlongedFixationMs
}

// GetSampleWindowSize returns the raw-sample window capacity or the default.
func (c *TuningConfig) GetSampleWindowSize() int {
	if c.SampleWindowSize == nil {
		return gaze.DefaultWindowCapacity
	}
	return *c.SampleWindowSize
}

// GetFlushInterval parses and returns the FlushInterval as a time.Duration.
func (c *TuningConfig) GetFlushInterval() time.Duration {
	if c.FlushInterval == nil || *c.FlushInterval == "" {
		return 30 * time.Second // default
	}
	d, err := time.ParseDuration(*c.FlushInterval)
	if err != nil {
		return 30 * time.Second // default on parse error
	}
	return d
}

// GetScreenPitchMmPerPx returns the screen pixel pitch or a default for a
// typical 96 DPI monitor.
func (c *TuningConfig) GetScreenPitchMmPerPx() float64 {
	if c.ScreenPitchMmPerPx == nil {
		return 0.2646
	}
	return *c.ScreenPitchMmPerPx
}

// GetViewingDistanceMm returns the viewing distance or the default for a
// desk-mounted tracker.
func (c *TuningConfig) GetViewingDistanceMm() float64 {
	if c.ViewingDistanceMm == nil {
		return 600.0
	}
	return *c.ViewingDistanceMm
}

// DetectorConfig builds the detector thresholds from the tuning values.
func (c *TuningConfig) DetectorConfig() gaze.DetectorConfig {
	return gaze.DetectorConfig{
		DispersionThresholdPx: c.GetDispersionThresholdPx(),
		MinFixationDurationMs: c.GetMinFixationDurationMs(),
		ProlongedFixationMs:   c.GetProlongedFixationMs(),
	}
}
