// Package units provides shared constants and validation for gaze
// coordinate units
package units

import "math"

// Unit constants
const (
	PX  = "px"
	DEG = "deg"
	MM  = "mm"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{PX, DEG, MM}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "px, deg, mm"
}

// Geometry describes the screen and viewer placement needed to convert
// between pixel distances and visual angles.
type Geometry struct {
	// PitchMmPerPx is the physical size of one pixel in millimetres.
	PitchMmPerPx float64
	// ViewingDistanceMm is the eye-to-screen distance in millimetres.
	ViewingDistanceMm float64
}

// ConvertDistance converts a screen distance from pixels to the target
// units. Gaze events are stored in pixels.
func ConvertDistance(px float64, targetUnits string, geom Geometry) float64 {
	switch targetUnits {
	case MM:
		return px * geom.PitchMmPerPx
	case DEG:
		if geom.ViewingDistanceMm <= 0 {
			return 0
		}
		return math.Atan2(px*geom.PitchMmPerPx, geom.ViewingDistanceMm) * 180 / math.Pi
	case PX:
		return px // no conversion needed
	default:
		return px // default to pixels if unknown unit
	}
}
