package units

import (
	"math"
	"testing"
)

func TestIsValid(t *testing.T) {
	for _, u := range ValidUnits {
		if !IsValid(u) {
			t.Errorf("expected %q to be valid", u)
		}
	}
	for _, u := range []string{"", "inches", "PX", "degrees"} {
		if IsValid(u) {
			t.Errorf("expected %q to be invalid", u)
		}
	}
}

func TestConvertDistance(t *testing.T) {
	geom := Geometry{PitchMmPerPx: 0.25, ViewingDistanceMm: 600}

	if got := ConvertDistance(100, PX, geom); got != 100 {
		t.Errorf("px passthrough: got %g", got)
	}
	if got := ConvertDistance(100, MM, geom); got != 25 {
		t.Errorf("mm conversion: got %g, want 25", got)
	}

	want := math.Atan2(25, 600) * 180 / math.Pi
	if got := ConvertDistance(100, DEG, geom); math.Abs(got-want) > 1e-9 {
		t.Errorf("deg conversion: got %g, want %g", got, want)
	}

	// Unknown units fall back to pixels.
	if got := ConvertDistance(42, "furlongs", geom); got != 42 {
		t.Errorf("unknown unit fallback: got %g", got)
	}
}

func TestConvertDistance_ZeroViewingDistance(t *testing.T) {
	geom := Geometry{PitchMmPerPx: 0.25}
	if got := ConvertDistance(100, DEG, geom); got != 0 {
		t.Errorf("expected 0 for zero viewing distance, got %g", got)
	}
}
