package gaze

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestComputeMetrics_Empty(t *testing.T) {
	m := ComputeMetrics(nil, nil, nil, 400)
	if m != (Metrics{}) {
		t.Errorf("expected zero-valued metrics for empty state, got %+v", m)
	}
}

func TestComputeMetrics_Counts(t *testing.T) {
	fixations := []Fixation{
		{X: 10, Y: 10, DurationMs: 120, StartTimestampMs: 0},
		{X: 50, Y: 12, DurationMs: 500, StartTimestampMs: 200},
		{X: 90, Y: 14, DurationMs: 280, StartTimestampMs: 800},
	}
	saccades := []Saccade{
		{StartX: 10, StartY: 10, EndX: 50, EndY: 12, DurationMs: 30},
		{StartX: 50, StartY: 12, EndX: 20, EndY: 14, DurationMs: 25, IsRegression: true},
		{StartX: 20, StartY: 14, EndX: 90, EndY: 14, DurationMs: 40},
	}

	m := ComputeMetrics(fixations, saccades, nil, 400)

	if m.TotalFixations != 3 {
		t.Errorf("expected 3 fixations, got %d", m.TotalFixations)
	}
	if !almostEqual(m.AverageFixationDurationMs, 300, 1e-9) {
		t.Errorf("expected average duration 300ms, got %v", m.AverageFixationDurationMs)
	}
	if m.RegressionCount != 1 {
		t.Errorf("expected 1 regression, got %d", m.RegressionCount)
	}
	if m.ProlongedFixations != 1 {
		t.Errorf("expected 1 prolonged fixation (>400ms), got %d", m.ProlongedFixations)
	}
}

func TestChaosIndex_StraightLine(t *testing.T) {
	var samples []GazeSample
	for i := 0; i < 5; i++ {
		samples = append(samples, validSample(float64(i*10), 50, int64(i*16)))
	}
	if got := ChaosIndex(samples); got != 0 {
		t.Errorf("straight line must have chaos index 0, got %v", got)
	}
}

func TestChaosIndex_ZigZag(t *testing.T) {
	// Right, up, right, up: every turn is 90 degrees.
	samples := []GazeSample{
		validSample(0, 0, 0),
		validSample(10, 0, 16),
		validSample(10, 10, 33),
		validSample(20, 10, 50),
		validSample(20, 20, 66),
	}
	got := ChaosIndex(samples)
	if !almostEqual(got, math.Pi/2, 1e-9) {
		t.Errorf("expected chaos index pi/2 for 90-degree turns, got %v", got)
	}
}

func TestChaosIndex_FewSamples(t *testing.T) {
	if got := ChaosIndex(nil); got != 0 {
		t.Errorf("expected 0 for no samples, got %v", got)
	}
	samples := []GazeSample{validSample(0, 0, 0), validSample(5, 5, 16)}
	if got := ChaosIndex(samples); got != 0 {
		t.Errorf("expected 0 for fewer than 3 samples, got %v", got)
	}
}

func TestChaosIndex_UnwrappedAngles(t *testing.T) {
	// A turn crossing the ±pi discontinuity registers near 2*pi, not near
	// zero. This is the documented historical behaviour.
	// Movement vectors (-10, 1) then (-10, -1): a shallow ~0.2 rad turn,
	// but the angles sit on opposite sides of the ±pi cut.
	samples := []GazeSample{
		validSample(0, 0, 0),
		validSample(-10, 1, 16),
		validSample(-20, 0, 33),
	}
	got := ChaosIndex(samples)
	if got < math.Pi {
		t.Errorf("expected unwrapped angle delta > pi, got %v", got)
	}
}

func TestIntersectionCoefficient_Parallel(t *testing.T) {
	saccades := []Saccade{
		{StartX: 0, StartY: 0, EndX: 1, EndY: 0},
		{StartX: 5, StartY: 5, EndX: 6, EndY: 5},
	}
	if got := IntersectionCoefficient(saccades); got != 0 {
		t.Errorf("parallel vectors must give coefficient 0, got %v", got)
	}
}

func TestIntersectionCoefficient_MixedDirections(t *testing.T) {
	// Two parallel (1,0) vectors plus one (0,1): of the three pairs, two
	// have a non-zero cross product.
	saccades := []Saccade{
		{StartX: 0, StartY: 0, EndX: 1, EndY: 0},
		{StartX: 5, StartY: 5, EndX: 6, EndY: 5},
		{StartX: 2, StartY: 2, EndX: 2, EndY: 3},
	}
	got := IntersectionCoefficient(saccades)
	if !almostEqual(got, 2.0/3.0, 1e-9) {
		t.Errorf("expected coefficient 2/3, got %v", got)
	}
}

func TestIntersectionCoefficient_FewSaccades(t *testing.T) {
	if got := IntersectionCoefficient(nil); got != 0 {
		t.Errorf("expected 0 for no saccades, got %v", got)
	}
	one := []Saccade{{EndX: 1}}
	if got := IntersectionCoefficient(one); got != 0 {
		t.Errorf("expected 0 for a single saccade, got %v", got)
	}
}

func TestFixationDurationQuantiles(t *testing.T) {
	p50, p85 := FixationDurationQuantiles(nil)
	if p50 != 0 || p85 != 0 {
		t.Errorf("expected zero quantiles with no fixations, got p50=%v p85=%v", p50, p85)
	}

	var fixations []Fixation
	for _, d := range []int64{100, 150, 200, 250, 300, 350, 400, 450, 500, 550} {
		fixations = append(fixations, Fixation{DurationMs: d})
	}
	p50, p85 = FixationDurationQuantiles(fixations)
	if p50 < 250 || p50 > 350 {
		t.Errorf("p50 out of expected range: %v", p50)
	}
	if p85 < p50 {
		t.Errorf("p85 (%v) must be >= p50 (%v)", p85, p50)
	}
	if p85 > 550 {
		t.Errorf("p85 cannot exceed the maximum duration, got %v", p85)
	}
}
