package gaze

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ParallelEpsilon is the cross-product magnitude below which two saccade
// direction vectors are treated as parallel. Filters numerical noise from
// near-collinear vectors.
const ParallelEpsilon = 0.001

// ComputeMetrics derives the summary snapshot from the accumulated event
// sequences and the raw-sample window. Pure function of its inputs; with no
// events it returns the zero-valued snapshot, never an error.
func ComputeMetrics(fixations []Fixation, saccades []Saccade, window []GazeSample, prolongedMs int64) Metrics {
	m := Metrics{
		TotalFixations:                  len(fixations),
		ChaosIndex:                      ChaosIndex(window),
		FixationIntersectionCoefficient: IntersectionCoefficient(saccades),
	}

	if len(fixations) > 0 {
		durations := make([]float64, len(fixations))
		for i, f := range fixations {
			durations[i] = float64(f.DurationMs)
			if f.DurationMs > prolongedMs {
				m.ProlongedFixations++
			}
		}
		m.AverageFixationDurationMs = stat.Mean(durations, nil)
	}

	for _, s := range saccades {
		if s.IsRegression {
			m.RegressionCount++
		}
	}

	return m
}

// ChaosIndex is the mean absolute turning angle between consecutive
// movement vectors across the sample window, a proxy for path erraticism
// independent of fixation/saccade segmentation. Zero with fewer than three
// samples.
//
// Angle deltas are intentionally left unwrapped: a turn just past ±π
// registers near 2π rather than near 0. Historical sessions were scored
// this way, so the scale is kept for longitudinal comparability.
func ChaosIndex(samples []GazeSample) float64 {
	if len(samples) < 3 {
		return 0
	}

	var sum float64
	for i := 2; i < len(samples); i++ {
		angle1 := math.Atan2(samples[i-1].Y-samples[i-2].Y, samples[i-1].X-samples[i-2].X)
		angle2 := math.Atan2(samples[i].Y-samples[i-1].Y, samples[i].X-samples[i-1].X)
		sum += math.Abs(angle2 - angle1)
	}

	return sum / float64(len(samples)-2)
}

// IntersectionCoefficient is the fraction of unordered saccade pairs whose
// direction vectors are non-parallel (cross-product magnitude above
// ParallelEpsilon). Zero with fewer than two saccades.
//
// Despite the historical name, this is a direction-diversity ratio, not a
// geometric segment-intersection test. Downstream risk scoring keys on the
// value as defined here.
func IntersectionCoefficient(saccades []Saccade) float64 {
	n := len(saccades)
	if n < 2 {
		return 0
	}

	var crossing int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			cross := saccades[i].DX()*saccades[j].DY() - saccades[i].DY()*saccades[j].DX()
			if math.Abs(cross) > ParallelEpsilon {
				crossing++
			}
		}
	}

	pairs := n * (n - 1) / 2
	return float64(crossing) / float64(pairs)
}

// FixationDurationQuantiles returns the p50 and p85 fixation durations in
// milliseconds, or zeros when there are no fixations. Used by the reporting
// rollups rather than the live snapshot.
func FixationDurationQuantiles(fixations []Fixation) (p50, p85 float64) {
	if len(fixations) == 0 {
		return 0, 0
	}

	durations := make([]float64, len(fixations))
	for i, f := range fixations {
		durations[i] = float64(f.DurationMs)
	}
	sort.Float64s(durations)

	p50 = stat.Quantile(0.50, stat.Empirical, durations, nil)
	p85 = stat.Quantile(0.85, stat.Empirical, durations, nil)
	return p50, p85
}
