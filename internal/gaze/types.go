package gaze

// GazeSample is a single frame from an eye tracker: a 2-D screen-space
// position with per-eye validity flags and pupil diameters. Timestamps are
// milliseconds since session start and are monotonically non-decreasing
// within a session.
type GazeSample struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	TimestampMs int64   `json:"timestamp_ms"`

	LeftValid  bool `json:"left_valid"`
	RightValid bool `json:"right_valid"`

	LeftPupilDiameter  float64 `json:"left_pupil_diameter"`
	RightPupilDiameter float64 `json:"right_pupil_diameter"`
}

// Valid reports whether at least one eye produced a usable measurement.
// Trackers routinely emit dropout frames (blinks, head movement); those have
// both flags false and must not influence classification.
func (s GazeSample) Valid() bool {
	return s.LeftValid || s.RightValid
}

// Fixation is a period where gaze stayed within the dispersion threshold for
// at least the minimum fixation duration. Position is the anchor point of
// the steady run. Immutable once emitted.
type Fixation struct {
	X                float64 `json:"x"`
	Y                float64 `json:"y"`
	DurationMs       int64   `json:"duration_ms"`
	StartTimestampMs int64   `json:"start_timestamp_ms"`
}

// Saccade is a rapid displacement between two temporally consecutive valid
// samples whose distance exceeded the dispersion threshold. IsRegression is
// true when the horizontal component moves leftward, i.e. backward relative
// to left-to-right reading direction.
type Saccade struct {
	StartX       float64 `json:"start_x"`
	StartY       float64 `json:"start_y"`
	EndX         float64 `json:"end_x"`
	EndY         float64 `json:"end_y"`
	DurationMs   int64   `json:"duration_ms"`
	IsRegression bool    `json:"is_regression"`
}

// DX returns the horizontal component of the saccade's direction vector.
func (s Saccade) DX() float64 { return s.EndX - s.StartX }

// DY returns the vertical component of the saccade's direction vector.
func (s Saccade) DY() float64 { return s.EndY - s.StartY }

// Metrics is the summary snapshot derived from a session's accumulated
// events and raw-sample window. It is recomputed on demand and never
// persisted independently of its source events.
type Metrics struct {
	TotalFixations            int     `json:"total_fixations"`
	AverageFixationDurationMs float64 `json:"average_fixation_duration_ms"`
	RegressionCount           int     `json:"regression_count"`
	ProlongedFixations        int     `json:"prolonged_fixations"`
	ChaosIndex                float64 `json:"chaos_index"`

	// FixationIntersectionCoefficient is the fraction of saccade pairs with
	// non-parallel direction vectors. See IntersectionCoefficient for the
	// exact semantics.
	FixationIntersectionCoefficient float64 `json:"fixation_intersection_coefficient"`
}
