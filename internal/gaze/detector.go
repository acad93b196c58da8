package gaze

import "math"

// DetectorState represents the classification state of the detector.
type DetectorState string

const (
	// StateIdle means no fixation is currently open.
	StateIdle DetectorState = "idle"
	// StateInFixation means a fixation anchor is active and accruing duration.
	StateInFixation DetectorState = "in_fixation"
)

// DetectorConfig holds the classification thresholds. Different hardware
// needs different presets: clinical trackers hold sub-degree precision, so a
// tight dispersion threshold works; webcam trackers need a looser one.
type DetectorConfig struct {
	// DispersionThresholdPx is the maximum distance (pixels) between
	// consecutive samples that still counts as steady gaze.
	DispersionThresholdPx float64

	// MinFixationDurationMs is the minimum duration for a steady run to be
	// emitted as a Fixation.
	MinFixationDurationMs int64

	// ProlongedFixationMs is the duration above which a fixation counts as
	// prolonged in the metrics snapshot.
	ProlongedFixationMs int64
}

// DefaultDetectorConfig returns thresholds tuned for clinical-grade hardware.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		DispersionThresholdPx: 15.0,
		MinFixationDurationMs: 100,
		ProlongedFixationMs:   400,
	}
}

// WebcamDetectorConfig returns thresholds tuned for webcam-based trackers,
// whose spatial noise floor is far higher than clinical hardware.
func WebcamDetectorConfig() DetectorConfig {
	return DetectorConfig{
		DispersionThresholdPx: 35.0,
		MinFixationDurationMs: 100,
		ProlongedFixationMs:   400,
	}
}

// fixationAnchor marks the first sample of a steady run. The anchor is not
// recentered as the run continues.
type fixationAnchor struct {
	X                float64
	Y                float64
	StartTimestampMs int64
}

// Detector classifies a stream of gaze samples into fixations and saccades
// using a dispersion-threshold algorithm. Work per sample is O(1) and the
// only state carried between calls is the last valid sample and the current
// fixation anchor.
//
// The detector is not safe for concurrent use; exactly one goroutine must
// feed it. Session wraps it with the locking needed for concurrent metric
// reads.
type Detector struct {
	config DetectorConfig

	state     DetectorState
	lastValid GazeSample
	hasLast   bool
	anchor    fixationAnchor
}

// DetectionResult carries the zero or one Fixation and/or Saccade completed
// by processing a single sample.
type DetectionResult struct {
	Fixation *Fixation
	Saccade  *Saccade
}

// NewDetector creates a detector with the given thresholds.
func NewDetector(config DetectorConfig) *Detector {
	return &Detector{
		config: config,
		state:  StateIdle,
	}
}

// Config returns the detector's thresholds.
func (d *Detector) Config() DetectorConfig {
	return d.config
}

// State returns the current classification state.
func (d *Detector) State() DetectorState {
	return d.state
}

// Process classifies one sample and returns any completed events. The
// detector never fails: invalid samples (both eyes invalid) are dropped
// with no state change, since trackers routinely produce dropout frames.
//
// Known limitation: because invalid samples are invisible here, a dropout
// burst inside a fixation neither terminates it nor contributes a gap to
// its duration; the duration keeps accruing against the anchor timestamp.
// Sessions are compared longitudinally against values computed this way,
// so the behaviour is kept as-is.
func (d *Detector) Process(sample GazeSample) DetectionResult {
	var result DetectionResult

	if !sample.Valid() {
		return result
	}

	if !d.hasLast {
		d.lastValid = sample
		d.hasLast = true
		return result
	}

	dx := sample.X - d.lastValid.X
	dy := sample.Y - d.lastValid.Y
	dist := math.Sqrt(dx*dx + dy*dy)

	if dist < d.config.DispersionThresholdPx {
		// Steady gaze: open a fixation anchored at this sample if none is open.
		if d.state == StateIdle {
			d.anchor = fixationAnchor{
				X:                sample.X,
				Y:                sample.Y,
				StartTimestampMs: sample.TimestampMs,
			}
			d.state = StateInFixation
		}
	} else {
		// Jump: close any open fixation, then emit the saccade.
		if d.state == StateInFixation {
			duration := sample.TimestampMs - d.anchor.StartTimestampMs
			if duration >= d.config.MinFixationDurationMs {
				result.Fixation = &Fixation{
					X:                d.anchor.X,
					Y:                d.anchor.Y,
					DurationMs:       duration,
					StartTimestampMs: d.anchor.StartTimestampMs,
				}
			}
			d.state = StateIdle
		}

		result.Saccade = &Saccade{
			StartX:       d.lastValid.X,
			StartY:       d.lastValid.Y,
			EndX:         sample.X,
			EndY:         sample.Y,
			DurationMs:   sample.TimestampMs - d.lastValid.TimestampMs,
			IsRegression: sample.X < d.lastValid.X,
		}
	}

	d.lastValid = sample
	return result
}

// Reset discards all transient state, returning the detector to its
// post-construction condition.
func (d *Detector) Reset() {
	d.state = StateIdle
	d.hasLast = false
	d.lastValid = GazeSample{}
	d.anchor = fixationAnchor{}
}
