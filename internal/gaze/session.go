package gaze

import (
	"sync"

	"github.com/google/uuid"
)

// Session owns all state for one tracking session: the detector, the
// append-only fixation and saccade sequences, and the raw-sample window.
// Ingestion is single-writer (one ProcessSample call at a time, driven by
// the tracker adapter); metric reads may happen concurrently with ingestion
// and take a consistent snapshot under the read lock.
type Session struct {
	mu sync.RWMutex

	id       string
	detector *Detector
	window   *SampleWindow

	fixations []Fixation
	saccades  []Saccade

	// Incrementally maintained aggregates so a metrics read does not
	// rescan the event sequences.
	durationSumMs   int64
	regressionCount int
	prolongedCount  int

	pupilSum   float64
	pupilCount int

	firstTimestampMs int64
	lastTimestampMs  int64
	sampleCount      int

	closed bool
}

// NewSession creates a session with a fresh detector and an empty window.
func NewSession(config DetectorConfig, windowCapacity int) *Session {
	return &Session{
		id:       uuid.NewString(),
		detector: NewDetector(config),
		window:   NewSampleWindow(windowCapacity),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Config returns the detector thresholds the session was built with.
func (s *Session) Config() DetectorConfig {
	return s.detector.Config()
}

// ProcessSample feeds one sample through the detector and accumulates any
// completed events. Samples arriving after Close are dropped, so an
// in-flight metrics read completes on pre-teardown state only.
func (s *Session) ProcessSample(sample GazeSample) DetectionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return DetectionResult{}
	}

	result := s.detector.Process(sample)

	if sample.Valid() {
		s.window.Push(sample)
		if s.sampleCount == 0 {
			s.firstTimestampMs = sample.TimestampMs
		}
		s.lastTimestampMs = sample.TimestampMs
		s.sampleCount++

		if sample.LeftValid {
			s.pupilSum += sample.LeftPupilDiameter
			s.pupilCount++
		}
		if sample.RightValid {
			s.pupilSum += sample.RightPupilDiameter
			s.pupilCount++
		}
	}

	if result.Fixation != nil {
		f := *result.Fixation
		s.fixations = append(s.fixations, f)
		s.durationSumMs += f.DurationMs
		if f.DurationMs > s.detector.Config().ProlongedFixationMs {
			s.prolongedCount++
		}
	}
	if result.Saccade != nil {
		sac := *result.Saccade
		s.saccades = append(s.saccades, sac)
		if sac.IsRegression {
			s.regressionCount++
		}
	}

	return result
}

// Metrics returns the current summary snapshot. Counts and the duration sum
// come from the incrementally maintained aggregates; the chaos index and
// intersection coefficient are recomputed over the bounded window and
// saccade sequence. Safe to call concurrently with ingestion.
func (s *Session) Metrics() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := Metrics{
		TotalFixations:                  len(s.fixations),
		RegressionCount:                 s.regressionCount,
		ProlongedFixations:              s.prolongedCount,
		ChaosIndex:                      ChaosIndex(s.window.Samples()),
		FixationIntersectionCoefficient: IntersectionCoefficient(s.saccades),
	}
	if len(s.fixations) > 0 {
		m.AverageFixationDurationMs = float64(s.durationSumMs) / float64(len(s.fixations))
	}
	return m
}

// Events returns copies of the accumulated fixation and saccade sequences.
func (s *Session) Events() ([]Fixation, []Saccade) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fixations := make([]Fixation, len(s.fixations))
	copy(fixations, s.fixations)
	saccades := make([]Saccade, len(s.saccades))
	copy(saccades, s.saccades)
	return fixations, saccades
}

// WindowSamples returns a copy of the raw-sample window, oldest first.
func (s *Session) WindowSamples() []GazeSample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.window.Samples()
}

// AveragePupilDiameter returns the mean pupil diameter across all valid eye
// measurements, or 0 with no data. Stored with the session record; it does
// not influence classification.
func (s *Session) AveragePupilDiameter() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pupilCount == 0 {
		return 0
	}
	return s.pupilSum / float64(s.pupilCount)
}

// Span returns the first and last valid-sample timestamps and the count of
// valid samples ingested.
func (s *Session) Span() (firstMs, lastMs int64, samples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.firstTimestampMs, s.lastTimestampMs, s.sampleCount
}

// Reset clears all accumulated events, the window, the aggregates, and the
// detector state. Idempotent. A closed session stays closed.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.detector.Reset()
	s.window.Reset()
	s.fixations = nil
	s.saccades = nil
	s.durationSumMs = 0
	s.regressionCount = 0
	s.prolongedCount = 0
	s.pupilSum = 0
	s.pupilCount = 0
	s.firstTimestampMs = 0
	s.lastTimestampMs = 0
	s.sampleCount = 0
}

// Close marks the session as torn down. Further samples are dropped;
// accumulated state remains readable. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
