package gaze

// DefaultWindowCapacity bounds the raw-sample window kept for visualisation
// and chaos-index computation. At 120 Hz this covers roughly the last ten
// seconds of tracking.
const DefaultWindowCapacity = 1200

// SampleWindow is a fixed-capacity ring buffer of the most recent valid
// samples. Older samples are discarded without affecting already-emitted
// fixations or saccades.
type SampleWindow struct {
	buf  []GazeSample
	head int // index of the oldest sample
}

// NewSampleWindow creates a window retaining at most capacity samples.
// A non-positive capacity falls back to DefaultWindowCapacity.
func NewSampleWindow(capacity int) *SampleWindow {
	if capacity <= 0 {
		capacity = DefaultWindowCapacity
	}
	return &SampleWindow{
		buf: make([]GazeSample, 0, capacity),
	}
}

// Push appends a sample, evicting the oldest when the window is full.
func (w *SampleWindow) Push(sample GazeSample) {
	if len(w.buf) < cap(w.buf) {
		w.buf = append(w.buf, sample)
		return
	}
	w.buf[w.head] = sample
	w.head = (w.head + 1) % len(w.buf)
}

// Len returns the number of retained samples.
func (w *SampleWindow) Len() int {
	return len(w.buf)
}

// Capacity returns the maximum number of retained samples.
func (w *SampleWindow) Capacity() int {
	return cap(w.buf)
}

// Samples returns the retained samples in arrival order, oldest first.
// The returned slice is a copy and safe to hold across further pushes.
func (w *SampleWindow) Samples() []GazeSample {
	out := make([]GazeSample, 0, len(w.buf))
	for i := 0; i < len(w.buf); i++ {
		out = append(out, w.buf[(w.head+i)%len(w.buf)])
	}
	return out
}

// Reset discards all retained samples, keeping the capacity.
func (w *SampleWindow) Reset() {
	w.buf = w.buf[:0]
	w.head = 0
}
