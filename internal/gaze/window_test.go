package gaze

import "testing"

func TestSampleWindow_PushAndOrder(t *testing.T) {
	w := NewSampleWindow(4)
	for i := 0; i < 3; i++ {
		w.Push(validSample(float64(i), 0, int64(i)))
	}

	if w.Len() != 3 {
		t.Fatalf("expected 3 samples, got %d", w.Len())
	}
	samples := w.Samples()
	for i, s := range samples {
		if s.TimestampMs != int64(i) {
			t.Errorf("expected oldest-first order, index %d has timestamp %d", i, s.TimestampMs)
		}
	}
}

func TestSampleWindow_Eviction(t *testing.T) {
	w := NewSampleWindow(3)
	for i := 0; i < 7; i++ {
		w.Push(validSample(float64(i), 0, int64(i)))
	}

	if w.Len() != 3 {
		t.Fatalf("expected window bounded at capacity 3, got %d", w.Len())
	}
	samples := w.Samples()
	want := []int64{4, 5, 6}
	for i, s := range samples {
		if s.TimestampMs != want[i] {
			t.Errorf("index %d: expected timestamp %d, got %d", i, want[i], s.TimestampMs)
		}
	}
}

func TestSampleWindow_DefaultCapacity(t *testing.T) {
	w := NewSampleWindow(0)
	if w.Capacity() != DefaultWindowCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultWindowCapacity, w.Capacity())
	}
}

func TestSampleWindow_SamplesIsACopy(t *testing.T) {
	w := NewSampleWindow(2)
	w.Push(validSample(1, 1, 1))
	snapshot := w.Samples()
	w.Push(validSample(2, 2, 2))
	w.Push(validSample(3, 3, 3))

	if len(snapshot) != 1 || snapshot[0].TimestampMs != 1 {
		t.Errorf("snapshot mutated by later pushes: %+v", snapshot)
	}
}

func TestSampleWindow_Reset(t *testing.T) {
	w := NewSampleWindow(3)
	for i := 0; i < 5; i++ {
		w.Push(validSample(float64(i), 0, int64(i)))
	}
	w.Reset()
	if w.Len() != 0 {
		t.Errorf("expected empty window after reset, got %d", w.Len())
	}
	if w.Capacity() != 3 {
		t.Errorf("reset must keep capacity, got %d", w.Capacity())
	}
	w.Push(validSample(9, 9, 9))
	if w.Len() != 1 || w.Samples()[0].TimestampMs != 9 {
		t.Errorf("window unusable after reset: %+v", w.Samples())
	}
}
