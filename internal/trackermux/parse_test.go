package trackermux

import (
	"testing"

	"github.com/oculab-data/gaze.report/internal/gaze"
)

func TestClassifyPayload(t *testing.T) {
	cases := []struct {
		payload string
		want    string
	}{
		{"1000,512.50,384.25,1,1,3.20,3.10", PayloadGazeFrame},
		{`{"event":"calibration","quality":0.92}`, PayloadStatus},
		{"  {\"battery\": 80}", PayloadStatus},
		{"TRACKER READY", PayloadUnknown},
		{"1,2,3", PayloadUnknown},
		{"", PayloadUnknown},
	}

	for _, tc := range cases {
		if got := ClassifyPayload(tc.payload); got != tc.want {
			t.Errorf("ClassifyPayload(%q) = %q, want %q", tc.payload, got, tc.want)
		}
	}
}

func TestParseFrame(t *testing.T) {
	sample, err := ParseFrame("1000,512.50,384.25,1,0,3.20,0.00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sample.TimestampMs != 1000 {
		t.Errorf("expected timestamp 1000, got %d", sample.TimestampMs)
	}
	if sample.X != 512.5 || sample.Y != 384.25 {
		t.Errorf("unexpected position (%v, %v)", sample.X, sample.Y)
	}
	if !sample.LeftValid || sample.RightValid {
		t.Errorf("unexpected validity flags: left=%v right=%v", sample.LeftValid, sample.RightValid)
	}
	if sample.LeftPupilDiameter != 3.2 {
		t.Errorf("expected left pupil 3.2, got %v", sample.LeftPupilDiameter)
	}
	if !sample.Valid() {
		t.Error("sample with one valid eye must be valid")
	}
}

func TestParseFrame_Errors(t *testing.T) {
	cases := []string{
		"",                                  // empty
		"1000,512.50,384.25,1,1,3.20",       // too few fields
		"abc,512.50,384.25,1,1,3.20,3.10",   // bad timestamp
		"1000,oops,384.25,1,1,3.20,3.10",    // bad x
		"1000,512.50,384.25,2,1,3.20,3.10",  // bad validity flag
		"1000,512.50,384.25,1,1,3.20,pupil", // bad pupil
	}

	for _, line := range cases {
		if _, err := ParseFrame(line); err == nil {
			t.Errorf("expected error for %q, got none", line)
		}
	}
}

func TestFormatFrameRoundTrip(t *testing.T) {
	in := gaze.GazeSample{
		X:                  100.25,
		Y:                  200.75,
		TimestampMs:        4242,
		LeftValid:          true,
		RightValid:         false,
		LeftPupilDiameter:  3.5,
		RightPupilDiameter: 0,
	}

	out, err := ParseFrame(FormatFrame(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != in {
		t.Errorf("round trip mismatch:\n in %+v\nout %+v", in, out)
	}
}
