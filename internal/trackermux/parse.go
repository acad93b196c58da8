package trackermux

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oculab-data/gaze.report/internal/gaze"
)

// Payload classification tokens for lines arriving on the tracker port.
const (
	PayloadGazeFrame = "gaze_frame"
	PayloadStatus    = "status"
	PayloadUnknown   = "unknown"
)

// frameFieldCount is the number of comma-separated fields in a CSV gaze
// frame: ts,x,y,lvalid,rvalid,lpupil,rpupil.
const frameFieldCount = 7

// ClassifyPayload inspects a payload line and returns a simple event type
// token. Status frames are JSON objects (calibration results, battery,
// firmware chatter); gaze frames are bare CSV.
func ClassifyPayload(payload string) string {
	trimmed := strings.TrimSpace(payload)
	if strings.HasPrefix(trimmed, "{") {
		return PayloadStatus
	}
	if strings.Count(trimmed, ",") == frameFieldCount-1 {
		return PayloadGazeFrame
	}
	return PayloadUnknown
}

// ParseFrame parses a CSV gaze frame line into a GazeSample.
// Field order: timestamp_ms,x,y,left_valid,right_valid,left_pupil,right_pupil
// with validity encoded as 0/1.
func ParseFrame(line string) (gaze.GazeSample, error) {
	var sample gaze.GazeSample

	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != frameFieldCount {
		return sample, fmt.Errorf("expected %d fields, got %d", frameFieldCount, len(fields))
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return sample, fmt.Errorf("failed to parse timestamp_ms: %w", err)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return sample, fmt.Errorf("failed to parse x: %w", err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return sample, fmt.Errorf("failed to parse y: %w", err)
	}
	leftValid, err := parseValidity(fields[3])
	if err != nil {
		return sample, fmt.Errorf("failed to parse left_valid: %w", err)
	}
	rightValid, err := parseValidity(fields[4])
	if err != nil {
		return sample, fmt.Errorf("failed to parse right_valid: %w", err)
	}
	leftPupil, err := strconv.ParseFloat(strings.TrimSpace(fields[5]), 64)
	if err != nil {
		return sample, fmt.Errorf("failed to parse left_pupil: %w", err)
	}
	rightPupil, err := strconv.ParseFloat(strings.TrimSpace(fields[6]), 64)
	if err != nil {
		return sample, fmt.Errorf("failed to parse right_pupil: %w", err)
	}

	sample = gaze.GazeSample{
		X:                  x,
		Y:                  y,
		TimestampMs:        ts,
		LeftValid:          leftValid,
		RightValid:         rightValid,
		LeftPupilDiameter:  leftPupil,
		RightPupilDiameter: rightPupil,
	}
	return sample, nil
}

func parseValidity(field string) (bool, error) {
	switch strings.TrimSpace(field) {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, fmt.Errorf("validity flag must be 0 or 1, got %q", field)
	}
}

// FormatFrame renders a GazeSample as a CSV frame line, the inverse of
// ParseFrame. Used by the fixture generator and tests.
func FormatFrame(sample gaze.GazeSample) string {
	return fmt.Sprintf("%d,%.2f,%.2f,%d,%d,%.2f,%.2f",
		sample.TimestampMs,
		sample.X,
		sample.Y,
		boolToFlag(sample.LeftValid),
		boolToFlag(sample.RightValid),
		sample.LeftPupilDiameter,
		sample.RightPupilDiameter,
	)
}

func boolToFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}
