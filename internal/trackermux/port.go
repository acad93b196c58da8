package trackermux

import (
	"io"
	"time"
)

// TrackerPorter defines the minimal interface needed for a gaze-tracker
// port. The abstraction enables unit testing without tracker hardware.
type TrackerPorter interface {
	io.ReadWriter
	io.Closer
}

// TimeoutTrackerPorter extends TrackerPorter with a read timeout. Serial
// ports implement it; replay ports do not need to.
type TimeoutTrackerPorter interface {
	TrackerPorter
	SetReadTimeout(timeout time.Duration) error
}
