package trackermux

import (
	"go.bug.st/serial"
)

// NewRealTrackerMux creates a TrackerMux backed by a hardware tracker on a
// serial port at the given path using the provided options.
func NewRealTrackerMux(path string, opts PortOptions) (*TrackerMux[serial.Port], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	return NewTrackerMux[serial.Port](port), nil
}
