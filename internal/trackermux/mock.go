package trackermux

import (
	"bufio"
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/oculab-data/gaze.report/internal/timeutil"
)

// ReplayPort implements TrackerPorter by replaying fixture frames, paced to
// simulate a live tracker. Commands written to the port are recorded and
// otherwise ignored.
type ReplayPort struct {
	reader io.Reader

	mu       sync.Mutex
	commands []string
	closed   bool
	stop     func()
}

// NewReplayPort creates a port replaying the given fixture bytes (one frame
// per line) at the given interval per frame, looping when the fixture is
// exhausted. An interval of 0 replays as fast as the reader consumes.
func NewReplayPort(fixture []byte, interval time.Duration, clock timeutil.Clock) *ReplayPort {
	r, w := io.Pipe()
	p := &ReplayPort{
		reader: r,
		stop:   func() { w.Close() },
	}

	go func() {
		defer w.Close()

		if len(bytes.TrimSpace(fixture)) == 0 {
			return
		}

		var ticker timeutil.Ticker
		if interval > 0 {
			ticker = clock.NewTicker(interval)
			defer ticker.Stop()
		}

		for {
			scan := bufio.NewScanner(bytes.NewReader(fixture))
			for scan.Scan() {
				if ticker != nil {
					<-ticker.C()
				}
				if _, err := w.Write(append(scan.Bytes(), '\n')); err != nil {
					return // reader side closed
				}
			}
		}
	}()

	return p
}

func (p *ReplayPort) Read(b []byte) (int, error) {
	return p.reader.Read(b)
}

// Write records the command and reports it fully written.
func (p *ReplayPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commands = append(p.commands, string(b))
	return len(b), nil
}

// Commands returns a copy of all commands written to the port.
func (p *ReplayPort) Commands() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.commands))
	copy(out, p.commands)
	return out
}

func (p *ReplayPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		p.stop()
	}
	return nil
}

// NewMockTrackerMux creates a TrackerMux backed by a replay port looping the
// given fixture at roughly 120 Hz. Used by dev mode.
func NewMockTrackerMux(fixture []byte) *TrackerMux[*ReplayPort] {
	port := NewReplayPort(fixture, 8*time.Millisecond, timeutil.RealClock{})
	return NewTrackerMux[*ReplayPort](port)
}
