package trackermux

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oculab-data/gaze.report/internal/timeutil"
)

// testPort implements TrackerPorter over in-memory buffers.
type testPort struct {
	mu     sync.Mutex
	reader *bytes.Reader
	writes bytes.Buffer
	closed bool
}

func newTestPort(data string) *testPort {
	return &testPort{reader: bytes.NewReader([]byte(data))}
}

func (p *testPort) Read(b []byte) (int, error) {
	return p.reader.Read(b)
}

func (p *testPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes.Write(b)
}

func (p *testPort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes.String()
}

func (p *testPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func TestTrackerMux_SubscribeUnsubscribe(t *testing.T) {
	m := NewTrackerMux(newTestPort(""))

	id1, ch1 := m.Subscribe()
	id2, ch2 := m.Subscribe()
	if id1 == id2 {
		t.Error("expected unique subscriber IDs")
	}
	if ch1 == nil || ch2 == nil {
		t.Fatal("expected non-nil subscriber channels")
	}

	m.Unsubscribe(id1)
	if _, ok := <-ch1; ok {
		t.Error("expected channel closed after unsubscribe")
	}

	// Unsubscribing an unknown ID is a no-op.
	m.Unsubscribe("not-a-subscriber")
	m.Unsubscribe(id2)
}

func TestTrackerMux_SendCommandAppendsNewline(t *testing.T) {
	port := newTestPort("")
	m := NewTrackerMux(port)

	if err := m.SendCommand("STREAM ON"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := port.Written(); got != "STREAM ON\n" {
		t.Errorf("expected newline-terminated command, got %q", got)
	}
}

func TestTrackerMux_Initialize(t *testing.T) {
	port := newTestPort("")
	m := NewTrackerMux(port)

	if err := m.Initialize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	written := port.Written()
	for _, want := range []string{"OUTPUT CSV", "STREAM ON"} {
		if !strings.Contains(written, want) {
			t.Errorf("expected initialization to send %q, got %q", want, written)
		}
	}
}

func TestTrackerMux_MonitorFansOutFrames(t *testing.T) {
	// Fan-out is lossy for slow subscribers, so replay the frame in a loop
	// and wait for one delivery to land.
	frame := "1000,512.50,384.25,1,1,3.20,3.10"
	port := NewReplayPort([]byte(frame+"\n"), time.Millisecond, timeutil.RealClock{})
	m := NewTrackerMux(port)
	defer m.Close()

	_, ch := m.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Monitor(ctx)

	select {
	case got := <-ch:
		if got != frame {
			t.Errorf("expected frame %q, got %q", frame, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never received the frame")
	}
}

func TestTrackerMux_MonitorStopsOnCancel(t *testing.T) {
	// Replay port never drains, so only cancellation ends the monitor.
	port := NewReplayPort([]byte("1000,1.00,1.00,1,1,3.00,3.00\n"), 0, nil)
	defer port.Close()
	m := NewTrackerMux(port)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- m.Monitor(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop on cancellation")
	}
}

func TestTrackerMux_CloseClosesSubscribers(t *testing.T) {
	port := newTestPort("")
	m := NewTrackerMux(port)
	_, ch := m.Subscribe()

	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := <-ch; ok {
		t.Error("expected subscriber channel closed")
	}
	if !port.closed {
		t.Error("expected underlying port closed")
	}
}
