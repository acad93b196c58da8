// Package trackermux provides an abstraction over a line-oriented gaze
// tracker port with the ability for multiple clients to subscribe to frames
// from the port and send commands to a single tracker device.
package trackermux

import (
	"bufio"
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/oculab-data/gaze.report/internal/monitoring"
)

var ErrWriteFailed = fmt.Errorf("failed to write to tracker port")

// TrackerMux is a generic multiplexer that allows multiple clients to
// subscribe to frames from a single tracker port.
type TrackerMux[T TrackerPorter] struct {
	port         T
	subscribers  map[string]chan string
	subscriberMu sync.Mutex
	commandMu    sync.Mutex
	closing      bool
	closingMu    sync.Mutex
}

// TrackerMuxInterface defines the interface for the TrackerMux type.
type TrackerMuxInterface interface {
	// Subscribe creates a new channel for receiving frame lines from the
	// tracker port. The channel ID identifies the channel when unsubscribing.
	Subscribe() (string, chan string)
	// Unsubscribe removes a channel from the list of subscribers.
	Unsubscribe(string)
	// SendCommand writes the provided command to the tracker port.
	SendCommand(string) error
	// Monitor reads frame lines from the tracker port and fans them out to
	// subscribers until the context is cancelled or the port drains.
	Monitor(context.Context) error
	// Close closes all subscribed channels and closes the tracker port.
	Close() error

	Initialize() error
}

// NewTrackerMux creates a TrackerMux instance backed by the given port.
func NewTrackerMux[T TrackerPorter](port T) *TrackerMux[T] {
	return &TrackerMux[T]{
		port:        port,
		subscribers: make(map[string]chan string),
	}
}

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

func (m *TrackerMux[T]) Subscribe() (string, chan string) {
	id := randomID()
	ch := make(chan string)
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	m.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber from the tracker mux.
func (m *TrackerMux[T]) Unsubscribe(id string) {
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	if ch, ok := m.subscribers[id]; ok {
		close(ch)
		delete(m.subscribers, id)
	}
}

// Initialize puts the tracker into streaming mode with the output fields the
// frame parser expects.
func (m *TrackerMux[T]) Initialize() error {
	for _, command := range []string{
		"OUTPUT CSV",    // frame format: ts,x,y,lvalid,rvalid,lpupil,rpupil
		"FIELDS GP",     // gaze position + pupil diameters
		"VALIDITY BOTH", // per-eye validity flags
		"STREAM ON",     // begin streaming frames
	} {
		if err := m.SendCommand(command); err != nil {
			return fmt.Errorf("failed to send start command %q: %w", command, err)
		}
	}
	return nil
}

// SendCommand sends a command to the tracker port.
func (m *TrackerMux[T]) SendCommand(command string) error {
	m.commandMu.Lock()
	defer m.commandMu.Unlock()
	if len(command) == 0 || command[len(command)-1] != '\n' {
		command += "\n"
	}
	n, err := m.port.Write([]byte(command))
	if err != nil {
		return err
	}
	if n != len(command) {
		return ErrWriteFailed
	}
	return nil
}

// Monitor reads frame lines from the tracker port and fans them out to
// subscribers. Slow subscribers are skipped rather than blocking the loop,
// matching the lossy nature of a live gaze stream.
func (m *TrackerMux[T]) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(m.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// Reader goroutine: the blocking scan.Scan must not interfere with the
	// outer loop awaiting lines and context cancellation.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				// Port drained; a replay port ends this way.
				if err := scan.Err(); err != nil {
					return err
				}
				return nil
			}

			m.closingMu.Lock()
			if m.closing {
				m.closingMu.Unlock()
				return nil
			}
			m.closingMu.Unlock()

			m.subscriberMu.Lock()
			for _, ch := range m.subscribers {
				select {
				case ch <- line:
				default:
					// subscriber not keeping up; drop the frame for it
				}
			}
			m.subscriberMu.Unlock()
		}
	}
}

// Close closes all subscriber channels and the underlying port.
func (m *TrackerMux[T]) Close() error {
	m.closingMu.Lock()
	m.closing = true
	m.closingMu.Unlock()

	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	for id, ch := range m.subscribers {
		close(ch)
		delete(m.subscribers, id)
	}
	if err := m.port.Close(); err != nil {
		monitoring.Logf("trackermux: close port: %v", err)
		return err
	}
	return nil
}
