// Package capture is the boundary to the photo device. A device is opened into
// a stream for the duration of the photo step and must always be released
// when the step is left.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/akio-byte/joulun-tonttu-me/internal/logging"
	"github.com/akio-byte/joulun-tonttu-me/pkg/domain"
)

var (
	// ErrUnavailable means the device could not be opened.
	ErrUnavailable = errors.New("capture device unavailable")
	// ErrNoFrame means the stream has not produced an image yet.
	ErrNoFrame = errors.New("no frame captured")
	// ErrClosed is returned by a released stream.
	ErrClosed = errors.New("capture stream closed")
)

// Device opens a live stream.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is an open device feed. Close must be safe to call more than once.
type Stream interface {
	Snapshot(ctx context.Context) (domain.Image, error)
	Close() error
}

// Session holds at most one open stream at a time.
type Session struct {
	mu     sync.Mutex
	dev    Device
	stream Stream
	closed bool
	log    *logging.Logger
}

// NewSession wraps dev. Nothing is opened until Acquire or Capture.
func NewSession(dev Device, log *logging.Logger) *Session {
	if log == nil {
		log = logging.Nop()
	}
	return &Session{dev: dev, log: log.With("component", "capture")}
}

// Acquire opens the device unless a stream is already open.
func (s *Session) Acquire(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquireLocked(ctx)
}

func (s *Session) acquireLocked(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	if s.stream != nil {
		return nil
	}
	if s.dev == nil {
		return ErrUnavailable
	}
	st, err := s.dev.Open(ctx)
	if err != nil {
		return fmt.Errorf("capture.Acquire: %w", err)
	}
	s.stream = st
	s.log.Debug("device acquired")
	return nil
}

// Active reports whether a stream is open.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream != nil
}

// Capture takes one snapshot, acquiring the device if needed.
func (s *Session) Capture(ctx context.Context) (domain.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acquireLocked(ctx); err != nil {
		return domain.Image{}, err
	}
	img, err := s.stream.Snapshot(ctx)
	if err != nil {
		return domain.Image{}, fmt.Errorf("capture.Capture: %w", err)
	}
	return img, nil
}

// Release closes the open stream. Releasing an idle session is a no-op.
func (s *Session) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseLocked()
}

// Close releases the stream and refuses any later Acquire or Capture, so
// work still in flight when the kiosk exits cannot reopen the device.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.releaseLocked()
}

func (s *Session) releaseLocked() error {
	if s.stream == nil {
		return nil
	}
	err := s.stream.Close()
	s.stream = nil
	s.log.Debug("device released")
	if err != nil {
		return fmt.Errorf("capture.Release: %w", err)
	}
	return nil
}

// With opens dev, runs fn with the stream and closes it however fn returns.
func With(ctx context.Context, dev Device, fn func(Stream) error) (err error) {
	st, err := dev.Open(ctx)
	if err != nil {
		return fmt.Errorf("capture.With: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(st)
}
