package capture

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/akio-byte/joulun-tonttu-me/pkg/domain"
)

const defaultPollInterval = 250 * time.Millisecond

// FileDevice reads frames from an image file that an external camera tool
// keeps overwriting. The opened stream polls the file in the background.
type FileDevice struct {
	Path     string
	Interval time.Duration
}

// Open reads the first frame and starts polling.
func (d FileDevice) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.Path == "" {
		return nil, fmt.Errorf("%w: no photo path configured", ErrUnavailable)
	}
	if _, err := os.Stat(d.Path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	interval := d.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	fs := &fileStream{
		path:    d.Path,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	fs.refresh()
	go fs.poll(interval)
	return fs, nil
}

type fileStream struct {
	path string

	mu      sync.Mutex
	frame   domain.Image
	modTime time.Time
	lastErr error

	once    sync.Once
	done    chan struct{}
	stopped chan struct{}
}

func (s *fileStream) poll(interval time.Duration) {
	defer close(s.stopped)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-t.C:
			s.refresh()
		}
	}
}

// refresh reloads the frame when the file changed.
func (s *fileStream) refresh() {
	info, err := os.Stat(s.path)
	if err != nil {
		s.setErr(err)
		return
	}
	s.mu.Lock()
	unchanged := !s.frame.IsZero() && info.ModTime().Equal(s.modTime)
	s.mu.Unlock()
	if unchanged {
		return
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		s.setErr(err)
		return
	}
	img, err := domain.ImageFromBytes(raw)
	if err != nil {
		s.setErr(err)
		return
	}

	s.mu.Lock()
	s.frame = img
	s.modTime = info.ModTime()
	s.lastErr = nil
	s.mu.Unlock()
}

func (s *fileStream) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *fileStream) Snapshot(ctx context.Context) (domain.Image, error) {
	select {
	case <-s.done:
		return domain.Image{}, ErrClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return domain.Image{}, err
	}

	s.refresh()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame.IsZero() {
		if s.lastErr != nil {
			return domain.Image{}, fmt.Errorf("%w: %v", ErrNoFrame, s.lastErr)
		}
		return domain.Image{}, ErrNoFrame
	}
	data := make([]byte, len(s.frame.Data))
	copy(data, s.frame.Data)
	return domain.Image{MIME: s.frame.MIME, Data: data}, nil
}

func (s *fileStream) Close() error {
	s.once.Do(func() { close(s.done) })
	<-s.stopped
	return nil
}
