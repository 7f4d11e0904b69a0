package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// SpoolSource reads frames from a directory where the kiosk's camera helper
// drops JPEG snapshots. Acquiring touches a lock file so the helper knows the
// camera is in use; Release removes it.
type SpoolSource struct {
	Dir string
	// PollInterval is how often Capture looks for a new frame. Zero means
	// 200ms.
	PollInterval time.Duration
}

const lockFileName = ".camera-active"

func (s *SpoolSource) Acquire(ctx context.Context) (Stream, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to open frame spool: %w", err)
	}
	lock := filepath.Join(s.Dir, lockFileName)
	if err := os.WriteFile(lock, []byte(time.Now().Format(time.RFC3339)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to mark camera active: %w", err)
	}
	interval := s.PollInterval
	if interval == 0 {
		interval = 200 * time.Millisecond
	}
	return &spoolStream{dir: s.Dir, lock: lock, interval: interval, since: time.Now()}, nil
}

type spoolStream struct {
	dir      string
	lock     string
	interval time.Duration
	since    time.Time

	releaseOnce sync.Once
	released    bool
	mu          sync.Mutex
}

// Capture waits for the helper to drop a frame newer than the acquire time,
// consumes it and removes the file.
func (st *spoolStream) Capture(ctx context.Context) ([]byte, error) {
	for {
		st.mu.Lock()
		released := st.released
		st.mu.Unlock()
		if released {
			return nil, ErrNoFrame
		}

		data, err := st.newestFrame()
		if err == nil {
			return data, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(st.interval):
		}
	}
}

func (st *spoolStream) newestFrame() ([]byte, error) {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jpg" {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().Before(st.since) {
			continue
		}
		paths = append(paths, filepath.Join(st.dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, ErrNoFrame
	}
	sort.Strings(paths)
	newest := paths[len(paths)-1]

	data, err := os.ReadFile(newest)
	if err != nil {
		return nil, err
	}
	if err := ValidateJPEG(data); err != nil {
		os.Remove(newest)
		return nil, err
	}
	os.Remove(newest)
	return data, nil
}

func (st *spoolStream) Release() {
	st.releaseOnce.Do(func() {
		st.mu.Lock()
		st.released = true
		st.mu.Unlock()
		os.Remove(st.lock)
	})
}

// StaticSource serves a fixed frame, for tests and headless kiosks.
type StaticSource struct {
	Frame []byte
	// AcquireErr, when set, makes Acquire fail to simulate missing hardware.
	AcquireErr error

	mu       sync.Mutex
	open     int
	released int
}

func (s *StaticSource) Acquire(ctx context.Context) (Stream, error) {
	if s.AcquireErr != nil {
		return nil, s.AcquireErr
	}
	s.mu.Lock()
	s.open++
	s.mu.Unlock()
	return &staticStream{src: s}, nil
}

// Leaked reports how many acquired streams were never released.
func (s *StaticSource) Leaked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open - s.released
}

type staticStream struct {
	src  *StaticSource
	once sync.Once
}

func (st *staticStream) Capture(ctx context.Context) ([]byte, error) {
	if len(st.src.Frame) == 0 {
		return nil, ErrNoFrame
	}
	return st.src.Frame, nil
}

func (st *staticStream) Release() {
	st.once.Do(func() {
		st.src.mu.Lock()
		st.src.released++
		st.src.mu.Unlock()
	})
}
