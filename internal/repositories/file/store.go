// Package file keeps every collection in one JSON snapshot file that is rewritten in
// full on each write.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

const snapshotVersion = 1

type snapshot struct {
	Version   int               `json:"version"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Entries   map[string]string `json:"entries"`
}

// Store is a single-file KVStore. Values are kept as strings so a payload that no
// longer decodes is still preserved byte for byte.
type Store struct {
	mu   sync.RWMutex
	file *os.File
	path string
	snap snapshot
	now  func() time.Time
}

// Option customises the file store.
type Option func(*Store)

// WithClock overrides the clock stamped into the snapshot.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens or creates the snapshot at path. An unreadable snapshot is moved aside
// to path.corrupt.<unix> and a fresh one is started.
func Open(path string, logger *zap.Logger, opts ...Option) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("file store: create dir: %w", err)
	}
	s := &Store{path: path, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("file store: open: %w", err)
	}
	s.file = f

	if err := s.load(); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &syntaxErr) && !errors.As(err, &typeErr) && !errors.Is(err, io.ErrUnexpectedEOF) {
			_ = f.Close()
			return nil, fmt.Errorf("file store: load: %w", err)
		}
		backup := path + ".corrupt." + strconv.FormatInt(s.now().Unix(), 10)
		logger.Warn("file store: snapshot unreadable, starting empty",
			zap.String("path", path),
			zap.String("backup", backup),
			zap.Error(err),
		)
		if copyErr := copyFile(path, backup); copyErr != nil {
			_ = f.Close()
			return nil, fmt.Errorf("file store: back up corrupt snapshot: %w", copyErr)
		}
		s.snap = s.emptySnapshot()
		if err := s.flushLocked(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) emptySnapshot() snapshot {
	return snapshot{Version: snapshotVersion, UpdatedAt: s.now().UTC(), Entries: map[string]string{}}
}

func (s *Store) load() error {
	info, err := s.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		s.snap = s.emptySnapshot()
		return s.flushLocked()
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	var snap snapshot
	if err := json.NewDecoder(s.file).Decode(&snap); err != nil {
		return err
	}
	if snap.Entries == nil {
		snap.Entries = map[string]string{}
	}
	s.snap = snap
	return nil
}

func (s *Store) flushLocked() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	enc := json.NewEncoder(s.file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.snap); err != nil {
		return err
	}
	pos, err := s.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if err := s.file.Truncate(pos); err != nil {
		return err
	}
	return s.file.Sync()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.snap.Entries[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(value), true, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	previous, had := s.snap.Entries[key]
	s.snap.Entries[key] = string(value)
	s.snap.UpdatedAt = s.now().UTC()
	if err := s.flushLocked(); err != nil {
		if had {
			s.snap.Entries[key] = previous
		} else {
			delete(s.snap.Entries, key)
		}
		return fmt.Errorf("file store: write %s: %w", key, err)
	}
	return nil
}

// Ping checks the snapshot file is still reachable.
func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := s.file.Stat()
	return err
}

// Close closes the snapshot file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// Path returns the snapshot location.
func (s *Store) Path() string { return s.path }

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o600)
}
