package healthdata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// MemoryStore serves a fixed snapshot.
type MemoryStore struct {
	mu       sync.RWMutex
	snapshot *Snapshot
}

func NewMemoryStore(snapshot *Snapshot) *MemoryStore {
	return &MemoryStore{snapshot: snapshot}
}

func (s *MemoryStore) CurrentSnapshot(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, nil
}

// Replace swaps the served snapshot.
func (s *MemoryStore) Replace(snapshot *Snapshot) {
	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()
}

// FileStore serves a snapshot decoded from a YAML file and reloads it when
// the file changes. With no file it serves the mock snapshot.
type FileStore struct {
	path   string
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	snapshot *Snapshot

	watchOnce sync.Once
	watcher   *fsnotify.Watcher
	done      chan struct{}
}

func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &FileStore{path: path, logger: logger, now: time.Now}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) CurrentSnapshot(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, nil
}

// Path is the backing file, empty when the store serves mock data.
func (s *FileStore) Path() string {
	return s.path
}

// Reload re-reads the backing file. A missing file falls back to mock data.
func (s *FileStore) Reload() error {
	snapshot, err := loadSnapshot(s.path, s.now())
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()
	return nil
}

func loadSnapshot(path string, now time.Time) (*Snapshot, error) {
	if path == "" {
		return MockSnapshot(now), nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return MockSnapshot(now), nil
		}
		return nil, fmt.Errorf("failed to read health data file %q: %w", path, err)
	}

	var snapshot Snapshot
	if err := yaml.Unmarshal(contents, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse health data file %q: %w", path, err)
	}
	if snapshot.RiskAssessment == nil && snapshot.Metrics != nil {
		risk := ScoreRisk(*snapshot.Metrics, snapshot.Lifestyle, now)
		snapshot.RiskAssessment = &risk
	}
	return &snapshot, nil
}

// Watch reloads the snapshot whenever the backing file is written or
// replaced. It returns once the watcher is installed; the watch ends when
// ctx is cancelled or Close is called.
func (s *FileStore) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}

	var startErr error
	s.watchOnce.Do(func() {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			startErr = fmt.Errorf("failed to create health data watcher: %w", err)
			return
		}
		// Editors replace files on save, so watch the directory.
		if err := watcher.Add(filepath.Dir(s.path)); err != nil {
			_ = watcher.Close()
			startErr = fmt.Errorf("failed to watch %q: %w", filepath.Dir(s.path), err)
			return
		}
		s.watcher = watcher
		s.done = make(chan struct{})
		go s.run(ctx)
	})
	return startErr
}

// Close stops a running watch and waits for it to exit.
func (s *FileStore) Close() error {
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	<-s.done
	return err
}

func (s *FileStore) run(ctx context.Context) {
	defer close(s.done)

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			_ = s.watcher.Close()
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := s.Reload(); err != nil {
				s.logger.Warn("health data reload failed", zap.String("path", s.path), zap.Error(err))
				continue
			}
			s.logger.Info("health data reloaded", zap.String("path", s.path))
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("health data watcher error", zap.Error(err))
		}
	}
}
