package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/matzehuels/klumpen/pkg/errors"
	"github.com/matzehuels/klumpen/pkg/report"
)

// FileStore keeps one JSON file per analysis in a directory.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory holding the analyses.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) Save(ctx context.Context, a *report.Analysis) error {
	if err := checkSave(a); err != nil {
		return err
	}
	data, err := report.MarshalAnalysis(a)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := s.path(a.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write analysis: %w", err)
	}
	return os.Rename(tmp, s.path(a.ID))
}

func (s *FileStore) Get(ctx context.Context, id string) (*report.Analysis, error) {
	if errors.ValidateAnalysisID(id) != nil {
		return nil, notFound(id)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("read analysis: %w", err)
	}
	return report.UnmarshalAnalysis(data)
}

func (s *FileStore) List(ctx context.Context, limit int) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read history dir: %w", err)
	}
	var list []Summary
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		var a report.Analysis
		if err := json.Unmarshal(data, &a); err != nil {
			continue
		}
		list = append(list, SummaryOf(&a))
	}
	return newestFirst(list, limit), nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if errors.ValidateAnalysisID(id) != nil {
		return notFound(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return notFound(id)
	}
	if err != nil {
		return fmt.Errorf("remove analysis: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
