package storage

import (
	"context"
	"sync"

	"github.com/matzehuels/klumpen/pkg/report"
)

// MemoryStore keeps analyses in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
	sums map[string]Summary
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte), sums: make(map[string]Summary)}
}

func (s *MemoryStore) Save(ctx context.Context, a *report.Analysis) error {
	if err := checkSave(a); err != nil {
		return err
	}
	data, err := report.MarshalAnalysis(a)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[a.ID] = data
	s.sums[a.ID] = SummaryOf(a)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*report.Analysis, error) {
	s.mu.RLock()
	data, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	return report.UnmarshalAnalysis(data)
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]Summary, error) {
	s.mu.RLock()
	list := make([]Summary, 0, len(s.sums))
	for _, sum := range s.sums {
		list = append(list, sum)
	}
	s.mu.RUnlock()
	return newestFirst(list, limit), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return notFound(id)
	}
	delete(s.data, id)
	delete(s.sums, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
