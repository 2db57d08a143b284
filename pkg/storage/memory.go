package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/mochilabs/tradescore/pkg/errors"
	"github.com/mochilabs/tradescore/strategy"
)

type inMemoryRepository struct {
	sync.Mutex

	runs map[string]strategy.Run
}

// NewInMemoryRepository is the ephemeral run store used by tests and by
// containers that keep no state between invocations.
func NewInMemoryRepository() RunRepository {
	return &inMemoryRepository{
		runs: make(map[string]strategy.Run),
	}
}

func (s *inMemoryRepository) Create(_ context.Context, r strategy.Run) (strategy.Run, error) {
	if r.ID == "" {
		return strategy.Run{}, errors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	if _, ok := s.runs[r.ID]; ok {
		return strategy.Run{}, errors.ErrEntityExists
	}

	s.runs[r.ID] = r

	return r, nil
}

func (s *inMemoryRepository) Get(_ context.Context, id string) (strategy.Run, error) {
	if id == "" {
		return strategy.Run{}, errors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	if r, ok := s.runs[id]; ok {
		return r, nil
	}

	return strategy.Run{}, errors.ErrNotFound
}

func (s *inMemoryRepository) Update(_ context.Context, r strategy.Run) error {
	if r.ID == "" {
		return errors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	if _, ok := s.runs[r.ID]; !ok {
		return errors.ErrNotFound
	}

	s.runs[r.ID] = r

	return nil
}

func (s *inMemoryRepository) List(_ context.Context, offset, limit uint64) ([]strategy.Run, uint64, error) {
	s.Lock()
	defer s.Unlock()

	all := make([]strategy.Run, 0, len(s.runs))
	for _, r := range s.runs {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := uint64(len(all))
	if offset >= total {
		return []strategy.Run{}, total, nil
	}

	end := offset + limit
	if end > total {
		end = total
	}

	return all[offset:end], total, nil
}

func (s *inMemoryRepository) Delete(_ context.Context, id string) error {
	if id == "" {
		return errors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	delete(s.runs, id)

	return nil
}
