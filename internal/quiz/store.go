package quiz

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrAttemptNotPersisted means the insert returned no row.
	ErrAttemptNotPersisted = errors.New("attempt not persisted")
	ErrAttemptNotFound     = errors.New("attempt not found")
)

// Store is the append-only persistence contract used at submission.
type Store interface {
	CreateAttempt(ctx context.Context, in AttemptInput) (Attempt, error)
	CreateResponses(ctx context.Context, rs []Response) error
}

type MemoryStore struct {
	mu        sync.RWMutex
	seq       int64
	attempts  map[int64]Attempt
	responses map[int64][]Response
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		attempts:  map[int64]Attempt{},
		responses: map[int64][]Response{},
		now:       time.Now,
	}
}

func (m *MemoryStore) CreateAttempt(_ context.Context, in AttemptInput) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	a := Attempt{
		ID:             m.seq,
		UserID:         in.UserID,
		Score:          in.Score,
		TotalQuestions: in.TotalQuestions,
		CreatedAt:      m.now().UTC(),
	}
	m.attempts[a.ID] = a
	return a, nil
}

func (m *MemoryStore) CreateResponses(_ context.Context, rs []Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rs {
		if _, ok := m.attempts[r.AttemptID]; !ok {
			return ErrAttemptNotFound
		}
	}
	for _, r := range rs {
		r.SelectedOptions = append([]string(nil), r.SelectedOptions...)
		m.responses[r.AttemptID] = append(m.responses[r.AttemptID], r)
	}
	return nil
}

func (m *MemoryStore) GetAttempt(_ context.Context, id int64) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return a, nil
}

func (m *MemoryStore) ListResponses(_ context.Context, attemptID int64) ([]Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Response(nil), m.responses[attemptID]...), nil
}
