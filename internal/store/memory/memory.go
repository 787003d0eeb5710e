package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/sourcebrief/internal/model"
	"github.com/ppiankov/sourcebrief/internal/store"
)

// Store keeps briefs in process memory
type Store struct {
	mu     sync.RWMutex
	briefs map[string]model.ResearchBrief
	now    func() time.Time
}

// New creates an empty memory store
func New() *Store {
	return &Store{
		briefs: make(map[string]model.ResearchBrief),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Save(_ context.Context, in model.BriefInput) (*model.ResearchBrief, error) {
	now := s.now()
	b := model.ResearchBrief{
		ID:             uuid.NewString(),
		URLs:           append([]string(nil), in.URLs...),
		AnalysisResult: in.AnalysisResult,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	s.mu.Lock()
	s.briefs[b.ID] = b
	s.mu.Unlock()

	return &b, nil
}

func (s *Store) Get(_ context.Context, id string) (*model.ResearchBrief, error) {
	s.mu.RLock()
	b, ok := s.briefs[id]
	s.mu.RUnlock()

	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

func (s *Store) ListRecent(_ context.Context, limit int) ([]model.ResearchBrief, error) {
	if limit <= 0 {
		limit = store.DefaultListLimit
	}

	s.mu.RLock()
	all := make([]model.ResearchBrief, 0, len(s.briefs))
	for _, b := range s.briefs {
		all = append(all, b)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
