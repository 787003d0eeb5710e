package store

import (
	"context"
	"errors"

	"github.com/ppiankov/sourcebrief/internal/model"
)

// DefaultListLimit is used when callers pass a non-positive limit
const DefaultListLimit = 5

// ErrNotFound is returned when no brief has the requested id
var ErrNotFound = errors.New("research brief not found")

// Store persists research briefs
type Store interface {
	// Save assigns an id and timestamps and stores the brief
	Save(ctx context.Context, in model.BriefInput) (*model.ResearchBrief, error)

	// Get returns the brief with id or ErrNotFound
	Get(ctx context.Context, id string) (*model.ResearchBrief, error)

	// ListRecent returns up to limit briefs, newest first
	ListRecent(ctx context.Context, limit int) ([]model.ResearchBrief, error)

	// Ping reports whether the store is reachable
	Ping(ctx context.Context) error

	Close() error
}
