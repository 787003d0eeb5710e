package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ppiankov/sourcebrief/internal/model"
	"github.com/ppiankov/sourcebrief/internal/store"
)

const (
	insertBrief = `
INSERT INTO research_briefs
    (id, urls, summary, key_points, conflicting_claims, what_to_verify, citations, topic_tags, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	selectColumns = `SELECT id, urls, summary, key_points, conflicting_claims, what_to_verify, citations, topic_tags, created_at, updated_at
FROM research_briefs`

	selectBrief = selectColumns + `
WHERE id = $1`

	selectRecent = selectColumns + `
ORDER BY created_at DESC
LIMIT $1`
)

// Store persists briefs in PostgreSQL. List fields are stored as JSONB.
type Store struct {
	DB  *sql.DB
	now func() time.Time
}

// Open connects with the pgx driver and verifies the connection
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres store requires store.postgres_url")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return New(db), nil
}

// New wraps an existing handle
func New(db *sql.DB) *Store {
	return &Store{
		DB:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Save(ctx context.Context, in model.BriefInput) (*model.ResearchBrief, error) {
	// timestamptz keeps microseconds
	now := s.now().Truncate(time.Microsecond)
	b := model.ResearchBrief{
		ID:             uuid.NewString(),
		URLs:           in.URLs,
		AnalysisResult: in.AnalysisResult,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	cols, err := encodeColumns(b)
	if err != nil {
		return nil, err
	}

	args := append([]any{b.ID}, cols[0], b.Summary)
	args = append(args, cols[1:]...)
	args = append(args, b.CreatedAt, b.UpdatedAt)

	if _, err := s.DB.ExecContext(ctx, insertBrief, args...); err != nil {
		return nil, fmt.Errorf("insert brief: %w", err)
	}

	return &b, nil
}

func (s *Store) Get(ctx context.Context, id string) (*model.ResearchBrief, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, store.ErrNotFound
	}

	b, err := scanBrief(s.DB.QueryRowContext(ctx, selectBrief, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select brief: %w", err)
	}
	return b, nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]model.ResearchBrief, error) {
	if limit <= 0 {
		limit = store.DefaultListLimit
	}

	rows, err := s.DB.QueryContext(ctx, selectRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("list briefs: %w", err)
	}
	defer rows.Close()

	briefs := []model.ResearchBrief{}
	for rows.Next() {
		b, err := scanBrief(rows)
		if err != nil {
			return nil, fmt.Errorf("scan brief: %w", err)
		}
		briefs = append(briefs, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list briefs: %w", err)
	}

	return briefs, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.DB.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBrief(row scanner) (*model.ResearchBrief, error) {
	var (
		b                                                   model.ResearchBrief
		urls, keyPoints, conflicts, verify, cites, topicTag []byte
	)
	if err := row.Scan(&b.ID, &urls, &b.Summary, &keyPoints, &conflicts, &verify, &cites, &topicTag, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}

	targets := []struct {
		raw []byte
		dst any
	}{
		{urls, &b.URLs},
		{keyPoints, &b.KeyPoints},
		{conflicts, &b.ConflictingClaims},
		{verify, &b.WhatToVerify},
		{cites, &b.Citations},
		{topicTag, &b.TopicTags},
	}
	for _, t := range targets {
		if len(t.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(t.raw, t.dst); err != nil {
			return nil, fmt.Errorf("decode column: %w", err)
		}
	}

	return &b, nil
}

// encodeColumns returns urls, key_points, conflicting_claims, what_to_verify,
// citations and topic_tags as JSON, in that order
func encodeColumns(b model.ResearchBrief) ([]any, error) {
	citations := b.Citations
	if citations == nil {
		citations = []model.Citation{}
	}
	values := []any{
		nonNil(b.URLs),
		nonNil(b.KeyPoints),
		nonNil(b.ConflictingClaims),
		nonNil(b.WhatToVerify),
		citations,
		nonNil(b.TopicTags),
	}

	out := make([]any, len(values))
	for i, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode column: %w", err)
		}
		out[i] = raw
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
