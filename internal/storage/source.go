package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"newshub/internal/model"
)

type SourcePostgresStorage struct {
	db *sqlx.DB
}

type dbSource struct {
	ID        int64        `db:"id"`
	Name      string       `db:"name"`
	FeedURL   string       `db:"feed_url"`
	Category  string       `db:"category"`
	Language  string       `db:"language"`
	IsActive  bool         `db:"is_active"`
	LastFetch sql.NullTime `db:"last_fetch"`
	CreatedAt time.Time    `db:"created_at"`
}

func NewSourceStorage(db *sqlx.DB) *SourcePostgresStorage {
	return &SourcePostgresStorage{
		db: db,
	}
}

// ActiveSources returns every source with the active flag set.
func (s *SourcePostgresStorage) ActiveSources(ctx context.Context) ([]model.Source, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var sources []dbSource

	err = conn.SelectContext(ctx, &sources, "SELECT * FROM news_sources WHERE is_active ORDER BY id")

	if err != nil {
		return nil, err
	}

	return lo.Map(sources, func(source dbSource, _ int) model.Source { return source.toModel() }), nil
}

// Add inserts a source if no source with the same feed URL exists yet.
// Re-running bootstrap seeding is a no-op.
func (s *SourcePostgresStorage) Add(ctx context.Context, source model.Source) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, execErr := conn.ExecContext(
		ctx,
		`INSERT INTO news_sources (name, feed_url, category, language, is_active)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (feed_url) DO NOTHING;`,
		source.Name,
		source.FeedURL,
		string(source.Category),
		source.Language,
		source.Active,
	)

	return execErr
}

// MarkFetched records when the source was last ingested.
func (s *SourcePostgresStorage) MarkFetched(ctx context.Context, id int64, at time.Time) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, execErr := conn.ExecContext(
		ctx,
		`UPDATE news_sources SET last_fetch = $1 WHERE id = $2;`,
		at.UTC(),
		id,
	)

	return execErr
}

func (s dbSource) toModel() model.Source {
	return model.Source{
		ID:        s.ID,
		Name:      s.Name,
		FeedURL:   s.FeedURL,
		Category:  model.Category(s.Category),
		Language:  s.Language,
		Active:    s.IsActive,
		LastFetch: s.LastFetch.Time,
		CreatedAt: s.CreatedAt,
	}
}
