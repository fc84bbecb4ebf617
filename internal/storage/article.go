package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/lo"

	"newshub/internal/model"
)

// ErrArticleExists reports that an article with the same source_url is
// already stored. The uniqueness constraint on source_url is the only
// concurrency-safety mechanism between ingestion cycles.
var ErrArticleExists = errors.New("article already exists")

type ArticlePostgresStorage struct {
	db *sqlx.DB
}

type dbArticle struct {
	ID          int64          `db:"id"`
	SourceID    sql.NullInt64  `db:"source_id"`
	Title       string         `db:"title"`
	Summary     sql.NullString `db:"summary"`
	Content     string         `db:"content"`
	SourceURL   string         `db:"source_url"`
	ImageURL    sql.NullString `db:"image_url"`
	Category    string         `db:"category"`
	PublishedAt sql.NullTime   `db:"published_at"`
	NotifiedAt  sql.NullTime   `db:"notified_at"`
	CreatedAt   time.Time      `db:"created_at"`
}

func NewArticleStorage(db *sqlx.DB) *ArticlePostgresStorage {
	return &ArticlePostgresStorage{
		db: db,
	}
}

// Store inserts the article. ErrArticleExists is returned when another
// article with the same source_url is already present, including one
// raced in by a concurrent cycle.
func (s *ArticlePostgresStorage) Store(ctx context.Context, article model.Article) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	result, execErr := conn.ExecContext(
		ctx,
		`INSERT INTO articles (source_id, title, summary, content, source_url, image_url, category, published_at)
						VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
						ON CONFLICT (source_url) DO NOTHING;`,
		nullInt64(article.SourceID),
		article.Title,
		nullString(article.Summary),
		article.Content,
		article.SourceURL,
		nullString(article.ImageURL),
		string(article.Category),
		nullTime(article.PublishedAt),
	)

	if execErr != nil {
		return execErr
	}

	affected, affErr := result.RowsAffected()

	if affErr != nil {
		return affErr
	}

	if affected == 0 {
		return ErrArticleExists
	}

	return nil
}

// ExistingLinks returns which of the given source URLs are already
// stored, in a single query.
func (s *ArticlePostgresStorage) ExistingLinks(ctx context.Context, links []string) ([]string, error) {
	if len(links) == 0 {
		return nil, nil
	}

	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var existing []string

	if err := conn.SelectContext(
		ctx,
		&existing,
		`SELECT source_url FROM articles WHERE source_url = ANY($1)`,
		pq.Array(links),
	); err != nil {
		return nil, err
	}

	return existing, nil
}

// Unread returns up to limit articles whose ids are not in excludeIDs,
// ordered by publish time descending. A non-empty categories slice
// restricts the result to those categories.
func (s *ArticlePostgresStorage) Unread(ctx context.Context, excludeIDs []int64, categories []model.Category, limit int) ([]model.Article, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var articles []dbArticle

	if len(categories) > 0 {
		names := lo.Map(categories, func(c model.Category, _ int) string { return string(c) })

		err = conn.SelectContext(
			ctx,
			&articles,
			`SELECT * FROM articles
				WHERE NOT (id = ANY($1)) AND category = ANY($2)
				ORDER BY published_at DESC NULLS LAST LIMIT $3`,
			pq.Array(excludeIDs),
			pq.Array(names),
			limit,
		)
	} else {
		err = conn.SelectContext(
			ctx,
			&articles,
			`SELECT * FROM articles
				WHERE NOT (id = ANY($1))
				ORDER BY published_at DESC NULLS LAST LIMIT $2`,
			pq.Array(excludeIDs),
			limit,
		)
	}

	if err != nil {
		return nil, err
	}

	return lo.Map(articles, func(article dbArticle, _ int) model.Article { return article.toModel() }), nil
}

// AllNotNotified returns the oldest articles ingested after since that
// have not been sent to the digest channel yet.
func (s *ArticlePostgresStorage) AllNotNotified(ctx context.Context, since time.Time, limit uint64) ([]model.Article, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var articles []dbArticle

	if err := conn.SelectContext(
		ctx,
		&articles,
		`SELECT * FROM articles
			WHERE notified_at IS NULL AND created_at >= $1 ORDER BY created_at ASC LIMIT $2`,
		since.UTC(),
		limit,
	); err != nil {
		return nil, err
	}

	return lo.Map(articles, func(article dbArticle, _ int) model.Article { return article.toModel() }), nil
}

func (s *ArticlePostgresStorage) MarkNotified(ctx context.Context, id int64) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, execErr := conn.ExecContext(
		ctx,
		`UPDATE articles SET notified_at = $1 WHERE id = $2;`,
		time.Now().UTC(),
		id,
	)

	return execErr
}

func (a dbArticle) toModel() model.Article {
	return model.Article{
		ID:          a.ID,
		SourceID:    a.SourceID.Int64,
		Title:       a.Title,
		Summary:     a.Summary.String,
		Content:     a.Content,
		SourceURL:   a.SourceURL,
		ImageURL:    a.ImageURL.String,
		Category:    model.Category(a.Category),
		PublishedAt: a.PublishedAt.Time,
		CreatedAt:   a.CreatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}
