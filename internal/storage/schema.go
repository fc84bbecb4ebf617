package storage

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// schema holds the full table set. Text columns carry the ingestion
// truncation limits as CHECK-free varchar bounds; source_url uniqueness
// is the article identity key.
const schema = `
	CREATE TABLE IF NOT EXISTS news_sources (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		feed_url VARCHAR(500) NOT NULL UNIQUE,
		category VARCHAR(50) NOT NULL DEFAULT 'GENERAL',
		language VARCHAR(10) NOT NULL DEFAULT 'ru',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		last_fetch TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS articles (
		id BIGSERIAL PRIMARY KEY,
		source_id BIGINT REFERENCES news_sources(id) ON DELETE SET NULL,
		title VARCHAR(500) NOT NULL,
		summary VARCHAR(1000),
		content TEXT NOT NULL DEFAULT '',
		source_url VARCHAR(500) NOT NULL UNIQUE,
		image_url VARCHAR(500),
		category VARCHAR(50) NOT NULL DEFAULT 'GENERAL',
		published_at TIMESTAMPTZ,
		notified_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at DESC);
	CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category);

	CREATE TABLE IF NOT EXISTS user_preferences (
		user_id BIGINT NOT NULL,
		category VARCHAR(50) NOT NULL,
		weight DOUBLE PRECISION NOT NULL DEFAULT 0.5,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, category)
	);

	CREATE TABLE IF NOT EXISTS read_history (
		user_id BIGINT NOT NULL,
		article_id BIGINT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
		read_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		read_time_seconds INTEGER,
		PRIMARY KEY (user_id, article_id)
	);
`

// InitSchema creates all tables and indexes if they do not exist.
func InitSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
