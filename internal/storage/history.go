package storage

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"newshub/internal/model"
)

type HistoryPostgresStorage struct {
	db *sqlx.DB
}

func NewHistoryStorage(db *sqlx.DB) *HistoryPostgresStorage {
	return &HistoryPostgresStorage{
		db: db,
	}
}

// ReadArticleIDs returns the ids of every article the user has read.
func (s *HistoryPostgresStorage) ReadArticleIDs(ctx context.Context, userID int64) ([]int64, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var ids []int64

	err = conn.SelectContext(
		ctx,
		&ids,
		`SELECT article_id FROM read_history WHERE user_id = $1`,
		userID,
	)

	if err != nil {
		return nil, err
	}

	return ids, nil
}

// MarkRead records that the user has read the article. It reports false
// when the (user, article) pair is already recorded; the second mark is
// a no-op, not an error.
func (s *HistoryPostgresStorage) MarkRead(ctx context.Context, userID, articleID int64, readTimeSeconds int) (bool, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	result, execErr := conn.ExecContext(
		ctx,
		`INSERT INTO read_history (user_id, article_id, read_time_seconds)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, article_id) DO NOTHING;`,
		userID,
		articleID,
		nullSeconds(readTimeSeconds),
	)

	if execErr != nil {
		return false, execErr
	}

	affected, affErr := result.RowsAffected()

	if affErr != nil {
		return false, affErr
	}

	return affected > 0, nil
}

// History returns the user's read history, newest first.
func (s *HistoryPostgresStorage) History(ctx context.Context, userID int64) ([]model.ReadHistory, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryxContext(
		ctx,
		`SELECT user_id, article_id, read_at, read_time_seconds FROM read_history
			WHERE user_id = $1 ORDER BY read_at DESC`,
		userID,
	)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []model.ReadHistory

	for rows.Next() {
		var (
			entry   model.ReadHistory
			seconds sql.NullInt64
		)

		if err := rows.Scan(&entry.UserID, &entry.ArticleID, &entry.ReadAt, &seconds); err != nil {
			return nil, err
		}

		entry.ReadTimeSeconds = int(seconds.Int64)
		history = append(history, entry)
	}

	return history, rows.Err()
}

func nullSeconds(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v > 0}
}
