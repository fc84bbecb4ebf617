package storage

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"newshub/internal/model"
)

// defaultWeight is assigned to every category when a user's preferences
// are first created.
const defaultWeight = 0.5

type PreferencePostgresStorage struct {
	db *sqlx.DB
}

type dbPreference struct {
	UserID    int64     `db:"user_id"`
	Category  string    `db:"category"`
	Weight    float64   `db:"weight"`
	UpdatedAt time.Time `db:"updated_at"`
}

func NewPreferenceStorage(db *sqlx.DB) *PreferencePostgresStorage {
	return &PreferencePostgresStorage{
		db: db,
	}
}

// ListForUser returns the user's (category, weight) rows, heaviest first.
func (s *PreferencePostgresStorage) ListForUser(ctx context.Context, userID int64) ([]model.Preference, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var preferences []dbPreference

	err = conn.SelectContext(
		ctx,
		&preferences,
		`SELECT user_id, category, weight, updated_at FROM user_preferences
			WHERE user_id = $1 ORDER BY weight DESC`,
		userID,
	)

	if err != nil {
		return nil, err
	}

	return lo.Map(preferences, func(p dbPreference, _ int) model.Preference {
		return model.Preference{
			UserID:    p.UserID,
			Category:  model.Category(p.Category),
			Weight:    p.Weight,
			UpdatedAt: p.UpdatedAt,
		}
	}), nil
}

// Upsert sets the weight for one (user, category) pair. At most one row
// per pair exists.
func (s *PreferencePostgresStorage) Upsert(ctx context.Context, pref model.Preference) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, execErr := conn.ExecContext(
		ctx,
		`INSERT INTO user_preferences (user_id, category, weight, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (user_id, category) DO UPDATE SET weight = EXCLUDED.weight, updated_at = NOW();`,
		pref.UserID,
		string(pref.Category),
		pref.Weight,
	)

	return execErr
}

// EnsureDefaults creates a preference row with the default weight for
// every category the user does not have one for yet.
func (s *PreferencePostgresStorage) EnsureDefaults(ctx context.Context, userID int64) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, cat := range model.Categories {
		_, execErr := conn.ExecContext(
			ctx,
			`INSERT INTO user_preferences (user_id, category, weight, updated_at)
				VALUES ($1, $2, $3, NOW())
				ON CONFLICT (user_id, category) DO NOTHING;`,
			userID,
			string(cat),
			defaultWeight,
		)

		if execErr != nil {
			return execErr
		}
	}

	return nil
}
