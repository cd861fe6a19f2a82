package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	GetForDay(ctx context.Context, userID uuid.UUID, day time.Time) (*DailyUsage, error)
	Increment(ctx context.Context, userID uuid.UUID, day time.Time, words int) error
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

// GetForDay returns the user's usage row for the given day. Absence of a row
// means no usage yet: a well-formed zero-count record is returned, never nil.
func (r *postgresRepository) GetForDay(ctx context.Context, userID uuid.UUID, day time.Time) (*DailyUsage, error) {
	query := `
		SELECT user_id, date, articles_generated, words_generated, updated_at
		FROM daily_usage
		WHERE user_id = $1 AND date = $2`

	row := &DailyUsage{}
	err := r.pool.QueryRow(ctx, query, userID, day).Scan(
		&row.UserID, &row.Date, &row.ArticlesGenerated, &row.WordsGenerated, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &DailyUsage{UserID: userID, Date: day}, nil
		}
		return nil, fmt.Errorf("querying daily usage: %w", err)
	}
	return row, nil
}

// Increment records one generated article and its word count in a single
// atomic upsert. Concurrent increments for the same (user, day) serialize
// inside Postgres, so no update is ever lost.
func (r *postgresRepository) Increment(ctx context.Context, userID uuid.UUID, day time.Time, words int) error {
	query := `
		INSERT INTO daily_usage (user_id, date, articles_generated, words_generated)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (user_id, date) DO UPDATE
		SET articles_generated = daily_usage.articles_generated + 1,
		    words_generated = daily_usage.words_generated + EXCLUDED.words_generated,
		    updated_at = NOW()`

	_, err := r.pool.Exec(ctx, query, userID, day, words)
	if err != nil {
		return fmt.Errorf("incrementing daily usage: %w", err)
	}
	return nil
}
