package articles

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, article *Article) error
	GetByID(ctx context.Context, id uuid.UUID) (*Article, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Article, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

// Create inserts the article and fills in the store-assigned id and
// creation timestamp.
func (r *postgresRepository) Create(ctx context.Context, article *Article) error {
	query := `
		INSERT INTO articles (user_id, title, content, status, word_count, seo_score, category, keywords, tone, audience, citations)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		article.UserID, article.Title, article.Content, article.Status,
		article.WordCount, article.SEOScore, article.Category,
		article.Keywords, article.Tone, article.Audience, article.Citations,
	).Scan(&article.ID, &article.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting article: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Article, error) {
	query := `
		SELECT id, user_id, title, content, status, word_count, seo_score, category, keywords, tone, audience, citations, created_at
		FROM articles
		WHERE id = $1`

	row := &Article{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&row.ID, &row.UserID, &row.Title, &row.Content, &row.Status,
		&row.WordCount, &row.SEOScore, &row.Category,
		&row.Keywords, &row.Tone, &row.Audience, &row.Citations, &row.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying article by id: %w", err)
	}
	return row, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Article, error) {
	query := `
		SELECT id, user_id, title, content, status, word_count, seo_score, category, keywords, tone, audience, citations, created_at
		FROM articles
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	defer rows.Close()

	var result []*Article
	for rows.Next() {
		row := &Article{}
		err := rows.Scan(
			&row.ID, &row.UserID, &row.Title, &row.Content, &row.Status,
			&row.WordCount, &row.SEOScore, &row.Category,
			&row.Keywords, &row.Tone, &row.Audience, &row.Citations, &row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning article row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *postgresRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM articles WHERE user_id = $1`

	var count int64
	err := r.pool.QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting articles: %w", err)
	}
	return count, nil
}
