package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bluerate/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.opentelemetry.io/otel/trace"
)

const newsColumns = `id, source, url, title, summary, published_at,
       sentiment, sentiment_strength, category, classifier_model, created_at`

type NewsRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewNewsRepository(pool PgxPool, tracer trace.Tracer) *NewsRepository {
	return &NewsRepository{pool: pool, tracer: tracer}
}

func (r *NewsRepository) ExistsByURL(ctx context.Context, url string) (bool, error) {
	_, span := r.tracer.Start(ctx, "news-repo.exists-by-url")
	defer span.End()

	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM news_items WHERE url = $1)`, url).Scan(&exists)
	return exists, err
}

// InsertIfURLAbsent reports whether a row was written. A known URL is left untouched.
func (r *NewsRepository) InsertIfURLAbsent(ctx context.Context, item domain.NewsItem) (bool, error) {
	_, span := r.tracer.Start(ctx, "news-repo.insert-if-url-absent")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `
INSERT INTO news_items (
    id, source, url, title, summary, published_at,
    sentiment, sentiment_strength, category, classifier_model
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (url) DO NOTHING`,
		item.ID, item.Source, item.URL, item.Title, item.Summary, item.PublishedAt.UTC(),
		string(item.Sentiment), nullInt(item.SentimentStrength), item.Category, nullString(item.ClassifierModel),
	)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// GetByID returns nil when the item does not exist.
func (r *NewsRepository) GetByID(ctx context.Context, id string) (*domain.NewsItem, error) {
	_, span := r.tracer.Start(ctx, "news-repo.get-by-id")
	defer span.End()

	item, err := scanNewsItem(r.pool.QueryRow(ctx, `SELECT `+newsColumns+` FROM news_items WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns items newest first, optionally filtered by source and publish range.
func (r *NewsRepository) List(ctx context.Context, f domain.NewsFilter) ([]domain.NewsItem, error) {
	_, span := r.tracer.Start(ctx, "news-repo.list")
	defer span.End()

	var where []string
	var args []any
	if s := strings.TrimSpace(f.Source); s != "" {
		args = append(args, s)
		where = append(where, fmt.Sprintf("source = $%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From.UTC())
		where = append(where, fmt.Sprintf("published_at >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To.UTC())
		where = append(where, fmt.Sprintf("published_at <= $%d", len(args)))
	}

	query := `SELECT ` + newsColumns + ` FROM news_items`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY published_at DESC LIMIT $%d`, len(args))

	return r.queryItems(ctx, query, args...)
}

// ListClassifiedSince returns every classified item published at or after since.
func (r *NewsRepository) ListClassifiedSince(ctx context.Context, since time.Time) ([]domain.NewsItem, error) {
	_, span := r.tracer.Start(ctx, "news-repo.list-classified-since")
	defer span.End()

	return r.queryItems(ctx, `SELECT `+newsColumns+`
FROM news_items
WHERE published_at >= $1 AND sentiment_strength IS NOT NULL
ORDER BY published_at DESC`, since.UTC())
}

// ListEvaluationCandidates returns directional items published in [from, to].
func (r *NewsRepository) ListEvaluationCandidates(ctx context.Context, from, to time.Time) ([]domain.NewsItem, error) {
	_, span := r.tracer.Start(ctx, "news-repo.list-evaluation-candidates")
	defer span.End()

	return r.queryItems(ctx, `SELECT `+newsColumns+`
FROM news_items
WHERE sentiment <> 'neutral'
  AND sentiment_strength IS NOT NULL
  AND published_at >= $1 AND published_at <= $2
ORDER BY published_at ASC`, from.UTC(), to.UTC())
}

func (r *NewsRepository) queryItems(ctx context.Context, query string, args ...any) ([]domain.NewsItem, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.NewsItem
	for rows.Next() {
		item, err := scanNewsItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanNewsItem(s scanner) (domain.NewsItem, error) {
	var out domain.NewsItem
	var sentiment string
	var strength pgtype.Int4
	var model pgtype.Text

	if err := s.Scan(
		&out.ID,
		&out.Source,
		&out.URL,
		&out.Title,
		&out.Summary,
		&out.PublishedAt,
		&sentiment,
		&strength,
		&out.Category,
		&model,
		&out.CreatedAt,
	); err != nil {
		return domain.NewsItem{}, err
	}

	out.PublishedAt = utc(out.PublishedAt)
	out.CreatedAt = utc(out.CreatedAt)
	out.Sentiment = domain.Sentiment(sentiment)
	out.SentimentStrength = intPtr(strength)
	if model.Valid {
		out.ClassifierModel = model.String
	}
	return out, nil
}
