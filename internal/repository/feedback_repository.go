package repository

import (
	"context"
	"errors"
	"time"

	"bluerate/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.opentelemetry.io/otel/trace"
)

const feedbackColumns = `id, news_id, predicted_sentiment, predicted_strength, published_at, price_at_prediction,
       price_1d, price_3d, price_7d, change_1d, change_3d, change_7d,
       was_correct_1d, was_correct_3d, was_correct_7d,
       direction_correct_1d, direction_correct_3d, direction_correct_7d,
       strength_accuracy_score, evaluated_at`

type FeedbackRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewFeedbackRepository(pool PgxPool, tracer trace.Tracer) *FeedbackRepository {
	return &FeedbackRepository{pool: pool, tracer: tracer}
}

func (r *FeedbackRepository) ExistingNewsIDs(ctx context.Context, newsIDs []string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	if len(newsIDs) == 0 {
		return out, nil
	}
	_, span := r.tracer.Start(ctx, "feedback-repo.existing-news-ids")
	defer span.End()

	rows, err := r.pool.Query(ctx, `SELECT news_id FROM prediction_feedback WHERE news_id = ANY($1::uuid[])`, newsIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// BatchInsert skips rows whose news item already has feedback and returns the
// number actually written.
func (r *FeedbackRepository) BatchInsert(ctx context.Context, rows []domain.PredictionFeedback) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	_, span := r.tracer.Start(ctx, "feedback-repo.batch-insert")
	defer span.End()

	batch := &pgx.Batch{}
	for _, f := range rows {
		evaluatedAt := f.EvaluatedAt
		if evaluatedAt.IsZero() {
			evaluatedAt = time.Now()
		}
		batch.Queue(`
INSERT INTO prediction_feedback (
    news_id, predicted_sentiment, predicted_strength, published_at, price_at_prediction,
    price_1d, price_3d, price_7d, change_1d, change_3d, change_7d,
    was_correct_1d, was_correct_3d, was_correct_7d,
    direction_correct_1d, direction_correct_3d, direction_correct_7d,
    strength_accuracy_score, evaluated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
ON CONFLICT (news_id) DO NOTHING`,
			f.NewsID, string(f.PredictedSentiment), f.PredictedStrength, f.PublishedAt.UTC(), f.PriceAtPrediction,
			nullFloat(f.Price1D), nullFloat(f.Price3D), nullFloat(f.Price7D),
			nullFloat(f.Change1D), nullFloat(f.Change3D), nullFloat(f.Change7D),
			nullBool(f.WasCorrect1D), nullBool(f.WasCorrect3D), nullBool(f.WasCorrect7D),
			nullBool(f.DirectionCorrect1D), nullBool(f.DirectionCorrect3D), nullBool(f.DirectionCorrect7D),
			nullFloat(f.StrengthAccuracyScore), evaluatedAt.UTC(),
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	inserted := 0
	for range rows {
		tag, err := br.Exec()
		if err != nil {
			span.RecordError(err)
			return inserted, err
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// GetByNewsID returns nil when the item has not been evaluated.
func (r *FeedbackRepository) GetByNewsID(ctx context.Context, newsID string) (*domain.PredictionFeedback, error) {
	_, span := r.tracer.Start(ctx, "feedback-repo.get-by-news-id")
	defer span.End()

	f, err := scanFeedback(r.pool.QueryRow(ctx, `SELECT `+feedbackColumns+` FROM prediction_feedback WHERE news_id = $1`, newsID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListSince returns feedback for items published at or after since.
func (r *FeedbackRepository) ListSince(ctx context.Context, since time.Time) ([]domain.PredictionFeedback, error) {
	_, span := r.tracer.Start(ctx, "feedback-repo.list-since")
	defer span.End()

	rows, err := r.pool.Query(ctx, `SELECT `+feedbackColumns+`
FROM prediction_feedback
WHERE published_at >= $1
ORDER BY published_at ASC`, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PredictionFeedback
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func scanFeedback(s scanner) (domain.PredictionFeedback, error) {
	var out domain.PredictionFeedback
	var sentiment string
	var price1, price3, price7, change1, change3, change7, score pgtype.Float8
	var correct1, correct3, correct7, dir1, dir3, dir7 pgtype.Bool

	if err := s.Scan(
		&out.ID,
		&out.NewsID,
		&sentiment,
		&out.PredictedStrength,
		&out.PublishedAt,
		&out.PriceAtPrediction,
		&price1, &price3, &price7,
		&change1, &change3, &change7,
		&correct1, &correct3, &correct7,
		&dir1, &dir3, &dir7,
		&score,
		&out.EvaluatedAt,
	); err != nil {
		return domain.PredictionFeedback{}, err
	}

	out.PredictedSentiment = domain.Sentiment(sentiment)
	out.PublishedAt = utc(out.PublishedAt)
	out.EvaluatedAt = utc(out.EvaluatedAt)
	out.Price1D, out.Price3D, out.Price7D = floatPtr(price1), floatPtr(price3), floatPtr(price7)
	out.Change1D, out.Change3D, out.Change7D = floatPtr(change1), floatPtr(change3), floatPtr(change7)
	out.WasCorrect1D, out.WasCorrect3D, out.WasCorrect7D = boolPtr(correct1), boolPtr(correct3), boolPtr(correct7)
	out.DirectionCorrect1D, out.DirectionCorrect3D, out.DirectionCorrect7D = boolPtr(dir1), boolPtr(dir3), boolPtr(dir7)
	out.StrengthAccuracyScore = floatPtr(score)
	return out, nil
}
