package repository

import (
	"context"
	"errors"
	"slices"
	"time"

	"bluerate/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.opentelemetry.io/otel/trace"
)

const rateSampleColumns = `id, t, buy, sell, mid,
       official_buy, official_sell, official_mid, official_source,
       buy_brl, sell_brl, mid_brl, buy_eur, sell_eur, mid_eur`

type RateSampleRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewRateSampleRepository(pool PgxPool, tracer trace.Tracer) *RateSampleRepository {
	return &RateSampleRepository{pool: pool, tracer: tracer}
}

// Append writes a new sample and returns it with its id and timestamp.
func (r *RateSampleRepository) Append(ctx context.Context, s domain.RateSample) (*domain.RateSample, error) {
	_, span := r.tracer.Start(ctx, "rate-sample-repo.append")
	defer span.End()

	if s.Time.IsZero() {
		s.Time = time.Now()
	}
	row := r.pool.QueryRow(ctx, `
INSERT INTO rate_samples (
    t, buy, sell, mid,
    official_buy, official_sell, official_mid, official_source,
    buy_brl, sell_brl, mid_brl, buy_eur, sell_eur, mid_eur
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING `+rateSampleColumns,
		s.Time.UTC(), s.Buy, s.Sell, s.Mid,
		nullFloat(s.OfficialBuy), nullFloat(s.OfficialSell), nullFloat(s.OfficialMid), s.OfficialSource,
		nullFloat(s.BuyBRL), nullFloat(s.SellBRL), nullFloat(s.MidBRL),
		nullFloat(s.BuyEUR), nullFloat(s.SellEUR), nullFloat(s.MidEUR),
	)
	out, err := scanRateSample(row)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &out, nil
}

// Latest returns nil when no sample exists yet.
func (r *RateSampleRepository) Latest(ctx context.Context) (*domain.RateSample, error) {
	_, span := r.tracer.Start(ctx, "rate-sample-repo.latest")
	defer span.End()

	row := r.pool.QueryRow(ctx, `SELECT `+rateSampleColumns+` FROM rate_samples ORDER BY t DESC LIMIT 1`)
	out, err := scanRateSample(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Range returns the newest limit samples in [from, to], oldest first.
// limit <= 0 means no limit.
func (r *RateSampleRepository) Range(ctx context.Context, from, to time.Time, limit int) ([]domain.RateSample, error) {
	_, span := r.tracer.Start(ctx, "rate-sample-repo.range")
	defer span.End()

	query := `SELECT ` + rateSampleColumns + `
FROM rate_samples
WHERE t >= $1 AND t <= $2
ORDER BY t DESC`
	args := []any{from.UTC(), to.UTC()}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RateSample
	for rows.Next() {
		s, err := scanRateSample(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}

// ListPricePoints projects samples in [from, to] to (t, mid), oldest first.
func (r *RateSampleRepository) ListPricePoints(ctx context.Context, from, to time.Time) ([]domain.PricePoint, error) {
	_, span := r.tracer.Start(ctx, "rate-sample-repo.list-price-points")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT t, mid FROM rate_samples WHERE t >= $1 AND t <= $2 ORDER BY t ASC`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PricePoint
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.Time, &p.Mid); err != nil {
			return nil, err
		}
		p.Time = p.Time.UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanRateSample(s scanner) (domain.RateSample, error) {
	var out domain.RateSample
	var officialBuy, officialSell, officialMid pgtype.Float8
	var buyBRL, sellBRL, midBRL, buyEUR, sellEUR, midEUR pgtype.Float8

	if err := s.Scan(
		&out.ID,
		&out.Time,
		&out.Buy,
		&out.Sell,
		&out.Mid,
		&officialBuy,
		&officialSell,
		&officialMid,
		&out.OfficialSource,
		&buyBRL,
		&sellBRL,
		&midBRL,
		&buyEUR,
		&sellEUR,
		&midEUR,
	); err != nil {
		return domain.RateSample{}, err
	}

	out.Time = out.Time.UTC()
	out.OfficialBuy = floatPtr(officialBuy)
	out.OfficialSell = floatPtr(officialSell)
	out.OfficialMid = floatPtr(officialMid)
	out.BuyBRL = floatPtr(buyBRL)
	out.SellBRL = floatPtr(sellBRL)
	out.MidBRL = floatPtr(midBRL)
	out.BuyEUR = floatPtr(buyEUR)
	out.SellEUR = floatPtr(sellEUR)
	out.MidEUR = floatPtr(midEUR)
	return out, nil
}
