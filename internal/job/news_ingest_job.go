package job

import (
	"context"
	"log"
	"time"

	"bluerate/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type NewsIngester interface {
	Ingest(ctx context.Context) (domain.NewsIngestResult, error)
}

type NewsIngestJob struct {
	tracer       trace.Tracer
	ingester     NewsIngester
	pollInterval time.Duration
}

func NewNewsIngestJob(tracer trace.Tracer, ingester NewsIngester, pollInterval time.Duration) *NewsIngestJob {
	if pollInterval <= 0 {
		pollInterval = 15 * time.Minute
	}
	return &NewsIngestJob{tracer: tracer, ingester: ingester, pollInterval: pollInterval}
}

func (j *NewsIngestJob) Start(ctx context.Context) {
	if j.ingester == nil {
		log.Println("News ingest job disabled: no ingester")
		<-ctx.Done()
		return
	}
	runLoop(ctx, "News ingest job", j.pollInterval, j.runOnce)
}

func (j *NewsIngestJob) runOnce(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "news-ingest-job.run-once")
	defer span.End()

	result, err := j.ingester.Ingest(ctx)
	if err != nil {
		log.Printf("News ingest cycle error: %v", err)
		return
	}
	if result.Inserted > 0 || len(result.Errors) > 0 {
		log.Printf(
			"News ingest cycle complete fetched=%d inserted=%d duplicates=%d warnings=%d",
			result.Fetched,
			result.Inserted,
			result.Duplicates,
			len(result.Errors),
		)
	}
}
