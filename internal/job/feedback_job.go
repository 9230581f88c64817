package job

import (
	"context"
	"log"
	"time"

	"bluerate/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type FeedbackRunner interface {
	Run(ctx context.Context, now time.Time) (domain.FeedbackRunResult, error)
}

// FeedbackJob grades matured predictions against realized rate moves.
type FeedbackJob struct {
	tracer       trace.Tracer
	runner       FeedbackRunner
	pollInterval time.Duration
}

func NewFeedbackJob(tracer trace.Tracer, runner FeedbackRunner, pollInterval time.Duration) *FeedbackJob {
	if pollInterval <= 0 {
		pollInterval = time.Hour
	}
	return &FeedbackJob{tracer: tracer, runner: runner, pollInterval: pollInterval}
}

func (j *FeedbackJob) Start(ctx context.Context) {
	if j.runner == nil {
		log.Println("Feedback job disabled: no evaluator")
		<-ctx.Done()
		return
	}
	runLoop(ctx, "Feedback job", j.pollInterval, j.runOnce)
}

func (j *FeedbackJob) runOnce(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "feedback-job.run-once")
	defer span.End()

	result, err := j.runner.Run(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("Feedback evaluation error: %v", err)
		return
	}
	if result.Inserted > 0 || len(result.Errors) > 0 {
		log.Printf(
			"Feedback evaluation complete candidates=%d evaluated=%d skipped=%d inserted=%d warnings=%d",
			result.Candidates,
			result.Evaluated,
			result.Skipped,
			result.Inserted,
			len(result.Errors),
		)
	}
}
