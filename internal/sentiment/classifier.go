package sentiment

import (
	"context"
	"errors"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultLLMTimeout = 8 * time.Second

type Classifier struct {
	tracer  trace.Tracer
	llm     LLMClient
	timeout time.Duration
}

// NewClassifier accepts a nil llm, in which case every item goes to the keyword scorer.
func NewClassifier(tracer trace.Tracer, llm LLMClient, timeout time.Duration) *Classifier {
	if timeout <= 0 {
		timeout = defaultLLMTimeout
	}
	return &Classifier{tracer: tracer, llm: llm, timeout: timeout}
}

// Classify never fails: LLM problems degrade to the keyword scorer, and a
// non-nil price context dampens results that contradict the realized move.
func (c *Classifier) Classify(ctx context.Context, title, summary string, price *PriceContext) Classification {
	ctx, span := c.tracer.Start(ctx, "sentiment-classifier.classify")
	defer span.End()

	result, err := c.classifyLLM(ctx, title, summary, price)
	if err != nil {
		var unavailable *ClassifierUnavailableError
		if errors.As(err, &unavailable) && unavailable.Reason != "no-credential" {
			log.Printf("Warning: %v; using keyword fallback", err)
		}
		result = KeywordClassify(title, summary)
	}
	if price != nil {
		result = Reconcile(result, *price)
	}

	span.SetAttributes(
		attribute.String("direction", string(result.Direction)),
		attribute.Int("strength", result.Strength),
		attribute.String("model", result.Model),
	)
	return result
}

func (c *Classifier) classifyLLM(ctx context.Context, title, summary string, price *PriceContext) (Classification, error) {
	if c.llm == nil {
		return Classification{}, &ClassifierUnavailableError{Reason: "no-credential"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.llm.Complete(ctx, systemPrompt, buildUserPrompt(title, summary, price))
	if err != nil {
		reason := "request-failed"
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			reason = "timeout"
		}
		return Classification{}, &ClassifierUnavailableError{Reason: reason, Err: err}
	}

	direction, strength, err := parseReply(raw)
	if err != nil {
		return Classification{}, &ClassifierUnavailableError{Reason: "parse", Err: err}
	}
	return Classification{Direction: direction, Strength: strength, Model: c.llm.Model(), Reason: "llm"}, nil
}
