package sentiment

import (
	"fmt"

	"bluerate/internal/domain"
)

const (
	ModelKeyword = "keyword:v1"

	// AmbiguityPenalty is subtracted from the winning side when both keyword tables match.
	AmbiguityPenalty = 20
	// AmbiguityFloor keeps an ambiguous but directional result above zero.
	AmbiguityFloor = 10
)

// Classification is the (direction, strength) output for one news item.
type Classification struct {
	Direction domain.Sentiment
	Strength  int
	Model     string
	Reason    string
}

// PriceContext holds realized percentage moves of the USD mid price.
type PriceContext struct {
	Change6H  *float64
	Change24H *float64
}

// ClassifierUnavailableError marks a failed LLM attempt. It is handled inside
// the classifier and never returned by Classify.
type ClassifierUnavailableError struct {
	Reason string
	Err    error
}

func (e *ClassifierUnavailableError) Error() string {
	if e.Err == nil {
		return "classifier unavailable: " + e.Reason
	}
	return fmt.Sprintf("classifier unavailable: %s: %v", e.Reason, e.Err)
}

func (e *ClassifierUnavailableError) Unwrap() error {
	return e.Err
}

func neutral(model, reason string) Classification {
	return Classification{Direction: domain.SentimentNeutral, Strength: 0, Model: model, Reason: reason}
}

func clampStrength(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
