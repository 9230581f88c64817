package rates

import (
	"errors"
	"fmt"
	"strings"

	"bluerate/internal/domain"
)

// ErrOfficialUnavailable is returned when every official-rate tier failed.
var ErrOfficialUnavailable = errors.New("official rate unavailable")

// QuoteFetchError is returned once every retry for one side of a pair failed.
type QuoteFetchError struct {
	Pair     domain.Pair
	Side     domain.Side
	Attempts int
	Err      error
}

func (e *QuoteFetchError) Error() string {
	return fmt.Sprintf("fetch %s %s quotes after %d attempts: %v", e.Pair, e.Side, e.Attempts, e.Err)
}

func (e *QuoteFetchError) Unwrap() error {
	return e.Err
}

// InsufficientDataError means a side had no finite quote to take the median of.
type InsufficientDataError struct {
	Pair domain.Pair
	Side domain.Side
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("rate unavailable for %s: no valid %s quotes", e.Pair, e.Side)
}

type officialChainError struct {
	tiers []TierResult
}

func (e *officialChainError) Error() string {
	parts := make([]string, 0, len(e.tiers))
	for _, t := range e.tiers {
		parts = append(parts, t.Tier+": "+t.Err.Error())
	}
	return ErrOfficialUnavailable.Error() + " (" + strings.Join(parts, "; ") + ")"
}

func (e *officialChainError) Unwrap() error {
	return ErrOfficialUnavailable
}
