package sentiment

import (
	"fmt"
	"math"

	"bluerate/internal/domain"
)

const (
	threshold24H = 0.5
	threshold6H  = 0.3

	contradictionFactor       = 0.6
	strongContradictionFactor = 0.4
)

// Reconcile dampens a classification whose direction contradicts a meaningful
// realized move. The direction itself never changes and neutral is left as is.
func Reconcile(c Classification, price PriceContext) Classification {
	if c.Direction == domain.SentimentNeutral || c.Strength <= 0 {
		return c
	}

	var change, threshold float64
	var window string
	switch {
	case price.Change24H != nil && isFinite(*price.Change24H):
		change, threshold, window = *price.Change24H, threshold24H, "24h"
	case price.Change6H != nil && isFinite(*price.Change6H):
		change, threshold, window = *price.Change6H, threshold6H, "6h"
	default:
		return c
	}

	if math.Abs(change) < threshold {
		return c
	}
	contradicts := (c.Direction == domain.SentimentUp && change < 0) ||
		(c.Direction == domain.SentimentDown && change > 0)
	if !contradicts {
		return c
	}

	factor := contradictionFactor
	if math.Abs(change) >= 3*threshold {
		factor = strongContradictionFactor
	}
	strength := int(math.Round(float64(c.Strength) * factor))
	if strength < 1 {
		strength = 1
	}

	out := c
	out.Strength = strength
	out.Reason = fmt.Sprintf("%s; dampened by %s move %.2f%%", c.Reason, window, change)
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
