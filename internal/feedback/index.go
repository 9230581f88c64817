package feedback

import (
	"sort"
	"time"

	"bluerate/internal/domain"
)

// PriceIndex is a time-sorted view of mid prices.
type PriceIndex struct {
	points []domain.PricePoint
}

func NewPriceIndex(points []domain.PricePoint) *PriceIndex {
	sorted := make([]domain.PricePoint, 0, len(points))
	for _, p := range points {
		if p.Mid > 0 {
			sorted = append(sorted, p)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })
	return &PriceIndex{points: sorted}
}

func (ix *PriceIndex) Len() int {
	return len(ix.points)
}

// Nearest returns the point closest to t; ties go to the earlier point.
func (ix *PriceIndex) Nearest(t time.Time) (domain.PricePoint, bool) {
	if len(ix.points) == 0 {
		return domain.PricePoint{}, false
	}
	i := sort.Search(len(ix.points), func(i int) bool { return !ix.points[i].Time.Before(t) })
	switch {
	case i == 0:
		return ix.points[0], true
	case i == len(ix.points):
		return ix.points[i-1], true
	}
	before, after := ix.points[i-1], ix.points[i]
	if t.Sub(before.Time) <= after.Time.Sub(t) {
		return before, true
	}
	return after, true
}

// NearestWithin is Nearest restricted to points at most tolerance away from t.
func (ix *PriceIndex) NearestWithin(t time.Time, tolerance time.Duration) (domain.PricePoint, bool) {
	p, ok := ix.Nearest(t)
	if !ok {
		return p, false
	}
	d := p.Time.Sub(t)
	if d < 0 {
		d = -d
	}
	if d > tolerance {
		return domain.PricePoint{}, false
	}
	return p, true
}
