package stats

import (
	"math"
	"testing"
)

func TestMedianEmpty(t *testing.T) {
	if _, ok := Median(nil); ok {
		t.Fatal("expected no median for empty input")
	}
	if _, ok := Median([]float64{math.NaN(), math.Inf(1), math.Inf(-1)}); ok {
		t.Fatal("expected no median for all non-finite input")
	}
}

func TestMedianSingle(t *testing.T) {
	got, ok := Median([]float64{6.97})
	if !ok || got != 6.97 {
		t.Fatalf("expected 6.97, got %v (ok=%v)", got, ok)
	}
}

func TestMedianOddAndEven(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"odd", []float64{3, 1, 2}, 2},
		{"even", []float64{4, 1, 3, 2}, 2.5},
		{"outlier", []float64{9.9, 10.0, 10.1, 1000}, 10.05},
		{"non-finite filtered", []float64{1, 2, math.NaN(), 3, math.Inf(1), 4}, 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Median(tt.values)
			if !ok {
				t.Fatal("expected median")
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMedianPermutationInvariant(t *testing.T) {
	perms := [][]float64{
		{5, 1, 4, 2, 3},
		{1, 2, 3, 4, 5},
		{3, 5, 2, 1, 4},
		{4, 3, 1, 5, 2},
	}
	for _, p := range perms {
		got, ok := Median(p)
		if !ok || got != 3 {
			t.Fatalf("expected 3 for %v, got %v", p, got)
		}
	}
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	in := []float64{3, 1, 2}
	Median(in)
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Fatalf("input was reordered: %v", in)
	}
}
