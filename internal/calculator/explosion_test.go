package calculator

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestCalculateExplosionProbability_Values(t *testing.T) {
	tests := []struct {
		pumps, max int
		want       float64
	}{
		{0, 128, 1.0 / 128},
		{1, 128, 1.0 / 127},
		{127, 128, 1.0},
		{128, 128, 1.0},
		{200, 128, 1.0},
		{0, 1, 1.0},
		{2, 3, 1.0},
		{0, 3, 1.0 / 3},
	}
	for _, tt := range tests {
		got := CalculateExplosionProbability(tt.pumps, tt.max)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("p(%d, %d): expected %.6f, got %.6f", tt.pumps, tt.max, tt.want, got)
		}
	}
}

func TestCalculateExplosionProbability_AllBelowCeiling(t *testing.T) {
	for m := 1; m <= 64; m++ {
		for k := 0; k < m; k++ {
			want := 1 / float64(m-k)
			if got := CalculateExplosionProbability(k, m); got != want {
				t.Fatalf("p(%d, %d): expected %v, got %v", k, m, want, got)
			}
		}
		if got := CalculateExplosionProbability(m, m); got != 1.0 {
			t.Fatalf("p(%d, %d): expected certain explosion, got %v", m, m, got)
		}
	}
}

func TestCalculateExplosionProbability_Monotonic(t *testing.T) {
	const m = 50
	prev := 0.0
	for k := 0; k <= m+5; k++ {
		p := CalculateExplosionProbability(k, m)
		if p < prev {
			t.Fatalf("probability decreased at k=%d: %v < %v", k, p, prev)
		}
		if p < 0 || p > 1 {
			t.Fatalf("probability out of range at k=%d: %v", k, p)
		}
		prev = p
	}
}

func TestExplodes_UsesDrawAgainstProbability(t *testing.T) {
	tests := []struct {
		name    string
		draw    float64
		pumps   int
		max     int
		explode bool
	}{
		{"survives p=1/2", 0.6, 0, 2, false},
		{"survives p=1/3", 0.6, 0, 3, false},
		{"explodes p=1/2", 0.4, 0, 2, true},
		{"draw equal to p survives", 0.5, 0, 2, false},
		{"always explodes p=1", 0.999, 1, 2, true},
	}
	for _, tt := range tests {
		if got := Explodes(fixedSource(tt.draw), tt.pumps, tt.max); got != tt.explode {
			t.Errorf("%s: draw %v at k=%d M=%d: expected explode=%v", tt.name, tt.draw, tt.pumps, tt.max, tt.explode)
		}
	}
}

// The pump count at which the balloon pops should be uniform over [0, M).
func TestExplosionPoint_UniformDistribution(t *testing.T) {
	const (
		m      = 8
		trials = 80000
	)
	rng := rand.New(rand.NewPCG(42, 1024))
	counts := make([]int, m+1)
	for i := 0; i < trials; i++ {
		k := 0
		for !Explodes(rng, k, m) {
			k++
		}
		counts[k]++
	}
	if counts[m] != 0 {
		t.Fatalf("balloon survived to the ceiling %d times", counts[m])
	}
	expected := float64(trials) / m
	for k := 0; k < m; k++ {
		dev := math.Abs(float64(counts[k])-expected) / expected
		if dev > 0.05 {
			t.Errorf("k=%d: count %d deviates %.1f%% from uniform %.0f", k, counts[k], dev*100, expected)
		}
	}
}

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }
