package stakes

import (
	"math"
	"testing"
)

func TestProportionalEqualProfit(t *testing.T) {
	tests := []struct {
		name  string
		odds  []float64
		total float64
	}{
		{"two-way arb", []float64{2.10, 2.05}, 1000},
		{"two-way no arb", []float64{1.90, 1.90}, 500},
		{"three-way", []float64{3.2, 3.9, 3.1}, 250},
		{"uneven legs", []float64{1.25, 6.5}, 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Proportional(tt.odds, tt.total)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var sum, min, max float64
			min, max = math.Inf(1), math.Inf(-1)
			for i, st := range s.Stakes {
				if st <= 0 {
					t.Errorf("stake[%d] = %f, must be positive", i, st)
				}
				sum += st
				if s.Profits[i] < min {
					min = s.Profits[i]
				}
				if s.Profits[i] > max {
					max = s.Profits[i]
				}
			}
			if math.Abs(sum-tt.total) > 1e-9 {
				t.Errorf("stakes sum = %f, want %f", sum, tt.total)
			}
			// lucro igual em toda perna, ao nível do centavo
			if max-min >= 0.01 {
				t.Errorf("profit spread = %f, want < 0.01", max-min)
			}
		})
	}
}

func TestFavourBreakEven(t *testing.T) {
	odds := []float64{2.10, 2.05}
	total := 1000.0

	for favoured := 0; favoured < 2; favoured++ {
		s, err := Favour(odds, total, favoured)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		nf := 1 - favoured
		// perna não favorecida empata exatamente: stake_nf * odds_nf == total
		if got := s.Stakes[nf] * odds[nf]; math.Abs(got-total) > 1e-9 {
			t.Errorf("favoured=%d: stake_nf*odds_nf = %f, want %f", favoured, got, total)
		}
		if math.Abs(s.Profits[nf]) > 1e-9 {
			t.Errorf("favoured=%d: non-favoured profit = %f, want 0", favoured, s.Profits[nf])
		}
		if s.Profits[favoured] <= 0 {
			t.Errorf("favoured=%d: favoured profit = %f, want > 0", favoured, s.Profits[favoured])
		}
	}
}

func TestFavourRejectsNoMargin(t *testing.T) {
	// implied sum >= 1: não sobra stake para a favorecida
	if _, err := Favour([]float64{1.5, 1.5}, 100, 0); err == nil {
		t.Fatal("expected error when implied sum >= 1 leaves nothing for the favoured leg")
	}
}

func TestMiddleSplit(t *testing.T) {
	s, err := MiddleSplit(200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s[0] != 100 || s[1] != 100 {
		t.Errorf("split = %v, want [100 100]", s)
	}
	if _, err := MiddleSplit(0); err == nil {
		t.Error("expected error for zero total")
	}
}

func TestValidation(t *testing.T) {
	if _, err := Proportional([]float64{2.0, 0.9}, 100); err == nil {
		t.Error("odds <= 1.0 must be rejected")
	}
	if _, err := Proportional([]float64{2.0, 2.0}, -5); err == nil {
		t.Error("negative total must be rejected")
	}
	if _, err := Proportional([]float64{2.0}, 100); err == nil {
		t.Error("single leg must be rejected")
	}
}
