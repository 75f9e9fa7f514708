package governor

import (
	"strings"
	"testing"
	"time"

	"github.com/radieske/odds-arb-scanner/internal/subscriber"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		Tiers: map[string]TierConfig{
			"basic": {ScanIntervalSeconds: 3600, MonthlyCreditCap: 100},
		},
		RegionCosts:       map[string]int{"us": 1, "uk": 2},
		DefaultRegionCost: 5,
	}
}

func newTestGovernor() *Governor {
	return NewWithClock(testConfig(), func() time.Time { return testNow })
}

func TestEstimateCredits(t *testing.T) {
	g := newTestGovernor()

	tests := []struct {
		name    string
		regions []string
		want    int
	}{
		{"known regions", []string{"us", "uk"}, 3},
		{"unknown region uses conservative default", []string{"br"}, 5},
		{"mixed", []string{"us", "br"}, 6},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.EstimateCredits(tt.regions); got != tt.want {
				t.Errorf("EstimateCredits(%v) = %d, want %d", tt.regions, got, tt.want)
			}
		})
	}
}

func TestEvaluateCadence(t *testing.T) {
	g := newTestGovernor()

	tests := []struct {
		name       string
		lastScanAt time.Time
		wantState  State
	}{
		{"interval elapsed", testNow.Add(-2 * time.Hour), StateEligible},
		{"exactly at interval", testNow.Add(-time.Hour), StateEligible},
		{"interval not elapsed", testNow.Add(-10 * time.Minute), StateIdle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := subscriber.ScanState{LastScanAt: tt.lastScanAt}
			dec := g.Evaluate("basic", st, []string{"us"})
			if dec.State != tt.wantState {
				t.Errorf("state = %s, want %s (reason: %s)", dec.State, tt.wantState, dec.Reason)
			}
			if dec.State == StateIdle && dec.Reason == "" {
				t.Error("idle decision must carry a reason")
			}
		})
	}
}

func TestEvaluateCreditCap(t *testing.T) {
	g := newTestGovernor()
	old := testNow.Add(-24 * time.Hour)

	tests := []struct {
		name      string
		used      int
		regions   []string
		wantState State
	}{
		{"well under cap", 10, []string{"us"}, StateEligible},
		{"exactly at cap is allowed", 99, []string{"us"}, StateEligible}, // 99 + 1 == 100
		{"one over cap", 100, []string{"us"}, StateIdle},
		{"estimated pushes over", 96, []string{"br"}, StateIdle}, // 96 + 5 > 100
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := subscriber.ScanState{LastScanAt: old, CreditsUsedThisMonth: tt.used}
			dec := g.Evaluate("basic", st, tt.regions)
			if dec.State != tt.wantState {
				t.Errorf("state = %s, want %s (reason: %s)", dec.State, tt.wantState, dec.Reason)
			}
			if tt.wantState == StateIdle && !strings.Contains(dec.Reason, "credit cap") {
				t.Errorf("reason %q must mention the credit cap", dec.Reason)
			}
		})
	}
}

func TestEvaluateUnknownTier(t *testing.T) {
	g := newTestGovernor()
	dec := g.Evaluate("enterprise", subscriber.ScanState{}, []string{"us"})
	if dec.State != StateIdle {
		t.Errorf("state = %s, want idle", dec.State)
	}
	if !strings.Contains(dec.Reason, "enterprise") {
		t.Errorf("reason %q must name the unknown tier", dec.Reason)
	}
}
