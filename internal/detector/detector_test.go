package detector

import (
	"math"
	"testing"
	"time"

	"github.com/radieske/odds-arb-scanner/pkg/contracts/markets"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func h2hEvent(id string, outcomes ...markets.Outcome) markets.EventOdds {
	return markets.EventOdds{
		Event: markets.Event{
			ID:       id,
			SportKey: "soccer_epl",
			HomeTeam: "Home",
			AwayTeam: "Away",
		},
		Markets: map[string][]markets.Outcome{markets.MarketH2H: outcomes},
	}
}

func outcome(name, book string, odds float64) markets.Outcome {
	return markets.Outcome{Name: name, Bookmaker: book, BookmakerKey: book, Odds: odds}
}

func TestDetectTwoWay(t *testing.T) {
	cfg := Config{NearArbThreshold: 0.02, ValueThreshold: 0.05}

	tests := []struct {
		name       string
		odds       [2]float64
		wantType   string
		wantProfit float64 // % ; ignorado quando wantType vazio
	}{
		{
			name:       "arb at 2.10/2.05",
			odds:       [2]float64{2.10, 2.05},
			wantType:   markets.TypeArb,
			wantProfit: (1.0/(1.0/2.10+1.0/2.05) - 1.0) * 100.0,
		},
		{
			name:     "no arb at 1.90/1.90",
			odds:     [2]float64{1.90, 1.90},
			wantType: "",
		},
		{
			name:       "near arb within threshold",
			odds:       [2]float64{2.0, 1.96}, // impliedSum ~1.0102
			wantType:   markets.TypeNearArb,
			wantProfit: (1.0/(1.0/2.0+1.0/1.96) - 1.0) * 100.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := []markets.EventOdds{h2hEvent("ev1",
				outcome("Home", "booka", tt.odds[0]),
				outcome("Away", "bookb", tt.odds[1]),
			)}
			res := Detect(batch, cfg, testNow)

			if tt.wantType == "" {
				if len(res.Arbs) != 0 {
					t.Fatalf("expected no arb, got %+v", res.Arbs)
				}
				return
			}
			if len(res.Arbs) != 1 {
				t.Fatalf("expected 1 arb, got %d", len(res.Arbs))
			}
			arb := res.Arbs[0]
			if arb.Type != tt.wantType {
				t.Errorf("type = %s, want %s", arb.Type, tt.wantType)
			}
			if math.Abs(arb.ProfitPercentage-tt.wantProfit) > 1e-9 {
				t.Errorf("profit = %.12f, want %.12f", arb.ProfitPercentage, tt.wantProfit)
			}
		})
	}
}

func TestDetectArbProfitApprox(t *testing.T) {
	// caso de referência: [2.10, 2.05] rende ~3.73%
	batch := []markets.EventOdds{h2hEvent("ev1",
		outcome("Home", "booka", 2.10),
		outcome("Away", "bookb", 2.05),
	)}
	res := Detect(batch, Config{NearArbThreshold: 0.02}, testNow)
	if len(res.Arbs) != 1 {
		t.Fatalf("expected 1 arb, got %d", len(res.Arbs))
	}
	if p := res.Arbs[0].ProfitPercentage; math.Abs(p-3.73) > 0.01 {
		t.Errorf("profit = %.4f, want ~3.73", p)
	}
}

func TestDetectPicksBestOddsPerSide(t *testing.T) {
	batch := []markets.EventOdds{h2hEvent("ev1",
		outcome("Home", "booka", 1.95),
		outcome("Home", "bookb", 2.10),
		outcome("Away", "booka", 2.05),
		outcome("Away", "bookc", 1.80),
	)}
	res := Detect(batch, Config{NearArbThreshold: 0.02}, testNow)
	if len(res.Arbs) != 1 {
		t.Fatalf("expected 1 arb, got %d", len(res.Arbs))
	}
	arb := res.Arbs[0]
	for _, leg := range arb.Outcomes() {
		switch leg.Name {
		case "Home":
			if leg.BookmakerKey != "bookb" {
				t.Errorf("home leg book = %s, want bookb", leg.BookmakerKey)
			}
		case "Away":
			if leg.BookmakerKey != "booka" {
				t.Errorf("away leg book = %s, want booka", leg.BookmakerKey)
			}
		}
	}
}

func TestDetectThreeWay(t *testing.T) {
	batch := []markets.EventOdds{h2hEvent("ev1",
		outcome("Home", "booka", 3.2),
		outcome("Draw", "bookb", 3.9),
		outcome("Away", "bookc", 3.1),
	)}
	res := Detect(batch, Config{NearArbThreshold: 0.02}, testNow)
	if len(res.Arbs) != 1 {
		t.Fatalf("expected 1 arb, got %d", len(res.Arbs))
	}
	arb := res.Arbs[0]
	if arb.Type != markets.TypeArb {
		t.Fatalf("type = %s, want arb", arb.Type)
	}
	if arb.Outcome3 == nil {
		t.Fatal("three-way arb must carry a third leg")
	}
	impliedSum := 1.0/3.2 + 1.0/3.9 + 1.0/3.1
	want := (1.0/impliedSum - 1.0) * 100.0
	if math.Abs(arb.ProfitPercentage-want) > 1e-9 {
		t.Errorf("profit = %.12f, want %.12f", arb.ProfitPercentage, want)
	}
}

func TestDetectBackLay(t *testing.T) {
	cfg := Config{NearArbThreshold: 0.02, ExchangeKeys: map[string]bool{"exch": true}}
	batch := []markets.EventOdds{h2hEvent("ev1",
		outcome("Home", "booka", 2.2),
		outcome("Away", "bookb", 2.0),
		outcome("Home", "exch", 2.0), // preço de lay
	)}
	res := Detect(batch, cfg, testNow)

	var backLay *markets.ArbOpportunity
	for i := range res.Arbs {
		if res.Arbs[i].BackOutcome != nil {
			backLay = &res.Arbs[i]
		}
	}
	if backLay == nil {
		t.Fatal("expected a back/lay opportunity")
	}
	if backLay.Type != markets.TypeArb {
		t.Errorf("type = %s, want arb", backLay.Type)
	}
	// back 2.2 contra lay 2.0: margem = 2.2/2.0 - 1 = 10%
	if math.Abs(backLay.ProfitPercentage-10.0) > 1e-9 {
		t.Errorf("profit = %.4f, want 10.0", backLay.ProfitPercentage)
	}
	if backLay.LayOutcome.BookmakerKey != "exch" {
		t.Errorf("lay leg book = %s, want exch", backLay.LayOutcome.BookmakerKey)
	}
}

func TestValueBets(t *testing.T) {
	cfg := Config{NearArbThreshold: 0, ValueThreshold: 0.05}
	batch := []markets.EventOdds{h2hEvent("ev1",
		outcome("Home", "booka", 2.0),
		outcome("Home", "bookb", 2.0),
		outcome("Home", "bookc", 2.6), // outlier: fica fora do consenso
		outcome("Away", "booka", 1.8),
		outcome("Away", "bookb", 1.8),
	)}
	res := Detect(batch, cfg, testNow)

	if len(res.ValueBets) != 1 {
		t.Fatalf("expected 1 value bet, got %d: %+v", len(res.ValueBets), res.ValueBets)
	}
	vb := res.ValueBets[0]
	if vb.Outcome.BookmakerKey != "bookc" {
		t.Errorf("value bet book = %s, want bookc", vb.Outcome.BookmakerKey)
	}
	// consenso home = media(1/2.0, 1/2.0) = 0.5; edge = 2.6*0.5 - 1 = 30%
	if math.Abs(vb.ValuePercentage-30.0) > 1e-9 {
		t.Errorf("value %% = %.4f, want 30.0", vb.ValuePercentage)
	}
}

func TestDetectStats(t *testing.T) {
	cfg := Config{NearArbThreshold: 0.02}
	batch := []markets.EventOdds{
		h2hEvent("ev1", outcome("Home", "booka", 2.10), outcome("Away", "bookb", 2.05)),
		h2hEvent("ev2", outcome("Home", "booka", 1.5), outcome("Away", "bookc", 2.2)),
	}
	res := Detect(batch, cfg, testNow)

	if res.Stats.EventsScanned != 2 {
		t.Errorf("events scanned = %d, want 2", res.Stats.EventsScanned)
	}
	if res.Stats.BookmakersSeen != 3 {
		t.Errorf("bookmakers seen = %d, want 3", res.Stats.BookmakersSeen)
	}
	if res.Stats.ArbsFound != 1 {
		t.Errorf("arbs found = %d, want 1", res.Stats.ArbsFound)
	}
}

func TestDetectIgnoresSingleSidedMarket(t *testing.T) {
	batch := []markets.EventOdds{h2hEvent("ev1", outcome("Home", "booka", 2.5))}
	res := Detect(batch, Config{NearArbThreshold: 0.5}, testNow)
	if len(res.Arbs) != 0 {
		t.Fatalf("one-sided market must not produce arbs, got %+v", res.Arbs)
	}
}
