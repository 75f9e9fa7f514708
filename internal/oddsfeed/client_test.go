package oddsfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/radieske/odds-arb-scanner/pkg/contracts/markets"
)

const oddsPayload = `[
  {
    "id": "ev1",
    "sport_key": "soccer_epl",
    "home_team": "Arsenal",
    "away_team": "Chelsea",
    "commence_time": "2025-06-02T15:00:00Z",
    "bookmakers": [
      {
        "key": "BookA",
        "title": "Book A",
        "markets": [
          {
            "key": "h2h",
            "outcomes": [
              {"name": "Arsenal", "price": 2.10},
              {"name": "Chelsea", "price": 3.40},
              {"name": "Draw", "price": 3.60}
            ]
          },
          {
            "key": "totals",
            "outcomes": [
              {"name": "Over", "price": 1.91, "point": 2.5},
              {"name": "Under", "price": 1.91, "point": 2.5}
            ]
          }
        ]
      }
    ]
  }
]`

func TestFetchOdds(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("x-requests-remaining", "418")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(oddsPayload))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret")
	res, err := c.FetchOdds(context.Background(), []string{"soccer_epl"}, []string{"h2h", "totals"}, []string{"us"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/v4/sports/soccer_epl/odds" {
		t.Errorf("path = %s", gotPath)
	}
	if !strings.Contains(gotQuery, "regions=us") || !strings.Contains(gotQuery, "markets=h2h%2Ctotals") {
		t.Errorf("query = %s", gotQuery)
	}
	if res.RemainingQuota != 418 {
		t.Errorf("remaining quota = %d, want 418", res.RemainingQuota)
	}
	if len(res.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(res.Events))
	}

	ev := res.Events[0]
	if ev.Event.ID != "ev1" || ev.Event.HomeTeam != "Arsenal" {
		t.Errorf("event = %+v", ev.Event)
	}
	if len(ev.Markets[markets.MarketH2H]) != 3 {
		t.Errorf("h2h outcomes = %d, want 3", len(ev.Markets[markets.MarketH2H]))
	}
	totals := ev.Markets[markets.MarketTotals]
	if len(totals) != 2 || totals[0].Point == nil || *totals[0].Point != 2.5 {
		t.Errorf("totals outcomes = %+v", totals)
	}
	// chave do bookmaker é canônica, minúscula
	if got := ev.Markets[markets.MarketH2H][0].BookmakerKey; got != "booka" {
		t.Errorf("bookmaker key = %s, want booka", got)
	}
}

func TestFetchOddsBatchedDeliversPerSport(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(oddsPayload))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret")
	var sports []string
	err := c.FetchOddsBatched(context.Background(), []string{"soccer_epl", "basketball_nba"}, []string{"h2h"}, []string{"us"},
		func(sportKey string, batch []markets.EventOdds) {
			sports = append(sports, sportKey)
		}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("http calls = %d, want one per sport", calls)
	}
	if len(sports) != 2 || sports[0] != "soccer_epl" || sports[1] != "basketball_nba" {
		t.Errorf("batch keys = %v", sports)
	}
}

func TestFetchOddsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exhausted", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret")
	if _, err := c.FetchOdds(context.Background(), []string{"soccer_epl"}, []string{"h2h"}, []string{"us"}); err == nil {
		t.Fatal("expected error on http 429")
	}
}

func TestListSports(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v4/sports" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"key":"soccer_epl","has_outrights":false},{"key":"politics","has_outrights":true}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret")
	sports, err := c.ListSports(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sports) != 2 || sports[0].Key != "soccer_epl" || !sports[1].HasOutrights {
		t.Errorf("sports = %+v", sports)
	}
}
