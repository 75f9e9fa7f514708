package oddsfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/odds-arb-scanner/pkg/contracts/markets"
)

func wsServer(t *testing.T, messages []string) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
	}))
}

func TestStreamOddsDeliversBatchesUntilLast(t *testing.T) {
	srv := wsServer(t, []string{
		`{"sport_key":"soccer_epl","events":[{"id":"ev1","sport_key":"soccer_epl","home_team":"A","away_team":"B","commence_time":"2025-06-02T15:00:00Z","bookmakers":[{"key":"booka","title":"Book A","markets":[{"key":"h2h","outcomes":[{"name":"A","price":2.0},{"name":"B","price":2.0}]}]}]}],"last":false}`,
		`not json`,
		`{"sport_key":"basketball_nba","events":[],"last":true}`,
	})
	defer srv.Close()

	sc := &StreamClient{
		URL: "ws" + strings.TrimPrefix(srv.URL, "http"),
		Log: zap.NewNop(),
	}

	var keys []string
	var firstBatch []markets.EventOdds
	err := sc.StreamOdds(context.Background(), func(sportKey string, batch []markets.EventOdds) {
		keys = append(keys, sportKey)
		if len(keys) == 1 {
			firstBatch = batch
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// a mensagem inválida é pulada, não derruba o stream
	if len(keys) != 2 || keys[0] != "soccer_epl" || keys[1] != "basketball_nba" {
		t.Errorf("batch keys = %v", keys)
	}
	if len(firstBatch) != 1 || firstBatch[0].Event.ID != "ev1" {
		t.Errorf("first batch = %+v", firstBatch)
	}
	if got := len(firstBatch[0].Markets[markets.MarketH2H]); got != 2 {
		t.Errorf("h2h outcomes = %d, want 2", got)
	}
}

func TestStreamOddsStopsOnContextCancel(t *testing.T) {
	// servidor que nunca envia a mensagem final
	srv := wsServer(t, []string{`{"sport_key":"soccer_epl","events":[],"last":false}`})
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sc := &StreamClient{
		URL: "ws" + strings.TrimPrefix(srv.URL, "http"),
		Log: zap.NewNop(),
	}

	done := make(chan error, 1)
	go func() {
		done <- sc.StreamOdds(ctx, func(string, []markets.EventOdds) {})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after cancel")
	}
}
