package events

import (
	"time"

	"github.com/radieske/odds-arb-scanner/pkg/contracts/markets"
)

// ProgressBatch é o lote parcial publicado durante um scan para que um
// cliente em polling veja resultados antes da região inteira terminar.
// Entrega best-effort; o cache autoritativo é a fonte de verdade.
type ProgressBatch struct {
	Region        string                      `json:"region"`
	ScanID        string                      `json:"scan_id"`
	BatchIndex    int                         `json:"batch_index"`
	SportKey      string                      `json:"sport_key"`
	Opportunities []markets.ArbOpportunity    `json:"opportunities"`
	ValueBets     []markets.ValueBet          `json:"value_bets"`
	SpreadArbs    []markets.SpreadArb         `json:"spread_arbs"`
	TotalsArbs    []markets.TotalsArb         `json:"totals_arbs"`
	Middles       []markets.MiddleOpportunity `json:"middles"`
	IsLastBatch   bool                        `json:"is_last_batch"`
	Ts            time.Time                   `json:"ts"`
}
