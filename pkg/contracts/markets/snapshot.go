package markets

import "time"

// RegionSnapshot é o resultado completo de um scan de uma região, gravado no
// cache autoritativo e lido por todos os consumidores.
type RegionSnapshot struct {
	Region        string              `json:"region"`
	Opportunities []ArbOpportunity    `json:"opportunities"`
	ValueBets     []ValueBet          `json:"value_bets"`
	SpreadArbs    []SpreadArb         `json:"spread_arbs"`
	TotalsArbs    []TotalsArb         `json:"totals_arbs"`
	Middles       []MiddleOpportunity `json:"middles"`
	Stats         ScanStats           `json:"stats"`
	LineStats     LineStats           `json:"line_stats"`
	ScannedAt     time.Time           `json:"scanned_at"`
}
