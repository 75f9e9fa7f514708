package markets

import "time"

// Tipos de mercado aceitos pelo provedor de odds
const (
	MarketH2H     = "h2h"
	MarketSpreads = "spreads"
	MarketTotals  = "totals"
)

// Classificação de uma oportunidade detectada
const (
	TypeArb     = "arb"
	TypeNearArb = "near-arb"
)

// Event representa um evento esportivo retornado pelo provedor de odds.
// Imutável após o fetch; a identidade é o ID.
type Event struct {
	ID           string    `json:"id"`
	SportKey     string    `json:"sport_key"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	CommenceTime time.Time `json:"commence_time"`
}

// Outcome é um preço de um bookmaker para um lado de um mercado.
// Point só existe em mercados de linha (spreads/totals).
type Outcome struct {
	Name         string   `json:"name"`
	Bookmaker    string   `json:"bookmaker"`     // nome de exibição
	BookmakerKey string   `json:"bookmaker_key"` // chave canônica, minúscula
	Odds         float64  `json:"odds"`          // decimal, > 1.0
	Point        *float64 `json:"point,omitempty"`
}

// ArbOpportunity é uma arbitragem (ou quase-arbitragem) entre bookmakers.
// Variante book-vs-book usa Outcome1/Outcome2 (e Outcome3 em mercados de 3 vias);
// variante book-vs-exchange usa BackOutcome/LayOutcome.
type ArbOpportunity struct {
	Type             string    `json:"type"` // "arb" | "near-arb"
	ProfitPercentage float64   `json:"profit_percentage"`
	Event            Event     `json:"event"`
	Outcome1         *Outcome  `json:"outcome1,omitempty"`
	Outcome2         *Outcome  `json:"outcome2,omitempty"`
	Outcome3         *Outcome  `json:"outcome3,omitempty"`
	BackOutcome      *Outcome  `json:"back_outcome,omitempty"`
	LayOutcome       *Outcome  `json:"lay_outcome,omitempty"`
	LastUpdated      time.Time `json:"last_updated"`
}

// Outcomes devolve as pernas book-vs-book presentes, na ordem.
func (a ArbOpportunity) Outcomes() []*Outcome {
	out := make([]*Outcome, 0, 3)
	for _, o := range []*Outcome{a.Outcome1, a.Outcome2, a.Outcome3} {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

// ValueBet é uma aposta individual cujo preço excede o preço justo de consenso.
type ValueBet struct {
	Outcome         Outcome `json:"outcome"`
	ValuePercentage float64 `json:"value_percentage"`
	Event           Event   `json:"event"`
}

// SpreadArb é uma arbitragem em mercado de handicap; os dois lados carregam a linha.
type SpreadArb struct {
	Type             string    `json:"type"`
	ProfitPercentage float64   `json:"profit_percentage"`
	Event            Event     `json:"event"`
	Favorite         Outcome   `json:"favorite"`
	Underdog         Outcome   `json:"underdog"`
	LastUpdated      time.Time `json:"last_updated"`
}

// TotalsArb é uma arbitragem em mercado de totais (over/under) na mesma linha.
type TotalsArb struct {
	Type             string    `json:"type"`
	ProfitPercentage float64   `json:"profit_percentage"`
	Event            Event     `json:"event"`
	Over             Outcome   `json:"over"`
	Under            Outcome   `json:"under"`
	LastUpdated      time.Time `json:"last_updated"`
}

// MiddleOpportunity é um "middle": duas apostas em linhas diferentes do mesmo
// mercado que podem ganhar juntas se o resultado cair dentro da janela.
type MiddleOpportunity struct {
	Event             Event   `json:"event"`
	Side1             Outcome `json:"side1"`
	Side2             Outcome `json:"side2"`
	MiddleRange       string  `json:"middle_range"`       // descrição legível da janela
	MiddleProbability float64 `json:"middle_probability"` // heurística, 0–100
	ExpectedValue     float64 `json:"expected_value"`
}

// ScanStats acumula contadores de um scan h2h; descartado entre scans.
type ScanStats struct {
	EventsScanned  int `json:"events_scanned"`
	BookmakersSeen int `json:"bookmakers_seen"`
	ArbsFound      int `json:"arbs_found"`
	NearArbsFound  int `json:"near_arbs_found"`
	ValueBetsFound int `json:"value_bets_found"`
}

// Merge soma os contadores de outro lote ao acumulado.
func (s *ScanStats) Merge(o ScanStats) {
	s.EventsScanned += o.EventsScanned
	s.BookmakersSeen += o.BookmakersSeen
	s.ArbsFound += o.ArbsFound
	s.NearArbsFound += o.NearArbsFound
	s.ValueBetsFound += o.ValueBetsFound
}

// LineStats acumula contadores de um scan de linhas (spreads/totals).
type LineStats struct {
	EventsScanned   int `json:"events_scanned"`
	BookmakersSeen  int `json:"bookmakers_seen"`
	SpreadArbsFound int `json:"spread_arbs_found"`
	TotalsArbsFound int `json:"totals_arbs_found"`
	MiddlesFound    int `json:"middles_found"`
}

// Merge soma os contadores de outro lote ao acumulado.
func (s *LineStats) Merge(o LineStats) {
	s.EventsScanned += o.EventsScanned
	s.BookmakersSeen += o.BookmakersSeen
	s.SpreadArbsFound += o.SpreadArbsFound
	s.TotalsArbsFound += o.TotalsArbsFound
	s.MiddlesFound += o.MiddlesFound
}

// EventOdds agrupa, para um evento, os outcomes cotados por mercado.
// É a unidade de entrada dos detectores: cada chave de mercado leva à lista
// de outcomes de todos os bookmakers para aquele mercado.
type EventOdds struct {
	Event   Event                `json:"event"`
	Markets map[string][]Outcome `json:"markets"` // "h2h" | "spreads" | "totals"
}
