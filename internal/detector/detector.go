package detector

import (
	"sort"
	"time"

	"github.com/radieske/odds-arb-scanner/pkg/contracts/markets"
)

// Config reúne os thresholds do detector de mercados h2h.
// NearArbThreshold e ValueThreshold são frações (0.02 = 2%).
type Config struct {
	NearArbThreshold float64
	ValueThreshold   float64
	// Bookmakers tratados como exchange: as odds deles são preços de lay.
	ExchangeKeys map[string]bool
}

// Result é a saída de um passe do detector sobre um lote de eventos.
type Result struct {
	Arbs      []markets.ArbOpportunity
	ValueBets []markets.ValueBet
	Stats     markets.ScanStats
}

// Detect classifica mercados h2h de duas e três vias em arbitragens,
// quase-arbitragens e value bets. Função pura: sem I/O, sem estado;
// `now` é injetado para carimbar LastUpdated.
func Detect(batch []markets.EventOdds, cfg Config, now time.Time) Result {
	var res Result
	seenBooks := map[string]bool{}

	for _, eo := range batch {
		outcomes := eo.Markets[markets.MarketH2H]
		if len(outcomes) == 0 {
			continue
		}
		res.Stats.EventsScanned++

		backs, lays := splitByVenue(outcomes, cfg.ExchangeKeys)
		for _, o := range outcomes {
			seenBooks[o.BookmakerKey] = true
		}

		sides := groupBySide(backs)
		if len(sides) < 2 || len(sides) > 3 {
			// mercado h2h incompleto ou exótico; não há como fechar todas as vias
			continue
		}

		if arb, ok := bestBookArb(eo.Event, sides, cfg.NearArbThreshold, now); ok {
			res.Arbs = append(res.Arbs, arb)
			countArb(&res.Stats, arb.Type)
		}

		for _, arb := range backLayArbs(eo.Event, sides, lays, cfg.NearArbThreshold, now) {
			res.Arbs = append(res.Arbs, arb)
			countArb(&res.Stats, arb.Type)
		}

		vbs := valueBets(eo.Event, sides, cfg.ValueThreshold)
		res.ValueBets = append(res.ValueBets, vbs...)
		res.Stats.ValueBetsFound += len(vbs)
	}

	res.Stats.BookmakersSeen = len(seenBooks)
	return res
}

func countArb(s *markets.ScanStats, typ string) {
	if typ == markets.TypeArb {
		s.ArbsFound++
	} else {
		s.NearArbsFound++
	}
}

// splitByVenue separa outcomes de casas comuns (back) e de exchanges (lay).
func splitByVenue(outcomes []markets.Outcome, exchanges map[string]bool) (backs, lays []markets.Outcome) {
	for _, o := range outcomes {
		if exchanges[o.BookmakerKey] {
			lays = append(lays, o)
		} else {
			backs = append(backs, o)
		}
	}
	return backs, lays
}

// groupBySide agrupa outcomes pelo nome do lado (home/draw/away) preservando
// ordem determinística dos lados.
func groupBySide(outcomes []markets.Outcome) map[string][]markets.Outcome {
	sides := map[string][]markets.Outcome{}
	for _, o := range outcomes {
		sides[o.Name] = append(sides[o.Name], o)
	}
	return sides
}

// sortedSideNames devolve os lados em ordem estável para saída reproduzível.
func sortedSideNames(sides map[string][]markets.Outcome) []string {
	names := make([]string, 0, len(sides))
	for n := range sides {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// bestOdds devolve o outcome de maior odd de um lado.
func bestOdds(os []markets.Outcome) markets.Outcome {
	best := os[0]
	for _, o := range os[1:] {
		if o.Odds > best.Odds {
			best = o
		}
	}
	return best
}

// bestBookArb monta a arbitragem book-vs-book com a melhor odd de cada lado.
// impliedSum < 1 é arb; até nearThreshold acima de 1 é near-arb.
func bestBookArb(ev markets.Event, sides map[string][]markets.Outcome, nearThreshold float64, now time.Time) (markets.ArbOpportunity, bool) {
	names := sortedSideNames(sides)

	best := make([]markets.Outcome, 0, len(names))
	impliedSum := 0.0
	for _, n := range names {
		b := bestOdds(sides[n])
		if b.Odds <= 1.0 {
			return markets.ArbOpportunity{}, false
		}
		best = append(best, b)
		impliedSum += 1.0 / b.Odds
	}

	typ := ""
	switch {
	case impliedSum < 1.0:
		typ = markets.TypeArb
	case impliedSum-1.0 <= nearThreshold:
		typ = markets.TypeNearArb
	default:
		return markets.ArbOpportunity{}, false
	}

	arb := markets.ArbOpportunity{
		Type:             typ,
		ProfitPercentage: (1.0/impliedSum - 1.0) * 100.0,
		Event:            ev,
		Outcome1:         &best[0],
		Outcome2:         &best[1],
		LastUpdated:      now,
	}
	if len(best) == 3 {
		arb.Outcome3 = &best[2]
	}
	return arb, true
}

// backLayArbs procura pares back-vs-lay: melhor back em casa comum contra o
// menor preço de lay na exchange para o mesmo lado. Com back B e lay L,
// o lucro proporcional é B/L - 1 (stake de lay = stake*B/L equaliza os ramos).
func backLayArbs(ev markets.Event, sides map[string][]markets.Outcome, lays []markets.Outcome, nearThreshold float64, now time.Time) []markets.ArbOpportunity {
	if len(lays) == 0 {
		return nil
	}

	laysBySide := groupBySide(lays)
	var out []markets.ArbOpportunity
	for _, name := range sortedSideNames(sides) {
		ls, ok := laysBySide[name]
		if !ok {
			continue
		}
		back := bestOdds(sides[name])
		lay := ls[0]
		for _, l := range ls[1:] {
			if l.Odds < lay.Odds {
				lay = l
			}
		}
		if back.Odds <= 1.0 || lay.Odds <= 1.0 {
			continue
		}

		margin := back.Odds/lay.Odds - 1.0
		typ := ""
		switch {
		case margin > 0:
			typ = markets.TypeArb
		case -margin <= nearThreshold:
			typ = markets.TypeNearArb
		default:
			continue
		}

		b, l := back, lay
		out = append(out, markets.ArbOpportunity{
			Type:             typ,
			ProfitPercentage: margin * 100.0,
			Event:            ev,
			BackOutcome:      &b,
			LayOutcome:       &l,
			LastUpdated:      now,
		})
	}
	return out
}

// valueBets compara cada preço com a probabilidade justa de consenso do lado.
// O consenso é a média de 1/odds entre as casas do lado; com 3+ cotações a
// melhor odd (o outlier usado na perna de arb) fica de fora da média.
func valueBets(ev markets.Event, sides map[string][]markets.Outcome, threshold float64) []markets.ValueBet {
	var out []markets.ValueBet
	for _, name := range sortedSideNames(sides) {
		os := sides[name]
		fair, ok := consensusProbability(os)
		if !ok {
			continue
		}
		for _, o := range os {
			edge := o.Odds*fair - 1.0
			if edge >= threshold {
				out = append(out, markets.ValueBet{
					Outcome:         o,
					ValuePercentage: edge * 100.0,
					Event:           ev,
				})
			}
		}
	}
	return out
}

// consensusProbability calcula a probabilidade justa média de um lado.
func consensusProbability(os []markets.Outcome) (float64, bool) {
	if len(os) < 2 {
		return 0, false
	}

	excluded := -1
	if len(os) >= 3 {
		best := 0
		for i, o := range os {
			if o.Odds > os[best].Odds {
				best = i
			}
		}
		excluded = best
	}

	sum, n := 0.0, 0
	for i, o := range os {
		if i == excluded || o.Odds <= 1.0 {
			continue
		}
		sum += 1.0 / o.Odds
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
