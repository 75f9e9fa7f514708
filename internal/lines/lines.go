package lines

import (
	"fmt"
	"sort"
	"time"

	"github.com/radieske/odds-arb-scanner/pkg/contracts/markets"
)

// Config reúne os thresholds do detector de mercados de linha.
type Config struct {
	NearArbThreshold float64
}

// Result é a saída de um passe sobre um lote de eventos com spreads/totals.
type Result struct {
	SpreadArbs []markets.SpreadArb
	TotalsArbs []markets.TotalsArb
	Middles    []markets.MiddleOpportunity
	Stats      markets.LineStats
}

// Detect aplica a mesma mecânica de melhor-odds/probabilidade implícita do
// detector h2h, mas por valor de linha: spread/total precisa casar entre as
// casas para fechar as duas pernas. Middles são detectados entre linhas
// diferentes. Função pura.
func Detect(batch []markets.EventOdds, cfg Config, now time.Time) Result {
	var res Result
	seenBooks := map[string]bool{}

	for _, eo := range batch {
		spreads := eo.Markets[markets.MarketSpreads]
		totals := eo.Markets[markets.MarketTotals]
		if len(spreads) == 0 && len(totals) == 0 {
			continue
		}
		res.Stats.EventsScanned++
		for _, o := range append(append([]markets.Outcome{}, spreads...), totals...) {
			seenBooks[o.BookmakerKey] = true
		}

		sa := spreadArbs(eo.Event, spreads, cfg.NearArbThreshold, now)
		res.SpreadArbs = append(res.SpreadArbs, sa...)
		res.Stats.SpreadArbsFound += len(sa)

		ta := totalsArbs(eo.Event, totals, cfg.NearArbThreshold, now)
		res.TotalsArbs = append(res.TotalsArbs, ta...)
		res.Stats.TotalsArbsFound += len(ta)

		mids := append(spreadMiddles(eo.Event, spreads), totalsMiddles(eo.Event, totals)...)
		res.Middles = append(res.Middles, mids...)
		res.Stats.MiddlesFound += len(mids)
	}

	res.Stats.BookmakersSeen = len(seenBooks)
	return res
}

// classify devolve o tipo da oportunidade a partir da soma implícita.
func classify(impliedSum, nearThreshold float64) (string, bool) {
	switch {
	case impliedSum < 1.0:
		return markets.TypeArb, true
	case impliedSum-1.0 <= nearThreshold:
		return markets.TypeNearArb, true
	}
	return "", false
}

// spreadArbs casa favorito (point negativo) e azarão (point positivo) na mesma
// linha absoluta e testa a soma implícita das melhores odds.
func spreadArbs(ev markets.Event, outcomes []markets.Outcome, nearThreshold float64, now time.Time) []markets.SpreadArb {
	favs, dogs := splitSpreadSides(outcomes)
	if len(favs) == 0 || len(dogs) == 0 {
		return nil
	}

	var out []markets.SpreadArb
	for _, line := range sortedLines(favs) {
		fav := bestAtLine(favs, line)
		dog := bestAtLine(dogs, -line)
		if fav == nil || dog == nil || fav.Odds <= 1.0 || dog.Odds <= 1.0 {
			continue
		}
		impliedSum := 1.0/fav.Odds + 1.0/dog.Odds
		typ, ok := classify(impliedSum, nearThreshold)
		if !ok {
			continue
		}
		out = append(out, markets.SpreadArb{
			Type:             typ,
			ProfitPercentage: (1.0/impliedSum - 1.0) * 100.0,
			Event:            ev,
			Favorite:         *fav,
			Underdog:         *dog,
			LastUpdated:      now,
		})
	}
	return out
}

// totalsArbs casa over e under na mesma linha.
func totalsArbs(ev markets.Event, outcomes []markets.Outcome, nearThreshold float64, now time.Time) []markets.TotalsArb {
	overs, unders := splitTotalsSides(outcomes)
	if len(overs) == 0 || len(unders) == 0 {
		return nil
	}

	var out []markets.TotalsArb
	for _, line := range sortedLines(overs) {
		over := bestAtLine(overs, line)
		under := bestAtLine(unders, line)
		if over == nil || under == nil || over.Odds <= 1.0 || under.Odds <= 1.0 {
			continue
		}
		impliedSum := 1.0/over.Odds + 1.0/under.Odds
		typ, ok := classify(impliedSum, nearThreshold)
		if !ok {
			continue
		}
		out = append(out, markets.TotalsArb{
			Type:             typ,
			ProfitPercentage: (1.0/impliedSum - 1.0) * 100.0,
			Event:            ev,
			Over:             *over,
			Under:            *under,
			LastUpdated:      now,
		})
	}
	return out
}

// spreadMiddles procura janelas entre linhas diferentes: favorito a -a na casa
// A e azarão a +b na casa B abrem um middle quando b > a — as duas apostas
// ganham se a margem real cair estritamente entre a e b.
func spreadMiddles(ev markets.Event, outcomes []markets.Outcome) []markets.MiddleOpportunity {
	favs, dogs := splitSpreadSides(outcomes)
	var out []markets.MiddleOpportunity
	for _, f := range favs {
		for _, d := range dogs {
			if f.BookmakerKey == d.BookmakerKey {
				continue
			}
			lo := -*f.Point // favorito -a ganha com margem > a
			hi := *d.Point  // azarão +b ganha com margem < b
			gap := hi - lo
			if gap <= 0 {
				// linhas idênticas ou sobrepostas: não existe middle
				continue
			}
			rng := fmt.Sprintf("margem entre %.1f e %.1f", lo, hi)
			out = append(out, buildMiddle(ev, f, d, rng, gap))
		}
	}
	return dedupeMiddles(out)
}

// totalsMiddles: over na linha L1 e under na linha L2 com L2 > L1 abrem a
// janela L1 < total < L2.
func totalsMiddles(ev markets.Event, outcomes []markets.Outcome) []markets.MiddleOpportunity {
	overs, unders := splitTotalsSides(outcomes)
	var out []markets.MiddleOpportunity
	for _, ov := range overs {
		for _, un := range unders {
			if ov.BookmakerKey == un.BookmakerKey {
				continue
			}
			gap := *un.Point - *ov.Point
			if gap <= 0 {
				continue
			}
			rng := fmt.Sprintf("total entre %.1f e %.1f", *ov.Point, *un.Point)
			out = append(out, buildMiddle(ev, ov, un, rng, gap))
		}
	}
	return dedupeMiddles(out)
}

func buildMiddle(ev markets.Event, s1, s2 markets.Outcome, rng string, gap float64) markets.MiddleOpportunity {
	prob := probabilityForGap(gap)
	// stake unitário por perna: ganho combinado se o middle acerta, e perda
	// líquida no pior cenário (só a perna de menor odd ganha)
	combinedWin := (s1.Odds - 1.0) + (s2.Odds - 1.0)
	minOdds := s1.Odds
	if s2.Odds < minOdds {
		minOdds = s2.Odds
	}
	worstLoss := 2.0 - minOdds
	if worstLoss < 0 {
		worstLoss = 0
	}
	p := prob / 100.0
	return markets.MiddleOpportunity{
		Event:             ev,
		Side1:             s1,
		Side2:             s2,
		MiddleRange:       rng,
		MiddleProbability: prob,
		ExpectedValue:     p*combinedWin - (1.0-p)*worstLoss,
	}
}

// Tabela empírica largura-da-janela → probabilidade (%), com teto.
// É parâmetro de política, não modelo calibrado; ver DESIGN.md.
var gapProbTable = []struct {
	width float64
	prob  float64
}{
	{0.5, 8},
	{1.0, 12},
	{2.0, 18},
	{3.0, 25},
	{4.0, 30},
	{5.0, 35},
	{6.0, 40},
}

const gapProbCap = 45.0

func probabilityForGap(width float64) float64 {
	prob := gapProbTable[0].prob
	for _, e := range gapProbTable {
		if width >= e.width {
			prob = e.prob
		}
	}
	if width > gapProbTable[len(gapProbTable)-1].width+2 {
		prob = gapProbCap
	}
	return prob
}

// dedupeMiddles mantém, por par de linhas, apenas o middle de maior EV.
func dedupeMiddles(mids []markets.MiddleOpportunity) []markets.MiddleOpportunity {
	best := map[string]markets.MiddleOpportunity{}
	for _, m := range mids {
		k := fmt.Sprintf("%.2f|%.2f", *m.Side1.Point, *m.Side2.Point)
		if cur, ok := best[k]; !ok || m.ExpectedValue > cur.ExpectedValue {
			best[k] = m
		}
	}
	out := make([]markets.MiddleOpportunity, 0, len(best))
	for _, m := range best {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpectedValue > out[j].ExpectedValue })
	return out
}

func splitSpreadSides(outcomes []markets.Outcome) (favs, dogs []markets.Outcome) {
	for _, o := range outcomes {
		if o.Point == nil {
			continue
		}
		if *o.Point < 0 {
			favs = append(favs, o)
		} else if *o.Point > 0 {
			dogs = append(dogs, o)
		}
		// point zero (pick'em) não fecha par favorito/azarão
	}
	return favs, dogs
}

func splitTotalsSides(outcomes []markets.Outcome) (overs, unders []markets.Outcome) {
	for _, o := range outcomes {
		if o.Point == nil {
			continue
		}
		switch o.Name {
		case "Over":
			overs = append(overs, o)
		case "Under":
			unders = append(unders, o)
		}
	}
	return overs, unders
}

// sortedLines devolve os valores de linha distintos em ordem crescente.
func sortedLines(outcomes []markets.Outcome) []float64 {
	seen := map[float64]bool{}
	var lines []float64
	for _, o := range outcomes {
		if !seen[*o.Point] {
			seen[*o.Point] = true
			lines = append(lines, *o.Point)
		}
	}
	sort.Float64s(lines)
	return lines
}

// bestAtLine devolve o outcome de maior odd exatamente na linha dada.
func bestAtLine(outcomes []markets.Outcome, line float64) *markets.Outcome {
	var best *markets.Outcome
	for i := range outcomes {
		o := &outcomes[i]
		if *o.Point != line {
			continue
		}
		if best == nil || o.Odds > best.Odds {
			best = o
		}
	}
	return best
}
