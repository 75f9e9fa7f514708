package scan

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/radieske/odds-arb-scanner/internal/subscriber"
	"github.com/radieske/odds-arb-scanner/pkg/contracts/markets"
)

// Janela de validade de um fingerprint alertado.
const alertedTTL = 24 * time.Hour

// Fingerprint deriva a identidade estável de uma arbitragem:
// eventId + bookmakerKeys ordenados + round(odds×100) de cada perna.
// Jitter de odds menor que um centésimo não gera fingerprint novo.
func Fingerprint(arb markets.ArbOpportunity) string {
	legs := arb.Outcomes()
	if len(legs) == 0 && arb.BackOutcome != nil && arb.LayOutcome != nil {
		legs = []*markets.Outcome{arb.BackOutcome, arb.LayOutcome}
	}

	keys := make([]string, 0, len(legs))
	for _, l := range legs {
		keys = append(keys, l.BookmakerKey)
	}
	sort.Strings(keys)

	odds := make([]string, 0, len(legs))
	for _, l := range legs {
		odds = append(odds, fmt.Sprintf("%d", int(math.Round(l.Odds*100))))
	}
	sort.Strings(odds)

	return arb.Event.ID + "|" + strings.Join(keys, ",") + "|" + strings.Join(odds, ",")
}

// AlertEvaluation é o resultado do deduplicador para um assinante.
type AlertEvaluation struct {
	ToSend               []markets.ArbOpportunity
	SuppressedByCooldown bool
}

// EvaluateAlerts decide quais arbitragens justificam alerta para o assinante.
// Expurga fingerprints com mais de 24h; alerta quando o lucro cruza o limiar
// de high-value com lembretes ligados OU quando o fingerprint é inédito;
// limita ao top-N por lucro; e, sob cooldown, atualiza a contabilidade mas
// suprime o envio (o "primeiro alerta" continua correto).
// Muta st.AlertedArbs; st.LastAlertAt fica por conta do chamador, que sabe se
// o envio de fato ocorreu.
func EvaluateAlerts(st *subscriber.ScanState, sub subscriber.Subscriber, arbs []markets.ArbOpportunity, now time.Time) AlertEvaluation {
	if st.AlertedArbs == nil {
		st.AlertedArbs = map[string]subscriber.AlertedArb{}
	}

	// expurgo preguiçoso: entradas velhas nunca influenciam a decisão
	for fp, a := range st.AlertedArbs {
		if now.Sub(a.AlertedAt) >= alertedTTL {
			delete(st.AlertedArbs, fp)
		}
	}

	var candidates []markets.ArbOpportunity
	for _, arb := range arbs {
		if arb.Type != markets.TypeArb || arb.ProfitPercentage < sub.MinProfitPercent {
			continue
		}
		fp := Fingerprint(arb)
		_, alerted := st.AlertedArbs[fp]
		highValue := arb.ProfitPercentage >= sub.HighValuePercent && sub.RemindersEnabled
		if alerted && !highValue {
			continue
		}
		candidates = append(candidates, arb)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ProfitPercentage > candidates[j].ProfitPercentage
	})
	if n := sub.MaxAlertsPerRun; n > 0 && len(candidates) > n {
		candidates = candidates[:n]
	}

	// contabilidade sempre atualizada, com ou sem envio
	for _, arb := range candidates {
		st.AlertedArbs[Fingerprint(arb)] = subscriber.AlertedArb{
			AlertedAt:     now,
			ProfitPercent: arb.ProfitPercentage,
		}
	}

	cooldown := time.Duration(sub.CooldownMinutes) * time.Minute
	if cooldown > 0 && !st.LastAlertAt.IsZero() && now.Sub(st.LastAlertAt) < cooldown {
		return AlertEvaluation{SuppressedByCooldown: true}
	}
	return AlertEvaluation{ToSend: candidates}
}
