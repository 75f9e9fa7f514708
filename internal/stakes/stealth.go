package stakes

import (
	"fmt"
	"math"
	"math/rand"
)

// RiskTier controla quão "redondos" os stakes naturalizados ficam.
type RiskTier string

const (
	TierConservative RiskTier = "conservative"
	TierBalanced     RiskTier = "balanced"
	TierAggressive   RiskTier = "aggressive"
)

// Múltiplos candidatos por tier, do mais grosso ao mais fino. O passo mais
// grosso que respeitar o desvio máximo vence.
var tierSteps = map[RiskTier][]float64{
	TierConservative: {10, 5},
	TierBalanced:     {25, 10, 5},
	TierAggressive:   {100, 50, 25},
}

// Probabilidade de jitter por tier (fração 0–1).
var tierJitterProb = map[RiskTier]float64{
	TierConservative: 0.15,
	TierBalanced:     0.30,
	TierAggressive:   0.50,
}

// StealthConfig parametriza a naturalização de stakes.
type StealthConfig struct {
	Tier         RiskTier
	MaxDeviation float64 // desvio total máximo, fração (default 0.10)
	SoftCap      float64 // teto com aviso (default 0.15)
	Jitter       bool    // aplica jitter pseudo-aleatório
}

// DefaultStealth devolve a configuração padrão para um tier.
func DefaultStealth(tier RiskTier) StealthConfig {
	return StealthConfig{Tier: tier, MaxDeviation: 0.10, SoftCap: 0.15}
}

// Naturalized relata o resultado da naturalização.
type Naturalized struct {
	Original          []float64
	Stakes            []float64
	DifferencePercent float64
	Warning           string
}

// Naturalize substitui cada stake pelo valor "natural" mais próximo do
// candidato do tier, mantendo o desvio total dentro de MaxDeviation quando
// possível. Entre MaxDeviation e SoftCap o resultado é aceito com aviso;
// acima do SoftCap os stakes originais são mantidos e o aviso explica.
// Determinística para um rng de semente fixa; o jitter é o único passo
// não determinístico e só roda com cfg.Jitter ligado. Reaplicar a função
// sobre a própria saída (sem jitter) devolve os mesmos valores.
func Naturalize(stks []float64, cfg StealthConfig, rng *rand.Rand) Naturalized {
	steps, ok := tierSteps[cfg.Tier]
	if !ok {
		steps = tierSteps[TierBalanced]
	}
	if cfg.MaxDeviation <= 0 {
		cfg.MaxDeviation = 0.10
	}
	if cfg.SoftCap < cfg.MaxDeviation {
		cfg.SoftCap = 0.15
	}

	var chosen []float64
	chosenDev := math.Inf(1)
	for _, step := range steps {
		cand := roundAll(stks, step)
		dev := deviation(stks, cand)
		if dev < chosenDev {
			chosen, chosenDev = cand, dev
		}
		if dev <= cfg.MaxDeviation {
			chosen, chosenDev = cand, dev
			break
		}
	}

	res := Naturalized{Original: append([]float64(nil), stks...)}

	if chosenDev > cfg.SoftCap {
		// nem o passo mais fino cabe no teto: devolve os originais
		res.Stakes = append([]float64(nil), stks...)
		res.DifferencePercent = 0
		res.Warning = fmt.Sprintf("naturalização abortada: desvio %.1f%% acima do teto de %.1f%%",
			chosenDev*100, cfg.SoftCap*100)
		return res
	}

	if cfg.Jitter {
		chosen = jitter(chosen, cfg.Tier, rng)
		chosenDev = deviation(stks, chosen)
	}

	res.Stakes = chosen
	res.DifferencePercent = chosenDev * 100
	if chosenDev > cfg.MaxDeviation {
		res.Warning = fmt.Sprintf("desvio de %.1f%% acima do máximo de %.1f%% (dentro do teto)",
			chosenDev*100, cfg.MaxDeviation*100)
	}
	return res
}

// roundAll arredonda cada stake ao múltiplo do passo, nunca abaixo de um passo.
func roundAll(stks []float64, step float64) []float64 {
	out := make([]float64, len(stks))
	for i, s := range stks {
		r := math.Round(s/step) * step
		if r < step {
			r = step
		}
		out[i] = r
	}
	return out
}

// deviation mede o desvio absoluto total relativo ao total original.
func deviation(orig, nat []float64) float64 {
	var totalOrig, diff float64
	for i := range orig {
		totalOrig += orig[i]
		diff += math.Abs(nat[i] - orig[i])
	}
	if totalOrig == 0 {
		return 0
	}
	return diff / totalOrig
}

// jitter desloca algumas pernas em 1–3 unidades para que nem todo stake caia
// em número exatamente redondo. Nunca produz valor negativo.
func jitter(stks []float64, tier RiskTier, rng *rand.Rand) []float64 {
	prob := tierJitterProb[tier]
	out := append([]float64(nil), stks...)
	for i := range out {
		if rng.Float64() >= prob {
			continue
		}
		delta := float64(1 + rng.Intn(3))
		if rng.Intn(2) == 0 {
			delta = -delta
		}
		if out[i]+delta > 0 {
			out[i] += delta
		}
	}
	return out
}
