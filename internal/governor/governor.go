package governor

import (
	"fmt"
	"time"

	"github.com/radieske/odds-arb-scanner/internal/subscriber"
)

// State é o estado de cadência de um assinante dentro de um ciclo.
type State string

const (
	StateIdle     State = "idle"
	StateEligible State = "eligible"
	StateScanning State = "scanning"
	StateCooling  State = "cooling"
)

// TierConfig mapeia um tier de assinatura para cadência e teto de créditos.
type TierConfig struct {
	ScanIntervalSeconds int `yaml:"scan_interval_seconds"`
	MonthlyCreditCap    int `yaml:"monthly_credit_cap"`
}

// Config reúne as tabelas estáticas do governor.
type Config struct {
	Tiers             map[string]TierConfig `yaml:"tiers"`
	RegionCosts       map[string]int        `yaml:"region_costs"`
	DefaultRegionCost int                   `yaml:"default_region_cost"`
}

// DefaultConfig devolve as tabelas compiladas; um arquivo YAML de política
// pode sobrescrevê-las (ver internal/shared/config).
func DefaultConfig() Config {
	return Config{
		Tiers: map[string]TierConfig{
			"basic": {ScanIntervalSeconds: 3600, MonthlyCreditCap: 500},
			"plus":  {ScanIntervalSeconds: 900, MonthlyCreditCap: 2000},
			"pro":   {ScanIntervalSeconds: 300, MonthlyCreditCap: 10000},
		},
		RegionCosts: map[string]int{
			"us": 1, "us2": 1, "uk": 1, "eu": 1, "au": 1,
		},
		DefaultRegionCost: 3,
	}
}

// Decision é o veredito do governor para um assinante neste ciclo.
// Reason é preenchido quando o estado fica Idle (observabilidade; o chamador
// decide se tenta de novo — nunca há retry automático).
type Decision struct {
	State            State
	Reason           string
	EstimatedCredits int
}

// Governor aplica a cadência por tier e o teto mensal de créditos.
// O relógio é injetado para os testes.
type Governor struct {
	cfg Config
	now func() time.Time
}

// New cria um governor com relógio real.
func New(cfg Config) *Governor {
	return &Governor{cfg: cfg, now: time.Now}
}

// NewWithClock cria um governor com relógio injetado.
func NewWithClock(cfg Config, now func() time.Time) *Governor {
	return &Governor{cfg: cfg, now: now}
}

// EstimateCredits soma o custo estático por região. Região desconhecida usa o
// custo default conservador — nunca zero, para não liberar uso ilimitado.
func (g *Governor) EstimateCredits(regions []string) int {
	total := 0
	for _, r := range regions {
		if c, ok := g.cfg.RegionCosts[r]; ok {
			total += c
			continue
		}
		total += g.cfg.DefaultRegionCost
	}
	return total
}

// Evaluate decide a transição Idle→Eligible: o intervalo do tier precisa ter
// passado E os créditos estimados precisam caber no teto mensal (== teto é
// permitido). Qualquer outra condição mantém Idle com o motivo.
func (g *Governor) Evaluate(tier string, st subscriber.ScanState, regions []string) Decision {
	tc, ok := g.cfg.Tiers[tier]
	if !ok {
		return Decision{State: StateIdle, Reason: fmt.Sprintf("unknown tier %q", tier)}
	}

	est := g.EstimateCredits(regions)
	elapsed := g.now().Sub(st.LastScanAt)
	interval := time.Duration(tc.ScanIntervalSeconds) * time.Second

	if elapsed < interval {
		wait := interval - elapsed
		return Decision{
			State:            StateIdle,
			Reason:           fmt.Sprintf("scan interval not elapsed, %s remaining", wait.Round(time.Second)),
			EstimatedCredits: est,
		}
	}
	if st.CreditsUsedThisMonth+est > tc.MonthlyCreditCap {
		return Decision{
			State: StateIdle,
			Reason: fmt.Sprintf("monthly credit cap: used %d + estimated %d > cap %d",
				st.CreditsUsedThisMonth, est, tc.MonthlyCreditCap),
			EstimatedCredits: est,
		}
	}

	return Decision{State: StateEligible, EstimatedCredits: est}
}
