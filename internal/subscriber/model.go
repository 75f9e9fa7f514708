package subscriber

import "time"

// Subscriber é um assinante elegível a scans: habilitado, com credenciais e
// assinatura ativa. O core não conhece autenticação nem cobrança; só lê.
type Subscriber struct {
	ID               string
	Tier             string   // chave na tabela de tiers (ex.: "basic", "pro")
	AlertRegions     []string // regiões que disparam alertas para este assinante
	AlertDestination string   // telefone/chat id, opaco para o core
	MinProfitPercent float64  // lucro mínimo para alertar
	HighValuePercent float64  // acima disso, re-alerta mesmo com fingerprint já visto
	RemindersEnabled bool
	MaxAlertsPerRun  int // top-N por ciclo
	CooldownMinutes  int
}

// AlertedArb registra um alerta já emitido, chaveado por fingerprint.
type AlertedArb struct {
	AlertedAt     time.Time `json:"alerted_at"`
	ProfitPercent float64   `json:"profit_percent"`
}

// ScanState é o estado mutável por assinante. AlertedArbs é sempre um mapa
// fingerprint → registro; entradas com mais de 24h são expurgadas de forma
// preguiçosa no scan seguinte. CreditsUsedThisMonth só é zerado por um
// processo mensal externo.
type ScanState struct {
	LastScanAt           time.Time
	CreditsUsedThisMonth int
	AlertedArbs          map[string]AlertedArb
	LastAlertAt          time.Time
}
