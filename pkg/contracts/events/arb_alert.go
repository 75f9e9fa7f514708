package events

import "time"

// AlertLeg é uma perna de um alerta: onde apostar, a que preço e quanto.
type AlertLeg struct {
	Outcome   string  `json:"outcome"`
	Bookmaker string  `json:"bookmaker"`
	Odds      float64 `json:"odds"`
	Stake     float64 `json:"stake"`
}

// AlertOpportunity é uma arbitragem resumida dentro de um alerta.
type AlertOpportunity struct {
	EventID       string     `json:"event_id"`
	EventName     string     `json:"event_name"` // "Home x Away"
	SportKey      string     `json:"sport_key"`
	ProfitPercent float64    `json:"profit_percent"`
	Legs          []AlertLeg `json:"legs"`
}

// ArbAlert é o evento publicado no tópico "arb_alerts"; o remetente de
// SMS/chat é um consumidor externo.
type ArbAlert struct {
	SubscriberID  string             `json:"subscriber_id"`
	Destination   string             `json:"destination"` // telefone/chat id, opaco para o core
	Opportunities []AlertOpportunity `json:"opportunities"`
	Ts            time.Time          `json:"ts"`
}
