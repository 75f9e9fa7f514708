package subscriber

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// Postgres implementa o store de assinantes e do ScanState em banco Postgres.
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de assinantes.
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// ListEligible retorna assinantes habilitados, com credenciais e assinatura
// ativa. A elegibilidade de cadência/créditos é decidida depois, pelo governor.
func (p *Postgres) ListEligible(ctx context.Context) ([]Subscriber, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, tier, alert_regions, alert_destination,
		       min_profit_percent, high_value_percent, reminders_enabled,
		       max_alerts_per_run, cooldown_minutes
		FROM subscribers
		WHERE enabled = true
		  AND alert_destination <> ''
		  AND subscription_active = true`)
	if err != nil {
		return nil, fmt.Errorf("list eligible subscribers: %w", err)
	}
	defer rows.Close()

	var subs []Subscriber
	for rows.Next() {
		var s Subscriber
		if err := rows.Scan(
			&s.ID, &s.Tier, pq.Array(&s.AlertRegions), &s.AlertDestination,
			&s.MinProfitPercent, &s.HighValuePercent, &s.RemindersEnabled,
			&s.MaxAlertsPerRun, &s.CooldownMinutes,
		); err != nil {
			return nil, fmt.Errorf("scan subscriber row: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// GetScanState carrega o estado de scan do assinante; retorna zero-value com
// mapa inicializado quando ainda não existe linha.
func (p *Postgres) GetScanState(ctx context.Context, subscriberID string) (ScanState, error) {
	var st ScanState
	var alerted []byte
	err := p.db.QueryRowContext(ctx, `
		SELECT last_scan_at, credits_used_this_month, alerted_arbs, last_alert_at
		FROM scan_state WHERE subscriber_id = $1`, subscriberID).
		Scan(&st.LastScanAt, &st.CreditsUsedThisMonth, &alerted, &st.LastAlertAt)
	if err == sql.ErrNoRows {
		return ScanState{AlertedArbs: map[string]AlertedArb{}}, nil
	}
	if err != nil {
		return ScanState{}, fmt.Errorf("get scan state: %w", err)
	}

	st.AlertedArbs = map[string]AlertedArb{}
	if len(alerted) > 0 {
		if err := json.Unmarshal(alerted, &st.AlertedArbs); err != nil {
			return ScanState{}, fmt.Errorf("decode alerted_arbs: %w", err)
		}
	}
	return st, nil
}

// SaveScanState grava o estado após um scan; alerted_arbs vai como JSONB.
func (p *Postgres) SaveScanState(ctx context.Context, subscriberID string, st ScanState) error {
	alerted, err := json.Marshal(st.AlertedArbs)
	if err != nil {
		return fmt.Errorf("encode alerted_arbs: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO scan_state (subscriber_id, last_scan_at, credits_used_this_month, alerted_arbs, last_alert_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (subscriber_id) DO UPDATE SET
		  last_scan_at            = EXCLUDED.last_scan_at,
		  credits_used_this_month = EXCLUDED.credits_used_this_month,
		  alerted_arbs            = EXCLUDED.alerted_arbs,
		  last_alert_at           = EXCLUDED.last_alert_at`,
		subscriberID, st.LastScanAt, st.CreditsUsedThisMonth, alerted, st.LastAlertAt,
	)
	if err != nil {
		return fmt.Errorf("save scan state: %w", err)
	}
	return nil
}
