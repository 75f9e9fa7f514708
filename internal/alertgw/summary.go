package alertgw

import (
	"context"
	"encoding/json"

	sharedkafka "github.com/radieske/odds-arb-scanner/internal/shared/kafka"
	"github.com/radieske/odds-arb-scanner/pkg/contracts/events"
)

// SummaryPublisher emite o resumo de cada ciclo no tópico "scan_summaries".
type SummaryPublisher struct {
	Writer *sharedkafka.Writer
}

// NewSummaryPublisher cria o publisher sobre um writer já configurado.
func NewSummaryPublisher(w *sharedkafka.Writer) *SummaryPublisher {
	return &SummaryPublisher{Writer: w}
}

// PublishSummary serializa e envia o resumo; chaveado por scan id.
func (p *SummaryPublisher) PublishSummary(ctx context.Context, s events.ScanSummary) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return sharedkafka.WriteJSON(ctx, p.Writer, s.ScanID, b)
}
