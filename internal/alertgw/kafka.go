package alertgw

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/odds-arb-scanner/pkg/contracts/events"
)

// KafkaGateway publica alertas no tópico "arb_alerts". O remetente de SMS é
// um consumidor externo; o core só entrega o payload no tópico.
type KafkaGateway struct {
	Writer *kafka.Writer
}

// NewKafkaGateway cria o gateway sobre um writer já configurado.
func NewKafkaGateway(w *kafka.Writer) *KafkaGateway {
	return &KafkaGateway{Writer: w}
}

// SendAlerts publica as oportunidades para o destino do assinante.
func (g *KafkaGateway) SendAlerts(ctx context.Context, subscriberID, destination string, opps []events.AlertOpportunity) error {
	if len(opps) == 0 {
		return nil
	}
	alert := events.ArbAlert{
		SubscriberID:  subscriberID,
		Destination:   destination,
		Opportunities: opps,
		Ts:            time.Now().UTC(),
	}
	b, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(subscriberID),
		Value: b,
		Time:  time.Now(),
	}
	if err := g.Writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish arb alert: %w", err)
	}
	return nil
}
