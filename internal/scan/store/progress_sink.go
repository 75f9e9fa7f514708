package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/odds-arb-scanner/pkg/contracts/events"
)

// ProgressSink publica lotes parciais de um scan em uma lista Redis por
// scanId, para clientes em polling. Best-effort: erros são do chamador
// logar, nunca propagam para o fluxo principal de detecção.
type ProgressSink struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewProgressSink cria o sink com TTL curto (os parciais perdem valor rápido).
func NewProgressSink(c *redis.Client, ttl time.Duration) *ProgressSink {
	return &ProgressSink{Client: c, TTL: ttl}
}

func progressKey(scanID string) string { return "scan:progress:" + scanID }

// WriteBatch anexa o lote à lista do scan e renova o TTL.
func (p *ProgressSink) WriteBatch(ctx context.Context, b events.ProgressBatch) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	key := progressKey(b.ScanID)
	if err := p.Client.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("progress rpush: %w", err)
	}
	return p.Client.Expire(ctx, key, p.TTL).Err()
}

// ReadBatches lê os lotes publicados até agora (usado por um endpoint de
// polling externo, e pelos testes de integração).
func (p *ProgressSink) ReadBatches(ctx context.Context, scanID string) ([]events.ProgressBatch, error) {
	raws, err := p.Client.LRange(ctx, progressKey(scanID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]events.ProgressBatch, 0, len(raws))
	for _, r := range raws {
		var b events.ProgressBatch
		if err := json.Unmarshal([]byte(r), &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
