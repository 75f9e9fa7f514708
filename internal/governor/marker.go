package governor

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Marker registra em Redis o marcador "scan em andamento" de um assinante,
// usado por UI/liveness. O TTL cobre o caso de um processo morrer no meio do
// scan sem limpar o marcador.
type Marker struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewMarker cria o marcador com TTL configurável.
func NewMarker(c *redis.Client, ttl time.Duration) *Marker {
	return &Marker{Client: c, TTL: ttl}
}

func markerKey(subscriberID string) string { return "scan:running:" + subscriberID }

// MarkStarted grava o marcador na transição Eligible→Scanning.
func (m *Marker) MarkStarted(ctx context.Context, subscriberID string) error {
	return m.Client.Set(ctx, markerKey(subscriberID), time.Now().UTC().Format(time.RFC3339), m.TTL).Err()
}

// MarkFinished limpa o marcador ao voltar para Idle/Cooling, com ou sem erro.
func (m *Marker) MarkFinished(ctx context.Context, subscriberID string) error {
	return m.Client.Del(ctx, markerKey(subscriberID)).Err()
}
