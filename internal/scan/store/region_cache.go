package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/odds-arb-scanner/pkg/contracts/markets"
)

// RegionCache é o cache autoritativo por região. A escrita é aguardada pelo
// pipeline (não é fire-and-forget): este cache é a fonte de verdade para
// todos os leitores.
type RegionCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRegionCache cria o cache com TTL configurável.
func NewRegionCache(c *redis.Client, ttl time.Duration) *RegionCache {
	return &RegionCache{Client: c, TTL: ttl}
}

func regionKey(region string) string { return "scan:region:" + region }

// WriteRegionScan grava o snapshot completo da região.
func (r *RegionCache) WriteRegionScan(ctx context.Context, snap markets.RegionSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, regionKey(snap.Region), b, r.TTL).Err()
}

// ReadRegionScan lê o último snapshot da região; (nil, nil) quando não há.
func (r *RegionCache) ReadRegionScan(ctx context.Context, region string) (*markets.RegionSnapshot, error) {
	b, err := r.Client.Get(ctx, regionKey(region)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap markets.RegionSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
