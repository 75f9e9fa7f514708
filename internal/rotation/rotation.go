package rotation

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Config parametriza a rotação de regiões do scan master.
type Config struct {
	BaseRegion     string   `yaml:"base_region"`      // sempre incluída
	RotationOrder  []string `yaml:"rotation_order"`   // regiões extras, em ordem
	BaseOnlyCycles int      `yaml:"base_only_cycles"` // N ciclos só-base entre rotações
}

// DefaultConfig devolve a rotação padrão (sobrescrevível via YAML de política).
func DefaultConfig() Config {
	return Config{
		BaseRegion:     "us",
		RotationOrder:  []string{"uk", "eu", "au"},
		BaseOnlyCycles: 2,
	}
}

// Plan devolve, de forma pura e reproduzível, o conjunto de regiões para o
// valor de contador dado. A base sempre entra; a cada N+1 invocações uma
// região extra é anexada, escolhida por rotationOrder[(counter/(N+1)) mod len].
// A pureza permite testar e auditar por que um run cobriu quais regiões.
func Plan(cfg Config, counter int64) []string {
	regions := []string{cfg.BaseRegion}
	if len(cfg.RotationOrder) == 0 {
		return regions
	}

	period := int64(cfg.BaseOnlyCycles + 1)
	if counter%period != 0 {
		return regions
	}
	idx := (counter / period) % int64(len(cfg.RotationOrder))
	return append(regions, cfg.RotationOrder[idx])
}

// Scheduler materializa o contador persistido em Redis. O INCR é atômico e
// acontece exatamente uma vez por invocação do orquestrador, então invocações
// sobrepostas nunca reivindicam o mesmo slot de rotação. O contador sobrevive
// a restarts do processo (era uma fragilidade conhecida mantê-lo em memória).
type Scheduler struct {
	Client *redis.Client
	Cfg    Config
	Key    string
}

// NewScheduler cria o scheduler com a chave padrão do contador.
func NewScheduler(c *redis.Client, cfg Config) *Scheduler {
	return &Scheduler{Client: c, Cfg: cfg, Key: "scan:rotation:counter"}
}

// NextRotation incrementa e lê o contador atomicamente.
func (s *Scheduler) NextRotation(ctx context.Context) (int64, error) {
	n, err := s.Client.Incr(ctx, s.Key).Result()
	if err != nil {
		return 0, fmt.Errorf("rotation counter incr: %w", err)
	}
	return n, nil
}

// RegionsForNext consome um slot de rotação e devolve as regiões do ciclo.
func (s *Scheduler) RegionsForNext(ctx context.Context) ([]string, int64, error) {
	n, err := s.NextRotation(ctx)
	if err != nil {
		return nil, 0, err
	}
	return Plan(s.Cfg, n), n, nil
}
