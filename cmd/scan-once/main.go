package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/odds-arb-scanner/internal/alertgw"
	"github.com/radieske/odds-arb-scanner/internal/governor"
	"github.com/radieske/odds-arb-scanner/internal/oddsfeed"
	"github.com/radieske/odds-arb-scanner/internal/rotation"
	"github.com/radieske/odds-arb-scanner/internal/scan"
	"github.com/radieske/odds-arb-scanner/internal/scan/store"
	sharedcache "github.com/radieske/odds-arb-scanner/internal/shared/cache"
	"github.com/radieske/odds-arb-scanner/internal/shared/config"
	"github.com/radieske/odds-arb-scanner/internal/shared/db"
	sharedkafka "github.com/radieske/odds-arb-scanner/internal/shared/kafka"
	"github.com/radieske/odds-arb-scanner/internal/shared/logger"
	"github.com/radieske/odds-arb-scanner/internal/subscriber"
)

// Ferramenta de operação: roda um único ciclo de scan e imprime o Summary
// em JSON no stdout.
func main() {
	cfg := config.Load()
	log, err := logger.New("scan-once", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		log.Fatal("policy load", zap.Error(err))
	}

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	alertWriter := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicArbAlerts)
	defer alertWriter.Close()

	scanCfg := scan.DefaultConfig()
	scanCfg.Detector.NearArbThreshold = policy.Thresholds.NearArbPercent / 100
	scanCfg.Detector.ValueThreshold = policy.Thresholds.ValuePercent / 100
	scanCfg.Lines.NearArbThreshold = policy.Thresholds.NearArbPercent / 100

	orch := &scan.Orchestrator{
		Log:      log,
		Feed:     oddsfeed.New(cfg.OddsAPIBaseURL, cfg.OddsAPIKey),
		Cache:    store.NewRegionCache(redisClient, 30*time.Minute),
		Progress: store.NewProgressSink(redisClient, 10*time.Minute),
		Subs:     subscriber.NewPostgres(pg),
		Marker:   governor.NewMarker(redisClient, 5*time.Minute),
		Rotation: rotation.NewScheduler(redisClient, policy.Rotation),
		Gov:      governor.New(policy.Governor),
		Alerts:   alertgw.NewKafkaGateway(alertWriter),
		Cfg:      scanCfg,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sum, err := orch.RunScanCycle(ctx)
	if err != nil {
		log.Fatal("scan cycle failed", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(sum)
}
