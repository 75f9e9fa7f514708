package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/odds-arb-scanner/internal/alertgw"
	"github.com/radieske/odds-arb-scanner/internal/detector"
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
	"github.com/radieske/odds-arb-scanner/internal/shared/metrics"
	"github.com/radieske/odds-arb-scanner/internal/subscriber"
	"github.com/radieske/odds-arb-scanner/pkg/contracts/events"
	"github.com/radieske/odds-arb-scanner/pkg/contracts/markets"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		log.Fatal("policy load", zap.Error(err))
	}

	// Dependências: Postgres (assinantes/estado) e Redis (cache, rotação)
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
	summaryWriter := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicScanSummaries)
	defer summaryWriter.Close()

	// Métricas Prometheus do ciclo
	regionsScanned := prometheus.NewCounter(prometheus.CounterOpts{Name: "scan_regions_scanned_total", Help: "regiões escaneadas"})
	arbsFound := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "scan_arbs_found_total", Help: "oportunidades por tipo"}, []string{"type"})
	alertsSent := prometheus.NewCounter(prometheus.CounterOpts{Name: "scan_alerts_sent_total", Help: "alertas enviados"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "scan_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(regionsScanned, arbsFound, alertsSent, errorsBy)

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
		Summary:  alertgw.NewSummaryPublisher(summaryWriter),
		Cfg:      scanCfg,

		OnRegionScanned: func() { regionsScanned.Inc() },
		OnArbFound:      func(typ string) { arbsFound.WithLabelValues(typ).Inc() },
		OnAlertSent:     func() { alertsSent.Inc() },
		OnError:         func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Servidor de métricas e health check (pg + redis)
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Canal push opcional do provedor: detecta sobre cada lote recebido e
	// alimenta o sink de progresso entre ciclos, sob o scan id "live".
	if cfg.OddsStreamURL != "" {
		go runLiveStream(ctx, log, cfg.OddsStreamURL, scanCfg.Detector,
			store.NewProgressSink(redisClient, 10*time.Minute))
	}

	interval := time.Duration(cfg.TriggerIntervalSeconds) * time.Second
	log.Info("scan-orchestrator started", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runCycle(ctx, log, orch)
	for {
		select {
		case <-ctx.Done():
			log.Info("scan-orchestrator stopped")
			return
		case <-ticker.C:
			runCycle(ctx, log, orch)
		}
	}
}

// runLiveStream consome o stream de odds em loop de reconexão e publica
// parciais ao vivo; nunca interfere no ciclo principal.
func runLiveStream(ctx context.Context, log *zap.Logger, url string, detCfg detector.Config, sink *store.ProgressSink) {
	sc := &oddsfeed.StreamClient{URL: url, Log: log}
	batchIndex := 0
	for ctx.Err() == nil {
		err := sc.StreamOdds(ctx, func(sportKey string, batch []markets.EventOdds) {
			res := detector.Detect(batch, detCfg, time.Now().UTC())
			if len(res.Arbs) == 0 && len(res.ValueBets) == 0 {
				return
			}
			b := events.ProgressBatch{
				Region:        "live",
				ScanID:        "live",
				BatchIndex:    batchIndex,
				SportKey:      sportKey,
				Opportunities: res.Arbs,
				ValueBets:     res.ValueBets,
				Ts:            time.Now().UTC(),
			}
			batchIndex++
			wctx, wcancel := context.WithTimeout(context.Background(), 3*time.Second)
			if werr := sink.WriteBatch(wctx, b); werr != nil {
				log.Warn("live progress write failed", zap.Error(werr))
			}
			wcancel()
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Warn("odds stream disconnected", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func runCycle(ctx context.Context, log *zap.Logger, orch *scan.Orchestrator) {
	sum, err := orch.RunScanCycle(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error("scan cycle failed", zap.Error(err))
		return
	}
	log.Info("scan cycle done",
		zap.String("scan_id", sum.ScanID),
		zap.Strings("regions", sum.Regions),
		zap.Int("processed", sum.Processed),
		zap.Int("scanned", sum.Scanned),
		zap.Int("alerts_sent", sum.AlertsSent),
		zap.Int("errors", len(sum.Errors)),
	)
}
