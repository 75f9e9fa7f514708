package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/odds-arb-scanner/internal/detector"
	"github.com/radieske/odds-arb-scanner/internal/governor"
	"github.com/radieske/odds-arb-scanner/internal/lines"
	"github.com/radieske/odds-arb-scanner/internal/oddsfeed"
	"github.com/radieske/odds-arb-scanner/internal/stakes"
	"github.com/radieske/odds-arb-scanner/internal/subscriber"
	"github.com/radieske/odds-arb-scanner/pkg/contracts/events"
	"github.com/radieske/odds-arb-scanner/pkg/contracts/markets"
)

// Colaboradores externos do pipeline, nas interfaces mínimas que o core usa.

type OddsFeed interface {
	ListSports(ctx context.Context) ([]oddsfeed.Sport, error)
	FetchOddsBatched(ctx context.Context, sportKeys, marketTypes, regions []string, fn oddsfeed.BatchFunc, remaining *int) error
}

type RegionCacheStore interface {
	WriteRegionScan(ctx context.Context, snap markets.RegionSnapshot) error
}

type ProgressWriter interface {
	WriteBatch(ctx context.Context, b events.ProgressBatch) error
}

type SubscriberStore interface {
	ListEligible(ctx context.Context) ([]subscriber.Subscriber, error)
	GetScanState(ctx context.Context, subscriberID string) (subscriber.ScanState, error)
	SaveScanState(ctx context.Context, subscriberID string, st subscriber.ScanState) error
}

type ScanMarker interface {
	MarkStarted(ctx context.Context, subscriberID string) error
	MarkFinished(ctx context.Context, subscriberID string) error
}

type RotationSource interface {
	RegionsForNext(ctx context.Context) ([]string, int64, error)
}

type AlertGateway interface {
	SendAlerts(ctx context.Context, subscriberID, destination string, opps []events.AlertOpportunity) error
}

type SummaryPublisher interface {
	PublishSummary(ctx context.Context, s events.ScanSummary) error
}

// Config parametriza um ciclo de scan.
type Config struct {
	// SportKeys fixa os esportes a escanear; vazio usa o catálogo do
	// provedor sem outrights.
	SportKeys []string
	// Pausa entre o fetch h2h e o de linhas de uma região (rate limit do
	// provedor, compartilhado; por isso as regiões são sequenciais).
	InterCallDelay time.Duration
	// Budget de relógio do ciclo inteiro.
	Budget time.Duration
	// Carência para as escritas de progresso pendentes no fim do ciclo.
	ProgressGrace time.Duration
	// Limite de escritas de progresso em voo.
	MaxBackgroundTasks int
	// Stake total usado para sugerir a divisão das pernas nos alertas.
	AlertStakeTotal float64

	Detector detector.Config
	Lines    lines.Config
}

// DefaultConfig devolve os parâmetros padrão do ciclo.
func DefaultConfig() Config {
	return Config{
		InterCallDelay:     2 * time.Second,
		Budget:             60 * time.Second,
		ProgressGrace:      2 * time.Second,
		MaxBackgroundTasks: 16,
		AlertStakeTotal:    100,
		Detector:           detector.Config{NearArbThreshold: 0.02, ValueThreshold: 0.05},
		Lines:              lines.Config{NearArbThreshold: 0.02},
	}
}

// RegionResult é o desfecho de uma região dentro do ciclo.
type RegionResult struct {
	Region   string                  `json:"region"`
	Snapshot *markets.RegionSnapshot `json:"snapshot,omitempty"`
	Err      string                  `json:"err,omitempty"`
}

// Summary é o registro de retorno de RunScanCycle; o único canal de saída.
type Summary struct {
	ScanID          string         `json:"scan_id"`
	RotationCounter int64          `json:"rotation_counter"`
	Regions         []string       `json:"regions"`
	Processed       int            `json:"processed"`
	Scanned         int            `json:"scanned"`
	AlertsSent      int            `json:"alerts_sent"`
	RegionResults   []RegionResult `json:"region_results"`
	Errors          []string       `json:"errors,omitempty"`
}

// Orchestrator dirige o ciclo: rotação de regiões, fetch sequencial com
// detecção por lote, cache autoritativo, avaliação de alertas por assinante.
// Callbacks On* alimentam métricas (podem ficar nil).
type Orchestrator struct {
	Log      *zap.Logger
	Feed     OddsFeed
	Cache    RegionCacheStore
	Progress ProgressWriter
	Subs     SubscriberStore
	Marker   ScanMarker
	Rotation RotationSource
	Gov      *governor.Governor
	Alerts   AlertGateway
	Summary  SummaryPublisher // opcional
	Cfg      Config

	OnRegionScanned func()
	OnArbFound      func(typ string)
	OnAlertSent     func()
	OnError         func(stage string)

	// Relógio e pausa injetáveis para os testes.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration)
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now().UTC()
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) {
	if o.Sleep != nil {
		o.Sleep(ctx, d)
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (o *Orchestrator) onError(stage string) {
	if o.OnError != nil {
		o.OnError(stage)
	}
}

// RunScanCycle executa um ciclo master completo sob o budget de relógio.
// Falhas por região ou por assinante entram na lista de erros do Summary e
// nunca abortam as demais.
func (o *Orchestrator) RunScanCycle(ctx context.Context) (Summary, error) {
	if o.Cfg.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Cfg.Budget)
		defer cancel()
	}

	sum := Summary{ScanID: uuid.NewString()}

	regions, counter, err := o.Rotation.RegionsForNext(ctx)
	if err != nil {
		o.onError("rotation")
		return sum, fmt.Errorf("rotation: %w", err)
	}
	sum.RotationCounter = counter
	sum.Regions = regions

	sports, err := o.resolveSports(ctx)
	if err != nil {
		o.onError("sports")
		return sum, &ProviderError{Region: "", Err: err}
	}

	tasks := NewTaskSet(o.Cfg.MaxBackgroundTasks, o.Log)
	snapshots := map[string]*markets.RegionSnapshot{}

	// Regiões em sequência, nunca em paralelo: o rate limit do provedor é
	// global e é respeitado por acesso sequencial + pausas.
	for _, region := range regions {
		snap, err := o.scanRegion(ctx, region, sum.ScanID, sports, tasks)
		if err != nil {
			o.Log.Warn("region scan failed", zap.String("region", region), zap.Error(err))
			o.onError("region")
			sum.RegionResults = append(sum.RegionResults, RegionResult{Region: region, Err: err.Error()})
			sum.Errors = append(sum.Errors, err.Error())
			continue
		}

		// Escrita autoritativa: aguardada, e nunca abandonada depois de
		// iniciada, mesmo com o budget do ciclo vencendo.
		wctx, wcancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		werr := o.Cache.WriteRegionScan(wctx, *snap)
		wcancel()
		if werr != nil {
			o.onError("cache_write")
			perr := &PersistenceError{Op: "region cache " + region, Err: werr}
			sum.RegionResults = append(sum.RegionResults, RegionResult{Region: region, Snapshot: snap, Err: perr.Error()})
			sum.Errors = append(sum.Errors, perr.Error())
			continue
		}

		snapshots[region] = snap
		sum.RegionResults = append(sum.RegionResults, RegionResult{Region: region, Snapshot: snap})
		if o.OnRegionScanned != nil {
			o.OnRegionScanned()
		}
	}

	// Alertas por assinante: só quem tem interseção com as regiões do ciclo.
	subs, err := o.Subs.ListEligible(ctx)
	if err != nil {
		o.onError("subscribers")
		sum.Errors = append(sum.Errors, fmt.Sprintf("list subscribers: %v", err))
	}
	for _, sub := range subs {
		sum.Processed++
		sent, scanned, errs := o.processSubscriber(ctx, sub, snapshots)
		if scanned {
			sum.Scanned++
		}
		sum.AlertsSent += sent
		sum.Errors = append(sum.Errors, errs...)
	}

	// Carência limitada para os parciais pendentes; progresso é best-effort,
	// o ciclo não falha por causa deles.
	tasks.Join(o.Cfg.ProgressGrace)

	o.publishSummary(ctx, sum)
	return sum, nil
}

func (o *Orchestrator) resolveSports(ctx context.Context) ([]string, error) {
	if len(o.Cfg.SportKeys) > 0 {
		return o.Cfg.SportKeys, nil
	}
	sports, err := o.Feed.ListSports(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sports: %w", err)
	}
	keys := make([]string, 0, len(sports))
	for _, s := range sports {
		if s.HasOutrights {
			continue
		}
		keys = append(keys, s.Key)
	}
	return keys, nil
}

// scanRegion roda h2h e depois linhas para uma região, detectando lote a lote
// e publicando parciais sem bloquear o fluxo principal.
func (o *Orchestrator) scanRegion(ctx context.Context, region, scanID string, sports []string, tasks *TaskSet) (*markets.RegionSnapshot, error) {
	snap := &markets.RegionSnapshot{Region: region}
	batchIndex := 0

	emit := func(b events.ProgressBatch) {
		b.Region = region
		b.ScanID = scanID
		b.BatchIndex = batchIndex
		b.Ts = o.now()
		batchIndex++
		// escrita desacoplada do contexto do ciclo: pode ser abandonada no
		// join final, nunca bloqueia a detecção
		tasks.Go("progress "+region, func() error {
			wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
			defer cancel()
			return o.Progress.WriteBatch(wctx, b)
		})
	}

	// h2h primeiro; o budget de rate limit é compartilhado com as linhas
	err := o.Feed.FetchOddsBatched(ctx, sports, []string{markets.MarketH2H}, []string{region},
		func(sportKey string, batch []markets.EventOdds) {
			res := detector.Detect(batch, o.Cfg.Detector, o.now())
			snap.Opportunities = append(snap.Opportunities, res.Arbs...)
			snap.ValueBets = append(snap.ValueBets, res.ValueBets...)
			snap.Stats.Merge(res.Stats)
			if o.OnArbFound != nil {
				for _, a := range res.Arbs {
					o.OnArbFound(a.Type)
				}
			}
			emit(events.ProgressBatch{
				SportKey:      sportKey,
				Opportunities: res.Arbs,
				ValueBets:     res.ValueBets,
			})
		}, nil)
	if err != nil {
		return nil, &ProviderError{Region: region, Err: err}
	}

	o.sleep(ctx, o.Cfg.InterCallDelay)

	err = o.Feed.FetchOddsBatched(ctx, sports, []string{markets.MarketSpreads, markets.MarketTotals}, []string{region},
		func(sportKey string, batch []markets.EventOdds) {
			res := lines.Detect(batch, o.Cfg.Lines, o.now())
			snap.SpreadArbs = append(snap.SpreadArbs, res.SpreadArbs...)
			snap.TotalsArbs = append(snap.TotalsArbs, res.TotalsArbs...)
			snap.Middles = append(snap.Middles, res.Middles...)
			snap.LineStats.Merge(res.Stats)
			emit(events.ProgressBatch{
				SportKey:   sportKey,
				SpreadArbs: res.SpreadArbs,
				TotalsArbs: res.TotalsArbs,
				Middles:    res.Middles,
			})
		}, nil)
	if err != nil {
		return nil, &ProviderError{Region: region, Err: err}
	}

	snap.ScannedAt = o.now()
	emit(events.ProgressBatch{IsLastBatch: true})
	return snap, nil
}

// processSubscriber avalia alertas de um assinante sobre os snapshots do
// ciclo. Falhas são capturadas aqui, na granularidade do assinante.
func (o *Orchestrator) processSubscriber(ctx context.Context, sub subscriber.Subscriber, snapshots map[string]*markets.RegionSnapshot) (alertsSent int, scanned bool, errs []string) {
	covered := intersect(sub.AlertRegions, snapshots)
	if len(covered) == 0 {
		return 0, false, nil
	}

	st, err := o.Subs.GetScanState(ctx, sub.ID)
	if err != nil {
		o.onError("scan_state")
		return 0, false, []string{(&PersistenceError{Op: "get scan state " + sub.ID, Err: err}).Error()}
	}

	dec := o.Gov.Evaluate(sub.Tier, st, covered)
	if dec.State != governor.StateEligible {
		// QuotaExceeded/cadência não é erro: é skip com motivo, sem retry
		o.Log.Info("subscriber skipped",
			zap.String("subscriber", sub.ID),
			zap.String("reason", dec.Reason))
		return 0, false, nil
	}

	if err := o.Marker.MarkStarted(ctx, sub.ID); err != nil {
		o.Log.Warn("scan marker set failed", zap.String("subscriber", sub.ID), zap.Error(err))
	}
	defer func() {
		if err := o.Marker.MarkFinished(ctx, sub.ID); err != nil {
			o.Log.Warn("scan marker clear failed", zap.String("subscriber", sub.ID), zap.Error(err))
		}
	}()

	var arbs []markets.ArbOpportunity
	for _, region := range covered {
		arbs = append(arbs, snapshots[region].Opportunities...)
	}

	now := o.now()
	eval := EvaluateAlerts(&st, sub, arbs, now)

	if len(eval.ToSend) > 0 {
		opps := o.buildAlertPayload(eval.ToSend)
		if err := o.Alerts.SendAlerts(ctx, sub.ID, sub.AlertDestination, opps); err != nil {
			// contabilidade de dedup fica como está: reenviar um envio
			// falhado não tem utilidade
			o.onError("alert_send")
			errs = append(errs, (&AlertGatewayError{SubscriberID: sub.ID, Err: err}).Error())
		} else {
			st.LastAlertAt = now
			alertsSent = len(eval.ToSend)
			if o.OnAlertSent != nil {
				o.OnAlertSent()
			}
		}
	}

	st.LastScanAt = now
	st.CreditsUsedThisMonth += dec.EstimatedCredits
	if err := o.Subs.SaveScanState(ctx, sub.ID, st); err != nil {
		o.onError("scan_state")
		errs = append(errs, (&PersistenceError{Op: "save scan state " + sub.ID, Err: err}).Error())
	}

	return alertsSent, true, errs
}

// buildAlertPayload converte as arbitragens em pernas com sugestão de stake
// proporcional sobre o budget configurado.
func (o *Orchestrator) buildAlertPayload(arbs []markets.ArbOpportunity) []events.AlertOpportunity {
	total := o.Cfg.AlertStakeTotal
	if total <= 0 {
		total = 100
	}

	out := make([]events.AlertOpportunity, 0, len(arbs))
	for _, arb := range arbs {
		legs := arb.Outcomes()
		if len(legs) == 0 && arb.BackOutcome != nil && arb.LayOutcome != nil {
			legs = []*markets.Outcome{arb.BackOutcome, arb.LayOutcome}
		}

		odds := make([]float64, len(legs))
		for i, l := range legs {
			odds[i] = l.Odds
		}
		split, err := stakes.Proportional(odds, total)

		ao := events.AlertOpportunity{
			EventID:       arb.Event.ID,
			EventName:     arb.Event.HomeTeam + " x " + arb.Event.AwayTeam,
			SportKey:      arb.Event.SportKey,
			ProfitPercent: arb.ProfitPercentage,
		}
		for i, l := range legs {
			leg := events.AlertLeg{Outcome: l.Name, Bookmaker: l.Bookmaker, Odds: l.Odds}
			if err == nil {
				leg.Stake = split.Stakes[i]
			}
			ao.Legs = append(ao.Legs, leg)
		}
		out = append(out, ao)
	}
	return out
}

func (o *Orchestrator) publishSummary(ctx context.Context, sum Summary) {
	if o.Summary == nil {
		return
	}
	ev := events.ScanSummary{
		ScanID:     sum.ScanID,
		Processed:  sum.Processed,
		Scanned:    sum.Scanned,
		AlertsSent: sum.AlertsSent,
		Regions:    sum.Regions,
		Errors:     sum.Errors,
		Ts:         o.now(),
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := o.Summary.PublishSummary(pctx, ev); err != nil {
		o.Log.Warn("scan summary publish failed", zap.Error(err))
	}
}

// intersect devolve as regiões do assinante cobertas neste ciclo, na ordem
// do assinante.
func intersect(want []string, have map[string]*markets.RegionSnapshot) []string {
	var out []string
	for _, r := range want {
		if _, ok := have[r]; ok {
			out = append(out, r)
		}
	}
	return out
}
