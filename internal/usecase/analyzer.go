package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"WxEdge/internal/domain/models"
	"WxEdge/internal/domain/repository"
	"WxEdge/internal/engine"
	applogger "WxEdge/pkg/logger"
	"WxEdge/pkg/util"

	"github.com/google/uuid"
)

// Analyzer runs the full refresh tick: fetch forecasts, observations, and
// markets concurrently, run the engine, and keep the latest Analysis for
// the HTTP API and dashboard.
type Analyzer struct {
	city     string
	loc      *time.Location
	sources  []repository.ForecastSource
	station  repository.StationSource
	market   repository.MarketSource
	pipeline *engine.Pipeline
	archive  repository.ArchiveStore // nil when archiving is disabled
	metrics  repository.Metrics
	logger   *applogger.Logger

	now func() time.Time

	mu     sync.RWMutex
	latest *models.Analysis
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithArchive attaches a calibration archive.
func WithArchive(a repository.ArchiveStore) AnalyzerOption {
	return func(an *Analyzer) { an.archive = a }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) AnalyzerOption {
	return func(an *Analyzer) { an.now = now }
}

// NewAnalyzer wires the tick use case.
func NewAnalyzer(
	city string,
	loc *time.Location,
	sources []repository.ForecastSource,
	station repository.StationSource,
	market repository.MarketSource,
	pipeline *engine.Pipeline,
	metrics repository.Metrics,
	logger *applogger.Logger,
	opts ...AnalyzerOption,
) *Analyzer {
	a := &Analyzer{
		city:     city,
		loc:      loc,
		sources:  sources,
		station:  station,
		market:   market,
		pipeline: pipeline,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// TargetDate returns the local date the analysis is for.
func (a *Analyzer) TargetDate() string {
	return util.DateKey(a.now().In(a.loc))
}

// Latest returns the most recent Analysis, or nil before the first tick.
func (a *Analyzer) Latest() *models.Analysis {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest
}

// Run executes one tick for the current local date.
func (a *Analyzer) Run(ctx context.Context) (*models.Analysis, error) {
	return a.RunForDate(ctx, a.TargetDate())
}

// RunForDate executes one tick for an explicit target date. Fetch failures
// from individual collaborators degrade the analysis instead of aborting
// it; only an empty forecast set is fatal.
func (a *Analyzer) RunForDate(ctx context.Context, targetDate string) (*models.Analysis, error) {
	start := a.now()

	points, obs, brackets := a.fetchAll(ctx, targetDate)

	hour := util.FractionalHour(start.In(a.loc))
	result, err := a.pipeline.Analyze(points, obs, brackets, hour)
	if err != nil {
		a.metrics.RecordTick(a.city, "failed")
		if errors.Is(err, engine.ErrInsufficientData) {
			a.logger.Warn("tick skipped: no forecasts", applogger.String("date", targetDate))
		}
		return nil, err
	}

	rejected := make([]string, 0, len(result.Rejected))
	for _, r := range result.Rejected {
		rejected = append(rejected, r.Ticker)
		a.logger.Warn("bracket rejected",
			applogger.String("ticker", r.Ticker), applogger.String("reason", r.Reason))
	}

	analysis := &models.Analysis{
		ID:          uuid.New(),
		City:        a.city,
		TargetDate:  targetDate,
		Forecasts:   points,
		Observation: obs,
		Brackets:    brackets,
		Combined:    result.Combined,
		Refined:     result.Refined,
		Probs:       result.Probs,
		Signals:     result.Signals,
		Rejected:    rejected,
		AnalyzedAt:  start,
	}

	a.mu.Lock()
	a.latest = analysis
	a.mu.Unlock()

	a.metrics.RecordTick(a.city, "ok")
	a.metrics.RecordSignals(a.city, len(analysis.Signals))
	a.metrics.RecordForecast(a.city, analysis.Refined.MeanF, analysis.Refined.StdDevF)
	a.metrics.RecordTickDuration(a.city, a.now().Sub(start))

	if a.archive != nil {
		if err := a.archive.StoreSnapshot(ctx, analysis); err != nil {
			a.logger.Warn("snapshot archive failed", applogger.Error(err))
		}
	}

	a.logger.Info("tick complete",
		applogger.String("date", targetDate),
		applogger.Int("forecasts", len(points)),
		applogger.Int("brackets", len(brackets)),
		applogger.Int("signals", len(analysis.Signals)),
	)
	return analysis, nil
}

// ApplyPriceUpdate folds a live book update into the latest analysis and
// recomputes probabilities and signals without refetching anything. No-op
// when no tick has completed yet or the ticker is unknown.
func (a *Analyzer) ApplyPriceUpdate(update models.Bracket) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.latest == nil {
		return
	}

	idx := -1
	for i, b := range a.latest.Brackets {
		if b.Ticker == update.Ticker {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	brackets := append([]models.Bracket(nil), a.latest.Brackets...)
	brackets[idx].YesBid = update.YesBid
	brackets[idx].YesAsk = update.YesAsk
	if update.LastPrice > 0 {
		brackets[idx].LastPrice = update.LastPrice
	}
	if update.Volume > 0 {
		brackets[idx].Volume = update.Volume
	}
	brackets[idx].ImpliedProb = update.ImpliedProb

	now := a.now()
	hour := util.FractionalHour(now.In(a.loc))
	result, err := a.pipeline.Analyze(a.latest.Forecasts, a.latest.Observation, brackets, hour)
	if err != nil {
		return
	}

	refreshed := *a.latest
	refreshed.Brackets = brackets
	refreshed.Probs = result.Probs
	refreshed.Signals = result.Signals
	refreshed.AnalyzedAt = now
	a.latest = &refreshed

	a.metrics.RecordSignals(a.city, len(refreshed.Signals))
}

// fetchAll gathers inputs from every collaborator concurrently. Each
// failure is logged and counted; the tick proceeds with what arrived.
func (a *Analyzer) fetchAll(ctx context.Context, targetDate string) ([]models.ForecastPoint, *models.ObservationState, []models.Bracket) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		points   []models.ForecastPoint
		obs      *models.ObservationState
		brackets []models.Bracket
	)

	for _, src := range a.sources {
		wg.Add(1)
		go func(src repository.ForecastSource) {
			defer wg.Done()
			ps, err := src.FetchForecasts(ctx, targetDate)
			if err != nil {
				a.metrics.RecordFetchError(src.Name())
				a.logger.Warn("forecast fetch failed",
					applogger.String("source", src.Name()), applogger.Error(err))
				return
			}
			mu.Lock()
			points = append(points, ps...)
			mu.Unlock()
		}(src)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		o, err := a.station.DailySummary(ctx, targetDate)
		if err != nil {
			a.metrics.RecordFetchError("station")
			a.logger.Warn("observation fetch failed", applogger.Error(err))
			return
		}
		mu.Lock()
		obs = o
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		bs, err := a.market.FetchBrackets(ctx, targetDate)
		if err != nil {
			a.metrics.RecordFetchError("market")
			a.logger.Warn("market fetch failed", applogger.Error(err))
			return
		}
		mu.Lock()
		brackets = bs
		mu.Unlock()
	}()

	wg.Wait()
	return points, obs, brackets
}
