package di

import (
	"context"
	"fmt"
	"time"

	"WxEdge/internal/domain/repository"
	"WxEdge/internal/engine"
	"WxEdge/internal/handler/api"
	internalrepo "WxEdge/internal/repository"
	"WxEdge/internal/scheduler"
	"WxEdge/internal/service/market"
	"WxEdge/internal/service/station"
	"WxEdge/internal/service/weather"
	"WxEdge/internal/usecase"
	"WxEdge/pkg/cache"
	pkgch "WxEdge/pkg/clickhouse"
	"WxEdge/pkg/config"
	xhttp "WxEdge/pkg/http"
	applogger "WxEdge/pkg/logger"
	"WxEdge/pkg/metrics"
	"WxEdge/pkg/server"
)

// ProvideLogger creates the application logger with the error tail the
// dashboard footer reads.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	l.AttachTail(20)
	return l, nil
}

// ProvideCity resolves the configured city or fails fast.
func ProvideCity(cfg *config.Config) (config.City, error) {
	city, err := config.GetCity(cfg.Refresh.City)
	if err != nil {
		return config.City{}, fmt.Errorf("resolve city: %w", err)
	}
	return city, nil
}

// ProvideLocation loads the city's timezone.
func ProvideLocation(city config.City) (*time.Location, error) {
	loc, err := time.LoadLocation(city.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %s: %w", city.Timezone, err)
	}
	return loc, nil
}

// ProvideCache returns redis when configured, in-process memory otherwise,
// nil when caching is off entirely.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	if cfg.Cache.Redis.Enabled {
		c, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err != nil {
			// degraded but functional: fall back to memory
			l.Warn("redis unavailable, using memory cache", applogger.Error(err))
			return cache.NewMemoryCache(), nil
		}
		return c, nil
	}
	return cache.NewMemoryCache(), nil
}

// ProvideHTTPClient builds the outbound HTTP client shared by all fetchers.
// NWS rejects requests without a User-Agent.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Weather.Timeout),
		xhttp.WithUserAgent(cfg.Weather.UserAgent),
	)
}

// ProvideMetrics creates the Prometheus recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideEngine builds the analysis pipeline from config, falling back to
// defaults for anything unset.
func ProvideEngine(cfg *config.Config) *engine.Pipeline {
	ec := engine.DefaultConfig()
	if cfg.Engine.MinStdDev > 0 {
		ec.MinStdDev = cfg.Engine.MinStdDev
	}
	if cfg.Engine.MaxStdDev > 0 {
		ec.MaxStdDev = cfg.Engine.MaxStdDev
	}
	if len(cfg.Engine.Weights) > 0 {
		ec.Weights = cfg.Engine.Weights
	}
	if cfg.Engine.DefaultWeight > 0 {
		ec.DefaultWeight = cfg.Engine.DefaultWeight
	}
	if cfg.Engine.ObsRampEnd > 0 {
		ec.ObsRampStart = cfg.Engine.ObsRampStart
		ec.ObsRampEnd = cfg.Engine.ObsRampEnd
	}
	if cfg.Engine.FeeRate > 0 {
		ec.FeeRate = cfg.Engine.FeeRate
	}
	if cfg.Engine.MinEdge > 0 {
		ec.MinEdge = cfg.Engine.MinEdge
	}
	if cfg.Engine.Confidence.EdgeGain > 0 {
		ec.Confidence = engine.ConfidenceCurve{
			EdgeGain:     cfg.Engine.Confidence.EdgeGain,
			SigmaPenalty: cfg.Engine.Confidence.SigmaPenalty,
			Base:         cfg.Engine.Confidence.Base,
		}
	}
	return engine.New(ec)
}

// ProvideForecastSources wires every forecast provider for the city.
func ProvideForecastSources(cfg *config.Config, city config.City, client *xhttp.Client, c cache.Service, l *applogger.Logger) []repository.ForecastSource {
	wc := weather.Config{
		ForecastURL:   cfg.Weather.OpenMeteoURL,
		GFSURL:        cfg.Weather.GFSURL,
		EnsembleURL:   cfg.Weather.EnsembleURL,
		NWSBase:       cfg.Weather.NWSBase,
		Latitude:      city.Latitude,
		Longitude:     city.Longitude,
		Timezone:      city.Timezone,
		DefaultStdDev: cfg.Weather.DefaultStdDev,
		MinStdDev:     cfg.Engine.MinStdDev,
		Backoff: weather.BackoffConfig{
			MaxRetries:      cfg.Weather.MaxRetries,
			InitialInterval: cfg.Weather.BackoffMin,
			MaxInterval:     cfg.Weather.BackoffMax,
		},
		CacheTTL: cfg.Cache.TTL,
	}
	return []repository.ForecastSource{
		weather.NewNWSSource(wc, client, c, l),
		weather.NewOpenMeteoSource(wc, client, c, l),
	}
}

// ProvideStationService wires the settlement station observation fetcher.
func ProvideStationService(cfg *config.Config, city config.City, client *xhttp.Client, c cache.Service, l *applogger.Logger) (*station.Service, error) {
	sc := station.Config{
		NWSBase:   cfg.Weather.NWSBase,
		StationID: city.StationID,
		Timezone:  city.Timezone,
		Timeout:   cfg.Weather.Timeout,
		CacheTTL:  cfg.Cache.TTL,
	}
	sc.Backoff.MaxRetries = cfg.Weather.MaxRetries
	sc.Backoff.InitialInterval = cfg.Weather.BackoffMin
	sc.Backoff.MaxInterval = cfg.Weather.BackoffMax
	return station.NewService(sc, client, c, l)
}

// ProvideDSMService wires the daily summary product fetcher.
func ProvideDSMService(city config.City, client *xhttp.Client, l *applogger.Logger) *station.DSMService {
	return station.NewDSMService(station.DSMConfig{
		IssuedBy:  city.WFO,
		StationID: city.StationID,
		City:      city.Code,
		Timezone:  city.Timezone,
	}, client, l)
}

// ProvideMarketClient wires the Kalshi REST client for the city's series.
func ProvideMarketClient(cfg *config.Config, city config.City, client *xhttp.Client, c cache.Service, l *applogger.Logger) *market.Client {
	return market.NewClient(market.Config{
		APIBase:  cfg.Market.APIBase,
		Series:   city.HighSeries,
		CacheTTL: cfg.Cache.TTL,
	}, client, c, l)
}

// ProvidePriceStream wires the live price websocket, nil when unconfigured.
func ProvidePriceStream(cfg *config.Config, l *applogger.Logger) repository.PriceStream {
	if cfg.Market.WebSocketURL == "" {
		return nil
	}
	return market.NewStream(cfg.Market.WebSocketURL, cfg.Market.ReconnectDelay, cfg.Market.StreamPing, l)
}

// ProvideArchive creates the calibration archive, nil when disabled.
func ProvideArchive(cfg *config.Config, l *applogger.Logger) (repository.ArchiveStore, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.Archive.Host),
		pkgch.WithPort(cfg.Archive.Port),
		pkgch.WithDatabase(cfg.Archive.Database),
		pkgch.WithCredentials(cfg.Archive.User, cfg.Archive.Password),
		pkgch.WithMaxConnections(5, 2),
		pkgch.WithTimeouts(cfg.Archive.DialTimeout, cfg.Archive.ReadTimeout),
		pkgch.WithAsyncInsert(true),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	store := internalrepo.NewCHArchive(client, l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// ProvideAnalyzer wires the refresh tick use case.
func ProvideAnalyzer(
	city config.City,
	loc *time.Location,
	sources []repository.ForecastSource,
	st *station.Service,
	mk *market.Client,
	pipeline *engine.Pipeline,
	archive repository.ArchiveStore,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Analyzer {
	opts := []usecase.AnalyzerOption{}
	if archive != nil {
		opts = append(opts, usecase.WithArchive(archive))
	}
	return usecase.NewAnalyzer(city.Code, loc, sources, st, mk, pipeline, m, l, opts...)
}

// ProvideCalibrator wires the settlement capture use case.
func ProvideCalibrator(city config.City, dsm *station.DSMService, archive repository.ArchiveStore, l *applogger.Logger) *usecase.Calibrator {
	return usecase.NewCalibrator(city.Code, dsm, archive, l)
}

// ProvideScheduler wires the periodic jobs.
func ProvideScheduler(cfg *config.Config, an *usecase.Analyzer, cal *usecase.Calibrator, loc *time.Location, archive repository.ArchiveStore, l *applogger.Logger) *scheduler.Scheduler {
	if archive == nil {
		cal = nil // settlement capture needs somewhere to write
	}
	return scheduler.New(an, cal, cfg.Refresh.Interval, loc, l)
}

// ProvideHTTPHandler wires the API routes.
func ProvideHTTPHandler(l *applogger.Logger, an *usecase.Analyzer, cal *usecase.Calibrator, city config.City) xhttp.Handler {
	return api.NewAnalysisHandler(l, an, cal, city.Code)
}

// ProvideHTTPServer builds the echo server.
func ProvideHTTPServer(cfg *config.Config, handler xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	return xhttp.NewServer(handler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(cfg.Metrics.Enabled),
		xhttp.WithLogger(l),
	)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	an *usecase.Analyzer,
	sched *scheduler.Scheduler,
	stream repository.PriceStream,
	httpServer *xhttp.Server,
	archive repository.ArchiveStore,
	c cache.Service,
) *server.App {
	return server.New(cfg, l, an, sched, stream, httpServer, archive, c)
}
