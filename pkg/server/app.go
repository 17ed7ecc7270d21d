package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"WxEdge/internal/display"
	"WxEdge/internal/domain/models"
	"WxEdge/internal/domain/repository"
	"WxEdge/internal/scheduler"
	"WxEdge/internal/usecase"
	"WxEdge/pkg/cache"
	"WxEdge/pkg/config"
	xhttp "WxEdge/pkg/http"
	applogger "WxEdge/pkg/logger"
)

// App encapsulates the application lifecycle: the refresh scheduler, the
// live price stream consumer, and the HTTP API.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	analyzer   *usecase.Analyzer
	scheduler  *scheduler.Scheduler
	stream     repository.PriceStream // nil when websocket is unconfigured
	httpServer *xhttp.Server
	archive    repository.ArchiveStore // nil when disabled
	cache      cache.Service           // nil when disabled
}

func New(
	cfg *config.Config,
	l *applogger.Logger,
	analyzer *usecase.Analyzer,
	sched *scheduler.Scheduler,
	stream repository.PriceStream,
	httpServer *xhttp.Server,
	archive repository.ArchiveStore,
	c cache.Service,
) *App {
	return &App{
		cfg:        cfg,
		logger:     l,
		analyzer:   analyzer,
		scheduler:  sched,
		stream:     stream,
		httpServer: httpServer,
		archive:    archive,
		cache:      c,
	}
}

// Run starts all services and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.scheduler.Start(); err != nil {
		return err
	}
	a.logger.Info("scheduler started",
		applogger.String("city", a.cfg.Refresh.City),
		applogger.Duration("interval", a.cfg.Refresh.Interval),
	)

	if a.stream != nil {
		go a.consumeStream(ctx)
	}

	if err := a.httpServer.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// RunOnce executes a single tick and renders the dashboard to w.
func (a *App) RunOnce(ctx context.Context, w io.Writer) error {
	analysis, err := a.analyzer.Run(ctx)
	if err != nil {
		return err
	}
	display.NewRenderer(w, a.logger).Render(analysis)
	return nil
}

// consumeStream connects the price websocket once the first tick has
// produced tickers to subscribe to, then folds updates into the analyzer.
func (a *App) consumeStream(ctx context.Context) {
	latest := a.awaitFirstAnalysis(ctx)
	if latest == nil {
		return
	}

	tickers := make([]string, 0, len(latest.Brackets))
	for _, b := range latest.Brackets {
		tickers = append(tickers, b.Ticker)
	}
	if len(tickers) == 0 {
		a.logger.Info("no markets to stream")
		return
	}

	if err := a.stream.Connect(ctx); err != nil {
		a.logger.Warn("price stream connect failed", applogger.Error(err))
		return
	}
	if err := a.stream.Subscribe(ctx, tickers); err != nil {
		a.logger.Warn("price stream subscribe failed", applogger.Error(err))
		return
	}
	a.logger.Info("price stream connected", applogger.Int("tickers", len(tickers)))

	updates, errs := a.stream.Read(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			a.analyzer.ApplyPriceUpdate(update)
		case err, ok := <-errs:
			if !ok {
				return
			}
			a.logger.Warn("price stream error, reconnecting", applogger.Error(err))
			if rerr := a.stream.Reconnect(ctx); rerr != nil {
				a.logger.Error("price stream reconnect failed", applogger.Error(rerr))
				return
			}
			updates, errs = a.stream.Read(ctx)
		}
	}
}

func (a *App) awaitFirstAnalysis(ctx context.Context) *models.Analysis {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if latest := a.analyzer.Latest(); latest != nil {
				return latest
			}
		}
	}
}

func (a *App) shutdown(ctx context.Context) error {
	a.scheduler.Stop()

	if a.stream != nil {
		if err := a.stream.Close(); err != nil {
			a.logger.Warn("price stream close error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			a.logger.Warn("archive close error", applogger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("cache close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
