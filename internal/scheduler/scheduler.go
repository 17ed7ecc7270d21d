package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"WxEdge/internal/usecase"
	applogger "WxEdge/pkg/logger"
	"WxEdge/pkg/util"
)

const tickTimeout = 60 * time.Second

// Scheduler drives the periodic refresh tick and the daily settlement
// capture. Jobs run in the market's local timezone so "yesterday" means
// the station's yesterday, not UTC's.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	analyzer   *usecase.Analyzer
	calibrator *usecase.Calibrator
	interval   time.Duration
	loc        *time.Location
	logger     *applogger.Logger
}

func New(analyzer *usecase.Analyzer, calibrator *usecase.Calibrator, interval time.Duration, loc *time.Location, l *applogger.Logger) *Scheduler {
	return &Scheduler{
		scheduler:  gocron.NewScheduler(loc),
		analyzer:   analyzer,
		calibrator: calibrator,
		interval:   interval,
		loc:        loc,
		logger:     l,
	}
}

// Start schedules the jobs and runs the first tick immediately.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 45 * time.Second
	}

	_, err := s.scheduler.Every(interval).StartImmediately().Do(s.tick)
	if err != nil {
		return err
	}

	// DSM products for a day publish the following morning; corrections
	// can land hours later, so capture twice.
	if s.calibrator != nil {
		for _, at := range []string{"09:30", "15:30"} {
			if _, err := s.scheduler.Every(1).Day().At(at).Do(s.captureSettlement); err != nil {
				return err
			}
		}
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	if _, err := s.analyzer.Run(ctx); err != nil {
		s.logger.Warn("scheduled tick failed", applogger.Error(err))
	}
}

func (s *Scheduler) captureSettlement() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	yesterday := util.DateKey(util.LocalDay(time.Now(), s.loc).AddDate(0, 0, -1))
	n, err := s.calibrator.RecordSettlement(ctx, yesterday)
	if err != nil {
		s.logger.Warn("settlement capture failed",
			applogger.String("date", yesterday), applogger.Error(err))
		return
	}
	if n == 0 {
		s.logger.Warn("settlement not yet published", applogger.String("date", yesterday))
	}
}

// Stop cancels all future jobs. Running jobs finish.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
