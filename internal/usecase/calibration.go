package usecase

import (
	"context"
	"fmt"
	"time"

	"WxEdge/internal/domain/repository"
	"WxEdge/internal/service/station"
	applogger "WxEdge/pkg/logger"
)

// Calibrator records official settlements and reads back forecast error
// history from the archive.
type Calibrator struct {
	city    string
	dsm     *station.DSMService
	archive repository.ArchiveStore
	logger  *applogger.Logger
}

// NewCalibrator wires the settlement use case. archive may be nil when
// archiving is disabled; recording then becomes a no-op with an error.
func NewCalibrator(city string, dsm *station.DSMService, archive repository.ArchiveStore, l *applogger.Logger) *Calibrator {
	return &Calibrator{city: city, dsm: dsm, archive: archive, logger: l}
}

// RecordSettlement fetches the official daily summary for a date and
// stores every version found, corrections included. Returns the number
// of records stored.
func (c *Calibrator) RecordSettlement(ctx context.Context, date string) (int, error) {
	if c.archive == nil {
		return 0, fmt.Errorf("archive disabled")
	}

	records, err := c.dsm.FetchForDate(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("fetch settlement: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	stored := 0
	for _, rec := range records {
		if err := c.archive.StoreSettlement(ctx, rec); err != nil {
			c.logger.Warn("settlement store failed",
				applogger.String("date", rec.Date), applogger.Error(err))
			continue
		}
		stored++
	}

	c.logger.Info("settlement recorded",
		applogger.String("date", date), applogger.Int("records", stored))
	return stored, nil
}

// ForecastErrors returns archived forecast-vs-settlement rows for a window.
func (c *Calibrator) ForecastErrors(ctx context.Context, from, to time.Time) ([]repository.ForecastError, error) {
	if c.archive == nil {
		return nil, fmt.Errorf("archive disabled")
	}
	return c.archive.ForecastErrors(ctx, c.city, from, to)
}
