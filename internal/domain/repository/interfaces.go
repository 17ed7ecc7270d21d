package repository

import (
	"context"
	"time"

	"WxEdge/internal/domain/models"
)

// ForecastSource fetches temperature forecasts for a target date.
// Implementations own all transport, retry, and parsing concerns; the
// engine only ever sees the assembled ForecastPoint values.
type ForecastSource interface {
	Name() string
	FetchForecasts(ctx context.Context, targetDate string) ([]models.ForecastPoint, error)
}

// StationSource fetches observations from the settlement station.
type StationSource interface {
	FetchReadings(ctx context.Context) ([]models.StationReading, error)
	DailySummary(ctx context.Context, date string) (*models.ObservationState, error)
}

// MarketSource fetches bracket markets for a target date.
type MarketSource interface {
	FetchBrackets(ctx context.Context, targetDate string) ([]models.Bracket, error)
	AvailableDates(ctx context.Context) ([]string, error)
}

// PriceStream delivers live bid/ask updates for subscribed market tickers
// between REST refreshes.
type PriceStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, tickers []string) error
	Read(ctx context.Context) (<-chan models.Bracket, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// ArchiveStore persists forecast snapshots and settlement outcomes for
// calibration. Trading signals are deliberately not stored.
type ArchiveStore interface {
	Init(ctx context.Context) error
	StoreSnapshot(ctx context.Context, a *models.Analysis) error
	StoreSettlement(ctx context.Context, rec models.SettlementRecord) error
	ForecastErrors(ctx context.Context, city string, from, to time.Time) ([]ForecastError, error)
	Health(ctx context.Context) error
	Close() error
}

// ForecastError is one archived forecast-vs-settlement comparison row.
type ForecastError struct {
	City      string
	Date      string
	MeanF     float64
	StdDevF   float64
	SettledF  float64
	ErrorF    float64 // MeanF - SettledF
	AsOfHour  float64
	Snapshots int
}

// Metrics abstracts operational counters so use cases do not depend on a
// concrete metrics backend.
type Metrics interface {
	RecordTick(city, status string)
	RecordFetchError(source string)
	RecordSignals(city string, n int)
	RecordForecast(city string, meanF, stdDevF float64)
	RecordTickDuration(city string, d time.Duration)
}
