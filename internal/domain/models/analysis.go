package models

import (
	"time"

	"github.com/google/uuid"
)

// Analysis is the complete output of one refresh tick. The intermediate
// forecasts are part of the observable contract: the dashboard and the HTTP
// API render them, not just the signals.
type Analysis struct {
	ID          uuid.UUID
	City        string
	TargetDate  string
	Forecasts   []ForecastPoint
	Observation *ObservationState // nil before the first reading of the day
	Brackets    []Bracket
	Combined    CombinedForecast
	Refined     RefinedForecast
	Probs       []BracketProbability
	Signals     []TradingSignal // ranked by edge, descending
	Rejected    []string        // tickers of brackets dropped as malformed
	AnalyzedAt  time.Time
}

// SettlementRecord is a finalized daily high for one station-day, used by
// the forecast calibration archive.
type SettlementRecord struct {
	City       string
	Date       string // YYYY-MM-DD
	HighF      float64
	LowF       float64
	Source     string // "DSM", "CLI", ...
	Final      bool   // false for preliminary mid-day reports
	RecordedAt time.Time
}
