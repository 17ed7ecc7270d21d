// Package engine holds the probability model and edge detection pipeline:
// forecast combination, observation blending, bracket probability mapping,
// and signal generation. Every stage is a pure function over immutable
// inputs, re-run from scratch each refresh tick; the only state a Pipeline
// carries is its configuration.
package engine

import (
	"WxEdge/internal/domain/models"
)

// Result is the output of one pipeline run. The intermediates are exposed
// deliberately: the dashboard and HTTP API display them alongside signals.
type Result struct {
	Combined models.CombinedForecast
	Refined  models.RefinedForecast
	Probs    []models.BracketProbability
	Signals  []models.TradingSignal
	Rejected []*MalformedBracketError
}

// Pipeline composes the four stages under a single immutable Config.
type Pipeline struct {
	cfg Config
}

func New(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

func (p *Pipeline) Config() Config { return p.cfg }

// Analyze runs combiner -> adjuster -> probability -> edge detection for
// one tick. It never blocks, performs no I/O, and completes in
// O(forecasts) + O(brackets).
//
// Missing observation is a normal input (early morning); an empty forecast
// set returns ErrInsufficientData and the caller should skip the tick.
func (p *Pipeline) Analyze(
	points []models.ForecastPoint,
	obs *models.ObservationState,
	brackets []models.Bracket,
	hour float64,
) (*Result, error) {
	combined, err := Combine(p.cfg, points)
	if err != nil {
		return nil, err
	}

	refined := Refine(p.cfg, combined, obs, hour)
	probs, rejected := BracketProbabilities(refined, brackets)
	signals := DetectEdges(p.cfg, refined, probs)

	return &Result{
		Combined: combined,
		Refined:  refined,
		Probs:    probs,
		Signals:  signals,
		Rejected: rejected,
	}, nil
}
