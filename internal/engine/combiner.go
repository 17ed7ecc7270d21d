package engine

import (
	"math"
	"time"

	"WxEdge/internal/domain/models"
)

// z-score for the 10th/90th percentiles of a normal distribution.
const z10 = 1.28155

// Combine merges independent forecasts into a single Gaussian estimate of
// the day's high.
//
// The combined variance has two components:
//
//	sigma^2 = sum(w_i * sigma_i^2)/sum(w_i) + sum(w_i * (x_i - mu)^2)/sum(w_i)
//
// The first term pools each model's self-reported uncertainty; the second
// measures how much the models disagree with each other. Disagreement adds
// uncertainty: models far apart should widen the distribution, not narrow it.
func Combine(cfg Config, points []models.ForecastPoint) (models.CombinedForecast, error) {
	valid := points[:0:0]
	for _, p := range points {
		if math.IsNaN(p.MeanF) || math.IsInf(p.MeanF, 0) {
			continue
		}
		valid = append(valid, p)
	}
	if len(valid) == 0 {
		return models.CombinedForecast{}, ErrInsufficientData
	}

	weights := make([]float64, len(valid))
	total := 0.0
	for i, p := range valid {
		w := cfg.WeightFor(p.Source)
		if w < 0 {
			w = 0
		}
		weights[i] = w
		total += w
	}
	if total <= 0 {
		// every source weighted to zero is a config anomaly, not a reason
		// to abort: fall back to equal weights
		for i := range weights {
			weights[i] = 1
		}
		total = float64(len(weights))
	}

	normalized := make(map[string]float64, len(valid))
	mean := 0.0
	for i, p := range valid {
		w := weights[i] / total
		normalized[p.Source] = w
		mean += w * p.MeanF
	}

	var pooled, disagree float64
	for i, p := range valid {
		w := weights[i] / total
		sd := p.StdDevF
		if sd < 0 {
			sd = 0
		}
		pooled += w * sd * sd
		d := p.MeanF - mean
		disagree += w * d * d
	}

	std := math.Sqrt(pooled + disagree)
	if std < cfg.MinStdDev {
		std = cfg.MinStdDev
	}
	if cfg.MaxStdDev > 0 && std > cfg.MaxStdDev {
		std = cfg.MaxStdDev
	}

	sources := make([]string, len(valid))
	for i, p := range valid {
		sources[i] = p.Source
	}

	return models.CombinedForecast{
		TargetDate:  valid[0].TargetDate,
		MeanF:       mean,
		StdDevF:     std,
		LowF:        mean - z10*std,
		HighF:       mean + z10*std,
		Sources:     sources,
		WeightsUsed: normalized,
		CombinedAt:  time.Now(),
	}, nil
}
