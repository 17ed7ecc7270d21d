package engine

import (
	"WxEdge/internal/domain/models"
)

// ObservationWeight maps the fractional hour of day to the blend weight of
// the observed high: 0 before the ramp start, 1 after the ramp end, linear
// in between. Early in the day the forecast dominates; near settlement the
// tape is almost the answer.
func ObservationWeight(cfg Config, hour float64) float64 {
	if hour < cfg.ObsRampStart {
		return 0
	}
	if hour >= cfg.ObsRampEnd {
		return 1
	}
	span := cfg.ObsRampEnd - cfg.ObsRampStart
	if span <= 0 {
		return 1
	}
	return (hour - cfg.ObsRampStart) / span
}

// Refine blends the combined forecast with the live observed high.
//
// The blended mean is clamped to the observed high: a day's eventual
// maximum cannot be below what the station has already recorded. The std
// dev shrinks with the blend weight, but never below the station's own
// quantization bound once the observation dominates.
func Refine(cfg Config, cf models.CombinedForecast, obs *models.ObservationState, hour float64) models.RefinedForecast {
	rf := models.RefinedForecast{
		TargetDate: cf.TargetDate,
		MeanF:      cf.MeanF,
		StdDevF:    cf.StdDevF,
		Sources:    cf.Sources,
	}
	if obs == nil {
		return rf
	}

	w := ObservationWeight(cfg, hour)
	rf.ObsWeight = w

	mean := (1-w)*cf.MeanF + w*obs.ObservedHighF
	if mean < obs.ObservedHighF {
		mean = obs.ObservedHighF
	}
	rf.MeanF = mean

	// Quantization gap: the settlement value may sit anywhere between the
	// observed high and the possible bound, so the refined distribution
	// cannot collapse tighter than that gap as w approaches 1.
	gap := obs.PossibleHighF - obs.ObservedHighF
	if gap < 0 {
		gap = 0
	}
	floor := cfg.MinStdDev
	if qf := gap * w; qf > floor {
		floor = qf
	}

	std := cf.StdDevF * (1 - w)
	if std < floor {
		std = floor
	}
	rf.StdDevF = std

	return rf
}
