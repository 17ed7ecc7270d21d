package models

import "time"

// ForecastPoint is a single model's estimate of a day's high temperature.
// All temperatures are Fahrenheit; the market settles in whole degrees F.
type ForecastPoint struct {
	Source     string // "NWS", "ECMWF", "GFS+HRRR", "Open-Meteo Ensemble", ...
	TargetDate string // YYYY-MM-DD
	MeanF      float64
	StdDevF    float64 // self-reported uncertainty; 0 is treated as a data error upstream
	LowF       float64 // 10th percentile
	HighF      float64 // 90th percentile
	Members    []float64
	FetchedAt  time.Time
}

// CombinedForecast is the weighted merge of all forecast points for one tick.
type CombinedForecast struct {
	TargetDate  string
	MeanF       float64
	StdDevF     float64
	LowF        float64 // 10th percentile under the combined normal
	HighF       float64 // 90th percentile
	Sources     []string
	WeightsUsed map[string]float64 // normalized weight per source
	CombinedAt  time.Time
}

// Variance returns std dev squared.
func (f CombinedForecast) Variance() float64 { return f.StdDevF * f.StdDevF }

// RefinedForecast is the combined forecast after blending with the day's
// observed high. MeanF is never below the observed high when an observation
// was present.
type RefinedForecast struct {
	TargetDate string
	MeanF      float64
	StdDevF    float64
	ObsWeight  float64 // blend weight actually applied, 0 when no observation
	Sources    []string
}
