package engine

import (
	"math"
	"testing"

	"WxEdge/internal/domain/models"
)

func mkCombined(mean, std float64) models.CombinedForecast {
	return models.CombinedForecast{
		TargetDate: "2026-01-20",
		MeanF:      mean,
		StdDevF:    std,
		Sources:    []string{"NWS"},
	}
}

func mkObs(high, bound float64) *models.ObservationState {
	return &models.ObservationState{
		StationID:     "KNYC",
		Date:          "2026-01-20",
		ObservedHighF: high,
		PossibleHighF: bound,
	}
}

func TestObservationWeightRamp(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		hour float64
		want float64
	}{
		{0, 0}, {10, 0}, {13.99, 0},
		{14, 0}, {14.5, 0.25}, {15, 0.5}, {15.5, 0.75},
		{16, 1}, {18, 1}, {23.9, 1},
	}
	for _, c := range cases {
		if got := ObservationWeight(cfg, c.hour); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("ObservationWeight(%v) = %v, want %v", c.hour, got, c.want)
		}
	}
}

func TestRefineNoObservationPassesThrough(t *testing.T) {
	cfg := DefaultConfig()
	cf := mkCombined(55, 3)
	rf := Refine(cfg, cf, nil, 17) // late hour is irrelevant without an observation
	if rf.MeanF != cf.MeanF || rf.StdDevF != cf.StdDevF || rf.ObsWeight != 0 {
		t.Fatalf("want passthrough, got %+v", rf)
	}
}

func TestRefineMeanNeverBelowObservedHigh(t *testing.T) {
	cfg := DefaultConfig()
	// Forecast far below what has already happened.
	cf := mkCombined(50, 3)
	obs := mkObs(58, 58.6)
	for _, hour := range []float64{8, 13, 14.5, 15, 15.9, 16, 20} {
		rf := Refine(cfg, cf, obs, hour)
		if rf.MeanF < obs.ObservedHighF {
			t.Fatalf("hour %v: mean %v below observed high %v", hour, rf.MeanF, obs.ObservedHighF)
		}
	}
}

func TestRefineBlendedMean(t *testing.T) {
	cfg := DefaultConfig()
	cf := mkCombined(60, 3)
	obs := mkObs(56, 56.5)
	rf := Refine(cfg, cf, obs, 15) // w = 0.5
	want := 0.5*60 + 0.5*56
	if math.Abs(rf.MeanF-want) > 1e-9 {
		t.Fatalf("mean = %v, want %v", rf.MeanF, want)
	}
}

func TestRefineStdNonIncreasingWithHour(t *testing.T) {
	cfg := DefaultConfig()
	cf := mkCombined(55, 4)
	obs := mkObs(54, 54.5) // quantization gap below the floor
	prev := math.Inf(1)
	for _, hour := range []float64{12, 14, 14.5, 15, 15.5, 16, 18} {
		rf := Refine(cfg, cf, obs, hour)
		if rf.StdDevF > prev {
			t.Fatalf("std increased with hour: %v -> %v at hour %v", prev, rf.StdDevF, hour)
		}
		prev = rf.StdDevF
	}
}

func TestRefineStdFloorAtFullWeight(t *testing.T) {
	cfg := DefaultConfig()
	cf := mkCombined(55, 4)
	obs := mkObs(54, 54.3)
	rf := Refine(cfg, cf, obs, 18)
	if rf.StdDevF != cfg.MinStdDev {
		t.Fatalf("std = %v, want MinStdDev %v at full observation weight", rf.StdDevF, cfg.MinStdDev)
	}
}

func TestRefineWideQuantizationBoundHoldsStdUp(t *testing.T) {
	cfg := DefaultConfig()
	cf := mkCombined(55, 4)
	// A wide possible-high bound (e.g. a long gap between readings) must not
	// let the distribution collapse to the floor late in the day.
	obs := mkObs(54, 57)
	rf := Refine(cfg, cf, obs, 18) // w = 1
	if rf.StdDevF < 3 {
		t.Fatalf("std = %v, want >= quantization gap 3", rf.StdDevF)
	}
}

func TestRefineInvertedBoundTreatedAsZeroGap(t *testing.T) {
	cfg := DefaultConfig()
	cf := mkCombined(55, 4)
	obs := mkObs(54, 53) // bound below observed should never happen; clamp to 0
	rf := Refine(cfg, cf, obs, 18)
	if rf.StdDevF != cfg.MinStdDev {
		t.Fatalf("std = %v, want MinStdDev %v", rf.StdDevF, cfg.MinStdDev)
	}
}
