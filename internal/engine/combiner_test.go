package engine

import (
	"errors"
	"math"
	"testing"

	"WxEdge/internal/domain/models"
)

func mkPoint(source string, mean, std float64) models.ForecastPoint {
	return models.ForecastPoint{
		Source:     source,
		TargetDate: "2026-01-20",
		MeanF:      mean,
		StdDevF:    std,
	}
}

func TestCombineEmptyInput(t *testing.T) {
	_, err := Combine(DefaultConfig(), nil)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestCombineAllNaNInput(t *testing.T) {
	_, err := Combine(DefaultConfig(), []models.ForecastPoint{mkPoint("NWS", math.NaN(), 2)})
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestCombineIdenticalMeansZeroStdHitsFloor(t *testing.T) {
	cfg := DefaultConfig()
	points := []models.ForecastPoint{
		mkPoint("NWS", 55, 0),
		mkPoint("ECMWF", 55, 0),
		mkPoint("GFS", 55, 0),
	}
	cf, err := Combine(cfg, points)
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	if cf.MeanF != 55 {
		t.Fatalf("mean = %v, want 55", cf.MeanF)
	}
	if cf.StdDevF != cfg.MinStdDev {
		t.Fatalf("std = %v, want floor %v", cf.StdDevF, cfg.MinStdDev)
	}
}

func TestCombineWeightedMean(t *testing.T) {
	// NWS weight 5 at 60F, unknown weight 1 at 50F: (5*60 + 1*50) / 6
	cf, err := Combine(DefaultConfig(), []models.ForecastPoint{
		mkPoint("NWS", 60, 2),
		mkPoint("SomeUnknownModel", 50, 2),
	})
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	want := (5*60.0 + 1*50.0) / 6.0
	if math.Abs(cf.MeanF-want) > 0.01 {
		t.Fatalf("mean = %v, want %v", cf.MeanF, want)
	}
}

func TestCombineDisagreementWidens(t *testing.T) {
	cfg := Config{
		MinStdDev: 1.5, MaxStdDev: 50,
		Weights:       map[string]float64{},
		DefaultWeight: 1.0,
	}
	prev := 0.0
	for _, spread := range []float64{0, 1, 3, 6, 12} {
		cf, err := Combine(cfg, []models.ForecastPoint{
			mkPoint("A", 55-spread, 2),
			mkPoint("B", 55+spread, 2),
		})
		if err != nil {
			t.Fatalf("combine: %v", err)
		}
		if cf.StdDevF < prev {
			t.Fatalf("std decreased with wider disagreement: %v -> %v at spread %v", prev, cf.StdDevF, spread)
		}
		prev = cf.StdDevF
	}
}

func TestCombinePooledPlusDisagreement(t *testing.T) {
	cfg := Config{MinStdDev: 0.1, MaxStdDev: 100, DefaultWeight: 1.0}
	cf, err := Combine(cfg, []models.ForecastPoint{
		mkPoint("A", 50, 2),
		mkPoint("B", 60, 4),
	})
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	// pooled = (4 + 16)/2 = 10, disagreement = (25 + 25)/2 = 25
	want := math.Sqrt(10 + 25)
	if math.Abs(cf.StdDevF-want) > 1e-9 {
		t.Fatalf("std = %v, want %v", cf.StdDevF, want)
	}
}

func TestCombineMaxStdDevCap(t *testing.T) {
	cfg := DefaultConfig()
	cf, err := Combine(cfg, []models.ForecastPoint{
		mkPoint("A", 20, 2),
		mkPoint("B", 90, 2),
	})
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	if cf.StdDevF != cfg.MaxStdDev {
		t.Fatalf("std = %v, want cap %v", cf.StdDevF, cfg.MaxStdDev)
	}
}

func TestCombineZeroTotalWeightFallsBackToEqual(t *testing.T) {
	cfg := Config{MinStdDev: 1.5, MaxStdDev: 10, Weights: map[string]float64{"A": 0, "B": 0}, DefaultWeight: 0}
	cf, err := Combine(cfg, []models.ForecastPoint{
		mkPoint("A", 50, 2),
		mkPoint("B", 60, 2),
	})
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	if math.Abs(cf.MeanF-55) > 1e-9 {
		t.Fatalf("mean = %v, want 55 under equal-weight fallback", cf.MeanF)
	}
}

func TestWeightLookup(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		source string
		want   float64
	}{
		{"NWS", 5.0},
		{"nws", 5.0},              // case-insensitive
		{"GFS", 2.5},              // exact beats partial
		{"Open-Meteo Ensemble", 2.0},
		{"SomeUnknownModel", 1.0}, // default
	}
	for _, c := range cases {
		if got := cfg.WeightFor(c.source); got != c.want {
			t.Fatalf("WeightFor(%q) = %v, want %v", c.source, got, c.want)
		}
	}
}

func TestCombineNegativeStdClampedToZero(t *testing.T) {
	cfg := Config{MinStdDev: 1.5, MaxStdDev: 10, DefaultWeight: 1.0}
	cf, err := Combine(cfg, []models.ForecastPoint{mkPoint("A", 55, -3)})
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	if cf.StdDevF != cfg.MinStdDev {
		t.Fatalf("std = %v, want floor %v", cf.StdDevF, cfg.MinStdDev)
	}
}
