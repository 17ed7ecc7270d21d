package engine

import (
	"errors"
	"testing"

	"WxEdge/internal/domain/models"
)

func TestAnalyzeEndToEnd(t *testing.T) {
	p := New(DefaultConfig())

	points := []models.ForecastPoint{
		mkPoint("NWS", 55, 2),
		mkPoint("ECMWF", 56, 2.5),
		mkPoint("Open-Meteo Ensemble", 54.5, 3),
	}
	obs := mkObs(54, 54.5)
	cheap := between("B54", 54, 56)
	cheap.Subtitle = "54° to 56°"
	cheap.YesBid = 0.10
	cheap.YesAsk = 0.15

	lower, upper := 60.0, 58.0
	bad := models.Bracket{Ticker: "BAD", Kind: models.BracketBetween, LowerF: &lower, UpperF: &upper}

	res, err := p.Analyze(points, obs, []models.Bracket{cheap, bad}, 15.5)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if res.Combined.StdDevF < p.Config().MinStdDev {
		t.Fatalf("combined std below floor: %v", res.Combined.StdDevF)
	}
	if res.Refined.MeanF < obs.ObservedHighF {
		t.Fatalf("refined mean %v below observed high", res.Refined.MeanF)
	}
	if len(res.Probs) != 1 {
		t.Fatalf("want 1 probability (bad bracket dropped), got %d", len(res.Probs))
	}
	if len(res.Rejected) != 1 || res.Rejected[0].Ticker != "BAD" {
		t.Fatalf("want BAD rejected, got %v", res.Rejected)
	}
	// Most of the mass sits in 54-56 and the ask is 15c: a YES must fire.
	if len(res.Signals) != 1 || res.Signals[0].Direction != models.DirectionYes {
		t.Fatalf("want one YES signal, got %+v", res.Signals)
	}
}

func TestAnalyzeNoForecasts(t *testing.T) {
	p := New(DefaultConfig())
	_, err := p.Analyze(nil, nil, nil, 12)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestAnalyzeWithoutObservationOrBrackets(t *testing.T) {
	// A tick with only forecasts is valid: combined and refined populate,
	// no probabilities or signals.
	p := New(DefaultConfig())
	res, err := p.Analyze([]models.ForecastPoint{mkPoint("NWS", 55, 2)}, nil, nil, 9)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Refined.MeanF != res.Combined.MeanF {
		t.Fatalf("refined should pass through combined without observation")
	}
	if len(res.Probs) != 0 || len(res.Signals) != 0 {
		t.Fatalf("unexpected output without brackets: %+v", res)
	}
}
