package display

import (
	"strings"
	"testing"
	"time"

	"WxEdge/internal/domain/models"

	"github.com/google/uuid"
)

func sampleAnalysis() *models.Analysis {
	lower, upper := 85.0, 86.0
	b := models.Bracket{
		Ticker: "KXHIGHNY-25AUG31-B85", Subtitle: "85° to 86°",
		Kind: models.BracketBetween, LowerF: &lower, UpperF: &upper,
		YesBid: 0.10, YesAsk: 0.15, ImpliedProb: 0.125, Volume: 42,
	}
	return &models.Analysis{
		ID:         uuid.New(),
		City:       "NYC",
		TargetDate: "2025-08-31",
		Forecasts: []models.ForecastPoint{
			{Source: "NWS", MeanF: 86, StdDevF: 2, LowF: 84, HighF: 88},
		},
		Observation: &models.ObservationState{
			StationID: "KNYC", ObservedHighF: 84.2, PossibleHighF: 85.7, AsOfHour: 15.25,
			Readings: make([]models.StationReading, 3),
		},
		Brackets: []models.Bracket{b},
		Combined: models.CombinedForecast{MeanF: 86, StdDevF: 2, LowF: 83.4, HighF: 88.6},
		Refined:  models.RefinedForecast{MeanF: 85.1, StdDevF: 1.6, ObsWeight: 0.5},
		Probs: []models.BracketProbability{
			{Bracket: b, ModelProb: 0.41, MarketProb: 0.125},
		},
		Signals: []models.TradingSignal{
			{Bracket: b, Direction: models.DirectionYes, Edge: 0.245, Confidence: 0.93,
				Reasoning: "85° to 86°: model 41.0% vs YES cost 16.5%"},
		},
		AnalyzedAt: time.Date(2025, 8, 31, 15, 30, 0, 0, time.UTC),
	}
}

func TestRenderDashboard(t *testing.T) {
	var sb strings.Builder
	NewRenderer(&sb, nil).Render(sampleAnalysis())
	out := sb.String()

	for _, want := range []string{
		"NYC 2025-08-31 | analyzed",
		"FORECASTS",
		"NWS",
		"observed high 84.2F",
		"KXHIGHNY-25AUG31-B85",
		"YES KXHIGHNY-25AUG31-B85  edge 24.5%",
		"observation blend weight: 50%",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("dashboard missing %q:\n%s", want, out)
		}
	}
}

func TestRenderEmptyState(t *testing.T) {
	a := sampleAnalysis()
	a.Observation = nil
	a.Probs = nil
	a.Signals = nil

	var sb strings.Builder
	NewRenderer(&sb, nil).Render(a)
	out := sb.String()

	for _, want := range []string{
		"no readings yet for target date",
		"no markets for target date",
		"no edges above threshold",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("dashboard missing %q:\n%s", want, out)
		}
	}
}
