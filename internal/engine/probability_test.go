package engine

import (
	"math"
	"testing"

	"WxEdge/internal/domain/models"
)

// refCDF is an independent normal CDF path (erfc-based) used to verify the
// production erf-based implementation.
func refCDF(x, mean, std float64) float64 {
	return 0.5 * math.Erfc(-(x-mean)/(std*math.Sqrt2))
}

func mkRefined(mean, std float64) models.RefinedForecast {
	return models.RefinedForecast{TargetDate: "2026-01-20", MeanF: mean, StdDevF: std}
}

func between(ticker string, lower, upper float64) models.Bracket {
	b, err := models.NewBetweenBracket(ticker, lower, upper)
	if err != nil {
		panic(err)
	}
	return b
}

func TestBetweenMatchesReferenceCDF(t *testing.T) {
	rf := mkRefined(55.2, 2.1)
	probs, rejected := BracketProbabilities(rf, []models.Bracket{between("B54", 54, 56)})
	if len(rejected) != 0 {
		t.Fatalf("unexpected rejections: %v", rejected)
	}
	want := refCDF(56.5, 55.2, 2.1) - refCDF(53.5, 55.2, 2.1)
	if math.Abs(probs[0].ModelProb-want) > 1e-6 {
		t.Fatalf("P(54..56) = %v, want %v", probs[0].ModelProb, want)
	}
}

func TestTailBracketsPartition(t *testing.T) {
	// GREATER_THAN(a) and LESS_THAN(a+1) partition the integer outcomes:
	// every settlement is either > a or <= a (i.e. < a+1).
	for _, mean := range []float64{40, 55.2, 70} {
		for _, std := range []float64{1.5, 2.5, 6} {
			rf := mkRefined(mean, std)
			probs, rejected := BracketProbabilities(rf, []models.Bracket{
				models.NewGreaterThanBracket("GT", 56),
				models.NewLessThanBracket("LT", 57),
			})
			if len(rejected) != 0 {
				t.Fatalf("unexpected rejections: %v", rejected)
			}
			sum := probs[0].ModelProb + probs[1].ModelProb
			if math.Abs(sum-1) > 1e-9 {
				t.Fatalf("mean=%v std=%v: GT+LT = %v, want 1", mean, std, sum)
			}
		}
	}
}

func TestProbabilitiesClamped(t *testing.T) {
	rf := mkRefined(55, 0.0001) // nearly degenerate
	probs, _ := BracketProbabilities(rf, []models.Bracket{
		between("B", 54, 56),
		models.NewGreaterThanBracket("GT", 90),
		models.NewLessThanBracket("LT", 20),
	})
	for _, p := range probs {
		if p.ModelProb < 0 || p.ModelProb > 1 {
			t.Fatalf("probability %v out of [0,1] for %s", p.ModelProb, p.Bracket.Ticker)
		}
	}
}

func TestInvertedBetweenRejectedOthersSurvive(t *testing.T) {
	rf := mkRefined(55, 2)
	lower, upper := 56.0, 54.0
	bad := models.Bracket{Ticker: "BAD", Kind: models.BracketBetween, LowerF: &lower, UpperF: &upper}
	probs, rejected := BracketProbabilities(rf, []models.Bracket{
		between("A", 50, 52),
		bad,
		between("C", 54, 56),
	})
	if len(rejected) != 1 || rejected[0].Ticker != "BAD" {
		t.Fatalf("expected BAD rejected, got %v", rejected)
	}
	if len(probs) != 2 || probs[0].Bracket.Ticker != "A" || probs[1].Bracket.Ticker != "C" {
		t.Fatalf("valid brackets mangled: %+v", probs)
	}
}

func TestMissingBoundsRejected(t *testing.T) {
	rf := mkRefined(55, 2)
	cases := []models.Bracket{
		{Ticker: "B1", Kind: models.BracketBetween},
		{Ticker: "G1", Kind: models.BracketGreaterThan},
		{Ticker: "L1", Kind: models.BracketLessThan},
	}
	probs, rejected := BracketProbabilities(rf, cases)
	if len(probs) != 0 || len(rejected) != 3 {
		t.Fatalf("want all rejected, got %d probs, %d rejections", len(probs), len(rejected))
	}
}

func TestBetweenConstructorRejectsInvertedBounds(t *testing.T) {
	if _, err := models.NewBetweenBracket("X", 56, 54); err == nil {
		t.Fatalf("expected error for inverted bounds")
	}
}

func TestNormalCDFAgainstReference(t *testing.T) {
	for _, x := range []float64{40, 50, 53.5, 55, 56.5, 60, 70} {
		got := NormalCDF(x, 55, 2.5)
		want := refCDF(x, 55, 2.5)
		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("NormalCDF(%v) = %v, ref %v", x, got, want)
		}
	}
}
