package engine

import (
	"math"

	"WxEdge/internal/domain/models"
)

// NormalCDF evaluates the cumulative distribution of N(mean, std) at x.
func NormalCDF(x, mean, std float64) float64 {
	if std <= 0 {
		// degenerate distribution; treat as a step at the mean
		if x < mean {
			return 0
		}
		return 1
	}
	return 0.5 * (1 + math.Erf((x-mean)/(std*math.Sqrt2)))
}

// BracketProbabilities maps the refined Gaussian onto the market's discrete
// brackets. The market settles on an integer degree, so each boundary gets
// a 0.5-degree continuity correction.
//
// Output is order-preserving over the valid brackets. A bracket with
// invalid bounds is dropped and reported in the second return value; it
// never aborts the batch. Probabilities across a bracket set are not
// required to sum to 1: sets may overlap at boundaries or omit tails.
func BracketProbabilities(rf models.RefinedForecast, brackets []models.Bracket) ([]models.BracketProbability, []*MalformedBracketError) {
	probs := make([]models.BracketProbability, 0, len(brackets))
	var rejected []*MalformedBracketError

	for _, b := range brackets {
		p, err := bracketProbability(rf, b)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		probs = append(probs, models.BracketProbability{
			Bracket:    b,
			ModelProb:  p,
			MarketProb: (b.YesBid + b.YesAsk) / 2,
		})
	}
	return probs, rejected
}

func bracketProbability(rf models.RefinedForecast, b models.Bracket) (float64, *MalformedBracketError) {
	mean, std := rf.MeanF, rf.StdDevF

	switch b.Kind {
	case models.BracketBetween:
		if b.LowerF == nil || b.UpperF == nil {
			return 0, &MalformedBracketError{Ticker: b.Ticker, Reason: "between bracket missing a bound"}
		}
		if *b.LowerF > *b.UpperF {
			return 0, &MalformedBracketError{Ticker: b.Ticker, Reason: "lower bound above upper bound"}
		}
		p := NormalCDF(*b.UpperF+0.5, mean, std) - NormalCDF(*b.LowerF-0.5, mean, std)
		return clamp01(p), nil

	case models.BracketGreaterThan:
		if b.LowerF == nil {
			return 0, &MalformedBracketError{Ticker: b.Ticker, Reason: "greater-than bracket missing lower bound"}
		}
		return clamp01(1 - NormalCDF(*b.LowerF+0.5, mean, std)), nil

	case models.BracketLessThan:
		if b.UpperF == nil {
			return 0, &MalformedBracketError{Ticker: b.Ticker, Reason: "less-than bracket missing upper bound"}
		}
		return clamp01(NormalCDF(*b.UpperF-0.5, mean, std)), nil

	default:
		return 0, &MalformedBracketError{Ticker: b.Ticker, Reason: "unknown bracket kind"}
	}
}
