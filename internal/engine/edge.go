package engine

import (
	"fmt"
	"sort"

	"WxEdge/internal/domain/models"
)

// DetectEdges compares model probabilities against market prices and emits
// ranked trading signals.
//
// Entry cost includes a fee buffer proportional to the price paid:
// buying YES costs ask + ask*FeeRate, buying NO costs (1-bid)*(1+FeeRate).
// A bracket contributes at most one signal per tick; when both sides clear
// the threshold the larger edge wins, YES on an exact tie.
func DetectEdges(cfg Config, rf models.RefinedForecast, probs []models.BracketProbability) []models.TradingSignal {
	signals := make([]models.TradingSignal, 0)

	for _, bp := range probs {
		b := bp.Bracket

		edgeYes, costYes, okYes := sideEdge(cfg, bp.ModelProb, b.YesAsk)
		edgeNo, costNo, okNo := sideEdge(cfg, 1-bp.ModelProb, 1-b.YesBid)

		switch {
		case okYes && edgeYes > cfg.MinEdge && (!okNo || edgeYes >= edgeNo):
			signals = append(signals, models.TradingSignal{
				Bracket:    b,
				Direction:  models.DirectionYes,
				ModelProb:  bp.ModelProb,
				MarketProb: bp.MarketProb,
				Edge:       edgeYes,
				Confidence: confidence(cfg, edgeYes, rf.StdDevF),
				Reasoning: fmt.Sprintf(
					"%s: model %.1f%% vs YES cost %.1f%% incl. fees (ask %.0fc), edge %.1f%%; model mean %.1fF",
					b.Subtitle, 100*bp.ModelProb, 100*costYes, 100*b.YesAsk, 100*edgeYes, rf.MeanF),
			})
		case okNo && edgeNo > cfg.MinEdge:
			signals = append(signals, models.TradingSignal{
				Bracket:    b,
				Direction:  models.DirectionNo,
				ModelProb:  bp.ModelProb,
				MarketProb: bp.MarketProb,
				Edge:       edgeNo,
				Confidence: confidence(cfg, edgeNo, rf.StdDevF),
				Reasoning: fmt.Sprintf(
					"%s: model NO %.1f%% vs NO cost %.1f%% incl. fees (bid %.0fc), edge %.1f%%; model mean %.1fF",
					b.Subtitle, 100*(1-bp.ModelProb), 100*costNo, 100*b.YesBid, 100*edgeNo, rf.MeanF),
			})
		}
	}

	sort.SliceStable(signals, func(i, j int) bool {
		if signals[i].Edge != signals[j].Edge {
			return signals[i].Edge > signals[j].Edge
		}
		return signals[i].Bracket.Ticker < signals[j].Bracket.Ticker
	})
	return signals
}

// sideEdge returns the edge and effective cost for buying one side at the
// given entry price. Degenerate prices (outside (0,1)) make a side
// untradeable, not an error: an empty book is a market condition.
func sideEdge(cfg Config, winProb, entry float64) (edge, cost float64, ok bool) {
	if entry <= 0 || entry >= 1 {
		return 0, 0, false
	}
	cost = entry + entry*cfg.FeeRate
	return winProb - cost, cost, true
}

func confidence(cfg Config, edge, sigma float64) float64 {
	c := cfg.Confidence
	return clamp01(edge*c.EdgeGain - sigma*c.SigmaPenalty + c.Base)
}
