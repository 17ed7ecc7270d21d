package models

// BracketProbability pairs a bracket with the model's win probability for it.
type BracketProbability struct {
	Bracket    Bracket
	ModelProb  float64 // [0,1]
	MarketProb float64 // mid-market implied probability, for comparison
}

// SignalDirection is the side of a bracket a signal recommends.
type SignalDirection string

const (
	DirectionYes SignalDirection = "YES"
	DirectionNo  SignalDirection = "NO"
)

// TradingSignal is a detected divergence between model and market.
// Signals are tick-scoped: recomputed from scratch each refresh, never
// merged with a prior tick's output.
type TradingSignal struct {
	Bracket    Bracket
	Direction  SignalDirection
	ModelProb  float64 // model probability of YES, regardless of direction
	MarketProb float64
	Edge       float64 // win probability minus effective entry cost
	Confidence float64 // [0,1]
	Reasoning  string  // display only, never parsed
}
