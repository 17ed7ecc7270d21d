package models

import "fmt"

// BracketKind is a closed set of market bracket shapes.
//
// Boundary semantics follow Kalshi settlement rules:
//   - BETWEEN:      lower <= temp <= upper (inclusive both ends)
//   - GREATER_THAN: temp > lower (the threshold itself does not win)
//   - LESS_THAN:    temp < upper (the threshold itself does not win)
type BracketKind int

const (
	BracketBetween BracketKind = iota
	BracketGreaterThan
	BracketLessThan
)

func (k BracketKind) String() string {
	switch k {
	case BracketBetween:
		return "between"
	case BracketGreaterThan:
		return "greater_than"
	case BracketLessThan:
		return "less_than"
	default:
		return "invalid"
	}
}

// Bracket is one discrete settlement range in a temperature market.
// Prices are normalized to [0,1]; the Kalshi wire format (integer cents)
// is scaled by the market adapter before a Bracket is built.
type Bracket struct {
	Ticker      string // e.g. "KXHIGHNY-26JAN12-B54"
	EventTicker string // e.g. "KXHIGHNY-26JAN12"
	Subtitle    string // e.g. "54° to 56°"
	Kind        BracketKind
	LowerF      *float64 // nil for LESS_THAN
	UpperF      *float64 // nil for GREATER_THAN
	YesBid      float64
	YesAsk      float64
	LastPrice   float64
	Volume      int64
	ImpliedProb float64 // mid-market probability
}

// NewBetweenBracket builds a BETWEEN bracket, rejecting inverted bounds.
func NewBetweenBracket(ticker string, lower, upper float64) (Bracket, error) {
	if lower > upper {
		return Bracket{}, fmt.Errorf("between bracket %s: lower %.0f > upper %.0f", ticker, lower, upper)
	}
	return Bracket{Ticker: ticker, Kind: BracketBetween, LowerF: &lower, UpperF: &upper}, nil
}

// NewGreaterThanBracket builds a GREATER_THAN bracket.
func NewGreaterThanBracket(ticker string, lower float64) Bracket {
	return Bracket{Ticker: ticker, Kind: BracketGreaterThan, LowerF: &lower}
}

// NewLessThanBracket builds a LESS_THAN bracket.
func NewLessThanBracket(ticker string, upper float64) Bracket {
	return Bracket{Ticker: ticker, Kind: BracketLessThan, UpperF: &upper}
}

// ContainsTemp reports whether a settlement temperature lands in this bracket.
func (b Bracket) ContainsTemp(t float64) bool {
	switch b.Kind {
	case BracketBetween:
		return b.LowerF != nil && b.UpperF != nil && *b.LowerF <= t && t <= *b.UpperF
	case BracketGreaterThan:
		return b.LowerF != nil && t > *b.LowerF
	case BracketLessThan:
		return b.UpperF != nil && t < *b.UpperF
	default:
		return false
	}
}

// SortKey orders brackets from coldest to warmest.
func (b Bracket) SortKey() float64 {
	if b.LowerF != nil {
		return *b.LowerF
	}
	if b.UpperF != nil {
		return *b.UpperF - 1000 // LESS_THAN sorts before everything it bounds
	}
	return 0
}
