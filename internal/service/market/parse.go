package market

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"WxEdge/internal/domain/models"
)

// Subtitle patterns for the three bracket shapes Kalshi uses, e.g.
// "54° to 56°", "87° or above", "below 30°".
var (
	betweenPattern = regexp.MustCompile(`(?i)(\d+)°?\s*F?\s*to\s*(\d+)°?\s*F?`)

	greaterThanPattern = regexp.MustCompile(
		`(?i)(?:(?:above|greater\s*than|>)\s*(\d+)|(\d+)°?\s*F?\s*or\s*above)`)

	lessThanPattern = regexp.MustCompile(
		`(?i)(?:(?:below|less\s*than|<)\s*(\d+)|(\d+)°?\s*F?\s*or\s*below)`)
)

// marketJSON is the Kalshi wire representation of one market.
// Prices are integer cents.
type marketJSON struct {
	Ticker      string `json:"ticker"`
	EventTicker string `json:"event_ticker"`
	Subtitle    string `json:"subtitle"`
	YesSubtitle string `json:"yes_sub_title"`
	YesBid      *int64 `json:"yes_bid"`
	YesAsk      *int64 `json:"yes_ask"`
	LastPrice   *int64 `json:"last_price"`
	Volume      *int64 `json:"volume"`
}

// parseSubtitle classifies a bracket subtitle and extracts its bounds.
func parseSubtitle(subtitle string) (models.BracketKind, float64, float64, error) {
	if m := betweenPattern.FindStringSubmatch(subtitle); m != nil {
		lower, _ := strconv.ParseFloat(m[1], 64)
		upper, _ := strconv.ParseFloat(m[2], 64)
		return models.BracketBetween, lower, upper, nil
	}

	if m := greaterThanPattern.FindStringSubmatch(subtitle); m != nil {
		threshold, _ := strconv.ParseFloat(firstGroup(m), 64)
		return models.BracketGreaterThan, threshold, 0, nil
	}

	if m := lessThanPattern.FindStringSubmatch(subtitle); m != nil {
		threshold, _ := strconv.ParseFloat(firstGroup(m), 64)
		return models.BracketLessThan, 0, threshold, nil
	}

	return 0, 0, 0, fmt.Errorf("unrecognized bracket subtitle %q", subtitle)
}

func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

// impliedProbability returns the mid-market probability from normalized
// prices. A completely empty book reads as zero.
func impliedProbability(yesBid, yesAsk float64) float64 {
	if yesBid == 0 && yesAsk == 0 {
		return 0
	}
	if yesBid >= 1 || yesAsk >= 1 {
		return 1
	}
	return (yesBid + yesAsk) / 2
}

func centsToProb(cents int64) float64 {
	return float64(cents) / 100.0
}

func centsOr(v *int64, def int64) int64 {
	if v == nil {
		return def
	}
	return *v
}

// parseMarket converts one wire market into a domain Bracket.
func parseMarket(m marketJSON) (models.Bracket, error) {
	subtitle := m.Subtitle
	if subtitle == "" {
		subtitle = m.YesSubtitle
	}

	kind, lower, upper, err := parseSubtitle(subtitle)
	if err != nil {
		return models.Bracket{}, err
	}

	var b models.Bracket
	switch kind {
	case models.BracketBetween:
		b, err = models.NewBetweenBracket(m.Ticker, lower, upper)
		if err != nil {
			return models.Bracket{}, err
		}
	case models.BracketGreaterThan:
		b = models.NewGreaterThanBracket(m.Ticker, lower)
	case models.BracketLessThan:
		b = models.NewLessThanBracket(m.Ticker, upper)
	}

	b.EventTicker = m.EventTicker
	b.Subtitle = subtitle
	b.YesBid = centsToProb(centsOr(m.YesBid, 0))
	b.YesAsk = centsToProb(centsOr(m.YesAsk, 100))
	b.LastPrice = centsToProb(centsOr(m.LastPrice, 0))
	b.Volume = centsOr(m.Volume, 0)
	b.ImpliedProb = impliedProbability(b.YesBid, b.YesAsk)
	return b, nil
}

// parseEventDate converts the date segment of an event ticker, e.g.
// "26JAN12", back to YYYY-MM-DD. Kalshi uppercases the month abbreviation
// so it is normalized before parsing.
func parseEventDate(code string) (string, error) {
	if len(code) != 7 {
		return "", fmt.Errorf("bad event date %q", code)
	}
	normalized := code[:3] + strings.ToLower(code[3:5]) + code[5:]
	t, err := time.Parse("06Jan02", normalized)
	if err != nil {
		return "", fmt.Errorf("bad event date %q: %w", code, err)
	}
	return t.Format("2006-01-02"), nil
}
