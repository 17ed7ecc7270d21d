package engine

import (
	"errors"
	"fmt"
)

// ErrInsufficientData means a tick had no forecasts at all. The caller
// should skip the tick and let the fetch layer retry; there is nothing the
// engine can compute from an empty input.
var ErrInsufficientData = errors.New("engine: no forecasts to combine")

// MalformedBracketError rejects a single bracket whose bounds are invalid.
// It is never fatal to the batch: the remaining brackets still process.
type MalformedBracketError struct {
	Ticker string
	Reason string
}

func (e *MalformedBracketError) Error() string {
	return fmt.Sprintf("malformed bracket %s: %s", e.Ticker, e.Reason)
}
