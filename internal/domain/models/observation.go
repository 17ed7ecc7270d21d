package models

import "time"

// StationKind distinguishes NWS station reporting cadence. Five-minute
// stations report Celsius rounded to 0.1C, which widens the possible
// Fahrenheit bounds after conversion.
type StationKind int

const (
	StationUnknown StationKind = iota
	StationHourly
	StationFiveMinute
)

func (k StationKind) String() string {
	switch k {
	case StationHourly:
		return "hourly"
	case StationFiveMinute:
		return "5-minute"
	default:
		return "unknown"
	}
}

// StationReading is one observation from the settlement station, with
// reverse-engineered bounds on the true temperature.
type StationReading struct {
	StationID string
	Timestamp time.Time
	Kind      StationKind
	TempF     float64  // as reported (or converted from C)
	TempC     *float64 // nil when the station reported Fahrenheit directly
	BoundLowF float64  // true temp could be as low as this
	BoundHighF float64 // ... or as high as this
}

// ObservationState is the running daily-high estimate for the target date.
// PossibleHighF >= ObservedHighF always: it accounts for reading quantization
// and for the max occurring between readings.
type ObservationState struct {
	StationID     string
	Date          string // YYYY-MM-DD
	ObservedHighF float64
	PossibleHighF float64
	AsOfHour      float64 // fractional local hour of the newest reading, 0-24
	Readings      []StationReading
	UpdatedAt     time.Time
}
