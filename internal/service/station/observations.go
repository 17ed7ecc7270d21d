package station

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"WxEdge/internal/domain/models"
	"WxEdge/pkg/cache"
	xhttp "WxEdge/pkg/http"
	applogger "WxEdge/pkg/logger"
	"WxEdge/pkg/util"

	"github.com/sony/gobreaker"
)

// Temperature bound constants, Fahrenheit. Five-minute stations report
// Celsius rounded to 0.1C so the converted value carries extra slack;
// hourly METAR reports are whole degrees F rounded from C.
const (
	fiveMinuteUncertaintyF  = 0.6
	hourlyUncertaintyF      = 0.5
	unknownUncertaintyF     = 1.0
	interReadingUncertainty = 1.0

	observationLimit = 100
)

// Config holds station fetch settings.
type Config struct {
	NWSBase   string
	StationID string
	Timezone  string
	Timeout   time.Duration
	Backoff   struct {
		MaxRetries      int
		InitialInterval time.Duration
		MaxInterval     time.Duration
	}
	CacheTTL time.Duration
}

// Service fetches and parses settlement-station observations.
type Service struct {
	cfg     Config
	loc     *time.Location
	client  *xhttp.Client
	circuit *gobreaker.CircuitBreaker
	cache   cache.Service
	logger  *applogger.Logger
}

// NewService creates a station observation service.
func NewService(cfg Config, client *xhttp.Client, c cache.Service, l *applogger.Logger) (*Service, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	return &Service{
		cfg: cfg,
		loc: loc,
		client: client,
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "station",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
		cache:  c,
		logger: l,
	}, nil
}

type observationsResponse struct {
	Features []struct {
		Properties struct {
			Timestamp   string `json:"timestamp"`
			Temperature struct {
				Value    *float64 `json:"value"`
				UnitCode string   `json:"unitCode"`
			} `json:"temperature"`
		} `json:"properties"`
	} `json:"features"`
}

// FetchReadings implements repository.StationSource. Readings come back
// newest first, matching the NWS API ordering.
func (s *Service) FetchReadings(ctx context.Context) ([]models.StationReading, error) {
	key := cache.GenerateKey("station:readings", s.cfg.StationID)
	return cache.GetOrFill(ctx, s.cache, key, s.cfg.CacheTTL, s.fetch)
}

func (s *Service) fetch(ctx context.Context) ([]models.StationReading, error) {
	url := fmt.Sprintf("%s/stations/%s/observations", s.cfg.NWSBase, s.cfg.StationID)

	var resp observationsResponse
	_, err := s.circuit.Execute(func() (interface{}, error) {
		return nil, s.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         url,
			QueryParams: map[string][]string{"limit": {fmt.Sprint(observationLimit)}},
		}, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch observations: %w", err)
	}

	kind := determineKind(timestampsOf(resp))

	readings := make([]models.StationReading, 0, len(resp.Features))
	for _, f := range resp.Features {
		r, ok := parseReading(f.Properties.Timestamp, f.Properties.Temperature.Value,
			f.Properties.Temperature.UnitCode, kind, s.cfg.StationID)
		if !ok {
			continue
		}
		readings = append(readings, r)
	}
	return readings, nil
}

// DailySummary aggregates the day's readings into a running high estimate.
// Returns nil when no reading falls on the requested local date.
func (s *Service) DailySummary(ctx context.Context, date string) (*models.ObservationState, error) {
	readings, err := s.FetchReadings(ctx)
	if err != nil {
		return nil, err
	}

	var daily []models.StationReading
	for _, r := range readings {
		if util.DateKey(r.Timestamp.In(s.loc)) == date {
			daily = append(daily, r)
		}
	}
	if len(daily) == 0 {
		return nil, nil
	}

	observedHigh := daily[0].TempF
	possibleHigh := daily[0].BoundHighF
	asOf := 0.0
	for _, r := range daily {
		if r.TempF > observedHigh {
			observedHigh = r.TempF
		}
		if r.BoundHighF > possibleHigh {
			possibleHigh = r.BoundHighF
		}
		if h := util.FractionalHour(r.Timestamp.In(s.loc)); h > asOf {
			asOf = h
		}
	}

	return &models.ObservationState{
		StationID:     s.cfg.StationID,
		Date:          date,
		ObservedHighF: observedHigh,
		PossibleHighF: round1(possibleHigh + interReadingUncertainty),
		AsOfHour:      asOf,
		Readings:      daily,
		UpdatedAt:     time.Now().In(s.loc),
	}, nil
}

func timestampsOf(resp observationsResponse) []time.Time {
	out := make([]time.Time, 0, len(resp.Features))
	for _, f := range resp.Features {
		if t, ok := util.ParseTime(f.Properties.Timestamp); ok {
			out = append(out, t)
		}
	}
	return out
}

// determineKind classifies the station by its mean reporting interval:
// under 15 minutes is a 5-minute ASOS feed, 45 minutes or more is hourly.
func determineKind(timestamps []time.Time) models.StationKind {
	if len(timestamps) < 2 {
		return models.StationUnknown
	}

	total := 0.0
	n := 0
	for i := 0; i < len(timestamps)-1; i++ {
		d := timestamps[i].Sub(timestamps[i+1]).Minutes()
		total += math.Abs(d)
		n++
	}
	if n == 0 {
		return models.StationUnknown
	}

	avg := total / float64(n)
	switch {
	case avg < 15:
		return models.StationFiveMinute
	case avg >= 45:
		return models.StationHourly
	default:
		return models.StationUnknown
	}
}

func boundUncertainty(kind models.StationKind) float64 {
	switch kind {
	case models.StationFiveMinute:
		return fiveMinuteUncertaintyF
	case models.StationHourly:
		return hourlyUncertaintyF
	default:
		return unknownUncertaintyF
	}
}

func parseReading(timestamp string, value *float64, unitCode string, kind models.StationKind, stationID string) (models.StationReading, bool) {
	ts, ok := util.ParseTime(timestamp)
	if !ok || value == nil {
		return models.StationReading{}, false
	}

	var tempF float64
	var tempC *float64
	unit := strings.ToLower(unitCode)
	switch {
	case strings.Contains(unit, "degf") || strings.Contains(unit, "fahrenheit"):
		tempF = *value
	default:
		// NWS reports Celsius unless told otherwise.
		c := round1(*value)
		tempC = &c
		tempF = celsiusToFahrenheit(*value)
	}

	u := boundUncertainty(kind)
	return models.StationReading{
		StationID:  stationID,
		Timestamp:  ts,
		Kind:       kind,
		TempF:      round1(tempF),
		TempC:      tempC,
		BoundLowF:  round1(tempF - u),
		BoundHighF: round1(tempF + u),
	}, true
}

func celsiusToFahrenheit(c float64) float64 {
	return c*9.0/5.0 + 32.0
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
