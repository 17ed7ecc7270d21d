package weather

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"WxEdge/internal/domain/models"
	"WxEdge/pkg/cache"
	xhttp "WxEdge/pkg/http"
	applogger "WxEdge/pkg/logger"

	"github.com/sony/gobreaker"
)

// NWSSource fetches the NWS point forecast for the city's coordinates.
// The points endpoint maps lat/lon to a gridpoint forecast URL, which is
// resolved once and reused.
type NWSSource struct {
	cfg     Config
	client  *xhttp.Client
	circuit *gobreaker.CircuitBreaker
	cache   cache.Service
	logger  *applogger.Logger

	mu          sync.Mutex
	forecastURL string
}

// NewNWSSource creates an NWS forecast source.
func NewNWSSource(cfg Config, client *xhttp.Client, c cache.Service, l *applogger.Logger) *NWSSource {
	return &NWSSource{
		cfg:     cfg,
		client:  client,
		circuit: newBreaker("nws"),
		cache:   c,
		logger:  l,
	}
}

// Name implements repository.ForecastSource.
func (s *NWSSource) Name() string { return "nws" }

type nwsPointsResponse struct {
	Properties struct {
		Forecast string `json:"forecast"`
	} `json:"properties"`
}

type nwsForecastResponse struct {
	Properties struct {
		Periods []struct {
			StartTime   string   `json:"startTime"`
			IsDaytime   bool     `json:"isDaytime"`
			Temperature *float64 `json:"temperature"`
		} `json:"periods"`
	} `json:"properties"`
}

func (s *NWSSource) resolveForecastURL(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.forecastURL != "" {
		return s.forecastURL, nil
	}

	var resp nwsPointsResponse
	url := fmt.Sprintf("%s/points/%g,%g", s.cfg.NWSBase, s.cfg.Latitude, s.cfg.Longitude)
	err := fetchWithResilience(ctx, s.client, s.circuit, s.cfg.Backoff, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    url,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("resolve gridpoint: %w", err)
	}
	if resp.Properties.Forecast == "" {
		return "", fmt.Errorf("points response missing forecast url")
	}

	s.forecastURL = resp.Properties.Forecast
	return s.forecastURL, nil
}

// FetchForecasts returns the daytime high for targetDate, or an empty slice
// when the date is beyond the published forecast window.
func (s *NWSSource) FetchForecasts(ctx context.Context, targetDate string) ([]models.ForecastPoint, error) {
	key := cache.GenerateKeyWithParams("forecast:nws", s.cfg.Latitude, s.cfg.Longitude, targetDate)
	return cache.GetOrFill(ctx, s.cache, key, s.cfg.CacheTTL, func(ctx context.Context) ([]models.ForecastPoint, error) {
		return s.fetch(ctx, targetDate)
	})
}

func (s *NWSSource) fetch(ctx context.Context, targetDate string) ([]models.ForecastPoint, error) {
	forecastURL, err := s.resolveForecastURL(ctx)
	if err != nil {
		return nil, err
	}

	var resp nwsForecastResponse
	err = fetchWithResilience(ctx, s.client, s.circuit, s.cfg.Backoff, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    forecastURL,
	}, &resp)
	if err != nil {
		return nil, err
	}

	for _, period := range resp.Properties.Periods {
		if !period.IsDaytime || !strings.HasPrefix(period.StartTime, targetDate) {
			continue
		}
		if period.Temperature == nil {
			continue
		}

		temp := *period.Temperature
		return []models.ForecastPoint{{
			Source:     "NWS",
			TargetDate: targetDate,
			MeanF:      temp,
			StdDevF:    s.cfg.DefaultStdDev,
			LowF:       temp - s.cfg.DefaultStdDev,
			HighF:      temp + s.cfg.DefaultStdDev,
			FetchedAt:  time.Now(),
		}}, nil
	}

	s.logger.Warn("target date not in nws forecast", applogger.String("date", targetDate))
	return nil, nil
}
