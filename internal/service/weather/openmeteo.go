package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"WxEdge/internal/domain/models"
	"WxEdge/pkg/cache"
	xhttp "WxEdge/pkg/http"
	applogger "WxEdge/pkg/logger"

	"github.com/sony/gobreaker"
)

const ensembleMemberCount = 51

// Config bundles everything a forecast source needs to talk to its API.
type Config struct {
	ForecastURL   string
	GFSURL        string
	EnsembleURL   string
	NWSBase       string
	Latitude      float64
	Longitude     float64
	Timezone      string
	DefaultStdDev float64
	MinStdDev     float64
	Backoff       BackoffConfig
	CacheTTL      time.Duration
}

// OpenMeteoSource fetches daily-high forecasts from three Open-Meteo
// endpoints: the best match model, the GFS+HRRR blend, and the ensemble.
type OpenMeteoSource struct {
	cfg     Config
	client  *xhttp.Client
	circuit *gobreaker.CircuitBreaker
	cache   cache.Service
	logger  *applogger.Logger
}

// NewOpenMeteoSource creates an Open-Meteo forecast source.
func NewOpenMeteoSource(cfg Config, client *xhttp.Client, c cache.Service, l *applogger.Logger) *OpenMeteoSource {
	return &OpenMeteoSource{
		cfg:     cfg,
		client:  client,
		circuit: newBreaker("openmeteo"),
		cache:   c,
		logger:  l,
	}
}

// Name implements repository.ForecastSource.
func (s *OpenMeteoSource) Name() string { return "open-meteo" }

// FetchForecasts returns every forecast the three endpoints produced for
// targetDate. Individual endpoint failures are logged and skipped; the
// result is empty only when all three fail.
func (s *OpenMeteoSource) FetchForecasts(ctx context.Context, targetDate string) ([]models.ForecastPoint, error) {
	key := cache.GenerateKeyWithParams("forecast:openmeteo", s.cfg.Latitude, s.cfg.Longitude, targetDate)
	return cache.GetOrFill(ctx, s.cache, key, s.cfg.CacheTTL, func(ctx context.Context) ([]models.ForecastPoint, error) {
		return s.fetchAll(ctx, targetDate)
	})
}

func (s *OpenMeteoSource) fetchAll(ctx context.Context, targetDate string) ([]models.ForecastPoint, error) {
	var points []models.ForecastPoint

	if p, err := s.fetchDaily(ctx, s.cfg.ForecastURL, "Open-Meteo Best Match", targetDate, nil); err != nil {
		s.logger.Warn("open-meteo best match fetch failed", applogger.Error(err))
	} else if p != nil {
		points = append(points, *p)
	}

	gfsParams := map[string][]string{"models": {"gfs_seamless"}}
	if p, err := s.fetchDaily(ctx, s.cfg.GFSURL, "GFS+HRRR", targetDate, gfsParams); err != nil {
		s.logger.Warn("open-meteo gfs fetch failed", applogger.Error(err))
	} else if p != nil {
		points = append(points, *p)
	}

	if p, err := s.fetchEnsemble(ctx, targetDate); err != nil {
		s.logger.Warn("open-meteo ensemble fetch failed", applogger.Error(err))
	} else if p != nil {
		points = append(points, *p)
	}

	return points, nil
}

func (s *OpenMeteoSource) baseParams() map[string][]string {
	return map[string][]string{
		"latitude":         {fmt.Sprintf("%g", s.cfg.Latitude)},
		"longitude":        {fmt.Sprintf("%g", s.cfg.Longitude)},
		"daily":            {"temperature_2m_max"},
		"temperature_unit": {"fahrenheit"},
		"timezone":         {s.cfg.Timezone},
		"forecast_days":    {"14"},
	}
}

type dailyResponse struct {
	Daily struct {
		Time  []string   `json:"time"`
		Temps []*float64 `json:"temperature_2m_max"`
	} `json:"daily"`
}

func (s *OpenMeteoSource) fetchDaily(ctx context.Context, url, source, targetDate string, extra map[string][]string) (*models.ForecastPoint, error) {
	params := s.baseParams()
	for k, v := range extra {
		params[k] = v
	}

	var resp dailyResponse
	err := fetchWithResilience(ctx, s.client, s.circuit, s.cfg.Backoff, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         url,
		QueryParams: params,
	}, &resp)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, t := range resp.Daily.Time {
		if t == targetDate {
			idx = i
			break
		}
	}
	if idx < 0 || idx >= len(resp.Daily.Temps) || resp.Daily.Temps[idx] == nil {
		return nil, nil
	}

	temp := *resp.Daily.Temps[idx]
	return &models.ForecastPoint{
		Source:     source,
		TargetDate: targetDate,
		MeanF:      temp,
		StdDevF:    s.cfg.DefaultStdDev,
		LowF:       temp - s.cfg.DefaultStdDev,
		HighF:      temp + s.cfg.DefaultStdDev,
		FetchedAt:  time.Now(),
	}, nil
}

type ensembleResponse struct {
	Daily map[string]json.RawMessage `json:"daily"`
}

func (r *ensembleResponse) times() []string {
	var out []string
	if raw, ok := r.Daily["time"]; ok {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

func (r *ensembleResponse) memberColumn(key string) []*float64 {
	var out []*float64
	_ = json.Unmarshal(r.Daily[key], &out)
	return out
}

func (s *OpenMeteoSource) fetchEnsemble(ctx context.Context, targetDate string) (*models.ForecastPoint, error) {
	params := s.baseParams()
	members := make([]string, 0, ensembleMemberCount)
	for i := 0; i < ensembleMemberCount; i++ {
		members = append(members, fmt.Sprintf("temperature_2m_max_member%02d", i))
	}
	params["daily"] = []string{strings.Join(members, ",")}

	var resp ensembleResponse
	err := fetchWithResilience(ctx, s.client, s.circuit, s.cfg.Backoff, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         s.cfg.EnsembleURL,
		QueryParams: params,
	}, &resp)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, t := range resp.times() {
		if t == targetDate {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil
	}

	var temps []float64
	for key := range resp.Daily {
		if !isMemberKey(key) {
			continue
		}
		values := resp.memberColumn(key)
		if idx < len(values) && values[idx] != nil {
			temps = append(temps, *values[idx])
		}
	}
	if len(temps) == 0 {
		return nil, nil
	}

	mean := meanOf(temps)
	std := math.Max(popStdDev(temps, mean), s.cfg.MinStdDev)

	sorted := append([]float64(nil), temps...)
	sort.Float64s(sorted)

	return &models.ForecastPoint{
		Source:     "Open-Meteo Ensemble",
		TargetDate: targetDate,
		MeanF:      mean,
		StdDevF:    std,
		LowF:       percentile(sorted, 10),
		HighF:      percentile(sorted, 90),
		Members:    temps,
		FetchedAt:  time.Now(),
	}, nil
}

func isMemberKey(key string) bool {
	return strings.HasPrefix(key, "temperature_2m_max_member")
}

func meanOf(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func popStdDev(xs []float64, mean float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

// percentile computes the p-th percentile of sorted values with linear
// interpolation between ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
