package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksTotal    *prometheus.CounterVec
	fetchErrors   *prometheus.CounterVec
	signalsFound  *prometheus.GaugeVec
	forecastMean  *prometheus.GaugeVec
	forecastStd   *prometheus.GaugeVec
	tickDuration  *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wxedge_ticks_total",
				Help: "Total number of analysis ticks",
			},
			[]string{"city", "status"},
		),
		fetchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wxedge_fetch_errors_total",
				Help: "Total number of upstream fetch errors",
			},
			[]string{"source"},
		),
		signalsFound: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wxedge_signals",
				Help: "Number of actionable signals in the latest analysis",
			},
			[]string{"city"},
		),
		forecastMean: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wxedge_forecast_mean_f",
				Help: "Refined forecast mean in Fahrenheit",
			},
			[]string{"city"},
		),
		forecastStd: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wxedge_forecast_std_f",
				Help: "Refined forecast standard deviation in Fahrenheit",
			},
			[]string{"city"},
		),
		tickDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wxedge_tick_duration_seconds",
				Help:    "Duration of a full analysis tick in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"city"},
		),
	}
}

// RecordTick records a completed analysis tick.
func (r *Recorder) RecordTick(city, status string) {
	r.ticksTotal.WithLabelValues(city, status).Inc()
}

// RecordFetchError records an upstream fetch error.
func (r *Recorder) RecordFetchError(source string) {
	r.fetchErrors.WithLabelValues(source).Inc()
}

// RecordSignals records the actionable signal count for a city.
func (r *Recorder) RecordSignals(city string, count int) {
	r.signalsFound.WithLabelValues(city).Set(float64(count))
}

// RecordForecast records the refined forecast distribution for a city.
func (r *Recorder) RecordForecast(city string, mean, std float64) {
	r.forecastMean.WithLabelValues(city).Set(mean)
	r.forecastStd.WithLabelValues(city).Set(std)
}

// RecordTickDuration records how long an analysis tick took.
func (r *Recorder) RecordTickDuration(city string, d time.Duration) {
	r.tickDuration.WithLabelValues(city).Observe(d.Seconds())
}
