package config

import (
	"fmt"
	"os"
	"time"

	"WxEdge/pkg/util"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Refresh struct {
		Interval time.Duration `yaml:"interval"`
		City     string        `yaml:"city"`
	} `yaml:"refresh"`
	Engine struct {
		MinStdDev     float64            `yaml:"min_std_dev"`
		MaxStdDev     float64            `yaml:"max_std_dev"`
		Weights       map[string]float64 `yaml:"weights"`
		DefaultWeight float64            `yaml:"default_weight"`
		ObsRampStart  float64            `yaml:"obs_ramp_start"`
		ObsRampEnd    float64            `yaml:"obs_ramp_end"`
		FeeRate       float64            `yaml:"fee_rate"`
		MinEdge       float64            `yaml:"min_edge"`
		Confidence    struct {
			EdgeGain     float64 `yaml:"edge_gain"`
			SigmaPenalty float64 `yaml:"sigma_penalty"`
			Base         float64 `yaml:"base"`
		} `yaml:"confidence"`
	} `yaml:"engine"`
	Weather struct {
		OpenMeteoURL  string        `yaml:"open_meteo_url"`
		GFSURL        string        `yaml:"gfs_url"`
		EnsembleURL   string        `yaml:"ensemble_url"`
		NWSBase       string        `yaml:"nws_base"`
		UserAgent     string        `yaml:"user_agent"`
		Timeout       time.Duration `yaml:"timeout"`
		DefaultStdDev float64       `yaml:"default_std_dev"`
		MaxRetries    int           `yaml:"max_retries"`
		BackoffMin    time.Duration `yaml:"backoff_min"`
		BackoffMax    time.Duration `yaml:"backoff_max"`
	} `yaml:"weather"`
	Market struct {
		APIBase      string        `yaml:"api_base"`
		WebSocketURL string        `yaml:"websocket_url"`
		Timeout      time.Duration `yaml:"timeout"`
		StreamPing   time.Duration `yaml:"stream_ping"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	} `yaml:"market"`
	Cache struct {
		Enabled bool          `yaml:"enabled"`
		TTL     time.Duration `yaml:"ttl"`
		Redis   struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Archive struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"archive"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("CITY"); v != "" {
		c.Refresh.City = v
	}
	if v := os.Getenv("KALSHI_API_BASE"); v != "" {
		c.Market.APIBase = v
	}
	c.Engine.MinEdge = util.ParseFloatDefault(os.Getenv("MIN_EDGE_THRESHOLD"), c.Engine.MinEdge)
	c.Server.Port = util.ParseIntDefault(os.Getenv("SERVER_PORT"), c.Server.Port)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.Archive.Host = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Refresh.Interval <= 0 {
		c.Refresh.Interval = time.Minute
	}
	if c.Refresh.City == "" {
		c.Refresh.City = "NYC"
	}
	if c.Engine.MinStdDev == 0 {
		c.Engine.MinStdDev = 1.5
	}
	if c.Engine.MaxStdDev == 0 {
		c.Engine.MaxStdDev = 10.0
	}
	if c.Engine.DefaultWeight == 0 {
		c.Engine.DefaultWeight = 1.0
	}
	if c.Engine.ObsRampStart == 0 {
		c.Engine.ObsRampStart = 14.0
	}
	if c.Engine.ObsRampEnd == 0 {
		c.Engine.ObsRampEnd = 16.0
	}
	if c.Engine.FeeRate == 0 {
		c.Engine.FeeRate = 0.10
	}
	if c.Engine.MinEdge == 0 {
		c.Engine.MinEdge = 0.08
	}
	if c.Engine.Confidence.EdgeGain == 0 {
		c.Engine.Confidence.EdgeGain = 2.5
	}
	if c.Engine.Confidence.SigmaPenalty == 0 {
		c.Engine.Confidence.SigmaPenalty = 0.08
	}
	if c.Engine.Confidence.Base == 0 {
		c.Engine.Confidence.Base = 0.45
	}
	if c.Weather.OpenMeteoURL == "" {
		c.Weather.OpenMeteoURL = "https://api.open-meteo.com/v1/forecast"
	}
	if c.Weather.GFSURL == "" {
		c.Weather.GFSURL = "https://api.open-meteo.com/v1/gfs"
	}
	if c.Weather.EnsembleURL == "" {
		c.Weather.EnsembleURL = "https://api.open-meteo.com/v1/ensemble"
	}
	if c.Weather.NWSBase == "" {
		c.Weather.NWSBase = "https://api.weather.gov"
	}
	if c.Weather.UserAgent == "" {
		c.Weather.UserAgent = "WxEdge/1.0 (weather market research)"
	}
	if c.Weather.Timeout <= 0 {
		c.Weather.Timeout = 10 * time.Second
	}
	if c.Weather.DefaultStdDev == 0 {
		c.Weather.DefaultStdDev = 2.5
	}
	if c.Weather.MaxRetries == 0 {
		c.Weather.MaxRetries = 3
	}
	if c.Weather.BackoffMin <= 0 {
		c.Weather.BackoffMin = 500 * time.Millisecond
	}
	if c.Weather.BackoffMax <= 0 {
		c.Weather.BackoffMax = 5 * time.Second
	}
	if c.Market.APIBase == "" {
		c.Market.APIBase = "https://api.elections.kalshi.com/trade-api/v2"
	}
	if c.Market.Timeout <= 0 {
		c.Market.Timeout = 10 * time.Second
	}
	if c.Market.StreamPing <= 0 {
		c.Market.StreamPing = 30 * time.Second
	}
	if c.Market.ReconnectDelay <= 0 {
		c.Market.ReconnectDelay = 5 * time.Second
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 45 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if _, err := GetCity(c.Refresh.City); err != nil {
		return fmt.Errorf("refresh.city: %w", err)
	}
	if c.Engine.MinStdDev <= 0 {
		return fmt.Errorf("engine.min_std_dev must be > 0")
	}
	if c.Engine.MaxStdDev < c.Engine.MinStdDev {
		return fmt.Errorf("engine.max_std_dev must be >= min_std_dev")
	}
	if c.Engine.FeeRate < 0 || c.Engine.FeeRate > 1 {
		return fmt.Errorf("engine.fee_rate must be in [0,1]")
	}
	if c.Engine.MinEdge < 0 || c.Engine.MinEdge > 1 {
		return fmt.Errorf("engine.min_edge must be in [0,1]")
	}
	if c.Engine.ObsRampEnd <= c.Engine.ObsRampStart {
		return fmt.Errorf("engine.obs_ramp_end must be after obs_ramp_start")
	}
	if c.Archive.Enabled && c.Archive.Host == "" {
		return fmt.Errorf("archive.host is required when archive is enabled")
	}
	return nil
}
