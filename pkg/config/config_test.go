package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\n")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Engine.MinStdDev != 1.5 {
		t.Fatalf("MinStdDev = %v, want 1.5", c.Engine.MinStdDev)
	}
	if c.Engine.MinEdge != 0.08 {
		t.Fatalf("MinEdge = %v, want 0.08", c.Engine.MinEdge)
	}
	if c.Engine.FeeRate != 0.10 {
		t.Fatalf("FeeRate = %v, want 0.10", c.Engine.FeeRate)
	}
	if c.Refresh.City != "NYC" {
		t.Fatalf("City = %q, want NYC", c.Refresh.City)
	}
	if c.Refresh.Interval != time.Minute {
		t.Fatalf("Interval = %v, want 1m", c.Refresh.Interval)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
environment: test
refresh:
  city: CHI
  interval: 2m
engine:
  min_edge: 0.12
  weights:
    NWS: 6
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Refresh.City != "CHI" {
		t.Fatalf("City = %q, want CHI", c.Refresh.City)
	}
	if c.Engine.MinEdge != 0.12 {
		t.Fatalf("MinEdge = %v, want 0.12", c.Engine.MinEdge)
	}
	if c.Engine.Weights["NWS"] != 6 {
		t.Fatalf("Weights[NWS] = %v, want 6", c.Engine.Weights["NWS"])
	}
}

func TestLoadWithEnvOverride(t *testing.T) {
	path := writeConfig(t, "environment: test\n")

	t.Setenv("CITY", "MIA")
	t.Setenv("MIN_EDGE_THRESHOLD", "0.15")
	t.Setenv("SERVER_PORT", "9090")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("LoadWithEnv() error: %v", err)
	}
	if c.Refresh.City != "MIA" {
		t.Fatalf("City = %q, want MIA", c.Refresh.City)
	}
	if c.Engine.MinEdge != 0.15 {
		t.Fatalf("MinEdge = %v, want 0.15", c.Engine.MinEdge)
	}
	if c.Server.Port != 9090 {
		t.Fatalf("Port = %d, want 9090", c.Server.Port)
	}
}

func TestLoadWithEnvIgnoresMalformedNumbers(t *testing.T) {
	path := writeConfig(t, "environment: test\n")

	t.Setenv("MIN_EDGE_THRESHOLD", "not-a-number")
	t.Setenv("SERVER_PORT", "")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("LoadWithEnv() error: %v", err)
	}
	if c.Engine.MinEdge != 0.08 {
		t.Fatalf("MinEdge = %v, want default 0.08", c.Engine.MinEdge)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown city", "environment: test\nrefresh:\n  city: ZZZ\n"},
		{"negative min std", "environment: test\nengine:\n  min_std_dev: -1\n"},
		{"fee out of range", "environment: test\nengine:\n  fee_rate: 1.5\n"},
		{"inverted ramp", "environment: test\nengine:\n  obs_ramp_start: 16\n  obs_ramp_end: 14\n"},
		{"archive without host", "environment: test\narchive:\n  enabled: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.body)
			if _, err := Load(path); err == nil {
				t.Fatalf("Load() succeeded, want error")
			}
		})
	}
}

func TestGetCityCaseInsensitive(t *testing.T) {
	c, err := GetCity("nyc")
	if err != nil {
		t.Fatalf("GetCity(nyc) error: %v", err)
	}
	if c.StationID != "KNYC" {
		t.Fatalf("StationID = %q, want KNYC", c.StationID)
	}
	if c.HighSeries != "KXHIGHNY" {
		t.Fatalf("HighSeries = %q, want KXHIGHNY", c.HighSeries)
	}
}
