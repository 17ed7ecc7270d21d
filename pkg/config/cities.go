package config

import (
	"fmt"
	"sort"
	"strings"
)

// City describes a market city: the settlement station, its coordinates
// for forecast queries, and the Kalshi series tracking its daily high.
type City struct {
	Code       string
	Name       string
	StationID  string
	Latitude   float64
	Longitude  float64
	Timezone   string
	HighSeries string
	WFO        string
}

var cities = map[string]City{
	"NYC": {
		Code:       "NYC",
		Name:       "New York City",
		StationID:  "KNYC",
		Latitude:   40.783,
		Longitude:  -73.967,
		Timezone:   "America/New_York",
		HighSeries: "KXHIGHNY",
		WFO:        "OKX",
	},
	"CHI": {
		Code:       "CHI",
		Name:       "Chicago",
		StationID:  "KMDW",
		Latitude:   41.786,
		Longitude:  -87.752,
		Timezone:   "America/Chicago",
		HighSeries: "KXHIGHCHI",
		WFO:        "LOT",
	},
	"MIA": {
		Code:       "MIA",
		Name:       "Miami",
		StationID:  "KMIA",
		Latitude:   25.788,
		Longitude:  -80.317,
		Timezone:   "America/New_York",
		HighSeries: "KXHIGHMIA",
		WFO:        "MFL",
	},
}

// GetCity looks up a city by code, case-insensitive.
func GetCity(code string) (City, error) {
	c, ok := cities[strings.ToUpper(code)]
	if !ok {
		return City{}, fmt.Errorf("unknown city %q", code)
	}
	return c, nil
}

// ListCities returns all configured city codes in sorted order.
func ListCities() []string {
	out := make([]string, 0, len(cities))
	for code := range cities {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
