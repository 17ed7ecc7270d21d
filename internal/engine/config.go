package engine

import "strings"

// ConfidenceCurve holds the tunable constants of the signal confidence
// score: confidence = clamp(edge*EdgeGain - sigma*SigmaPenalty + Base, 0, 1).
// The curve itself is configuration; the monotonic directions (up in edge,
// down in sigma) are a contract.
type ConfidenceCurve struct {
	EdgeGain     float64
	SigmaPenalty float64
	Base         float64
}

// Config is the full parameter bundle for one pipeline invocation. It is
// passed explicitly into every call; the engine keeps no ambient state.
type Config struct {
	// MinStdDev floors the combined and refined std dev (degrees F).
	// Must be > 0: sources agreeing exactly is luck, not omniscience.
	MinStdDev float64
	// MaxStdDev caps the combined std dev as a sanity check.
	MaxStdDev float64

	// Weights maps forecast source names to relative trust. Lookup is
	// exact match first, then partial case-insensitive, then DefaultWeight.
	Weights       map[string]float64
	DefaultWeight float64

	// ObsRampStart/ObsRampEnd bound the hours over which the observation
	// blend weight ramps linearly from 0 to 1.
	ObsRampStart float64
	ObsRampEnd   float64

	// FeeRate approximates exchange fees as a fraction of the entry price.
	FeeRate float64
	// MinEdge is the minimum edge required to emit a signal.
	MinEdge float64

	Confidence ConfidenceCurve
}

// DefaultConfig returns production defaults. NWS is the settlement source
// and carries the highest weight; ensemble means are individually noisy.
func DefaultConfig() Config {
	return Config{
		MinStdDev: 1.5,
		MaxStdDev: 10.0,
		Weights: map[string]float64{
			"NWS":                  5.0,
			"ECMWF":                4.0,
			"Open-Meteo Best Match": 3.5,
			"GFS+HRRR":             3.0,
			"GFS":                  2.5,
			"HRRR":                 2.5,
			"Open-Meteo Ensemble":  2.0,
		},
		DefaultWeight: 1.0,
		ObsRampStart:  14.0,
		ObsRampEnd:    16.0,
		FeeRate:       0.10,
		MinEdge:       0.08,
		Confidence: ConfidenceCurve{
			EdgeGain:     2.5,
			SigmaPenalty: 0.08,
			Base:         0.45,
		},
	}
}

// WeightFor resolves the weight of a forecast source.
func (c Config) WeightFor(source string) float64 {
	if w, ok := c.Weights[source]; ok {
		return w
	}
	lower := strings.ToLower(source)
	for key, w := range c.Weights {
		kl := strings.ToLower(key)
		if strings.Contains(lower, kl) || strings.Contains(kl, lower) {
			return w
		}
	}
	return c.DefaultWeight
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
