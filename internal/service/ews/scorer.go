// Package ews computes a NEWS2-style early-warning score from the
// patient's vitals. The scorer is a pure function: missing parameters
// contribute zero and nothing is mutated.
package ews

import (
	"github.com/medboard/bedside-api/internal/model"
)

type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

type Result struct {
	Score int   `json:"score"`
	Level Level `json:"level"`
}

// Score applies first-matching-band logic per parameter, most severe
// band first, and maps the total onto a risk level. Scores 0 and 1-4
// both render as Low; the distinction never reached the legacy UI.
func Score(v model.Vitals) Result {
	total := 0
	total += respRatePoints(v.RespRate)
	total += spO2Points(v.SpO2)
	if v.OnOxygen != nil && *v.OnOxygen {
		total += 2
	}
	total += bpSystolicPoints(v.BPSystolic)
	total += heartRatePoints(v.HeartRate)
	if v.Consciousness != nil && *v.Consciousness == model.ConsciousnessCVPU {
		total += 3
	}
	total += temperaturePoints(v.Temperature)

	return Result{Score: total, Level: levelFor(total)}
}

func levelFor(total int) Level {
	switch {
	case total >= 7:
		return LevelHigh
	case total >= 5:
		return LevelMedium
	default:
		return LevelLow
	}
}

func respRatePoints(v *int) int {
	if v == nil {
		return 0
	}
	switch {
	case *v <= 8 || *v >= 25:
		return 3
	case *v >= 21:
		return 2
	case *v <= 11:
		return 1
	}
	return 0
}

func spO2Points(v *int) int {
	if v == nil {
		return 0
	}
	switch {
	case *v <= 91:
		return 3
	case *v <= 93:
		return 2
	case *v <= 95:
		return 1
	}
	return 0
}

func bpSystolicPoints(v *int) int {
	if v == nil {
		return 0
	}
	switch {
	case *v <= 90 || *v >= 220:
		return 3
	case *v <= 100:
		return 2
	case *v <= 110:
		return 1
	}
	return 0
}

func heartRatePoints(v *int) int {
	if v == nil {
		return 0
	}
	switch {
	case *v <= 40 || *v >= 131:
		return 3
	case *v >= 111:
		return 2
	case *v <= 50 || *v >= 91:
		return 1
	}
	return 0
}

func temperaturePoints(v *float64) int {
	if v == nil {
		return 0
	}
	switch {
	case *v <= 35.0:
		return 3
	case *v >= 39.1:
		return 2
	case *v <= 36.0 || *v >= 38.1:
		return 1
	}
	return 0
}
