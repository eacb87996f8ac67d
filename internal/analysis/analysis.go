// Package analysis contains the rule-based evaluators that run over a user's
// blood-glucose readings. All functions are pure and operate on in-memory
// slices; persistence and transport live elsewhere.
package analysis

import (
	"sort"
	"strconv"
	"strings"

	"github.com/glucolog/backend/internal/models"
)

// Instantaneous status labels.
const (
	StatusLow          = "Low"
	StatusNormal       = "Normal"
	StatusHigh         = "High"
	StatusUndetermined = "Undetermined"
)

// Trend labels.
const (
	TrendRising       = "rising"
	TrendFalling      = "falling"
	TrendFluctuating  = "fluctuating"
	TrendInsufficient = "insufficient data"
)

// Risk labels, checked in this order.
const (
	RiskUndetermined = "risk undetermined"
	RiskHighHyper    = "high risk (frequent hyperglycemia)"
	RiskHighHypo     = "high risk (frequent hypoglycemia)"
	RiskModerate     = "moderate risk"
	RiskLow          = "low risk"
)

// Out-of-range bounds shared by the risk classifier and the
// recommendation generator. mg/dL.
const (
	hyperBound = 200
	hypoBound  = 70
)

// Canned advice strings emitted by Recommendation.
const (
	adviceHighCarbs    = "Consider reducing carbohydrate and sugar intake."
	adviceHighActivity = "Increase physical activity to help control your blood sugar levels."
	adviceLowMeals     = "Make sure to eat meals regularly."
	adviceLowSnack     = "Consider carrying a healthy snack to prevent low blood sugar."
	adviceKeepDiet     = "Maintain your healthy diet and lifestyle."
	adviceKeepMonitor  = "Continue routine monitoring of your blood sugar levels."
)

// Summary bundles the three classifier outputs for one set of readings.
type Summary struct {
	Trend          string `json:"trend"`
	Risk           string `json:"risk"`
	Recommendation string `json:"recommendation"`
}

// Status classifies a single reading against the age band thresholds.
// Boundaries are exclusive on both ends: for age > 12, values 70 and 130
// are both Normal. A missing or non-numeric age yields Undetermined.
func Status(value float64, age string) string {
	ageNum, err := strconv.Atoi(strings.TrimSpace(age))
	if err != nil {
		return StatusUndetermined
	}

	var low, high float64
	switch {
	case ageNum < 6:
		low, high = 100, 200
	case ageNum <= 12:
		low, high = 70, 150
	default:
		low, high = 70, 130
	}

	switch {
	case value < low:
		return StatusLow
	case value > high:
		return StatusHigh
	default:
		return StatusNormal
	}
}

// Trend inspects the trailing three readings after a chronological sort and
// labels the short-term direction. The sort key is the concatenation of the
// free-text date and time fields; for ISO-style input this is chronological,
// for malformed input the order is arbitrary but deterministic, matching the
// recorded behaviour of the original data model.
func Trend(records []models.Reading) string {
	if len(records) < 2 {
		return TrendInsufficient
	}

	sorted := make([]models.Reading, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date+"T"+sorted[i].Time < sorted[j].Date+"T"+sorted[j].Time
	})

	window := sorted
	if len(window) > 3 {
		window = window[len(window)-3:]
	}

	rising, falling := true, true
	for i := 1; i < len(window); i++ {
		if window[i].BloodSugar < window[i-1].BloodSugar {
			rising = false
		}
		if window[i].BloodSugar > window[i-1].BloodSugar {
			falling = false
		}
	}

	// A constant sequence satisfies both; rising wins the tie-break.
	switch {
	case rising:
		return TrendRising
	case falling:
		return TrendFalling
	default:
		return TrendFluctuating
	}
}

// Risk maps the proportion of out-of-range readings across the whole record
// set to a coarse risk label. Thresholds are fixed, not configurable.
func Risk(records []models.Reading) string {
	total := len(records)
	if total == 0 {
		return RiskUndetermined
	}

	var high, low int
	for _, r := range records {
		if r.BloodSugar > hyperBound {
			high++
		}
		if r.BloodSugar < hypoBound {
			low++
		}
	}

	highPct := float64(high) / float64(total) * 100
	lowPct := float64(low) / float64(total) * 100

	switch {
	case highPct > 30:
		return RiskHighHyper
	case lowPct > 20:
		return RiskHighHypo
	case highPct > 15 || lowPct > 10:
		return RiskModerate
	default:
		return RiskLow
	}
}

// Recommendation looks at the last five readings in stored order and emits
// canned advice. Both the high and low blocks can fire independently; when
// neither does, generic maintenance advice is returned.
func Recommendation(records []models.Reading) string {
	recent := records
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}

	var high, low int
	for _, r := range recent {
		if r.BloodSugar > hyperBound {
			high++
		}
		if r.BloodSugar < hypoBound {
			low++
		}
	}

	var advice []string
	if high >= 2 {
		advice = append(advice, adviceHighCarbs, adviceHighActivity)
	}
	if low >= 2 {
		advice = append(advice, adviceLowMeals, adviceLowSnack)
	}
	if len(advice) == 0 {
		advice = append(advice, adviceKeepDiet, adviceKeepMonitor)
	}

	return strings.Join(advice, " ")
}

// Summarize runs all three classifiers over the same record set.
func Summarize(records []models.Reading) Summary {
	return Summary{
		Trend:          Trend(records),
		Risk:           Risk(records),
		Recommendation: Recommendation(records),
	}
}
