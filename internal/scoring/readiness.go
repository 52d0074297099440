// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package scoring

import (
	"fmt"
	"math"
)

// Training recommendation levels, ordered from most to least intense.
const (
	RecommendationFullSend = "full_send"
	RecommendationModerate = "moderate"
	RecommendationLight    = "light"
	RecommendationRest     = "rest"
)

// Factor weights for the overall readiness score. They sum to 1.0.
const (
	weightSleep      = 0.25
	weightEnergy     = 0.20
	weightSoreness   = 0.20
	weightMotivation = 0.15
	weightStress     = 0.10
	weightRecovery   = 0.10
)

// Neutral defaults applied when a factor is not reported.
const (
	defaultFactor        = 7.0
	defaultSleepHours    = 7.0
	defaultDaysSinceRest = 2.0
)

// ReadinessInput holds the athlete's self-reported state. All fields are
// optional; absent values fall back to neutral defaults so a partial
// check-in still produces a recommendation.
type ReadinessInput struct {
	// Sleep hours last night (0-12)
	SleepHours *float64 `json:"sleepHours,omitempty" validate:"omitempty,min=0,max=12"`
	// Sleep quality (1-10)
	SleepQuality *float64 `json:"sleepQuality,omitempty" validate:"omitempty,min=1,max=10"`
	// Overall energy level (1-10)
	EnergyLevel *float64 `json:"energyLevel,omitempty" validate:"omitempty,min=1,max=10"`
	// Muscle soreness level (1-10, higher = more sore)
	SorenessLevel *float64 `json:"sorenessLevel,omitempty" validate:"omitempty,min=1,max=10"`
	// Motivation to train (1-10)
	MotivationLevel *float64 `json:"motivationLevel,omitempty" validate:"omitempty,min=1,max=10"`
	// Stress level (1-10, higher = more stressed)
	StressLevel *float64 `json:"stressLevel,omitempty" validate:"omitempty,min=1,max=10"`
	// Days since last rest day
	DaysSinceRest *float64 `json:"daysSinceRest,omitempty" validate:"omitempty,min=0"`
	// Free text describing how they feel
	FeelingDescription string `json:"feelingDescription,omitempty"`
}

// ReadinessFactors are the per-factor scores normalized to the 1-10 range.
// Soreness and stress are inverted: a high raw value yields a low factor.
type ReadinessFactors struct {
	Sleep      float64 `json:"sleep"`
	Energy     float64 `json:"energy"`
	Soreness   float64 `json:"soreness"`
	Motivation float64 `json:"motivation"`
	Stress     float64 `json:"stress"`
	Recovery   float64 `json:"recovery"`
}

// ReadinessOutput is the full readiness assessment
type ReadinessOutput struct {
	Recommendation string           `json:"recommendation"`
	OverallScore   float64          `json:"overallScore"`
	Factors        ReadinessFactors `json:"factors"`
	Reasoning      string           `json:"reasoning"`
	Warnings       []string         `json:"warnings"`
	Suggestions    []string         `json:"suggestions"`
}

// EvaluateReadiness computes a training recommendation from the athlete's
// reported state. It is pure and total: every valid input yields exactly one
// recommendation and never an error.
func EvaluateReadiness(input ReadinessInput) ReadinessOutput {
	sleepHours := orDefault(input.SleepHours, defaultSleepHours)
	sleepQuality := orDefault(input.SleepQuality, defaultFactor)
	energyLevel := orDefault(input.EnergyLevel, defaultFactor)
	sorenessLevel := orDefault(input.SorenessLevel, defaultFactor)
	motivationLevel := orDefault(input.MotivationLevel, defaultFactor)
	stressLevel := orDefault(input.StressLevel, defaultFactor)
	daysSinceRest := orDefault(input.DaysSinceRest, defaultDaysSinceRest)

	factors := ReadinessFactors{
		Sleep:      math.Min(10, (sleepHours/8)*sleepQuality),
		Energy:     energyLevel,
		Soreness:   11 - sorenessLevel,
		Motivation: motivationLevel,
		Stress:     11 - stressLevel,
		Recovery:   math.Max(1, 10-daysSinceRest*1.5),
	}

	overall := factors.Sleep*weightSleep +
		factors.Energy*weightEnergy +
		factors.Soreness*weightSoreness +
		factors.Motivation*weightMotivation +
		factors.Stress*weightStress +
		factors.Recovery*weightRecovery

	var recommendation, reasoning string
	switch {
	case overall >= 8:
		recommendation = RecommendationFullSend
		reasoning = "Your body is primed. Hit it hard today."
	case overall >= 6:
		recommendation = RecommendationModerate
		reasoning = "Good enough to train, but listen to your body. Don't push through pain."
	case overall >= 4:
		recommendation = RecommendationLight
		reasoning = "Active recovery day. Movement is medicine, but keep intensity low."
	default:
		recommendation = RecommendationRest
		reasoning = "Your body needs recovery. Rest today, dominate tomorrow."
	}

	warnings := []string{}
	if sleepHours < 6 {
		warnings = append(warnings, "Sleep debt detected. Prioritize sleep tonight.")
	}
	if sorenessLevel >= 8 {
		warnings = append(warnings, "High soreness. Avoid loading sore areas.")
	}
	if daysSinceRest >= 5 {
		warnings = append(warnings, "Extended training block. Rest day coming soon.")
	}
	if stressLevel >= 8 {
		warnings = append(warnings, "High stress affects recovery. Consider meditation.")
	}

	suggestions := []string{}
	if recommendation == RecommendationLight {
		suggestions = append(suggestions,
			"Try mobility work or a light jog",
			"Focus on technique over intensity")
	}
	if recommendation == RecommendationRest {
		suggestions = append(suggestions,
			"Sleep, hydrate, eat well",
			"Light stretching if you need to move")
	}
	if sorenessLevel >= 6 {
		suggestions = append(suggestions, "Foam rolling and contrast showers can help")
	}

	return ReadinessOutput{
		Recommendation: recommendation,
		OverallScore:   round1(overall),
		Factors: ReadinessFactors{
			Sleep:      round1(factors.Sleep),
			Energy:     round1(factors.Energy),
			Soreness:   round1(factors.Soreness),
			Motivation: round1(factors.Motivation),
			Stress:     round1(factors.Stress),
			Recovery:   round1(factors.Recovery),
		},
		Reasoning:   reasoning,
		Warnings:    warnings,
		Suggestions: suggestions,
	}
}

// orDefault dereferences an optional input, falling back to def
func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// round1 rounds to one decimal place
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Clamp constrains v to the [min, max] range. It is the shared boundary for
// heuristic scores: out-of-range values from upstream extraction are
// tolerated and clamped, never rejected.
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ClampInt is Clamp over integers
func ClampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// FormatConfidence renders a 0-1 strength as a percentage string
func FormatConfidence(strength float64) string {
	return fmt.Sprintf("%d%% confidence", int(math.Round(strength*100)))
}
