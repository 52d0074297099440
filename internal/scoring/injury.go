// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package scoring

// Severity bands for injury triage
const (
	SeverityMinor     = "minor"
	SeverityModerate  = "moderate"
	SeveritySerious   = "serious"
	SeverityEmergency = "emergency"
)

// Injury type values accepted by AssessInjury
const (
	InjurySoreness    = "soreness"
	InjurySharpPain   = "sharp_pain"
	InjuryDullAche    = "dull_ache"
	InjurySwelling    = "swelling"
	InjuryStiffness   = "stiffness"
	InjuryInstability = "instability"
	InjuryWeakness    = "weakness"
	InjuryNumbness    = "numbness"
	InjuryPopping     = "popping"
)

// Duration values accepted by AssessInjury
const (
	DurationJustNow  = "just_now"
	DurationToday    = "today"
	DurationFewDays  = "few_days"
	DurationWeekPlus = "week_plus"
)

// InjuryInput describes a reported injury
type InjuryInput struct {
	// Affected body part
	BodyPart string `json:"bodyPart" validate:"required,oneof=ankle knee hip back shoulder wrist elbow calf hamstring quad groin foot achilles neck"`
	// Type of pain/injury
	InjuryType string `json:"injuryType" validate:"required,oneof=soreness sharp_pain dull_ache swelling stiffness instability weakness numbness popping"`
	// Pain level (1-10)
	PainLevel int `json:"painLevel" validate:"required,min=1,max=10"`
	// How it happened
	Mechanism string `json:"mechanism,omitempty"`
	// How long ago it started
	Duration string `json:"duration" validate:"required,oneof=just_now today few_days week_plus"`
	// Can they bear weight / use the area?
	CanFunction *bool `json:"canFunction" validate:"required"`
}

// Protocol is a named recovery protocol with ordered steps
type Protocol struct {
	Name     string   `json:"name"`
	Steps    []string `json:"steps"`
	Duration string   `json:"duration"`
}

// InjuryOutput is the full injury assessment
type InjuryOutput struct {
	Severity              string   `json:"severity"`
	ImmediateAction       []string `json:"immediateAction"`
	AvoidActions          []string `json:"avoidActions"`
	Protocol              Protocol `json:"protocol"`
	ShouldSeeProfessional bool     `json:"shouldSeeProfessional"`
	ProfessionalType      string   `json:"professionalType,omitempty"`
	SafeActivities        []string `json:"safeActivities"`
	Warnings              []string `json:"warnings"`
	RedFlags              []string `json:"redFlags"`
}

var protocols = map[string]Protocol{
	"rice": {
		Name: "RICE Protocol",
		Steps: []string{
			"Rest: Avoid activities that cause pain",
			"Ice: Apply for 15-20 min every 2-3 hours",
			"Compression: Use elastic bandage if swelling",
			"Elevation: Keep area above heart level when possible",
		},
		Duration: "48-72 hours",
	},
	"active_recovery": {
		Name: "Active Recovery",
		Steps: []string{
			"Light movement to promote blood flow",
			"Gentle stretching within pain-free range",
			"Self-massage or foam rolling nearby areas",
			"Heat application to relax muscles",
		},
		Duration: "1-3 days",
	},
	"mobility_focus": {
		Name: "Mobility Restoration",
		Steps: []string{
			"Assess range of motion",
			"Controlled articular rotations (CARs)",
			"Progressive stretching",
			"Strengthening at end ranges",
		},
		Duration: "1-2 weeks",
	},
	"strength_rehab": {
		Name: "Strength Rehabilitation",
		Steps: []string{
			"Isometric holds (no movement, build strength)",
			"Eccentric loading (controlled lowering)",
			"Full range strengthening",
			"Sport-specific movement patterns",
		},
		Duration: "2-6 weeks depending on severity",
	},
}

// bodyPartAvoidance maps body parts to activities that load them. Parts
// without an entry fall back to a generic list.
var bodyPartAvoidance = map[string][]string{
	"ankle":     {"jumping", "cutting movements", "running on uneven surfaces"},
	"knee":      {"deep squats", "high-impact landing", "sudden direction changes"},
	"hip":       {"heavy leg press", "deep lunges", "wide stance movements"},
	"back":      {"heavy deadlifts", "twisting under load", "high-impact activities"},
	"shoulder":  {"overhead pressing", "throwing", "bench press"},
	"hamstring": {"sprinting", "explosive hip hinge", "overstretching"},
	"achilles":  {"jumping", "calf raises", "uphill running"},
}

// AssessInjury triages a reported injury into a severity band, selects a
// recovery protocol, and flags anything that needs professional attention.
// Deterministic and total: every valid input combination produces exactly
// one recommendation.
func AssessInjury(input InjuryInput) InjuryOutput {
	canFunction := input.CanFunction == nil || *input.CanFunction

	severityScore := input.PainLevel
	if !canFunction {
		severityScore += 3
	}
	if input.InjuryType == InjuryNumbness {
		severityScore += 3
	}
	if input.InjuryType == InjuryInstability {
		severityScore += 2
	}
	if input.InjuryType == InjuryPopping {
		severityScore += 2
	}
	if input.Duration == DurationWeekPlus && input.PainLevel > 5 {
		severityScore += 2
	}

	var severity string
	switch {
	case severityScore >= 12 || input.InjuryType == InjuryNumbness:
		severity = SeverityEmergency
	case severityScore >= 8 || !canFunction:
		severity = SeveritySerious
	case severityScore >= 5:
		severity = SeverityModerate
	default:
		severity = SeverityMinor
	}

	protocol := protocols["active_recovery"]
	switch {
	case severity == SeveritySerious || severity == SeverityEmergency:
		protocol = protocols["rice"]
	case input.InjuryType == InjuryStiffness:
		protocol = protocols["mobility_focus"]
	case input.InjuryType == InjuryWeakness && input.Duration == DurationWeekPlus:
		protocol = protocols["strength_rehab"]
	case input.InjuryType == InjurySwelling || input.InjuryType == InjurySharpPain:
		protocol = protocols["rice"]
	}

	immediateAction := []string{}
	switch severity {
	case SeverityEmergency:
		immediateAction = append(immediateAction,
			"STOP ALL ACTIVITY IMMEDIATELY",
			"Seek emergency medical care")
	case SeveritySerious:
		immediateAction = append(immediateAction,
			"Stop the current activity",
			"Apply ice if swelling present",
			"Schedule appointment with sports medicine")
	default:
		immediateAction = append(immediateAction,
			"Reduce activity intensity",
			"Monitor symptoms over next 24 hours")
	}

	avoidActions := []string{}
	if avoid, ok := bodyPartAvoidance[input.BodyPart]; ok {
		avoidActions = append(avoidActions, avoid...)
	} else {
		avoidActions = append(avoidActions, "high-intensity activities")
	}

	safeActivities := []string{}
	if severity == SeverityMinor || severity == SeverityModerate {
		safeActivities = append(safeActivities,
			"Upper body work (if lower body injury)",
			"Swimming or pool exercises",
			"Stationary bike (low resistance)",
			"Mobility work for unaffected areas")
	} else {
		safeActivities = append(safeActivities,
			"Complete rest recommended",
			"Light walking if tolerable")
	}

	warnings := []string{}
	if input.PainLevel >= 7 {
		warnings = append(warnings, "Pain level indicates potential tissue damage")
	}
	if input.Duration == DurationWeekPlus {
		warnings = append(warnings, "Chronic pain requires professional evaluation")
	}
	if input.InjuryType == InjuryInstability {
		warnings = append(warnings, "Joint instability may indicate ligament damage")
	}

	redFlags := []string{}
	if input.InjuryType == InjuryNumbness {
		redFlags = append(redFlags, "Numbness may indicate nerve involvement - seek care immediately")
	}
	if input.InjuryType == InjuryPopping && input.PainLevel >= 7 {
		redFlags = append(redFlags, "Popping with severe pain may indicate ligament rupture")
	}
	if !canFunction && input.PainLevel >= 8 {
		redFlags = append(redFlags, "Inability to bear weight with severe pain requires evaluation")
	}

	shouldSeeProfessional := severity == SeveritySerious || severity == SeverityEmergency || len(redFlags) > 0
	professionalType := ""
	if shouldSeeProfessional {
		switch {
		case severity == SeverityEmergency:
			professionalType = "Emergency room or urgent care"
		case input.BodyPart == "back" || input.InjuryType == InjuryNumbness:
			professionalType = "Orthopedic specialist or sports medicine doctor"
		default:
			professionalType = "Physical therapist or sports medicine professional"
		}
	}

	return InjuryOutput{
		Severity:              severity,
		ImmediateAction:       immediateAction,
		AvoidActions:          avoidActions,
		Protocol:              protocol,
		ShouldSeeProfessional: shouldSeeProfessional,
		ProfessionalType:      professionalType,
		SafeActivities:        safeActivities,
		Warnings:              warnings,
		RedFlags:              redFlags,
	}
}
