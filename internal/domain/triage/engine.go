// Package triage classifies pediatric symptom reports. Classification is a
// pure function of the intake: keyword red flags first, declared severity
// second.
package triage

import (
	"strconv"
	"strings"
)

// Verdicts, most urgent first.
const (
	VerdictEmergency = "Emergency Care"
	VerdictGP        = "GP Visit (24–48 hrs)"
	VerdictHome      = "Home Care"
)

// Engine severity labels.
const (
	SeverityHigh   = "High"
	SeverityMedium = "Medium"
	SeverityLow    = "Low"
)

// Red flag names.
const (
	FlagBreathing     = "Breathing concern"
	FlagSeizure       = "Seizure reported"
	FlagConsciousness = "Altered consciousness"
	FlagInfantFever   = "Fever in very young child"
)

const disclaimer = "Disclaimer: Decision-support only. Not a diagnosis or prescription."

// Result is the outcome of Classify. RedFlags is never nil.
type Result struct {
	Verdict  string   `json:"verdict"`
	RedFlags []string `json:"redFlags"`
}

// Input is the intake the summary is rendered from.
type Input struct {
	AgeYears float64
	Severity string // engine label: High, Medium or Low
	Duration string
	Symptoms string
}

// Assessment bundles a classification with its clinician summary.
type Assessment struct {
	Result
	Summary string `json:"summary"`
}

// Classify scans symptomsText for red flags and derives a verdict. Any red
// flag forces Emergency Care. Unrecognized severities fall through to Home
// Care.
func Classify(childAgeYears float64, severity, symptomsText string) Result {
	s := strings.ToLower(symptomsText)
	flags := []string{}

	if strings.Contains(s, "breathing") {
		flags = append(flags, FlagBreathing)
	}
	if strings.Contains(s, "seizure") {
		flags = append(flags, FlagSeizure)
	}
	if strings.Contains(s, "unconscious") || strings.Contains(s, "not responding") {
		flags = append(flags, FlagConsciousness)
	}
	if childAgeYears < 3 && strings.Contains(s, "fever") {
		flags = append(flags, FlagInfantFever)
	}

	if len(flags) > 0 {
		return Result{Verdict: VerdictEmergency, RedFlags: flags}
	}

	switch severity {
	case SeverityHigh:
		return Result{Verdict: VerdictEmergency, RedFlags: flags}
	case SeverityMedium:
		return Result{Verdict: VerdictGP, RedFlags: flags}
	default:
		return Result{Verdict: VerdictHome, RedFlags: flags}
	}
}

// BuildSummary renders the SOAP note shown to clinicians.
func BuildSummary(in Input, r Result) string {
	flags := "None detected"
	if len(r.RedFlags) > 0 {
		flags = strings.Join(r.RedFlags, ", ")
	}

	return strings.Join([]string{
		"S: Parent reports: " + in.Symptoms,
		"O: Age: " + strconv.FormatFloat(in.AgeYears, 'f', -1, 64) + " years | Severity: " + in.Severity + " | Duration: " + in.Duration,
		"A: Triage suggests: " + r.Verdict,
		"P: Safety guidance + escalation instructions. Red flags: " + flags,
		disclaimer,
	}, "\n")
}

// SeverityLabel maps the case severity vocabulary (mild, moderate, severe)
// to engine labels. Other values are returned unchanged.
func SeverityLabel(caseSeverity string) string {
	switch caseSeverity {
	case "mild":
		return SeverityLow
	case "moderate":
		return SeverityMedium
	case "severe":
		return SeverityHigh
	}
	return caseSeverity
}

// AgeYears converts an age in months to fractional years.
func AgeYears(ageMonths int) float64 {
	return float64(ageMonths) / 12
}

// Assess classifies in and renders its summary.
func Assess(in Input) Assessment {
	r := Classify(in.AgeYears, in.Severity, in.Symptoms)
	return Assessment{Result: r, Summary: BuildSummary(in, r)}
}
