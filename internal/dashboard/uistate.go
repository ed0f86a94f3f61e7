package dashboard

import (
	"fmt"
	"sort"

	"cranewatch"
)

// PercentSeverity classifies the numeric load percentage. It is derived
// independently of the safety-level banner and the two may disagree when the
// data source's thresholds differ; the reducer renders both as-is.
type PercentSeverity string

const (
	PercentUnknown PercentSeverity = ""
	PercentNormal  PercentSeverity = "normal"
	PercentWarning PercentSeverity = "warning"
	PercentDanger  PercentSeverity = "danger"
)

// IndicatorState is the per-limit-switch confidence color.
type IndicatorState string

const (
	IndicatorGrey   IndicatorState = "grey"   // not yet tested
	IndicatorGreen  IndicatorState = "green"  // tested, clear
	IndicatorYellow IndicatorState = "yellow" // triggered during test, expected
	IndicatorRed    IndicatorState = "red"    // triggered untested, anomalous
)

// BannerSeverity drives the safety banner styling.
type BannerSeverity string

const (
	BannerWarning BannerSeverity = "warning"
	BannerDanger  BannerSeverity = "danger"
)

const (
	// fullTestCountdown is shown whenever no test is running.
	fullTestCountdown = "1:30"

	percentWarningAt = 80.0
	percentDangerAt  = 95.0
)

// Banner is the safety-level banner state.
type Banner struct {
	Visible  bool
	Severity BannerSeverity
	Message  string
}

// OperationFlags mirrors the three motion indicators.
type OperationFlags struct {
	Hoist   bool
	Trolley bool
	Slew    bool
}

// Badges are the latched warning badges shown next to the load readout.
type Badges struct {
	Overload bool
	Bypass   bool
}

// UIState is everything the renderer needs, fully derived from one snapshot.
type UIState struct {
	LoadText        string
	SWLText         string
	LoadPercent     float64
	PercentKnown    bool
	PercentSeverity PercentSeverity
	SafetyBanner    Banner
	TestIndicators  [cranewatch.LimitSwitchCount]IndicatorState
	TestTimerText   string
	OperationFlags  OperationFlags
	UtilizationText string
	Counters        map[string]int
	CounterNames    []string
	StatusWordHex   string
	Badges          Badges
}

// Reduce maps one telemetry snapshot to UI state. Pure and stateless: the
// same snapshot always produces the same state, with no hold-over from
// previous calls.
func Reduce(snap cranewatch.TelemetrySnapshot) UIState {
	st := UIState{
		LoadText:      fmt.Sprintf("%.0f kg", snap.Load),
		SWLText:       fmt.Sprintf("%.0f kg", snap.SWL),
		SafetyBanner:  reduceBanner(snap.SafetyLevel),
		TestTimerText: reduceCountdown(snap.TestMode),
		OperationFlags: OperationFlags{
			Hoist:   snap.HoistActive,
			Trolley: snap.TrolleyActive,
			Slew:    snap.SlewActive,
		},
		UtilizationText: reduceUtilization(snap.UtilizationMinutes, snap.UtilizationActive),
		StatusWordHex:   fmt.Sprintf("0x%04X", snap.StatusWord),
		Badges: Badges{
			Overload: snap.OverloadActive,
			Bypass:   snap.BypassActive,
		},
	}

	if pct, ok := snap.LoadPercent(); ok {
		st.LoadPercent = pct
		st.PercentKnown = true
		st.PercentSeverity = reducePercent(pct)
	}

	for i := 1; i <= cranewatch.LimitSwitchCount; i++ {
		tested, hit := snap.TestMode.Switch(i)
		st.TestIndicators[i-1] = reduceIndicator(tested, hit)
	}

	st.Counters = make(map[string]int, len(snap.Counters))
	for name, count := range snap.Counters {
		st.Counters[name] = count
		st.CounterNames = append(st.CounterNames, name)
	}
	sort.Strings(st.CounterNames)

	return st
}

func reducePercent(pct float64) PercentSeverity {
	switch {
	case pct >= percentDangerAt:
		return PercentDanger
	case pct >= percentWarningAt:
		return PercentWarning
	}
	return PercentNormal
}

func reduceBanner(level cranewatch.SafetyLevel) Banner {
	switch level {
	case cranewatch.SafetyWarning:
		return Banner{Visible: true, Severity: BannerWarning, Message: "Approaching safe working load"}
	case cranewatch.SafetyOverload:
		return Banner{Visible: true, Severity: BannerDanger, Message: "Overload — reduce load immediately"}
	case cranewatch.SafetyCutoff:
		return Banner{Visible: true, Severity: BannerDanger, Message: "Load cutoff — operations stopped"}
	}
	return Banner{}
}

// reduceIndicator is the tested/hit truth table. hit without tested means the
// switch triggered outside a test window, which is worth a red flag.
func reduceIndicator(tested, hit bool) IndicatorState {
	switch {
	case hit && !tested:
		return IndicatorRed
	case hit && tested:
		return IndicatorYellow
	case tested:
		return IndicatorGreen
	}
	return IndicatorGrey
}

func reduceCountdown(tm cranewatch.TestModeState) string {
	if tm.InProgress && tm.RemainingSeconds >= 0 {
		return fmt.Sprintf("%d:%02d", tm.RemainingSeconds/60, tm.RemainingSeconds%60)
	}
	return fullTestCountdown
}

func reduceUtilization(minutes int, active bool) string {
	text := fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
	if active {
		return text + " (running)"
	}
	return text
}
