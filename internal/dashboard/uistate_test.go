package dashboard

import (
	"testing"

	"cranewatch"
)

func TestReduce_PercentSeverity(t *testing.T) {
	cases := []struct {
		name string
		load float64
		swl  float64
		want PercentSeverity
	}{
		{"well under", 10, 100, PercentNormal},
		{"just under warning", 79.9, 100, PercentNormal},
		{"warning boundary", 80, 100, PercentWarning},
		{"inside warning", 94.9, 100, PercentWarning},
		{"danger boundary", 95, 100, PercentDanger},
		{"over the top", 120, 100, PercentDanger},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := Reduce(cranewatch.TelemetrySnapshot{Load: tc.load, SWL: tc.swl})
			if !st.PercentKnown {
				t.Fatal("percent should be defined")
			}
			if st.PercentSeverity != tc.want {
				t.Fatalf("severity: got %q, want %q", st.PercentSeverity, tc.want)
			}
		})
	}
}

func TestReduce_PercentUndefinedWithoutSWL(t *testing.T) {
	for _, swl := range []float64{0, -1} {
		st := Reduce(cranewatch.TelemetrySnapshot{Load: 500, SWL: swl})
		if st.PercentKnown {
			t.Fatalf("swl=%v: percent should be undefined", swl)
		}
		if st.PercentSeverity != PercentUnknown {
			t.Fatalf("swl=%v: severity should be empty, got %q", swl, st.PercentSeverity)
		}
	}
}

func TestReduce_Banner(t *testing.T) {
	cases := []struct {
		level       cranewatch.SafetyLevel
		visible     bool
		severity    BannerSeverity
		wantStopped bool
	}{
		{cranewatch.SafetySafe, false, "", false},
		{cranewatch.SafetyWarning, true, BannerWarning, false},
		{cranewatch.SafetyOverload, true, BannerDanger, false},
		{cranewatch.SafetyCutoff, true, BannerDanger, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.level), func(t *testing.T) {
			st := Reduce(cranewatch.TelemetrySnapshot{SWL: 100, SafetyLevel: tc.level})
			if st.SafetyBanner.Visible != tc.visible {
				t.Fatalf("visible: got %v", st.SafetyBanner.Visible)
			}
			if tc.visible && st.SafetyBanner.Severity != tc.severity {
				t.Fatalf("severity: got %q, want %q", st.SafetyBanner.Severity, tc.severity)
			}
			if !tc.visible && st.SafetyBanner.Message != "" {
				t.Fatalf("hidden banner should carry no message, got %q", st.SafetyBanner.Message)
			}
		})
	}

	// Cutoff and overload share the danger severity but must read differently.
	overload := Reduce(cranewatch.TelemetrySnapshot{SWL: 100, SafetyLevel: cranewatch.SafetyOverload})
	cutoff := Reduce(cranewatch.TelemetrySnapshot{SWL: 100, SafetyLevel: cranewatch.SafetyCutoff})
	if overload.SafetyBanner.Message == cutoff.SafetyBanner.Message {
		t.Fatal("cutoff message must be distinguishable from overload")
	}
}

func TestReduce_IndicatorTruthTable(t *testing.T) {
	cases := []struct {
		tested, hit bool
		want        IndicatorState
	}{
		{false, false, IndicatorGrey},
		{true, false, IndicatorGreen},
		{true, true, IndicatorYellow},
		{false, true, IndicatorRed},
	}
	for _, tc := range cases {
		var tm cranewatch.TestModeState
		tm.SetSwitch(2, tc.tested, tc.hit)
		st := Reduce(cranewatch.TelemetrySnapshot{SWL: 100, TestMode: tm})
		if got := st.TestIndicators[1]; got != tc.want {
			t.Fatalf("tested=%v hit=%v: got %q, want %q", tc.tested, tc.hit, got, tc.want)
		}
		// Untouched switches stay grey.
		if st.TestIndicators[0] != IndicatorGrey {
			t.Fatalf("untouched switch: got %q", st.TestIndicators[0])
		}
		// Same input, same output.
		again := Reduce(cranewatch.TelemetrySnapshot{SWL: 100, TestMode: tm})
		if again.TestIndicators[1] != st.TestIndicators[1] {
			t.Fatal("reduce is not deterministic")
		}
	}
}

func TestReduce_Countdown(t *testing.T) {
	cases := []struct {
		name string
		tm   cranewatch.TestModeState
		want string
	}{
		{"idle shows full duration", cranewatch.TestModeState{}, "1:30"},
		{"complete shows full duration", cranewatch.TestModeState{AllComplete: true}, "1:30"},
		{"in progress", cranewatch.TestModeState{InProgress: true, RemainingSeconds: 90}, "1:30"},
		{"seconds zero padded", cranewatch.TestModeState{InProgress: true, RemainingSeconds: 65}, "1:05"},
		{"under a minute", cranewatch.TestModeState{InProgress: true, RemainingSeconds: 9}, "0:09"},
		{"zero", cranewatch.TestModeState{InProgress: true, RemainingSeconds: 0}, "0:00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := Reduce(cranewatch.TelemetrySnapshot{SWL: 100, TestMode: tc.tm})
			if st.TestTimerText != tc.want {
				t.Fatalf("countdown: got %q, want %q", st.TestTimerText, tc.want)
			}
		})
	}
}

func TestReduce_FlagsCountersAndStatusWord(t *testing.T) {
	snap := cranewatch.TelemetrySnapshot{
		Load:               1000,
		SWL:                5000,
		HoistActive:        true,
		SlewActive:         true,
		UtilizationMinutes: 125,
		UtilizationActive:  true,
		Counters:           map[string]int{"hookup": 12, "hookdown": 11},
		StatusWord:         0x00A5,
		OverloadActive:     true,
		BypassActive:       true,
	}
	st := Reduce(snap)

	if !st.OperationFlags.Hoist || st.OperationFlags.Trolley || !st.OperationFlags.Slew {
		t.Fatalf("operation flags: %+v", st.OperationFlags)
	}
	if st.StatusWordHex != "0x00A5" {
		t.Fatalf("status word: got %q", st.StatusWordHex)
	}
	if st.UtilizationText != "2h 05m (running)" {
		t.Fatalf("utilization: got %q", st.UtilizationText)
	}
	if !st.Badges.Overload || !st.Badges.Bypass {
		t.Fatalf("badges: %+v", st.Badges)
	}
	if len(st.CounterNames) != 2 || st.CounterNames[0] != "hookdown" {
		t.Fatalf("counter names should be sorted: %v", st.CounterNames)
	}
	if st.Counters["hookup"] != 12 {
		t.Fatalf("counters: %v", st.Counters)
	}
}

// Mirrors a full wire snapshot end to end: percent severity and banner come
// from independent fields and may disagree.
func TestReduce_EndToEnd(t *testing.T) {
	var tm cranewatch.TestModeState
	tm.SetSwitch(1, true, true)

	st := Reduce(cranewatch.TelemetrySnapshot{
		Load:        96,
		SWL:         100,
		SafetyLevel: cranewatch.SafetyWarning,
		TestMode:    tm,
		HoistActive: true,
	})

	if st.PercentSeverity != PercentDanger {
		t.Fatalf("percent severity: got %q, want danger", st.PercentSeverity)
	}
	if !st.SafetyBanner.Visible || st.SafetyBanner.Severity != BannerWarning {
		t.Fatalf("banner: %+v", st.SafetyBanner)
	}
	if st.TestIndicators[0] != IndicatorYellow {
		t.Fatalf("indicator[0]: got %q, want yellow", st.TestIndicators[0])
	}
	if !st.OperationFlags.Hoist {
		t.Fatal("hoist flag should be on")
	}
}
