package cranewatch

import "time"

// SafetyLevel is the coarse machine-safety classification reported by the
// load-limiter. It drives the dashboard banner and is independent of the
// numeric load-percent severity derived client-side.
type SafetyLevel string

const (
	SafetySafe     SafetyLevel = "safe"
	SafetyWarning  SafetyLevel = "warning"
	SafetyOverload SafetyLevel = "overload"
	SafetyCutoff   SafetyLevel = "cutoff"
)

// LimitSwitchCount is the number of limit switches exercised by the timed
// test procedure.
const LimitSwitchCount = 4

// TestModeState carries the limit-switch test progress. InProgress and
// AllComplete are mutually exclusive in valid data, but consumers must
// tolerate both being false.
type TestModeState struct {
	InProgress       bool `json:"in_progress"`
	AllComplete      bool `json:"all_complete"`
	LS1Tested        bool `json:"ls1_tested"`
	LS1Hit           bool `json:"ls1_hit"`
	LS2Tested        bool `json:"ls2_tested"`
	LS2Hit           bool `json:"ls2_hit"`
	LS3Tested        bool `json:"ls3_tested"`
	LS3Hit           bool `json:"ls3_hit"`
	LS4Tested        bool `json:"ls4_tested"`
	LS4Hit           bool `json:"ls4_hit"`
	RemainingSeconds int  `json:"remaining_seconds"`
	WarningActive    bool `json:"warning_active"`
}

// Switch returns the (tested, hit) pair for limit switch i in [1,LimitSwitchCount].
// Out-of-range indexes report (false, false).
func (t TestModeState) Switch(i int) (tested, hit bool) {
	switch i {
	case 1:
		return t.LS1Tested, t.LS1Hit
	case 2:
		return t.LS2Tested, t.LS2Hit
	case 3:
		return t.LS3Tested, t.LS3Hit
	case 4:
		return t.LS4Tested, t.LS4Hit
	}
	return false, false
}

// SetSwitch records the (tested, hit) pair for limit switch i. Out-of-range
// indexes are ignored.
func (t *TestModeState) SetSwitch(i int, tested, hit bool) {
	switch i {
	case 1:
		t.LS1Tested, t.LS1Hit = tested, hit
	case 2:
		t.LS2Tested, t.LS2Hit = tested, hit
	case 3:
		t.LS3Tested, t.LS3Hit = tested, hit
	case 4:
		t.LS4Tested, t.LS4Hit = tested, hit
	}
}

// TelemetrySnapshot is one immutable telemetry record, produced once per tick
// and pushed to every connected dashboard. Field names match the wire format.
type TelemetrySnapshot struct {
	Load               float64        `json:"load"` // current hook load
	SWL                float64        `json:"swl"`  // safe working load
	Trolley            *float64       `json:"trolley,omitempty"`
	Wind               *float64       `json:"wind,omitempty"`
	SafetyLevel        SafetyLevel    `json:"safety_level"`
	TestMode           TestModeState  `json:"test_mode"`
	HoistActive        bool           `json:"hoist_active"`
	TrolleyActive      bool           `json:"trolley_active"`
	SlewActive         bool           `json:"slew_active"`
	UtilizationMinutes int            `json:"utilization_minutes"`
	UtilizationActive  bool           `json:"utilization_active"`
	Counters           map[string]int `json:"counters"`
	StatusWord         uint16         `json:"status_word"`
	OverloadActive     bool           `json:"overload_active"`
	BypassActive       bool           `json:"bypass_active"`
	Timestamp          time.Time      `json:"timestamp"`
}

// LoadPercent returns load as a percentage of SWL. The second return is false
// when SWL is not positive, in which case the percentage is undefined.
func (s TelemetrySnapshot) LoadPercent() (float64, bool) {
	if s.SWL <= 0 {
		return 0, false
	}
	return s.Load / s.SWL * 100, true
}

// SafetyEvent is a single entry in the persisted safety log.
type SafetyEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // WARNING | OVERLOAD | CUTOFF | BYPASS | TEST
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // don't expose hash
}
