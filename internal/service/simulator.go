package service

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"cranewatch"
	"cranewatch/internal/repository"

	"github.com/google/uuid"
)

// ----------- Simulation constants -----------
const (
	DefaultSWLKg    = 5000.0 // safe working load when config doesn't set one
	RampKgPerSec    = 400.0  // hoist speed, kg of load change per second
	TrolleySpanM    = 42.0   // trolley travel along the jib
	TrolleyMPerSec  = 0.8
	MaxWindMPerSec  = 18.0

	// Safety level thresholds as percent of SWL. These belong to the data
	// source; the dashboard derives its own percent severity independently.
	WarningPercent = 90.0
	CutoffPercent  = 110.0

	// Limit-switch test procedure.
	TestDurationSeconds = 90
	testIntervalSeconds = 600

	retargetChance = 0.08 // per-second chance to pick a new target load
	hitChance      = 0.15 // chance a switch trips while being tested
)

// Hook cycle counters exposed on the wire.
const (
	CounterHookUp   = "hookup"
	CounterHookDown = "hookdown"
)

// Status word bit layout (wire field status_word).
const (
	statusHoistBit    = 1 << 0
	statusTrolleyBit  = 1 << 1
	statusSlewBit     = 1 << 2
	statusOverloadBit = 1 << 3
	statusBypassBit   = 1 << 4
	statusTestBit     = 1 << 5
	statusTestDoneBit = 1 << 6
	statusWarningBit  = 1 << 7
)

// Safety event types recorded in the persisted log.
const (
	EventWarning  = "WARNING"
	EventOverload = "OVERLOAD"
	EventCutoff   = "CUTOFF"
	EventBypass   = "BYPASS"
	EventTest     = "TEST"
	EventCounters = "COUNTERS"
)

// testState tracks the timed limit-switch test procedure.
type testState struct {
	inProgress  bool
	allComplete bool
	remaining   int // seconds, meaningful only while inProgress
	nextIn      int // seconds until the next test starts
	tested      [cranewatch.LimitSwitchCount]bool
	hit         [cranewatch.LimitSwitchCount]bool
}

// SimulatorService synthesizes crane telemetry over time. It is both the
// background Simulator and the Telemetry source the sessions pull from.
type SimulatorService struct {
	eventRepo repository.EventRepo

	mu          sync.Mutex
	rng         *rand.Rand
	swl         float64
	load        float64
	targetLoad  float64
	trolleyPos  float64
	trolleyDir  float64
	wind        float64
	level       cranewatch.SafetyLevel
	bypass      bool
	slewActive  bool
	utilSeconds float64
	counters    map[string]int
	hooked      bool
	test        testState
}

// NewSimulatorService returns a simulator with an empty hook and a pending
// first limit-switch test.
func NewSimulatorService(eventRepo repository.EventRepo, swl float64) *SimulatorService {
	if swl <= 0 {
		swl = DefaultSWLKg
	}
	return &SimulatorService{
		eventRepo:  eventRepo,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		swl:        swl,
		level:      cranewatch.SafetySafe,
		trolleyDir: 1,
		counters:   map[string]int{CounterHookUp: 0, CounterHookDown: 0},
		test:       testState{nextIn: testIntervalSeconds / 2},
	}
}

// Run ticks at the given interval until ctx is canceled.
func (s *SimulatorService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			elapsed := now.Sub(last).Seconds()
			last = now
			if elapsed <= 0 {
				continue
			}
			s.advance(ctx, now, elapsed)
		}
	}
}

// advance moves the synthetic crane forward by elapsed seconds.
func (s *SimulatorService) advance(ctx context.Context, now time.Time, elapsed float64) {
	s.mu.Lock()

	s.advanceLoad(elapsed)
	s.advanceMotion(elapsed)
	s.advanceTest(elapsed)
	s.advanceUtilization(elapsed)
	events := s.reclassify(now)

	s.mu.Unlock()

	// Event appends happen outside the lock; the repo serializes writes.
	for _, e := range events {
		_ = s.eventRepo.Append(ctx, e)
	}
}

// advanceLoad ramps the hook load toward the target and maintains the hook
// cycle counters.
func (s *SimulatorService) advanceLoad(elapsed float64) {
	// In cutoff without bypass the only permitted motion is lowering.
	if s.level == cranewatch.SafetyCutoff && !s.bypass && s.targetLoad > s.swl {
		s.targetLoad = s.swl * 0.6
	}

	if math.Abs(s.load-s.targetLoad) < 1 {
		s.load = s.targetLoad
		if s.rng.Float64() < retargetChance*elapsed {
			// Occasionally wander past SWL so overload paths get exercised.
			s.targetLoad = s.rng.Float64() * s.swl * 1.15
		}
	} else if s.load < s.targetLoad {
		s.load = math.Min(s.load+RampKgPerSec*elapsed, s.targetLoad)
	} else {
		s.load = math.Max(s.load-RampKgPerSec*elapsed, s.targetLoad)
	}

	pickupThreshold := s.swl * 0.1
	if !s.hooked && s.load > pickupThreshold {
		s.hooked = true
		s.counters[CounterHookUp]++
	}
	if s.hooked && s.load < pickupThreshold/2 {
		s.hooked = false
		s.counters[CounterHookDown]++
	}
}

// advanceMotion moves the trolley back and forth and drifts the wind reading.
// The trolley parks at either end of the jib until the next travel order.
func (s *SimulatorService) advanceMotion(elapsed float64) {
	if s.trolleyDir == 0 {
		if s.rng.Float64() < 0.1*elapsed {
			if s.trolleyPos >= TrolleySpanM/2 {
				s.trolleyDir = -1
			} else {
				s.trolleyDir = 1
			}
		}
	} else {
		s.trolleyPos += s.trolleyDir * TrolleyMPerSec * elapsed
		if s.trolleyPos >= TrolleySpanM {
			s.trolleyPos, s.trolleyDir = TrolleySpanM, 0
		} else if s.trolleyPos <= 0 {
			s.trolleyPos, s.trolleyDir = 0, 0
		}
	}

	s.wind += (s.rng.Float64() - 0.5) * 2 * elapsed
	s.wind = math.Max(0, math.Min(s.wind, MaxWindMPerSec))

	if s.rng.Float64() < 0.05*elapsed {
		s.slewActive = !s.slewActive
	}
}

// advanceTest drives the timed limit-switch procedure: switches are tested
// one by one across the test window, each with a chance of tripping.
func (s *SimulatorService) advanceTest(elapsed float64) {
	if !s.test.inProgress {
		s.test.nextIn -= int(math.Round(elapsed))
		if s.test.nextIn > 0 {
			return
		}
		s.test = testState{inProgress: true, remaining: TestDurationSeconds, nextIn: testIntervalSeconds}
		return
	}

	s.test.remaining -= int(math.Round(elapsed))
	if s.test.remaining < 0 {
		s.test.remaining = 0
	}

	// Switch i is considered tested once its quarter of the window has passed.
	progressed := TestDurationSeconds - s.test.remaining
	perSwitch := TestDurationSeconds / cranewatch.LimitSwitchCount
	for i := 0; i < cranewatch.LimitSwitchCount; i++ {
		if s.test.tested[i] || progressed < (i+1)*perSwitch {
			continue
		}
		s.test.tested[i] = true
		if s.rng.Float64() < hitChance {
			s.test.hit[i] = true
		}
	}

	if s.test.remaining == 0 {
		s.test.inProgress = false
		s.test.allComplete = true
	}
}

func (s *SimulatorService) advanceUtilization(elapsed float64) {
	if s.operating() {
		s.utilSeconds += elapsed
	}
}

// operating reports whether any operation flag is on. Callers hold s.mu.
func (s *SimulatorService) operating() bool {
	return s.hoisting() || s.trolleyMoving() || s.slewActive
}

func (s *SimulatorService) hoisting() bool { return s.load != s.targetLoad }

func (s *SimulatorService) trolleyMoving() bool { return s.trolleyDir != 0 }

// reclassify recomputes the safety level from the current load and returns
// the events to persist for any escalation. Callers hold s.mu.
func (s *SimulatorService) reclassify(now time.Time) []cranewatch.SafetyEvent {
	pct := s.load / s.swl * 100

	next := cranewatch.SafetySafe
	switch {
	case pct >= CutoffPercent:
		next = cranewatch.SafetyCutoff
	case pct >= 100:
		next = cranewatch.SafetyOverload
	case pct >= WarningPercent:
		next = cranewatch.SafetyWarning
	}

	prev := s.level
	s.level = next
	if levelRank(next) <= levelRank(prev) {
		return nil
	}

	typ := map[cranewatch.SafetyLevel]string{
		cranewatch.SafetyWarning:  EventWarning,
		cranewatch.SafetyOverload: EventOverload,
		cranewatch.SafetyCutoff:   EventCutoff,
	}[next]

	return []cranewatch.SafetyEvent{{
		EventID:     uuid.NewString(),
		OccurredAt:  now.UTC(),
		Type:        typ,
		Description: "Safety level changed to " + string(next),
		Metadata: map[string]any{
			"load_kg":      s.load,
			"swl_kg":       s.swl,
			"load_percent": pct,
			"bypass":       s.bypass,
		},
	}}
}

func levelRank(l cranewatch.SafetyLevel) int {
	switch l {
	case cranewatch.SafetyWarning:
		return 1
	case cranewatch.SafetyOverload:
		return 2
	case cranewatch.SafetyCutoff:
		return 3
	}
	return 0
}

// Snapshot composes one immutable telemetry record from the current state.
func (s *SimulatorService) Snapshot(ctx context.Context) (cranewatch.TelemetrySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trolley := s.trolleyPos
	wind := s.wind

	tm := cranewatch.TestModeState{
		InProgress:    s.test.inProgress,
		AllComplete:   s.test.allComplete,
		WarningActive: s.anyHit(),
	}
	if s.test.inProgress {
		tm.RemainingSeconds = s.test.remaining
	}
	for i := 0; i < cranewatch.LimitSwitchCount; i++ {
		tm.SetSwitch(i+1, s.test.tested[i], s.test.hit[i])
	}

	counters := make(map[string]int, len(s.counters))
	for k, v := range s.counters {
		counters[k] = v
	}

	overload := levelRank(s.level) >= levelRank(cranewatch.SafetyOverload)

	snap := cranewatch.TelemetrySnapshot{
		Load:               round1(s.load),
		SWL:                s.swl,
		Trolley:            &trolley,
		Wind:               &wind,
		SafetyLevel:        s.level,
		TestMode:           tm,
		HoistActive:        s.hoisting(),
		TrolleyActive:      s.trolleyMoving(),
		SlewActive:         s.slewActive,
		UtilizationMinutes: int(s.utilSeconds / 60),
		UtilizationActive:  s.operating(),
		Counters:           counters,
		StatusWord:         s.statusWord(overload),
		OverloadActive:     overload,
		BypassActive:       s.bypass,
		Timestamp:          time.Now().UTC(),
	}
	return snap, nil
}

// statusWord mirrors the boolean telemetry into a compact bitfield.
// Callers hold s.mu.
func (s *SimulatorService) statusWord(overload bool) uint16 {
	var w uint16
	if s.hoisting() {
		w |= statusHoistBit
	}
	if s.trolleyMoving() {
		w |= statusTrolleyBit
	}
	if s.slewActive {
		w |= statusSlewBit
	}
	if overload {
		w |= statusOverloadBit
	}
	if s.bypass {
		w |= statusBypassBit
	}
	if s.test.inProgress {
		w |= statusTestBit
	}
	if s.test.allComplete {
		w |= statusTestDoneBit
	}
	if s.level != cranewatch.SafetySafe {
		w |= statusWarningBit
	}
	return w
}

func (s *SimulatorService) anyHit() bool {
	for _, h := range s.test.hit {
		if h {
			return true
		}
	}
	return false
}

// SetBypass flips the overload bypass. Returns the previous value.
func (s *SimulatorService) SetBypass(enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.bypass
	s.bypass = enabled
	return prev
}

// ResetCounters zeroes the hook cycle counters and returns the old values.
func (s *SimulatorService) ResetCounters() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := make(map[string]int, len(s.counters))
	for k, v := range s.counters {
		old[k] = v
		s.counters[k] = 0
	}
	return old
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
