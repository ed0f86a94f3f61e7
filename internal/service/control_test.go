package service

import (
	"context"
	"testing"
)

type stubControls struct {
	bypass     bool
	resetCalls int
	old        map[string]int
}

func (s *stubControls) SetBypass(enabled bool) bool {
	prev := s.bypass
	s.bypass = enabled
	return prev
}

func (s *stubControls) ResetCounters() map[string]int {
	s.resetCalls++
	return s.old
}

func TestControlService_SetBypass_LogsTransitionsOnly(t *testing.T) {
	repo := &stubEventRepo{}
	svc := NewControlService(&stubControls{}, repo)
	ctx := context.Background()

	if err := svc.SetBypass(ctx, true); err != nil {
		t.Fatalf("SetBypass: %v", err)
	}
	// Re-applying the same state is a no-op.
	if err := svc.SetBypass(ctx, true); err != nil {
		t.Fatalf("SetBypass repeat: %v", err)
	}
	if err := svc.SetBypass(ctx, false); err != nil {
		t.Fatalf("SetBypass off: %v", err)
	}

	evs := repo.events()
	if len(evs) != 2 {
		t.Fatalf("expected 2 logged transitions, got %d: %+v", len(evs), evs)
	}
	for _, e := range evs {
		if e.Type != EventBypass {
			t.Errorf("event type: want %s, got %s", EventBypass, e.Type)
		}
		if e.EventID == "" || e.OccurredAt.IsZero() {
			t.Errorf("event must carry id and timestamp: %+v", e)
		}
	}
}

func TestControlService_ResetCounters_LogsPrevious(t *testing.T) {
	repo := &stubEventRepo{}
	controls := &stubControls{old: map[string]int{CounterHookUp: 12, CounterHookDown: 11}}
	svc := NewControlService(controls, repo)

	if err := svc.ResetCounters(context.Background()); err != nil {
		t.Fatalf("ResetCounters: %v", err)
	}
	if controls.resetCalls != 1 {
		t.Fatalf("expected one reset call, got %d", controls.resetCalls)
	}

	evs := repo.events()
	if len(evs) != 1 || evs[0].Type != EventCounters {
		t.Fatalf("expected one COUNTERS event, got %+v", evs)
	}
	meta, ok := evs[0].Metadata.(map[string]any)
	if !ok {
		t.Fatalf("expected metadata map, got %T", evs[0].Metadata)
	}
	prev, ok := meta["previous"].(map[string]int)
	if !ok || prev[CounterHookUp] != 12 {
		t.Fatalf("expected previous counters in metadata, got %v", meta["previous"])
	}
}
