package service

import (
	"context"
	"time"

	"cranewatch"
	"cranewatch/internal/repository"

	"github.com/google/uuid"
)

// craneControls is the slice of the simulator the control service drives.
// A real sensor bridge would satisfy the same interface.
type craneControls interface {
	SetBypass(enabled bool) bool
	ResetCounters() map[string]int
}

// ControlService applies operator actions and records them in the safety log.
type ControlService struct {
	crane     craneControls
	eventRepo repository.EventRepo
}

func NewControlService(crane craneControls, eventRepo repository.EventRepo) *ControlService {
	return &ControlService{crane: crane, eventRepo: eventRepo}
}

// SetBypass enables or disables the overload bypass and logs the change.
// Re-applying the current state is a no-op and not logged.
func (s *ControlService) SetBypass(ctx context.Context, enabled bool) error {
	prev := s.crane.SetBypass(enabled)
	if prev == enabled {
		return nil
	}

	desc := "Overload bypass disabled"
	if enabled {
		desc = "Overload bypass enabled"
	}
	return s.eventRepo.Append(ctx, cranewatch.SafetyEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        EventBypass,
		Description: desc,
		Metadata:    map[string]any{"enabled": enabled},
	})
}

// ResetCounters zeroes the hook cycle counters and logs the old values.
func (s *ControlService) ResetCounters(ctx context.Context) error {
	old := s.crane.ResetCounters()
	return s.eventRepo.Append(ctx, cranewatch.SafetyEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        EventCounters,
		Description: "Hook cycle counters reset",
		Metadata:    map[string]any{"previous": old},
	})
}
