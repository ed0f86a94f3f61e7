package service

import (
	"context"
	"time"

	"cranewatch"
	"cranewatch/internal/history"
	"cranewatch/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Telemetry produces one snapshot per call. Each connection session pulls a
// snapshot on every tick of its own timer.
type Telemetry interface {
	Snapshot(ctx context.Context) (cranewatch.TelemetrySnapshot, error)
}

// History exposes the shared bounded snapshot ring.
type History interface {
	Append(s cranewatch.TelemetrySnapshot)
	Latest() (cranewatch.TelemetrySnapshot, bool)
	Since(t time.Time) []cranewatch.TelemetrySnapshot
}

// EventLog exposes the append-only safety log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]cranewatch.SafetyEvent, error)
}

// Control exposes operator actions on the crane safety system.
type Control interface {
	SetBypass(ctx context.Context, enabled bool) error
	ResetCounters(ctx context.Context) error
}

// Simulator runs the background loop that advances the synthetic crane.
// Stop via context cancellation in main() for graceful shutdown.
type Simulator interface {
	Run(ctx context.Context, tick time.Duration)
}

// Service aggregates all sub-services.
type Service struct {
	Telemetry
	History
	EventLog
	Control
	Simulator
	Authorization
}

// Config carries the tunables the services need from the config file.
type Config struct {
	SafeWorkingLoad float64 // kg; <=0 falls back to the simulator default
}

// NewService wires the repository layer and the shared history buffer into
// concrete services. The simulator doubles as the telemetry source.
func NewService(repos *repository.Repository, buf *history.Buffer, cfg Config) *Service {
	sim := NewSimulatorService(repos.EventRepo, cfg.SafeWorkingLoad)
	return &Service{
		Telemetry:     sim,
		History:       NewHistoryService(buf),
		EventLog:      NewEventLogService(repos.EventRepo),
		Control:       NewControlService(sim, repos.EventRepo),
		Simulator:     sim,
		Authorization: NewAuthService(repos.Auth),
	}
}
