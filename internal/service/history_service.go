package service

import (
	"time"

	"cranewatch"
	"cranewatch/internal/history"
)

// HistoryService adapts the shared ring buffer to the History interface.
type HistoryService struct {
	buf *history.Buffer
}

func NewHistoryService(buf *history.Buffer) *HistoryService {
	return &HistoryService{buf: buf}
}

func (s *HistoryService) Append(snap cranewatch.TelemetrySnapshot) {
	s.buf.Append(snap)
}

func (s *HistoryService) Latest() (cranewatch.TelemetrySnapshot, bool) {
	return s.buf.Latest()
}

func (s *HistoryService) Since(t time.Time) []cranewatch.TelemetrySnapshot {
	return s.buf.Since(t)
}
