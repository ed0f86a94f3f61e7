package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"cranewatch"
	"cranewatch/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
	parseCalls         int
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.parseCalls++
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockTelemetry struct {
	mu    sync.Mutex
	snap  cranewatch.TelemetrySnapshot
	err   error
	calls int
}

func (m *mockTelemetry) Snapshot(ctx context.Context) (cranewatch.TelemetrySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.snap, m.err
}

func (m *mockTelemetry) snapshotCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockHistory struct {
	mu        sync.Mutex
	appended  []cranewatch.TelemetrySnapshot
	latest    cranewatch.TelemetrySnapshot
	hasLatest bool
	sinceResp []cranewatch.TelemetrySnapshot
	lastSince time.Time
}

func (m *mockHistory) Append(s cranewatch.TelemetrySnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appended = append(m.appended, s)
}

func (m *mockHistory) Latest() (cranewatch.TelemetrySnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest, m.hasLatest
}

func (m *mockHistory) Since(t time.Time) []cranewatch.TelemetrySnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSince = t
	return m.sinceResp
}

func (m *mockHistory) appendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.appended)
}

type mockEventLog struct {
	resp     []cranewatch.SafetyEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]cranewatch.SafetyEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

type mockControl struct {
	bypassErr   error
	resetErr    error
	lastEnabled bool
	bypassCalls int
	resetCalls  int
}

func (m *mockControl) SetBypass(ctx context.Context, enabled bool) error {
	m.bypassCalls++
	m.lastEnabled = enabled
	return m.bypassErr
}

func (m *mockControl) ResetCounters(ctx context.Context) error {
	m.resetCalls++
	return m.resetErr
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
