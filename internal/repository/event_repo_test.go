package repository

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"cranewatch"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockEventRepo(t *testing.T) (*EventSQLite, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}

	repo := NewEventSQLite(db)
	cleanup := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	}
	return repo, mock, cleanup
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestEventAppend_FillsDefaultsAndNormalizesType(t *testing.T) {
	t.Parallel()

	repo, mock, cleanup := newMockEventRepo(t)
	defer cleanup()

	// Generated id and timestamp are unknown; match args positionally.
	mock.ExpectExec(regexp.QuoteMeta(insertEventSQL)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(),
			"OVERLOAD", "overload threshold crossed",
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(testCtx(t), cranewatch.SafetyEvent{
		// EventID empty -> repo generates
		// OccurredAt zero -> repo sets UTC now
		Type:        "  overload ",
		Description: "overload threshold crossed",
		Metadata:    map[string]any{"load_percent": 104.2},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestEventAppend_DBError(t *testing.T) {
	t.Parallel()

	repo, mock, cleanup := newMockEventRepo(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO safety_events").
		WillReturnError(errors.New("down"))

	err := repo.Append(testCtx(t), cranewatch.SafetyEvent{
		Type:        "cutoff",
		Description: "x",
	})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected db error, got %v", err)
	}
}

func TestEventList_NoFilters_And_MetadataParsing(t *testing.T) {
	t.Parallel()

	repo, mock, cleanup := newMockEventRepo(t)
	defer cleanup()

	now := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	js, _ := json.Marshal(map[string]any{"load_percent": 96.0})

	rows := sqlmock.NewRows([]string{"id", "occurred_at", "type", "message", "meta"}).
		AddRow("ev-1", now, "WARNING", "approaching limit", string(js)).
		AddRow("ev-2", now.Add(time.Minute), "BYPASS", "bypass enabled", nil).
		AddRow("ev-3", now.Add(2*time.Minute), "CUTOFF", "operations stopped", "{not json")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, occurred_at, type, message, meta FROM safety_events ORDER BY occurred_at ASC`)).
		WillReturnRows(rows)

	events, err := repo.List(testCtx(t), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	meta, ok := events[0].Metadata.(map[string]any)
	if !ok {
		t.Fatalf("expected parsed metadata map, got %T", events[0].Metadata)
	}
	if meta["load_percent"] != 96.0 {
		t.Errorf("metadata load_percent: want 96, got %v", meta["load_percent"])
	}
	if events[1].Metadata != nil {
		t.Errorf("expected nil metadata for NULL meta, got %v", events[1].Metadata)
	}
	// Malformed metadata is kept as the raw string.
	if raw, ok := events[2].Metadata.(string); !ok || raw != "{not json" {
		t.Errorf("expected raw string metadata, got %v", events[2].Metadata)
	}
}

func TestEventList_WithFilters(t *testing.T) {
	t.Parallel()

	repo, mock, cleanup := newMockEventRepo(t)
	defer cleanup()

	from := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "occurred_at", "type", "message", "meta"}).
		AddRow("ev-9", from.Add(time.Hour), "OVERLOAD", "overload", nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, occurred_at, type, message, meta FROM safety_events WHERE occurred_at >= ? AND occurred_at <= ? AND type = ? ORDER BY occurred_at ASC`)).
		WithArgs(from, to, "OVERLOAD").
		WillReturnRows(rows)

	events, err := repo.List(testCtx(t), from, to, " overload ")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 1 || events[0].EventID != "ev-9" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestEventList_QueryError(t *testing.T) {
	t.Parallel()

	repo, mock, cleanup := newMockEventRepo(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, occurred_at, type, message, meta FROM safety_events").
		WillReturnError(errors.New("query failed"))

	if _, err := repo.List(testCtx(t), time.Time{}, time.Time{}, ""); err == nil {
		t.Fatalf("expected query error, got nil")
	}
}
