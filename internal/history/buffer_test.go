package history

import (
	"sync"
	"testing"
	"time"

	"cranewatch"
)

func snapAt(ts time.Time, load float64) cranewatch.TelemetrySnapshot {
	return cranewatch.TelemetrySnapshot{Load: load, SWL: 100, Timestamp: ts}
}

func TestBuffer_LatestEmpty(t *testing.T) {
	b := New(4)
	if _, ok := b.Latest(); ok {
		t.Fatalf("expected no latest on empty buffer")
	}
	if got := b.Len(); got != 0 {
		t.Fatalf("Len: want 0, got %d", got)
	}
}

func TestBuffer_AppendAndLatest(t *testing.T) {
	b := New(4)
	base := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		b.Append(snapAt(base.Add(time.Duration(i)*time.Second), float64(i)))
	}

	if got := b.Len(); got != 3 {
		t.Fatalf("Len: want 3, got %d", got)
	}
	latest, ok := b.Latest()
	if !ok {
		t.Fatalf("expected latest after appends")
	}
	if latest.Load != 2 {
		t.Fatalf("latest: want load 2, got %v", latest.Load)
	}
}

func TestBuffer_OverflowKeepsLastCapacityInOrder(t *testing.T) {
	const capacity = 5
	const appended = 13

	b := New(capacity)
	base := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < appended; i++ {
		b.Append(snapAt(base.Add(time.Duration(i)*time.Second), float64(i)))
	}

	if got := b.Len(); got != capacity {
		t.Fatalf("Len after overflow: want %d, got %d", capacity, got)
	}

	// Since(zero) returns everything, most-recent-first. The retained set
	// must be exactly the last `capacity` appends.
	got := b.Since(time.Time{})
	if len(got) != capacity {
		t.Fatalf("Since: want %d entries, got %d", capacity, len(got))
	}
	for i, s := range got {
		wantLoad := float64(appended - 1 - i)
		if s.Load != wantLoad {
			t.Fatalf("entry %d: want load %v, got %v", i, wantLoad, s.Load)
		}
	}
}

func TestBuffer_SinceFiltersByTimestamp(t *testing.T) {
	b := New(10)
	base := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		b.Append(snapAt(base.Add(time.Duration(i)*time.Second), float64(i)))
	}

	cut := base.Add(3 * time.Second)
	got := b.Since(cut)
	if len(got) != 3 {
		t.Fatalf("Since: want 3 entries, got %d", len(got))
	}
	// Most-recent-first: loads 5, 4, 3. The cut instant itself is inclusive.
	for i, wantLoad := range []float64{5, 4, 3} {
		if got[i].Load != wantLoad {
			t.Fatalf("entry %d: want load %v, got %v", i, wantLoad, got[i].Load)
		}
	}

	if got := b.Since(base.Add(time.Hour)); len(got) != 0 {
		t.Fatalf("Since far future: want 0 entries, got %d", len(got))
	}
}

func TestBuffer_SinceDoesNotMutate(t *testing.T) {
	b := New(4)
	base := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	b.Append(snapAt(base, 1))
	b.Append(snapAt(base.Add(time.Second), 2))

	_ = b.Since(time.Time{})
	_ = b.Since(time.Time{})

	if got := b.Len(); got != 2 {
		t.Fatalf("Len after reads: want 2, got %d", got)
	}
	latest, _ := b.Latest()
	if latest.Load != 2 {
		t.Fatalf("latest after reads: want load 2, got %v", latest.Load)
	}
}

func TestBuffer_DefaultCapacity(t *testing.T) {
	b := New(0)
	if b.capacity != DefaultCapacity {
		t.Fatalf("capacity: want %d, got %d", DefaultCapacity, b.capacity)
	}
}

// Concurrent appenders plus readers; run with -race to verify the locking.
func TestBuffer_ConcurrentAppendAndRead(t *testing.T) {
	const writers = 4
	const perWriter = 500

	b := New(100)
	base := time.Now().UTC()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				b.Append(snapAt(base.Add(time.Duration(i)*time.Millisecond), float64(i)))
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = b.Since(base)
			_, _ = b.Latest()
		}
	}()
	wg.Wait()

	if got := b.Len(); got != 100 {
		t.Fatalf("Len after concurrent appends: want 100, got %d", got)
	}
}
