package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pthm-cable/meadow/telemetry"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs", "meadow.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func samples(from, to int) []telemetry.Sample {
	var out []telemetry.Sample
	for tick := from; tick <= to; tick++ {
		out = append(out, telemetry.Sample{Tick: tick, Predators: 3, Prey: 20 - tick, Plants: 40 + tick})
	}
	return out
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestNilStore(t *testing.T) {
	var s *Store
	if err := s.Close(); err != nil {
		t.Errorf("Close on nil store = %v", err)
	}
	if _, err := s.Runs(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Runs on nil store = %v, want ErrNotConfigured", err)
	}
}

func TestSamplesRoundTrip(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()

	id, err := s.BeginRun(ctx, 42, "world:\n  width: 800\n")
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}
	want := samples(1, 10)
	if err := s.AppendSamples(ctx, id, want); err != nil {
		t.Fatalf("append samples: %v", err)
	}

	got, err := s.Samples(ctx, id, 0)
	if err != nil {
		t.Fatalf("samples: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("samples = %+v, want %+v", got, want)
	}

	got, err = s.Samples(ctx, id, 7)
	if err != nil {
		t.Fatalf("samples since: %v", err)
	}
	if !reflect.DeepEqual(got, want[7:]) {
		t.Errorf("samples since 7 = %+v, want %+v", got, want[7:])
	}

	runs, err := s.Runs(ctx)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != id || runs[0].Seed != 42 || runs[0].Samples != 10 {
		t.Errorf("runs = %+v", runs)
	}
	if runs[0].StartedAt.IsZero() {
		t.Error("run start time not recorded")
	}
}

func TestRecorderStartsRunOnReset(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	rec := NewRecorder(s, 7, "", 4)

	for _, smp := range samples(1, 6) {
		if err := rec.Observe(ctx, smp); err != nil {
			t.Fatalf("observe: %v", err)
		}
	}
	first := rec.RunID()
	bm := telemetry.Bookmark{Type: telemetry.BookmarkPreyCrash, Tick: 6, Description: "prey fell"}
	if err := rec.Bookmark(ctx, bm); err != nil {
		t.Fatalf("bookmark: %v", err)
	}

	// Ticks restart after a reset.
	for _, smp := range samples(1, 3) {
		if err := rec.Observe(ctx, smp); err != nil {
			t.Fatalf("observe: %v", err)
		}
	}
	if err := rec.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	second := rec.RunID()
	if second == first {
		t.Fatal("reset did not start a new run")
	}

	got, _ := s.Samples(ctx, first, 0)
	if len(got) != 6 {
		t.Errorf("first run has %d samples, want 6", len(got))
	}
	got, _ = s.Samples(ctx, second, 0)
	if len(got) != 3 {
		t.Errorf("second run has %d samples, want 3", len(got))
	}
	bms, err := s.Bookmarks(ctx, first)
	if err != nil {
		t.Fatalf("bookmarks: %v", err)
	}
	if !reflect.DeepEqual(bms, []telemetry.Bookmark{bm}) {
		t.Errorf("bookmarks = %+v", bms)
	}

	runs, _ := s.Runs(ctx)
	if len(runs) != 2 || runs[0].ID != second {
		t.Errorf("runs = %+v, want newest first", runs)
	}
}
