package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	run := s.NewRunID()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	first, err := s.Record(ctx, Check{RunID: run, Path: "a.osu", SHA256: "aa", FormatVersion: 14, OK: true,
		Duration: 12 * time.Millisecond, CheckedAt: base})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if first.ID == "" {
		t.Error("id not assigned")
	}
	if _, err := s.Record(ctx, Check{RunID: run, Path: "b.osu", SHA256: "bb", DiffCount: 3,
		Error: "metadata: Title", CheckedAt: base.Add(time.Second)}); err != nil {
		t.Fatalf("record: %v", err)
	}

	checks, err := s.List(ctx, "", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(checks) != 2 {
		t.Fatalf("got %d checks", len(checks))
	}
	if checks[0].Path != "b.osu" || checks[0].OK || checks[0].DiffCount != 3 {
		t.Errorf("newest = %+v", checks[0])
	}
	if checks[1].Duration != 12*time.Millisecond || !checks[1].CheckedAt.Equal(base) || checks[1].FormatVersion != 14 {
		t.Errorf("oldest = %+v", checks[1])
	}

	limited, err := s.List(ctx, "", 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("limit ignored: %d %v", len(limited), err)
	}
}

func TestRecordRequiresRun(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Record(context.Background(), Check{Path: "x.osu"}); err == nil {
		t.Error("check without run id accepted")
	}
}

func TestRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	older := s.NewRunID()
	time.Sleep(2 * time.Millisecond)
	newer := s.NewRunID()
	if newer <= older {
		t.Fatalf("run ids out of order: %s %s", older, newer)
	}

	for _, c := range []Check{
		{RunID: older, Path: "1.osu", OK: true},
		{RunID: older, Path: "2.osu", OK: false},
		{RunID: newer, Path: "3.osu", OK: true},
	} {
		if _, err := s.Record(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.Runs(ctx, 10)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != newer {
		t.Fatalf("runs = %+v", runs)
	}
	if runs[1].Total != 2 || runs[1].Failed != 1 {
		t.Errorf("older run = %+v", runs[1])
	}

	only, err := s.List(ctx, older, 10)
	if err != nil || len(only) != 2 {
		t.Errorf("filtered list = %+v %v", only, err)
	}
}

func TestLastBySHA(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, ok, err := s.LastBySHA(ctx, "none"); ok || err != nil {
		t.Errorf("empty store: %v %v", ok, err)
	}
	run := s.NewRunID()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Record(ctx, Check{RunID: run, Path: "old.osu", SHA256: "h", OK: false, CheckedAt: base})
	s.Record(ctx, Check{RunID: run, Path: "new.osu", SHA256: "h", OK: true, CheckedAt: base.Add(time.Hour)})

	c, ok, err := s.LastBySHA(ctx, "h")
	if err != nil || !ok {
		t.Fatalf("lookup: %v %v", ok, err)
	}
	if c.Path != "new.osu" || !c.OK {
		t.Errorf("got %+v", c)
	}
}
