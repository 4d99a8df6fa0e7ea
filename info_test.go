package main

import (
	"testing"
	"time"

	"osucodec/dotosu"
)

func TestSummarize(t *testing.T) {
	b, err := dotosu.DecodeFile("dotosu/testdata/full.osu")
	if err != nil {
		t.Fatal(err)
	}
	s := summarize(b)
	if s.Title != "Someone - Test Song [Hard] by mapper" || s.Ruleset != "osu" || s.FormatVersion != 14 {
		t.Errorf("summary = %+v", s)
	}
	counts := map[dotosu.ObjectKind]int{
		dotosu.KindCircle: 1, dotosu.KindSlider: 3, dotosu.KindSpinner: 1, dotosu.KindHold: 1,
	}
	for k, n := range counts {
		if s.Counts[k] != n {
			t.Errorf("%s count = %d, want %d", k, s.Counts[k], n)
		}
	}
	if s.MinBPM != 120 || s.MaxBPM != 150 {
		t.Errorf("bpm = %v-%v", s.MinBPM, s.MaxBPM)
	}
	// last object is the two-slide slider at 4500 running at 0.75x velocity
	if s.Total < 5700*time.Millisecond || s.Total > 5750*time.Millisecond {
		t.Errorf("total = %v", s.Total)
	}
	if d := s.Total - s.Drain - 2*time.Second; d < -time.Millisecond || d > time.Millisecond {
		t.Errorf("drain = %v, total = %v", s.Drain, s.Total)
	}
	if s.LongSliders < 1 {
		t.Errorf("long sliders = %d", s.LongSliders)
	}

	rows := s.rows()
	if rows[4][1] != "120-150" {
		t.Errorf("bpm row = %v", rows[4])
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := summarize(dotosu.NewBeatmap())
	if s.Total != 0 || s.Drain != 0 || s.MinBPM != 0 {
		t.Errorf("empty chart summary = %+v", s)
	}
	if rulesetName(7) != "unknown (7)" || rulesetName(3) != "mania" {
		t.Error("ruleset names")
	}
}

func TestFmtClock(t *testing.T) {
	if got := fmtClock(125 * time.Second); got != "2:05" {
		t.Errorf("got %s", got)
	}
}
