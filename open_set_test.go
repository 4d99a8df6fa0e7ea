package main

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeOsz(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

const minimalChart = "osu file format v14\n[HitObjects]\n256,192,1000,1,0\n"

func TestOpenSources(t *testing.T) {
	dir := t.TempDir()
	writeOsz(t, filepath.Join(dir, "set.osz"), map[string]string{
		"b.osu":     minimalChart,
		"a.osu":     minimalChart,
		"audio.mp3": "not a chart",
		"sub/c.osu": minimalChart,
		"notes.txt": "",
		"EXTRA.OSU": minimalChart,
	})
	if err := os.WriteFile(filepath.Join(dir, "plain.osu"), []byte(minimalChart), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "readme.md"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	srcs, err := OpenSources([]string{dir})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	var names []string
	for _, s := range srcs {
		names = append(names, strings.TrimPrefix(s.Name, dir+string(filepath.Separator)))
	}
	want := []string{"plain.osu", "set.osz/EXTRA.OSU", "set.osz/a.osu", "set.osz/b.osu"}
	if strings.Join(names, " ") != strings.Join(want, " ") {
		t.Errorf("sources = %v, want %v", names, want)
	}
	for _, s := range srcs {
		data, err := s.Read()
		if err != nil || string(data) != minimalChart {
			t.Errorf("%s: read %q %v", s.Name, data, err)
		}
	}
}

func TestOpenSourcesRejects(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "chart.txt")
	os.WriteFile(txt, nil, 0o644)
	if _, err := OpenSources([]string{txt}); err == nil {
		t.Error("non-chart file accepted")
	}
	if _, err := OpenSources([]string{filepath.Join(dir, "missing.osu")}); err == nil {
		t.Error("missing file accepted")
	}
	broken := filepath.Join(dir, "broken.osz")
	os.WriteFile(broken, []byte("PK not really"), 0o644)
	if _, err := OpenSources([]string{broken}); err == nil {
		t.Error("broken archive accepted")
	}
	empty := filepath.Join(dir, "empty.osz")
	writeOsz(t, empty, map[string]string{"bg.jpg": ""})
	if _, err := OpenSources([]string{empty}); err == nil {
		t.Error("archive without charts accepted")
	}
}
