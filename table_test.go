package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	err := formatTable(&buf, []string{"NAME", "N"}, [][]string{
		{"short", "1"},
		{"日本語", "22"},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "NAME    N\nshort   1\n日本語  22\n"
	if buf.String() != want {
		t.Errorf("got:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestFormatTableWithoutHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := formatTable(&buf, nil, [][]string{{"a", "b"}}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "a  b\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestFormatTableTruncates(t *testing.T) {
	var buf bytes.Buffer
	long := strings.Repeat("x", 100)
	if err := formatTable(&buf, nil, [][]string{{long, "end"}}); err != nil {
		t.Fatal(err)
	}
	first := strings.SplitN(buf.String(), "  ", 2)[0]
	if !strings.HasSuffix(first, "…") || len([]rune(first)) != maxCellWidth {
		t.Errorf("cell not truncated: %q", first)
	}
}
