package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"osucodec/dotosu"
)

func TestChartDump(t *testing.T) {
	b, err := dotosu.DecodeFile("dotosu/testdata/full.osu")
	if err != nil {
		t.Fatal(err)
	}
	d := newChartDump("full.osu", b)
	if d.Ruleset != "osu" || len(d.HitObjects) != 6 || !d.Colours.ComboDefined || len(d.Colours.Combo) != 2 {
		t.Errorf("dump = %+v", d)
	}
	slider := d.HitObjects[1]
	if slider.Kind != "slider" || slider.Slides != 1 || len(slider.Anchors) != 3 || slider.Anchors[0].Type != "bezier" {
		t.Errorf("slider dump = %+v", slider)
	}
	if slider.Anchors[1].Type != "" {
		t.Errorf("untyped anchor dumped with type %q", slider.Anchors[1].Type)
	}
	if d.HitObjects[2].EndTime != 3000 {
		t.Errorf("spinner end = %v", d.HitObjects[2].EndTime)
	}

	var js bytes.Buffer
	if err := writeDump(&js, "json", d); err != nil {
		t.Fatalf("json: %v", err)
	}
	var back chartDump
	if err := json.Unmarshal(js.Bytes(), &back); err != nil {
		t.Fatalf("json does not parse: %v", err)
	}
	if back.Metadata.Title != "Test Song" || len(back.ControlPoints) != len(d.ControlPoints) {
		t.Errorf("json round trip = %+v", back.Metadata)
	}

	var y bytes.Buffer
	if err := writeDump(&y, "yaml", d); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !strings.Contains(y.String(), "source: full.osu\n") || !strings.Contains(y.String(), "kind: spinner") {
		t.Errorf("yaml output:\n%s", y.String())
	}
}
