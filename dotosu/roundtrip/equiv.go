// Package roundtrip decides whether two decoded beatmaps describe the same
// chart, which is what decode(encode(decode(f))) must preserve.
package roundtrip

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"osucodec/dotosu"
)

// velocityTolerance is the relative tolerance for slider velocities, which
// pass through 100/-beatLength on every trip.
const velocityTolerance = 1e-9

// Equivalent reports whether a and b are equal under Diff.
func Equivalent(a, b *dotosu.Beatmap) bool {
	return len(Diff(a, b)) == 0
}

// Normalize returns a copy of b with every playfield coordinate rounded the
// way the encoder writes it. Anchors stay relative to the rounded head.
func Normalize(b *dotosu.Beatmap) *dotosu.Beatmap {
	if b == nil {
		return nil
	}
	out := *b
	out.HitObjects = make([]dotosu.HitObject, len(b.HitObjects))
	for i, ho := range b.HitObjects {
		out.HitObjects[i] = normalizeObject(ho)
	}
	return &out
}

func normalizeObject(ho dotosu.HitObject) dotosu.HitObject {
	switch o := ho.(type) {
	case dotosu.Circle:
		o.PosXY = o.PosXY.Rounded()
		return o
	case dotosu.Spinner:
		o.PosXY = o.PosXY.Rounded()
		return o
	case dotosu.Hold:
		o.PosXY = o.PosXY.Rounded()
		return o
	case dotosu.Slider:
		head := o.PosXY
		o.PosXY = head.Rounded()
		cps := make([]dotosu.PathControlPoint, len(o.Path.ControlPoints))
		for i, cp := range o.Path.ControlPoints {
			cp.Position = head.Add(cp.Position).Rounded().Sub(o.PosXY)
			cps[i] = cp
		}
		o.Path.ControlPoints = cps
		return o
	}
	return ho
}

// Diff lists every difference between a and b after normalisation, one
// human-readable line each. The declared format version and the truncation
// flag are not part of the chart and are ignored.
func Diff(a, b *dotosu.Beatmap) []string {
	if a == nil || b == nil {
		if a == b {
			return nil
		}
		return []string{"one beatmap is nil"}
	}
	a, b = Normalize(a), Normalize(b)
	d := &differ{}
	d.value("general", a.General, b.General)
	d.value("editor", a.Editor, b.Editor)
	d.value("metadata", a.Metadata, b.Metadata)
	d.value("difficulty", a.Difficulty, b.Difficulty)
	d.value("events", a.Events, b.Events)
	d.controlPoints(&a.ControlPoints, &b.ControlPoints)
	d.colours(&a.Colours, &b.Colours)
	d.hitObjects(a.HitObjects, b.HitObjects)
	d.value("passthrough sections", a.Passthrough, b.Passthrough)
	d.value("extra keys", sectionLines(a.ExtraKeys), sectionLines(b.ExtraKeys))
	return d.out
}

type differ struct {
	out []string
}

func (d *differ) add(format string, a ...any) {
	d.out = append(d.out, fmt.Sprintf(format, a...))
}

func (d *differ) value(what string, a, b any) {
	if !reflect.DeepEqual(a, b) {
		d.add("%s: %+v != %+v", what, a, b)
	}
}

// sectionLines keys extra lines by section; the encoder regroups them into
// section order.
func sectionLines(rs []dotosu.RawSection) map[string][]string {
	m := make(map[string][]string, len(rs))
	for _, r := range rs {
		m[r.Name] = append(m[r.Name], r.Lines...)
	}
	return m
}

// ---------- control points ----------

type pointKey struct {
	time float64
	kind string
}

// pointSet flattens the timeline into (time, kind) -> value. Groups hold at
// most one point per kind, so the key is unique.
func pointSet(c *dotosu.ControlPointInfo) map[pointKey]any {
	set := make(map[pointKey]any)
	for _, g := range c.Groups {
		if g.Timing != nil {
			set[pointKey{g.Time, "timing"}] = *g.Timing
		}
		if g.Difficulty != nil {
			set[pointKey{g.Time, "difficulty"}] = *g.Difficulty
		}
		if g.Sample != nil {
			set[pointKey{g.Time, "sample"}] = *g.Sample
		}
		if g.Effect != nil {
			set[pointKey{g.Time, "effect"}] = *g.Effect
		}
	}
	return set
}

func (d *differ) controlPoints(a, b *dotosu.ControlPointInfo) {
	sa, sb := pointSet(a), pointSet(b)
	keys := make([]pointKey, 0, len(sa)+len(sb))
	for k := range sa {
		keys = append(keys, k)
	}
	for k := range sb {
		if _, ok := sa[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].time != keys[j].time {
			return keys[i].time < keys[j].time
		}
		return keys[i].kind < keys[j].kind
	})
	for _, k := range keys {
		va, okA := sa[k]
		vb, okB := sb[k]
		switch {
		case !okA:
			d.add("control point %s at %v only in second: %+v", k.kind, k.time, vb)
		case !okB:
			d.add("control point %s at %v only in first: %+v", k.kind, k.time, va)
		case !pointEqual(va, vb):
			d.add("control point %s at %v: %+v != %+v", k.kind, k.time, va, vb)
		}
	}
}

func pointEqual(a, b any) bool {
	da, ok := a.(dotosu.DifficultyPoint)
	if !ok {
		return a == b
	}
	db := b.(dotosu.DifficultyPoint)
	return da.GenerateTicks == db.GenerateTicks && closeEnough(da.SliderVelocity, db.SliderVelocity)
}

func closeEnough(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= velocityTolerance*math.Max(math.Abs(a), math.Abs(b))
}

// ---------- colours ----------

func (d *differ) colours(a, b *dotosu.Colours) {
	ca, okA := a.ComboColours()
	cb, okB := b.ComboColours()
	switch {
	case okA != okB:
		d.add("combo colours defined: %v != %v", okA, okB)
	case len(ca) != len(cb):
		d.add("combo colour count: %d != %d", len(ca), len(cb))
	default:
		for i := range ca {
			if ca[i] != cb[i] {
				d.add("combo colour %d: %s != %s", i+1, ca[i], cb[i])
			}
		}
	}
	d.value("custom colours", a.Custom, b.Custom)
}

// ---------- hit objects ----------

func (d *differ) hitObjects(a, b []dotosu.HitObject) {
	if len(a) != len(b) {
		d.add("hit object count: %d != %d", len(a), len(b))
	}
	for i := 0; i < min(len(a), len(b)); i++ {
		for _, msg := range objectDiff(a[i], b[i]) {
			d.add("hit object %d (%s at %v): %s", i, a[i].Kind(), a[i].StartTime(), msg)
		}
	}
}

func objectDiff(a, b dotosu.HitObject) []string {
	var out []string
	check := func(field string, va, vb any) {
		if !reflect.DeepEqual(va, vb) {
			out = append(out, fmt.Sprintf("%s: %v != %v", field, va, vb))
		}
	}
	check("kind", a.Kind(), b.Kind())
	check("position", a.Pos(), b.Pos())
	check("time", a.StartTime(), b.StartTime())
	check("new combo", a.NewCombo(), b.NewCombo())
	check("combo offset", a.Flags().ComboOffset(), b.Flags().ComboOffset())
	check("hit sound", a.HitSound(), b.HitSound())
	check("sample", a.Sample(), b.Sample())
	if len(out) > 0 && a.Kind() != b.Kind() {
		return out
	}

	switch oa := a.(type) {
	case dotosu.Spinner:
		check("end time", oa.EndTime, b.(dotosu.Spinner).EndTime)
	case dotosu.Hold:
		check("end time", oa.EndTime, b.(dotosu.Hold).EndTime)
	case dotosu.Slider:
		ob := b.(dotosu.Slider)
		check("slides", oa.Slides, ob.Slides)
		check("length", oa.Path.Length, ob.Path.Length)
		check("edge sounds", oa.EdgeSounds, ob.EdgeSounds)
		check("edge sets", oa.EdgeAdditions, ob.EdgeAdditions)
		ca, cb := oa.Path.ControlPoints, ob.Path.ControlPoints
		if len(ca) != len(cb) {
			out = append(out, fmt.Sprintf("anchor count: %d != %d", len(ca), len(cb)))
			break
		}
		for i := range ca {
			if ca[i] != cb[i] {
				out = append(out, fmt.Sprintf("anchor %d: %s%v != %s%v",
					i, ca[i].Type.Letter(), ca[i].Position, cb[i].Type.Letter(), cb[i].Position))
			}
		}
	}
	return out
}
