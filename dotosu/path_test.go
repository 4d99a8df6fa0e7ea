package dotosu

import (
	"strings"
	"testing"
)

func sliderFrom(t *testing.T, path string) Slider {
	t.Helper()
	b := decodeString(t, "osu file format v14\n[HitObjects]\n0,0,100,2,0,"+path+",1,100\n")
	return b.HitObjects[0].(Slider)
}

func anchor(x, y float64, typ PathType) PathControlPoint {
	return PathControlPoint{Position: Vec2{x, y}, Type: typ}
}

func TestParseSliderPath(t *testing.T) {
	tests := []struct {
		path string
		want []PathControlPoint
	}{
		{"L|10:0", []PathControlPoint{anchor(0, 0, PathLinear), anchor(10, 0, PathNone)}},
		// the point after a letter is shared between the two segments
		{"B|1:1|L|2:2|3:3", []PathControlPoint{
			anchor(0, 0, PathBezier), anchor(1, 1, PathNone), anchor(2, 2, PathLinear), anchor(3, 3, PathNone)}},
		// a repeated point inside a segment is an implicit boundary
		{"B|1:1|2:2|2:2|3:3", []PathControlPoint{
			anchor(0, 0, PathBezier), anchor(1, 1, PathNone), anchor(2, 2, PathBezier), anchor(3, 3, PathNone)}},
		// a repeat of the segment's opening anchor is kept
		{"B|0:0|5:5", []PathControlPoint{
			anchor(0, 0, PathBezier), anchor(0, 0, PathNone), anchor(5, 5, PathNone)}},
		// so is a repeat that ends the segment
		{"B|1:1|1:1|B|1:1|2:2", []PathControlPoint{
			anchor(0, 0, PathBezier), anchor(1, 1, PathNone), anchor(1, 1, PathNone),
			anchor(1, 1, PathBezier), anchor(2, 2, PathNone)}},
		{"P|10:10|20:0", []PathControlPoint{
			anchor(0, 0, PathPerfect), anchor(10, 10, PathNone), anchor(20, 0, PathNone)}},
		{"P|10:10|20:20", []PathControlPoint{
			anchor(0, 0, PathLinear), anchor(10, 10, PathNone), anchor(20, 20, PathNone)}},
		{"P|10:10", []PathControlPoint{anchor(0, 0, PathBezier), anchor(10, 10, PathNone)}},
		{"P|10:10|20:0|30:10", []PathControlPoint{
			anchor(0, 0, PathBezier), anchor(10, 10, PathNone), anchor(20, 0, PathNone), anchor(30, 10, PathNone)}},
		// a perfect segment counts its shared end point
		{"P|10:10|L|20:0|30:0", []PathControlPoint{
			anchor(0, 0, PathPerfect), anchor(10, 10, PathNone), anchor(20, 0, PathLinear), anchor(30, 0, PathNone)}},
		{"X|4:4", []PathControlPoint{anchor(0, 0, PathCatmull), anchor(4, 4, PathNone)}},
		{"L", []PathControlPoint{anchor(0, 0, PathLinear)}},
		// letters directly after letters open segments without points
		{"B|L|C|1:1", []PathControlPoint{anchor(0, 0, PathBezier), anchor(1, 1, PathCatmull)}},
	}
	for _, tt := range tests {
		got := sliderFrom(t, tt.path).Path.ControlPoints
		if len(got) != len(tt.want) {
			t.Errorf("%s: got %d anchors %+v, want %d", tt.path, len(got), got, len(tt.want))
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: anchor %d = %+v, want %+v", tt.path, i, got[i], tt.want[i])
			}
		}
	}
}

func TestParseSliderPathDegree(t *testing.T) {
	cps := sliderFrom(t, "B3|10:0|20:10|20:10|30:0").Path.ControlPoints
	if len(cps) != 4 {
		t.Fatalf("got %+v", cps)
	}
	if cps[0].Degree != 3 || cps[2].Type != PathBezier || cps[2].Degree != 3 {
		t.Errorf("degree not carried: %+v", cps)
	}
	var sb strings.Builder
	writePath(&sb, Vec2{}, cps)
	if sb.String() != "B3|10:0|20:10|20:10|30:0" {
		t.Errorf("encoded %q", sb.String())
	}
}

func TestParseSliderPathRelativeToHead(t *testing.T) {
	b := decodeString(t, "osu file format v14\n[HitObjects]\n100,50,100,2,0,B|150:50|200:100,1,100\n")
	cps := b.HitObjects[0].(Slider).Path.ControlPoints
	if cps[0].Position != (Vec2{}) || cps[1].Position != (Vec2{50, 0}) || cps[2].Position != (Vec2{100, 50}) {
		t.Errorf("anchors = %+v", cps)
	}
}

func TestWritePath(t *testing.T) {
	tests := []struct {
		name string
		head Vec2
		cps  []PathControlPoint
		want string
	}{
		{"single segment", Vec2{10, 10}, []PathControlPoint{anchor(0, 0, PathBezier), anchor(5, 5, PathNone)}, "B|15:15"},
		{"implicit boundary", Vec2{}, []PathControlPoint{
			anchor(0, 0, PathBezier), anchor(1, 1, PathNone), anchor(2, 2, PathBezier), anchor(3, 3, PathNone)},
			"B|1:1|2:2|2:2|3:3"},
		{"type change", Vec2{}, []PathControlPoint{
			anchor(0, 0, PathBezier), anchor(1, 1, PathNone), anchor(2, 2, PathLinear), anchor(3, 3, PathNone)},
			"B|1:1|L|2:2|3:3"},
		{"perfect is always explicit", Vec2{}, []PathControlPoint{
			anchor(0, 0, PathPerfect), anchor(5, 5, PathNone), anchor(10, 0, PathPerfect), anchor(15, 5, PathNone), anchor(20, 0, PathNone)},
			"P|5:5|P|10:0|15:5|20:0"},
		{"last anchor typed", Vec2{}, []PathControlPoint{
			anchor(0, 0, PathBezier), anchor(1, 1, PathNone), anchor(2, 2, PathBezier)},
			"B|1:1|B|2:2"},
		{"single anchor", Vec2{7, 8}, []PathControlPoint{anchor(0, 0, PathLinear)}, "L"},
		// a repeated point may not end its segment, so a typed anchor
		// followed by another typed anchor is written with its letter
		{"typed before letter", Vec2{2, 1}, []PathControlPoint{
			anchor(0, 0, PathCatmull), anchor(-2, -1, PathCatmull), anchor(0, -1, PathLinear)},
			"C|C|0:0|L|2:0"},
		{"typed before implicit", Vec2{}, []PathControlPoint{
			anchor(0, 0, PathBezier), anchor(1, 1, PathNone), anchor(2, 2, PathBezier), anchor(3, 3, PathBezier), anchor(4, 4, PathNone)},
			"B|1:1|B|2:2|3:3|3:3|4:4"},
	}
	for _, tt := range tests {
		var sb strings.Builder
		writePath(&sb, tt.head, tt.cps)
		if sb.String() != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, sb.String(), tt.want)
		}
	}
}

// Anchors whose positions only differ below the rounding step must still
// come back as distinct anchors with their segment boundaries intact.
func TestBoundaryDuplicatePreserved(t *testing.T) {
	tests := []struct {
		name string
		cps  []PathControlPoint
		want string
	}{
		{"boundary after the collision", []PathControlPoint{
			anchor(0, 0, PathBezier), anchor(0.5, 0.5, PathNone), anchor(0.51, 0.51, PathNone),
			anchor(1, 1, PathBezier), anchor(2, 2, PathNone)},
			"B|1:1|1:1|B|1:1|2:2"},
		{"boundary on the collision", []PathControlPoint{
			anchor(0, 0, PathBezier), anchor(0.5, 0.5, PathNone), anchor(0.51, 0.51, PathBezier),
			anchor(1, 1, PathNone), anchor(2, 2, PathNone)},
			"B|1:1|B|1:1|1:1|2:2"},
	}
	for _, tt := range tests {
		b := NewBeatmap()
		b.HitObjects = []HitObject{Slider{
			BaseHO: BaseHO{Time: 100, Type: TypeSlider},
			Path:   SliderPath{ControlPoints: tt.cps, Length: 3},
			Slides: 1,
		}}
		var sb strings.Builder
		if err := Encode(&sb, b, nil); err != nil {
			t.Fatalf("%s: encode: %v", tt.name, err)
		}
		if !strings.Contains(sb.String(), ","+tt.want+",") {
			t.Errorf("%s: path not written as %q:\n%s", tt.name, tt.want, sb.String())
		}

		back, err := Decode(strings.NewReader(sb.String()))
		if err != nil {
			t.Fatalf("%s: decode: %v", tt.name, err)
		}
		got := back.HitObjects[0].(Slider).Path.ControlPoints
		if len(got) != 5 {
			t.Fatalf("%s: got %d anchors: %+v", tt.name, len(got), got)
		}
		for i, cp := range got {
			if cp.SegmentStart() != tt.cps[i].SegmentStart() {
				t.Errorf("%s: anchor %d segment start = %v", tt.name, i, cp.SegmentStart())
			}
		}
	}
}

func TestSegments(t *testing.T) {
	p := SliderPath{ControlPoints: []PathControlPoint{
		anchor(0, 0, PathBezier), anchor(1, 1, PathNone), anchor(2, 2, PathLinear), anchor(3, 3, PathNone),
	}}
	segs := p.Segments()
	if len(segs) != 2 {
		t.Fatalf("got %d segments", len(segs))
	}
	if segs[0].Type != PathBezier || len(segs[0].Points) != 3 || segs[0].Points[2] != (Vec2{2, 2}) {
		t.Errorf("first segment = %+v", segs[0])
	}
	if segs[1].Type != PathLinear || len(segs[1].Points) != 2 || segs[1].Points[0] != (Vec2{2, 2}) {
		t.Errorf("second segment = %+v", segs[1])
	}
}

func TestApproximate(t *testing.T) {
	line := SliderPath{ControlPoints: []PathControlPoint{
		anchor(0, 0, PathLinear), anchor(50, 0, PathNone), anchor(100, 0, PathNone),
	}}
	poly := line.Approximate()
	if len(poly) != 2 || PolylineLength(poly) != 100 {
		t.Errorf("linear polyline = %v", poly)
	}
	if p := PositionAt(poly, 25); p != (Vec2{25, 0}) {
		t.Errorf("position at 25 = %v", p)
	}
	if p := PositionAt(poly, 120); p != (Vec2{120, 0}) {
		t.Errorf("position past end = %v", p)
	}

	// a half circle of radius 50
	arc := SliderPath{ControlPoints: []PathControlPoint{
		anchor(0, 0, PathPerfect), anchor(50, 50, PathNone), anchor(100, 0, PathNone),
	}}
	if l := arc.CalculatedLength(); l < 156 || l > 157.2 {
		t.Errorf("arc length = %v", l)
	}

	bez := SliderPath{ControlPoints: []PathControlPoint{
		anchor(0, 0, PathBezier), anchor(50, 100, PathNone), anchor(100, 0, PathNone),
	}}
	poly = bez.Approximate()
	if poly[0] != (Vec2{}) || poly[len(poly)-1] != (Vec2{100, 0}) {
		t.Errorf("bezier endpoints = %v .. %v", poly[0], poly[len(poly)-1])
	}
}

func TestRoundingBoundaries(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.5, "1"},
		{-0.5, "-1"},
		{1.49, "1"},
		{1.5, "2"},
		{-1.49, "-1"},
		{-0.4, "0"},
	}
	for _, tt := range tests {
		if got := roundCoord(tt.in); got != tt.want {
			t.Errorf("roundCoord(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}

	line := encodeHitObject(Circle{BaseHO{PosXY: Vec2{0.5, -0.5}, Time: 10, Type: TypeCircle}})
	if !strings.HasPrefix(line, "1,-1,10,1,0,") {
		t.Errorf("circle line = %q", line)
	}
}
