package dotosu

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

const maxSlides = 9000

// parseHitObject decodes x,y,time,type,hitSound[,params...][,hitSample].
func (d *decoder) parseHitObject(line string) (HitObject, error) {
	parts := splitCSVPreserveTail(line, 11) // keep trailing parameters grouped
	if len(parts) < 5 {
		return nil, d.errorf("hit object needs at least 5 fields, got %q", line)
	}
	x, err := d.coordinate(parts[0])
	if err != nil {
		return nil, d.errorf("hit object x: %v", err)
	}
	y, err := d.coordinate(parts[1])
	if err != nil {
		return nil, d.errorf("hit object y: %v", err)
	}
	t, err := atof(parts[2])
	if err != nil {
		return nil, d.errorf("hit object time: %v", err)
	}
	t += d.offset
	flags, err := atoi(parts[3])
	if err != nil {
		return nil, d.errorf("hit object type: %v", err)
	}
	hs, err := atoi(parts[4])
	if err != nil {
		return nil, d.errorf("hit object hit sound: %v", err)
	}

	base := BaseHO{PosXY: Vec2{X: x, Y: y}, Time: t, Type: HitObjectTypeFlags(flags), Sound: HitSoundFlags(hs)}

	switch {
	case (base.Type & TypeHold) != 0:
		// mania hold: "endTime:sample"
		h := Hold{BaseHO: base, EndTime: t}
		if len(parts) >= 6 {
			end, samp, err := parseEndTimeAndSample(parts[5])
			if err != nil {
				return nil, d.errorf("hold: %v", err)
			}
			h.EndTime = math.Max(t, end+d.offset)
			h.SampleHS = samp
		}
		return h, nil

	case (base.Type & TypeSpinner) != 0:
		s := Spinner{BaseHO: base, EndTime: t}
		if len(parts) >= 6 && parts[5] != "" {
			end, err := atof(parts[5])
			if err != nil {
				return nil, d.errorf("spinner end time: %v", err)
			}
			s.EndTime = math.Max(t, end+d.offset)
		}
		if len(parts) >= 7 {
			if s.SampleHS, err = parseHitSample(parts[6]); err != nil {
				return nil, d.errorf("spinner: %v", err)
			}
		}
		return s, nil

	case (base.Type & TypeSlider) != 0:
		return d.parseSlider(base, parts)

	default:
		c := Circle{BaseHO: base}
		if len(parts) >= 6 {
			if c.SampleHS, err = parseHitSample(parts[5]); err != nil {
				return nil, d.errorf("circle: %v", err)
			}
		}
		return c, nil
	}
}

// params: path, slides, length, edgeSounds, edgeAdditions, hitSample
func (d *decoder) parseSlider(base BaseHO, parts []string) (HitObject, error) {
	if len(parts) < 6 || parts[5] == "" {
		return nil, d.errorf("slider has no path")
	}
	s := Slider{BaseHO: base, Slides: 1}
	cps, err := d.parseSliderPath(base.PosXY, parts[5])
	if err != nil {
		return nil, err
	}
	s.Path.ControlPoints = cps
	if len(parts) >= 7 && parts[6] != "" {
		if s.Slides, err = atoi(parts[6]); err != nil {
			return nil, d.errorf("slider slides: %v", err)
		}
		if s.Slides > maxSlides {
			return nil, d.errorf("slider repeat count %d is too high", s.Slides)
		}
	}
	if len(parts) >= 8 && parts[7] != "" {
		length, err := atof(parts[7])
		if err != nil {
			return nil, d.errorf("slider length: %v", err)
		}
		s.Path.Length = math.Max(0, length)
	}
	if len(parts) >= 9 && parts[8] != "" {
		for _, n := range strings.Split(parts[8], "|") {
			v, err := atoi(n)
			if err != nil {
				return nil, d.errorf("slider edge sounds: %v", err)
			}
			s.EdgeSounds = append(s.EdgeSounds, HitSoundFlags(v))
		}
	}
	if len(parts) >= 10 && parts[9] != "" {
		for _, p := range strings.Split(parts[9], "|") {
			ns, as, err := parseEdgeAddPair(p)
			if err != nil {
				return nil, d.errorf("slider edge sets: %v", err)
			}
			s.EdgeAdditions = append(s.EdgeAdditions, EdgeAdd{NormalSet: ns, AdditionSet: as})
		}
	}
	if len(parts) >= 11 {
		if s.SampleHS, err = parseHitSample(parts[10]); err != nil {
			return nil, d.errorf("slider: %v", err)
		}
	}
	return s, nil
}

// coordinate parses a playfield coordinate, truncating toward zero like the
// original client did.
func (d *decoder) coordinate(s string) (float64, error) {
	v, err := atof(s)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		d.b.Truncated = true
	}
	return math.Trunc(v), nil
}

// ---------- slider paths ----------

// parseSliderPath converts "B|x:y|x:y|L|x:y..." into a flat anchor list
// relative to the slider head.
//
// A letter token starts an explicit segment. The point after a letter is
// shared: it ends the previous segment and opens the next one. Inside an
// explicit segment, a point repeated back to back is an implicit segment
// boundary of the same type.
func (d *decoder) parseSliderPath(head Vec2, spec string) ([]PathControlPoint, error) {
	var tokens []string
	for _, t := range strings.Split(spec, "|") {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 || !isPathTypeToken(tokens[0]) {
		return nil, d.errorf("slider path %q does not start with a path type", spec)
	}

	var out []PathControlPoint
	start := 0
	for end := 1; end <= len(tokens); end++ {
		if end < len(tokens) && !isPathTypeToken(tokens[end]) {
			continue
		}
		var endPoint *Vec2
		if end < len(tokens)-1 && !isPathTypeToken(tokens[end+1]) {
			p, err := d.readPoint(tokens[end+1], head)
			if err != nil {
				return nil, err
			}
			endPoint = &p
		}
		seg, err := d.convertSegment(tokens[start:end], head, endPoint, start == 0)
		if err != nil {
			return nil, err
		}
		out = append(out, seg...)
		start = end
	}
	return out, nil
}

func (d *decoder) convertSegment(tokens []string, head Vec2, endPoint *Vec2, first bool) ([]PathControlPoint, error) {
	typ, degree := parsePathType(tokens[0])

	var verts []Vec2
	if first {
		verts = append(verts, Vec2{})
	}
	for _, tok := range tokens[1:] {
		p, err := d.readPoint(tok, head)
		if err != nil {
			return nil, err
		}
		verts = append(verts, p)
	}
	n := len(verts)
	if n == 0 {
		return nil, nil
	}

	if typ == PathPerfect {
		all := append([]Vec2(nil), verts...)
		if endPoint != nil {
			all = append(all, *endPoint)
		}
		switch {
		case len(all) != 3:
			typ, degree = PathBezier, 0
		case isLinear(all):
			typ = PathLinear
		}
	}

	out := []PathControlPoint{{Position: verts[0], Type: typ, Degree: degree}}
	open := 0
	for j := 1; j < n; j++ {
		last := len(out) - 1
		if verts[j] == out[last].Position && last > open && j != n-1 {
			out[last].Type, out[last].Degree = typ, degree
			open = last
			continue
		}
		out = append(out, PathControlPoint{Position: verts[j]})
	}
	return out, nil
}

func isPathTypeToken(tok string) bool {
	return tok != "" && unicode.IsLetter(rune(tok[0]))
}

// parsePathType reads "B", "B<degree>", "L", "C" or "P". Unknown letters fall
// back to catmull, as the original client did.
func parsePathType(tok string) (PathType, int) {
	t, ok := pathTypeFromLetter(tok[0])
	if !ok {
		return PathCatmull, 0
	}
	if t == PathBezier && len(tok) > 1 {
		if deg, err := atoi(tok[1:]); err == nil && deg > 0 {
			return PathBezier, deg
		}
	}
	return t, 0
}

func (d *decoder) readPoint(tok string, head Vec2) (Vec2, error) {
	xs, ys, ok := strings.Cut(tok, ":")
	if !ok {
		return Vec2{}, d.errorf("malformed path point %q", tok)
	}
	x, err := d.coordinate(xs)
	if err != nil {
		return Vec2{}, d.errorf("path point %q: %v", tok, err)
	}
	y, err := d.coordinate(ys)
	if err != nil {
		return Vec2{}, d.errorf("path point %q: %v", tok, err)
	}
	return Vec2{X: x, Y: y}.Sub(head), nil
}

func isLinear(p []Vec2) bool {
	return math.Abs(p[1].Sub(p[0]).Cross(p[2].Sub(p[0]))) < 1e-7
}

// --- object-param parsing ---

func parseHitSample(s string) (HitSampleSpec, error) {
	// normalSet:additionSet:customIndex:volume:filename
	ss := HitSampleSpec{}
	if strings.TrimSpace(s) == "" {
		return ss, nil
	}
	parts := strings.SplitN(s, ":", 5)
	ints := make([]int, 4)
	for i := 0; i < len(parts) && i < 4; i++ {
		if strings.TrimSpace(parts[i]) == "" {
			continue
		}
		v, err := atoi(parts[i])
		if err != nil {
			return ss, fmt.Errorf("hit sample %q: %w", s, err)
		}
		ints[i] = v
	}
	ss.NormalSet = toSampleSet(ints[0])
	ss.AdditionSet = toSampleSet(ints[1])
	ss.Index = ints[2]
	ss.Volume = ints[3]
	if len(parts) == 5 {
		ss.Filename = strings.Trim(strings.TrimSpace(parts[4]), "\"")
	}
	return ss, nil
}

func toSampleSet(id int) SampleSet {
	switch id {
	case 1:
		return SampleNormal
	case 2:
		return SampleSoft
	case 3:
		return SampleDrum
	default:
		return SampleNone
	}
}

func parseEdgeAddPair(s string) (SampleSet, SampleSet, error) {
	// "x:y"
	a, b, _ := strings.Cut(s, ":")
	ns, err := atoi(a)
	if err != nil {
		return 0, 0, err
	}
	as := 0
	if strings.TrimSpace(b) != "" {
		if as, err = atoi(b); err != nil {
			return 0, 0, err
		}
	}
	return toSampleSet(ns), toSampleSet(as), nil
}

func parseEndTimeAndSample(s string) (float64, HitSampleSpec, error) {
	// "endTime:hitSampleSpec"
	end, rest, found := strings.Cut(s, ":")
	t, err := atof(end)
	if err != nil {
		return 0, HitSampleSpec{}, err
	}
	if !found {
		return t, HitSampleSpec{}, nil
	}
	hs, err := parseHitSample(rest)
	return t, hs, err
}
