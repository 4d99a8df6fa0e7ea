package dotosu

import (
	"fmt"
	"math"
)

type Vec2 struct{ X, Y float64 }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float64) Vec2 {
	return Vec2{v.X * f, v.Y * f}
}
func (v Vec2) Dot(o Vec2) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Cross(o Vec2) float64 { return v.X*o.Y - v.Y*o.X }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }

// Rounded applies the legacy coordinate rounding (half away from zero) to both axes.
func (v Vec2) Rounded() Vec2 {
	return Vec2{math.Round(v.X), math.Round(v.Y)}
}

// ---------- slider paths ----------

type PathType uint8

const (
	PathNone PathType = iota
	PathBezier
	PathLinear
	PathCatmull
	PathPerfect
)

func (t PathType) Letter() string {
	switch t {
	case PathBezier:
		return "B"
	case PathLinear:
		return "L"
	case PathCatmull:
		return "C"
	case PathPerfect:
		return "P"
	}
	return ""
}

func (t PathType) String() string {
	switch t {
	case PathBezier:
		return "bezier"
	case PathLinear:
		return "linear"
	case PathCatmull:
		return "catmull"
	case PathPerfect:
		return "perfect"
	}
	return "none"
}

func pathTypeFromLetter(c byte) (PathType, bool) {
	switch c {
	case 'B', 'b':
		return PathBezier, true
	case 'L', 'l':
		return PathLinear, true
	case 'C', 'c':
		return PathCatmull, true
	case 'P', 'p':
		return PathPerfect, true
	}
	return PathNone, false
}

// PathControlPoint is one anchor of a slider path. A non-none Type marks the
// anchor as the start of a segment; the anchor also ends the previous one.
type PathControlPoint struct {
	Position Vec2 // relative to the slider head
	Type     PathType
	// Degree is the B-spline degree carried by "B<n>" markers; 0 means plain bezier.
	Degree int
}

func (p PathControlPoint) SegmentStart() bool { return p.Type != PathNone }

// SliderPath stores anchors as one flat list. Never nest it into segments
// for storage: duplicate anchors at boundaries are meaningful.
type SliderPath struct {
	ControlPoints []PathControlPoint
	// Length is the expected pixel length written in the file; 0 if absent.
	Length float64
}

// Segment is a view over a run of anchors sharing one path type.
type Segment struct {
	Type   PathType
	Degree int
	Points []Vec2
}

// Segments splits the anchors at every typed anchor. The boundary anchor is
// the last point of one segment and the first point of the next.
func (p SliderPath) Segments() []Segment {
	var segs []Segment
	cps := p.ControlPoints
	start := 0
	for i := 1; i <= len(cps); i++ {
		if i < len(cps) && !cps[i].SegmentStart() {
			continue
		}
		seg := Segment{Type: cps[start].Type, Degree: cps[start].Degree}
		end := i
		if i < len(cps) {
			end = i + 1
		}
		for _, cp := range cps[start:end] {
			seg.Points = append(seg.Points, cp.Position)
		}
		segs = append(segs, seg)
		start = i
	}
	return segs
}

func (p SliderPath) validate() error {
	if len(p.ControlPoints) == 0 {
		return fmt.Errorf("slider path has no control points")
	}
	if !p.ControlPoints[0].SegmentStart() {
		return fmt.Errorf("first control point has no path type")
	}
	for i, cp := range p.ControlPoints {
		if cp.Type > PathPerfect {
			return fmt.Errorf("control point %d has unknown path type %d", i, cp.Type)
		}
		if math.IsNaN(cp.Position.X) || math.IsNaN(cp.Position.Y) {
			return fmt.Errorf("control point %d has NaN position", i)
		}
	}
	return nil
}
