package dotosu

import "math"

const (
	bezierToleranceSq    = 0.25 * 0.25
	circularArcTolerance = 0.10
	catmullDetail        = 50
)

// Approximate flattens the path into a polyline relative to the slider head.
// Consecutive duplicate and collinear points are dropped.
func (p SliderPath) Approximate() []Vec2 {
	var poly []Vec2
	add := func(pts []Vec2) {
		for _, v := range pts {
			if n := len(poly); n == 0 || !almostEqual(poly[n-1], v) {
				poly = append(poly, v)
			}
		}
	}
	for _, seg := range p.Segments() {
		pts := seg.Points
		switch seg.Type {
		case PathLinear:
			add(pts)
		case PathCatmull:
			add(approximateCatmull(pts))
		case PathPerfect:
			if len(pts) == 3 {
				add(approximateCircularArc(pts[0], pts[1], pts[2]))
			} else {
				add(approximateBezier(pts))
			}
		default:
			// B-spline degrees are flattened as plain bezier curves.
			add(approximateBezier(pts))
		}
	}
	return dedupeCollinear(poly)
}

// CalculatedLength is the length of the flattened path.
func (p SliderPath) CalculatedLength() float64 {
	return PolylineLength(p.Approximate())
}

// PolylineLength sums the segment lengths of poly.
func PolylineLength(poly []Vec2) float64 {
	var l float64
	for i := 1; i < len(poly); i++ {
		l += poly[i].Sub(poly[i-1]).Len()
	}
	return l
}

// PositionAt walks dist pixels along poly. Past the end, the last segment is
// extended; a polyline with fewer than two points returns its only point.
func PositionAt(poly []Vec2, dist float64) Vec2 {
	switch len(poly) {
	case 0:
		return Vec2{}
	case 1:
		return poly[0]
	}
	for i := 1; i < len(poly); i++ {
		dir := poly[i].Sub(poly[i-1])
		l := dir.Len()
		if dist <= l {
			return poly[i-1].Add(dir.Scale(dist / l))
		}
		dist -= l
	}
	from := poly[len(poly)-1]
	dir := from.Sub(poly[len(poly)-2])
	return from.Add(dir.Scale(dist / dir.Len()))
}

// ---------- bezier ----------

func approximateBezier(cp []Vec2) []Vec2 {
	if len(cp) == 0 {
		return nil
	}
	var out []Vec2
	stack := [][]Vec2{cp}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if bezierFlatEnough(cur) {
			out = append(out, cur[0])
			continue
		}
		// right half first so points pop in order
		l, r := bezierSubdivide(cur)
		stack = append(stack, r, l)
	}
	return append(out, cp[len(cp)-1])
}

func bezierFlatEnough(cp []Vec2) bool {
	for i := 1; i < len(cp)-1; i++ {
		d := cp[i-1].Sub(cp[i].Scale(2)).Add(cp[i+1])
		if d.Dot(d) > bezierToleranceSq {
			return false
		}
	}
	return true
}

// bezierSubdivide splits cp at t=0.5 with de Casteljau's algorithm.
func bezierSubdivide(cp []Vec2) (left, right []Vec2) {
	n := len(cp)
	row := append([]Vec2(nil), cp...)
	left = make([]Vec2, n)
	right = make([]Vec2, n)
	for r := 0; r < n; r++ {
		left[r] = row[0]
		right[n-1-r] = row[n-1-r]
		for i := 0; i < n-1-r; i++ {
			row[i] = row[i].Add(row[i+1]).Scale(0.5)
		}
	}
	return left, right
}

// ---------- catmull-rom ----------

func approximateCatmull(pts []Vec2) []Vec2 {
	n := len(pts)
	if n < 2 {
		return append([]Vec2(nil), pts...)
	}
	out := make([]Vec2, 0, (n-1)*catmullDetail+1)
	out = append(out, pts[0])
	for i := 0; i < n-1; i++ {
		p0 := pts[max(i-1, 0)]
		p1 := pts[i]
		p2 := pts[i+1]
		p3 := pts[min(i+2, n-1)]
		for s := 1; s <= catmullDetail; s++ {
			out = append(out, catmullPoint(p0, p1, p2, p3, float64(s)/catmullDetail))
		}
	}
	return out
}

func catmullPoint(p0, p1, p2, p3 Vec2, t float64) Vec2 {
	t2 := t * t
	t3 := t2 * t
	f := func(a, b, c, d float64) float64 {
		return 0.5 * (2*b + (-a+c)*t + (2*a-5*b+4*c-d)*t2 + (-a+3*b-3*c+d)*t3)
	}
	return Vec2{f(p0.X, p1.X, p2.X, p3.X), f(p0.Y, p1.Y, p2.Y, p3.Y)}
}

// ---------- circular arc ----------

func approximateCircularArc(p1, p2, p3 Vec2) []Vec2 {
	centre, ok := circumcentre(p1, p2, p3)
	if !ok {
		return []Vec2{p1, p3}
	}
	r := p1.Sub(centre).Len()
	a1 := math.Atan2(p1.Y-centre.Y, p1.X-centre.X)
	a3 := math.Atan2(p3.Y-centre.Y, p3.X-centre.X)

	dir := 1.0
	if p2.Sub(p1).Cross(p3.Sub(p2)) < 0 {
		dir = -1.0
	}
	delta := angleDiff(a1, a3, dir)

	step := 2 * math.Acos(clampFloat(1-circularArcTolerance/r, -1, 1))
	if step <= 0 || math.IsNaN(step) || step > math.Pi {
		step = math.Pi
	}
	steps := max(int(math.Ceil(math.Abs(delta)/step)), 2)
	step = delta / float64(steps)

	out := make([]Vec2, 0, steps+1)
	out = append(out, p1)
	for i := 1; i < steps; i++ {
		a := a1 + float64(i)*step
		out = append(out, Vec2{centre.X + math.Cos(a)*r, centre.Y + math.Sin(a)*r})
	}
	return append(out, p3)
}

func circumcentre(a, b, c Vec2) (Vec2, bool) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if math.Abs(d) < 1e-8 {
		return Vec2{}, false
	}
	a2, b2, c2 := a.Dot(a), b.Dot(b), c.Dot(c)
	return Vec2{
		X: (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d,
		Y: (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d,
	}, true
}

func angleDiff(from, to, dir float64) float64 {
	d := math.Remainder(to-from, 2*math.Pi)
	if dir < 0 && d > 0 {
		d -= 2 * math.Pi
	} else if dir > 0 && d < 0 {
		d += 2 * math.Pi
	}
	return d
}

// ---------- helpers ----------

func dedupeCollinear(pts []Vec2) []Vec2 {
	if len(pts) <= 2 {
		return pts
	}
	out := []Vec2{pts[0]}
	for i := 1; i < len(pts)-1; i++ {
		a, b, c := out[len(out)-1], pts[i], pts[i+1]
		if almostEqual(a, b) {
			continue
		}
		ab, bc := b.Sub(a), c.Sub(b)
		if math.Abs(ab.Cross(bc)) < 1e-7 && ab.Dot(bc) > 0 {
			continue
		}
		out = append(out, b)
	}
	if last := pts[len(pts)-1]; !almostEqual(out[len(out)-1], last) {
		out = append(out, last)
	}
	return out
}

func almostEqual(a, b Vec2) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}
