package dotosu

import (
	"math"
	"sort"
)

// ---------- control points ----------

type TimingPoint struct {
	BeatLength       float64
	TimeSignature    int
	OmitFirstBarLine bool
}

type DifficultyPoint struct {
	SliderVelocity float64
	// GenerateTicks is false when the inherited line carried a NaN beat length.
	GenerateTicks bool
}

type SamplePoint struct {
	Bank        string // "normal", "soft" or "drum"
	CustomIndex int
	Volume      int
}

type EffectPoint struct {
	Kiai bool
}

// ControlPointGroup holds the control points active from Time onwards.
// Each kind has its own slot, so a group can never carry two of a kind.
type ControlPointGroup struct {
	Time       float64
	Timing     *TimingPoint
	Difficulty *DifficultyPoint
	Sample     *SamplePoint
	Effect     *EffectPoint
}

func (g *ControlPointGroup) Empty() bool {
	return g.Timing == nil && g.Difficulty == nil && g.Sample == nil && g.Effect == nil
}

// ControlPointInfo is the control point timeline, one group per timestamp, sorted by time.
type ControlPointInfo struct {
	Groups []*ControlPointGroup
}

// GroupAt returns the group at exactly t, creating it when missing.
func (c *ControlPointInfo) GroupAt(t float64) *ControlPointGroup {
	i := sort.Search(len(c.Groups), func(i int) bool { return c.Groups[i].Time >= t })
	if i < len(c.Groups) && c.Groups[i].Time == t {
		return c.Groups[i]
	}
	g := &ControlPointGroup{Time: t}
	c.Groups = append(c.Groups, nil)
	copy(c.Groups[i+1:], c.Groups[i:])
	c.Groups[i] = g
	return g
}

// Find returns the group at exactly t, or nil.
func (c *ControlPointInfo) Find(t float64) *ControlPointGroup {
	i := sort.Search(len(c.Groups), func(i int) bool { return c.Groups[i].Time >= t })
	if i < len(c.Groups) && c.Groups[i].Time == t {
		return c.Groups[i]
	}
	return nil
}

// TimingAt returns the timing point in effect at t, falling back to the first one.
func (c *ControlPointInfo) TimingAt(t float64) *TimingPoint {
	var found *TimingPoint
	for _, g := range c.Groups {
		if g.Timing == nil {
			continue
		}
		if found != nil && g.Time > t {
			break
		}
		found = g.Timing
	}
	return found
}

// DifficultyAt returns the slider velocity state in effect at t.
func (c *ControlPointInfo) DifficultyAt(t float64) DifficultyPoint {
	dp := DifficultyPoint{SliderVelocity: 1, GenerateTicks: true}
	for _, g := range c.Groups {
		if g.Time > t {
			break
		}
		if g.Difficulty != nil {
			dp = *g.Difficulty
		}
	}
	return dp
}

// BPM returns the beats per minute of the first timing point, or 0 without one.
func (c *ControlPointInfo) BPM() float64 {
	for _, g := range c.Groups {
		if g.Timing != nil && g.Timing.BeatLength > 0 {
			return 60000 / g.Timing.BeatLength
		}
	}
	return 0
}

// applyLine writes one decoded [TimingPoints] line into its group. Every kind
// the line carries replaces what an earlier line at the same time wrote.
func (g *ControlPointGroup) applyLine(tp *TimingPoint, dp DifficultyPoint, sp SamplePoint, ep EffectPoint) {
	if tp != nil {
		g.Timing = tp
	}
	g.Difficulty = &dp
	g.Sample = &sp
	g.Effect = &ep
}

func clampVelocity(v float64) float64 {
	if math.IsNaN(v) {
		return 1
	}
	return clampFloat(v, 0.1, 10)
}
