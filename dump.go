package main

import (
	"osucodec/dotosu"
)

// chartDump is the serialisable view of a decoded chart used by `decode`.
type chartDump struct {
	Source        string              `json:"source" yaml:"source"`
	FormatVersion int                 `json:"format_version" yaml:"format_version"`
	Ruleset       string              `json:"ruleset" yaml:"ruleset"`
	General       dotosu.General      `json:"general" yaml:"general"`
	Editor        dotosu.Editor       `json:"editor" yaml:"editor"`
	Metadata      dotosu.Metadata     `json:"metadata" yaml:"metadata"`
	Difficulty    dotosu.Difficulty   `json:"difficulty" yaml:"difficulty"`
	Events        dotosu.Events       `json:"events" yaml:"events"`
	ControlPoints []groupDump         `json:"control_points" yaml:"control_points"`
	Colours       coloursDump         `json:"colours" yaml:"colours"`
	HitObjects    []objectDump        `json:"hit_objects" yaml:"hit_objects"`
	Passthrough   []dotosu.RawSection `json:"passthrough,omitempty" yaml:"passthrough,omitempty"`
	ExtraKeys     []dotosu.RawSection `json:"extra_keys,omitempty" yaml:"extra_keys,omitempty"`
}

type groupDump struct {
	Time       float64                 `json:"time" yaml:"time"`
	Timing     *dotosu.TimingPoint     `json:"timing,omitempty" yaml:"timing,omitempty"`
	Difficulty *dotosu.DifficultyPoint `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	Sample     *dotosu.SamplePoint     `json:"sample,omitempty" yaml:"sample,omitempty"`
	Effect     *dotosu.EffectPoint     `json:"effect,omitempty" yaml:"effect,omitempty"`
}

type coloursDump struct {
	ComboDefined bool     `json:"combo_defined" yaml:"combo_defined"`
	Combo        []string `json:"combo,omitempty" yaml:"combo,omitempty"`
	Custom       []string `json:"custom,omitempty" yaml:"custom,omitempty"`
}

type anchorDump struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Type   string  `json:"type,omitempty" yaml:"type,omitempty"`
	Degree int     `json:"degree,omitempty" yaml:"degree,omitempty"`
}

type objectDump struct {
	Kind        string       `json:"kind" yaml:"kind"`
	X           float64      `json:"x" yaml:"x"`
	Y           float64      `json:"y" yaml:"y"`
	Time        float64      `json:"time" yaml:"time"`
	NewCombo    bool         `json:"new_combo,omitempty" yaml:"new_combo,omitempty"`
	ComboOffset int          `json:"combo_offset,omitempty" yaml:"combo_offset,omitempty"`
	HitSound    int          `json:"hit_sound,omitempty" yaml:"hit_sound,omitempty"`
	EndTime     float64      `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Slides      int          `json:"slides,omitempty" yaml:"slides,omitempty"`
	Length      float64      `json:"length,omitempty" yaml:"length,omitempty"`
	Anchors     []anchorDump `json:"anchors,omitempty" yaml:"anchors,omitempty"`
}

func newChartDump(name string, b *dotosu.Beatmap) chartDump {
	d := chartDump{
		Source:        name,
		FormatVersion: b.FormatVersion,
		Ruleset:       rulesetName(b.General.Mode),
		General:       b.General,
		Editor:        b.Editor,
		Metadata:      b.Metadata,
		Difficulty:    b.Difficulty,
		Events:        b.Events,
		Passthrough:   b.Passthrough,
		ExtraKeys:     b.ExtraKeys,
	}
	for _, g := range b.ControlPoints.Groups {
		d.ControlPoints = append(d.ControlPoints, groupDump{
			Time:       g.Time,
			Timing:     g.Timing,
			Difficulty: g.Difficulty,
			Sample:     g.Sample,
			Effect:     g.Effect,
		})
	}

	combo, ok := b.Colours.ComboColours()
	d.Colours.ComboDefined = ok
	for _, c := range combo {
		d.Colours.Combo = append(d.Colours.Combo, c.String())
	}
	for _, c := range b.Colours.Custom {
		d.Colours.Custom = append(d.Colours.Custom, c.Name+" : "+c.Colour.String())
	}

	for _, ho := range b.HitObjects {
		d.HitObjects = append(d.HitObjects, newObjectDump(ho))
	}
	return d
}

func newObjectDump(ho dotosu.HitObject) objectDump {
	o := objectDump{
		Kind:     ho.Kind().String(),
		X:        ho.Pos().X,
		Y:        ho.Pos().Y,
		Time:     ho.StartTime(),
		NewCombo: ho.NewCombo(),
		HitSound: int(ho.HitSound()),
	}
	if o.NewCombo {
		o.ComboOffset = ho.Flags().ComboOffset()
	}
	switch v := ho.(type) {
	case dotosu.Slider:
		o.Slides = v.Slides
		o.Length = v.Path.Length
		for _, cp := range v.Path.ControlPoints {
			a := anchorDump{X: cp.Position.X, Y: cp.Position.Y, Degree: cp.Degree}
			if cp.SegmentStart() {
				a.Type = cp.Type.String()
			}
			o.Anchors = append(o.Anchors, a)
		}
	case dotosu.Spinner:
		o.EndTime = v.EndTime
	case dotosu.Hold:
		o.EndTime = v.EndTime
	}
	return o
}
