package dotosu

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// EncodeFile writes b to path, closing the file on every exit path.
func EncodeFile(path string, b *Beatmap, style StyleSource) (err error) {
	if err := b.Validate(style); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Encode(f, b, style)
}

// Encode writes b in the legacy text format. Combo colours come from style;
// a nil style uses b.Colours. The beatmap is never modified.
func Encode(w io.Writer, b *Beatmap, style StyleSource) error {
	if err := b.Validate(style); err != nil {
		return err
	}
	if style == nil {
		style = &b.Colours
	}
	e := &encoder{w: bufio.NewWriter(w), b: b}
	e.printf("%s%d\n", headerPrefix, FIRST_LAZER_VERSION)
	e.general()
	e.editor()
	e.metadata()
	e.difficulty()
	e.events()
	e.timingPoints()
	e.colours(style)
	e.hitObjects()
	e.passthrough()
	return e.w.Flush()
}

// ---------- validation ----------

// Validate reports structural problems that make b impossible to encode.
func (b *Beatmap) Validate(style StyleSource) error {
	if b == nil {
		return &ValidationError{Reason: "nil beatmap"}
	}
	invalid := func(format string, a ...any) error {
		return &ValidationError{Reason: fmt.Sprintf(format, a...)}
	}
	for _, g := range b.ControlPoints.Groups {
		if math.IsNaN(g.Time) || math.IsInf(g.Time, 0) {
			return invalid("control point group has time %v", g.Time)
		}
		if g.Timing != nil && (math.IsNaN(g.Timing.BeatLength) || math.IsInf(g.Timing.BeatLength, 0)) {
			return invalid("timing point at %v has beat length %v", g.Time, g.Timing.BeatLength)
		}
	}
	for i, ho := range b.HitObjects {
		if ho == nil {
			return invalid("hit object %d is nil", i)
		}
		if t := ho.StartTime(); math.IsNaN(t) || math.IsInf(t, 0) {
			return invalid("hit object %d has time %v", i, t)
		}
		switch o := ho.(type) {
		case Slider:
			if err := o.Path.validate(); err != nil {
				return invalid("hit object %d: %v", i, err)
			}
			if o.Slides < 0 || o.Slides > maxSlides {
				return invalid("hit object %d: slide count %d", i, o.Slides)
			}
		case Spinner:
			if o.EndTime < o.Time {
				return invalid("hit object %d: spinner ends before it starts", i)
			}
		case Hold:
			if o.EndTime < o.Time {
				return invalid("hit object %d: hold ends before it starts", i)
			}
		}
	}
	if style == nil {
		style = &b.Colours
	}
	if combo, ok := style.ComboColours(); ok && len(combo) == 0 && len(b.Colours.Custom) > 0 {
		return invalid("an empty combo colour list cannot be written next to custom colours")
	}
	return nil
}

// ---------- encoder ----------

type encoder struct {
	w *bufio.Writer
	b *Beatmap
}

// printf ignores write errors; bufio.Writer keeps the first one for Flush.
func (e *encoder) printf(format string, a ...any) {
	fmt.Fprintf(e.w, format, a...)
}

func (e *encoder) section(sec section) {
	e.printf("\n[%s]\n", sectionNames[sec])
}

func (e *encoder) kv(key string, val any) {
	switch v := val.(type) {
	case float64:
		e.printf("%s: %s\n", key, fmtFloat(v))
	case bool:
		e.printf("%s: %d\n", key, boolInt(v))
	default:
		e.printf("%s: %v\n", key, v)
	}
}

func (e *encoder) extraKeys(sec section) {
	for _, rs := range e.b.ExtraKeys {
		if rs.Name != sectionNames[sec] {
			continue
		}
		for _, l := range rs.Lines {
			e.printf("%s\n", l)
		}
	}
}

func (e *encoder) general() {
	g := e.b.General
	e.section(secGeneral)
	e.kv("AudioFilename", g.AudioFilename)
	e.kv("AudioLeadIn", g.AudioLeadIn)
	e.kv("PreviewTime", g.PreviewTime)
	e.kv("Countdown", g.Countdown)
	e.kv("SampleSet", capitalise(g.SampleSet))
	e.kv("StackLeniency", g.StackLeniency)
	e.kv("Mode", g.Mode)
	e.kv("LetterboxInBreaks", g.LetterboxInBreaks)
	e.kv("SpecialStyle", g.SpecialStyle)
	e.kv("WidescreenStoryboard", g.WidescreenStoryboard)
	e.kv("EpilepsyWarning", g.EpilepsyWarning)
	e.kv("SamplesMatchPlaybackRate", g.SamplesMatchPlaybackRate)
	e.kv("CountdownOffset", g.CountdownOffset)
	e.kv("SampleVolume", g.SampleVolume)
	e.extraKeys(secGeneral)
}

func (e *encoder) editor() {
	ed := e.b.Editor
	e.section(secEditor)
	if len(ed.Bookmarks) > 0 {
		marks := make([]string, len(ed.Bookmarks))
		for i, m := range ed.Bookmarks {
			marks[i] = strconv.Itoa(m)
		}
		e.kv("Bookmarks", strings.Join(marks, ","))
	}
	e.kv("DistanceSpacing", ed.DistanceSpacing)
	e.kv("BeatDivisor", ed.BeatDivisor)
	e.kv("GridSize", ed.GridSize)
	e.kv("TimelineZoom", ed.TimelineZoom)
	e.extraKeys(secEditor)
}

func (e *encoder) metadata() {
	m := e.b.Metadata
	e.section(secMetadata)
	e.printf("Title:%s\n", m.Title)
	e.printf("TitleUnicode:%s\n", m.TitleUnicode)
	e.printf("Artist:%s\n", m.Artist)
	e.printf("ArtistUnicode:%s\n", m.ArtistUnicode)
	e.printf("Creator:%s\n", m.Creator)
	e.printf("Version:%s\n", m.Version)
	e.printf("Source:%s\n", m.Source)
	e.printf("Tags:%s\n", m.Tags)
	e.printf("BeatmapID:%d\n", m.BeatmapID)
	e.printf("BeatmapSetID:%d\n", m.BeatmapSetID)
	e.extraKeys(secMetadata)
}

func (e *encoder) difficulty() {
	d := e.b.Difficulty
	e.section(secDifficulty)
	e.kv("HPDrainRate", d.HPDrainRate)
	e.kv("CircleSize", d.CircleSize)
	e.kv("OverallDifficulty", d.OverallDifficulty)
	e.kv("ApproachRate", d.ApproachRate)
	e.kv("SliderMultiplier", d.SliderMultiplier)
	e.kv("SliderTickRate", d.SliderTickRate)
	e.extraKeys(secDifficulty)
}

func (e *encoder) events() {
	ev := e.b.Events
	e.section(secEvents)
	e.printf("//Background and Video events\n")
	if ev.BackgroundFile != "" {
		e.printf("0,0,\"%s\",0,0\n", ev.BackgroundFile)
	}
	if ev.VideoFile != "" {
		e.printf("Video,%d,\"%s\"\n", ev.VideoOffset, ev.VideoFile)
	}
	e.printf("//Break Periods\n")
	for _, br := range ev.Breaks {
		e.printf("2,%s,%s\n", fmtFloat(br.Start), fmtFloat(br.End))
	}
	for _, l := range ev.Unhandled {
		e.printf("%s\n", l)
	}
}

// timingPoints writes one uninherited line per timing point and one inherited
// line for every group whose non-timing state the uninherited line cannot carry.
func (e *encoder) timingPoints() {
	groups := e.b.ControlPoints.Groups
	if len(groups) == 0 {
		return
	}
	e.section(secTimingPoints)

	sample := SamplePoint{Bank: sampleBankName(sampleBankID(e.b.General.SampleSet)), Volume: e.b.General.SampleVolume}
	effect := EffectPoint{}
	meter := 4
	for _, g := range groups {
		if g.Empty() {
			continue
		}
		if g.Sample != nil {
			sample = *g.Sample
		}
		if g.Effect != nil {
			effect = *g.Effect
		}
		kiai := 0
		if effect.Kiai {
			kiai = effectKiai
		}
		if g.Timing != nil {
			meter = g.Timing.TimeSignature
			flags := kiai
			if g.Timing.OmitFirstBarLine {
				flags |= effectOmitFirstBarLine
			}
			e.timingLine(g.Time, fmtFloat(g.Timing.BeatLength), meter, sample, true, flags)
		}
		dp := g.Difficulty
		if g.Timing != nil && (dp == nil || (dp.SliderVelocity == 1 && dp.GenerateTicks)) {
			continue
		}
		if dp == nil {
			cur := e.b.ControlPoints.DifficultyAt(g.Time)
			dp = &cur
		}
		beatLength := "NaN"
		if dp.GenerateTicks {
			beatLength = fmtFloat(-100 / dp.SliderVelocity)
		}
		e.timingLine(g.Time, beatLength, meter, sample, false, kiai)
	}
}

func (e *encoder) timingLine(t float64, beatLength string, meter int, sp SamplePoint, uninherited bool, effects int) {
	e.printf("%s,%s,%d,%d,%d,%d,%d,%d\n",
		fmtFloat(t), beatLength, meter, sampleBankID(sp.Bank), sp.CustomIndex, sp.Volume, boolInt(uninherited), effects)
}

func (e *encoder) colours(style StyleSource) {
	combo, defined := style.ComboColours()
	custom := e.b.Colours.Custom
	if !defined && len(custom) == 0 {
		return
	}
	e.section(secColours)
	for i, c := range combo {
		e.printf("Combo%d : %s\n", i+1, c)
	}
	for _, nc := range custom {
		e.printf("%s : %s\n", nc.Name, nc.Colour)
	}
}

func (e *encoder) hitObjects() {
	e.section(secHitObjects)
	for _, ho := range e.b.HitObjects {
		e.printf("%s\n", encodeHitObject(ho))
	}
}

func (e *encoder) passthrough() {
	for _, rs := range e.b.Passthrough {
		e.printf("\n[%s]\n", rs.Name)
		for _, l := range rs.Lines {
			e.printf("%s\n", l)
		}
	}
}

// ---------- hit objects ----------

func encodeHitObject(ho HitObject) string {
	var sb strings.Builder
	pos := ho.Pos()
	flags := (ho.Flags() &^ typeKindMask) | kindFlag(ho.Kind())
	fmt.Fprintf(&sb, "%s,%s,%s,%d,%d,", roundCoord(pos.X), roundCoord(pos.Y), fmtFloat(ho.StartTime()), flags, ho.HitSound())

	switch o := ho.(type) {
	case Slider:
		writePath(&sb, pos, o.Path.ControlPoints)
		fmt.Fprintf(&sb, ",%d,%s,", o.Slides, fmtFloat(o.Path.Length))
		for i, s := range o.EdgeSounds {
			if i > 0 {
				sb.WriteByte('|')
			}
			sb.WriteString(strconv.Itoa(int(s)))
		}
		sb.WriteByte(',')
		for i, ea := range o.EdgeAdditions {
			if i > 0 {
				sb.WriteByte('|')
			}
			fmt.Fprintf(&sb, "%d:%d", ea.NormalSet, ea.AdditionSet)
		}
		sb.WriteByte(',')
	case Spinner:
		fmt.Fprintf(&sb, "%s,", fmtFloat(o.EndTime))
	case Hold:
		fmt.Fprintf(&sb, "%s:", fmtFloat(o.EndTime))
	}
	hs := ho.Sample()
	fmt.Fprintf(&sb, "%d:%d:%d:%d:%s", hs.NormalSet, hs.AdditionSet, hs.Index, hs.Volume, hs.Filename)
	return sb.String()
}

// writePath writes the path sub-grammar. A typed anchor is written as an
// implicit boundary (its point repeated) only when the decoder can split it
// back unambiguously; otherwise an explicit type letter is written. The
// repeated point must never end its segment, so an anchor followed by another
// typed anchor always gets a letter.
func writePath(sb *strings.Builder, head Vec2, cps []PathControlPoint) {
	abs := make([]Vec2, len(cps))
	for i, cp := range cps {
		abs[i] = head.Add(cp.Position).Rounded()
	}
	point := func(i int) string {
		return roundCoord(abs[i].X) + ":" + roundCoord(abs[i].Y)
	}

	var lastType PathType
	lastDegree := 0
	for i, cp := range cps {
		if cp.SegmentStart() {
			explicit := i == 0 ||
				cp.Type != lastType ||
				cp.Degree != lastDegree ||
				cp.Type == PathPerfect ||
				i == len(cps)-1 ||
				cps[i+1].SegmentStart() ||
				abs[i] == abs[i-1] ||
				(i > 1 && abs[i-1] == abs[i-2])
			if explicit {
				sb.WriteString(cp.Type.Letter())
				if cp.Degree > 0 {
					sb.WriteString(strconv.Itoa(cp.Degree))
				}
				if len(cps) > 1 {
					sb.WriteByte('|')
				}
				lastType, lastDegree = cp.Type, cp.Degree
			} else {
				sb.WriteString(point(i))
				sb.WriteByte('|')
			}
		}
		if i != 0 {
			sb.WriteString(point(i))
			if i != len(cps)-1 {
				sb.WriteByte('|')
			}
		}
	}
}

// ---------- formatting helpers ----------

// roundCoord applies the legacy rounding rule: half away from zero.
func roundCoord(v float64) string {
	return strconv.Itoa(int(math.Round(v)))
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
