package main

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"osucodec/dotosu"
)

const (
	playfieldWidth  = 512
	playfieldHeight = 384

	// declared slider lengths within this many pixels of the path are not reported.
	lengthSlack = 1.0
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE...",
		Short: "Summarise charts",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runInfoCmd,
	}
}

func runInfoCmd(cmd *cobra.Command, args []string) error {
	srcs, err := OpenSources(args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, src := range srcs {
		b, err := decodeSource(src)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, src.Name)
		if err := formatTable(out, nil, summarize(b).rows()); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// chartSummary holds the figures `info` prints for one chart.
type chartSummary struct {
	Title         string
	Ruleset       string
	FormatVersion int
	Counts        map[dotosu.ObjectKind]int
	MinBPM        float64
	MaxBPM        float64
	Drain         time.Duration
	Total         time.Duration
	// LongSliders counts sliders whose declared length exceeds the drawn path.
	LongSliders int
	// OffscreenTails counts sliders whose end leaves the playfield.
	OffscreenTails int
}

func summarize(b *dotosu.Beatmap) chartSummary {
	m := b.Metadata
	s := chartSummary{
		Title:         fmt.Sprintf("%s - %s [%s] by %s", m.Artist, m.Title, m.Version, m.Creator),
		Ruleset:       rulesetName(b.General.Mode),
		FormatVersion: b.FormatVersion,
		Counts:        make(map[dotosu.ObjectKind]int),
	}

	for _, g := range b.ControlPoints.Groups {
		if g.Timing == nil || g.Timing.BeatLength <= 0 {
			continue
		}
		bpm := 60000 / g.Timing.BeatLength
		if s.MinBPM == 0 || bpm < s.MinBPM {
			s.MinBPM = bpm
		}
		s.MaxBPM = max(s.MaxBPM, bpm)
	}

	first, last := math.Inf(1), math.Inf(-1)
	for _, ho := range b.HitObjects {
		s.Counts[ho.Kind()]++
		end := ho.StartTime()
		switch v := ho.(type) {
		case dotosu.Slider:
			end += sliderDuration(b, v)
			poly := v.Path.Approximate()
			if v.Path.Length > dotosu.PolylineLength(poly)+lengthSlack {
				s.LongSliders++
			}
			tail := v.PosXY.Add(dotosu.PositionAt(poly, v.Path.Length))
			if tail.X < 0 || tail.Y < 0 || tail.X > playfieldWidth || tail.Y > playfieldHeight {
				s.OffscreenTails++
			}
		case dotosu.Spinner:
			end = v.EndTime
		case dotosu.Hold:
			end = v.EndTime
		}
		first = min(first, ho.StartTime())
		last = max(last, end)
	}
	if len(b.HitObjects) == 0 {
		return s
	}

	total := last - first
	drain := total
	for _, br := range b.Events.Breaks {
		drain -= br.End - br.Start
	}
	s.Total = time.Duration(total * float64(time.Millisecond))
	s.Drain = time.Duration(max(drain, 0) * float64(time.Millisecond))
	return s
}

// sliderDuration is the time in milliseconds a slider takes over all its slides.
func sliderDuration(b *dotosu.Beatmap, s dotosu.Slider) float64 {
	tp := b.ControlPoints.TimingAt(s.Time)
	if tp == nil || tp.BeatLength <= 0 {
		return 0
	}
	velocity := b.Difficulty.SliderMultiplier * 100 * b.ControlPoints.DifficultyAt(s.Time).SliderVelocity
	if velocity <= 0 {
		return 0
	}
	return s.Path.Length / velocity * tp.BeatLength * float64(max(s.Slides, 1))
}

func (s chartSummary) rows() [][]string {
	bpm := fmtBPM(s.MinBPM)
	if s.MaxBPM != s.MinBPM {
		bpm = fmtBPM(s.MinBPM) + "-" + fmtBPM(s.MaxBPM)
	}
	return [][]string{
		{"title", s.Title},
		{"ruleset", s.Ruleset},
		{"format", "v" + strconv.Itoa(s.FormatVersion)},
		{"objects", fmt.Sprintf("%s circles, %s sliders, %s spinners, %s holds",
			humanize.Comma(int64(s.Counts[dotosu.KindCircle])),
			humanize.Comma(int64(s.Counts[dotosu.KindSlider])),
			humanize.Comma(int64(s.Counts[dotosu.KindSpinner])),
			humanize.Comma(int64(s.Counts[dotosu.KindHold])))},
		{"bpm", bpm},
		{"length", fmtClock(s.Total) + " (drain " + fmtClock(s.Drain) + ")"},
		{"long sliders", strconv.Itoa(s.LongSliders)},
		{"offscreen tails", strconv.Itoa(s.OffscreenTails)},
	}
}

func fmtBPM(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func fmtClock(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
