package dotosu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const headerPrefix = "osu file format v"

const maxLine = 1024 * 1024

// ---------- Public API ----------

func DecodeFile(path string) (*Beatmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a beatmap in the legacy text format. Errors are *VersionError
// for a bad header, *FormatError for a malformed line, or the reader's error.
func Decode(r io.Reader) (*Beatmap, error) {
	sc := bufio.NewScanner(r)
	buf := make([]byte, 64*1024)
	sc.Buffer(buf, maxLine)

	d := &decoder{sc: sc}
	version, err := d.readHeader()
	if err != nil {
		return nil, err
	}

	b := NewBeatmap()
	b.FormatVersion = version
	d.b = b
	if version < 5 {
		d.offset = EARLY_VERSION_TIMING_OFFSET
	}

	for d.next() {
		raw := strings.TrimRight(d.sc.Text(), " \t\r")
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			d.enterSection(line[1 : len(line)-1])
			continue
		}
		if err := d.handleLine(line, raw); err != nil {
			return nil, err
		}
	}
	if err := d.scanErr(); err != nil {
		return nil, err
	}

	d.colours.finish(&b.Colours)
	if !d.seenAR {
		b.Difficulty.ApproachRate = b.Difficulty.OverallDifficulty
	}
	applyDifficultyRestrictions(&b.Difficulty)
	return b, nil
}

// ---------- decoder state ----------

type decoder struct {
	sc     *bufio.Scanner
	lineNo int

	b       *Beatmap
	offset  float64
	sec     section
	raw     *RawSection // current unknown section
	seenAR  bool
	colours colourSection
}

func (d *decoder) next() bool {
	if !d.sc.Scan() {
		return false
	}
	d.lineNo++
	return true
}

// scanErr reports why scanning stopped. An oversized line is a format error
// on the line the scanner gave up on.
func (d *decoder) scanErr() error {
	err := d.sc.Err()
	if errors.Is(err, bufio.ErrTooLong) {
		return formatErrorf(d.lineNo+1, "line longer than %d bytes", maxLine)
	}
	return err
}

func (d *decoder) readHeader() (int, error) {
	var header string
	for d.next() {
		line := strings.TrimSpace(strings.TrimPrefix(d.sc.Text(), "\ufeff"))
		if line == "" {
			continue
		}
		header = line
		break
	}
	if err := d.scanErr(); err != nil {
		return 0, err
	}
	if header == "" {
		return 0, &VersionError{}
	}
	if !strings.HasPrefix(strings.ToLower(header), headerPrefix) {
		return 0, &VersionError{Found: header}
	}
	versionStr := strings.TrimSpace(header[len(headerPrefix):])
	version, err := strconv.Atoi(versionStr)
	if err != nil || !supportedVersion(version) {
		return 0, &VersionError{Found: versionStr}
	}
	return version, nil
}

func (d *decoder) enterSection(name string) {
	d.raw = nil
	for sec, n := range sectionNames {
		if strings.EqualFold(n, name) {
			d.sec = sec
			if sec == secColours {
				d.colours.seen = true
			}
			return
		}
	}
	d.sec = secNone
	d.b.Passthrough = append(d.b.Passthrough, RawSection{Name: name})
	d.raw = &d.b.Passthrough[len(d.b.Passthrough)-1]
}

func (d *decoder) handleLine(line, raw string) error {
	switch d.sec {
	case secNone:
		if d.raw != nil {
			d.raw.Lines = append(d.raw.Lines, raw)
		}
		return nil
	case secEvents:
		return d.handleEvent(line, raw)
	case secTimingPoints:
		return d.handleTimingPoint(line)
	case secHitObjects:
		ho, err := d.parseHitObject(line)
		if err != nil {
			return err
		}
		d.b.HitObjects = append(d.b.HitObjects, ho)
		return nil
	}

	k, v, ok := splitKeyVal(line)
	if !ok {
		return d.errorf("expected \"key: value\" in [%s], got %q", sectionNames[d.sec], line)
	}
	var known bool
	var err error
	switch d.sec {
	case secGeneral:
		known, err = d.handleGeneral(k, v)
	case secEditor:
		known, err = d.handleEditor(k, v)
	case secMetadata:
		known, err = d.handleMetadata(k, v)
	case secDifficulty:
		known, err = d.handleDifficulty(k, v)
	case secColours:
		known, err = true, d.colours.add(&d.b.Colours, k, v)
	}
	if err != nil {
		return d.errorf("%s: %v", k, err)
	}
	if !known {
		d.addExtraKey(line)
	}
	return nil
}

func (d *decoder) addExtraKey(line string) {
	name := sectionNames[d.sec]
	for i := range d.b.ExtraKeys {
		if d.b.ExtraKeys[i].Name == name {
			d.b.ExtraKeys[i].Lines = append(d.b.ExtraKeys[i].Lines, line)
			return
		}
	}
	d.b.ExtraKeys = append(d.b.ExtraKeys, RawSection{Name: name, Lines: []string{line}})
}

func (d *decoder) errorf(format string, a ...any) error {
	return formatErrorf(d.lineNo, format, a...)
}

// ---------- key/value sections ----------

func (d *decoder) handleGeneral(k, v string) (bool, error) {
	g := &d.b.General
	var err error
	switch strings.ToLower(k) {
	case "audiofilename":
		g.AudioFilename = standardisePath(v)
	case "audioleadin":
		g.AudioLeadIn, err = atoi(v)
	case "previewtime":
		g.PreviewTime, err = atoi(v)
		if err == nil && g.PreviewTime != -1 {
			g.PreviewTime += int(d.offset)
		}
	case "sampleset":
		g.SampleSet = strings.ToLower(v)
		if g.SampleSet == "none" {
			g.SampleSet = "normal"
		}
	case "samplevolume":
		g.SampleVolume, err = atoi(v)
	case "stackleniency":
		g.StackLeniency, err = atof(v)
	case "mode":
		g.Mode, err = atoi(v)
	case "letterboxinbreaks":
		g.LetterboxInBreaks = parseBoolInt(v)
	case "specialstyle":
		g.SpecialStyle = parseBoolInt(v)
	case "widescreenstoryboard":
		g.WidescreenStoryboard = parseBoolInt(v)
	case "epilepsywarning":
		g.EpilepsyWarning = parseBoolInt(v)
	case "samplesmatchplaybackrate":
		g.SamplesMatchPlaybackRate = parseBoolInt(v)
	case "countdown":
		g.Countdown, err = atoi(v)
	case "countdownoffset":
		g.CountdownOffset, err = atoi(v)
	default:
		return false, nil
	}
	return true, err
}

func (d *decoder) handleEditor(k, v string) (bool, error) {
	e := &d.b.Editor
	var err error
	switch strings.ToLower(k) {
	case "bookmarks":
		e.Bookmarks = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p == "" {
				continue
			}
			n, err := atoi(p)
			if err != nil {
				return true, err
			}
			e.Bookmarks = append(e.Bookmarks, n)
		}
	case "distancespacing":
		e.DistanceSpacing, err = atof(v)
	case "beatdivisor":
		e.BeatDivisor, err = atoi(v)
		e.BeatDivisor = clampInt(e.BeatDivisor, 1, 16)
	case "gridsize":
		e.GridSize, err = atoi(v)
	case "timelinezoom":
		e.TimelineZoom, err = atof(v)
		e.TimelineZoom = math.Max(0, e.TimelineZoom)
	default:
		return false, nil
	}
	return true, err
}

func (d *decoder) handleMetadata(k, v string) (bool, error) {
	m := &d.b.Metadata
	var err error
	switch strings.ToLower(k) {
	case "title":
		m.Title = v
	case "titleunicode":
		m.TitleUnicode = v
	case "artist":
		m.Artist = v
	case "artistunicode":
		m.ArtistUnicode = v
	case "creator":
		m.Creator = v
	case "version":
		m.Version = v
	case "source":
		m.Source = v
	case "tags":
		m.Tags = v
	case "beatmapid":
		m.BeatmapID, err = atoi(v)
	case "beatmapsetid":
		m.BeatmapSetID, err = atoi(v)
	default:
		return false, nil
	}
	return true, err
}

func (d *decoder) handleDifficulty(k, v string) (bool, error) {
	diff := &d.b.Difficulty
	var err error
	switch strings.ToLower(k) {
	case "hpdrainrate":
		diff.HPDrainRate, err = atof(v)
	case "circlesize":
		diff.CircleSize, err = atof(v)
	case "overalldifficulty":
		diff.OverallDifficulty, err = atof(v)
	case "approachrate":
		diff.ApproachRate, err = atof(v)
		d.seenAR = true
	case "slidermultiplier":
		diff.SliderMultiplier, err = atof(v)
	case "slidertickrate":
		diff.SliderTickRate, err = atof(v)
	default:
		return false, nil
	}
	return true, err
}

// ---------- [Events] ----------

func (d *decoder) handleEvent(line, raw string) error {
	ev := &d.b.Events
	parts := splitCSV(line)
	switch strings.ToLower(parts[0]) {
	case "0", "background":
		if len(parts) >= 3 {
			ev.BackgroundFile = cleanFilename(parts[2])
			return nil
		}
	case "1", "video":
		if len(parts) >= 3 {
			offset, err := atoi(parts[1])
			if err != nil {
				return d.errorf("video offset: %v", err)
			}
			fn := cleanFilename(parts[2])
			switch strings.ToLower(filepath.Ext(fn)) {
			case ".avi", ".flv", ".mp4", ".mkv", ".mov", ".wmv", ".mpg", ".mpeg", ".ogv", ".webm", ".m4v", ".f4v":
				ev.VideoFile = fn
				ev.VideoOffset = offset
			default:
				// some maps list their background image as a video.
				ev.BackgroundFile = fn
			}
			return nil
		}
	case "2", "break":
		if len(parts) >= 3 {
			start, err1 := atof(parts[1])
			end, err2 := atof(parts[2])
			if err1 != nil || err2 != nil {
				return d.errorf("malformed break %q", line)
			}
			start += d.offset
			end = math.Max(start, end+d.offset)
			ev.Breaks = append(ev.Breaks, BreakPeriod{Start: start, End: end})
			return nil
		}
	}
	ev.Unhandled = append(ev.Unhandled, raw)
	return nil
}

// ---------- parsing helpers ----------

func splitKeyVal(line string) (key, val string, ok bool) {
	i := strings.Index(line, ":")
	if i < 0 {
		return strings.TrimSpace(line), "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}

func atoi(s string) (int, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.Atoi(s)
	if err != nil {
		// some editors wrote integral fields as floats.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("invalid integer %q", s)
		}
		return int(f), nil
	}
	return v, nil
}

func atof(s string) (float64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

func parseFloatAllowNaN(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	return atof(s)
}

func parseBoolInt(s string) bool { return strings.TrimSpace(s) == "1" }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
func standardisePath(p string) string {
	p = strings.Trim(p, "\"")
	return strings.ReplaceAll(p, "\\", "/")
}
func cleanFilename(s string) string {
	s = strings.Trim(s, "\"")
	return strings.ReplaceAll(s, "\\", "/")
}

func splitCSV(line string) []string {
	var out []string
	var cur strings.Builder
	inQ := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch c {
		case '"':
			inQ = !inQ
			cur.WriteByte(c)
		case ',':
			if inQ {
				cur.WriteByte(c)
			} else {
				out = append(out, strings.TrimSpace(cur.String()))
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	out = append(out, strings.TrimSpace(cur.String()))
	return out
}
func splitCSVPreserveTail(line string, n int) []string {
	parts := splitCSV(line)
	if len(parts) <= n {
		return parts
	}
	head := parts[:n-1]
	tail := strings.Join(parts[n-1:], ",")
	return append(head, tail)
}
