package dotosu

const (
	EARLY_VERSION_TIMING_OFFSET = 24
	MAX_MANIA_KEY_COUNT         = 18
	LATEST_VERSION              = 14
	FIRST_LAZER_VERSION         = 128
)

type section int

const (
	secNone section = iota
	secGeneral
	secEditor
	secMetadata
	secDifficulty
	secEvents
	secTimingPoints
	secColours
	secHitObjects
)

var sectionNames = map[section]string{
	secGeneral:      "General",
	secEditor:       "Editor",
	secMetadata:     "Metadata",
	secDifficulty:   "Difficulty",
	secEvents:       "Events",
	secTimingPoints: "TimingPoints",
	secColours:      "Colours",
	secHitObjects:   "HitObjects",
}

// ---------- Beatmap model ----------

type Beatmap struct {
	FormatVersion int
	General       General
	Editor        Editor
	Metadata      Metadata
	Difficulty    Difficulty
	Events        Events

	ControlPoints ControlPointInfo
	HitObjects    []HitObject
	Colours       Colours

	// Passthrough holds unrecognised sections verbatim, in file order.
	Passthrough []RawSection
	// ExtraKeys holds unrecognised "key: value" lines of known sections.
	ExtraKeys []RawSection

	// Truncated is set when the decoder dropped a fractional part from a coordinate.
	Truncated bool
}

// RawSection is a section (or part of one) the codec does not interpret.
type RawSection struct {
	Name  string
	Lines []string
}

type General struct {
	AudioFilename            string
	AudioLeadIn              int
	PreviewTime              int
	SampleSet                string
	SampleVolume             int
	StackLeniency            float64
	Mode                     int
	LetterboxInBreaks        bool
	SpecialStyle             bool
	WidescreenStoryboard     bool
	EpilepsyWarning          bool
	SamplesMatchPlaybackRate bool
	Countdown                int
	CountdownOffset          int
}

type Editor struct {
	Bookmarks       []int
	DistanceSpacing float64
	BeatDivisor     int
	GridSize        int
	TimelineZoom    float64
}

type Metadata struct {
	Title, TitleUnicode            string
	Artist, ArtistUnicode          string
	Creator, Version, Source, Tags string
	BeatmapID, BeatmapSetID        int
}

type Difficulty struct {
	HPDrainRate, CircleSize, OverallDifficulty, ApproachRate float64
	SliderMultiplier, SliderTickRate                         float64
}

type Events struct {
	BackgroundFile string
	VideoFile      string
	VideoOffset    int
	Breaks         []BreakPeriod
	// Unhandled keeps storyboard and other event lines as written.
	Unhandled []string
}

type BreakPeriod struct{ Start, End float64 }

// NewBeatmap returns a beatmap populated with the format's defaults.
func NewBeatmap() *Beatmap {
	return &Beatmap{
		FormatVersion: LATEST_VERSION,
		General: General{
			SampleSet:     "normal",
			SampleVolume:  100,
			StackLeniency: 0.7,
			PreviewTime:   -1,
			Countdown:     1,
		},
		Editor: Editor{BeatDivisor: 4, GridSize: 4, TimelineZoom: 1},
		Difficulty: Difficulty{
			HPDrainRate:       5,
			CircleSize:        5,
			OverallDifficulty: 5,
			ApproachRate:      5,
			SliderMultiplier:  1.4,
			SliderTickRate:    1,
		},
	}
}

func applyDifficultyRestrictions(d *Difficulty) {
	d.HPDrainRate = clampFloat(d.HPDrainRate, 0, 10)
	d.OverallDifficulty = clampFloat(d.OverallDifficulty, 0, 10)
	d.ApproachRate = clampFloat(d.ApproachRate, 0, 10)
	// key counts share the CircleSize field, so the upper bound covers both.
	d.CircleSize = clampFloat(d.CircleSize, 0, MAX_MANIA_KEY_COUNT)
	d.SliderMultiplier = clampFloat(d.SliderMultiplier, 0.4, 3.6)
	d.SliderTickRate = clampFloat(d.SliderTickRate, 0.5, 8.0)
}

func supportedVersion(v int) bool {
	return (v >= 1 && v <= LATEST_VERSION) || v == FIRST_LAZER_VERSION
}
