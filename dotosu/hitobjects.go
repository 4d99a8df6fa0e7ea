package dotosu

// ---------- HitObject enums & typed variants ----------

type ObjectKind uint8

const (
	KindCircle ObjectKind = iota
	KindSlider
	KindSpinner
	KindHold
)

func (k ObjectKind) String() string {
	switch k {
	case KindSlider:
		return "slider"
	case KindSpinner:
		return "spinner"
	case KindHold:
		return "hold"
	}
	return "circle"
}

type HitSoundFlags uint8

const (
	HitSoundNormal  HitSoundFlags = 1 << iota // 1
	HitSoundWhistle                           // 2
	HitSoundFinish                            // 4
	HitSoundClap                              // 8
)

type SampleSet uint8

const (
	SampleNone SampleSet = iota
	SampleNormal
	SampleSoft
	SampleDrum
)

type HitObjectTypeFlags int

const (
	TypeCircle     HitObjectTypeFlags = 1 << iota // 1
	TypeSlider                                    // 2
	TypeNewCombo                                  // 4
	TypeSpinner                                   // 8
	TypeComboSkip1                                // 16
	TypeComboSkip2                                // 32
	TypeComboSkip3                                // 64
	TypeHold       HitObjectTypeFlags = 1 << 7    // 128

	typeKindMask = TypeCircle | TypeSlider | TypeSpinner | TypeHold
)

// ComboOffset is the number of combo colours skipped at a new combo.
func (f HitObjectTypeFlags) ComboOffset() int {
	return int(f&(TypeComboSkip1|TypeComboSkip2|TypeComboSkip3)) >> 4
}

func kindFlag(k ObjectKind) HitObjectTypeFlags {
	switch k {
	case KindSlider:
		return TypeSlider
	case KindSpinner:
		return TypeSpinner
	case KindHold:
		return TypeHold
	}
	return TypeCircle
}

type HitSampleSpec struct {
	NormalSet   SampleSet
	AdditionSet SampleSet
	Index       int // custom sample bank
	Volume      int
	Filename    string
}

type EdgeAdd struct {
	NormalSet   SampleSet
	AdditionSet SampleSet
}

type HitObject interface {
	Kind() ObjectKind
	StartTime() float64
	NewCombo() bool
	Flags() HitObjectTypeFlags
	Pos() Vec2
	HitSound() HitSoundFlags
	Sample() HitSampleSpec
}

type BaseHO struct {
	PosXY    Vec2
	Time     float64
	Type     HitObjectTypeFlags
	Sound    HitSoundFlags
	SampleHS HitSampleSpec
}

func (b BaseHO) StartTime() float64        { return b.Time }
func (b BaseHO) NewCombo() bool            { return (b.Type & TypeNewCombo) != 0 }
func (b BaseHO) Flags() HitObjectTypeFlags { return b.Type }
func (b BaseHO) Pos() Vec2                 { return b.PosXY }
func (b BaseHO) HitSound() HitSoundFlags   { return b.Sound }
func (b BaseHO) Sample() HitSampleSpec     { return b.SampleHS }

type Circle struct{ BaseHO }

func (Circle) Kind() ObjectKind { return KindCircle }

type Slider struct {
	BaseHO
	Path          SliderPath
	Slides        int
	EdgeSounds    []HitSoundFlags // len == Slides+1 when present (head, repeats..., tail)
	EdgeAdditions []EdgeAdd       // len == Slides+1 when present
}

func (Slider) Kind() ObjectKind { return KindSlider }

type Spinner struct {
	BaseHO
	EndTime float64
}

func (Spinner) Kind() ObjectKind { return KindSpinner }

type Hold struct {
	BaseHO
	EndTime float64
}

func (Hold) Kind() ObjectKind { return KindHold }
