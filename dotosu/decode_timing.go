package dotosu

import (
	"math"
	"strings"
)

const (
	effectKiai             = 1
	effectOmitFirstBarLine = 8
)

// handleTimingPoint decodes
// time,beatLength[,meter,sampleSet,sampleIndex,volume,uninherited,effects].
func (d *decoder) handleTimingPoint(line string) error {
	parts := splitCSV(line)
	if len(parts) < 2 {
		return d.errorf("timing point needs at least 2 fields, got %q", line)
	}
	t, err := atof(parts[0])
	if err != nil {
		return d.errorf("timing point time: %v", err)
	}
	t += d.offset
	beatLen, err := parseFloatAllowNaN(parts[1])
	if err != nil {
		return d.errorf("timing point beat length: %v", err)
	}

	meter := 4
	if len(parts) >= 3 && parts[2] != "" && !strings.HasPrefix(parts[2], "0") {
		if meter, err = atoi(parts[2]); err != nil {
			return d.errorf("timing point meter: %v", err)
		}
	}
	bank := sampleBankName(sampleBankID(d.b.General.SampleSet))
	if len(parts) >= 4 {
		id, err := atoi(parts[3])
		if err != nil {
			return d.errorf("timing point sample set: %v", err)
		}
		if id != 0 {
			bank = sampleBankName(id)
		}
	}
	custom := 0
	if len(parts) >= 5 {
		if custom, err = atoi(parts[4]); err != nil {
			return d.errorf("timing point sample index: %v", err)
		}
	}
	volume := d.b.General.SampleVolume
	if len(parts) >= 6 {
		if volume, err = atoi(parts[5]); err != nil {
			return d.errorf("timing point volume: %v", err)
		}
	}
	uninherited := true
	if len(parts) >= 7 {
		uninherited = strings.HasPrefix(parts[6], "1")
	}
	effects := 0
	if len(parts) >= 8 {
		if effects, err = atoi(parts[7]); err != nil {
			return d.errorf("timing point effects: %v", err)
		}
	}

	var tp *TimingPoint
	dp := DifficultyPoint{SliderVelocity: 1, GenerateTicks: !math.IsNaN(beatLen)}
	if uninherited {
		if math.IsNaN(beatLen) {
			return d.errorf("beat length cannot be NaN in a timing point")
		}
		tp = &TimingPoint{
			BeatLength:       beatLen,
			TimeSignature:    meter,
			OmitFirstBarLine: effects&effectOmitFirstBarLine != 0,
		}
	} else if beatLen < 0 {
		dp.SliderVelocity = clampVelocity(100.0 / -beatLen)
	}

	g := d.b.ControlPoints.GroupAt(t)
	g.applyLine(tp, dp,
		SamplePoint{Bank: bank, CustomIndex: custom, Volume: volume},
		EffectPoint{Kiai: effects&effectKiai != 0},
	)
	return nil
}

func sampleBankName(id int) string {
	switch id {
	case 2:
		return "soft"
	case 3:
		return "drum"
	default:
		return "normal"
	}
}

func sampleBankID(name string) int {
	switch strings.ToLower(name) {
	case "soft":
		return 2
	case "drum":
		return 3
	default:
		return 1
	}
}
