package dotosu

import (
	"fmt"
	"strconv"
	"strings"
)

type Colour struct{ R, G, B, A uint8 }

func (c Colour) String() string {
	if c.A == 255 {
		return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
	}
	return fmt.Sprintf("%d,%d,%d,%d", c.R, c.G, c.B, c.A)
}

type NamedColour struct {
	Name   string
	Colour Colour
}

// StyleSource supplies the combo colour cycle of a chart's paired skin.
// ok is false when no combo colours are defined at all.
type StyleSource interface {
	ComboColours() (colours []Colour, ok bool)
}

// StyleSink receives a combo colour cycle.
type StyleSink interface {
	SetComboColours(colours []Colour, ok bool)
}

// Colours is the style metadata carried in a [Colours] section.
type Colours struct {
	Combo []Colour
	// ComboDefined distinguishes "no combo colours" from "an empty list".
	ComboDefined bool
	Custom       []NamedColour
}

func (c *Colours) ComboColours() ([]Colour, bool) {
	if c == nil || !c.ComboDefined {
		return nil, false
	}
	return c.Combo, true
}

func (c *Colours) SetComboColours(colours []Colour, ok bool) {
	c.ComboDefined = ok
	if !ok {
		c.Combo = nil
		return
	}
	c.Combo = append(make([]Colour, 0, len(colours)), colours...)
}

// CustomColour returns the named colour, if set.
func (c *Colours) CustomColour(name string) (Colour, bool) {
	for _, nc := range c.Custom {
		if strings.EqualFold(nc.Name, name) {
			return nc.Colour, true
		}
	}
	return Colour{}, false
}

func (c *Colours) setCustom(name string, col Colour) {
	for i := range c.Custom {
		if strings.EqualFold(c.Custom[i].Name, name) {
			c.Custom[i].Colour = col
			return
		}
	}
	c.Custom = append(c.Custom, NamedColour{Name: name, Colour: col})
}

// colourSection accumulates ComboN lines, which may appear out of order.
type colourSection struct {
	combos  map[int]Colour
	seen    bool
	entries int
}

func (s *colourSection) add(out *Colours, key, val string) error {
	col, err := parseColour(val)
	if err != nil {
		return err
	}
	s.entries++
	if n, ok := comboIndex(key); ok {
		if s.combos == nil {
			s.combos = make(map[int]Colour)
		}
		s.combos[n] = col
		return nil
	}
	out.setCustom(key, col)
	return nil
}

func (s *colourSection) finish(out *Colours) {
	if !s.seen {
		return
	}
	if len(s.combos) == 0 {
		// an empty section defines an empty cycle; one with only custom colours defines none.
		if s.entries == 0 {
			out.SetComboColours(nil, true)
		}
		return
	}
	maxN := 0
	for n := range s.combos {
		maxN = max(maxN, n)
	}
	cols := make([]Colour, 0, len(s.combos))
	for n := 1; n <= maxN; n++ {
		if c, ok := s.combos[n]; ok {
			cols = append(cols, c)
		}
	}
	out.SetComboColours(cols, true)
}

func comboIndex(key string) (int, bool) {
	if len(key) <= 5 || !strings.EqualFold(key[:5], "combo") {
		return 0, false
	}
	n, err := strconv.Atoi(key[5:])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func parseColour(s string) (Colour, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return Colour{}, fmt.Errorf("colour %q must have 3 or 4 components", s)
	}
	var comps [4]uint8
	comps[3] = 255
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Colour{}, fmt.Errorf("colour %q: %w", s, err)
		}
		comps[i] = uint8(clampInt(v, 0, 255))
	}
	return Colour{R: comps[0], G: comps[1], B: comps[2], A: comps[3]}, nil
}
