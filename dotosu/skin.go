package dotosu

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Skin is the part of a skin.ini the codec cares about: identity and colours.
// Other sections and keys are kept so a decoded skin can be written back.
type Skin struct {
	Name    string
	Author  string
	Version string
	Colours Colours

	// Extra holds unrecognised sections and keys, grouped by section name.
	Extra []RawSection
}

func (s *Skin) ComboColours() ([]Colour, bool) { return s.Colours.ComboColours() }

func (s *Skin) SetComboColours(colours []Colour, ok bool) {
	s.Colours.SetComboColours(colours, ok)
}

func DecodeSkinFile(path string) (*Skin, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeSkin(f)
}

// DecodeSkin reads a skin.ini. Unlike charts it has no version header.
func DecodeSkin(r io.Reader) (*Skin, error) {
	sc := bufio.NewScanner(r)
	s := &Skin{}
	var (
		lineNo  int
		sec     = "General"
		raw     = -1 // index into s.Extra of the current unknown section
		colours colourSection
	)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			sec, raw = line[1 : len(line)-1], -1
			switch {
			case strings.EqualFold(sec, "colours"):
				colours.seen = true
			case !strings.EqualFold(sec, "general"):
				// sections such as [Mania] repeat, so each occurrence is kept on its own.
				s.Extra = append(s.Extra, RawSection{Name: sec})
				raw = len(s.Extra) - 1
			}
			continue
		}
		if raw >= 0 {
			s.Extra[raw].Lines = append(s.Extra[raw].Lines, line)
			continue
		}
		k, v, ok := splitKeyVal(line)
		if !ok {
			return nil, formatErrorf(lineNo, "expected \"key: value\" in [%s], got %q", sec, line)
		}
		switch {
		case strings.EqualFold(sec, "general") && strings.EqualFold(k, "name"):
			s.Name = v
		case strings.EqualFold(sec, "general") && strings.EqualFold(k, "author"):
			s.Author = v
		case strings.EqualFold(sec, "general") && strings.EqualFold(k, "version"):
			s.Version = v
		case strings.EqualFold(sec, "colours"):
			if err := colours.add(&s.Colours, k, v); err != nil {
				return nil, formatErrorf(lineNo, "%s: %v", k, err)
			}
		default:
			s.addGeneralExtra(line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	colours.finish(&s.Colours)
	return s, nil
}

// addGeneralExtra keeps an unknown [General] key; it is always written back
// inside [General], ahead of the other unknown sections.
func (s *Skin) addGeneralExtra(line string) {
	for i := range s.Extra {
		if s.Extra[i].Name == "General" {
			s.Extra[i].Lines = append(s.Extra[i].Lines, line)
			return
		}
	}
	s.Extra = append(s.Extra, RawSection{Name: "General", Lines: []string{line}})
}

func (s *Skin) generalExtra() []string {
	for _, rs := range s.Extra {
		if rs.Name == "General" {
			return rs.Lines
		}
	}
	return nil
}

// EncodeSkin writes s as a skin.ini.
func EncodeSkin(w io.Writer, s *Skin) error {
	combo, defined := s.Colours.ComboColours()
	if defined && len(combo) == 0 && len(s.Colours.Custom) > 0 {
		return &ValidationError{Reason: "an empty combo colour list cannot be written next to custom colours"}
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "[General]\n")
	if s.Name != "" {
		fmt.Fprintf(bw, "Name: %s\n", s.Name)
	}
	if s.Author != "" {
		fmt.Fprintf(bw, "Author: %s\n", s.Author)
	}
	if s.Version != "" {
		fmt.Fprintf(bw, "Version: %s\n", s.Version)
	}
	for _, l := range s.generalExtra() {
		fmt.Fprintf(bw, "%s\n", l)
	}
	if defined || len(s.Colours.Custom) > 0 {
		fmt.Fprintf(bw, "\n[Colours]\n")
		for i, c := range combo {
			fmt.Fprintf(bw, "Combo%d: %s\n", i+1, c)
		}
		for _, nc := range s.Colours.Custom {
			fmt.Fprintf(bw, "%s: %s\n", nc.Name, nc.Colour)
		}
	}
	for _, rs := range s.Extra {
		if rs.Name == "General" {
			continue
		}
		fmt.Fprintf(bw, "\n[%s]\n", rs.Name)
		for _, l := range rs.Lines {
			fmt.Fprintf(bw, "%s\n", l)
		}
	}
	return bw.Flush()
}
