package dotosu

import "fmt"

// FormatError reports a line that does not fit the grammar of its section.
type FormatError struct {
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// VersionError reports a missing or unsupported "osu file format" header.
type VersionError struct {
	Found string
}

func (e *VersionError) Error() string {
	if e.Found == "" {
		return "missing osu file format header"
	}
	return fmt.Sprintf("unsupported osu file format version %q", e.Found)
}

// ValidationError reports a model the encoder cannot represent.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid beatmap: " + e.Reason
}

func formatErrorf(line int, format string, a ...any) *FormatError {
	return &FormatError{Line: line, Reason: fmt.Sprintf(format, a...)}
}
