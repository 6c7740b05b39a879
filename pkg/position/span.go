package position

import "fmt"

// Span is a half-open byte range [Start,End).
type Span struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

func NewSpan(start, end int) Span {
	return Span{Start: start, End: end}
}

func (s Span) Len() int {
	return s.End - s.Start
}

// Contains reports whether offset falls inside the span, end inclusive so a cursor
// placed right after the last character still resolves.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset <= s.End
}

func (s Span) Valid(length int) bool {
	return 0 <= s.Start && s.Start <= s.End && s.End <= length
}

func (s Span) Of(text string) string {
	return text[s.Start:s.End]
}

// Overlaps reports whether two spans share at least one byte. A zero-length span
// overlaps when it falls within (or on the boundary of) the other one.
func (s Span) Overlaps(other Span) bool {
	if s.Len() == 0 {
		return s.Start >= other.Start && s.Start <= other.End
	}
	if other.Len() == 0 {
		return other.Start >= s.Start && other.Start <= s.End
	}
	return other.Start < s.End && other.End > s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}
