// Package mapping correlates ranges of a composite document with ranges of a virtual
// document derived from it.
package mapping

import (
	"fmt"
	"sort"

	"github.com/walteh/gosvelte/pkg/capability"
	"github.com/walteh/gosvelte/pkg/position"
	"gitlab.com/tozd/go/errors"
)

// Entry maps Source (in the parent document) to Generated (in the virtual document).
// Data is the set of capabilities that may be forwarded through this range.
type Entry struct {
	Source    position.Span  `json:"source" yaml:"source"`
	Generated position.Span  `json:"generated" yaml:"generated"`
	Data      capability.Set `json:"data" yaml:"data"`
}

func (e Entry) String() string {
	return fmt.Sprintf("%s->%s(%s)", e.Source, e.Generated, e.Data)
}

// List is ordered by Generated.Start.
type List []Entry

// Identity maps [start,end) of the parent onto [0,end-start) of a virtual document
// holding exactly that text.
func Identity(start, end int, data capability.Set) List {
	return List{{
		Source:    position.NewSpan(start, end),
		Generated: position.NewSpan(0, end-start),
		Data:      data,
	}}
}

// ToGenerated translates a source offset into the generated document through the
// first entry that contains it and carries any of want.
func (me List) ToGenerated(offset int, want capability.Set) (int, bool) {
	for _, e := range me {
		if !e.Data.Any(want) || !e.Source.Contains(offset) {
			continue
		}
		return e.Generated.Start + (offset - e.Source.Start), true
	}
	return 0, false
}

// ToSource translates a generated offset back into the source document. An offset on
// the boundary of two adjacent entries resolves through the one starting there.
func (me List) ToSource(offset int, want capability.Set) (int, bool) {
	// walk back from the last entry starting at or before offset
	i := sort.Search(len(me), func(i int) bool { return me[i].Generated.Start > offset })
	for i--; i >= 0; i-- {
		e := me[i]
		if e.Generated.End < offset {
			break
		}
		if e.Data.Any(want) && e.Generated.Contains(offset) {
			return e.Source.Start + (offset - e.Generated.Start), true
		}
	}
	return 0, false
}

// ToSourceSpan translates both ends of a generated span. It fails when either end
// falls outside the mapped ranges.
func (me List) ToSourceSpan(span position.Span, want capability.Set) (position.Span, bool) {
	start, ok := me.ToSource(span.Start, want)
	if !ok {
		return position.Span{}, false
	}
	end, ok := me.ToSource(span.End, want)
	if !ok || end < start {
		return position.Span{}, false
	}
	return position.NewSpan(start, end), true
}

func (me List) ToGeneratedSpan(span position.Span, want capability.Set) (position.Span, bool) {
	start, ok := me.ToGenerated(span.Start, want)
	if !ok {
		return position.Span{}, false
	}
	end, ok := me.ToGenerated(span.End, want)
	if !ok || end < start {
		return position.Span{}, false
	}
	return position.NewSpan(start, end), true
}

// Validate checks the range, ordering and (optionally) content invariants of the list
// against the two texts it relates.
func (me List) Validate(source, generated string, checkContent bool) error {
	for i, e := range me {
		if !e.Source.Valid(len(source)) {
			return errors.Errorf("entry %d: source span %s out of bounds (len %d)", i, e.Source, len(source))
		}
		if !e.Generated.Valid(len(generated)) {
			return errors.Errorf("entry %d: generated span %s out of bounds (len %d)", i, e.Generated, len(generated))
		}
		if i > 0 {
			prev := me[i-1]
			if e.Generated.Start < prev.Generated.Start {
				return errors.Errorf("entry %d: generated start %d before previous start %d", i, e.Generated.Start, prev.Generated.Start)
			}
			if e.Generated.Start < prev.Generated.End {
				return errors.Errorf("entry %d: generated span %s overlaps previous %s", i, e.Generated, prev.Generated)
			}
		}
		if checkContent && e.Source.Of(source) != e.Generated.Of(generated) {
			return errors.Errorf("entry %d: %q does not match %q", i, e.Source.Of(source), e.Generated.Of(generated))
		}
	}
	return nil
}
