package mapping

import (
	"unicode/utf8"

	"github.com/walteh/gosvelte/pkg/capability"
	"github.com/walteh/gosvelte/pkg/position"
	"github.com/walteh/gosvelte/pkg/sourcemap"
)

type anchor struct {
	gen int
	src int
}

// Reconcile expands point-wise source map segments into validated ranges.
//
// Every span between two consecutive segments, starting at a segment that carries a
// source position, is a candidate range. A candidate is only kept for as long as the
// generated text and the original text agree byte for byte; the first difference ends
// it and the rest of the span stays unmapped. Adjacent kept ranges are merged.
//
// baseOffset is the length of text prepended to generated after the map was produced;
// it shifts every generated coordinate of the result. Columns of the segments are read
// in enc units.
func Reconcile(original, generated string, lines [][]sourcemap.Segment, baseOffset int, enc position.Encoding) List {
	var (
		out    List
		srcIdx = position.NewIndex(original)
		genIdx = position.NewIndex(generated)
		open   *anchor
	)

	for line, segments := range lines {
		for _, seg := range segments {
			genOffset := genIdx.OffsetAt(position.Place{Line: line, Character: seg.GeneratedColumn}, enc)

			if open != nil {
				if n := agreeingPrefix(original, generated, *open, genOffset-open.gen); n > 0 {
					out = out.appendRun(*open, n, baseOffset)
				}
				open = nil
			}

			// only source 0 is the composite document
			if seg.HasSource && seg.SourceIndex == 0 {
				open = &anchor{
					gen: genOffset,
					src: srcIdx.OffsetAt(position.Place{Line: seg.SourceLine, Character: seg.SourceColumn}, enc),
				}
			}
		}
	}

	return out
}

// agreeingPrefix returns how many bytes of the run of length n starting at a are equal
// in both texts, never splitting a rune.
func agreeingPrefix(original, generated string, a anchor, n int) int {
	if n <= 0 {
		return 0
	}
	gen := generated[a.gen:min(a.gen+n, len(generated))]
	src := original[a.src:min(a.src+n, len(original))]
	if len(gen) == n && gen == src {
		return n
	}

	common := 0
	for common < len(gen) && common < len(src) && gen[common] == src[common] {
		common++
	}
	for common > 0 && !boundary(gen, common) {
		common--
	}
	for common > 0 && !boundary(src, common) {
		common--
	}
	return common
}

func boundary(s string, i int) bool {
	return i >= len(s) || utf8.RuneStart(s[i])
}

func (me List) appendRun(a anchor, n, baseOffset int) List {
	if len(me) > 0 {
		last := &me[len(me)-1]
		if last.Generated.End == baseOffset+a.gen && last.Source.End == a.src {
			last.Generated.End += n
			last.Source.End += n
			return me
		}
	}
	return append(me, Entry{
		Source:    position.NewSpan(a.src, a.src+n),
		Generated: position.NewSpan(baseOffset+a.gen, baseOffset+a.gen+n),
		Data:      capability.Full,
	})
}
