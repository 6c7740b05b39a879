package sourcemap

import (
	"strings"
	"unicode/utf8"

	"github.com/walteh/gosvelte/pkg/position"
)

// Builder assembles generated code together with its segments, one piece at a time.
type Builder struct {
	enc   position.Encoding
	code  strings.Builder
	lines [][]Segment
	col   int
}

func NewBuilder(enc position.Encoding) *Builder {
	return &Builder{enc: enc, lines: [][]Segment{nil}}
}

// Mapped appends text that originates at src in the source document.
func (me *Builder) Mapped(text string, src position.Place) *Builder {
	me.mark(Mapped(me.col, src.Line, src.Character))
	me.write(text)
	return me
}

// Unmapped appends synthesized text.
func (me *Builder) Unmapped(text string) *Builder {
	me.mark(Point(me.col))
	me.write(text)
	return me
}

// End marks the current position, closing the previous piece.
func (me *Builder) End() *Builder {
	me.mark(Point(me.col))
	return me
}

func (me *Builder) String() string {
	return me.code.String()
}

func (me *Builder) Lines() [][]Segment {
	out := make([][]Segment, len(me.lines))
	for i, l := range me.lines {
		out[i] = append([]Segment(nil), l...)
	}
	return out
}

func (me *Builder) mark(seg Segment) {
	last := len(me.lines) - 1
	me.lines[last] = append(me.lines[last], seg)
}

func (me *Builder) write(text string) {
	me.code.WriteString(text)
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case r == '\r' && i+1 < len(text) && text[i+1] == '\n':
		case r == '\r' || r == '\n':
			me.lines = append(me.lines, nil)
			me.col = 0
		default:
			me.col += me.enc.Units(r, size)
		}
		i += size
	}
}
