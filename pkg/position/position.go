package position

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"gitlab.com/tozd/go/errors"
)

// Place is a zero-based line/character pair. What a "character" is depends on the
// Encoding used to produce it.
type Place struct {
	Line      int `json:"line" yaml:"line"`
	Character int `json:"character" yaml:"character"`
}

func (p Place) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

type Range struct {
	Start Place `json:"start" yaml:"start"`
	End   Place `json:"end" yaml:"end"`
}

// Encoding names the unit a Place.Character counts, using the LSP position
// encoding kinds.
type Encoding string

const (
	EncodingUTF8  Encoding = "utf-8"
	EncodingUTF16 Encoding = "utf-16"
	EncodingUTF32 Encoding = "utf-32"
)

func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case EncodingUTF8, EncodingUTF16, EncodingUTF32:
		return Encoding(s), nil
	case "":
		return EncodingUTF16, nil
	}
	return "", errors.Errorf("unknown position encoding %q", s)
}

// Units returns how many characters of this encoding a rune of byte width size occupies
func (e Encoding) Units(r rune, size int) int {
	switch e {
	case EncodingUTF8:
		return size
	case EncodingUTF32:
		return 1
	default:
		if r >= 0x10000 {
			return 2
		}
		return 1
	}
}

// Index converts between byte offsets and line/character places for a fixed text.
type Index struct {
	text  string
	lines []int
}

func NewIndex(text string) *Index {
	lines := []int{0}
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			lines = append(lines, i+1)
		case '\n':
			lines = append(lines, i+1)
		}
	}
	return &Index{text: text, lines: lines}
}

func (me *Index) LineCount() int {
	return len(me.lines)
}

// OffsetAt returns the byte offset of a place. Lines past the end resolve to the end
// of the text, characters past the end of a line resolve to the end of that line
// (before its line break).
func (me *Index) OffsetAt(p Place, enc Encoding) int {
	if p.Line >= len(me.lines) {
		return len(me.text)
	}
	if p.Line < 0 {
		return 0
	}
	lineStart := me.lines[p.Line]
	if p.Character <= 0 {
		return lineStart
	}
	lineEnd := len(me.text)
	if p.Line+1 < len(me.lines) {
		lineEnd = me.lines[p.Line+1]
	}

	offset := lineStart
	count := 0
	for offset < lineEnd && count < p.Character {
		r, size := utf8.DecodeRuneInString(me.text[offset:])
		w := enc.Units(r, size)
		if count+w > p.Character {
			break
		}
		count += w
		offset += size
	}

	for offset > lineStart && isEOL(me.text[offset-1]) {
		offset--
	}
	return offset
}

// PlaceAt returns the place of a byte offset, clamped to the text.
func (me *Index) PlaceAt(offset int, enc Encoding) Place {
	if offset < 0 {
		offset = 0
	}
	if offset > len(me.text) {
		offset = len(me.text)
	}
	line := sort.Search(len(me.lines), func(i int) bool { return me.lines[i] > offset }) - 1
	lineStart := me.lines[line]

	character := 0
	for i := lineStart; i < offset; {
		r, size := utf8.DecodeRuneInString(me.text[i:])
		if i+size > offset {
			break
		}
		character += enc.Units(r, size)
		i += size
	}
	return Place{Line: line, Character: character}
}

func (me *Index) RangeOf(span Span, enc Encoding) Range {
	return Range{Start: me.PlaceAt(span.Start, enc), End: me.PlaceAt(span.End, enc)}
}

func isEOL(b byte) bool {
	return b == '\n' || b == '\r'
}

// GetLineAndColumn calculates the zero-based line and byte column of an offset.
func GetLineAndColumn(text string, offset int) (line, col int) {
	p := NewIndex(text).PlaceAt(offset, EncodingUTF8)
	return p.Line, p.Character
}
