// Package sourcemap decodes the "mappings" field of a version 3 source map into
// per-generated-line segments.
package sourcemap

import (
	"sort"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Segment is one decoded mapping point. Columns and lines are zero-based; GeneratedColumn
// is absolute within its generated line.
type Segment struct {
	GeneratedColumn int
	HasSource       bool
	SourceIndex     int
	SourceLine      int
	SourceColumn    int
	HasName         bool
	NameIndex       int
}

// Point builds a segment carrying only a generated column.
func Point(genCol int) Segment {
	return Segment{GeneratedColumn: genCol}
}

// Mapped builds a segment carrying a source position in source 0.
func Mapped(genCol, srcLine, srcCol int) Segment {
	return Segment{GeneratedColumn: genCol, HasSource: true, SourceLine: srcLine, SourceColumn: srcCol}
}

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var base64Values = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(base64Chars); i++ {
		t[base64Chars[i]] = int8(i)
	}
	return t
}()

// Decode expands a mappings string. Segments of each line are sorted by generated
// column. Field deltas follow the v3 rules: the generated column resets per line, the
// remaining fields accumulate over the whole string.
func Decode(mappings string) ([][]Segment, error) {
	var (
		lines                         [][]Segment
		srcIndex, srcLine, srcCol, nm int
	)

	for lineNo, line := range strings.Split(mappings, ";") {
		genCol := 0
		var segs []Segment
		sorted := true

		for _, raw := range strings.Split(line, ",") {
			if raw == "" {
				continue
			}
			fields, err := decodeVLQ(raw)
			if err != nil {
				return nil, errors.Errorf("line %d segment %q: %w", lineNo, raw, err)
			}

			var seg Segment
			switch len(fields) {
			case 1, 4, 5:
			default:
				return nil, errors.Errorf("line %d segment %q: invalid field count %d", lineNo, raw, len(fields))
			}

			genCol += fields[0]
			seg.GeneratedColumn = genCol
			if len(fields) >= 4 {
				srcIndex += fields[1]
				srcLine += fields[2]
				srcCol += fields[3]
				seg.HasSource = true
				seg.SourceIndex = srcIndex
				seg.SourceLine = srcLine
				seg.SourceColumn = srcCol
			}
			if len(fields) == 5 {
				nm += fields[4]
				seg.HasName = true
				seg.NameIndex = nm
			}

			if len(segs) > 0 && segs[len(segs)-1].GeneratedColumn > seg.GeneratedColumn {
				sorted = false
			}
			segs = append(segs, seg)
		}

		if !sorted {
			sort.SliceStable(segs, func(i, j int) bool { return segs[i].GeneratedColumn < segs[j].GeneratedColumn })
		}
		lines = append(lines, segs)
	}

	return lines, nil
}

func decodeVLQ(s string) ([]int, error) {
	var (
		out   []int
		value int
		shift uint
	)
	for i := 0; i < len(s); i++ {
		digit := base64Values[s[i]]
		if digit < 0 {
			return nil, errors.Errorf("invalid base64 character %q", s[i])
		}
		cont := digit&32 != 0
		value += int(digit&31) << shift
		if cont {
			shift += 5
			if shift > 30 {
				return nil, errors.New("vlq value overflows")
			}
			continue
		}
		neg := value&1 == 1
		value >>= 1
		if neg {
			value = -value
		}
		out = append(out, value)
		value = 0
		shift = 0
	}
	if shift != 0 {
		return nil, errors.New("unterminated vlq value")
	}
	return out, nil
}

// Encode is the inverse of Decode.
func Encode(lines [][]Segment) string {
	var (
		b                             strings.Builder
		srcIndex, srcLine, srcCol, nm int
	)
	for i, line := range lines {
		if i > 0 {
			b.WriteByte(';')
		}
		genCol := 0
		for j, seg := range line {
			if j > 0 {
				b.WriteByte(',')
			}
			encodeVLQ(&b, seg.GeneratedColumn-genCol)
			genCol = seg.GeneratedColumn
			if !seg.HasSource {
				continue
			}
			encodeVLQ(&b, seg.SourceIndex-srcIndex)
			encodeVLQ(&b, seg.SourceLine-srcLine)
			encodeVLQ(&b, seg.SourceColumn-srcCol)
			srcIndex, srcLine, srcCol = seg.SourceIndex, seg.SourceLine, seg.SourceColumn
			if seg.HasName {
				encodeVLQ(&b, seg.NameIndex-nm)
				nm = seg.NameIndex
			}
		}
	}
	return b.String()
}

func encodeVLQ(b *strings.Builder, v int) {
	u := v << 1
	if v < 0 {
		u = (-v << 1) | 1
	}
	for {
		digit := u & 31
		u >>= 5
		if u > 0 {
			digit |= 32
		}
		b.WriteByte(base64Chars[digit])
		if u == 0 {
			return
		}
	}
}
