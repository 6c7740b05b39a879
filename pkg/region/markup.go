package region

import (
	"strings"

	"golang.org/x/net/html"
)

// Element is a top-level element of a composite document. All offsets are byte offsets
// into the parsed text.
type Element struct {
	Name       string
	Attributes map[string]string

	// Start is the offset of '<' of the start tag, End the offset right after the end tag
	Start int
	End   int
	// ContentStart and ContentEnd bound the text between the start and end tags
	ContentStart int
	ContentEnd   int

	SelfClosing bool
	// Closed is false when the text ended before the matching end tag
	Closed bool
}

// Tree holds the top-level elements of a document in source order.
type Tree struct {
	Roots []*Element
}

// Find returns the top-level elements with the given (lowercase) tag name.
func (me *Tree) Find(name string) []*Element {
	var out []*Element
	for _, el := range me.Roots {
		if el.Name == name {
			out = append(out, el)
		}
	}
	return out
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "keygen": true, "link": true, "meta": true, "param": true,
	"source": true, "track": true, "wbr": true,
}

// rawTextElements are read by the tokenizer as raw text up to their end tag, even when
// the start tag is self-closing.
var rawTextElements = map[string]bool{
	"iframe": true, "noembed": true, "noframes": true, "noscript": true, "plaintext": true,
	"script": true, "style": true, "textarea": true, "title": true, "xmp": true,
}

// Parse tokenizes text and records its top-level elements. It never fails: malformed
// markup yields whatever elements could be recognized, and an element whose end tag is
// missing extends to the end of the text.
func Parse(text string) *Tree {
	p := &markupParser{tree: &Tree{}}
	masked := maskExpressions(text)

	for base := 0; base >= 0; {
		base = p.run(masked, base)
	}

	if p.current != nil {
		p.current.ContentEnd = len(text)
		p.current.End = len(text)
	}

	return p.tree
}

type markupParser struct {
	tree    *Tree
	stack   []string
	current *Element
}

// run tokenizes text[base:]. It returns the offset to resume from when a self-closing
// raw text element left the tokenizer waiting for an end tag, -1 at the end.
func (me *markupParser) run(text string, base int) int {
	z := html.NewTokenizer(strings.NewReader(text[base:]))
	offset := base

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return -1
		}
		// Raw must be read before TagName/TagAttr, which may reuse its buffer
		start := offset
		offset += len(z.Raw())

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, attrs := readTag(z)
			selfClosing := tt == html.SelfClosingTagToken || voidElements[name]
			if len(me.stack) == 0 {
				el := &Element{
					Name:         name,
					Attributes:   attrs,
					Start:        start,
					ContentStart: offset,
					ContentEnd:   offset,
					End:          offset,
					SelfClosing:  selfClosing,
					Closed:       selfClosing,
				}
				me.tree.Roots = append(me.tree.Roots, el)
				if !selfClosing {
					me.current = el
				}
			}
			if !selfClosing {
				me.stack = append(me.stack, name)
			}
			if tt == html.SelfClosingTagToken && rawTextElements[name] && offset < len(text) {
				return offset
			}
		case html.EndTagToken:
			raw, _ := z.TagName()
			name := string(raw)
			for i := len(me.stack) - 1; i >= 0; i-- {
				if me.stack[i] != name {
					continue
				}
				me.stack = me.stack[:i]
				if i == 0 && me.current != nil {
					me.current.ContentEnd = start
					me.current.End = offset
					me.current.Closed = true
					me.current = nil
				}
				break
			}
		}
	}
}

// maskExpressions blanks '<' and '>' inside {...} expressions so comparisons are not
// read as tags. Script and style content and comments are left alone, and the result
// has the same length as text.
func maskExpressions(text string) string {
	var buf []byte
	for i := 0; i < len(text); {
		switch {
		case strings.HasPrefix(text[i:], "<!--"):
			end := strings.Index(text[i+4:], "-->")
			if end < 0 {
				i = len(text)
				continue
			}
			i += 4 + end + 3
		case text[i] == '<':
			i = skipRawElement(text, i)
		case text[i] == '{':
			end := expressionEnd(text, i)
			if end < 0 {
				i++
				continue
			}
			for j := i + 1; j < end; j++ {
				if text[j] != '<' && text[j] != '>' {
					continue
				}
				if buf == nil {
					buf = []byte(text)
				}
				buf[j] = ' '
			}
			i = end + 1
		default:
			i++
		}
	}
	if buf == nil {
		return text
	}
	return string(buf)
}

// skipRawElement returns the offset after the script or style element starting at i,
// or i+1 when no such element starts there.
func skipRawElement(text string, i int) int {
	var name string
	for _, n := range []string{"script", "style"} {
		rest := text[i+1:]
		if len(rest) > len(n) && strings.EqualFold(rest[:len(n)], n) && strings.IndexByte(" \t\n\r\f/>", rest[len(n)]) >= 0 {
			name = n
			break
		}
	}
	if name == "" {
		return i + 1
	}

	end := tagEnd(text, i+1+len(name))
	if end < 0 {
		return len(text)
	}
	if text[end-1] == '/' {
		return end + 1
	}
	closing := indexFold(text[end+1:], "</"+name)
	if closing < 0 {
		return len(text)
	}
	return end + 1 + closing
}

// indexFold is strings.Index ignoring ASCII case of sub.
func indexFold(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(sub)], sub) {
			return i
		}
	}
	return -1
}

// tagEnd returns the offset of the '>' closing the tag whose attributes start at i.
func tagEnd(text string, i int) int {
	for i < len(text) {
		switch c := text[i]; c {
		case '"', '\'':
			next := strings.IndexByte(text[i+1:], c)
			if next < 0 {
				return -1
			}
			i += next + 2
		case '{':
			end := expressionEnd(text, i)
			if end < 0 {
				i++
				continue
			}
			i = end + 1
		case '>':
			return i
		default:
			i++
		}
	}
	return -1
}

// expressionEnd returns the offset of the '}' matching the '{' at i, -1 when the
// expression is never closed. Braces inside string literals do not count.
func expressionEnd(text string, i int) int {
	depth := 0
	for j := i; j < len(text); j++ {
		switch c := text[j]; c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		case '"', '\'', '`':
			k := j + 1
			for k < len(text) && text[k] != c {
				if text[k] == '\\' {
					k++
				}
				k++
			}
			if k >= len(text) {
				return -1
			}
			j = k
		}
	}
	return -1
}

func readTag(z *html.Tokenizer) (string, map[string]string) {
	rawName, hasAttr := z.TagName()
	name := string(rawName)
	attrs := map[string]string{}
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		k := string(key)
		if _, dup := attrs[k]; dup {
			continue
		}
		attrs[k] = string(val)
	}
	return name, attrs
}
