package outline

import (
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"github.com/walteh/gosvelte/pkg/position"
)

type styleFrame struct {
	symbol *Symbol
	brace  int
}

// Style outlines a stylesheet: every ruleset and at-rule becomes a symbol, nested
// inside the block that contains it, and every multi-line block or comment folds.
func Style(content string) *Outline {
	var (
		out      = &Outline{}
		idx      = position.NewIndex(content)
		lexer    = css.NewLexer(parse.NewInputString(content))
		stack    []styleFrame
		prelude  strings.Builder
		preStart = -1
		preEnd   int
		offset   int
	)

	resetPrelude := func() {
		prelude.Reset()
		preStart = -1
	}

	attach := func(s Symbol) {
		if len(stack) > 0 && stack[len(stack)-1].symbol != nil {
			parent := stack[len(stack)-1].symbol
			parent.Children = append(parent.Children, s)
			return
		}
		out.Symbols = append(out.Symbols, s)
	}

	closeFrame := func(end int) {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if frame.symbol == nil {
			return
		}
		frame.symbol.Span.End = end
		attach(*frame.symbol)
		if f, ok := blockFold(idx, frame.brace, end-1); ok {
			out.Folds = append(out.Folds, f)
		}
	}

	for {
		tt, data := lexer.Next()
		if tt == css.ErrorToken {
			break
		}
		start := offset
		offset += len(data)

		switch tt {
		case css.WhitespaceToken:
			if preStart >= 0 {
				prelude.WriteByte(' ')
			}
		case css.CommentToken:
			startLine := idx.PlaceAt(start, position.EncodingUTF8).Line
			endLine := idx.PlaceAt(offset, position.EncodingUTF8).Line
			if endLine > startLine {
				out.Folds = append(out.Folds, Fold{StartLine: startLine, EndLine: endLine, Kind: "comment"})
			}
		case css.LeftBraceToken:
			var sym *Symbol
			if preStart >= 0 {
				sym = newStyleSymbol(prelude.String(), preStart, preEnd)
			}
			stack = append(stack, styleFrame{symbol: sym, brace: start})
			resetPrelude()
		case css.RightBraceToken:
			if len(stack) > 0 {
				closeFrame(offset)
			}
			resetPrelude()
		case css.SemicolonToken:
			if preStart >= 0 && strings.HasPrefix(prelude.String(), "@") {
				sym := newStyleSymbol(prelude.String(), preStart, preEnd)
				sym.Span.End = offset
				attach(*sym)
			}
			resetPrelude()
		default:
			if preStart < 0 {
				preStart = start
			}
			prelude.Write(data)
			preEnd = offset
		}
	}

	for len(stack) > 0 {
		closeFrame(len(content))
	}

	return out
}

func newStyleSymbol(prelude string, start, end int) *Symbol {
	name := strings.Join(strings.Fields(prelude), " ")
	kind := KindRule
	if strings.HasPrefix(name, "@") {
		kind = KindAtRule
	}
	return &Symbol{
		Name:      name,
		Kind:      kind,
		Span:      position.NewSpan(start, end),
		Selection: position.NewSpan(start, end),
	}
}

// blockFold folds from the line of the opening brace to the line before the closing one.
func blockFold(idx *position.Index, openAt, closeAt int) (Fold, bool) {
	start := idx.PlaceAt(openAt, position.EncodingUTF8).Line
	end := idx.PlaceAt(closeAt, position.EncodingUTF8).Line - 1
	if end <= start {
		return Fold{}, false
	}
	return Fold{StartLine: start, EndLine: end}, true
}
