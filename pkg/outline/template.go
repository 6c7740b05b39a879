package outline

import (
	"strings"

	"github.com/walteh/gosvelte/pkg/position"
	"github.com/walteh/gosvelte/pkg/region"
)

// Template outlines markup: every element is a symbol named like a selector
// ("div#app.card"), and every element spanning several lines folds.
func Template(content string) *Outline {
	out := &Outline{}
	idx := position.NewIndex(content)
	out.Symbols = elements(content, 0, idx, out)
	return out
}

func elements(content string, base int, idx *position.Index, out *Outline) []Symbol {
	var symbols []Symbol
	for _, el := range region.Parse(content).Roots {
		sym := Symbol{
			Name:      elementName(el),
			Kind:      KindElement,
			Span:      position.NewSpan(base+el.Start, base+el.End),
			Selection: position.NewSpan(base+el.Start+1, base+el.Start+1+len(el.Name)),
		}

		if !el.SelfClosing && el.ContentEnd > el.ContentStart {
			sym.Children = elements(content[el.ContentStart:el.ContentEnd], base+el.ContentStart, idx, out)
		}

		if f, ok := blockFold(idx, base+el.Start, base+el.End-1); ok {
			out.Folds = append(out.Folds, f)
		}

		symbols = append(symbols, sym)
	}
	return symbols
}

func elementName(el *region.Element) string {
	name := el.Name
	if id := strings.TrimSpace(el.Attributes["id"]); id != "" {
		name += "#" + id
	}
	for _, class := range strings.Fields(el.Attributes["class"]) {
		name += "." + class
	}
	return name
}
