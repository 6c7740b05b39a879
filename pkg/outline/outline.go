// Package outline computes syntax-only document symbols and folding ranges for the
// plain-text virtual documents.
package outline

import (
	"github.com/walteh/gosvelte/pkg/capability"
	"github.com/walteh/gosvelte/pkg/position"
	"github.com/walteh/gosvelte/pkg/region"
	"github.com/walteh/gosvelte/pkg/vdoc"
)

type SymbolKind string

const (
	KindRule    SymbolKind = "rule"
	KindAtRule  SymbolKind = "at-rule"
	KindElement SymbolKind = "element"
)

// Symbol is a named part of a document. Span covers the whole construct, Selection
// only its name.
type Symbol struct {
	Name      string        `json:"name" yaml:"name"`
	Kind      SymbolKind    `json:"kind" yaml:"kind"`
	Span      position.Span `json:"span" yaml:"span"`
	Selection position.Span `json:"selection" yaml:"selection"`
	Children  []Symbol      `json:"children,omitempty" yaml:"children,omitempty"`
}

// Fold is a foldable line range, both lines inclusive.
type Fold struct {
	StartLine int    `json:"startLine" yaml:"startLine"`
	EndLine   int    `json:"endLine" yaml:"endLine"`
	Kind      string `json:"kind,omitempty" yaml:"kind,omitempty"`
}

type Outline struct {
	Symbols []Symbol `json:"symbols" yaml:"symbols"`
	Folds   []Fold   `json:"folds" yaml:"folds"`
}

// ForDocument outlines an embedded document of tree in the coordinates of the
// composite document. It returns nil for documents that do not serve document symbols
// or whose language has no outliner.
func ForDocument(tree *vdoc.Tree, doc *vdoc.VirtualDocument) *Outline {
	if doc.Region == nil || !doc.Supports(capability.DocumentSymbol) {
		return nil
	}

	var out *Outline
	switch doc.Region.Kind {
	case region.KindStyle:
		switch doc.Region.Language() {
		case "css", "postcss":
			out = Style(doc.Content)
		default:
			return nil
		}
	case region.KindTemplate:
		out = Template(doc.Content)
	default:
		return nil
	}

	base := doc.Region.Start
	line, _ := position.GetLineAndColumn(tree.Snapshot.String(), base)
	for i := range out.Symbols {
		shiftSymbol(&out.Symbols[i], base)
	}
	for i := range out.Folds {
		out.Folds[i].StartLine += line
		out.Folds[i].EndLine += line
	}
	return out
}

func shiftSymbol(s *Symbol, base int) {
	s.Span = position.NewSpan(s.Span.Start+base, s.Span.End+base)
	s.Selection = position.NewSpan(s.Selection.Start+base, s.Selection.End+base)
	for i := range s.Children {
		shiftSymbol(&s.Children[i], base)
	}
}
