// Package capability holds the fixed vocabulary of features a virtual document, or a
// single mapped range inside one, participates in.
package capability

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Set is a bit set of capabilities.
type Set uint16

const (
	Diagnostics Set = 1 << iota
	CodeAction
	InlayHint
	FoldingRange
	Formatting
	DocumentSymbol
	Hover
	References
	Definition
	Rename
	Completion
	SemanticTokens
)

const (
	None Set = 0

	// SemanticsOnly is carried by the generated host artifact, which owns semantic analysis
	SemanticsOnly = Diagnostics | CodeAction | InlayHint
	// SyntaxOnly is carried by the raw script documents so they never report diagnostics
	// that would duplicate the host artifact's
	SyntaxOnly   = FoldingRange | Formatting | DocumentSymbol
	FullDocument = SemanticsOnly | SyntaxOnly

	Full = FullDocument | Hover | References | Definition | Rename | Completion | SemanticTokens
)

var names = []struct {
	cap  Set
	name string
}{
	{Diagnostics, "diagnostics"},
	{CodeAction, "code-action"},
	{InlayHint, "inlay-hint"},
	{FoldingRange, "folding-range"},
	{Formatting, "formatting"},
	{DocumentSymbol, "document-symbol"},
	{Hover, "hover"},
	{References, "references"},
	{Definition, "definition"},
	{Rename, "rename"},
	{Completion, "completion"},
	{SemanticTokens, "semantic-tokens"},
}

// Has reports whether every capability in want is present.
func (s Set) Has(want Set) bool {
	return s&want == want
}

// Any reports whether at least one capability in want is present. An empty want
// matches everything.
func (s Set) Any(want Set) bool {
	return want == None || s&want != 0
}

func (s Set) With(other Set) Set {
	return s | other
}

func (s Set) Without(other Set) Set {
	return s &^ other
}

func (s Set) Names() []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if s&n.cap != 0 {
			out = append(out, n.name)
		}
	}
	return out
}

func (s Set) String() string {
	if s == None {
		return "none"
	}
	return strings.Join(s.Names(), ",")
}

func Parse(list ...string) (Set, error) {
	var s Set
outer:
	for _, item := range list {
		item = strings.TrimSpace(item)
		if item == "" || item == "none" {
			continue
		}
		for _, n := range names {
			if n.name == item {
				s |= n.cap
				continue outer
			}
		}
		return None, errors.Errorf("unknown capability %q", item)
	}
	return s, nil
}

func (s Set) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Set) UnmarshalText(b []byte) error {
	parsed, err := Parse(strings.Split(string(b), ",")...)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
