// Package region splits a composite document into its style, template and script
// regions.
package region

import (
	"sort"
	"strings"

	"github.com/walteh/gosvelte/pkg/position"
)

type Kind string

const (
	KindStyle        Kind = "style"
	KindTemplate     Kind = "template"
	KindScript       Kind = "script"
	KindModuleScript Kind = "module-script"
)

// DefaultLanguage is the language assumed when a region declares none.
func (k Kind) DefaultLanguage() string {
	switch k {
	case KindStyle:
		return "css"
	case KindTemplate:
		return "html"
	default:
		return "js"
	}
}

// Region is the content of one recognized top-level element.
type Region struct {
	Kind Kind
	// Start and End bound the element content, [Start,End)
	Start int
	End   int
	// Lang is the declared language, empty when the element declares none
	Lang       string
	Attributes map[string]string
	Content    string
	// Tag spans the whole element including its tags
	Tag position.Span
}

func (me *Region) Span() position.Span {
	return position.NewSpan(me.Start, me.End)
}

// Language returns the declared language or the kind's default.
func (me *Region) Language() string {
	if me.Lang != "" {
		return me.Lang
	}
	return me.Kind.DefaultLanguage()
}

// IsTypeScript reports whether the region declares a TypeScript dialect.
func (me *Region) IsTypeScript() bool {
	switch strings.ToLower(me.Lang) {
	case "ts", "typescript":
		return true
	}
	return false
}

// Set holds the regions of one document. Any of them may be nil.
type Set struct {
	Style        *Region
	Template     *Region
	Script       *Region
	ModuleScript *Region
}

// Scripts returns the present script regions, module script first.
func (me *Set) Scripts() []*Region {
	var out []*Region
	for _, r := range []*Region{me.ModuleScript, me.Script} {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// PrimaryScript returns the instance script, falling back to the module script.
func (me *Set) PrimaryScript() *Region {
	if me.Script != nil {
		return me.Script
	}
	return me.ModuleScript
}

// TypedOutput reports whether any script is written in TypeScript.
func (me *Set) TypedOutput() bool {
	for _, r := range me.Scripts() {
		if r.IsTypeScript() {
			return true
		}
	}
	return false
}

// All returns every present region in source order.
func (me *Set) All() []*Region {
	var out []*Region
	for _, r := range []*Region{me.Style, me.Template, me.ModuleScript, me.Script} {
		if r != nil {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func (me *Set) Len() int {
	return len(me.All())
}

// Extract finds the regions of text. The first element of each kind wins and later
// ones are ignored.
func Extract(text string) *Set {
	return FromTree(text, Parse(text))
}

func FromTree(text string, tree *Tree) *Set {
	set := &Set{}
	for _, el := range tree.Roots {
		var slot **Region
		kind := kindOf(el)
		switch kind {
		case KindStyle:
			slot = &set.Style
		case KindTemplate:
			slot = &set.Template
		case KindScript:
			slot = &set.Script
		case KindModuleScript:
			slot = &set.ModuleScript
		default:
			continue
		}
		if *slot != nil {
			continue
		}
		*slot = newRegion(text, kind, el)
	}
	return set
}

func kindOf(el *Element) Kind {
	switch el.Name {
	case "style":
		return KindStyle
	case "template":
		return KindTemplate
	case "script":
		if isModuleScript(el.Attributes) {
			return KindModuleScript
		}
		return KindScript
	}
	return ""
}

func isModuleScript(attrs map[string]string) bool {
	if attrs["context"] == "module" {
		return true
	}
	_, ok := attrs["module"]
	return ok
}

func newRegion(text string, kind Kind, el *Element) *Region {
	return &Region{
		Kind:       kind,
		Start:      el.ContentStart,
		End:        el.ContentEnd,
		Lang:       langAttribute(el.Attributes),
		Attributes: el.Attributes,
		Content:    text[el.ContentStart:el.ContentEnd],
		Tag:        position.NewSpan(el.Start, el.End),
	}
}

func langAttribute(attrs map[string]string) string {
	lang := attrs["lang"]
	if lang == "" {
		lang = attrs["type"]
	}
	return strings.TrimPrefix(lang, "text/")
}
