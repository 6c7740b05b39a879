// Package vdoc decomposes a composite document into the tree of virtual documents the
// language tooling works on: one per embedded region plus the generated host artifact.
package vdoc

import (
	"github.com/walteh/gosvelte/pkg/capability"
	"github.com/walteh/gosvelte/pkg/mapping"
	"github.com/walteh/gosvelte/pkg/region"
)

type Kind string

const (
	KindPlainText    Kind = "plain-text"
	KindHostArtifact Kind = "host-artifact"
)

// VirtualDocument is one derived document. Mappings translate between the composite
// document (Source) and Content (Generated).
type VirtualDocument struct {
	Name         string             `json:"name" yaml:"name"`
	Kind         Kind               `json:"kind" yaml:"kind"`
	Content      string             `json:"content" yaml:"content"`
	Capabilities capability.Set     `json:"capabilities" yaml:"capabilities"`
	Mappings     mapping.List       `json:"mappings" yaml:"mappings"`
	Children     []*VirtualDocument `json:"children,omitempty" yaml:"children,omitempty"`

	// Region is the region the document was cut from, nil for the root and the host artifact
	Region *region.Region `json:"-" yaml:"-"`
}

func (me *VirtualDocument) Len() int {
	return len(me.Content)
}

// Supports reports whether the document as a whole serves c.
func (me *VirtualDocument) Supports(c capability.Set) bool {
	return me.Capabilities.Has(c)
}

// ToGenerated translates a composite document offset into this document.
func (me *VirtualDocument) ToGenerated(offset int, want capability.Set) (int, bool) {
	return me.Mappings.ToGenerated(offset, want)
}

// ToSource translates an offset of this document back into the composite document.
func (me *VirtualDocument) ToSource(offset int, want capability.Set) (int, bool) {
	return me.Mappings.ToSource(offset, want)
}

// ContainsSource reports whether offset of the composite document is covered by one of
// the document's entries.
func (me *VirtualDocument) ContainsSource(offset int) bool {
	for _, e := range me.Mappings {
		if e.Source.Contains(offset) {
			return true
		}
	}
	return false
}
