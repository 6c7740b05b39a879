package vdoc

import (
	"github.com/walteh/gosvelte/pkg/buffer"
	"github.com/walteh/gosvelte/pkg/region"
	"github.com/walteh/gosvelte/pkg/transform"
)

// Tree is an immutable decomposition of one snapshot. It is replaced wholesale on
// every update and never modified after it is built.
type Tree struct {
	Snapshot buffer.Snapshot
	Regions  *region.Set
	Root     *VirtualDocument
	// ParserError is set when the generator failed for this snapshot
	ParserError *transform.ParserError
}

func (me *Tree) Version() int32 {
	return me.Snapshot.Version()
}

// Embedded returns the derived documents in output order: style, template, module
// script, instance script, host artifact.
func (me *Tree) Embedded() []*VirtualDocument {
	return me.Root.Children
}

func (me *Tree) HostArtifact() *VirtualDocument {
	for _, doc := range me.Root.Children {
		if doc.Kind == KindHostArtifact {
			return doc
		}
	}
	return nil
}

// Find returns the document called name, the root included.
func (me *Tree) Find(name string) *VirtualDocument {
	var found *VirtualDocument
	me.Walk(func(doc *VirtualDocument) bool {
		if doc.Name == name {
			found = doc
			return false
		}
		return true
	})
	return found
}

// Walk visits the root and then every embedded document until fn returns false.
func (me *Tree) Walk(fn func(doc *VirtualDocument) bool) {
	walk(me.Root, fn)
}

func walk(doc *VirtualDocument, fn func(doc *VirtualDocument) bool) bool {
	if !fn(doc) {
		return false
	}
	for _, child := range doc.Children {
		if !walk(child, fn) {
			return false
		}
	}
	return true
}

// At returns the embedded plain-text document whose region contains the composite
// document offset, or the host artifact when no region does.
func (me *Tree) At(offset int) *VirtualDocument {
	for _, doc := range me.Root.Children {
		if doc.Region != nil && doc.Region.Span().Contains(offset) {
			return doc
		}
	}
	return me.HostArtifact()
}
