package vdoc

import (
	"context"
	"sync/atomic"

	"github.com/walteh/gosvelte/pkg/buffer"
)

// Document is the live decomposition of one composite document. Update must be called
// from a single goroutine; Tree may be called from any.
type Document struct {
	name    string
	builder *Builder
	tree    atomic.Pointer[Tree]
}

// NewDocument builds the first tree of name, at version 1.
func NewDocument(ctx context.Context, builder *Builder, name, text string) *Document {
	doc := &Document{name: name, builder: builder}
	doc.tree.Store(builder.Build(ctx, buffer.New(name, 1, text)))
	return doc
}

func (me *Document) Name() string {
	return me.name
}

// Tree returns the current tree. Callers should hold on to it for the duration of a
// request so every sub-request sees the same version.
func (me *Document) Tree() *Tree {
	return me.tree.Load()
}

func (me *Document) Version() int32 {
	return me.Tree().Version()
}

// Update rebuilds the whole tree from text and publishes it.
func (me *Document) Update(ctx context.Context, text string) *Tree {
	next := me.builder.Build(ctx, me.Tree().Snapshot.Next(text))
	me.tree.Store(next)
	return next
}
