package vdoc

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/gosvelte/pkg/buffer"
	"github.com/walteh/gosvelte/pkg/capability"
	"github.com/walteh/gosvelte/pkg/mapping"
	"github.com/walteh/gosvelte/pkg/region"
	"github.com/walteh/gosvelte/pkg/transform"
)

// Builder turns snapshots into trees. It holds no per-document state and may be shared.
type Builder struct {
	gen  transform.Generator
	opts transform.Options
}

func NewBuilder(gen transform.Generator, opts transform.Options) *Builder {
	return &Builder{gen: gen, opts: opts}
}

func (me *Builder) Options() transform.Options {
	return me.opts
}

// Build decomposes snap. Identical snapshots produce identical trees.
func (me *Builder) Build(ctx context.Context, snap buffer.Snapshot) *Tree {
	regions := region.Extract(snap.String())
	res := transform.Invoke(ctx, me.gen, snap, regions, me.opts)

	name := snap.Name()
	root := &VirtualDocument{
		Name:         name,
		Kind:         KindPlainText,
		Content:      snap.String(),
		Capabilities: capability.FullDocument,
		Mappings:     mapping.Identity(0, snap.Len(), capability.Full),
	}

	if r := regions.Style; r != nil {
		root.Children = append(root.Children, embedded(name+".style."+r.Language(), r, capability.FullDocument, capability.Full))
	}
	if r := regions.Template; r != nil {
		root.Children = append(root.Children, embedded(name+".template."+r.Language(), r, capability.FullDocument, capability.Full))
	}
	if r := regions.ModuleScript; r != nil {
		root.Children = append(root.Children, embedded(name+".script.module."+r.Language(), r, capability.SyntaxOnly, capability.None))
	}
	if r := regions.Script; r != nil {
		root.Children = append(root.Children, embedded(name+".script."+r.Language(), r, capability.SyntaxOnly, capability.None))
	}

	root.Children = append(root.Children, &VirtualDocument{
		Name:         name + me.opts.Mode.Extension(),
		Kind:         KindHostArtifact,
		Content:      res.Text,
		Capabilities: capability.SemanticsOnly,
		Mappings:     res.Mappings,
	})

	zerolog.Ctx(ctx).Debug().
		Str("file", name).
		Int32("version", snap.Version()).
		Int("regions", regions.Len()).
		Int("mappings", len(res.Mappings)).
		Bool("parser_error", res.Failed()).
		Msg("built virtual document tree")

	return &Tree{
		Snapshot:    snap,
		Regions:     regions,
		Root:        root,
		ParserError: res.Error,
	}
}

func embedded(name string, r *region.Region, caps, data capability.Set) *VirtualDocument {
	return &VirtualDocument{
		Name:         name,
		Kind:         KindPlainText,
		Content:      r.Content,
		Capabilities: caps,
		Mappings:     mapping.Identity(r.Start, r.End, data),
		Region:       r,
	}
}
