package langservice

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/gosvelte/pkg/capability"
	"github.com/walteh/gosvelte/pkg/diagnostic"
	"github.com/walteh/gosvelte/pkg/position"
	"github.com/walteh/gosvelte/pkg/vdoc"
	"gitlab.com/tozd/go/errors"
)

// Trees resolves composite documents. Artifact finds the tree whose host artifact is
// called name.
type Trees interface {
	Tree(file string) (*vdoc.Tree, bool)
	Artifact(name string) (*vdoc.Tree, bool)
}

// Proxy wraps an Engine. Requests against composite documents are answered by the
// engine on the host artifact and translated back; everything else, and every method
// not overridden here, goes to the engine unchanged.
type Proxy struct {
	Engine

	trees Trees
	enc   position.Encoding
}

func NewProxy(engine Engine, trees Trees, enc position.Encoding) *Proxy {
	return &Proxy{Engine: engine, trees: trees, enc: enc}
}

// Sync hands the host artifact of tree to the engine.
func (me *Proxy) Sync(ctx context.Context, tree *vdoc.Tree) error {
	host := tree.HostArtifact()
	if err := me.Engine.SetDocument(ctx, host.Name, host.Content, tree.Version()); err != nil {
		return errors.Errorf("syncing %s: %w", host.Name, err)
	}
	return nil
}

// Forget removes the host artifact of tree from the engine.
func (me *Proxy) Forget(ctx context.Context, tree *vdoc.Tree) error {
	host := tree.HostArtifact()
	if err := me.Engine.RemoveDocument(ctx, host.Name); err != nil {
		return errors.Errorf("removing %s: %w", host.Name, err)
	}
	return nil
}

// target resolves a request at offset of file to the host artifact. composite is false
// when file is not a composite document, in which case the request passes through.
func (me *Proxy) target(file string, offset int, want capability.Set) (host *vdoc.VirtualDocument, generated int, composite, mapped bool) {
	tree, ok := me.trees.Tree(file)
	if !ok {
		return nil, 0, false, false
	}
	host = tree.HostArtifact()
	generated, mapped = host.ToGenerated(offset, want)
	return host, generated, true, mapped
}

func (me *Proxy) SemanticDiagnostics(ctx context.Context, file string) ([]diagnostic.Diagnostic, error) {
	tree, ok := me.trees.Tree(file)
	if !ok {
		return me.Engine.SemanticDiagnostics(ctx, file)
	}
	host := tree.HostArtifact()

	diags, err := me.Engine.SemanticDiagnostics(ctx, host.Name)
	if err != nil {
		return nil, errors.Errorf("semantic diagnostics of %s: %w", host.Name, err)
	}

	out := diagnostic.ForTree(tree, me.enc)
	out = append(out, diagnostic.Project(ctx, tree, host, diags, me.enc)...)
	return out, nil
}

func (me *Proxy) QuickInfo(ctx context.Context, file string, offset int) (*QuickInfo, error) {
	host, gen, composite, mapped := me.target(file, offset, capability.Hover)
	if !composite {
		return me.Engine.QuickInfo(ctx, file, offset)
	}
	if !mapped {
		return nil, nil
	}

	info, err := me.Engine.QuickInfo(ctx, host.Name, gen)
	if err != nil || info == nil {
		return nil, err
	}
	span, ok := host.Mappings.ToSourceSpan(info.Span, capability.Hover)
	if !ok {
		zerolog.Ctx(ctx).Debug().Str("file", file).Str("span", info.Span.String()).Msg("quick info span outside mapped ranges")
		return nil, nil
	}
	info.Span = span
	return info, nil
}

func (me *Proxy) Completions(ctx context.Context, file string, offset int) (*CompletionList, error) {
	host, gen, composite, mapped := me.target(file, offset, capability.Completion)
	if !composite {
		return me.Engine.Completions(ctx, file, offset)
	}
	if !mapped {
		return nil, nil
	}

	list, err := me.Engine.Completions(ctx, host.Name, gen)
	if err != nil || list == nil {
		return nil, err
	}

	entries := make([]Completion, 0, len(list.Entries))
	for _, c := range list.Entries {
		if c.Replace != nil {
			span, ok := host.Mappings.ToSourceSpan(*c.Replace, capability.Completion)
			if !ok {
				continue
			}
			c.Replace = &span
		}
		entries = append(entries, c)
	}
	return &CompletionList{Entries: entries}, nil
}

func (me *Proxy) SignatureHelp(ctx context.Context, file string, offset int) (*SignatureHelp, error) {
	host, gen, composite, mapped := me.target(file, offset, capability.Completion)
	if !composite {
		return me.Engine.SignatureHelp(ctx, file, offset)
	}
	if !mapped {
		return nil, nil
	}

	help, err := me.Engine.SignatureHelp(ctx, host.Name, gen)
	if err != nil || help == nil {
		return nil, err
	}
	span, ok := host.Mappings.ToSourceSpan(help.Span, capability.Completion)
	if !ok {
		return nil, nil
	}
	help.Span = span
	return help, nil
}

func (me *Proxy) Definition(ctx context.Context, file string, offset int) ([]Location, error) {
	return me.locations(ctx, file, offset, capability.Definition, me.Engine.Definition)
}

func (me *Proxy) References(ctx context.Context, file string, offset int) ([]Location, error) {
	return me.locations(ctx, file, offset, capability.References, me.Engine.References)
}

func (me *Proxy) RenameLocations(ctx context.Context, file string, offset int) ([]Location, error) {
	return me.locations(ctx, file, offset, capability.Rename, me.Engine.RenameLocations)
}

type locationFunc func(ctx context.Context, file string, offset int) ([]Location, error)

func (me *Proxy) locations(ctx context.Context, file string, offset int, want capability.Set, fn locationFunc) ([]Location, error) {
	if host, gen, composite, mapped := me.target(file, offset, want); composite {
		if !mapped {
			return nil, nil
		}
		file, offset = host.Name, gen
	}

	locs, err := fn(ctx, file, offset)
	if err != nil {
		return nil, err
	}
	return me.translate(ctx, locs, want), nil
}

// translate moves locations inside host artifacts back to their composite documents
// and drops the ones that land on generated code.
func (me *Proxy) translate(ctx context.Context, locs []Location, want capability.Set) []Location {
	out := make([]Location, 0, len(locs))
	for _, loc := range locs {
		tree, ok := me.trees.Artifact(loc.FileName)
		if !ok {
			out = append(out, loc)
			continue
		}
		span, ok := tree.HostArtifact().Mappings.ToSourceSpan(loc.Span, want)
		if !ok {
			zerolog.Ctx(ctx).Debug().Str("file", loc.FileName).Str("span", loc.Span.String()).Msg("dropping location in generated code")
			continue
		}
		out = append(out, Location{FileName: tree.Snapshot.Name(), Span: span})
	}
	return out
}
