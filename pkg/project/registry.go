// Package project keeps the live composite documents of a workspace.
package project

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/gosvelte/pkg/vdoc"
	"gitlab.com/tozd/go/errors"
)

// DefaultPatterns match the files treated as composite documents.
var DefaultPatterns = []string{"**/*.svelte"}

// Registry maps file names to documents. Names are normalized, so "file:///a.svelte"
// and "/a.svelte" are the same document.
type Registry struct {
	id        string
	builder   *vdoc.Builder
	fs        afero.Fs
	patterns  []string
	docs      *sync.Map // map[string]*vdoc.Document
	artifacts *sync.Map // map[string]string, host artifact name to document name
}

func NewRegistry(builder *vdoc.Builder, fsys afero.Fs, patterns ...string) (*Registry, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Errorf("invalid composite file pattern %q", p)
		}
	}
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Registry{
		id:        uuid.NewString(),
		builder:   builder,
		fs:        fsys,
		patterns:  patterns,
		docs:      &sync.Map{},
		artifacts: &sync.Map{},
	}, nil
}

// ID identifies this registry in logs.
func (me *Registry) ID() string {
	return me.id
}

func (me *Registry) Fs() afero.Fs {
	return me.fs
}

func normalizeName(name string) string {
	name = strings.TrimPrefix(name, "file://")
	name = strings.TrimPrefix(name, "file:")
	return name
}

// IsComposite reports whether name is a composite document.
func (me *Registry) IsComposite(name string) bool {
	name = normalizeName(name)
	for _, p := range me.patterns {
		if ok, _ := doublestar.Match(p, strings.TrimPrefix(filepath.ToSlash(name), "/")); ok {
			return true
		}
	}
	return false
}

func (me *Registry) logger(ctx context.Context, name string) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("registry", me.id).Str("file", name).Logger()
	return &l
}

// Open starts tracking name with text, replacing any earlier document of that name.
func (me *Registry) Open(ctx context.Context, name, text string) (*vdoc.Tree, error) {
	name = normalizeName(name)
	if !me.IsComposite(name) {
		return nil, errors.Errorf("%s is not a composite document", name)
	}

	doc := vdoc.NewDocument(ctx, me.builder, name, text)
	me.docs.Store(name, doc)
	tree := doc.Tree()
	me.artifacts.Store(tree.HostArtifact().Name, name)

	me.logger(ctx, name).Debug().Int32("version", tree.Version()).Msg("opened document")
	return tree, nil
}

// Update rebuilds an open document from its new text.
func (me *Registry) Update(ctx context.Context, name, text string) (*vdoc.Tree, error) {
	name = normalizeName(name)
	doc, ok := me.doc(name)
	if !ok {
		return nil, errors.Errorf("%s is not open", name)
	}
	tree := doc.Update(ctx, text)
	me.logger(ctx, name).Debug().Int32("version", tree.Version()).Msg("updated document")
	return tree, nil
}

// Close stops tracking name.
func (me *Registry) Close(ctx context.Context, name string) {
	name = normalizeName(name)
	if doc, ok := me.doc(name); ok {
		me.artifacts.Delete(doc.Tree().HostArtifact().Name)
	}
	me.docs.Delete(name)
	me.logger(ctx, name).Debug().Msg("closed document")
}

func (me *Registry) doc(name string) (*vdoc.Document, bool) {
	v, ok := me.docs.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*vdoc.Document), true
}

// Get returns the document called name, loading it from the filesystem when it is a
// composite document that was never opened.
func (me *Registry) Get(ctx context.Context, name string) (*vdoc.Document, bool) {
	name = normalizeName(name)
	if doc, ok := me.doc(name); ok {
		return doc, true
	}
	if !me.IsComposite(name) {
		return nil, false
	}
	if _, err := me.Load(ctx, name); err != nil {
		me.logger(ctx, name).Debug().Err(err).Msg("document not found")
		return nil, false
	}
	return me.doc(name)
}

// Load reads name from the filesystem and opens it.
func (me *Registry) Load(ctx context.Context, name string) (*vdoc.Tree, error) {
	name = normalizeName(name)
	content, err := afero.ReadFile(me.fs, name)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", name, err)
	}
	return me.Open(ctx, name, string(content))
}

// Tree returns the current tree of an open document.
func (me *Registry) Tree(name string) (*vdoc.Tree, bool) {
	doc, ok := me.doc(normalizeName(name))
	if !ok {
		return nil, false
	}
	return doc.Tree(), true
}

// Artifact returns the tree whose host artifact is called name.
func (me *Registry) Artifact(name string) (*vdoc.Tree, bool) {
	v, ok := me.artifacts.Load(normalizeName(name))
	if !ok {
		return nil, false
	}
	return me.Tree(v.(string))
}

// Names returns the open documents, sorted.
func (me *Registry) Names() []string {
	var names []string
	me.docs.Range(func(k, _ any) bool {
		names = append(names, k.(string))
		return true
	})
	sort.Strings(names)
	return names
}

// Discover returns every composite document below root, sorted.
func (me *Registry) Discover(root string) ([]string, error) {
	var out []string
	err := afero.Walk(me.fs, root, func(name string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, name)
		if err != nil {
			return err
		}
		for _, p := range me.patterns {
			if ok, _ := doublestar.Match(p, filepath.ToSlash(rel)); ok {
				out = append(out, name)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}
