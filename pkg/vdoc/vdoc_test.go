package vdoc_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/gosvelte/pkg/buffer"
	"github.com/walteh/gosvelte/pkg/capability"
	"github.com/walteh/gosvelte/pkg/diff"
	"github.com/walteh/gosvelte/pkg/position"
	"github.com/walteh/gosvelte/pkg/region"
	"github.com/walteh/gosvelte/pkg/sourcemap"
	"github.com/walteh/gosvelte/pkg/transform"
	"github.com/walteh/gosvelte/pkg/vdoc"
)

// scriptCopier emits every script verbatim inside a render function, which is what a
// real generator does for plain statements.
var scriptCopier = transform.GeneratorFunc(func(ctx context.Context, req *transform.Request) (*transform.Output, error) {
	if strings.Contains(req.Text, "{#if") && !strings.Contains(req.Text, "{/if}") {
		return nil, &transform.GenerateError{Message: "Unclosed block", Start: &transform.Location{Line: 2, Column: 0}}
	}
	idx := position.NewIndex(req.Text)
	b := sourcemap.NewBuilder(position.EncodingUTF16)
	b.Unmapped("///<reference types=\"svelte\" />\n")
	for _, script := range region.Extract(req.Text).Scripts() {
		b.Unmapped(";function render() {")
		b.Mapped(script.Content, idx.PlaceAt(script.Start, position.EncodingUTF16))
		b.Unmapped("}\n")
	}
	b.End()
	return &transform.Output{Code: b.String(), Mappings: b.Lines(), HasMap: true}, nil
})

func build(t *testing.T, text string) *vdoc.Tree {
	t.Helper()
	doc := vdoc.NewDocument(context.Background(), vdoc.NewBuilder(scriptCopier, transform.DefaultOptions()), "App.svelte", text)
	return doc.Tree()
}

func vdocSnapshot(name, text string) buffer.Snapshot {
	return buffer.New(name, 1, text)
}

func names(tree *vdoc.Tree) []string {
	var out []string
	for _, doc := range tree.Embedded() {
		out = append(out, doc.Name)
	}
	return out
}

func requireSound(t *testing.T, tree *vdoc.Tree) {
	t.Helper()
	source := tree.Snapshot.String()
	tree.Walk(func(doc *vdoc.VirtualDocument) bool {
		require.NoError(t, doc.Mappings.Validate(source, doc.Content, true), doc.Name)
		return true
	})
}

func TestStyleOnly(t *testing.T) {
	tree := build(t, "<style>\n.a { color: red; }\n</style>")

	assert.Equal(t, []string{"App.svelte.style.css", "App.svelte.tsx"}, names(tree))
	require.Nil(t, tree.ParserError)

	style := tree.Find("App.svelte.style.css")
	require.NotNil(t, style)
	assert.Equal(t, "\n.a { color: red; }\n", style.Content)
	assert.Equal(t, capability.FullDocument, style.Capabilities)
	require.Len(t, style.Mappings, 1)
	assert.Equal(t, capability.Full, style.Mappings[0].Data)

	host := tree.HostArtifact()
	require.NotNil(t, host)
	assert.Equal(t, vdoc.KindHostArtifact, host.Kind)
	assert.Equal(t, capability.SemanticsOnly, host.Capabilities)
	assert.Empty(t, host.Mappings)

	requireSound(t, tree)
}

func TestScriptAndTemplate(t *testing.T) {
	text := "<script lang=\"ts\">\nlet count: number = 0;\n</script>\n<template><button>{count}</button></template>"
	tree := build(t, text)

	assert.Equal(t, []string{"App.svelte.template.html", "App.svelte.script.ts", "App.svelte.tsx"}, names(tree))

	script := tree.Find("App.svelte.script.ts")
	require.NotNil(t, script)
	assert.Equal(t, capability.SyntaxOnly, script.Capabilities)
	require.Len(t, script.Mappings, 1)
	assert.Equal(t, capability.None, script.Mappings[0].Data)

	template := tree.Find("App.svelte.template.html")
	require.NotNil(t, template)
	assert.Equal(t, "<button>{count}</button>", template.Content)

	host := tree.HostArtifact()
	require.NotEmpty(t, host.Mappings)
	scriptSpan := tree.Regions.Script.Span()
	found := false
	for _, e := range host.Mappings {
		if e.Source.Start >= scriptSpan.Start && e.Source.End <= scriptSpan.End {
			found = found || strings.Contains(e.Source.Of(text), "let count")
		}
	}
	assert.True(t, found, "host artifact maps back into the script")

	requireSound(t, tree)
}

func TestDualScript(t *testing.T) {
	text := "<script context=\"module\">\nexport const shared = 1;\n</script>\n<script>\nlet own = shared + 1;\n</script>"
	tree := build(t, text)

	assert.Equal(t, []string{"App.svelte.script.module.js", "App.svelte.script.js", "App.svelte.tsx"}, names(tree))

	host := tree.HostArtifact()
	var sources []string
	for _, e := range host.Mappings {
		sources = append(sources, e.Source.Of(text))
	}
	assert.Equal(t, []string{"\nexport const shared = 1;\n", "\nlet own = shared + 1;\n"}, sources)

	requireSound(t, tree)
}

func TestRootDocument(t *testing.T) {
	text := "<p>hi</p>"
	tree := build(t, text)

	assert.Equal(t, "App.svelte", tree.Root.Name)
	assert.Equal(t, text, tree.Root.Content)
	assert.Equal(t, capability.FullDocument, tree.Root.Capabilities)
	assert.Same(t, tree.Root, tree.Find("App.svelte"))
	assert.Nil(t, tree.Find("missing"))
	assert.Equal(t, []string{"App.svelte.tsx"}, names(tree))
}

func TestCurrentModeExtension(t *testing.T) {
	opts := transform.DefaultOptions()
	opts.Mode = transform.ModeCurrent
	tree := vdoc.NewBuilder(scriptCopier, opts).Build(context.Background(), vdocSnapshot("Card.svelte", "<script>let a;</script>"))

	require.NotNil(t, tree.Find("Card.svelte.ts"))
	assert.Nil(t, tree.Find("Card.svelte.tsx"))
}

func TestDeterminism(t *testing.T) {
	text := "<script>\nlet a = 1;\n</script>\n<style>p{}</style>\n<template><p>{a}</p></template>"
	builder := vdoc.NewBuilder(scriptCopier, transform.DefaultOptions())
	snap := vdocSnapshot("App.svelte", text)

	first := builder.Build(context.Background(), snap)
	second := builder.Build(context.Background(), snap)
	if d := diff.Values(first, second); d != "" {
		t.Fatalf("rebuilding changed the tree: %s", d)
	}
	require.Equal(t, first, second)
}

func TestFallback(t *testing.T) {
	text := "<script>\nlet a = 1;\n</script>\n{#if a}"
	tree := build(t, text)

	require.NotNil(t, tree.ParserError)
	assert.Equal(t, "Unclosed block", tree.ParserError.Message)
	assert.Equal(t, 1, tree.ParserError.Range.Start.Line)

	host := tree.HostArtifact()
	assert.Equal(t, "\nlet a = 1;\n", host.Content)
	require.Len(t, host.Mappings, 1)
	assert.Equal(t, tree.Regions.Script.Span(), host.Mappings[0].Source)
	requireSound(t, tree)
}

func TestUpdateClearsParserError(t *testing.T) {
	ctx := context.Background()
	doc := vdoc.NewDocument(ctx, vdoc.NewBuilder(scriptCopier, transform.DefaultOptions()), "App.svelte", "<script>let a;</script>\n{#if a}")
	require.NotNil(t, doc.Tree().ParserError)
	assert.Equal(t, int32(1), doc.Version())

	old := doc.Tree()
	next := doc.Update(ctx, "<script>let a;</script>\n{#if a}{/if}")
	assert.Nil(t, next.ParserError)
	assert.Equal(t, int32(2), doc.Version())
	assert.Same(t, next, doc.Tree())

	assert.NotNil(t, old.ParserError, "earlier trees are never modified")
	assert.Equal(t, int32(1), old.Version())
}

func TestAt(t *testing.T) {
	text := "<style>p{}</style><script>let a;</script><p>{a}</p>"
	tree := build(t, text)

	assert.Equal(t, "App.svelte.style.css", tree.At(strings.Index(text, "p{")).Name)
	assert.Equal(t, "App.svelte.script.js", tree.At(strings.Index(text, "let")).Name)
	assert.Equal(t, "App.svelte.tsx", tree.At(strings.Index(text, "<p>")).Name)
}

func TestConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	doc := vdoc.NewDocument(ctx, vdoc.NewBuilder(scriptCopier, transform.DefaultOptions()), "App.svelte", "<script>let v0;</script>")

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				tree := doc.Tree()
				want := fmt.Sprintf("let v%d;", tree.Version()-1)
				if tree.Regions.Script.Content != want {
					t.Errorf("version %d has script %q", tree.Version(), tree.Regions.Script.Content)
					return
				}
			}
		}()
	}

	for v := 1; v < 50; v++ {
		doc.Update(ctx, fmt.Sprintf("<script>let v%d;</script>", v))
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, int32(50), doc.Version())
}
