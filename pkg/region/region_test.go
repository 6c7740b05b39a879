package region_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/gosvelte/pkg/region"
)

type wantRegion struct {
	content string
	lang    string
	want    string // Language()
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		style        *wantRegion
		template     *wantRegion
		script       *wantRegion
		moduleScript *wantRegion
	}{
		{
			name:  "style only",
			text:  "<style>\n  p { color: red; }\n</style>",
			style: &wantRegion{content: "\n  p { color: red; }\n", want: "css"},
		},
		{
			name:     "script and template with languages",
			text:     "<script lang=\"ts\">let a: number = 1;</script>\n<template lang=\"pug\">p hi</template>",
			script:   &wantRegion{content: "let a: number = 1;", lang: "ts", want: "ts"},
			template: &wantRegion{content: "p hi", lang: "pug", want: "pug"},
		},
		{
			name:         "module and instance scripts",
			text:         "<script context=\"module\">export const x = 1;</script>\n<script>let y = x;</script>",
			moduleScript: &wantRegion{content: "export const x = 1;", want: "js"},
			script:       &wantRegion{content: "let y = x;", want: "js"},
		},
		{
			name:         "bare module attribute",
			text:         "<script module lang=\"ts\">export const x = 1;</script>",
			moduleScript: &wantRegion{content: "export const x = 1;", lang: "ts", want: "ts"},
		},
		{
			name:  "first style wins",
			text:  "<style>a{}</style><style>b{}</style>",
			style: &wantRegion{content: "a{}", want: "css"},
		},
		{
			name: "nested style is not top-level",
			text: "<div><style>.a{}</style></div>",
		},
		{
			name: "commented out elements are skipped",
			text: "<!-- <style>x</style> --><p>hi</p>",
		},
		{
			name:   "unclosed script runs to the end",
			text:   "<p>hi</p>\n<script>let a = ",
			script: &wantRegion{content: "let a = ", want: "js"},
		},
		{
			name:   "type attribute with text prefix",
			text:   "<script type=\"text/typescript\">let a</script>",
			script: &wantRegion{content: "let a", lang: "typescript", want: "typescript"},
		},
		{
			name:     "nested template elements",
			text:     "<template><template>x</template>y</template>",
			template: &wantRegion{content: "<template>x</template>y", want: "html"},
		},
		{
			name:   "stray end tags are ignored",
			text:   "</div>oops</span><script>a</script>",
			script: &wantRegion{content: "a", want: "js"},
		},
		{
			name:  "void element before style",
			text:  "<br><img src=\"x.png\"><style>a{}</style>",
			style: &wantRegion{content: "a{}", want: "css"},
		},
		{
			name:  "self closing style",
			text:  "<style /><p>x</p>",
			style: &wantRegion{content: "", want: "css"},
		},
		{
			name:   "script content containing markup",
			text:   "<script>const s = '<div></div>';</script><div>{s}</div>",
			script: &wantRegion{content: "const s = '<div></div>';", want: "js"},
		},
		{
			name:   "self closing style before script",
			text:   "<style />\n<script>let a = 1;</script>",
			style:  &wantRegion{content: "", want: "css"},
			script: &wantRegion{content: "let a = 1;", want: "js"},
		},
		{
			name:   "self closing script inside svelte:head",
			text:   "<svelte:head><script src=\"x.js\" /></svelte:head>\n<script>let a = 1;</script>\n<style>p{}</style>",
			script: &wantRegion{content: "let a = 1;", want: "js"},
			style:  &wantRegion{content: "p{}", want: "css"},
		},
		{
			name:   "comparison in a text expression",
			text:   "<div>{a<b}</div>\n<script>let a = 1;</script>",
			script: &wantRegion{content: "let a = 1;", want: "js"},
		},
		{
			name:  "comparison in a block condition",
			text:  "{#if n<10}<p>small</p>{/if}\n<style>p{}</style>",
			style: &wantRegion{content: "p{}", want: "css"},
		},
		{
			name:   "arrow function in an attribute",
			text:   "<button on:click={() => a > b}>x</button><script>let a;</script>",
			script: &wantRegion{content: "let a;", want: "js"},
		},
		{
			name:   "brace inside a string in an expression",
			text:   "<p>{'}' + a<b}</p><script>x</script>",
			script: &wantRegion{content: "x", want: "js"},
		},
		{
			name:  "child combinator in style",
			text:  "<style>a > b {}</style>",
			style: &wantRegion{content: "a > b {}", want: "css"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := region.Extract(tt.text)

			check := func(label string, got *region.Region, want *wantRegion) {
				if want == nil {
					assert.Nil(t, got, label)
					return
				}
				require.NotNil(t, got, label)
				assert.Equal(t, want.content, got.Content, label)
				assert.Equal(t, want.lang, got.Lang, label)
				assert.Equal(t, want.want, got.Language(), label)
				assert.Equal(t, tt.text[got.Start:got.End], got.Content, label)
				assert.True(t, got.Span().Valid(len(tt.text)), label)
				assert.True(t, got.Tag.Start <= got.Start && got.End <= got.Tag.End, label)
			}

			check("style", set.Style, tt.style)
			check("template", set.Template, tt.template)
			check("script", set.Script, tt.script)
			check("module script", set.ModuleScript, tt.moduleScript)
		})
	}
}

func TestExtractNeverOverlaps(t *testing.T) {
	text := strings.Join([]string{
		"<script context=\"module\">export const a = 1;</script>",
		"<script lang=\"ts\">let b: string = '</p>';</script>",
		"<template><p>{b}</p></template>",
		"<style lang=\"scss\">p { a: b; }</style>",
	}, "\n")

	set := region.Extract(text)
	all := set.All()
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].End, all[i].Start)
	}

	assert.True(t, set.TypedOutput())
	assert.Equal(t, set.Script, set.PrimaryScript())
	assert.Equal(t, []*region.Region{set.ModuleScript, set.Script}, set.Scripts())
}

func TestExtractMalformed(t *testing.T) {
	inputs := []string{
		"",
		"<",
		"<script",
		"<script>",
		"<style>a{</style",
		"<template><div></template",
		"\x00<script>\x00</script>",
		"<<p>><<style>>",
	}

	for _, text := range inputs {
		set := region.Extract(text)
		for _, r := range set.All() {
			require.True(t, r.Span().Valid(len(text)), "input %q", text)
			require.Equal(t, text[r.Start:r.End], r.Content, "input %q", text)
		}
	}
}

func TestPrimaryScriptFallsBackToModule(t *testing.T) {
	set := region.Extract("<script context=\"module\">export let a;</script>")
	require.Nil(t, set.Script)
	require.Equal(t, set.ModuleScript, set.PrimaryScript())
	require.False(t, set.TypedOutput())
}

func TestParseTree(t *testing.T) {
	text := "<div class=\"a\">x</div><Widget/><style>p{}</style>"
	tree := region.Parse(text)

	require.Len(t, tree.Roots, 3)
	assert.Equal(t, "div", tree.Roots[0].Name)
	assert.Equal(t, "a", tree.Roots[0].Attributes["class"])
	assert.Equal(t, "x", text[tree.Roots[0].ContentStart:tree.Roots[0].ContentEnd])
	assert.True(t, tree.Roots[1].SelfClosing)
	assert.Len(t, tree.Find("style"), 1)
	assert.Equal(t, len(text), tree.Roots[2].End)
}

func TestParseTreeAfterSelfClosingRawText(t *testing.T) {
	text := "<style/><div>x</div>"
	tree := region.Parse(text)

	require.Len(t, tree.Roots, 2)
	assert.True(t, tree.Roots[0].SelfClosing)
	assert.Equal(t, "div", tree.Roots[1].Name)
	assert.Equal(t, 8, tree.Roots[1].Start)
	assert.Equal(t, "x", text[tree.Roots[1].ContentStart:tree.Roots[1].ContentEnd])
	assert.True(t, tree.Roots[1].Closed)
}
