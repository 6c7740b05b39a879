package transform_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/gosvelte/pkg/buffer"
	"github.com/walteh/gosvelte/pkg/capability"
	"github.com/walteh/gosvelte/pkg/diff"
	"github.com/walteh/gosvelte/pkg/mapping"
	"github.com/walteh/gosvelte/pkg/position"
	"github.com/walteh/gosvelte/pkg/region"
	"github.com/walteh/gosvelte/pkg/sourcemap"
	"github.com/walteh/gosvelte/pkg/transform"
	"gitlab.com/tozd/go/errors"
)

const component = "<script>\n// @ts-check\nlet a = 1;\n</script>\n<p>{a}</p>"

// copyGenerator wraps the statement starting at needle in a render function.
func copyGenerator(t *testing.T, needle string, n int) transform.Generator {
	t.Helper()
	return transform.GeneratorFunc(func(ctx context.Context, req *transform.Request) (*transform.Output, error) {
		i := strings.Index(req.Text, needle)
		require.GreaterOrEqual(t, i, 0)
		b := sourcemap.NewBuilder(position.EncodingUTF16)
		b.Unmapped("export default function render() {\n")
		b.Mapped(req.Text[i:i+n], position.NewIndex(req.Text).PlaceAt(i, position.EncodingUTF16))
		b.Unmapped("\n}")
		return &transform.Output{Code: b.String(), Mappings: b.Lines(), HasMap: true}, nil
	})
}

func failingGenerator(err error) transform.Generator {
	return transform.GeneratorFunc(func(ctx context.Context, req *transform.Request) (*transform.Output, error) {
		return nil, err
	})
}

func invoke(t *testing.T, gen transform.Generator, text string) (*transform.Result, *region.Set) {
	t.Helper()
	snap := buffer.New("App.svelte", 1, text)
	regions := region.Extract(text)
	return transform.Invoke(context.Background(), gen, snap, regions, transform.DefaultOptions()), regions
}

func TestInvokeWithDirective(t *testing.T) {
	res, _ := invoke(t, copyGenerator(t, "let a", len("let a = 1;")), component)

	require.False(t, res.Failed())
	assert.Equal(t, len("// @ts-check\n"), res.BaseOffset)
	assert.True(t, strings.HasPrefix(res.Text, "// @ts-check\nexport default function render() {\n"))

	require.NoError(t, res.Mappings.Validate(component, res.Text, true))
	require.Len(t, res.Mappings, 1)
	assert.Equal(t, "let a = 1;", res.Mappings[0].Source.Of(component))
	assert.Equal(t, "let a = 1;", res.Mappings[0].Generated.Of(res.Text))
	assert.Equal(t, capability.Full, res.Mappings[0].Data)
}

func TestInvokeWithoutDirective(t *testing.T) {
	text := "<script>\nlet a = 1;\n</script>"
	res, _ := invoke(t, copyGenerator(t, "let a", len("let a = 1;")), text)

	require.False(t, res.Failed())
	assert.Zero(t, res.BaseOffset)
	assert.True(t, strings.HasPrefix(res.Text, "export default"))
	require.NoError(t, res.Mappings.Validate(text, res.Text, true))
	require.Len(t, res.Mappings, 1)
}

func TestInvokeWithoutMap(t *testing.T) {
	gen := transform.GeneratorFunc(func(ctx context.Context, req *transform.Request) (*transform.Output, error) {
		return &transform.Output{Code: "export {}"}, nil
	})
	res, _ := invoke(t, gen, component)

	require.False(t, res.Failed())
	assert.Equal(t, "export {}", res.Text)
	assert.Zero(t, res.BaseOffset, "the directive is only added when a map exists")
	assert.Empty(t, res.Mappings)
}

func TestInvokeFallback(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantMsg   string
		wantRange position.Range
	}{
		{
			name:      "located error",
			err:       &transform.GenerateError{Message: "Unexpected token", Start: &transform.Location{Line: 3, Column: 4}, End: &transform.Location{Line: 3, Column: 9}},
			wantMsg:   "Unexpected token",
			wantRange: position.Range{Start: position.Place{Line: 2, Character: 4}, End: position.Place{Line: 2, Character: 9}},
		},
		{
			name:      "missing end collapses onto start",
			err:       &transform.GenerateError{Message: "bad", Start: &transform.Location{Line: 1, Column: 2}},
			wantMsg:   "bad",
			wantRange: position.Range{Start: position.Place{Line: 0, Character: 2}, End: position.Place{Line: 0, Character: 2}},
		},
		{
			name:    "missing start",
			err:     &transform.GenerateError{Message: "bad"},
			wantMsg: "bad",
		},
		{
			name:      "wrapped",
			err:       errors.Errorf("compiling: %w", &transform.GenerateError{Message: "inner", Start: &transform.Location{Line: 5, Column: 0}}),
			wantMsg:   "inner",
			wantRange: position.Range{Start: position.Place{Line: 4}, End: position.Place{Line: 4}},
		},
		{
			name:    "unclassified",
			err:     errors.New("process crashed"),
			wantMsg: "process crashed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, regions := invoke(t, failingGenerator(tt.err), component)

			require.True(t, res.Failed())
			assert.Equal(t, tt.wantMsg, res.Error.Message)
			assert.Equal(t, tt.wantRange, res.Error.Range)
			assert.Equal(t, transform.UnclassifiedCode, res.Error.Code)

			script := regions.PrimaryScript()
			assert.Empty(t, diff.Text(script.Content, res.Text))
			assert.Zero(t, res.BaseOffset)
			require.Equal(t, mapping.List{{
				Source:    script.Span(),
				Generated: position.NewSpan(0, len(script.Content)),
				Data:      capability.Full,
			}}, res.Mappings)
			require.NoError(t, res.Mappings.Validate(component, res.Text, true))
		})
	}
}

func TestInvokeFallbackWithoutScript(t *testing.T) {
	res, _ := invoke(t, failingGenerator(errors.New("boom")), "<p>hi</p>")

	require.True(t, res.Failed())
	assert.Empty(t, res.Text)
	require.Len(t, res.Mappings, 1)
	assert.Equal(t, position.NewSpan(0, 0), res.Mappings[0].Source)
	assert.Equal(t, position.NewSpan(0, 0), res.Mappings[0].Generated)
}

func TestInvokeFallbackPrefersInstanceScript(t *testing.T) {
	text := "<script context=\"module\">export const x = 1;</script>\n<script>let y = 2;</script>"
	res, _ := invoke(t, failingGenerator(errors.New("boom")), text)

	assert.Equal(t, "let y = 2;", res.Text)
	assert.Equal(t, "let y = 2;", res.Mappings[0].Source.Of(text))
}

func TestInvokeNilOutput(t *testing.T) {
	gen := transform.GeneratorFunc(func(ctx context.Context, req *transform.Request) (*transform.Output, error) {
		return nil, nil
	})
	res, _ := invoke(t, gen, component)
	require.True(t, res.Failed())
}

func TestDirectivePrefix(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{name: "check", script: "\n// @ts-check\nlet a;", want: "// @ts-check\n"},
		{name: "nocheck", script: "//@ts-nocheck\n", want: "// @ts-nocheck\n"},
		{name: "after other comments", script: "  /* header */\n// eslint-disable\n// @ts-check", want: "// @ts-check\n"},
		{name: "after code", script: "let a;\n// @ts-check", want: ""},
		{name: "unterminated block comment", script: "/* open", want: ""},
		{name: "similar word", script: "// @ts-checker", want: ""},
		{name: "empty", script: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transform.DirectivePrefix(tt.script, "\n"))
		})
	}

	assert.Equal(t, "// @ts-check\r\n", transform.DirectivePrefix("// @ts-check", "\r\n"))
}

func TestOptionsRequest(t *testing.T) {
	text := "<script lang=\"ts\">let a: number = 1;</script>"
	snap := buffer.New("Widget.svelte", 3, text)
	regions := region.Extract(text)

	opts := transform.DefaultOptions()
	req := opts.Request(snap, regions)
	assert.Equal(t, "Widget.svelte", req.Filename)
	assert.Equal(t, text, req.Text)
	assert.True(t, req.IsTsFile)
	assert.Equal(t, "tsx", req.Mode)
	assert.Empty(t, req.TypingsNamespace, "legacy mode does not forward the namespace")
	assert.True(t, req.EmitOnTemplateError)
	assert.False(t, req.Accessors)

	yes := true
	opts.Mode = transform.ModeCurrent
	opts.TypedOutput = transform.TypedNever
	opts.CustomElement = false
	opts.ElementAccessors = &yes
	req = opts.Request(snap, regions)
	assert.False(t, req.IsTsFile)
	assert.Equal(t, "ts", req.Mode)
	assert.Equal(t, "svelteHTML", req.TypingsNamespace)
	assert.True(t, req.Accessors)
}

func TestParseModeAndTyped(t *testing.T) {
	mode, err := transform.ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, transform.ModeLegacy, mode)
	assert.Equal(t, ".tsx", mode.Extension())
	assert.Equal(t, ".ts", transform.ModeCurrent.Extension())

	_, err = transform.ParseMode("svelte6")
	require.Error(t, err)

	typed, err := transform.ParseTyped("true")
	require.NoError(t, err)
	assert.Equal(t, transform.TypedAlways, typed)

	_, err = transform.ParseTyped("maybe")
	require.Error(t, err)
}
