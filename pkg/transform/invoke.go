package transform

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/gosvelte/pkg/buffer"
	"github.com/walteh/gosvelte/pkg/capability"
	"github.com/walteh/gosvelte/pkg/mapping"
	"github.com/walteh/gosvelte/pkg/position"
	"github.com/walteh/gosvelte/pkg/region"
	"gitlab.com/tozd/go/errors"
)

// UnclassifiedCode is the code of parser errors the generator did not classify.
const UnclassifiedCode = -1

// ParserError is a generator failure placed in the composite document.
type ParserError struct {
	Message string         `json:"message" yaml:"message"`
	Range   position.Range `json:"range" yaml:"range"`
	Code    int            `json:"code" yaml:"code"`
}

func (e *ParserError) Error() string {
	return e.Message
}

// Result is the host artifact content and its mapping back to the composite document.
type Result struct {
	Text       string
	Mappings   mapping.List
	BaseOffset int
	// Error is set when the generator failed and Text is the fallback script content
	Error *ParserError
}

func (me *Result) Failed() bool {
	return me.Error != nil
}

// Invoke runs the generator once over the whole document. It never fails: a generator
// error is converted into a ParserError and the verbatim primary script is used as the
// artifact so raw text features keep working.
func Invoke(ctx context.Context, gen Generator, snap buffer.Snapshot, regions *region.Set, opts Options) *Result {
	logger := zerolog.Ctx(ctx).With().Str("file", snap.Name()).Int32("version", snap.Version()).Logger()

	out, err := gen.Generate(ctx, opts.Request(snap, regions))
	if err == nil && out == nil {
		err = errors.New("generator returned no output")
	}
	if err != nil {
		perr := NewParserError(err)
		logger.Debug().Err(err).Str("range", perr.Range.Start.String()).Msg("generator failed, falling back to script content")
		return fallback(regions, perr)
	}

	res := &Result{Text: out.Code}

	if out.HasMap {
		if script := regions.PrimaryScript(); script != nil {
			if directive := DirectivePrefix(script.Content, opts.Newline); directive != "" {
				res.Text = directive + out.Code
				res.BaseOffset = len(directive)
			}
		}
		res.Mappings = mapping.Reconcile(snap.String(), out.Code, out.Mappings, res.BaseOffset, opts.MapEncoding)
	}

	logger.Debug().Int("mappings", len(res.Mappings)).Int("base_offset", res.BaseOffset).Int("generated_bytes", len(res.Text)).Msg("generated host artifact")

	return res
}

// NewParserError converts a generator failure. Generator lines are 1-based and become
// 0-based, columns are kept; a missing end collapses the range onto its start.
func NewParserError(err error) *ParserError {
	perr := &ParserError{Message: err.Error(), Code: UnclassifiedCode}

	var gerr *GenerateError
	if !errors.As(err, &gerr) {
		return perr
	}

	perr.Message = gerr.Message
	if gerr.Start != nil {
		perr.Range.Start = position.Place{Line: max(gerr.Start.Line-1, 0), Character: gerr.Start.Column}
	}
	perr.Range.End = perr.Range.Start
	if gerr.End != nil {
		perr.Range.End = position.Place{Line: max(gerr.End.Line-1, 0), Character: gerr.End.Column}
	}
	return perr
}

func fallback(regions *region.Set, perr *ParserError) *Result {
	script := regions.PrimaryScript()
	if script == nil {
		return &Result{
			Mappings: mapping.List{{Data: capability.Full}},
			Error:    perr,
		}
	}
	return &Result{
		Text: script.Content,
		Mappings: mapping.List{{
			Source:    script.Span(),
			Generated: position.NewSpan(0, len(script.Content)),
			Data:      capability.Full,
		}},
		Error: perr,
	}
}

var directiveComment = regexp.MustCompile(`^//\s*@ts-(no)?check\b`)

// DirectivePrefix returns the type-check directive line to prepend to generated code
// when the script's leading comments contain one, or "".
func DirectivePrefix(script, newline string) string {
	if newline == "" {
		newline = "\n"
	}
	rest := script
	for {
		rest = strings.TrimLeft(rest, " \t\r\n\uFEFF")
		switch {
		case strings.HasPrefix(rest, "//"):
			line := rest
			if i := strings.IndexAny(rest, "\r\n"); i >= 0 {
				line, rest = rest[:i], rest[i:]
			} else {
				rest = ""
			}
			if m := directiveComment.FindStringSubmatch(line); m != nil {
				if m[1] != "" {
					return "// @ts-nocheck" + newline
				}
				return "// @ts-check" + newline
			}
		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				return ""
			}
			rest = rest[2+end+2:]
		default:
			return ""
		}
	}
}
