package diagnostic

import (
	"context"
	"encoding/json"

	"fortio.org/safecast"
	"github.com/rs/zerolog"
	"github.com/walteh/gosvelte/pkg/capability"
	"github.com/walteh/gosvelte/pkg/position"
	"github.com/walteh/gosvelte/pkg/transform"
	"github.com/walteh/gosvelte/pkg/vdoc"
	"gitlab.com/tozd/go/errors"
)

// Severity represents the severity level of a diagnostic
type Severity string

const (
	SeverityError       Severity = "error"
	SeverityWarning     Severity = "warning"
	SeverityInformation Severity = "info"
	SeverityHint        Severity = "hint"
)

// Protocol returns the editor protocol value of the severity.
func (s Severity) Protocol() int {
	switch s {
	case SeverityError:
		return 1
	case SeverityWarning:
		return 2
	case SeverityInformation:
		return 3
	default:
		return 4
	}
}

// SourceParser marks diagnostics produced from generator failures.
const SourceParser = "svelte"

// Diagnostic is a message attached to a range of a document. Span is in bytes, Range
// in lines and characters of the configured encoding; both describe the same place.
type Diagnostic struct {
	Message  string         `json:"message" yaml:"message"`
	Source   string         `json:"source,omitempty" yaml:"source,omitempty"`
	Code     int            `json:"code" yaml:"code"`
	Severity Severity       `json:"severity" yaml:"severity"`
	Span     position.Span  `json:"span" yaml:"span"`
	Range    position.Range `json:"range" yaml:"range"`
}

// FromParserError converts a generator failure into a document level error.
func FromParserError(perr *transform.ParserError, idx *position.Index, enc position.Encoding) Diagnostic {
	start := idx.OffsetAt(perr.Range.Start, enc)
	end := max(idx.OffsetAt(perr.Range.End, enc), start)
	return Diagnostic{
		Message:  perr.Message,
		Source:   SourceParser,
		Code:     perr.Code,
		Severity: SeverityError,
		Span:     position.NewSpan(start, end),
		Range:    perr.Range,
	}
}

// ForTree returns the diagnostics the tree carries on its own: its parser error, if any.
func ForTree(tree *vdoc.Tree, enc position.Encoding) []Diagnostic {
	if tree.ParserError == nil {
		return nil
	}
	idx := position.NewIndex(tree.Snapshot.String())
	return []Diagnostic{FromParserError(tree.ParserError, idx, enc)}
}

// Project moves diagnostics reported against a virtual document of tree back onto the
// composite document. Diagnostics whose span cannot be translated are dropped, except
// that a span whose end falls outside the mapped ranges collapses onto its start.
func Project(ctx context.Context, tree *vdoc.Tree, doc *vdoc.VirtualDocument, diags []Diagnostic, enc position.Encoding) []Diagnostic {
	if len(diags) == 0 || !doc.Supports(capability.Diagnostics) {
		return nil
	}

	idx := position.NewIndex(tree.Snapshot.String())
	out := make([]Diagnostic, 0, len(diags))
	dropped := 0

	for _, d := range diags {
		span, ok := doc.Mappings.ToSourceSpan(d.Span, capability.Diagnostics)
		if !ok {
			start, startOK := doc.Mappings.ToSource(d.Span.Start, capability.Diagnostics)
			if !startOK {
				dropped++
				continue
			}
			span = position.NewSpan(start, start)
		}
		d.Span = span
		d.Range = idx.RangeOf(span, enc)
		out = append(out, d)
	}

	if dropped > 0 {
		zerolog.Ctx(ctx).Debug().Str("file", doc.Name).Int("dropped", dropped).Msg("diagnostics outside mapped ranges")
	}

	return out
}

// Formatter formats diagnostics into different output formats
type Formatter interface {
	Format(diags []Diagnostic) ([]byte, error)
}

// VSCodeFormatter formats diagnostics the way the editor protocol expects them
type VSCodeFormatter struct{}

func NewVSCodeFormatter() *VSCodeFormatter {
	return &VSCodeFormatter{}
}

type ProtocolPosition struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

type ProtocolRange struct {
	Start ProtocolPosition `json:"start"`
	End   ProtocolPosition `json:"end"`
}

type vscodeDiagnostic struct {
	Severity int           `json:"severity"`
	Message  string        `json:"message"`
	Source   string        `json:"source,omitempty"`
	Code     int           `json:"code"`
	Range    ProtocolRange `json:"range"`
}

func (f *VSCodeFormatter) Format(diags []Diagnostic) ([]byte, error) {
	result := make([]vscodeDiagnostic, 0, len(diags))
	for _, d := range diags {
		rng, err := ToProtocol(d.Range)
		if err != nil {
			return nil, errors.Errorf("formatting diagnostic %q: %w", d.Message, err)
		}
		result = append(result, vscodeDiagnostic{
			Severity: d.Severity.Protocol(),
			Message:  d.Message,
			Source:   d.Source,
			Code:     d.Code,
			Range:    rng,
		})
	}
	return json.Marshal(result)
}

// ToProtocol converts r to the unsigned coordinates of the editor protocol.
func ToProtocol(r position.Range) (ProtocolRange, error) {
	start, err := protocolPosition(r.Start)
	if err != nil {
		return ProtocolRange{}, err
	}
	end, err := protocolPosition(r.End)
	if err != nil {
		return ProtocolRange{}, err
	}
	return ProtocolRange{Start: start, End: end}, nil
}

func protocolPosition(p position.Place) (ProtocolPosition, error) {
	line, err := safecast.Conv[uint32](p.Line)
	if err != nil {
		return ProtocolPosition{}, errors.Errorf("line %d: %w", p.Line, err)
	}
	char, err := safecast.Conv[uint32](p.Character)
	if err != nil {
		return ProtocolPosition{}, errors.Errorf("character %d: %w", p.Character, err)
	}
	return ProtocolPosition{Line: line, Character: char}, nil
}
