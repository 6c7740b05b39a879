package transform

import (
	"github.com/walteh/gosvelte/pkg/buffer"
	"github.com/walteh/gosvelte/pkg/position"
	"github.com/walteh/gosvelte/pkg/region"
	"gitlab.com/tozd/go/errors"
)

// Mode selects between the two generated artifact schemas.
type Mode string

const (
	// ModeLegacy generates a .tsx artifact
	ModeLegacy Mode = "legacy"
	// ModeCurrent generates a .ts artifact and forwards the type namespace
	ModeCurrent Mode = "current"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeLegacy, nil
	case ModeLegacy, ModeCurrent:
		return Mode(s), nil
	}
	return "", errors.Errorf("unknown generation mode %q", s)
}

// Extension is the file extension of the generated artifact.
func (m Mode) Extension() string {
	if m == ModeCurrent {
		return ".ts"
	}
	return ".tsx"
}

func (m Mode) generatorMode() string {
	if m == ModeCurrent {
		return "ts"
	}
	return "tsx"
}

// Typed decides whether the artifact targets the typed host language.
type Typed string

const (
	// TypedAuto follows the scripts' declared language
	TypedAuto   Typed = "auto"
	TypedAlways Typed = "always"
	TypedNever  Typed = "never"
)

func ParseTyped(s string) (Typed, error) {
	switch Typed(s) {
	case "":
		return TypedAuto, nil
	case TypedAuto, TypedAlways, TypedNever:
		return Typed(s), nil
	case "true":
		return TypedAlways, nil
	case "false":
		return TypedNever, nil
	}
	return "", errors.Errorf("unknown typed-output value %q", s)
}

// Options is the generation-mode configuration.
type Options struct {
	Mode                Mode
	TypedOutput         Typed
	EmitOnTemplateError bool
	TypeNamespace       string
	// ElementAccessors overrides CustomElement when set
	ElementAccessors *bool
	CustomElement    bool
	Namespace        string

	// MapEncoding is the unit of source map columns
	MapEncoding position.Encoding
	// Newline terminates the directive line prepended to generated code
	Newline string
}

func DefaultOptions() Options {
	return Options{
		Mode:                ModeLegacy,
		TypedOutput:         TypedAuto,
		EmitOnTemplateError: true,
		TypeNamespace:       "svelteHTML",
		MapEncoding:         position.EncodingUTF16,
		Newline:             "\n",
	}
}

func (me Options) accessors() bool {
	if me.ElementAccessors != nil {
		return *me.ElementAccessors
	}
	return me.CustomElement
}

func (me Options) typed(regions *region.Set) bool {
	switch me.TypedOutput {
	case TypedAlways:
		return true
	case TypedNever:
		return false
	}
	return regions.TypedOutput()
}

// Request builds the generator request for a snapshot.
func (me Options) Request(snap buffer.Snapshot, regions *region.Set) *Request {
	req := &Request{
		Filename:            snap.Name(),
		Text:                snap.String(),
		IsTsFile:            me.typed(regions),
		Mode:                me.Mode.generatorMode(),
		EmitOnTemplateError: me.EmitOnTemplateError,
		Namespace:           me.Namespace,
		Accessors:           me.accessors(),
	}
	if me.Mode == ModeCurrent {
		req.TypingsNamespace = me.TypeNamespace
	}
	return req
}
