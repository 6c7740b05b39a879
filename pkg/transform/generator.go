package transform

import (
	"context"
	"fmt"

	"github.com/walteh/gosvelte/pkg/sourcemap"
	"gitlab.com/tozd/go/errors"
)

// Request is what a generator receives. Field names follow the generator's own
// option names so the JSON form can be handed to it as is.
type Request struct {
	Filename            string `json:"filename"`
	Text                string `json:"text"`
	IsTsFile            bool   `json:"isTsFile"`
	Mode                string `json:"mode"`
	TypingsNamespace    string `json:"typingsNamespace,omitempty"`
	EmitOnTemplateError bool   `json:"emitOnTemplateError"`
	Namespace           string `json:"namespace,omitempty"`
	Accessors           bool   `json:"accessors"`
}

// Output is the generated code and its delta-encoded mapping. HasMap is false when
// the generator produced no map at all.
type Output struct {
	Code     string
	Mappings [][]sourcemap.Segment
	HasMap   bool
}

// Generator produces host language code from a composite document. It must be
// deterministic for identical requests.
type Generator interface {
	Generate(ctx context.Context, req *Request) (*Output, error)
}

type GeneratorFunc func(ctx context.Context, req *Request) (*Output, error)

func (f GeneratorFunc) Generate(ctx context.Context, req *Request) (*Output, error) {
	return f(ctx, req)
}

// Unconfigured fails every request, which leaves each document with the fallback artifact.
var Unconfigured = GeneratorFunc(func(ctx context.Context, req *Request) (*Output, error) {
	return nil, errors.New("no generator configured")
})

// Location is a generator position: Line is 1-based, Column 0-based.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// GenerateError is a failure the generator could attribute to a place in the input.
type GenerateError struct {
	Message string    `json:"message"`
	Start   *Location `json:"start,omitempty"`
	End     *Location `json:"end,omitempty"`
}

func (e *GenerateError) Error() string {
	if e.Start == nil {
		return e.Message
	}
	return fmt.Sprintf("%s (%d:%d)", e.Message, e.Start.Line, e.Start.Column)
}
