// Package langservice routes host language service requests for composite documents
// through their generated host artifacts.
package langservice

import (
	"context"

	"github.com/walteh/gosvelte/pkg/diagnostic"
	"github.com/walteh/gosvelte/pkg/position"
)

// Location is a span of a named document.
type Location struct {
	FileName string        `json:"fileName" yaml:"fileName"`
	Span     position.Span `json:"span" yaml:"span"`
}

type QuickInfo struct {
	Span position.Span `json:"span" yaml:"span"`
	Text string        `json:"text" yaml:"text"`
}

type Completion struct {
	Name string `json:"name" yaml:"name"`
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`
	// Replace is the span the completion replaces, nil to insert at the cursor
	Replace *position.Span `json:"replace,omitempty" yaml:"replace,omitempty"`
}

type CompletionList struct {
	Entries []Completion `json:"entries" yaml:"entries"`
}

type SignatureHelp struct {
	Span     position.Span `json:"span" yaml:"span"`
	Items    []string      `json:"items" yaml:"items"`
	Selected int           `json:"selected" yaml:"selected"`
}

// Service is the host language service surface, addressed by document name and byte
// offset.
type Service interface {
	SemanticDiagnostics(ctx context.Context, file string) ([]diagnostic.Diagnostic, error)
	SyntacticDiagnostics(ctx context.Context, file string) ([]diagnostic.Diagnostic, error)
	QuickInfo(ctx context.Context, file string, offset int) (*QuickInfo, error)
	Completions(ctx context.Context, file string, offset int) (*CompletionList, error)
	Definition(ctx context.Context, file string, offset int) ([]Location, error)
	References(ctx context.Context, file string, offset int) ([]Location, error)
	RenameLocations(ctx context.Context, file string, offset int) ([]Location, error)
	SignatureHelp(ctx context.Context, file string, offset int) (*SignatureHelp, error)
	Format(ctx context.Context, file string) (string, error)
}

// Engine is a host language service that virtual documents can be handed to.
type Engine interface {
	Service
	SetDocument(ctx context.Context, name, content string, version int32) error
	RemoveDocument(ctx context.Context, name string) error
}
