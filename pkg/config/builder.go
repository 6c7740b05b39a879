package config

import (
	"github.com/walteh/gosvelte/pkg/transform"
	"github.com/walteh/gosvelte/pkg/vdoc"
)

// Builder returns a tree builder for file. The newline of the directive prefix comes
// from .editorconfig, and without a configured generator every document falls back
// to its script content.
func (me *Config) Builder(file string) (*vdoc.Builder, error) {
	newline, err := NewlineFor(file)
	if err != nil {
		return nil, err
	}

	opts, err := me.Options(newline)
	if err != nil {
		return nil, err
	}

	var gen transform.Generator = transform.Unconfigured
	exec, err := me.ExecGenerator()
	if err != nil {
		return nil, err
	}
	if exec != nil {
		gen = exec
	}

	return vdoc.NewBuilder(gen, opts), nil
}
