package config

import (
	"path/filepath"

	"github.com/editorconfig/editorconfig-core-go/v2"
	"gitlab.com/tozd/go/errors"
)

// NewlineFor returns the line terminator .editorconfig files declare for file, "\n"
// when none does.
func NewlineFor(file string) (string, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", errors.Errorf("resolving %s: %w", file, err)
	}

	def, err := editorconfig.GetDefinitionForFilename(abs)
	if err != nil {
		return "", errors.Errorf("reading editorconfig for %s: %w", file, err)
	}

	switch def.EndOfLine {
	case editorconfig.EndOfLineCrLf:
		return "\r\n", nil
	case editorconfig.EndOfLineCr:
		return "\r", nil
	default:
		return "\n", nil
	}
}
