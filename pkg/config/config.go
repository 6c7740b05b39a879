// Package config loads the generation settings of a workspace.
package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/spf13/afero"
	"github.com/walteh/gosvelte/pkg/position"
	"github.com/walteh/gosvelte/pkg/transform"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// DefaultFileNames are looked up, in order, when no config file is given.
var DefaultFileNames = []string{"gosvelte.yaml", "gosvelte.yml", "gosvelte.hcl", "gosvelte.toml"}

var DefaultInclude = []string{"**/*.svelte"}

type Config struct {
	Generation *GenerationBlock `json:"generation,omitempty" yaml:"generation,omitempty" hcl:"generation,block" toml:"generation"`
	Generator  *GeneratorBlock  `json:"generator,omitempty" yaml:"generator,omitempty" hcl:"generator,block" toml:"generator"`
	// Encoding is the unit of generator source map columns
	Encoding string   `json:"encoding,omitempty" yaml:"encoding,omitempty" hcl:"encoding,optional" toml:"encoding"`
	Include  []string `json:"include,omitempty" yaml:"include,omitempty" hcl:"include,optional" toml:"include"`
}

type GenerationBlock struct {
	Mode                string `json:"mode,omitempty" yaml:"mode,omitempty" hcl:"mode,optional" toml:"mode"`
	TypedOutput         string `json:"typed_output,omitempty" yaml:"typed_output,omitempty" hcl:"typed_output,optional" toml:"typed_output"`
	EmitOnTemplateError *bool  `json:"emit_on_template_error,omitempty" yaml:"emit_on_template_error,omitempty" hcl:"emit_on_template_error,optional" toml:"emit_on_template_error"`
	TypeNamespace       string `json:"type_namespace,omitempty" yaml:"type_namespace,omitempty" hcl:"type_namespace,optional" toml:"type_namespace"`
	ElementAccessors    *bool  `json:"element_accessors,omitempty" yaml:"element_accessors,omitempty" hcl:"element_accessors,optional" toml:"element_accessors"`
	CustomElement       bool   `json:"custom_element,omitempty" yaml:"custom_element,omitempty" hcl:"custom_element,optional" toml:"custom_element"`
	Namespace           string `json:"namespace,omitempty" yaml:"namespace,omitempty" hcl:"namespace,optional" toml:"namespace"`
}

type GeneratorBlock struct {
	Command []string `json:"command" yaml:"command" hcl:"command,attr" toml:"command"`
	Dir     string   `json:"dir,omitempty" yaml:"dir,omitempty" hcl:"dir,optional" toml:"dir"`
	Env     []string `json:"env,omitempty" yaml:"env,omitempty" hcl:"env,optional" toml:"env"`
	Timeout string   `json:"timeout,omitempty" yaml:"timeout,omitempty" hcl:"timeout,optional" toml:"timeout"`
}

func Default() *Config {
	return &Config{
		Generation: &GenerationBlock{},
		Encoding:   string(position.EncodingUTF16),
		Include:    DefaultInclude,
	}
}

// Load reads a config file from fsys. The format follows the extension: .yaml and .yml
// are YAML, .toml is TOML and anything else is HCL. Missing settings take their
// defaults; unknown settings are an error.
func Load(fsys afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, errors.Errorf("parsing YAML: %w", err)
		}
	case ".toml":
		meta, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, errors.Errorf("parsing TOML: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, errors.Errorf("parsing TOML: unknown keys %v", undecoded)
		}
	default:
		parser := hclparse.NewParser()
		hclFile, diags := parser.ParseHCL(data, path)
		if diags.HasErrors() {
			return nil, errors.Errorf("parsing HCL: %s", diags.Error())
		}

		ctx := &hcl.EvalContext{
			Variables: map[string]cty.Value{
				"config_dir": cty.StringVal(filepath.Dir(path)),
			},
		}

		diags = gohcl.DecodeBody(hclFile.Body, ctx, &cfg)
		if diags.HasErrors() {
			return nil, errors.Errorf("decoding HCL: %s", diags.Error())
		}
	}

	cfg.fill()
	return &cfg, nil
}

// Find loads the first of DefaultFileNames present in dir, or returns Default.
func Find(fsys afero.Fs, dir string) (*Config, string, error) {
	for _, name := range DefaultFileNames {
		path := filepath.Join(dir, name)
		ok, err := afero.Exists(fsys, path)
		if err != nil {
			return nil, "", errors.Errorf("checking %s: %w", path, err)
		}
		if !ok {
			continue
		}
		cfg, err := Load(fsys, path)
		if err != nil {
			return nil, "", errors.Errorf("loading %s: %w", path, err)
		}
		return cfg, path, nil
	}
	return Default(), "", nil
}

func (me *Config) fill() {
	if me.Generation == nil {
		me.Generation = &GenerationBlock{}
	}
	if me.Encoding == "" {
		me.Encoding = string(position.EncodingUTF16)
	}
	if len(me.Include) == 0 {
		me.Include = DefaultInclude
	}
}

// Validate reports every invalid setting at once.
func (me *Config) Validate() error {
	var result *multierror.Error

	if me.Generation != nil {
		if _, err := transform.ParseMode(me.Generation.Mode); err != nil {
			result = multierror.Append(result, errors.Errorf("generation.mode: %w", err))
		}
		if _, err := transform.ParseTyped(me.Generation.TypedOutput); err != nil {
			result = multierror.Append(result, errors.Errorf("generation.typed_output: %w", err))
		}
	}

	if _, err := position.ParseEncoding(me.Encoding); err != nil {
		result = multierror.Append(result, errors.Errorf("encoding: %w", err))
	}

	for i, p := range me.Include {
		if !doublestar.ValidatePattern(p) {
			result = multierror.Append(result, errors.Errorf("include[%d]: invalid pattern %q", i, p))
		}
	}

	if g := me.Generator; g != nil {
		if len(g.Command) == 0 || strings.TrimSpace(g.Command[0]) == "" {
			result = multierror.Append(result, errors.New("generator.command: must not be empty"))
		}
		if g.Timeout != "" {
			if d, err := time.ParseDuration(g.Timeout); err != nil {
				result = multierror.Append(result, errors.Errorf("generator.timeout: %w", err))
			} else if d < 0 {
				result = multierror.Append(result, errors.Errorf("generator.timeout: negative duration %s", d))
			}
		}
	}

	return result.ErrorOrNil()
}

// Options converts the generation settings. newline terminates the directive line, see
// NewlineFor.
func (me *Config) Options(newline string) (transform.Options, error) {
	if err := me.Validate(); err != nil {
		return transform.Options{}, err
	}

	opts := transform.DefaultOptions()
	opts.MapEncoding, _ = position.ParseEncoding(me.Encoding)
	if newline != "" {
		opts.Newline = newline
	}

	g := me.Generation
	if g == nil {
		return opts, nil
	}
	opts.Mode, _ = transform.ParseMode(g.Mode)
	opts.TypedOutput, _ = transform.ParseTyped(g.TypedOutput)
	if g.EmitOnTemplateError != nil {
		opts.EmitOnTemplateError = *g.EmitOnTemplateError
	}
	if g.TypeNamespace != "" {
		opts.TypeNamespace = g.TypeNamespace
	}
	opts.ElementAccessors = g.ElementAccessors
	opts.CustomElement = g.CustomElement
	opts.Namespace = g.Namespace
	return opts, nil
}

// ExecGenerator returns the configured external generator, nil when none is configured.
func (me *Config) ExecGenerator() (*transform.ExecGenerator, error) {
	g := me.Generator
	if g == nil {
		return nil, nil
	}
	if err := me.Validate(); err != nil {
		return nil, err
	}
	gen := &transform.ExecGenerator{Command: g.Command, Dir: g.Dir, Env: g.Env}
	if g.Timeout != "" {
		gen.Timeout, _ = time.ParseDuration(g.Timeout)
	}
	return gen, nil
}

// Resolve loads path when it is set, otherwise the config found in dir.
func Resolve(fsys afero.Fs, path, dir string) (*Config, error) {
	if path != "" {
		return Load(fsys, path)
	}
	cfg, _, err := Find(fsys, dir)
	return cfg, err
}
