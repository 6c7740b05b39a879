package decompose

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/gosvelte/pkg/config"
	"github.com/walteh/gosvelte/pkg/outline"
	"github.com/walteh/gosvelte/pkg/project"
	"github.com/walteh/gosvelte/pkg/transform"
	"github.com/walteh/gosvelte/pkg/vdoc"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

type Handler struct {
	file    string
	format  string // json, yaml
	config  string
	outline bool

	fs  afero.Fs
	out io.Writer
}

func NewDecomposeCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "decompose <file>",
		Short: "print the virtual documents of a component",
	}

	cmd.Flags().StringVar(&me.format, "format", "json", "output format (json, yaml)")
	cmd.Flags().StringVar(&me.config, "config", "", "config file, defaults to a gosvelte.* file next to the component")
	cmd.Flags().BoolVar(&me.outline, "outline", false, "include document symbols and folding ranges")
	cmd.Args = cobra.ExactArgs(1)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.file = args[0]
		me.fs = afero.NewOsFs()
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context())
	}

	return cmd
}

// View is the printed form of a tree.
type View struct {
	File        string                      `json:"file" yaml:"file"`
	Version     int32                       `json:"version" yaml:"version"`
	ParserError *transform.ParserError      `json:"parserError,omitempty" yaml:"parserError,omitempty"`
	Documents   []*vdoc.VirtualDocument     `json:"documents" yaml:"documents"`
	Outlines    map[string]*outline.Outline `json:"outlines,omitempty" yaml:"outlines,omitempty"`
}

func NewView(tree *vdoc.Tree, withOutline bool) *View {
	view := &View{
		File:        tree.Snapshot.Name(),
		Version:     tree.Version(),
		ParserError: tree.ParserError,
		Documents:   tree.Embedded(),
	}
	if !withOutline {
		return view
	}
	view.Outlines = map[string]*outline.Outline{}
	for _, doc := range tree.Embedded() {
		if o := outline.ForDocument(tree, doc); o != nil {
			view.Outlines[doc.Name] = o
		}
	}
	return view
}

func (me *Handler) Run(ctx context.Context) error {
	if me.format != "json" && me.format != "yaml" {
		return errors.Errorf("unknown format %q", me.format)
	}

	cfg, err := config.Resolve(me.fs, me.config, filepath.Dir(me.file))
	if err != nil {
		return err
	}

	builder, err := cfg.Builder(me.file)
	if err != nil {
		return errors.Errorf("configuring %s: %w", me.file, err)
	}

	registry, err := project.NewRegistry(builder, me.fs)
	if err != nil {
		return err
	}

	tree, err := registry.Load(ctx, me.file)
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Debug().Str("file", me.file).Int("documents", len(tree.Embedded())).Msg("decomposed")

	view := NewView(tree, me.outline)

	switch me.format {
	case "yaml":
		enc := yaml.NewEncoder(me.out)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return errors.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(me.out)
		enc.SetIndent("", "\t")
		if err := enc.Encode(view); err != nil {
			return errors.Errorf("encoding json: %w", err)
		}
		return nil
	}
}
