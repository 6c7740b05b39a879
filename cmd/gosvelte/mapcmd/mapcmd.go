package mapcmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/gosvelte/pkg/capability"
	"github.com/walteh/gosvelte/pkg/config"
	"github.com/walteh/gosvelte/pkg/position"
	"github.com/walteh/gosvelte/pkg/project"
	"github.com/walteh/gosvelte/pkg/vdoc"
	"gitlab.com/tozd/go/errors"
)

type Handler struct {
	file     string
	place    string
	document string
	encoding string
	config   string
	reverse  bool

	fs  afero.Fs
	out io.Writer
}

func NewMapCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "map <file> <line:column>",
		Short: "translate a component position into a virtual document, or back with --reverse",
	}

	cmd.Flags().BoolVar(&me.reverse, "reverse", false, "translate from the virtual document back into the component")
	cmd.Flags().StringVar(&me.document, "document", "", "virtual document name, defaults to the host artifact")
	cmd.Flags().StringVar(&me.encoding, "encoding", string(position.EncodingUTF16), "unit of columns (utf-8, utf-16, utf-32)")
	cmd.Flags().StringVar(&me.config, "config", "", "config file, defaults to a gosvelte.* file next to the component")
	cmd.Args = cobra.ExactArgs(2)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.file = args[0]
		me.place = args[1]
		me.fs = afero.NewOsFs()
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context())
	}

	return cmd
}

// ParsePlace reads a 1-based "line:column" pair into a zero-based place.
func ParsePlace(s string) (position.Place, error) {
	lineStr, colStr, ok := strings.Cut(s, ":")
	if !ok {
		return position.Place{}, errors.Errorf("position %q is not line:column", s)
	}
	line, err := strconv.Atoi(lineStr)
	if err != nil || line < 1 {
		return position.Place{}, errors.Errorf("position %q: invalid line", s)
	}
	col, err := strconv.Atoi(colStr)
	if err != nil || col < 1 {
		return position.Place{}, errors.Errorf("position %q: invalid column", s)
	}
	return position.Place{Line: line - 1, Character: col - 1}, nil
}

func (me *Handler) Run(ctx context.Context) error {
	enc, err := position.ParseEncoding(me.encoding)
	if err != nil {
		return err
	}

	place, err := ParsePlace(me.place)
	if err != nil {
		return err
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

	doc := tree.HostArtifact()
	if me.document != "" {
		doc = tree.Find(me.document)
		if doc == nil || doc == tree.Root {
			return errors.Errorf("%s has no virtual document %q", me.file, me.document)
		}
	}

	name, got, err := translate(tree, doc, place, enc, me.reverse)
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Debug().Str("file", me.file).Str("document", doc.Name).Bool("reverse", me.reverse).Str("from", place.String()).Str("to", got.String()).Msg("mapped position")

	_, err = fmt.Fprintf(me.out, "%s:%d:%d\n", name, got.Line+1, got.Character+1)
	return err
}

func translate(tree *vdoc.Tree, doc *vdoc.VirtualDocument, place position.Place, enc position.Encoding, reverse bool) (string, position.Place, error) {
	source := position.NewIndex(tree.Snapshot.String())
	generated := position.NewIndex(doc.Content)

	if reverse {
		offset, ok := doc.ToSource(generated.OffsetAt(place, enc), capability.None)
		if !ok {
			return "", position.Place{}, errors.Errorf("%s:%s does not map back into %s", doc.Name, place, tree.Snapshot.Name())
		}
		return tree.Snapshot.Name(), source.PlaceAt(offset, enc), nil
	}

	offset, ok := doc.ToGenerated(source.OffsetAt(place, enc), capability.None)
	if !ok {
		return "", position.Place{}, errors.Errorf("%s:%s is not mapped into %s", tree.Snapshot.Name(), place, doc.Name)
	}
	return doc.Name, generated.PlaceAt(offset, enc), nil
}
