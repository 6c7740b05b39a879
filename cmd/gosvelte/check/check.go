package check

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/gosvelte/pkg/config"
	"github.com/walteh/gosvelte/pkg/diagnostic"
	"github.com/walteh/gosvelte/pkg/position"
	"github.com/walteh/gosvelte/pkg/project"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

type Handler struct {
	dir      string
	patterns []string
	config   string
	format   string // text, vscode
	jobs     int
	color    bool

	fs  afero.Fs
	out io.Writer
}

func NewCheckCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "check [pattern...]",
		Short: "report the parser errors of every component below a directory",
	}

	cmd.Flags().StringVar(&me.dir, "dir", ".", "directory to search")
	cmd.Flags().StringVar(&me.config, "config", "", "config file, defaults to a gosvelte.* file in --dir")
	cmd.Flags().StringVar(&me.format, "format", "text", "output format (text, vscode)")
	cmd.Flags().IntVar(&me.jobs, "jobs", runtime.GOMAXPROCS(0), "number of components built in parallel")
	cmd.Flags().BoolVar(&me.color, "color", !color.NoColor, "colorize text output")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.patterns = args
		me.fs = afero.NewOsFs()
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context())
	}

	return cmd
}

// FileResult is the outcome of checking one component.
type FileResult struct {
	File        string
	Diagnostics []diagnostic.Diagnostic
}

// ErrProblems is returned when at least one component has errors.
var ErrProblems = errors.Base("problems found")

func (me *Handler) Run(ctx context.Context) error {
	if me.format != "text" && me.format != "vscode" {
		return errors.Errorf("unknown format %q", me.format)
	}

	cfg, err := config.Resolve(me.fs, me.config, me.dir)
	if err != nil {
		return err
	}

	if cfg.Generator == nil {
		return errors.New("check needs a generator, set generator.command in the config")
	}

	patterns := me.patterns
	if len(patterns) == 0 {
		patterns = cfg.Include
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return errors.Errorf("invalid pattern %q", p)
		}
	}

	// one builder serves the whole directory, so the .editorconfig section for
	// *.svelte files in dir decides the newline
	builder, err := cfg.Builder(filepath.Join(me.dir, "component.svelte"))
	if err != nil {
		return errors.Errorf("configuring %s: %w", me.dir, err)
	}

	registry, err := project.NewRegistry(builder, me.fs)
	if err != nil {
		return err
	}

	files, err := me.match(registry, patterns)
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Debug().Str("registry", registry.ID()).Int("files", len(files)).Strs("patterns", patterns).Msg("checking components")

	results, loadErr := me.checkAll(ctx, registry, files)

	problems, err := me.print(results)
	if err != nil {
		return err
	}

	if loadErr != nil {
		return loadErr
	}
	if problems > 0 {
		return errors.Errorf("%d of %d components: %w", problems, len(files), ErrProblems)
	}
	return nil
}

func (me *Handler) match(registry *project.Registry, patterns []string) ([]string, error) {
	all, err := registry.Discover(me.dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, file := range all {
		rel, err := filepath.Rel(me.dir, file)
		if err != nil {
			return nil, errors.Errorf("relating %s to %s: %w", file, me.dir, err)
		}
		for _, p := range patterns {
			if ok, _ := doublestar.Match(p, filepath.ToSlash(rel)); ok {
				out = append(out, file)
				break
			}
		}
	}
	return out, nil
}

// checkAll builds every file. A file that cannot be read does not stop the others;
// all such failures are returned together.
func (me *Handler) checkAll(ctx context.Context, registry *project.Registry, files []string) ([]FileResult, error) {
	results := make([]FileResult, len(files))
	loadErrs := make([]error, len(files))

	jobs := me.jobs
	if jobs < 1 {
		jobs = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i].File = file
			tree, err := registry.Load(gctx, file)
			if err != nil {
				loadErrs[i] = err
				return nil
			}
			results[i].Diagnostics = diagnostic.ForTree(tree, position.EncodingUTF16)
			registry.Close(gctx, file)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Errorf("checking components: %w", err)
	}

	return results, multierr.Combine(loadErrs...)
}

func (me *Handler) print(results []FileResult) (int, error) {
	problems := 0
	for _, res := range results {
		if len(res.Diagnostics) == 0 {
			continue
		}
		problems++
	}

	if me.format == "vscode" {
		formatter := diagnostic.NewVSCodeFormatter()
		for _, res := range results {
			if len(res.Diagnostics) == 0 {
				continue
			}
			out, err := formatter.Format(res.Diagnostics)
			if err != nil {
				return 0, errors.Errorf("formatting diagnostics of %s: %w", res.File, err)
			}
			if _, err := fmt.Fprintf(me.out, "%s\n", out); err != nil {
				return 0, errors.Errorf("writing diagnostics: %w", err)
			}
		}
		return problems, nil
	}

	fileColor := color.New(color.Bold)
	errColor := color.New(color.FgRed)
	okColor := color.New(color.FgGreen)
	for _, c := range []*color.Color{fileColor, errColor, okColor} {
		if me.color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	for _, res := range results {
		for _, d := range res.Diagnostics {
			r := d.Range.Start
			_, err := fmt.Fprintf(me.out, "%s:%d:%d: %s %s\n",
				fileColor.Sprint(res.File), r.Line+1, r.Character+1, errColor.Sprint(d.Severity), d.Message)
			if err != nil {
				return 0, errors.Errorf("writing diagnostics: %w", err)
			}
		}
	}

	if problems == 0 {
		if _, err := okColor.Fprintf(me.out, "%d components checked, no problems\n", len(results)); err != nil {
			return 0, errors.Errorf("writing summary: %w", err)
		}
	}

	return problems, nil
}
