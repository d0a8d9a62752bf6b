package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mcdatapack/dpe/internal/config"
	"github.com/mcdatapack/dpe/internal/console"
	"github.com/mcdatapack/dpe/internal/contexts"
	"github.com/mcdatapack/dpe/internal/project"
	"github.com/mcdatapack/dpe/internal/style"
)

const (
	exitOK       = 0
	exitInternal = 3

	defaultStyle = "monokai"
)

type cliOptions struct {
	stdin          bool
	assumeFilename string
	root           string
	formatter      string
	style          string
	debugRuns      bool
	path           string
}

func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) int {
	cmd := newRootCommand(stdin, stdout, stderr)
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		writef(stderr, "dpehl: %v\n", err)
		return exitInternal
	}
	return exitOK
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var opts cliOptions
	cmd := &cobra.Command{
		Use:   "dpehl [flags] path",
		Short: "Highlight a datapack file",
		Long: `Highlight a datapack JSON, SNBT or mcfunction file with the styles the
language core assigns, including embedded commands and values.

Examples:
  dpehl data/demo/function/main.mcfunction
  dpehl --formatter html --style github data/demo/loot_table/chest.json > chest.html
  dpehl --stdin --assume-filename data/demo/function/tick.mcfunction < tick.mcfunction`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.path = args[0]
			}
			if err := opts.validate(); err != nil {
				return err
			}
			if opts.formatter == "" {
				opts.formatter = "noop"
				if console.IsTerminal(stdout) {
					opts.formatter = "terminal256"
				}
			}
			return highlight(cmd.Context(), stdin, stdout, stderr, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.stdin, "stdin", false, "read input from stdin")
	f.StringVar(&opts.assumeFilename, "assume-filename", "", "datapack-relative file name used to classify stdin input")
	f.StringVar(&opts.root, "root", "", "datapack root (default: nearest directory with dpe.toml or pack.mcmeta)")
	f.StringVar(&opts.formatter, "formatter", "", "chroma formatter: terminal256|terminal16m|html|noop (default: terminal256 on a terminal, else noop)")
	f.StringVar(&opts.style, "style", defaultStyle, "chroma style name")
	f.BoolVar(&opts.debugRuns, "debug-runs", false, "dump style runs instead of rendering")
	return cmd
}

func (o cliOptions) validate() error {
	switch {
	case o.stdin && o.path != "":
		return errors.New("positional file path is not allowed with --stdin")
	case o.stdin && o.assumeFilename == "":
		return errors.New("--stdin requires --assume-filename")
	case !o.stdin && o.path == "":
		return errors.New("exactly one input file path is required (or use --stdin)")
	}
	return nil
}

func highlight(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, opts cliOptions) error {
	name := opts.assumeFilename
	var src []byte
	var err error
	if opts.stdin {
		src, err = io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	} else {
		//nolint:gosec // CLI intentionally reads user-provided file paths.
		src, err = os.ReadFile(opts.path)
		if err != nil {
			return fmt.Errorf("read %s: %w", opts.path, err)
		}
		if name == "" {
			name = opts.path
		}
	}

	root, err := resolveRoot(opts)
	if err != nil {
		return err
	}
	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	p, err := project.Open(root, project.WithConfig(cfg), project.WithLogger(logger))
	if err != nil {
		return err
	}

	res := p.CheckSource(ctx, name, src)
	if res.Err != nil {
		return res.Err
	}
	space, err := style.NewSpace(p.Registry, contexts.Stylers())
	if err != nil {
		return err
	}
	runs := space.HighlightRoot(res.Document)
	if opts.debugRuns {
		dumpRuns(stdout, space, src, runs)
		return nil
	}
	return space.RenderChroma(stdout, src, runs, opts.formatter, opts.style)
}

func resolveRoot(opts cliOptions) (string, error) {
	switch {
	case opts.root != "":
		return filepath.Abs(opts.root)
	case opts.stdin:
		return project.FindRoot(".")
	default:
		return project.FindRoot(opts.path)
	}
}

func dumpRuns(w io.Writer, space *style.Space, src []byte, runs []style.Run) {
	for _, r := range runs {
		end := min(int(r.End), len(src))
		start := min(int(r.Start), end)
		writef(w, "%d-%d %s %q\n", r.Start, r.End, space.Kind(r.Style), src[start:end])
	}
}

func writef(w io.Writer, format string, args ...any) {
	//nolint:gosec // Terminal/debug output helper; format strings are internal callsite constants.
	_, _ = io.WriteString(w, fmt.Sprintf(format, args...))
}
