package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcdatapack/dpe/internal/config"
	"github.com/mcdatapack/dpe/internal/console"
	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/project"
)

const (
	exitOK       = 0
	exitIssues   = 1
	exitInternal = 3

	outputFormatText = "text"
	outputFormatJSON = "json"

	defaultStdinName = "stdin.json"
)

type cliOptions struct {
	stdin          bool
	assumeFilename string
	format         string
	root           string
	watch          bool
	jobs           int
	paths          []string
}

type diagnosticJSON struct {
	File      string `json:"file"`
	Source    string `json:"source,omitempty"`
	Code      string `json:"code"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) int {
	code := exitOK
	cmd := newRootCommand(stdin, stdout, stderr, &code)
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		writef(stderr, "dpelint: %v\n\n%s", err, cmd.UsageString())
		return exitInternal
	}
	return code
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer, code *int) *cobra.Command {
	var opts cliOptions
	cmd := &cobra.Command{
		Use:   "dpelint [flags] path...",
		Short: "Lint datapack JSON, SNBT and mcfunction files",
		Long: `Lint datapack JSON, SNBT and mcfunction files.

Directories are linted recursively. The datapack root holding dpe.toml or
pack.mcmeta is found by walking up from the first path unless --root is set.

Examples:
  dpelint .
  dpelint data/demo/function/main.mcfunction
  dpelint --format json data/demo/loot_table
  dpelint --stdin --assume-filename data/demo/loot_table/chest.json < chest.json
  dpelint --watch .`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.paths = args
			if err := opts.validate(); err != nil {
				return err
			}
			*code = lintPaths(cmd.Context(), stdin, stdout, stderr, opts)
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.stdin, "stdin", false, "read input from stdin")
	f.StringVar(&opts.assumeFilename, "assume-filename", "", "datapack-relative file name used to classify stdin input")
	f.StringVarP(&opts.format, "format", "f", outputFormatText, "diagnostic output format: text|json")
	f.StringVar(&opts.root, "root", "", "datapack root (default: nearest directory with dpe.toml or pack.mcmeta)")
	f.BoolVarP(&opts.watch, "watch", "w", false, "lint changed files again until interrupted")
	f.IntVarP(&opts.jobs, "jobs", "j", 0, "number of files linted in parallel (default: GOMAXPROCS)")
	return cmd
}

func (o cliOptions) validate() error {
	if !isSupportedOutputFormat(o.format) {
		return errors.New("--format must be one of: text, json")
	}
	switch {
	case o.stdin && len(o.paths) > 0:
		return errors.New("positional file path is not allowed with --stdin")
	case o.stdin && o.watch:
		return errors.New("--watch and --stdin may not be used together")
	case !o.stdin && len(o.paths) == 0:
		return errors.New("at least one path is required (or use --stdin)")
	}
	return nil
}

func lintPaths(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, opts cliOptions) int {
	root, err := resolveRoot(opts)
	if err != nil {
		writef(stderr, "dpelint: %v\n", err)
		return exitInternal
	}
	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		writef(stderr, "dpelint: %v\n", err)
		return exitInternal
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	p, err := project.Open(root, project.WithConfig(cfg), project.WithLogger(logger))
	if err != nil {
		writef(stderr, "dpelint: %v\n", err)
		return exitInternal
	}
	out := &reporter{format: opts.format, stdout: stdout, stderr: stderr, printer: console.NewPrinter(stderr)}

	if opts.stdin {
		src, err := io.ReadAll(stdin)
		if err != nil {
			writef(stderr, "dpelint: read stdin: %v\n", err)
			return exitInternal
		}
		name := opts.assumeFilename
		if name == "" {
			name = defaultStdinName
		}
		return out.report("", []project.FileResult{p.CheckSource(ctx, name, src)})
	}

	files, err := selectFiles(p, opts.paths)
	if err != nil {
		writef(stderr, "dpelint: %v\n", err)
		return exitInternal
	}
	code := out.report(p.Root, p.CheckAll(ctx, files, opts.jobs))
	if !opts.watch {
		return code
	}

	err = p.Watch(ctx, func(c project.Change) {
		targets, err := watchTargets(p, opts.paths, c)
		if err != nil {
			logger.Warn("failed to select changed files", "error", err)
			return
		}
		if len(targets) == 0 {
			return
		}
		code = out.report(p.Root, p.CheckAll(ctx, targets, opts.jobs))
	})
	if err != nil {
		writef(stderr, "dpelint: watch: %v\n", err)
		return exitInternal
	}
	return code
}

// resolveRoot picks the datapack root: --root, else the root found from the
// first path.
func resolveRoot(opts cliOptions) (string, error) {
	if opts.root != "" {
		return filepath.Abs(opts.root)
	}
	start := "."
	if !opts.stdin && len(opts.paths) > 0 {
		start = opts.paths[0]
	}
	return project.FindRoot(start)
}

// selectFiles expands paths into root-relative files. Directories contribute
// every supported file below them; files are taken as given.
func selectFiles(p *project.Project, paths []string) ([]string, error) {
	all, err := p.Files()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	add := func(f string) {
		if _, ok := seen[f]; !ok {
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	for _, arg := range paths {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(p.Root, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%s is outside the datapack root %s", arg, p.Root)
		}
		if !info.IsDir() {
			add(rel)
			continue
		}
		for _, f := range all {
			if rel == "." || strings.HasPrefix(f, rel+string(filepath.Separator)) {
				add(f)
			}
		}
	}
	slices.Sort(out)
	return out, nil
}

// watchTargets returns the selected files touched by c, or the whole
// selection after a schema or configuration change.
func watchTargets(p *project.Project, paths []string, c project.Change) ([]string, error) {
	selected, err := selectFiles(p, paths)
	if err != nil {
		return nil, err
	}
	if c.SchemasChanged {
		return selected, nil
	}
	var out []string
	for _, m := range c.Modified {
		f := filepath.FromSlash(m)
		if _, found := slices.BinarySearch(selected, f); found {
			out = append(out, f)
		}
	}
	return out, nil
}

type reporter struct {
	format  string
	stdout  io.Writer
	stderr  io.Writer
	printer *console.Printer
}

// report prints results and returns the exit code for them. Result files
// are joined to root for display.
func (r *reporter) report(root string, results []project.FileResult) int {
	code := exitOK
	var errCount, warnCount int
	var payload []diagnosticJSON
	for _, res := range results {
		file := res.File
		if root != "" && !filepath.IsAbs(file) {
			file = filepath.Join(root, file)
		}
		if res.Err != nil {
			writef(r.stderr, "dpelint: %s: %v\n", console.ToRelativePath(file), res.Err)
			code = exitInternal
			continue
		}
		if len(res.Diagnostics) == 0 {
			continue
		}
		if code == exitOK {
			code = exitIssues
		}
		e, w := res.Counts()
		errCount += e
		warnCount += w

		switch r.format {
		case outputFormatJSON:
			payload = append(payload, diagnosticsJSON(console.ToRelativePath(file), res.Diagnostics)...)
		default:
			if err := r.printer.Print(file, res.Source, res.Diagnostics); err != nil {
				writef(r.stderr, "dpelint: %v\n", err)
				return exitInternal
			}
		}
	}

	switch r.format {
	case outputFormatJSON:
		if len(payload) == 0 {
			return code
		}
		if err := writeJSONDiagnostics(r.stdout, payload); err != nil {
			writef(r.stderr, "dpelint: %v\n", err)
			return exitInternal
		}
	default:
		if err := r.printer.Summary(errCount, warnCount); err != nil {
			writef(r.stderr, "dpelint: %v\n", err)
			return exitInternal
		}
	}
	return code
}

func diagnosticsJSON(file string, ds []diag.Diagnostic) []diagnosticJSON {
	out := make([]diagnosticJSON, 0, len(ds))
	for _, d := range ds {
		out = append(out, diagnosticJSON{
			File:      filepath.ToSlash(file),
			Source:    d.Source,
			Code:      string(d.Code),
			Severity:  d.Severity.String(),
			Message:   d.Message,
			StartLine: d.Span.Start.Line + 1,
			StartCol:  d.Span.Start.Column + 1,
			EndLine:   d.Span.End.Line + 1,
			EndCol:    d.Span.End.Column + 1,
		})
	}
	return out
}

func writeJSONDiagnostics(w io.Writer, payload []diagnosticJSON) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func isSupportedOutputFormat(v string) bool {
	switch v {
	case outputFormatText, outputFormatJSON:
		return true
	default:
		return false
	}
}

func writef(w io.Writer, format string, args ...any) {
	//nolint:gosec // Terminal output helper; format strings are internal callsite constants.
	_, _ = io.WriteString(w, fmt.Sprintf(format, args...))
}
