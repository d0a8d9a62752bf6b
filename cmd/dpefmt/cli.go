package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcdatapack/dpe/internal/config"
	"github.com/mcdatapack/dpe/internal/console"
	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/format"
	"github.com/mcdatapack/dpe/internal/jsonlang"
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/project"
	"github.com/mcdatapack/dpe/internal/text"
)

const (
	exitOK       = 0
	exitCheck    = 1
	exitUnsafe   = 2
	exitInternal = 3

	defaultStdinName = "stdin.json"
	utf8BOM          = "\xEF\xBB\xBF"
)

type cliOptions struct {
	write          bool
	check          bool
	stdin          bool
	stdout         bool
	assumeFilename string
	root           string
	lineWidth      int
	indent         string
	expand         bool
	rangeSpec      string
	debugTokens    bool
	debugTree      bool
	path           string
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
		writef(stderr, "dpefmt: %v\n\n%s", err, cmd.UsageString())
		return exitInternal
	}
	return code
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer, code *int) *cobra.Command {
	var opts cliOptions
	cmd := &cobra.Command{
		Use:   "dpefmt [flags] path",
		Short: "Format a datapack JSON file",
		Long: `Format a datapack JSON file.

Objects and arrays stay on one line while they fit the line width. The
[format] section of dpe.toml in the datapack root sets the defaults; flags
override it. Files with syntax errors are never rewritten.

Examples:
  dpefmt data/demo/loot_table/chest.json
  dpefmt --write data/demo/tags/function/tick.json
  dpefmt --check --expand pack.mcmeta
  dpefmt --stdin --range 10:24 < chest.json`,
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
			fopts, err := formatOptions(cmd, opts)
			if err != nil {
				return err
			}
			*code = formatFile(cmd.Context(), stdin, stdout, stderr, opts, fopts)
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&opts.write, "write", "w", false, "write result in-place")
	f.BoolVar(&opts.check, "check", false, "exit non-zero if formatting changes are needed")
	f.BoolVar(&opts.stdin, "stdin", false, "read input from stdin")
	f.BoolVar(&opts.stdout, "stdout", false, "write formatted output to stdout")
	f.StringVar(&opts.assumeFilename, "assume-filename", "", "file name used in diagnostics for stdin input")
	f.StringVar(&opts.root, "root", "", "datapack root holding dpe.toml (default: nearest directory with dpe.toml or pack.mcmeta)")
	f.IntVar(&opts.lineWidth, "line-width", 0, "maximum line width")
	f.StringVar(&opts.indent, "indent", "", "indentation unit of spaces or tabs")
	f.BoolVar(&opts.expand, "expand", false, "put every object and array element on its own line")
	f.StringVar(&opts.rangeSpec, "range", "", "optional byte range start:end (half-open)")
	f.BoolVar(&opts.debugTokens, "debug-tokens", false, "dump tokenizer output")
	f.BoolVar(&opts.debugTree, "debug-tree", false, "dump parsed nodes")
	return cmd
}

func (o cliOptions) validate() error {
	switch {
	case o.stdin && o.write:
		return errors.New("--write and --stdin may not be used together")
	case o.check && o.write:
		return errors.New("--check and --write may not be used together")
	case o.stdout && o.write:
		return errors.New("--stdout and --write may not be used together")
	case o.stdin && o.path != "":
		return errors.New("positional file path is not allowed with --stdin")
	case !o.stdin && o.path == "":
		return errors.New("exactly one input file path is required (or use --stdin)")
	}
	if name := o.displayName(); !isJSONFile(name) {
		return fmt.Errorf("%s: only .json and .mcmeta files can be formatted", name)
	}
	return nil
}

func (o cliOptions) displayName() string {
	switch {
	case !o.stdin:
		return o.path
	case o.assumeFilename != "":
		return o.assumeFilename
	default:
		return defaultStdinName
	}
}

func isJSONFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".mcmeta":
		return true
	default:
		return false
	}
}

// formatOptions merges the [format] config of the datapack root with the
// flags set on the command line.
func formatOptions(cmd *cobra.Command, opts cliOptions) (format.Options, error) {
	root := opts.root
	if root == "" {
		start := "."
		if !opts.stdin {
			start = opts.path
		}
		var err error
		if root, err = project.FindRoot(start); err != nil {
			return format.Options{}, err
		}
	}
	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		return format.Options{}, err
	}

	fopts := format.Options{
		LineWidth: cfg.Format.LineWidth,
		Indent:    cfg.Format.Indent,
		Expand:    cfg.Format.Expand,
	}
	flags := cmd.Flags()
	if flags.Changed("line-width") {
		fopts.LineWidth = opts.lineWidth
	}
	if flags.Changed("indent") {
		fopts.Indent = opts.indent
	}
	if flags.Changed("expand") {
		fopts.Expand = opts.expand
	}
	return fopts, nil
}

func formatFile(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, opts cliOptions, fopts format.Options) int {
	src, err := readInput(stdin, opts)
	if err != nil {
		writef(stderr, "dpefmt: %v\n", err)
		return exitInternal
	}

	body, hasBOM := bytes.CutPrefix(src, []byte(utf8BOM))
	root, diags := jsonlang.Parse(body, nil)
	if opts.debugTokens {
		dumpTokens(stdout, body)
	}
	if opts.debugTree {
		dumpTree(stdout, root)
	}

	if opts.rangeSpec == "" {
		res, err := format.Source(ctx, src, fopts)
		if err != nil {
			return handleFormatError(stderr, opts.displayName(), body, res.Diagnostics, err)
		}
		return handleDocumentResult(stdout, stderr, opts, src, res)
	}

	r, err := parseRangeFlag(opts.rangeSpec)
	if err != nil {
		writef(stderr, "dpefmt: invalid --range: %v\n", err)
		return exitInternal
	}
	shift := text.ByteOffset(0)
	if hasBOM {
		shift = text.ByteOffset(len(utf8BOM))
		r.Start.Index = max(r.Start.Index-shift, 0)
		r.End.Index = max(r.End.Index-shift, 0)
	}
	res, err := format.Range(ctx, root, body, diags, r, fopts)
	if err != nil {
		return handleFormatError(stderr, opts.displayName(), body, res.Diagnostics, err)
	}
	for i := range res.Edits {
		res.Edits[i].Start += shift
		res.Edits[i].End += shift
	}
	return handleRangeResult(stdout, stderr, opts, src, res)
}

func readInput(stdin io.Reader, opts cliOptions) ([]byte, error) {
	if opts.stdin {
		src, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return src, nil
	}
	//nolint:gosec // CLI intentionally reads user-provided file paths.
	src, err := os.ReadFile(opts.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", opts.path, err)
	}
	return src, nil
}

func handleDocumentResult(stdout, stderr io.Writer, opts cliOptions, original []byte, res format.Result) int {
	if opts.check {
		return checkExitCode(res.Changed)
	}
	if opts.write {
		if !res.Changed {
			return exitOK
		}
		if err := writeOutputFile(opts.path, res.Output); err != nil {
			writef(stderr, "dpefmt: write %s: %v\n", opts.path, err)
			return exitInternal
		}
		return exitOK
	}
	if !res.Changed && !opts.stdout {
		_, _ = stdout.Write(original)
		return exitOK
	}
	_, _ = stdout.Write(res.Output)
	return exitOK
}

func handleRangeResult(stdout, stderr io.Writer, opts cliOptions, original []byte, res format.RangeResult) int {
	out, err := text.ApplyEdits(original, res.Edits)
	if err != nil {
		writef(stderr, "dpefmt: apply range edits: %v\n", err)
		return exitInternal
	}
	changed := len(res.Edits) > 0
	if opts.check {
		return checkExitCode(changed)
	}
	if opts.write {
		if !changed {
			return exitOK
		}
		if err := writeOutputFile(opts.path, out); err != nil {
			writef(stderr, "dpefmt: write %s: %v\n", opts.path, err)
			return exitInternal
		}
		return exitOK
	}
	_, _ = stdout.Write(out)
	return exitOK
}

func handleFormatError(stderr io.Writer, name string, src []byte, diags []diag.Diagnostic, err error) int {
	if len(diags) > 0 {
		if perr := console.NewPrinter(stderr).Print(name, src, diags); perr != nil {
			writef(stderr, "dpefmt: %v\n", perr)
		}
	}
	writef(stderr, "dpefmt: %v\n", err)
	if format.IsErrUnsafeToFormat(err) {
		return exitUnsafe
	}
	return exitInternal
}

func parseRangeFlag(s string) (text.Span, error) {
	startS, endS, ok := strings.Cut(s, ":")
	if !ok {
		return text.Span{}, errors.New("expected start:end")
	}
	start, err := strconv.Atoi(startS)
	if err != nil {
		return text.Span{}, fmt.Errorf("invalid start %q", startS)
	}
	end, err := strconv.Atoi(endS)
	if err != nil {
		return text.Span{}, fmt.Errorf("invalid end %q", endS)
	}
	if start < 0 || end < start {
		return text.Span{}, fmt.Errorf("invalid bounds %d:%d", start, end)
	}
	return text.Span{
		Start: text.Position{Index: text.ByteOffset(start)},
		End:   text.Position{Index: text.ByteOffset(end)},
	}, nil
}

func dumpTokens(w io.Writer, src []byte) {
	writeln(w, "TOKENS")
	toks, _ := jsonlang.Tokenize(src, false)
	for i, tok := range toks {
		writef(w, "[%d] kind=%s span=%s text=%q", i, tok.Kind, tok.Span, tok.Value)
		if tok.Flags != 0 {
			writef(w, " flags=%08b", tok.Flags)
		}
		writeln(w)
	}
}

func dumpTree(w io.Writer, root lang.Node) {
	writeln(w, "TREE")
	var walk func(n lang.Node, depth int)
	walk = func(n lang.Node, depth int) {
		if n == nil {
			return
		}
		writef(w, "%s%s span=%s\n", strings.Repeat("  ", depth), n.TypeName(), n.Span())
		for _, c := range n.Children() {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
}

func writeOutputFile(path string, data []byte) error {
	mode := os.FileMode(0o600)
	//nolint:gosec // CLI reads metadata for a user-specified output path.
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode().Perm()
		if mode == 0 {
			mode = 0o600
		}
	}
	//nolint:gosec // CLI writes formatter output to a user-specified path.
	return os.WriteFile(path, data, mode)
}

func checkExitCode(changed bool) int {
	if changed {
		return exitCheck
	}
	return exitOK
}

func writef(w io.Writer, format string, args ...any) {
	//nolint:gosec // Terminal/debug output helper; format strings are internal callsite constants.
	_, _ = io.WriteString(w, fmt.Sprintf(format, args...))
}

func writeln(w io.Writer, args ...any) {
	_, _ = fmt.Fprintln(w, args...)
}
