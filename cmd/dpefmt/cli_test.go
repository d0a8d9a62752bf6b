package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeJSON(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRunRejectsInvalidFlagCombos(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		args []string
		want string
	}{
		"write with stdin":  {args: []string{"--stdin", "--write"}, want: "--write and --stdin"},
		"check with write":  {args: []string{"--check", "--write", "a.json"}, want: "--check and --write"},
		"stdout with write": {args: []string{"--stdout", "--write", "a.json"}, want: "--stdout and --write"},
		"stdin with path":   {args: []string{"--stdin", "a.json"}, want: "positional file path is not allowed"},
		"no input":          {args: nil, want: "exactly one input file path is required"},
		"two paths":         {args: []string{"a.json", "b.json"}, want: "accepts at most 1 arg(s)"},
		"not json":          {args: []string{"main.mcfunction"}, want: "only .json and .mcmeta files can be formatted"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var out, errb bytes.Buffer
			code := run(context.Background(), strings.NewReader(""), &out, &errb, tc.args)
			if code != exitInternal {
				t.Fatalf("exit code = %d, want %d", code, exitInternal)
			}
			if !strings.Contains(errb.String(), tc.want) {
				t.Fatalf("stderr missing %q: %q", tc.want, errb.String())
			}
		})
	}
}

func TestRunPrintsFormattedDocument(t *testing.T) {
	t.Parallel()

	path := writeJSON(t, t.TempDir(), "tick.json", `{"values":["demo:load"]}`)

	var out, errb bytes.Buffer
	code := run(context.Background(), strings.NewReader(""), &out, &errb, []string{path})
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d; stderr=%q", code, exitOK, errb.String())
	}
	if out.String() != "{\"values\": [\"demo:load\"]}\n" {
		t.Fatalf("stdout = %q", out.String())
	}
}

func TestRunCheckExitCodeWhenChangesNeeded(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dirty := writeJSON(t, dir, "dirty.json", "{\"a\":1}\n")
	clean := writeJSON(t, dir, "clean.json", "{\"a\": 1}\n")

	var out, errb bytes.Buffer
	if code := run(context.Background(), strings.NewReader(""), &out, &errb, []string{"--check", dirty}); code != exitCheck {
		t.Fatalf("exit code = %d, want %d", code, exitCheck)
	}
	if code := run(context.Background(), strings.NewReader(""), &out, &errb, []string{"--check", clean}); code != exitOK {
		t.Fatalf("exit code = %d, want %d", code, exitOK)
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected stdout in --check: %q", out.String())
	}
}

func TestRunWriteUpdatesFileInPlace(t *testing.T) {
	t.Parallel()

	path := writeJSON(t, t.TempDir(), "pack.mcmeta", `{"pack":{"pack_format":48,"description":"demo"}}`)

	var out, errb bytes.Buffer
	code := run(context.Background(), strings.NewReader(""), &out, &errb, []string{"--write", "--expand", path})
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d; stderr=%q", code, exitOK, errb.String())
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected stdout for --write: %q", out.String())
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "{\n  \"pack\": {\n    \"pack_format\": 48,\n    \"description\": \"demo\"\n  }\n}\n"
	if string(got) != want {
		t.Fatalf("formatted file = %q, want %q", got, want)
	}
}

func TestRunUsesFormatConfigFromDatapackRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeJSON(t, dir, "dpe.toml", "[format]\nline_width = 10\nindent = \"\\t\"\n")
	if err := os.MkdirAll(filepath.Join(dir, "data"), 0o755); err != nil {
		t.Fatal(err)
	}
	path := writeJSON(t, filepath.Join(dir, "data"), "a.json", `{"alpha":1,"beta":2}`)

	var out, errb bytes.Buffer
	if code := run(context.Background(), strings.NewReader(""), &out, &errb, []string{path}); code != exitOK {
		t.Fatalf("exit code = %d; stderr=%q", code, errb.String())
	}
	if want := "{\n\t\"alpha\": 1,\n\t\"beta\": 2\n}\n"; out.String() != want {
		t.Fatalf("stdout = %q, want %q", out.String(), want)
	}

	out.Reset()
	if code := run(context.Background(), strings.NewReader(""), &out, &errb, []string{"--line-width", "80", path}); code != exitOK {
		t.Fatalf("exit code = %d; stderr=%q", code, errb.String())
	}
	if want := "{\"alpha\": 1, \"beta\": 2}\n"; out.String() != want {
		t.Fatalf("stdout with flag override = %q, want %q", out.String(), want)
	}
}

func TestRunReturnsUnsafeExitCodeAndDiagnostics(t *testing.T) {
	t.Parallel()

	var out, errb bytes.Buffer
	code := run(
		context.Background(),
		strings.NewReader("{\"a\": \"unterminated\n}"),
		&out,
		&errb,
		[]string{"--stdin", "--root", t.TempDir(), "--assume-filename", "data/demo/a.json"},
	)
	if code != exitUnsafe {
		t.Fatalf("exit code = %d, want %d", code, exitUnsafe)
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected stdout: %q", out.String())
	}
	for _, want := range []string{
		"a.json:1:7: error: missing closing quote [LEX_UNTERMINATED_STRING]",
		"1 | {\"a\": \"unterminated",
		"unsafe to format (syntax_errors)",
	} {
		if !strings.Contains(errb.String(), want) {
			t.Fatalf("stderr missing %q: %q", want, errb.String())
		}
	}
}

func TestRunRangeFormatsSelectedContainer(t *testing.T) {
	t.Parallel()

	src := `{"a": {"x":1}, "b":[1,2]}`
	path := writeJSON(t, t.TempDir(), "x.json", src)
	start := strings.Index(src, `"x"`)
	rangeArg := fmt.Sprintf("%d:%d", start, start+3)

	var out, errb bytes.Buffer
	code := run(context.Background(), strings.NewReader(""), &out, &errb, []string{"--range", rangeArg, path})
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d; stderr=%q", code, exitOK, errb.String())
	}
	if want := `{"a": {"x": 1}, "b":[1,2]}`; out.String() != want {
		t.Fatalf("stdout = %q, want %q", out.String(), want)
	}
}

func TestRunDebugFlagsProduceOutput(t *testing.T) {
	t.Parallel()

	var out, errb bytes.Buffer
	code := run(
		context.Background(),
		strings.NewReader(`{"a": [1]}`),
		&out,
		&errb,
		[]string{"--stdin", "--root", t.TempDir(), "--debug-tokens", "--debug-tree"},
	)
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d; stderr=%q", code, exitOK, errb.String())
	}
	got := out.String()
	for _, want := range []string{"TOKENS", `kind={ `, "TREE", "object span=", "    integer span="} {
		if !strings.Contains(got, want) {
			t.Fatalf("debug output missing %q: %q", want, got)
		}
	}
}

func TestParseRangeFlag(t *testing.T) {
	t.Parallel()

	got, err := parseRangeFlag("12:34")
	if err != nil {
		t.Fatalf("parseRangeFlag: %v", err)
	}
	if got.Start.Index != 12 || got.End.Index != 34 {
		t.Fatalf("range = %s, want [12,34)", got)
	}

	for _, bad := range []string{"bad", "x:1", "1:y", "5:2", "-1:2"} {
		if _, err := parseRangeFlag(bad); err == nil {
			t.Fatalf("parseRangeFlag(%q): expected error", bad)
		}
	}
}
