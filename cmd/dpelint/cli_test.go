package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePack(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	files["pack.mcmeta"] = `{"pack": {"pack_format": 48, "description": "demo"}}`
	for name, body := range files {
		file := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(file, []byte(body), 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	return root
}

func TestRunRejectsInvalidArgs(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		args []string
		want string
	}{
		"stdin with path":  {args: []string{"--stdin", "file.json"}, want: "positional file path is not allowed with --stdin"},
		"no input":         {args: nil, want: "at least one path is required"},
		"unknown format":   {args: []string{"--format", "xml", "."}, want: "--format must be one of: text, json"},
		"watch with stdin": {args: []string{"--stdin", "--watch"}, want: "--watch and --stdin may not be used together"},
		"unknown flag":     {args: []string{"--bogus", "."}, want: "unknown flag: --bogus"},
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

func TestRunNoDiagnosticsExitOK(t *testing.T) {
	t.Parallel()

	root := writePack(t, map[string]string{
		"data/demo/function/load.mcfunction": "say hi\n",
	})

	var out, errb bytes.Buffer
	code := run(context.Background(), strings.NewReader(""), &out, &errb, []string{filepath.Join(root, "data", "demo", "function", "load.mcfunction")})
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d; stderr=%q", code, exitOK, errb.String())
	}
	if out.Len() != 0 || errb.Len() != 0 {
		t.Fatalf("expected no output for clean file; stdout=%q stderr=%q", out.String(), errb.String())
	}
}

func TestRunDirectoryReportsIssues(t *testing.T) {
	t.Parallel()

	root := writePack(t, map[string]string{
		"data/demo/function/load.mcfunction": "say hi\n",
		"data/demo/function/main.mcfunction": "function demo:load\nfunction demo:nope\n",
		"data/demo/structure/base.snbt":      `{size: [1, 1, 1], size: [2, 2, 2]}`,
	})

	var out, errb bytes.Buffer
	code := run(context.Background(), strings.NewReader(""), &out, &errb, []string{root})
	if code != exitIssues {
		t.Fatalf("exit code = %d, want %d; stderr=%q", code, exitIssues, errb.String())
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected stdout for text diagnostics: %q", out.String())
	}
	stderr := errb.String()
	for _, want := range []string{
		"main.mcfunction:2:10: error: unknown function `demo:nope` [SEM_UNRESOLVED_REFERENCE]",
		"2 | function demo:nope",
		"^~~~~~~~~\n",
		"SEM_DUPLICATE_PROPERTY",
		"2 errors, 0 warnings",
	} {
		if !strings.Contains(stderr, want) {
			t.Fatalf("stderr missing %q:\n%s", want, stderr)
		}
	}
	if strings.Contains(stderr, "load.mcfunction") {
		t.Fatalf("clean file reported:\n%s", stderr)
	}
}

func TestRunSubdirectoryOnlyLintsSelection(t *testing.T) {
	t.Parallel()

	root := writePack(t, map[string]string{
		"data/demo/function/main.mcfunction": "function demo:nope\n",
		"data/demo/structure/base.snbt":      `{size: [1, 1, 1]}`,
	})

	var out, errb bytes.Buffer
	code := run(context.Background(), strings.NewReader(""), &out, &errb, []string{filepath.Join(root, "data", "demo", "structure")})
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d; stderr=%q", code, exitOK, errb.String())
	}
}

func TestRunJSONDiagnosticsFromStdin(t *testing.T) {
	t.Parallel()

	root := writePack(t, map[string]string{
		"data/demo/function/load.mcfunction": "say hi\n",
	})

	var out, errb bytes.Buffer
	code := run(context.Background(), strings.NewReader("function demo:load\nfunction demo:nope\n"), &out, &errb, []string{
		"--stdin",
		"--root", root,
		"--assume-filename", "data/demo/function/main.mcfunction",
		"--format", "json",
	})
	if code != exitIssues {
		t.Fatalf("exit code = %d, want %d; stderr=%q", code, exitIssues, errb.String())
	}
	if errb.Len() != 0 {
		t.Fatalf("expected empty stderr for json mode, got %q", errb.String())
	}

	var payload []diagnosticJSON
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("json.Unmarshal: %v\n%s", err, out.String())
	}
	if len(payload) != 1 {
		t.Fatalf("payload = %+v", payload)
	}
	want := diagnosticJSON{
		File:      "data/demo/function/main.mcfunction",
		Source:    payload[0].Source,
		Code:      "SEM_UNRESOLVED_REFERENCE",
		Severity:  "error",
		Message:   "unknown function `demo:nope`",
		StartLine: 2,
		StartCol:  10,
		EndLine:   2,
		EndCol:    19,
	}
	if payload[0] != want {
		t.Fatalf("diagnostic = %+v, want %+v", payload[0], want)
	}
}

func TestRunUnsupportedFileIsInternalError(t *testing.T) {
	t.Parallel()

	root := writePack(t, map[string]string{"notes.txt": "hello"})

	var out, errb bytes.Buffer
	code := run(context.Background(), strings.NewReader(""), &out, &errb, []string{filepath.Join(root, "notes.txt")})
	if code != exitInternal {
		t.Fatalf("exit code = %d, want %d", code, exitInternal)
	}
	if !strings.Contains(errb.String(), "unsupported file type") {
		t.Fatalf("stderr = %q", errb.String())
	}
}

func TestResolveRootFindsMarker(t *testing.T) {
	t.Parallel()

	root := writePack(t, map[string]string{
		"data/demo/function/load.mcfunction": "say hi\n",
	})
	got, err := resolveRoot(cliOptions{paths: []string{filepath.Join(root, "data", "demo", "function", "load.mcfunction")}})
	if err != nil {
		t.Fatalf("resolveRoot: %v", err)
	}
	if got != root {
		t.Fatalf("resolveRoot = %q, want %q", got, root)
	}
}
