package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHighlightGoldenCasesDiscovered(t *testing.T) {
	cases, err := HighlightGoldenCases()
	if err != nil {
		t.Fatalf("HighlightGoldenCases: %v", err)
	}
	if len(cases) == 0 {
		t.Fatal("expected at least one highlighter golden case")
	}

	for _, c := range cases {
		if _, err := os.Stat(c.InputPath); err != nil {
			t.Fatalf("input fixture missing for %s: %v", c.Name, err)
		}
		if _, err := os.Stat(c.ExpectedPath); err != nil {
			t.Fatalf("expected fixture missing for %s: %v", c.Name, err)
		}
	}
}

func TestFormatGoldenCasesPairByName(t *testing.T) {
	cases, err := FormatGoldenCases()
	if err != nil {
		t.Fatalf("FormatGoldenCases: %v", err)
	}
	if len(cases) == 0 {
		t.Fatal("expected at least one formatter golden case")
	}
	for _, c := range cases {
		if filepath.Base(c.InputPath) != filepath.Base(c.ExpectedPath) {
			t.Fatalf("fixture pair %s: %s vs %s", c.Name, c.InputPath, c.ExpectedPath)
		}
	}
}

func TestCorpusFilesFiltersByExtension(t *testing.T) {
	files, err := CorpusFiles("json/valid", ".json")
	if err != nil {
		t.Fatalf("CorpusFiles: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("expected JSON corpus files")
	}
	for _, f := range files {
		if filepath.Ext(f) != ".json" {
			t.Fatalf("unexpected corpus file %s", f)
		}
	}
	if _, err := CorpusFiles("missing", ".json"); err == nil {
		t.Fatal("expected error for a missing corpus set")
	}
}
