package jsonlang

import (
	"path/filepath"
	"testing"

	"github.com/mcdatapack/dpe/internal/testutil"
)

func TestCorpusValidDocumentsParseCleanly(t *testing.T) {
	t.Parallel()

	files, err := testutil.CorpusFiles("json/valid", ".json")
	if err != nil {
		t.Fatalf("CorpusFiles: %v", err)
	}
	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			t.Parallel()

			root, ds := Parse(testutil.ReadFile(t, file), nil)
			if len(ds) != 0 {
				t.Fatalf("diagnostics = %v", messages(ds))
			}
			if _, ok := root.(*Invalid); ok {
				t.Fatal("root is invalid")
			}
		})
	}
}

func TestCorpusInvalidDocumentsReportErrors(t *testing.T) {
	t.Parallel()

	files, err := testutil.CorpusFiles("json/invalid", ".json")
	if err != nil {
		t.Fatalf("CorpusFiles: %v", err)
	}
	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			t.Parallel()

			if _, ds := Parse(testutil.ReadFile(t, file), nil); len(ds) == 0 {
				t.Fatal("expected diagnostics")
			}
		})
	}
}
