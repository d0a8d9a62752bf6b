//go:build cgo && dpe_cgo

package jsonlang

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/testutil"
)

func TestParserMatchesTreeSitterOracle(t *testing.T) {
	oracle := testutil.RequireJSONOracle(t)

	for _, set := range []string{"json/valid", "json/invalid"} {
		files, err := testutil.CorpusFiles(set, ".json")
		if err != nil {
			t.Fatalf("CorpusFiles: %v", err)
		}
		for _, file := range files {
			t.Run(set+"/"+filepath.Base(file), func(t *testing.T) {
				src := testutil.ReadFile(t, file)
				want, err := oracle.Parse(src)
				if err != nil {
					t.Fatalf("oracle: %v", err)
				}
				root, ds := Parse(src, nil)
				if got := len(ds) == 0; got != want.Valid {
					t.Fatalf("valid = %v, oracle valid = %v\n%s\ndiagnostics: %v", got, want.Valid, want.Sexp, messages(ds))
				}
				if !want.Valid {
					return
				}
				if got := rawKeys(root, src); !slices.Equal(got, want.Keys) {
					t.Fatalf("keys = %q, oracle keys = %q", got, want.Keys)
				}
			})
		}
	}
}

func rawKeys(n lang.Node, src []byte) []string {
	var out []string
	var walk func(lang.Node)
	walk = func(n lang.Node) {
		if p, ok := n.(*Property); ok {
			sp := p.Key.Span()
			out = append(out, string(src[sp.Start.Index:sp.End.Index]))
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(n)
	return out
}
