package style

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/chroma/v2"

	"github.com/mcdatapack/dpe/internal/lang"
)

func TestRenderChroma(t *testing.T) {
	t.Parallel()

	sp, err := NewSpace(lang.NewRegistry(), Set{})
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}

	var buf bytes.Buffer
	err = sp.RenderChroma(&buf, []byte("{}"), nil, "bogus", "github")
	if err == nil || !strings.Contains(err.Error(), `unknown formatter "bogus"`) {
		t.Fatalf("RenderChroma(bogus) error = %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("RenderChroma(bogus) wrote %q", buf.String())
	}

	if err := sp.RenderChroma(&buf, []byte("{}"), nil, "noop", "github"); err != nil {
		t.Fatalf("RenderChroma(noop): %v", err)
	}
	if got := buf.String(); got != "{}" {
		t.Fatalf("RenderChroma(noop) = %q, want %q", got, "{}")
	}
}

func TestChromaTokensFillsGaps(t *testing.T) {
	t.Parallel()

	sp, err := NewSpace(lang.NewRegistry(), Set{})
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}
	got := sp.ChromaTokens([]byte("a bc"), []Run{{Start: 2, End: 4, Style: 9}})
	want := []chroma.Token{
		{Type: chroma.Text, Value: "a "},
		{Type: chroma.Text, Value: "bc"},
	}
	if len(got) != len(want) {
		t.Fatalf("ChromaTokens() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ChromaTokens()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if ChromaType(KindString) != chroma.LiteralString || ChromaType(KindInvalid) != chroma.Error {
		t.Fatal("ChromaType mapping changed")
	}
}
