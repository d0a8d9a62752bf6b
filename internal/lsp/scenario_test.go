package lsp

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLSPScenarioInitializeOpenEditNavigate(t *testing.T) {
	t.Parallel()

	root := scenarioRoot(t, "datapack")
	main := loadLSPScenarioFixture(t, "datapack", "data/demo/function/main.mcfunction")
	mainURI := PathToURI(filepath.Join(root, "data", "demo", "function", "main.mcfunction"))
	chestURI := PathToURI(filepath.Join(root, "data", "demo", "loot_table", "chest.json"))

	msgs := runLSPScenario(t, []Request{
		{
			JSONRPC: JSONRPCVersion,
			ID:      json.RawMessage(`"init"`),
			Method:  "initialize",
			Params:  mustJSON(t, InitializeParams{RootURI: PathToURI(root)}),
		},
		{
			JSONRPC: JSONRPCVersion,
			Method:  "textDocument/didOpen",
			Params: mustJSON(t, DidOpenParams{
				TextDocument: TextDocumentItem{URI: mainURI, Version: 1, Text: main},
			}),
		},
		{
			JSONRPC: JSONRPCVersion,
			Method:  "textDocument/didChange",
			Params: mustJSON(t, DidChangeParams{
				TextDocument: VersionedTextDocumentIdentifier{URI: mainURI, Version: 2},
				ContentChanges: []TextDocumentContentChangeEvent{{
					Range: &Range{Start: Position{Line: 1, Character: 0}, End: Position{Line: 1, Character: 0}},
					Text:  "function demo:gone\n",
				}},
			}),
		},
		{
			JSONRPC: JSONRPCVersion,
			ID:      json.RawMessage(`"def"`),
			Method:  "textDocument/definition",
			Params: mustJSON(t, DefinitionParams{
				TextDocument: TextDocumentIdentifier{URI: mainURI},
				Position:     Position{Line: 0, Character: 10},
			}),
		},
		{
			JSONRPC: JSONRPCVersion,
			Method:  "textDocument/didOpen",
			Params: mustJSON(t, DidOpenParams{
				TextDocument: TextDocumentItem{URI: chestURI, Version: 1, Text: `{"function": "demo:load", "rolls": 0}`},
			}),
		},
		{
			JSONRPC: JSONRPCVersion,
			ID:      json.RawMessage(`"hover"`),
			Method:  "textDocument/hover",
			Params: mustJSON(t, HoverParams{
				TextDocument: TextDocumentIdentifier{URI: chestURI},
				Position:     Position{Line: 0, Character: 30},
			}),
		},
		{
			JSONRPC: JSONRPCVersion,
			ID:      json.RawMessage(`"tokens"`),
			Method:  "textDocument/semanticTokens/full",
			Params:  mustJSON(t, SemanticTokensParams{TextDocument: TextDocumentIdentifier{URI: chestURI}}),
		},
		{JSONRPC: JSONRPCVersion, ID: json.RawMessage(`"down"`), Method: "shutdown"},
		{JSONRPC: JSONRPCVersion, Method: "exit"},
	})

	if resp := responseByID(t, msgs, `"init"`); resp.Error != nil {
		t.Fatalf("initialize error: %+v", resp.Error)
	}

	notes := collectMethodMessages(t, msgs, "textDocument/publishDiagnostics")
	if len(notes) != 3 {
		t.Fatalf("publishDiagnostics count=%d, want 3", len(notes))
	}
	var counts []int
	for _, n := range notes {
		var p PublishDiagnosticsParams
		marshalRoundtrip(t, n.Params, &p)
		counts = append(counts, len(p.Diagnostics))
	}
	if counts[0] != 0 || counts[1] != 1 || counts[2] != 1 {
		t.Fatalf("diagnostic counts = %v, want [0 1 1]", counts)
	}

	var locs []Location
	marshalRoundtrip(t, responseByID(t, msgs, `"def"`).Result, &locs)
	if len(locs) != 1 || !strings.HasSuffix(locs[0].URI, "/data/demo/function/load.mcfunction") {
		t.Fatalf("definition = %+v", locs)
	}

	var hover Hover
	marshalRoundtrip(t, responseByID(t, msgs, `"hover"`).Result, &hover)
	if !strings.Contains(hover.Contents.Value, "Number of rolls.") {
		t.Fatalf("hover = %+v", hover)
	}

	var tokens SemanticTokens
	marshalRoundtrip(t, responseByID(t, msgs, `"tokens"`).Result, &tokens)
	if len(tokens.Data) == 0 || len(tokens.Data)%5 != 0 {
		t.Fatalf("semantic tokens = %v", tokens.Data)
	}

	if resp := responseByID(t, msgs, `"down"`); resp.Error != nil {
		t.Fatalf("shutdown error: %+v", resp.Error)
	}
}

func TestLSPScenarioQueriesBeforeInitialize(t *testing.T) {
	t.Parallel()

	msgs := runLSPScenario(t, []Request{
		{
			JSONRPC: JSONRPCVersion,
			ID:      json.RawMessage(`"early"`),
			Method:  "textDocument/completion",
			Params: mustJSON(t, CompletionParams{
				TextDocument: TextDocumentIdentifier{URI: "file:///pack/a.json"},
			}),
		},
		{
			JSONRPC: JSONRPCVersion,
			Method:  "textDocument/didOpen",
			Params: mustJSON(t, DidOpenParams{
				TextDocument: TextDocumentItem{URI: "file:///pack/a.json", Version: 1, Text: "{}"},
			}),
		},
	})

	resp := responseByID(t, msgs, `"early"`)
	if resp.Error == nil || resp.Error.Code != lspErrorServerNotInitialized {
		t.Fatalf("early completion error=%+v, want ServerNotInitialized", resp.Error)
	}
	if got := collectMethodMessages(t, msgs, "textDocument/publishDiagnostics"); len(got) != 0 {
		t.Fatalf("unexpected diagnostics before initialize: %+v", got)
	}
}

func runLSPScenario(t *testing.T, reqs []Request) []testFrame {
	t.Helper()

	var in bytes.Buffer
	for _, req := range reqs {
		writeReqFrame(t, &in, req)
	}

	var out bytes.Buffer
	if err := NewServer().Run(context.Background(), &in, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return readAllFrames(t, out.Bytes())
}

func scenarioRoot(t *testing.T, scenarioName string) string {
	t.Helper()

	root, err := filepath.Abs(filepath.Join("..", "..", "testdata", "lsp", "scenarios", scenarioName))
	if err != nil {
		t.Fatalf("Abs: %v", err)
	}
	return root
}

func loadLSPScenarioFixture(t *testing.T, scenarioName, fileName string) string {
	t.Helper()

	path := filepath.Join(scenarioRoot(t, scenarioName), filepath.FromSlash(fileName))
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}
	return string(b)
}
