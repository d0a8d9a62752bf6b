package lsp

// DefaultServerCapabilities returns the capability set announced on
// initialize.
func DefaultServerCapabilities() ServerCapabilities {
	return ServerCapabilities{
		TextDocumentSync: TextDocumentSyncOptions{
			OpenClose: true,
			Change:    TextDocumentSyncKindIncremental,
		},
		CompletionProvider: &CompletionOptions{
			TriggerCharacters: []string{"\"", ":", "/", "#", " ", "@", "{", "["},
		},
		HoverProvider:        true,
		DefinitionProvider:   true,
		DocumentLinkProvider: &DocumentLinkOptions{},
		SemanticTokensProvider: &SemanticTokensOptions{
			Legend: SemanticTokensLegend{
				TokenTypes:     semanticTokenLegendTypes(),
				TokenModifiers: semanticTokenLegendModifiers(),
			},
			Full:  true,
			Range: false,
		},
		DocumentFormattingProvider:      true,
		DocumentRangeFormattingProvider: true,
	}
}
