package lsp

import "errors"

const (
	jsonRPCParseError     = -32700
	jsonRPCInvalidRequest = -32600
	jsonRPCMethodNotFound = -32601
	jsonRPCInvalidParams  = -32602
	jsonRPCInternalError  = -32603

	// lspErrorServerNotInitialized rejects requests that need a project
	// before initialize.
	lspErrorServerNotInitialized = -32002
	// lspErrorContentModified indicates a stale versioned request in LSP.
	lspErrorContentModified = -32801
	// lspErrorRequestCancelled indicates cancellation.
	lspErrorRequestCancelled = -32800
	// lspErrorRequestFailed indicates request failure (unsafe formatting, etc.).
	lspErrorRequestFailed = -32803
)

var (
	// ErrShutdownRequested is returned internally after exit notification is handled.
	ErrShutdownRequested = errors.New("lsp server exit requested")
	// ErrDocumentNotOpen indicates a request referenced a document that is not tracked.
	ErrDocumentNotOpen = errors.New("document is not open")
	// ErrStaleVersion indicates a request version is older than the current snapshot.
	ErrStaleVersion = errors.New("stale document version")
	// ErrInvalidPosition indicates a request position outside the document.
	ErrInvalidPosition = errors.New("invalid document position")
	// ErrNotInitialized indicates a document request arrived before a project
	// was opened.
	ErrNotInitialized = errors.New("server not initialized")
)
