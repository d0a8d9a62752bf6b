package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/mcdatapack/dpe/internal/contexts"
	"github.com/mcdatapack/dpe/internal/format"
	"github.com/mcdatapack/dpe/internal/project"
	"github.com/mcdatapack/dpe/internal/style"
)

// ServerName is reported in the initialize response.
const ServerName = "dpels"

// Server is a datapack LSP server with an in-memory snapshot store.
type Server struct {
	store  *SnapshotStore
	logger *slog.Logger

	mu            sync.Mutex
	project       *project.Project
	space         *style.Space
	version       string
	shutdown      bool
	exitRequested bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithProject serves p instead of opening the workspace root on initialize.
func WithProject(p *project.Project) Option {
	return func(s *Server) { s.project = p }
}

// WithVersion sets the version reported in the initialize response.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer creates a new LSP server instance.
func NewServer(opts ...Option) *Server {
	s := &Server{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	s.store = NewSnapshotStore(s.analyze)
	return s
}

// Store returns the backing snapshot store.
func (s *Server) Store() *SnapshotStore {
	if s == nil {
		return nil
	}
	return s.store
}

// Run serves JSON-RPC/LSP messages using Content-Length framing.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	if s == nil {
		return errors.New("nil Server")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	br := bufio.NewReader(in)
	bw := bufio.NewWriter(out)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, err := readFramedMessage(br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			_ = s.writeErrorResponse(bw, nil, jsonRPCParseError, err.Error())
			_ = bw.Flush()
			continue
		}
		if len(body) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(body, &req); err != nil {
			_ = s.writeErrorResponse(bw, nil, jsonRPCParseError, err.Error())
			_ = bw.Flush()
			continue
		}
		if req.JSONRPC != "" && req.JSONRPC != JSONRPCVersion {
			_ = s.writeErrorResponse(bw, req.ID, jsonRPCInvalidRequest, "unsupported jsonrpc version")
			_ = bw.Flush()
			continue
		}
		if req.Method == "" {
			// Client responses carry no method.
			continue
		}

		if err := s.dispatch(ctx, bw, req); err != nil {
			if errors.Is(err, ErrShutdownRequested) {
				return nil
			}
			return err
		}
		if err := bw.Flush(); err != nil {
			return err
		}
	}
}

//nolint:funcorder // dispatch is kept near Run for readability of request flow.
func (s *Server) dispatch(ctx context.Context, w *bufio.Writer, req Request) error {
	isRequest := len(req.ID) != 0

	writeResp := func(result any) error {
		if !isRequest {
			return nil
		}
		return s.writeResponse(w, Response{JSONRPC: JSONRPCVersion, ID: req.ID, Result: result})
	}
	writeErr := func(code int, msg string) error {
		if !isRequest {
			return nil
		}
		return s.writeErrorResponse(w, req.ID, code, msg)
	}
	writeQueryErr := func(err error) error {
		code := jsonRPCInternalError
		switch {
		case errors.Is(err, ErrDocumentNotOpen), errors.Is(err, ErrInvalidPosition):
			code = jsonRPCInvalidParams
		case errors.Is(err, ErrNotInitialized):
			code = lspErrorServerNotInitialized
		case errors.Is(err, context.Canceled):
			code = lspErrorRequestCancelled
		}
		return writeErr(code, err.Error())
	}
	writeFormatErr := func(err error) error {
		switch {
		case errors.Is(err, ErrStaleVersion):
			return writeErr(lspErrorContentModified, err.Error())
		case format.IsErrUnsafeToFormat(err):
			return writeErr(lspErrorRequestFailed, err.Error())
		default:
			return writeQueryErr(err)
		}
	}

	switch req.Method {
	case "initialize":
		var p InitializeParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				return writeErr(jsonRPCInvalidParams, err.Error())
			}
		}
		res, err := s.Initialize(ctx, p)
		if err != nil {
			return writeErr(jsonRPCInternalError, err.Error())
		}
		return writeResp(res)
	case "initialized":
		return nil
	case "shutdown":
		if err := s.Shutdown(ctx); err != nil {
			return writeErr(jsonRPCInternalError, err.Error())
		}
		return writeResp(struct{}{})
	case "exit":
		s.Exit()
		return ErrShutdownRequested
	case "textDocument/didOpen":
		var p DidOpenParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		if err := s.DidOpen(ctx, p); err != nil {
			s.logger.Error("open failed", "uri", p.TextDocument.URI, "error", err)
			return nil
		}
		return s.publishDiagnostics(w, p.TextDocument.URI)
	case "textDocument/didChange":
		var p DidChangeParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		if err := s.DidChange(ctx, p); err != nil {
			code := jsonRPCInternalError
			switch {
			case errors.Is(err, ErrStaleVersion):
				code = lspErrorContentModified
			case errors.Is(err, context.Canceled):
				code = lspErrorRequestCancelled
			case errors.Is(err, ErrDocumentNotOpen):
				code = jsonRPCInvalidParams
			case errors.Is(err, ErrNotInitialized):
				code = lspErrorServerNotInitialized
			}
			return writeErr(code, err.Error())
		}
		return s.publishDiagnostics(w, p.TextDocument.URI)
	case "textDocument/didClose":
		var p DidCloseParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		if err := s.DidClose(ctx, p); err != nil {
			return writeErr(jsonRPCInternalError, err.Error())
		}
		return s.writeNotification(w, "textDocument/publishDiagnostics", PublishDiagnosticsParams{
			URI:         p.TextDocument.URI,
			Diagnostics: []Diagnostic{},
		})
	case "workspace/didChangeWatchedFiles":
		var p DidChangeWatchedFilesParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		refreshed, err := s.DidChangeWatchedFiles(ctx, p)
		if err != nil {
			s.logger.Error("reload failed", "error", err)
			return nil
		}
		for _, snap := range refreshed {
			if err := s.publishDiagnostics(w, snap.URI); err != nil {
				return err
			}
		}
		return nil
	case "textDocument/completion":
		var p CompletionParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		list, err := s.Completion(ctx, p)
		if err != nil {
			return writeQueryErr(err)
		}
		return writeResp(list)
	case "textDocument/hover":
		var p HoverParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		hover, err := s.Hover(ctx, p)
		if err != nil {
			return writeQueryErr(err)
		}
		return writeResp(hover)
	case "textDocument/definition":
		var p DefinitionParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		locs, err := s.Definition(ctx, p)
		if err != nil {
			return writeQueryErr(err)
		}
		return writeResp(locs)
	case "textDocument/documentLink":
		var p DocumentLinkParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		links, err := s.DocumentLink(ctx, p)
		if err != nil {
			return writeQueryErr(err)
		}
		return writeResp(links)
	case "textDocument/semanticTokens/full":
		var p SemanticTokensParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		tokens, err := s.SemanticTokensFull(ctx, p)
		if err != nil {
			return writeQueryErr(err)
		}
		return writeResp(tokens)
	case "textDocument/formatting":
		var p DocumentFormattingParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		edits, err := s.Formatting(ctx, p)
		if err != nil {
			return writeFormatErr(err)
		}
		return writeResp(edits)
	case "textDocument/rangeFormatting":
		var p DocumentRangeFormattingParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		edits, err := s.RangeFormatting(ctx, p)
		if err != nil {
			return writeFormatErr(err)
		}
		return writeResp(edits)
	default:
		if strings.HasPrefix(req.Method, "$/") {
			return nil
		}
		return writeErr(jsonRPCMethodNotFound, "method not found")
	}
}

// Initialize handles the LSP initialize request. Without a preconfigured
// project it opens the workspace root named by the client.
func (s *Server) Initialize(ctx context.Context, p InitializeParams) (InitializeResult, error) {
	_ = ctx
	if s == nil {
		return InitializeResult{}, errors.New("nil Server")
	}
	s.mu.Lock()
	proj := s.project
	s.mu.Unlock()

	if proj == nil {
		root := "."
		switch {
		case p.RootURI != "":
			root = p.RootURI
		case len(p.WorkspaceFolders) > 0:
			root = p.WorkspaceFolders[0].URI
		}
		if strings.Contains(root, "://") {
			path, err := URIToPath(root)
			if err != nil {
				return InitializeResult{}, err
			}
			root = path
		}
		opened, err := project.Open(root, project.WithLogger(s.logger))
		if err != nil {
			return InitializeResult{}, fmt.Errorf("open workspace: %w", err)
		}
		proj = opened
	}
	space, err := style.NewSpace(proj.Registry, contexts.Stylers())
	if err != nil {
		return InitializeResult{}, err
	}
	if proj.SchemaErrors != nil {
		s.logger.Warn("schemas failed to load", "error", proj.SchemaErrors)
	}

	s.mu.Lock()
	s.project = proj
	s.space = space
	s.mu.Unlock()
	return InitializeResult{
		Capabilities: DefaultServerCapabilities(),
		ServerInfo:   &ServerInfo{Name: ServerName, Version: s.version},
	}, nil
}

// Shutdown handles the LSP shutdown request. It is idempotent.
func (s *Server) Shutdown(ctx context.Context) error {
	_ = ctx
	if s == nil {
		return errors.New("nil Server")
	}
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	return nil
}

// Exit handles the LSP exit notification.
func (s *Server) Exit() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.exitRequested = true
	s.mu.Unlock()
}

// DidOpen analyses and stores the opened document snapshot.
func (s *Server) DidOpen(ctx context.Context, p DidOpenParams) error {
	store, err := s.requireStore()
	if err != nil {
		return err
	}
	_, err = store.Open(ctx, p.TextDocument.URI, p.TextDocument.Version, []byte(p.TextDocument.Text))
	return err
}

// DidChange applies text changes and stores the reanalysed snapshot.
func (s *Server) DidChange(ctx context.Context, p DidChangeParams) error {
	store, err := s.requireStore()
	if err != nil {
		return err
	}
	if _, _, err := s.workspace(); err != nil {
		return err
	}
	_, err = store.Change(ctx, p.TextDocument.URI, p.TextDocument.Version, p.ContentChanges)
	return err
}

// DidClose removes the document snapshot if present.
func (s *Server) DidClose(ctx context.Context, p DidCloseParams) error {
	_ = ctx
	store, err := s.requireStore()
	if err != nil {
		return err
	}
	store.Close(p.TextDocument.URI)
	return nil
}

// DidChangeWatchedFiles reloads the project when datapack, schema, or
// configuration files change on disk and reanalyses the open documents.
func (s *Server) DidChangeWatchedFiles(ctx context.Context, p DidChangeWatchedFilesParams) ([]*Snapshot, error) {
	store, err := s.requireStore()
	if err != nil {
		return nil, err
	}
	proj, _, err := s.workspace()
	if err != nil {
		return nil, err
	}
	if len(p.Changes) == 0 {
		return nil, nil
	}
	if err := proj.Reload(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.space = nil
	s.mu.Unlock()
	return store.Refresh(ctx), nil
}

func (s *Server) analyze(ctx context.Context, uri string, src []byte) (Analysis, error) {
	proj, _, err := s.workspace()
	if err != nil {
		return Analysis{}, err
	}
	file, err := URIToPath(uri)
	if err != nil {
		s.logger.Debug("document is not a file", "uri", uri, "error", err)
		return Analysis{}, nil
	}
	res := proj.CheckSource(ctx, file, src)
	if res.Err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Analysis{}, ctxErr
		}
		if !errors.Is(res.Err, project.ErrUnsupportedFile) {
			s.logger.Warn("document not analysed", "file", file, "error", res.Err)
		}
		return Analysis{File: file}, nil
	}
	return Analysis{File: file, Document: res.Document, Diagnostics: res.Diagnostics}, nil
}

func (s *Server) workspace() (*project.Project, *style.Space, error) {
	if s == nil {
		return nil, nil, errors.New("nil Server")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return nil, nil, ErrNotInitialized
	}
	return s.project, s.space, nil
}

func (s *Server) styleSpace() (*style.Space, error) {
	proj, space, err := s.workspace()
	if err != nil {
		return nil, err
	}
	if space != nil {
		return space, nil
	}
	space, err = style.NewSpace(proj.Registry, contexts.Stylers())
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.space = space
	s.mu.Unlock()
	return space, nil
}

func (s *Server) publishDiagnostics(w *bufio.Writer, uri string) error {
	snap, ok := s.store.Snapshot(uri)
	if !ok {
		return nil
	}
	version := snap.Version
	return s.writeNotification(w, "textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         uri,
		Version:     &version,
		Diagnostics: lspDiagnostics(snap),
	})
}

func (s *Server) writeResponse(w *bufio.Writer, resp Response) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return writeFramedMessage(w, body)
}

func (s *Server) writeNotification(w *bufio.Writer, method string, params any) error {
	body, err := json.Marshal(Notification{JSONRPC: JSONRPCVersion, Method: method, Params: params})
	if err != nil {
		return err
	}
	return writeFramedMessage(w, body)
}

func (s *Server) writeErrorResponse(w *bufio.Writer, id json.RawMessage, code int, msg string) error {
	return s.writeResponse(w, Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &ResponseError{Code: code, Message: msg},
	})
}

func (s *Server) requireStore() (*SnapshotStore, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("nil Server")
	}
	return s.store, nil
}

func readFramedMessage(r *bufio.Reader) ([]byte, error) {
	contentLen := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		if line == "\r\n" || line == "\n" {
			break
		}
		line = strings.TrimRight(line, "\r\n")
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header line %q", line)
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			var n int
			if _, err := fmt.Sscanf(strings.TrimSpace(value), "%d", &n); err != nil || n < 0 {
				return nil, fmt.Errorf("invalid Content-Length %q", value)
			}
			contentLen = n
		}
	}
	if contentLen < 0 {
		return nil, errors.New("missing Content-Length")
	}
	body := make([]byte, contentLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

func writeFramedMessage(w io.Writer, body []byte) error {
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(body)); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}
