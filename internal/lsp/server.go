package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"

	"prefabls/internal/catalog"
	"prefabls/internal/config"
	"prefabls/internal/debounce"
	"prefabls/internal/detect"
	"prefabls/internal/diagnose"
	"prefabls/internal/source"
	"prefabls/internal/trace"
	"prefabls/internal/version"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// SettingsLoader resolves settings for the workspace root sent by the client.
type SettingsLoader func(root string) (config.Settings, map[string]string, error)

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	// Settings defaults to config.Defaults when zero.
	Settings config.Settings
	// EnvValues are variables read from the workspace .env file.
	EnvValues map[string]string
	// Catalog is fed from Settings.CatalogPath after initialize. A new one is
	// created when nil.
	Catalog *catalog.Catalog
	// Fetcher serves hover lookups; defaults to a cached catalog fetcher.
	Fetcher catalog.Fetcher
	// LoadSettings, when set, replaces Settings once the workspace root is
	// known.
	LoadSettings SettingsLoader
	Detector     *detect.Detector
	Clock        debounce.Clock
	Tracer       trace.Tracer
}

// Server handles stdio JSON-RPC for the prefab language server.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex

	mu                sync.Mutex
	docs              map[string]*source.Document
	published         map[string]struct{}
	workspaceRoot     string
	shutdownRequested bool
	settings          config.Settings
	envValues         map[string]string
	scheduler         *debounce.Scheduler
	catalogSource     *catalog.FileSource
	stopCatalog       context.CancelFunc

	// analysisMu serializes analysis runs.
	analysisMu sync.Mutex

	loadSettings SettingsLoader
	clock        debounce.Clock
	detector     *detect.Detector
	orchestrator *diagnose.Orchestrator
	catalog      *catalog.Catalog
	fetcher      catalog.Fetcher
	tracer       trace.Tracer
	baseCtx      context.Context
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	settings := opts.Settings
	if settings.IsZero() {
		settings = config.Defaults()
	}
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.New()
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		cached, err := catalog.NewCachedFetcher(catalog.CatalogFetcher{Catalog: cat}, cat, 256)
		if err != nil {
			fetcher = catalog.CatalogFetcher{Catalog: cat}
		} else {
			fetcher = cached
		}
	}
	detector := opts.Detector
	if detector == nil {
		detector = detect.Default
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	orchestrator := diagnose.New(diagnose.MissingKeyAnalyzer{Keys: cat})
	orchestrator.SetLimit(settings.MaxDiagnostics)
	envValues := opts.EnvValues
	if envValues == nil {
		envValues = map[string]string{}
	}
	return &Server{
		in:           bufio.NewReader(in),
		out:          bufio.NewWriter(out),
		docs:         make(map[string]*source.Document),
		published:    make(map[string]struct{}),
		settings:     settings,
		envValues:    envValues,
		scheduler:    debounce.NewScheduler(settings.Debounce, opts.Clock),
		loadSettings: opts.LoadSettings,
		clock:        opts.Clock,
		detector:     detector,
		orchestrator: orchestrator,
		catalog:      cat,
		fetcher:      fetcher,
		tracer:       tracer,
		baseCtx:      trace.WithTracer(context.Background(), tracer),
	}
}

// Run serves LSP requests until exit or end of input.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(trace.WithTracer(ctx, s.tracer))
	defer cancel()
	s.baseCtx = ctx
	defer s.stop()
	go s.awaitCatalog(ctx)

	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logf("failed to parse message: %v", err)
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.dispatch(&msg); err != nil {
			return err
		}
	}
}

// dispatch handles one message and turns a handler panic into an internal
// error reply. The in-memory trace is dumped to stderr first.
func (s *Server) dispatch(msg *rpcMessage) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		s.logf("panic handling %s: %v\n%s", msg.Method, r, debug.Stack())
		trace.Error(s.tracer, trace.ScopeServer, "panic", fmt.Errorf("%s: %v", msg.Method, r))
		s.dumpTrace()
		if len(msg.ID) > 0 {
			err = s.sendError(msg.ID, codeInternalError, fmt.Sprintf("internal error: %v", r))
		}
	}()
	return s.handleMessage(msg)
}

func (s *Server) dumpTrace() {
	mt, ok := s.tracer.(*trace.MultiTracer)
	if !ok {
		return
	}
	ring, ok := mt.Ring()
	if !ok {
		return
	}
	if err := ring.Dump(os.Stderr, trace.FormatText); err != nil {
		s.logf("failed to dump trace: %v", err)
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		s.startCatalog()
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if s.isShutdownRequested() {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "workspace/executeCommand":
		return s.handleExecuteCommand(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	case "textDocument/completion":
		return s.handleCompletion(msg)
	case "textDocument/codeAction":
		return s.handleCodeAction(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	root := ""
	if params.RootURI != "" {
		root = source.URIToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = source.URIToPath(params.WorkspaceFolders[0].URI)
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	s.mu.Lock()
	s.workspaceRoot = root
	s.mu.Unlock()

	if root != "" && s.loadSettings != nil {
		settings, env, err := s.loadSettings(root)
		if err != nil {
			s.logf("failed to load settings: %v", err)
		} else {
			s.applySettings(settings)
			s.mu.Lock()
			s.envValues = env
			s.mu.Unlock()
		}
	}

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save:      saveOptions{IncludeText: true},
			},
			HoverProvider: true,
			CompletionProvider: &completionOptions{
				TriggerCharacters: []string{`"`, "'", "`"},
			},
			CodeActionProvider: &codeActionOptions{
				CodeActionKinds: []string{codeActionQuickFix, codeActionExtract},
			},
			ExecuteCommandProvider: &executeCommandOptions{
				Commands: []string{commandCreateConfig, commandEditConfig},
			},
		},
		ServerInfo: &serverInfo{Name: "prefabls", Version: version.Version},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	s.mu.Unlock()
	s.stop()
	s.clearPublishedDiagnostics()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) isShutdownRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdownRequested
}

// stop cancels pending debounce tails and the catalog watcher.
func (s *Server) stop() {
	s.mu.Lock()
	scheduler := s.scheduler
	cancel := s.stopCatalog
	s.stopCatalog = nil
	s.mu.Unlock()
	scheduler.Stop()
	if cancel != nil {
		cancel()
	}
	if err := s.tracer.Flush(); err != nil {
		s.logf("failed to flush trace: %v", err)
	}
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendPublish(uri string, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Diagnostics: list,
		},
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(msg); err != nil {
		return err
	}
	payload := bytes.TrimRight(buf.Bytes(), "\n")
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *Server) logf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "lsp: "+format+"\n", args...)
}
