package lsp

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"flowproof/internal/builder"
	"flowproof/internal/dialect"
	"flowproof/internal/errors"
	"flowproof/internal/parser"
	"flowproof/internal/scope"
	"flowproof/internal/validator"
	"flowproof/grammar"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// SemanticTokenTypes is the set of semantic token kinds this server
// reports, in the order the legend indexes them.
var SemanticTokenTypes = []string{
	"namespace",
	"type",
	"typeParameter",
	"function",
	"variable",
	"parameter",
	"property",
	"keyword",
	"number",
	"operator",
	"modifier",
}

// SemanticTokenModifiers is the set of modifier bits this server sets.
var SemanticTokenModifiers = []string{
	"declaration",
	"definition",
	"readonly",
	"static",
	"deprecated",
	"abstract",
}

// document is everything the server remembers about one open file:
// its text and the editor-tooling CST it was last parsed into.
type document struct {
	content string
	cst     *grammar.Program
}

// Handler implements the LSP server methods for this language: it keeps
// every open document's text and CST, and on every open/change re-runs
// parse -> build -> validate to republish diagnostics.
type Handler struct {
	mu      sync.RWMutex
	docs    map[string]*document
	dialect *dialect.Dialect
}

// NewHandler creates a Handler with the default builtin registry.
func NewHandler() *Handler {
	return &Handler{
		docs:    make(map[string]*document),
		dialect: dialect.Default(),
	}
}

func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("LSP Initialize called")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			CompletionProvider: &protocol.CompletionOptions{
				ResolveProvider: ptrBool(false),
			},
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     SemanticTokenTypes,
					TokenModifiers: SemanticTokenModifiers,
				},
				Full: ptrBool(true),
			},
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("LSP server initialized")
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Println("LSP server shutting down")
	return nil
}

func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	log.Printf("opened file: %s\n", params.TextDocument.URI)

	diagnostics, err := h.updateDocument(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	sendDiagnosticNotification(ctx, params.TextDocument.URI, diagnostics)
	return nil
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	log.Printf("closed file: %s\n", params.TextDocument.URI)

	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}

	h.mu.Lock()
	delete(h.docs, path)
	h.mu.Unlock()
	return nil
}

func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	log.Printf("changed file: %s\n", params.TextDocument.URI)

	diagnostics, err := h.updateDocument(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	sendDiagnosticNotification(ctx, params.TextDocument.URI, diagnostics)
	return nil
}

func (h *Handler) TextDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	return &protocol.CompletionList{
		IsIncomplete: false,
		Items:        []protocol.CompletionItem{},
	}, nil
}

func (h *Handler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}

	cst, err := h.getOrParseCST(ctx, path, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	tokens := collectSemanticTokens(cst)
	var data []uint32
	var prevLine, prevStart uint32
	for _, token := range tokens {
		deltaLine := token.Line - prevLine
		var deltaStart uint32
		if deltaLine == 0 {
			deltaStart = token.StartChar - prevStart
		} else {
			deltaStart = token.StartChar
		}
		data = append(data, deltaLine, deltaStart, token.Length, uint32(token.TokenType), uint32(token.TokenModifiers))
		prevLine = token.Line
		prevStart = token.StartChar
	}

	return &protocol.SemanticTokens{Data: data}, nil
}

func (h *Handler) getOrParseCST(ctx *glsp.Context, path string, rawURI protocol.DocumentUri) (*grammar.Program, error) {
	h.mu.RLock()
	doc, ok := h.docs[path]
	h.mu.RUnlock()
	if ok {
		return doc.cst, nil
	}

	diagnostics, err := h.updateDocument(rawURI)
	if err != nil {
		return nil, err
	}
	sendDiagnosticNotification(ctx, rawURI, diagnostics)

	h.mu.RLock()
	doc = h.docs[path]
	h.mu.RUnlock()
	if doc == nil {
		return nil, nil
	}
	return doc.cst, nil
}

// updateDocument re-reads path from disk, parses it with both front
// ends - internal/parser for diagnostics, grammar for the CST semantic
// tokens are built from - and runs build+validate when the compile-time
// parse succeeded, returning every diagnostic collected along the way.
func (h *Handler) updateDocument(rawURI protocol.DocumentUri) ([]protocol.Diagnostic, error) {
	path, err := uriToPath(rawURI)
	if err != nil {
		return nil, fmt.Errorf("failed to convert URI %s: %w", rawURI, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	source := string(content)

	var diagnostics []protocol.Diagnostic

	result := parser.ParseResultFor(path, source)
	diagnostics = append(diagnostics, ConvertScanErrors(result.ScanErrors)...)
	diagnostics = append(diagnostics, ConvertParseErrors(result.ParseErrors)...)

	if result.OK() {
		info := scope.NewAnalysisInfo()
		cfg := builder.Build(result.Program, h.dialect, info)
		if vErr := validator.Validate(cfg, result.Program, info, h.dialect); vErr != nil {
			if vf, ok := vErr.(*errors.ValidationFailure); ok {
				diagnostics = append(diagnostics, ConvertValidationFailure(vf))
			}
		}
	}

	cst, _ := grammar.ParseSource(path, source)

	h.mu.Lock()
	h.docs[path] = &document{content: source, cst: cst}
	h.mu.Unlock()

	return diagnostics, nil
}

func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.URI, diagnostics []protocol.Diagnostic) {
	if ctx.Notify == nil {
		return
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
