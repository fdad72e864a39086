package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/elves/posixsh/pkg/diag"
	"github.com/elves/posixsh/pkg/lex"
	"github.com/elves/posixsh/pkg/parse"
)

var (
	errMethodNotFound = &jsonrpc2.Error{
		Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}
	errInvalidParams = &jsonrpc2.Error{
		Code: jsonrpc2.CodeInvalidParams, Message: "invalid params"}
	errUnknownDocument = &jsonrpc2.Error{
		Code: jsonrpc2.CodeInvalidParams, Message: "unknown document"}
)

type server struct {
	content map[lsp.DocumentURI]string
}

func newServer() *server {
	return &server{make(map[lsp.DocumentURI]string)}
}

func handler(s *server) jsonrpc2.Handler {
	return routingHandler(map[string]method{
		"initialize":                  s.initialize,
		"textDocument/didOpen":        s.didOpen,
		"textDocument/didChange":      s.didChange,
		"textDocument/didClose":       s.didClose,
		"textDocument/hover":          s.hover,
		"textDocument/documentSymbol": s.documentSymbol,
		"shutdown":                    noop,
		"exit":                        exit,

		// Required by the protocol.
		"initialized": noop,
		// Called by clients even when server doesn't advertise support:
		// https://microsoft.github.io/language-server-protocol/specification#workspace_didChangeWatchedFiles
		"workspace/didChangeWatchedFiles": noop,
	})
}

type method func(context.Context, jsonrpc2.JSONRPC2, json.RawMessage) (any, error)

func noop(_ context.Context, _ jsonrpc2.JSONRPC2, _ json.RawMessage) (any, error) {
	return nil, nil
}

func exit(_ context.Context, conn jsonrpc2.JSONRPC2, _ json.RawMessage) (any, error) {
	logger.Println("exit requested")
	return nil, conn.Close()
}

func routingHandler(methods map[string]method) jsonrpc2.Handler {
	return jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		fn, ok := methods[req.Method]
		if !ok {
			logger.Println("unknown method", req.Method)
			return nil, errMethodNotFound
		}
		var params json.RawMessage
		if req.Params != nil {
			params = *req.Params
		}
		return fn(ctx, conn, params)
	})
}

// Handler implementations. These are all called synchronously.

func (s *server) initialize(_ context.Context, _ jsonrpc2.JSONRPC2, _ json.RawMessage) (any, error) {
	return &lsp.InitializeResult{
		Capabilities: lsp.ServerCapabilities{
			TextDocumentSync: &lsp.TextDocumentSyncOptionsOrKind{
				Options: &lsp.TextDocumentSyncOptions{
					OpenClose: true,
					Change:    lsp.TDSKFull,
				},
			},
			HoverProvider:          true,
			DocumentSymbolProvider: true,
		},
	}, nil
}

func (s *server) didOpen(ctx context.Context, conn jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidOpenTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}

	uri, content := params.TextDocument.URI, params.TextDocument.Text
	s.content[uri] = content
	go publishDiagnostics(ctx, conn, uri, content)
	return nil, nil
}

func (s *server) didChange(ctx context.Context, conn jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidChangeTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil || len(params.ContentChanges) == 0 {
		return nil, errInvalidParams
	}

	// ContentChanges includes full text since the server is only advertised to
	// support that; see the initialize method.
	uri, content := params.TextDocument.URI, params.ContentChanges[0].Text
	s.content[uri] = content
	go publishDiagnostics(ctx, conn, uri, content)
	return nil, nil
}

func (s *server) didClose(ctx context.Context, conn jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidCloseTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	uri := params.TextDocument.URI
	delete(s.content, uri)
	// Clear the diagnostics of the closed document.
	go conn.Notify(ctx, "textDocument/publishDiagnostics",
		lsp.PublishDiagnosticsParams{URI: uri, Diagnostics: []lsp.Diagnostic{}})
	return nil, nil
}

func (s *server) hover(_ context.Context, _ jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.TextDocumentPositionParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	content, ok := s.content[params.TextDocument.URI]
	if !ok {
		return nil, errUnknownDocument
	}

	idx := lspPositionToIdx(content, params.Position)
	tok, ok := tokenAt(string(params.TextDocument.URI), content, idx)
	if !ok {
		return lsp.Hover{}, nil
	}
	r := lspRangeFromRange(content, tok)
	return lsp.Hover{
		Contents: []lsp.MarkedString{lsp.RawMarkedString(describeToken(content, tok))},
		Range:    &r,
	}, nil
}

// Returns the token covering idx, or the token ending at idx when there is
// none.
func tokenAt(name, content string, idx int) (lex.Token, bool) {
	var ending lex.Token
	found := false
	sc := lex.New(name, content, lex.Config{}).Scanner()
	for sc.Scan() {
		tok := sc.Token()
		switch {
		case tok.From > idx:
			return ending, found
		case idx < tok.To:
			return tok, true
		case idx == tok.To:
			ending, found = tok, true
		}
	}
	return ending, found
}

// Describes a token for hovering. Names spelling a reserved word are only
// described as reserved words when the parser recognized them as such.
func describeToken(content string, tok lex.Token) string {
	if kind, ok := lex.ReservedWord(tok.Lexeme); ok && tok.Kind == lex.Name &&
		!isWordNode(content, tok) {
		return fmt.Sprintf("reserved word %s", kind)
	}
	if tok.Kind.IsOperator() || tok.Kind.IsReservedWord() {
		return fmt.Sprintf("operator %s", tok.Kind)
	}
	if tok.Kind == lex.Newline {
		return "NEWLINE"
	}
	return fmt.Sprintf("%s `%s`", tok.Kind, tok.Lexeme)
}

// Reports whether the parser turned tok into a Word node. If the content does
// not parse, every token is treated as a word.
func isWordNode(content string, tok lex.Token) bool {
	tree, err := parse.Parse(parse.Source{Name: "hover", Code: content}, parse.Config{})
	if err != nil {
		return true
	}
	isWord := false
	parse.Walk(tree, func(n parse.Node) bool {
		r := n.Range()
		if r.To <= tok.From || tok.To <= r.From {
			return false
		}
		if _, ok := n.(*parse.Word); ok && r == tok.Range() {
			isWord = true
		}
		return !isWord
	})
	return isWord
}

func (s *server) documentSymbol(_ context.Context, _ jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DocumentSymbolParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	uri := params.TextDocument.URI
	content, ok := s.content[uri]
	if !ok {
		return nil, errUnknownDocument
	}
	tree, err := parse.Parse(parse.Source{Name: string(uri), Code: content}, parse.Config{})
	if err != nil {
		return []lsp.SymbolInformation{}, nil
	}

	type symbol struct {
		name  string
		kind  lsp.SymbolKind
		where diag.Ranging
	}
	var symbols []symbol
	parse.Walk(tree, func(n parse.Node) bool {
		if fn, ok := n.(*parse.FunctionDefinition); ok {
			symbols = append(symbols, symbol{fn.Name.Value, lsp.SKFunction, fn.Range()})
		}
		return true
	})
	for _, cc := range topLevelCompounds(tree) {
		symbols = append(symbols, symbol{clauseName(cc.Clause), lsp.SKNamespace, cc.Range()})
	}
	sort.SliceStable(symbols, func(i, j int) bool {
		return symbols[i].where.From < symbols[j].where.From
	})

	infos := make([]lsp.SymbolInformation, len(symbols))
	for i, sym := range symbols {
		infos[i] = lsp.SymbolInformation{
			Name: sym.name,
			Kind: sym.kind,
			Location: lsp.Location{
				URI: uri, Range: lspRangeFromRange(content, sym.where)},
		}
	}
	return infos, nil
}

func topLevelCompounds(tree *parse.Program) []*parse.CompoundCommand {
	var compounds []*parse.CompoundCommand
	for _, cc := range tree.Commands {
		for _, an := range cc.Items {
			pipelines := []*parse.Pipeline{an.Head}
			for _, link := range an.Tail {
				pipelines = append(pipelines, link.Pipeline)
			}
			for _, pl := range pipelines {
				for _, cmd := range pl.Commands {
					if compound, ok := cmd.(*parse.CompoundCommand); ok {
						compounds = append(compounds, compound)
					}
				}
			}
		}
	}
	return compounds
}

func clauseName(c parse.Clause) string {
	switch c := c.(type) {
	case *parse.BraceGroup:
		return "{ }"
	case *parse.Subshell:
		return "( )"
	case *parse.ForClause:
		return "for " + c.Var.Value
	case *parse.CaseClause:
		return "case " + c.Subject.Value
	case *parse.IfClause:
		return "if"
	case *parse.WhileClause:
		return "while"
	case *parse.UntilClause:
		return "until"
	}
	return "compound command"
}

func publishDiagnostics(ctx context.Context, conn jsonrpc2.JSONRPC2, uri lsp.DocumentURI, content string) {
	conn.Notify(ctx, "textDocument/publishDiagnostics",
		lsp.PublishDiagnosticsParams{URI: uri, Diagnostics: diagnostics(uri, content)})
}

func diagnostics(uri lsp.DocumentURI, content string) []lsp.Diagnostic {
	_, err := parse.Parse(parse.Source{Name: string(uri), Code: content}, parse.Config{})
	if err == nil {
		return []lsp.Diagnostic{}
	}

	var d lsp.Diagnostic
	if e := parse.UnpackError(err); e != nil {
		d = lsp.Diagnostic{Range: lspRangeFromRange(content, e), Source: "parse", Message: e.Message}
	} else if e := lex.UnpackError(err); e != nil {
		d = lsp.Diagnostic{Range: lspRangeFromRange(content, e), Source: "lex", Message: e.Message}
	} else {
		d = lsp.Diagnostic{Source: "parse", Message: err.Error()}
	}
	d.Severity = lsp.Error
	return []lsp.Diagnostic{d}
}

func lspRangeFromRange(s string, r diag.Ranger) lsp.Range {
	rg := r.Range()
	return lsp.Range{
		Start: lspPositionFromIdx(s, rg.From),
		End:   lspPositionFromIdx(s, rg.To),
	}
}

func lspPositionToIdx(s string, pos lsp.Position) int {
	var idx int
	walkString(s, func(i int, p lsp.Position) bool {
		idx = i
		return p.Line < pos.Line || (p.Line == pos.Line && p.Character < pos.Character)
	})
	return idx
}

func lspPositionFromIdx(s string, idx int) lsp.Position {
	var pos lsp.Position
	walkString(s, func(i int, p lsp.Position) bool {
		pos = p
		return i < idx
	})
	return pos
}

// Generates (index, lspPosition) pairs in s, stopping if f returns false.
// Characters are counted in UTF-16 code units.
func walkString(s string, f func(i int, p lsp.Position) bool) {
	var p lsp.Position
	lastCR := false

	for i, r := range s {
		if !f(i, p) {
			return
		}
		switch {
		case r == '\r':
			p.Line++
			p.Character = 0
		case r == '\n':
			if lastCR {
				// Ignore \n if it's part of a \r\n sequence
			} else {
				p.Line++
				p.Character = 0
			}
		case r <= 0xFFFF:
			// Encoded in UTF-16 with one unit
			p.Character++
		default:
			// Encoded in UTF-16 with two units
			p.Character += 2
		}
		lastCR = r == '\r'
	}
	f(len(s), p)
}
