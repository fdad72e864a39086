package parse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/elves/posixsh/pkg/diag"
	"github.com/elves/posixsh/pkg/lex"
)

// ErrorTag parameterizes [diag.Error] to define the formatting of parse
// errors.
type ErrorTag struct{}

func (ErrorTag) ErrorTag() string { return "parse error" }

// Error is a parse error. Besides the message and context shared by all
// [diag.Error] values, it records what the parser was looking for.
type Error struct {
	Message string
	Context diag.Context
	Partial bool
	// Kinds of tokens that would have been accepted at the error position.
	Expected []lex.Kind
	// The token that could not be placed. Its kind has the reserved word kind
	// when the parser identified it as a misplaced reserved word.
	Found lex.Token
}

func (e *Error) asDiag() *diag.Error[ErrorTag] {
	return &diag.Error[ErrorTag]{Message: e.Message, Context: e.Context, Partial: e.Partial}
}

// Error returns a plain text representation of the error.
func (e *Error) Error() string { return e.asDiag().Error() }

// Range returns the range of the token that could not be placed.
func (e *Error) Range() diag.Ranging { return e.Context.Range() }

// Position returns the line and column where the error starts.
func (e *Error) Position() diag.Position { return e.asDiag().Position() }

// Show shows the error with the offending source highlighted.
func (e *Error) Show(indent string) string { return e.asDiag().Show(indent) }

// UnpackError returns the *Error that err wraps, or nil if there is none.
func UnpackError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// TokenSource is a restartable source of tokens. *lex.Lexer implements it.
//
// Cursor offsets must be byte offsets into the source being parsed, since the
// parser resumes after here-document bodies by offset.
type TokenSource interface {
	Next(c lex.Cursor) (lex.Token, lex.Cursor, error)
}

// Default value of Config.MaxDepth.
const defaultMaxDepth = 1000

type parser struct {
	src Source
	ts  TokenSource
	cfg Config

	// Lookahead tokens, and the cursor right after the last of them.
	buf []lex.Token
	cur lex.Cursor
	// Kind of the last token taken from the token source.
	lastLexed lex.Kind
	eof       lex.Token
	// End of the last consumed token.
	lastEnd int

	// Here-document redirections whose bodies start after the next newline.
	pending []*Redirect
	// Words that spell closing reserved words, per enclosing compound command.
	frames [][]lex.Token
	depth  int

	err error
}

// Raised with panic to unwind the parser once an error has been recorded.
type bailout struct{}

func newParser(src Source, ts TokenSource, cfg Config) *parser {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = defaultMaxDepth
	}
	return &parser{src: src, ts: ts, cfg: cfg, lastLexed: lex.Newline}
}

// Runs f, converting a bailout into the recorded error.
func (p *parser) run(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			err = p.err
		}
	}()
	f()
	if len(p.pending) > 0 {
		p.failHereDoc(p.pending[0])
	}
	return nil
}

// Token access.

func (p *parser) fill(n int) {
	for len(p.buf) < n {
		if p.lastLexed == lex.EOF {
			p.buf = append(p.buf, p.eof)
			continue
		}
		if p.lastLexed == lex.Newline && len(p.pending) > 0 {
			p.readHereDocs()
		}
		tok, next, err := p.ts.Next(p.cur)
		if err != nil {
			p.err = err
			panic(bailout{})
		}
		p.cur = next
		if tok.Kind.IsTrivia() {
			continue
		}
		p.buf = append(p.buf, tok)
		p.lastLexed = tok.Kind
		if tok.Kind == lex.EOF {
			p.eof = tok
		}
	}
}

func (p *parser) peek() lex.Token { return p.peekAt(0) }

func (p *parser) peekAt(i int) lex.Token {
	p.fill(i + 1)
	return p.buf[i]
}

func (p *parser) next() lex.Token {
	tok := p.peek()
	p.buf = p.buf[1:]
	p.lastEnd = tok.To
	return tok
}

// Returns the kind of the next token as seen in command position: a NAME
// spelling a reserved word has the kind of that reserved word.
func (p *parser) peekReserved() lex.Kind {
	tok := p.peek()
	if tok.Kind == lex.Name {
		if k, ok := lex.ReservedWord(tok.Lexeme); ok {
			return k
		}
	}
	return tok.Kind
}

// Reports whether the next token is the reserved word k in a keyword slot.
func (p *parser) peekKeyword(k lex.Kind) bool {
	return p.peekReserved() == k
}

// Reports whether the next token starts a redirection. An IO_NUMBER only does
// so when followed immediately by a redirection operator.
func (p *parser) peekRedirect() bool {
	tok := p.peek()
	if tok.Kind.IsRedirect() {
		return true
	}
	if tok.Kind == lex.IONumber {
		op := p.peekAt(1)
		return op.Kind.IsRedirect() && op.From == tok.To
	}
	return false
}

// Reports whether the next token can be taken as a plain word outside command
// position.
func (p *parser) peekWord() bool {
	switch p.peek().Kind {
	case lex.Word, lex.Name, lex.AssignmentWord, lex.Bang, lex.LBrace, lex.RBrace:
		return true
	case lex.IONumber:
		return !p.peekRedirect()
	}
	return false
}

// Skips a possibly empty sequence of newlines.
func (p *parser) linebreak() {
	for p.peek().Kind == lex.Newline {
		p.next()
	}
}

// Consumes the next token if it has kind k, or fails.
func (p *parser) expect(k lex.Kind) lex.Token {
	if p.peek().Kind != k {
		p.fail(p.peek(), k)
	}
	return p.next()
}

// Consumes the next token if it is the reserved word k, or fails.
func (p *parser) expectKeyword(k lex.Kind) lex.Token {
	if !p.peekKeyword(k) {
		p.fail(p.peek(), k)
	}
	return p.keyword()
}

// Consumes the next token as a reserved word. Words noted before it in the
// same compound command are forgotten.
func (p *parser) keyword() lex.Token {
	tok := p.next()
	tok.Kind, _ = lex.ReservedWord(tok.Lexeme)
	if n := len(p.frames); n > 0 {
		p.frames[n-1] = p.frames[n-1][:0]
	}
	return tok
}

func newWord(tok lex.Token) *Word {
	info := lex.InspectWord(tok.Lexeme)
	return &Word{node{tok.Ranging}, tok.Lexeme, info.Quoted, info.Expansion}
}

// Compound command bookkeeping.

func (p *parser) enter() {
	p.depth++
	if p.depth > p.cfg.MaxDepth {
		p.failf(p.peek(), false, nil, "nesting deeper than %d levels", p.cfg.MaxDepth)
	}
	p.frames = append(p.frames, nil)
}

func (p *parser) leave() {
	p.depth--
	p.frames = p.frames[:len(p.frames)-1]
}

// Records a word that was taken as an argument, in case it turns out to be a
// reserved word missing its separator.
func (p *parser) noteWord(tok lex.Token) {
	if len(p.frames) == 0 || tok.Kind != lex.Name && tok.Kind != lex.RBrace {
		return
	}
	if k, ok := lex.ReservedWord(tok.Lexeme); ok && closesCompound(k) {
		top := len(p.frames) - 1
		p.frames[top] = append(p.frames[top], tok)
	}
}

func closesCompound(k lex.Kind) bool {
	switch k {
	case lex.Then, lex.Else, lex.Elif, lex.Fi, lex.Do, lex.Done, lex.Esac, lex.RBrace:
		return true
	}
	return false
}

// Returns the earliest word in the innermost compound command that spells one
// of the expected reserved words.
func (p *parser) misplaced(expected []lex.Kind) (lex.Token, bool) {
	if len(p.frames) == 0 {
		return lex.Token{}, false
	}
	for _, tok := range p.frames[len(p.frames)-1] {
		k, _ := lex.ReservedWord(tok.Lexeme)
		for _, e := range expected {
			if k == e {
				tok.Kind = k
				return tok, true
			}
		}
	}
	return lex.Token{}, false
}

// Errors.

// Fails at found, which is not one of the expected kinds.
func (p *parser) fail(found lex.Token, expected ...lex.Kind) {
	if tok, ok := p.misplaced(expected); ok {
		p.failf(tok, false, []lex.Kind{lex.Semi, lex.Newline},
			"%s is not in command position, should be preceded by ';' or newline", tok.Kind)
	}
	p.failExpecting(found, describeKinds(expected), expected...)
}

// Fails at found, with the expectation described by what.
func (p *parser) failExpecting(found lex.Token, what string, expected ...lex.Kind) {
	p.failf(found, found.Kind == lex.EOF, expected, "unexpected %s, should be %s", describeToken(found), what)
}

func (p *parser) failf(found lex.Token, partial bool, expected []lex.Kind, format string, args ...any) {
	p.err = &Error{
		Message:  fmt.Sprintf(format, args...),
		Context:  *diag.NewContext(p.src.Name, p.src.Code, found),
		Partial:  partial,
		Expected: expected,
		Found:    found,
	}
	panic(bailout{})
}

func (p *parser) failHereDoc(r *Redirect) {
	p.err = &Error{
		Message:  fmt.Sprintf("here-document not terminated, should end with a line %q", lex.Unquote(r.Target.Value)),
		Context:  *diag.NewContext(p.src.Name, p.src.Code, r),
		Partial:  true,
		Expected: []lex.Kind{lex.Word},
		Found:    lex.Token{Kind: lex.EOF, Ranging: diag.PointRanging(len(p.src.Code))},
	}
	panic(bailout{})
}

func describeToken(tok lex.Token) string {
	switch tok.Kind {
	case lex.Word, lex.Name, lex.AssignmentWord, lex.IONumber:
		return fmt.Sprintf("%s %q", tok.Kind, tok.Lexeme)
	}
	return tok.Kind.String()
}

// Joins kinds like "a, b or c".
func describeKinds(kinds []lex.Kind) string {
	var sb strings.Builder
	for i, k := range kinds {
		switch {
		case i == 0:
		case i == len(kinds)-1:
			sb.WriteString(" or ")
		default:
			sb.WriteString(", ")
		}
		sb.WriteString(k.String())
	}
	return sb.String()
}

// Here-documents.

// Reads the bodies of all pending here-documents, which start at the current
// cursor, and moves the cursor past them.
func (p *parser) readHereDocs() {
	code := p.src.Code
	pos := p.cur.Offset
	for _, r := range p.pending {
		delim := lex.Unquote(r.Target.Value)
		strip := r.Op == RedirHereDocStrip
		var body strings.Builder
		begin := pos
		for {
			if pos >= len(code) {
				p.failHereDoc(r)
			}
			lineEnd, next := len(code), len(code)
			if i := strings.IndexByte(code[pos:], '\n'); i != -1 {
				lineEnd, next = pos+i, pos+i+1
			}
			line := code[pos:lineEnd]
			if strip {
				line = strings.TrimLeft(line, "\t")
			}
			pos = next
			if line == delim {
				r.HereDoc = &HereDoc{
					node:   node{diag.Ranging{From: begin, To: lineEnd}},
					Body:   body.String(),
					Quoted: r.Target.Quoted,
				}
				break
			}
			body.WriteString(line)
			if lineEnd < len(code) {
				body.WriteByte('\n')
			}
		}
	}
	p.pending = nil
	p.cur = lex.Cursor{Offset: pos}
}
