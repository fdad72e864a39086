// Package lex implements the lexer of POSIX shell scripts.
//
// The lexer splits source text into tokens using maximal munch: at each
// position, every token class is tried and the longest match wins, with ties
// going to the class listed earlier:
//
//  1. Blanks, line continuations and comments
//  2. Multi-character operators
//  3. Single-character operators, including "!", "{" and "}"
//  4. IO_NUMBER: digits immediately followed by "<" or ">"
//  5. A quoted string
//  6. ASSIGNMENT_WORD: a name followed by "=" and the rest of a word
//  7. NAME
//  8. WORD: anything else up to the next blank or metacharacter
//
// A newline is always a token of its own. Reserved words are never produced
// from alphabetic text; the lexer emits them as NAME tokens and leaves it to
// the parser to decide whether they are in a position where they are
// reserved.
//
// Quoted strings, backslash escapes and expansions ("$name", "${...}",
// "$(...)", "$((...))" and "`...`") are part of the word they appear in; their
// content is not otherwise interpreted.
package lex

import (
	"fmt"

	"github.com/elves/posixsh/pkg/diag"
)

// Error is a lex error.
type Error = diag.Error[ErrorTag]

// ErrorTag parameterizes [diag.Error] to define [Error].
type ErrorTag struct{}

func (ErrorTag) ErrorTag() string { return "lex error" }

// UnpackError returns the lex error that err wraps, or nil if there is none.
func UnpackError(err error) *Error { return diag.Unpack[ErrorTag](err) }

// Config keeps configuration options of a Lexer.
type Config struct {
	// If true, Whitespace and Comment tokens are emitted. Otherwise they are
	// skipped.
	KeepTrivia bool
}

// Cursor is a position of a Lexer. Cursors are cheap values and can be kept
// to restart lexing from an earlier point.
type Cursor struct {
	Offset int
}

// Lexer produces tokens from a source. It has no mutable state; all the state
// of lexing is kept in Cursor values, so a Lexer can be shared and any Cursor
// it returned can be passed to Next again.
type Lexer struct {
	name string
	src  string
	cfg  Config
}

// New creates a Lexer for the source code src. The name is only used in
// errors.
func New(name, src string, cfg Config) *Lexer {
	return &Lexer{name, src, cfg}
}

// Source returns the source code being lexed.
func (lx *Lexer) Source() string { return lx.src }

// Start returns the Cursor pointing to the start of the source.
func (lx *Lexer) Start() Cursor { return Cursor{0} }

// Next returns the token at c and the Cursor following it. At the end of the
// source it returns an EOF token and a Cursor at the end of the source, so
// further calls keep returning EOF. On error, the returned Cursor is c.
func (lx *Lexer) Next(c Cursor) (Token, Cursor, error) {
	i := c.Offset
	if !lx.cfg.KeepTrivia {
		for {
			n := trivia(lx.src[i:])
			if n == 0 {
				break
			}
			i += n
		}
	} else if n := blanks(lx.src[i:]); n > 0 {
		return lx.token(Whitespace, i, i+n)
	} else if n := comment(lx.src[i:]); n > 0 {
		return lx.token(Comment, i, i+n)
	}

	if i >= len(lx.src) {
		return Token{EOF, "", diag.PointRanging(len(lx.src))}, Cursor{len(lx.src)}, nil
	}
	if lx.src[i] == '\n' {
		return lx.token(Newline, i, i+1)
	}

	kind, n, err := lx.longest(i)
	if err != nil {
		return Token{}, c, err
	}
	if n == 0 {
		// Cannot happen: every byte starts either an operator or a word.
		return Token{}, c, lx.errorf(i, i+1, false, "unrecognized character")
	}
	return lx.token(kind, i, i+n)
}

func (lx *Lexer) token(k Kind, from, to int) (Token, Cursor, error) {
	return Token{k, lx.src[from:to], diag.Ranging{From: from, To: to}}, Cursor{to}, nil
}

type candidate struct {
	kind Kind
	n    int
}

// Finds the longest match at offset i, preferring earlier classes on ties.
func (lx *Lexer) longest(i int) (Kind, int, error) {
	rest := lx.src[i:]
	wordLen, err := lx.scanWord(i)
	if err != nil {
		return 0, 0, err
	}
	opKind, opLen := operator(rest)
	candidates := [...]candidate{
		{opKind, opLen},
		{IONumber, ioNumber(rest)},
		{Word, quoted(rest)},
		{AssignmentWord, assignment(rest, wordLen)},
		{Name, name(rest)},
		{Word, wordLen},
	}
	best := candidate{}
	for _, c := range candidates {
		if c.n > best.n {
			best = c
		}
	}
	return best.kind, best.n, nil
}

func (lx *Lexer) errorf(from, to int, partial bool, format string, args ...any) error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Context: *diag.NewContext(lx.name, lx.src, diag.Ranging{From: from, To: to}),
		Partial: partial,
	}
}

// Tokenize returns all the tokens of src, excluding the final EOF token. If an
// error occurs, the tokens found before the error are returned along with it.
func Tokenize(name, src string, cfg Config) ([]Token, error) {
	var tokens []Token
	sc := New(name, src, cfg).Scanner()
	for sc.Scan() {
		tokens = append(tokens, sc.Token())
	}
	return tokens, sc.Err()
}

// Scanner provides a convenient interface for reading successive tokens, in
// the style of bufio.Scanner.
type Scanner struct {
	lx  *Lexer
	cur Cursor
	tok Token
	err error
}

// Scanner returns a Scanner starting at the beginning of the source.
func (lx *Lexer) Scanner() *Scanner {
	return &Scanner{lx: lx}
}

// Scan advances to the next token, which is then available through Token. It
// returns false at the end of input or on error.
func (sc *Scanner) Scan() bool {
	if sc.err != nil {
		return false
	}
	tok, next, err := sc.lx.Next(sc.cur)
	if err != nil {
		sc.err = err
		return false
	}
	sc.tok, sc.cur = tok, next
	return tok.Kind != EOF
}

// Token returns the most recent token found by Scan.
func (sc *Scanner) Token() Token { return sc.tok }

// Cursor returns the Cursor after the most recent token.
func (sc *Scanner) Cursor() Cursor { return sc.cur }

// Err returns the error that stopped scanning, or nil if the scanner reached
// the end of input.
func (sc *Scanner) Err() error { return sc.err }
