package lex

import (
	"strings"
	"unicode/utf8"
)

// Multi-character operators come first, and longer ones before their
// prefixes, so that the first match is the longest.
var operators = []struct {
	text string
	kind Kind
}{
	{"<<-", DLessDash},
	{"&&", AndIf}, {"||", OrIf}, {";;", DSemi}, {"<<", DLess}, {">>", DGreat},
	{"<&", LessAnd}, {">&", GreatAnd}, {"<>", LessGreat}, {">|", Clobber},
	{"&", Amp}, {";", Semi}, {"<", Less}, {">", Great}, {"(", LParen},
	{")", RParen}, {"{", LBrace}, {"}", RBrace}, {"|", Pipe}, {"!", Bang},
}

func operator(s string) (Kind, int) {
	for _, op := range operators {
		if strings.HasPrefix(s, op.text) {
			return op.kind, len(op.text)
		}
	}
	return 0, 0
}

// IsMeta reports whether b is a metacharacter, which ends an unquoted word.
func IsMeta(b byte) bool {
	switch b {
	case '|', '&', ';', '<', '>', '(', ')':
		return true
	}
	return false
}

// IsBlank reports whether b is a blank, which separates tokens on a line.
func IsBlank(b byte) bool { return b == ' ' || b == '\t' }

func trivia(s string) int {
	if n := blanks(s); n > 0 {
		return n
	}
	return comment(s)
}

// Returns the length of the run of blanks and line continuations at the start
// of s.
func blanks(s string) int {
	i := 0
	for i < len(s) {
		if IsBlank(s[i]) {
			i++
		} else if strings.HasPrefix(s[i:], "\\\n") {
			i += 2
		} else {
			break
		}
	}
	return i
}

// Returns the length of the comment at the start of s, not including the
// terminating newline.
func comment(s string) int {
	if !strings.HasPrefix(s, "#") {
		return 0
	}
	if i := strings.IndexByte(s, '\n'); i != -1 {
		return i
	}
	return len(s)
}

func ioNumber(s string) int {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '<' || s[i] == '>') {
		return i
	}
	return 0
}

// Returns the length of the first quoted string at the start of s, including
// the delimiters. Unterminated strings are reported by scanWord.
func quoted(s string) int {
	if s == "" {
		return 0
	}
	switch s[0] {
	case '\'':
		if i := strings.IndexByte(s[1:], '\''); i != -1 {
			return i + 2
		}
	case '"':
		for i := 1; i < len(s); i++ {
			switch s[i] {
			case '\\':
				i++
			case '"':
				return i + 1
			}
		}
	}
	return 0
}

// Returns wordLen if the word of that length at the start of s is an
// assignment, and 0 otherwise.
func assignment(s string, wordLen int) int {
	n := name(s)
	if n > 0 && n < wordLen && s[n] == '=' {
		return wordLen
	}
	return 0
}

func name(s string) int {
	if s == "" || !isNameStart(s[0]) {
		return 0
	}
	i := 1
	for i < len(s) && isNameChar(s[i]) {
		i++
	}
	return i
}

// IsName reports whether s is a valid name: a letter or underscore followed by
// letters, digits and underscores.
func IsName(s string) bool { return s != "" && name(s) == len(s) }

func isNameStart(b byte) bool {
	return b == '_' || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

func isNameChar(b byte) bool { return isNameStart(b) || isDigit(b) }

func isDigit(b byte) bool { return '0' <= b && b <= '9' }

// Returns the length of the word starting at offset i, which is 0 if the byte
// at i cannot start a word.
func (lx *Lexer) scanWord(i int) (int, error) {
	j := i
	for j < len(lx.src) {
		b := lx.src[j]
		if IsBlank(b) || b == '\n' || IsMeta(b) {
			break
		}
		var err error
		switch b {
		case '\\':
			j = lx.skipEscape(j)
		case '\'':
			j, err = lx.scanSingleQuoted(j)
		case '"':
			j, err = lx.scanDoubleQuoted(j)
		case '`':
			j, err = lx.scanBackquoted(j)
		case '$':
			j, err = lx.scanDollar(j)
		default:
			j, err = lx.skipRune(j)
		}
		if err != nil {
			return 0, err
		}
	}
	return j - i, nil
}

// Skips a backslash and the character it escapes. A backslash at the end of
// input is taken literally.
func (lx *Lexer) skipEscape(j int) int {
	if j+1 >= len(lx.src) {
		return j + 1
	}
	_, size := utf8.DecodeRuneInString(lx.src[j+1:])
	return j + 1 + size
}

func (lx *Lexer) skipRune(j int) (int, error) {
	r, size := utf8.DecodeRuneInString(lx.src[j:])
	if r == utf8.RuneError && size == 1 {
		return 0, lx.errorf(j, j+1, false, "invalid UTF-8 byte 0x%02x", lx.src[j])
	}
	return j + size, nil
}

func (lx *Lexer) scanSingleQuoted(j int) (int, error) {
	end := strings.IndexByte(lx.src[j+1:], '\'')
	if end == -1 {
		return 0, lx.errorf(j, len(lx.src), true, "unterminated single-quoted string")
	}
	return j + 1 + end + 1, nil
}

// Inside double quotes, a backslash only escapes the next character, and "$"
// and "`" still introduce expansions.
func (lx *Lexer) scanDoubleQuoted(j int) (int, error) {
	k := j + 1
	for k < len(lx.src) {
		var err error
		switch lx.src[k] {
		case '"':
			return k + 1, nil
		case '\\':
			k = lx.skipEscape(k)
		case '$':
			k, err = lx.scanDollar(k)
		case '`':
			k, err = lx.scanBackquoted(k)
		default:
			k++
		}
		if err != nil {
			return 0, err
		}
	}
	return 0, lx.errorf(j, len(lx.src), true, "unterminated double-quoted string")
}

func (lx *Lexer) scanBackquoted(j int) (int, error) {
	for k := j + 1; k < len(lx.src); k++ {
		switch lx.src[k] {
		case '\\':
			k++
		case '`':
			return k + 1, nil
		}
	}
	return 0, lx.errorf(j, len(lx.src), true, "unterminated backquoted command substitution")
}

func (lx *Lexer) scanDollar(j int) (int, error) {
	rest := lx.src[j:]
	switch {
	case strings.HasPrefix(rest, "$(("):
		return lx.scanNested(j, 3, "$((", "))")
	case strings.HasPrefix(rest, "$("):
		return lx.scanCommandSubst(j)
	case strings.HasPrefix(rest, "${"):
		return lx.scanNested(j, 2, "${", "}")
	}
	// A lone "$" or a "$name"; the name is consumed as ordinary word
	// characters.
	return j + 1, nil
}

// How far a case command inside a command substitution has been scanned.
type caseState int

const (
	caseSubject caseState = iota
	caseIn
	casePattern
	caseBody
)

// Scans the command substitution "$(...)" starting at j. The body is lexed
// with the same rules as top-level code, and case commands are tracked, so that
// the ")" ending a case pattern does not end the substitution.
func (lx *Lexer) scanCommandSubst(j int) (int, error) {
	inner := *lx
	inner.cfg.KeepTrivia = false
	depth := 0
	var cases []caseState
	cmdStart := true
	c := Cursor{j + 2}
	for {
		tok, next, err := inner.Next(c)
		if err != nil {
			return 0, err
		}
		c = next
		if tok.Kind == EOF {
			return 0, lx.errorf(j, len(lx.src), true, "unterminated %q", "$(")
		}
		if n := len(cases); n > 0 {
			switch cases[n-1] {
			case caseSubject:
				cases[n-1] = caseIn
				continue
			case caseIn:
				if tok.Kind == Newline {
					continue
				}
				if tok.Kind == Name && tok.Lexeme == "in" {
					cases[n-1] = casePattern
					continue
				}
				cases = cases[:n-1]
			case casePattern:
				switch {
				case tok.Kind == Name && tok.Lexeme == "esac":
					cases = cases[:n-1]
					cmdStart = false
				case tok.Kind == RParen:
					cases[n-1] = caseBody
					cmdStart = true
				}
				continue
			case caseBody:
				if tok.Kind == DSemi {
					cases[n-1] = casePattern
					continue
				}
				if cmdStart && tok.Kind == Name && tok.Lexeme == "esac" {
					cases = cases[:n-1]
					cmdStart = false
					continue
				}
			}
		}
		switch tok.Kind {
		case Name:
			k, ok := ReservedWord(tok.Lexeme)
			if cmdStart && k == Case {
				cases = append(cases, caseSubject)
				cmdStart = false
			} else {
				cmdStart = ok && cmdStart
			}
		case LParen:
			depth++
			cmdStart = true
		case RParen:
			if depth == 0 {
				return c.Offset, nil
			}
			depth--
			cmdStart = true
		case Word, AssignmentWord, IONumber:
			cmdStart = false
		default:
			cmdStart = true
		}
	}
}

// Scans an arithmetic or parameter expansion whose opening delimiter of length
// skip starts at j. Nested parentheses or braces, quoted strings and nested
// expansions are balanced.
func (lx *Lexer) scanNested(j, skip int, open, close string) (int, error) {
	openByte, closeByte := open[len(open)-1], close[0]
	depth := 0
	k := j + skip
	for k < len(lx.src) {
		if depth == 0 && strings.HasPrefix(lx.src[k:], close) {
			return k + len(close), nil
		}
		var err error
		switch b := lx.src[k]; b {
		case '\\':
			k = lx.skipEscape(k)
		case '\'':
			// Single quotes are not special inside "${...}" within double
			// quotes, but treating them as quotes is good enough for finding
			// the end.
			k, err = lx.scanSingleQuoted(k)
		case '"':
			k, err = lx.scanDoubleQuoted(k)
		case '`':
			k, err = lx.scanBackquoted(k)
		case '$':
			if k+1 < len(lx.src) && (lx.src[k+1] == '(' || lx.src[k+1] == '{') {
				k, err = lx.scanDollar(k)
			} else {
				k++
			}
		default:
			switch b {
			case openByte:
				depth++
			case closeByte:
				depth--
			}
			k++
		}
		if err != nil {
			return 0, err
		}
	}
	return 0, lx.errorf(j, len(lx.src), true, "unterminated %q", open)
}
