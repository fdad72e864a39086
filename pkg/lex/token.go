package lex

import (
	"fmt"

	"github.com/elves/posixsh/pkg/diag"
)

// Kind is the kind of a token. The set of kinds follows the token names of
// the POSIX shell grammar.
type Kind int

// Possible values of Kind.
const (
	// EOF marks the end of input. The lexer returns it for every call once the
	// input is exhausted.
	EOF Kind = iota

	// Lexical classes.
	Word
	AssignmentWord
	Name
	Newline
	IONumber
	Whitespace
	Comment

	// Multi-character operators.
	AndIf     // &&
	OrIf      // ||
	DSemi     // ;;
	DLess     // <<
	DGreat    // >>
	LessAnd   // <&
	GreatAnd  // >&
	LessGreat // <>
	DLessDash // <<-
	Clobber   // >|

	// Single-character operators.
	Amp    // &
	Semi   // ;
	Less   // <
	Great  // >
	LParen // (
	RParen // )
	Pipe   // |

	// Reserved words. The lexer emits Bang, LBrace and RBrace as operators, but
	// never the alphabetic ones; those are recognized by the parser from Name
	// tokens.
	If
	Then
	Else
	Elif
	Fi
	Do
	Done
	Case
	Esac
	While
	Until
	For
	In
	Bang   // !
	LBrace // {
	RBrace // }

	numKinds
)

var kindNames = [...]string{
	EOF:            "end of input",
	Word:           "WORD",
	AssignmentWord: "ASSIGNMENT_WORD",
	Name:           "NAME",
	Newline:        "NEWLINE",
	IONumber:       "IO_NUMBER",
	Whitespace:     "WHITESPACE",
	Comment:        "COMMENT",
}

// Text of operators and reserved words, indexed by kind.
var kindText = [...]string{
	AndIf: "&&", OrIf: "||", DSemi: ";;", DLess: "<<", DGreat: ">>",
	LessAnd: "<&", GreatAnd: ">&", LessGreat: "<>", DLessDash: "<<-", Clobber: ">|",

	Amp: "&", Semi: ";", Less: "<", Great: ">", LParen: "(", RParen: ")", Pipe: "|",

	If: "if", Then: "then", Else: "else", Elif: "elif", Fi: "fi", Do: "do",
	Done: "done", Case: "case", Esac: "esac", While: "while", Until: "until",
	For: "for", In: "in", Bang: "!", LBrace: "{", RBrace: "}",
}

var reservedWords = map[string]Kind{}

func init() {
	for k := If; k < numKinds; k++ {
		reservedWords[kindText[k]] = k
	}
}

// String returns a human-readable name of the kind, suitable for error
// messages. Operators and reserved words are shown quoted, like "'&&'" or
// "'then'"; lexical classes are shown by their grammar names, like "WORD".
func (k Kind) String() string {
	switch {
	case k < 0 || k >= numKinds:
		return fmt.Sprintf("Kind(%d)", int(k))
	case k < AndIf:
		return kindNames[k]
	default:
		return "'" + kindText[k] + "'"
	}
}

// Text returns the source text of an operator or reserved word kind, or "" for
// other kinds.
func (k Kind) Text() string {
	if k < AndIf || k >= numKinds {
		return ""
	}
	return kindText[k]
}

// IsOperator reports whether k is an operator kind.
func (k Kind) IsOperator() bool { return AndIf <= k && k <= Pipe }

// IsReservedWord reports whether k is a reserved word kind.
func (k Kind) IsReservedWord() bool { return If <= k && k < numKinds }

// IsRedirect reports whether k is an operator that introduces a redirection.
func (k Kind) IsRedirect() bool {
	switch k {
	case Less, Great, DGreat, LessAnd, GreatAnd, LessGreat, DLess, DLessDash, Clobber:
		return true
	}
	return false
}

// IsTrivia reports whether k is a kind that carries no grammatical meaning.
func (k Kind) IsTrivia() bool { return k == Whitespace || k == Comment }

// ReservedWord returns the kind of the reserved word spelled s. The second
// return value is false if s is not a reserved word.
func ReservedWord(s string) (Kind, bool) {
	k, ok := reservedWords[s]
	return k, ok
}

// Token is a lexical token. Lexeme is always the exact source text covered by
// the embedded range.
type Token struct {
	Kind   Kind
	Lexeme string
	diag.Ranging
}

func (t Token) String() string {
	switch {
	case t.Kind == EOF:
		return t.Kind.String()
	case t.Kind.IsOperator() || t.Kind.IsReservedWord():
		return t.Kind.String()
	default:
		return fmt.Sprintf("%s %q", t.Kind, t.Lexeme)
	}
}
