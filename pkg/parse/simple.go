package parse

import (
	"strings"

	"github.com/elves/posixsh/pkg/lex"
)

// SimpleCommand = { Assignment | Redirect } [ Word { Word | Redirect } ]
//
// At least one of Prefix and Name is present.
type SimpleCommand struct {
	node
	Prefix []PrefixItem
	// Nil when the command only consists of assignments and redirections.
	Name   *Word
	Suffix []SuffixItem
}

// PrefixItem is an item before the command name. It is implemented by
// *Assignment and *Redirect.
type PrefixItem interface {
	Node
	isPrefixItem()
}

// SuffixItem is an item after the command name. It is implemented by *Word and
// *Redirect.
type SuffixItem interface {
	Node
	isSuffixItem()
}

func (*Assignment) isPrefixItem() {}
func (*Redirect) isPrefixItem()   {}
func (*Word) isSuffixItem()       {}
func (*Redirect) isSuffixItem()   {}

func (sn *SimpleCommand) parse(p *parser) {
prefix:
	for {
		switch {
		case p.peek().Kind == lex.AssignmentWord:
			sn.Prefix = append(sn.Prefix, parse(p, &Assignment{}))
		case p.peekRedirect():
			sn.Prefix = append(sn.Prefix, parse(p, &Redirect{}))
		default:
			break prefix
		}
	}
	if !p.peekWord() {
		if len(sn.Prefix) == 0 {
			p.failExpecting(p.peek(), "command", commandStarts...)
		}
		return
	}
	sn.Name = newWord(p.next())
	for {
		switch {
		case p.peekRedirect():
			sn.Suffix = append(sn.Suffix, parse(p, &Redirect{}))
		case p.peekWord():
			tok := p.next()
			p.noteWord(tok)
			sn.Suffix = append(sn.Suffix, newWord(tok))
		default:
			return
		}
	}
}

// Assignment = ASSIGNMENT_WORD
type Assignment struct {
	node
	Name string
	// The part after "=", possibly empty. Its range is empty when the value is
	// empty.
	Value *Word
}

func (an *Assignment) parse(p *parser) {
	tok := p.expect(lex.AssignmentWord)
	i := strings.IndexByte(tok.Lexeme, '=')
	an.Name = tok.Lexeme[:i]
	value := tok
	value.Lexeme = tok.Lexeme[i+1:]
	value.From += i + 1
	an.Value = newWord(value)
}

// RedirOp is the operator of a redirection.
type RedirOp int

// Possible values of RedirOp.
const (
	RedirIn           RedirOp = iota + 1 // <
	RedirOut                             // >
	RedirAppend                          // >>
	RedirDupIn                           // <&
	RedirDupOut                          // >&
	RedirReadWrite                       // <>
	RedirHereDoc                         // <<
	RedirHereDocStrip                    // <<-
	RedirClobber                         // >|
)

var redirOps = map[lex.Kind]RedirOp{
	lex.Less: RedirIn, lex.Great: RedirOut, lex.DGreat: RedirAppend,
	lex.LessAnd: RedirDupIn, lex.GreatAnd: RedirDupOut, lex.LessGreat: RedirReadWrite,
	lex.DLess: RedirHereDoc, lex.DLessDash: RedirHereDocStrip, lex.Clobber: RedirClobber,
}

var redirOpText = [...]string{"", "<", ">", ">>", "<&", ">&", "<>", "<<", "<<-", ">|"}

func (op RedirOp) String() string { return redirOpText[op] }

// IsHereDoc reports whether op introduces a here-document.
func (op RedirOp) IsHereDoc() bool { return op == RedirHereDoc || op == RedirHereDocStrip }

// Redirect = [ IO_NUMBER ] redirection-operator WORD
type Redirect struct {
	node
	// Empty when absent.
	IONumber string
	Op       RedirOp
	// The filename, file descriptor, or here-document delimiter.
	Target *Word
	// Only set for here-documents.
	HereDoc *HereDoc
}

func (rn *Redirect) parse(p *parser) {
	if p.peek().Kind == lex.IONumber {
		rn.IONumber = p.next().Lexeme
	}
	rn.Op = redirOps[p.next().Kind]
	switch p.peek().Kind {
	case lex.Word, lex.Name, lex.AssignmentWord, lex.IONumber, lex.Bang, lex.LBrace, lex.RBrace:
		rn.Target = newWord(p.next())
	default:
		what := "filename"
		if rn.Op.IsHereDoc() {
			what = "here-document delimiter"
		}
		p.failExpecting(p.peek(), what, lex.Word)
	}
	if rn.Op.IsHereDoc() {
		p.pending = append(p.pending, rn)
	}
}

// HereDoc is the body of a here-document. It is filled in once the parser
// reaches the newline after the redirection.
type HereDoc struct {
	node
	// Body text, including the newline of each line. Leading tabs are already
	// removed for "<<-".
	Body string
	// Whether the delimiter was quoted, in which case the body is not subject
	// to expansion.
	Quoted bool
}

// HereDoc nodes are not produced by the generic parse function.
func (hn *HereDoc) parse(*parser) {}

// Word is a word, kept as its source text.
type Word struct {
	node
	Value string
	// Whether the word contains quoting or escaping.
	Quoted bool
	// Whether the word contains an expansion.
	Expansion bool
}

func (wn *Word) parse(p *parser) {
	if !p.peekWord() {
		p.fail(p.peek(), lex.Word)
	}
	*wn = *newWord(p.next())
}
