// Package parse implements the parser for POSIX shell scripts.
//
// The parser works on the token stream of [lex.Lexer], and builds a tree
// following the POSIX shell grammar. Left-recursive productions of the grammar
// are parsed as loops, and reserved words are recognized from NAME tokens only
// where the grammar allows them.
//
// The parser stops at the first error.
package parse

import (
	"github.com/elves/posixsh/pkg/diag"
	"github.com/elves/posixsh/pkg/lex"
)

// Source describes a piece of source code.
type Source struct {
	Name string
	Code string
}

// Config keeps configuration options when parsing.
type Config struct {
	// Maximum nesting of compound commands. If zero, a default of 1000 is used.
	MaxDepth int
}

// Parse parses the given source as a whole script.
func Parse(src Source, cfg Config) (*Program, error) {
	return ParseTokens(src, lex.New(src.Name, src.Code, lex.Config{}), cfg)
}

// ParseTokens is like Parse, but takes tokens from ts instead of lexing src.
// The source is still needed for here-document bodies and error messages.
func ParseTokens(src Source, ts TokenSource, cfg Config) (*Program, error) {
	p := newParser(src, ts, cfg)
	pn := &Program{}
	err := p.run(func() {
		pn.parse(p)
		pn.Ranging = diag.Ranging{From: 0, To: len(src.Code)}
	})
	if err != nil {
		return nil, err
	}
	return pn, nil
}

// ParseCommand parses the source as exactly one complete command, optionally
// surrounded by newlines.
func ParseCommand(src Source, cfg Config) (*CompleteCommand, error) {
	p := newParser(src, lex.New(src.Name, src.Code, lex.Config{}), cfg)
	var cn *CompleteCommand
	err := p.run(func() {
		p.linebreak()
		cn = parse(p, &CompleteCommand{})
		p.linebreak()
		if p.peek().Kind != lex.EOF {
			p.fail(p.peek(), lex.Newline, lex.EOF)
		}
	})
	if err != nil {
		return nil, err
	}
	return cn, nil
}

// Node represents a node in the command tree.
type Node interface {
	diag.Ranger
	n() *node
	parse(*parser)
}

type node struct{ diag.Ranging }

func (n *node) n() *node { return n }

// Parses n, setting its range to cover all the tokens it consumed.
func parse[N Node](p *parser, n N) N {
	begin := p.peek().From
	n.parse(p)
	n.n().Ranging = diag.Ranging{From: begin, To: p.lastEnd}
	return n
}

// Program = linebreak [ CompleteCommand { newline_list CompleteCommand } linebreak ]
type Program struct {
	node
	Commands []*CompleteCommand
}

func (pn *Program) parse(p *parser) {
	p.linebreak()
	for p.peek().Kind != lex.EOF {
		pn.Commands = append(pn.Commands, parse(p, &CompleteCommand{}))
		if k := p.peek().Kind; k != lex.Newline && k != lex.EOF {
			p.fail(p.peek(), lex.Newline, lex.EOF)
		}
		p.linebreak()
	}
}

// CompleteCommand = AndOrList { separator_op AndOrList } [ separator_op ]
type CompleteCommand struct {
	node
	Items []*AndOrList
}

func (cn *CompleteCommand) parse(p *parser) {
	for {
		an := parse(p, &AndOrList{})
		cn.Items = append(cn.Items, an)
		if !p.separatorOp(an) || !p.startsCommand() {
			return
		}
	}
}

// Separator is the separator that ends an and-or list.
type Separator int

// Possible values of Separator.
const (
	// Newline, end of input, or a closing reserved word.
	SepNone Separator = iota
	// ";"
	SepSequential
	// "&"
	SepBackground
)

var separatorNames = [...]string{"none", "sequential", "background"}

func (s Separator) String() string { return separatorNames[s] }

// Consumes a ";" or "&" after an and-or list and records it.
func (p *parser) separatorOp(an *AndOrList) bool {
	switch p.peek().Kind {
	case lex.Semi:
		an.Sep = SepSequential
	case lex.Amp:
		an.Sep = SepBackground
	default:
		return false
	}
	p.next()
	return true
}

// Reports whether the next token, in command position, can start a command.
func (p *parser) startsCommand() bool {
	switch p.peekReserved() {
	case lex.Word, lex.Name, lex.AssignmentWord, lex.IONumber,
		lex.LParen, lex.LBrace, lex.Bang,
		lex.If, lex.For, lex.Case, lex.While, lex.Until:
		return true
	}
	return p.peek().Kind.IsRedirect()
}

// AndOrList = Pipeline { ( "&&" | "||" ) linebreak Pipeline }
//
// The operators have equal precedence and associate to the left, so the list
// is kept flat: a && b || c is (a && b) || c.
type AndOrList struct {
	node
	Head *Pipeline
	Tail []*AndOrLink
	// The separator that follows the list.
	Sep Separator
}

// AndOrLink is a pipeline in an AndOrList, with the operator before it.
type AndOrLink struct {
	node
	Op       AndOrOp
	Pipeline *Pipeline
}

// AndOrOp is the operator of an AndOrLink.
type AndOrOp int

// Possible values of AndOrOp.
const (
	OpAnd AndOrOp = iota + 1 // &&
	OpOr                     // ||
)

func (op AndOrOp) String() string {
	if op == OpAnd {
		return "&&"
	}
	return "||"
}

func (an *AndOrList) parse(p *parser) {
	an.Head = parse(p, &Pipeline{})
	for {
		switch p.peek().Kind {
		case lex.AndIf, lex.OrIf:
			an.Tail = append(an.Tail, parse(p, &AndOrLink{}))
		default:
			return
		}
	}
}

func (ln *AndOrLink) parse(p *parser) {
	ln.Op = OpAnd
	if p.next().Kind == lex.OrIf {
		ln.Op = OpOr
	}
	p.linebreak()
	ln.Pipeline = parse(p, &Pipeline{})
}

// Pipeline = [ "!" ] Command { "|" linebreak Command }
type Pipeline struct {
	node
	Negated  bool
	Commands []Command
}

func (pn *Pipeline) parse(p *parser) {
	if p.peekReserved() == lex.Bang {
		p.next()
		pn.Negated = true
	}
	pn.Commands = append(pn.Commands, p.command())
	for p.peek().Kind == lex.Pipe {
		p.next()
		p.linebreak()
		pn.Commands = append(pn.Commands, p.command())
	}
}

// Command is a command in a pipeline. It is implemented by *SimpleCommand,
// *CompoundCommand and *FunctionDefinition.
type Command interface {
	Node
	isCommand()
}

func (*SimpleCommand) isCommand()      {}
func (*CompoundCommand) isCommand()    {}
func (*FunctionDefinition) isCommand() {}

// Kinds that can start a command, used in error messages.
var commandStarts = []lex.Kind{
	lex.Word, lex.Name, lex.AssignmentWord, lex.IONumber, lex.LParen, lex.LBrace,
	lex.If, lex.For, lex.Case, lex.While, lex.Until,
	lex.Less, lex.Great, lex.DGreat, lex.LessAnd, lex.GreatAnd, lex.LessGreat,
	lex.DLess, lex.DLessDash, lex.Clobber,
}

// Parses a command. The first token decides which kind of command it is.
func (p *parser) command() Command {
	switch p.peekReserved() {
	case lex.LParen, lex.LBrace, lex.If, lex.For, lex.Case, lex.While, lex.Until:
		return parse(p, &CompoundCommand{})
	case lex.Name:
		if p.peekAt(1).Kind == lex.LParen {
			return parse(p, &FunctionDefinition{})
		}
	}
	if p.peek().Kind == lex.Bang || !p.startsCommand() {
		p.failExpecting(p.peek(), "command", commandStarts...)
	}
	return parse(p, &SimpleCommand{})
}
