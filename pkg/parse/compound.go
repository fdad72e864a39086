package parse

import "github.com/elves/posixsh/pkg/lex"

// CompoundCommand = Clause { Redirect }
type CompoundCommand struct {
	node
	Clause    Clause
	Redirects []*Redirect
}

// Clause is the body of a compound command. It is implemented by
// *BraceGroup, *Subshell, *ForClause, *CaseClause, *IfClause, *WhileClause and
// *UntilClause.
type Clause interface {
	Node
	isClause()
}

func (*BraceGroup) isClause()  {}
func (*Subshell) isClause()    {}
func (*ForClause) isClause()   {}
func (*CaseClause) isClause()  {}
func (*IfClause) isClause()    {}
func (*WhileClause) isClause() {}
func (*UntilClause) isClause() {}

func (cn *CompoundCommand) parse(p *parser) {
	p.enter()
	switch p.peekReserved() {
	case lex.LBrace:
		cn.Clause = parse(p, &BraceGroup{})
	case lex.LParen:
		cn.Clause = parse(p, &Subshell{})
	case lex.For:
		cn.Clause = parse(p, &ForClause{})
	case lex.Case:
		cn.Clause = parse(p, &CaseClause{})
	case lex.If:
		cn.Clause = parse(p, &IfClause{})
	case lex.While:
		cn.Clause = parse(p, &WhileClause{})
	case lex.Until:
		cn.Clause = parse(p, &UntilClause{})
	default:
		p.fail(p.peek(), lex.LBrace, lex.LParen, lex.For, lex.Case, lex.If, lex.While, lex.Until)
	}
	p.leave()
	for p.peekRedirect() {
		cn.Redirects = append(cn.Redirects, parse(p, &Redirect{}))
	}
}

// CompoundList = linebreak AndOrList { separator AndOrList } [ separator ]
//
// A separator is ";" or "&" followed by a linebreak, or a newline_list.
type CompoundList struct {
	node
	Items []*AndOrList
}

// Parses a CompoundList after skipping leading newlines. The range of the list
// does not include trailing separators.
func (p *parser) compoundList() *CompoundList {
	p.linebreak()
	ln := parse(p, &CompoundList{})
	ln.To = ln.Items[len(ln.Items)-1].To
	return ln
}

func (ln *CompoundList) parse(p *parser) {
	for p.startsCommand() {
		an := parse(p, &AndOrList{})
		ln.Items = append(ln.Items, an)
		if p.separatorOp(an) {
			p.linebreak()
		} else if p.peek().Kind == lex.Newline {
			p.linebreak()
		} else {
			break
		}
	}
	if len(ln.Items) == 0 {
		p.failExpecting(p.peek(), "command", commandStarts...)
	}
}

// BraceGroup = "{" CompoundList "}"
type BraceGroup struct {
	node
	Body *CompoundList
}

func (bn *BraceGroup) parse(p *parser) {
	p.expectKeyword(lex.LBrace)
	bn.Body = p.compoundList()
	p.expectKeyword(lex.RBrace)
}

// Subshell = "(" CompoundList ")"
type Subshell struct {
	node
	Body *CompoundList
}

func (sn *Subshell) parse(p *parser) {
	p.expect(lex.LParen)
	sn.Body = p.compoundList()
	p.expect(lex.RParen)
}

// ForClause = "for" NAME ( linebreak | ";" linebreak | linebreak "in" { WORD } sequential_sep ) DoGroup
//
// sequential_sep = ";" linebreak | newline_list
type ForClause struct {
	node
	Var *Word
	// Whether "in" is present. When it is absent the loop iterates over the
	// positional parameters.
	HasIn bool
	// Nil or non-empty.
	Words []*Word
	Body  *CompoundList
}

func (fn *ForClause) parse(p *parser) {
	p.expectKeyword(lex.For)
	fn.Var = newWord(p.expect(lex.Name))
	if p.peek().Kind == lex.Semi {
		p.next()
		p.linebreak()
	} else {
		p.linebreak()
		if p.peekKeyword(lex.In) {
			p.keyword()
			fn.HasIn = true
			for p.peekWord() {
				tok := p.next()
				p.noteWord(tok)
				fn.Words = append(fn.Words, newWord(tok))
			}
			p.sequentialSep()
		}
	}
	fn.Body = p.doGroup()
}

func (p *parser) sequentialSep() {
	switch p.peek().Kind {
	case lex.Semi:
		p.next()
		p.linebreak()
	case lex.Newline:
		p.linebreak()
	default:
		p.fail(p.peek(), lex.Semi, lex.Newline)
	}
}

// DoGroup = "do" CompoundList "done"
func (p *parser) doGroup() *CompoundList {
	p.expectKeyword(lex.Do)
	body := p.compoundList()
	p.expectKeyword(lex.Done)
	return body
}

// CaseClause = "case" WORD linebreak "in" linebreak { CaseItem } "esac"
//
// Every CaseItem but the last is terminated by ";;".
type CaseClause struct {
	node
	Subject *Word
	Items   []*CaseItem
}

func (cn *CaseClause) parse(p *parser) {
	p.expectKeyword(lex.Case)
	if !p.peekWord() {
		p.fail(p.peek(), lex.Word)
	}
	cn.Subject = newWord(p.next())
	p.linebreak()
	p.expectKeyword(lex.In)
	p.linebreak()
	for !p.peekKeyword(lex.Esac) {
		item := parse(p, &CaseItem{})
		cn.Items = append(cn.Items, item)
		if !item.Terminated {
			break
		}
		p.linebreak()
	}
	p.expectKeyword(lex.Esac)
}

// CaseItem = [ "(" ] WORD { "|" WORD } ")" linebreak [ CompoundList ] [ ";;" linebreak ]
type CaseItem struct {
	node
	// At least one.
	Patterns []*Word
	// Nil when the item has no commands.
	Body *CompoundList
	// Whether the item ends with ";;".
	Terminated bool
}

func (in *CaseItem) parse(p *parser) {
	if p.peek().Kind == lex.LParen {
		p.next()
	}
	for {
		if !p.peekWord() {
			p.failExpecting(p.peek(), "pattern", lex.Word)
		}
		in.Patterns = append(in.Patterns, newWord(p.next()))
		if p.peek().Kind != lex.Pipe {
			break
		}
		p.next()
	}
	p.expect(lex.RParen)
	p.linebreak()
	if p.peek().Kind != lex.DSemi && !p.peekKeyword(lex.Esac) {
		in.Body = p.compoundList()
	}
	switch {
	case p.peek().Kind == lex.DSemi:
		p.next()
		in.Terminated = true
	case p.peekKeyword(lex.Esac):
	default:
		p.fail(p.peek(), lex.DSemi, lex.Esac)
	}
}

// IfClause = "if" CompoundList "then" CompoundList { ElifBranch } [ "else" CompoundList ] "fi"
type IfClause struct {
	node
	Cond  *CompoundList
	Then  *CompoundList
	Elifs []*ElifBranch
	// Nil when there is no else branch.
	Else *CompoundList
}

// ElifBranch = "elif" CompoundList "then" CompoundList
type ElifBranch struct {
	node
	Cond *CompoundList
	Then *CompoundList
}

func (in *IfClause) parse(p *parser) {
	p.expectKeyword(lex.If)
	in.Cond = p.compoundList()
	p.expectKeyword(lex.Then)
	in.Then = p.compoundList()
	for p.peekKeyword(lex.Elif) {
		in.Elifs = append(in.Elifs, parse(p, &ElifBranch{}))
	}
	if p.peekKeyword(lex.Else) {
		p.keyword()
		in.Else = p.compoundList()
	} else if !p.peekKeyword(lex.Fi) {
		p.fail(p.peek(), lex.Elif, lex.Else, lex.Fi)
	}
	p.expectKeyword(lex.Fi)
}

func (bn *ElifBranch) parse(p *parser) {
	p.expectKeyword(lex.Elif)
	bn.Cond = p.compoundList()
	p.expectKeyword(lex.Then)
	bn.Then = p.compoundList()
}

// WhileClause = "while" CompoundList DoGroup
type WhileClause struct {
	node
	Cond *CompoundList
	Body *CompoundList
}

func (wn *WhileClause) parse(p *parser) {
	p.expectKeyword(lex.While)
	wn.Cond = p.compoundList()
	wn.Body = p.doGroup()
}

// UntilClause = "until" CompoundList DoGroup
type UntilClause struct {
	node
	Cond *CompoundList
	Body *CompoundList
}

func (un *UntilClause) parse(p *parser) {
	p.expectKeyword(lex.Until)
	un.Cond = p.compoundList()
	un.Body = p.doGroup()
}

// FunctionDefinition = NAME "(" ")" linebreak CompoundCommand
type FunctionDefinition struct {
	node
	Name *Word
	Body *CompoundCommand
}

func (fn *FunctionDefinition) parse(p *parser) {
	fn.Name = newWord(p.expect(lex.Name))
	p.expect(lex.LParen)
	p.expect(lex.RParen)
	p.linebreak()
	switch p.peekReserved() {
	case lex.LParen, lex.LBrace, lex.If, lex.For, lex.Case, lex.While, lex.Until:
		fn.Body = parse(p, &CompoundCommand{})
	default:
		p.fail(p.peek(), lex.LBrace, lex.LParen, lex.For, lex.Case, lex.If, lex.While, lex.Until)
	}
}
