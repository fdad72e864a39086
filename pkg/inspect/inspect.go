// Package inspect implements the default subprogram of posixsh, which lexes or
// parses a script and prints the result.
package inspect

import (
	"fmt"
	"io"
	"os"

	"github.com/elves/posixsh/pkg/diag"
	"github.com/elves/posixsh/pkg/dump"
	"github.com/elves/posixsh/pkg/lex"
	"github.com/elves/posixsh/pkg/logutil"
	"github.com/elves/posixsh/pkg/parse"
	"github.com/elves/posixsh/pkg/prog"
	"github.com/elves/posixsh/pkg/sys"
)

var logger = logutil.GetLogger("[inspect] ")

// Program is the inspect subprogram. It always runs, so it should be the last
// subprogram of a composite.
type Program struct {
	code     string
	codeSet  bool
	tokens   bool
	check    bool
	trivia   bool
	maxDepth int
	format   *string
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	p.code, p.codeSet = "", false
	fs.Func("c", "take the script from the argument instead of a file",
		func(s string) error {
			p.code, p.codeSet = s, true
			return nil
		})
	fs.BoolVar(&p.tokens, "tokens", false, "print tokens instead of the syntax tree")
	fs.BoolVar(&p.check, "check", false, "only report errors, print nothing else")
	fs.BoolVar(&p.trivia, "trivia", false, "keep whitespace and comment tokens with -tokens")
	fs.IntVar(&p.maxDepth, "max-depth", 0, "maximum nesting of compound commands (0 for the default)")
	p.format = fs.Format()
}

func (p *Program) Run(fds [3]*os.File, args []string) error {
	diag.SetColor(sys.ColorEnabled(fds[2]))
	format, err := dump.ParseFormat(*p.format)
	if err != nil {
		return prog.BadUsage(err.Error())
	}
	src, err := p.source(fds[0], args)
	if err != nil {
		return err
	}
	logger.Printf("inspecting %s, %d bytes", src.Name, len(src.Code))

	if p.tokens {
		tokens, err := lex.Tokenize(src.Name, src.Code, lex.Config{KeepTrivia: p.trivia})
		if !p.check {
			if err := dump.Tokens(fds[1], tokens, format); err != nil {
				return err
			}
		}
		return showError(fds[2], err)
	}

	tree, err := parse.Parse(src, parse.Config{MaxDepth: p.maxDepth})
	if err != nil {
		return showError(fds[2], err)
	}
	if p.check {
		return nil
	}
	return dump.Tree(fds[1], tree, format)
}

func (p *Program) source(stdin *os.File, args []string) (parse.Source, error) {
	switch {
	case p.codeSet:
		if len(args) > 0 {
			return parse.Source{}, prog.BadUsage("-c cannot be used with a script file")
		}
		return parse.Source{Name: "code from -c", Code: p.code}, nil
	case len(args) > 1:
		return parse.Source{}, prog.BadUsage("at most one script file can be given")
	case len(args) == 1:
		code, err := os.ReadFile(args[0])
		if err != nil {
			return parse.Source{}, fmt.Errorf("cannot read script: %w", err)
		}
		return parse.Source{Name: args[0], Code: string(code)}, nil
	}
	code, err := io.ReadAll(stdin)
	if err != nil {
		return parse.Source{}, fmt.Errorf("cannot read stdin: %w", err)
	}
	return parse.Source{Name: "[stdin]", Code: string(code)}, nil
}

func showError(w io.Writer, err error) error {
	if err == nil {
		return nil
	}
	diag.ShowError(w, err)
	return prog.Exit(1)
}
