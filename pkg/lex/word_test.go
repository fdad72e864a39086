package lex

import (
	"testing"

	"github.com/elves/posixsh/pkg/tt"
)

func TestInspectWord(t *testing.T) {
	tt.Test(t, InspectWord,
		Args("plain").Rets(WordInfo{}),
		Args("'a b'").Rets(WordInfo{Quoted: true}),
		Args(`"a b"`).Rets(WordInfo{Quoted: true}),
		Args(`a\ b`).Rets(WordInfo{Quoted: true}),
		Args("$x").Rets(WordInfo{Expansion: true}),
		Args("${x}").Rets(WordInfo{Expansion: true}),
		Args("$(ls)").Rets(WordInfo{Expansion: true}),
		Args("`ls`").Rets(WordInfo{Expansion: true}),
		Args(`"$x"`).Rets(WordInfo{Quoted: true, Expansion: true}),
		// Nothing is expanded inside single quotes.
		Args("'$x'").Rets(WordInfo{Quoted: true}),
		Args(`\$x`).Rets(WordInfo{Quoted: true}),
		// A lone dollar is literal.
		Args("a$").Rets(WordInfo{}),
		Args("$%").Rets(WordInfo{}),
	)
}

func TestUnquote(t *testing.T) {
	tt.Test(t, Unquote,
		Args("EOF").Rets("EOF"),
		Args("'EOF'").Rets("EOF"),
		Args(`"EOF"`).Rets("EOF"),
		Args(`\EOF`).Rets("EOF"),
		Args(`E"O"'F'`).Rets("EOF"),
		Args(`"a\"b\c"`).Rets(`a"b\c`),
		Args(`a\`).Rets(`a\`),
		Args("$x").Rets("$x"),
	)
}
