package lex

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/elves/posixsh/pkg/diag"
)

// tk is a token without its position, for compact test tables.
type tk struct {
	Kind   Kind
	Lexeme string
}

func stripPositions(tokens []Token) []tk {
	out := make([]tk, len(tokens))
	for i, t := range tokens {
		out[i] = tk{t.Kind, t.Lexeme}
	}
	return out
}

var tokenizeTests = []struct {
	name string
	code string
	want []tk
}{
	{
		name: "empty",
		code: "",
		want: []tk{},
	},
	{
		name: "simple command",
		code: "echo hello world",
		want: []tk{{Name, "echo"}, {Name, "hello"}, {Name, "world"}},
	},
	{
		name: "and-or operators without spaces",
		code: "a&&b||c",
		want: []tk{{Name, "a"}, {AndIf, "&&"}, {Name, "b"}, {OrIf, "||"}, {Name, "c"}},
	},
	{
		name: "<<- is preferred over <<",
		code: "cat <<-EOF",
		want: []tk{{Name, "cat"}, {DLessDash, "<<-"}, {Name, "EOF"}},
	},
	{
		name: "longest operator then the rest",
		code: "a <<< b",
		want: []tk{{Name, "a"}, {DLess, "<<"}, {Less, "<"}, {Name, "b"}},
	},
	{
		name: "all multi-character operators",
		code: "&& || ;; << >> <& >& <> <<- >|",
		want: []tk{
			{AndIf, "&&"}, {OrIf, "||"}, {DSemi, ";;"}, {DLess, "<<"},
			{DGreat, ">>"}, {LessAnd, "<&"}, {GreatAnd, ">&"},
			{LessGreat, "<>"}, {DLessDash, "<<-"}, {Clobber, ">|"},
		},
	},
	{
		name: "single-character operators",
		code: "a&b;c|d(e)<f>g",
		want: []tk{
			{Name, "a"}, {Amp, "&"}, {Name, "b"}, {Semi, ";"}, {Name, "c"},
			{Pipe, "|"}, {Name, "d"}, {LParen, "("}, {Name, "e"},
			{RParen, ")"}, {Less, "<"}, {Name, "f"}, {Great, ">"}, {Name, "g"},
		},
	},
	{
		name: "IO number is digits immediately before a redirection",
		code: "cmd 2>&1 10<in",
		want: []tk{
			{Name, "cmd"}, {IONumber, "2"}, {GreatAnd, ">&"}, {Word, "1"},
			{IONumber, "10"}, {Less, "<"}, {Name, "in"},
		},
	},
	{
		name: "digits not followed by a redirection are a word",
		code: "echo 2 >x",
		want: []tk{{Name, "echo"}, {Word, "2"}, {Great, ">"}, {Name, "x"}},
	},
	{
		name: "digits followed by letters are a word",
		code: "echo 2a>x",
		want: []tk{{Name, "echo"}, {Word, "2a"}, {Great, ">"}, {Name, "x"}},
	},
	{
		name: "single-quoted string",
		code: `echo 'a b' 'c\'`,
		want: []tk{{Name, "echo"}, {Word, "'a b'"}, {Word, `'c\'`}},
	},
	{
		name: "double-quoted string with escapes",
		code: `echo "a \" b" "\\"`,
		want: []tk{{Name, "echo"}, {Word, `"a \" b"`}, {Word, `"\\"`}},
	},
	{
		name: "quoted strings are part of the surrounding word",
		code: `a'b c'd"e f"g`,
		want: []tk{{Word, `a'b c'd"e f"g`}},
	},
	{
		name: "metacharacters inside quotes do not end words",
		code: `echo ';|&' "<>"`,
		want: []tk{{Name, "echo"}, {Word, "';|&'"}, {Word, `"<>"`}},
	},
	{
		name: "newlines inside quotes do not produce NEWLINE",
		code: "echo 'a\nb'\n",
		want: []tk{{Name, "echo"}, {Word, "'a\nb'"}, {Newline, "\n"}},
	},
	{
		name: "assignment words",
		code: `a=1 b="x y" c= cmd`,
		want: []tk{
			{AssignmentWord, "a=1"}, {AssignmentWord, `b="x y"`},
			{AssignmentWord, "c="}, {Name, "cmd"},
		},
	},
	{
		name: "word with = but no name before it",
		code: "=x 1a=2",
		want: []tk{{Word, "=x"}, {Word, "1a=2"}},
	},
	{
		name: "reserved words are lexed as names",
		code: "if then else elif fi do done case esac while until for in",
		want: []tk{
			{Name, "if"}, {Name, "then"}, {Name, "else"}, {Name, "elif"},
			{Name, "fi"}, {Name, "do"}, {Name, "done"}, {Name, "case"},
			{Name, "esac"}, {Name, "while"}, {Name, "until"}, {Name, "for"},
			{Name, "in"},
		},
	},
	{
		name: "braces and bang alone are operators",
		code: "{ ! x; }",
		want: []tk{{LBrace, "{"}, {Bang, "!"}, {Name, "x"}, {Semi, ";"}, {RBrace, "}"}},
	},
	{
		name: "braces and bang in longer words are words",
		code: "{a,b} !x a}",
		want: []tk{{Word, "{a,b}"}, {Word, "!x"}, {Word, "a}"}},
	},
	{
		name: "newline is its own token",
		code: "a\n\nb",
		want: []tk{{Name, "a"}, {Newline, "\n"}, {Newline, "\n"}, {Name, "b"}},
	},
	{
		name: "comments are skipped, up to the newline",
		code: "echo hi # comment ; here\nls",
		want: []tk{{Name, "echo"}, {Name, "hi"}, {Newline, "\n"}, {Name, "ls"}},
	},
	{
		name: "# inside a word is not a comment",
		code: "echo a#b",
		want: []tk{{Name, "echo"}, {Word, "a#b"}},
	},
	{
		name: "line continuation is whitespace",
		code: "echo \\\n  hi",
		want: []tk{{Name, "echo"}, {Name, "hi"}},
	},
	{
		name: "backslash escapes",
		code: `echo a\ b \;`,
		want: []tk{{Name, "echo"}, {Word, `a\ b`}, {Word, `\;`}},
	},
	{
		name: "expansions are kept inside words",
		code: "echo $x ${y:-a b} $(ls -l) $((1 + 2)) `date +%s`",
		want: []tk{
			{Name, "echo"}, {Word, "$x"}, {Word, "${y:-a b}"},
			{Word, "$(ls -l)"}, {Word, "$((1 + 2))"}, {Word, "`date +%s`"},
		},
	},
	{
		name: "nested command substitutions and quotes",
		code: `echo $(echo ")" $(date)) "$(a "b c")"`,
		want: []tk{
			{Name, "echo"}, {Word, `$(echo ")" $(date))`}, {Word, `"$(a "b c")"`},
		},
	},
	{
		name: "case patterns inside command substitution",
		code: "x=$(case $1 in a) echo;; (b|c) (:);; esac) $(case y in\n*) :\nesac)",
		want: []tk{
			{AssignmentWord, "x=$(case $1 in a) echo;; (b|c) (:);; esac)"},
			{Word, "$(case y in\n*) :\nesac)"},
		},
	},
	{
		name: "comments inside command substitution",
		code: "echo $(a # )\n)",
		want: []tk{{Name, "echo"}, {Word, "$(a # )\n)"}},
	},
	{
		name: "arithmetic with nested parentheses",
		code: "echo $(( (1+2)*3 ))x",
		want: []tk{{Name, "echo"}, {Word, "$(( (1+2)*3 ))x"}},
	},
	{
		name: "non-ASCII words",
		code: "echo héllo 世界",
		want: []tk{{Name, "echo"}, {Word, "héllo"}, {Word, "世界"}},
	},
}

func TestTokenize(t *testing.T) {
	for _, test := range tokenizeTests {
		t.Run(test.name, func(t *testing.T) {
			tokens, err := Tokenize("[test]", test.code, Config{})
			if err != nil {
				t.Fatalf("got error %v", err)
			}
			got := stripPositions(tokens)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("tokens (-want +got):\n%s", diff)
			}
		})
	}
}

var tokenizeErrorTests = []struct {
	name        string
	code        string
	wantTokens  []tk
	wantMessage string
	wantRange   diag.Ranging
	wantPartial bool
}{
	{
		name:        "unterminated single quote",
		code:        "echo 'abc",
		wantTokens:  []tk{{Name, "echo"}},
		wantMessage: "unterminated single-quoted string",
		wantRange:   diag.Ranging{From: 5, To: 9},
		wantPartial: true,
	},
	{
		name:        "unterminated double quote",
		code:        `"abc\"`,
		wantTokens:  []tk{},
		wantMessage: "unterminated double-quoted string",
		wantRange:   diag.Ranging{From: 0, To: 6},
		wantPartial: true,
	},
	{
		name:        "unterminated command substitution",
		code:        "a; echo $(ls",
		wantTokens:  []tk{{Name, "a"}, {Semi, ";"}, {Name, "echo"}},
		wantMessage: `unterminated "$("`,
		wantRange:   diag.Ranging{From: 8, To: 12},
		wantPartial: true,
	},
	{
		name:        "unterminated parameter expansion",
		code:        "${a",
		wantTokens:  []tk{},
		wantMessage: `unterminated "${"`,
		wantRange:   diag.Ranging{From: 0, To: 3},
		wantPartial: true,
	},
	{
		name:        "unterminated backquote",
		code:        "`date",
		wantTokens:  []tk{},
		wantMessage: "unterminated backquoted command substitution",
		wantRange:   diag.Ranging{From: 0, To: 5},
		wantPartial: true,
	},
	{
		name:        "invalid UTF-8",
		code:        "echo a\xffb",
		wantTokens:  []tk{{Name, "echo"}},
		wantMessage: "invalid UTF-8 byte 0xff",
		wantRange:   diag.Ranging{From: 6, To: 7},
	},
}

func TestTokenize_Errors(t *testing.T) {
	for _, test := range tokenizeErrorTests {
		t.Run(test.name, func(t *testing.T) {
			tokens, err := Tokenize("[test]", test.code, Config{})
			if diff := cmp.Diff(test.wantTokens, stripPositions(tokens)); diff != "" {
				t.Errorf("tokens before error (-want +got):\n%s", diff)
			}
			lexErr := UnpackError(err)
			if lexErr == nil {
				t.Fatalf("got error %v, want a lex error", err)
			}
			if lexErr.Message != test.wantMessage {
				t.Errorf("got message %q, want %q", lexErr.Message, test.wantMessage)
			}
			if lexErr.Range() != test.wantRange {
				t.Errorf("got range %v, want %v", lexErr.Range(), test.wantRange)
			}
			if lexErr.Partial != test.wantPartial {
				t.Errorf("got partial %v, want %v", lexErr.Partial, test.wantPartial)
			}
		})
	}
}

func TestTokenize_ErrorString(t *testing.T) {
	_, err := Tokenize("a.sh", "echo ok\necho 'bad", Config{})
	want := "lex error: a.sh:2:6: unterminated single-quoted string"
	if err == nil || err.Error() != want {
		t.Errorf("got error %v, want %q", err, want)
	}
}

var singleQuotedContents = []string{
	"", "a", "a b", `a\`, `\n`, `"x"`, "$x", "$(ls)", "`date`", "a\nb",
	"; | & < > ( ) { } !", "#not a comment", "héllo",
}

func TestSingleQuotedStringIsOneWord(t *testing.T) {
	for _, content := range singleQuotedContents {
		code := "'" + content + "'"
		tokens, err := Tokenize("[test]", code, Config{})
		if err != nil {
			t.Errorf("Tokenize(%q) errors: %v", code, err)
			continue
		}
		want := []Token{{Word, code, diag.Ranging{From: 0, To: len(code)}}}
		if diff := cmp.Diff(want, tokens); diff != "" {
			t.Errorf("Tokenize(%q) (-want +got):\n%s", code, diff)
		}
	}
}

var roundTripScripts = []string{
	"",
	"echo hello",
	"  a=1 b=2 cmd arg >out 2>&1 <in ; echo done &\n",
	"if true; then echo ok; fi\n",
	"for x in a b c\ndo\n\techo $x # loop\ndone\n",
	"case $1 in\n  a|b) echo ab ;;\n  *) echo other\nesac\n",
	"f() { echo \"$@\" | tr a-z A-Z; }\n# trailing comment",
	"cat <<-EOF\n\tbody\n\tEOF\n",
	"echo \\\n  continued 'quoted\nnewline'",
}

func TestRoundTrip_WithTrivia(t *testing.T) {
	for _, code := range roundTripScripts {
		tokens, err := Tokenize("[test]", code, Config{KeepTrivia: true})
		if err != nil {
			t.Errorf("Tokenize(%q) errors: %v", code, err)
			continue
		}
		var sb strings.Builder
		for _, token := range tokens {
			sb.WriteString(token.Lexeme)
		}
		if got := sb.String(); got != code {
			t.Errorf("concatenated lexemes %q, want %q", got, code)
		}
	}
}

func TestRoundTrip_LexemesMatchSpans(t *testing.T) {
	for _, code := range roundTripScripts {
		tokens, err := Tokenize("[test]", code, Config{})
		if err != nil {
			t.Errorf("Tokenize(%q) errors: %v", code, err)
			continue
		}
		for _, token := range tokens {
			if span := code[token.From:token.To]; span != token.Lexeme {
				t.Errorf("token %v has lexeme %q but spans %q", token, token.Lexeme, span)
			}
			// Re-lexing the span alone yields the same token.
			relexed, err := Tokenize("[test]", token.Lexeme, Config{})
			if err != nil || len(relexed) != 1 || relexed[0].Lexeme != token.Lexeme {
				t.Errorf("re-lexing %q gives %v, %v", token.Lexeme, relexed, err)
			}
		}
	}
}

func TestTrivia(t *testing.T) {
	tokens, err := Tokenize("[test]", "a  # c\n\\\nb", Config{KeepTrivia: true})
	if err != nil {
		t.Fatal(err)
	}
	want := []tk{
		{Name, "a"}, {Whitespace, "  "}, {Comment, "# c"}, {Newline, "\n"},
		{Whitespace, "\\\n"}, {Name, "b"},
	}
	if diff := cmp.Diff(want, stripPositions(tokens)); diff != "" {
		t.Errorf("tokens (-want +got):\n%s", diff)
	}
}

func TestNext_IsRestartable(t *testing.T) {
	lx := New("[test]", "a | b && c\nd", Config{})
	var cursors []Cursor
	var tokens []Token
	for c := lx.Start(); ; {
		token, next, err := lx.Next(c)
		if err != nil {
			t.Fatal(err)
		}
		cursors = append(cursors, c)
		tokens = append(tokens, token)
		if token.Kind == EOF {
			break
		}
		c = next
	}
	// Replay in reverse order.
	for i := len(cursors) - 1; i >= 0; i-- {
		token, _, err := lx.Next(cursors[i])
		if err != nil {
			t.Fatal(err)
		}
		if token != tokens[i] {
			t.Errorf("Next(%v) = %v, want %v", cursors[i], token, tokens[i])
		}
	}
}

func TestNext_EOFIsSticky(t *testing.T) {
	lx := New("[test]", "a  ", Config{})
	_, c, _ := lx.Next(lx.Start())
	for i := 0; i < 3; i++ {
		token, next, err := lx.Next(c)
		if err != nil || token.Kind != EOF || next != (Cursor{3}) {
			t.Errorf("Next(%v) = %v, %v, %v; want EOF and cursor at 3", c, token, next, err)
		}
		if token.Range() != diag.PointRanging(3) {
			t.Errorf("EOF token has range %v, want 3-3", token.Range())
		}
		c = next
	}
}

func TestNext_ErrorKeepsCursor(t *testing.T) {
	lx := New("[test]", "echo 'x", Config{})
	_, c, _ := lx.Next(lx.Start())
	_, next, err := lx.Next(c)
	if err == nil {
		t.Fatal("want error")
	}
	if next != c {
		t.Errorf("cursor after error = %v, want %v", next, c)
	}
}

func FuzzLex(f *testing.F) {
	for _, code := range roundTripScripts {
		f.Add(code)
	}
	f.Fuzz(func(t *testing.T, code string) {
		tokens, err := Tokenize("fuzz", code, Config{KeepTrivia: true})
		if err != nil {
			return
		}
		end := 0
		for _, token := range tokens {
			if token.From != end {
				t.Fatalf("token %v does not start at %d", token, end)
			}
			end = token.To
		}
		if end != len(code) {
			t.Fatalf("tokens end at %d, source has %d bytes", end, len(code))
		}
	})
}
