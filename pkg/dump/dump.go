// Package dump writes tokens and syntax trees in the output formats supported
// by the posixsh command.
package dump

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/elves/posixsh/pkg/lex"
	"github.com/elves/posixsh/pkg/parse"
)

// Format is an output format.
type Format string

// Supported formats.
const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat parses the value of a -format flag.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case Text, JSON, YAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q, should be text, json or yaml", s)
}

// Token is the serialized form of a lex.Token.
type Token struct {
	Kind string `json:"kind" yaml:"kind"`
	Text string `json:"text" yaml:"text"`
	From int    `json:"from" yaml:"from"`
	To   int    `json:"to" yaml:"to"`
}

// Node is the serialized form of a parse.Node.
type Node struct {
	Type     string         `json:"type" yaml:"type"`
	From     int            `json:"from" yaml:"from"`
	To       int            `json:"to" yaml:"to"`
	Props    map[string]any `json:"props,omitempty" yaml:"props,omitempty"`
	Children []*Node        `json:"children,omitempty" yaml:"children,omitempty"`
}

// ConvertToken converts a token to its serialized form.
func ConvertToken(t lex.Token) Token {
	return Token{kindName(t.Kind), t.Lexeme, t.From, t.To}
}

// ConvertNode converts the tree rooted at n to its serialized form. Property
// values implementing fmt.Stringer, like the operators of lists and
// redirections, are converted to strings.
func ConvertNode(n parse.Node) *Node {
	r := n.Range()
	dn := &Node{Type: reflect.TypeOf(n).Elem().Name(), From: r.From, To: r.To}
	for _, prop := range parse.Properties(n) {
		if dn.Props == nil {
			dn.Props = map[string]any{}
		}
		v := prop.Value
		if s, ok := v.(fmt.Stringer); ok {
			v = s.String()
		}
		dn.Props[prop.Name] = v
	}
	for _, ch := range parse.Children(n) {
		dn.Children = append(dn.Children, ConvertNode(ch))
	}
	return dn
}

// Tokens writes tokens to w in the given format. In the text format each
// token takes one line with its kind and its text, with control characters
// escaped so that a newline token shows as \n.
func Tokens(w io.Writer, tokens []lex.Token, f Format) error {
	if f == Text {
		for _, t := range tokens {
			_, err := fmt.Fprintf(w, "%s %s\n", kindName(t.Kind), escape(t.Lexeme))
			if err != nil {
				return err
			}
		}
		return nil
	}
	converted := make([]Token, len(tokens))
	for i, t := range tokens {
		converted[i] = ConvertToken(t)
	}
	return encode(w, converted, f)
}

// Tree writes the tree rooted at n to w in the given format. The text format
// is the one of parse.PPrint.
func Tree(w io.Writer, n parse.Node, f Format) error {
	if f == Text {
		parse.PPrint(w, n)
		return nil
	}
	return encode(w, ConvertNode(n), f)
}

func encode(w io.Writer, v any, f Format) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q", f)
}

// Operators and reserved words use their names in the POSIX grammar, so that
// the token listing reads like the grammar's terminals.
var grammarNames = map[lex.Kind]string{
	lex.AndIf: "AND_IF", lex.OrIf: "OR_IF", lex.DSemi: "DSEMI",
	lex.DLess: "DLESS", lex.DGreat: "DGREAT", lex.LessAnd: "LESSAND",
	lex.GreatAnd: "GREATAND", lex.LessGreat: "LESSGREAT",
	lex.DLessDash: "DLESSDASH", lex.Clobber: "CLOBBER",
	lex.Bang: "BANG", lex.LBrace: "LBRACE", lex.RBrace: "RBRACE",
}

func kindName(k lex.Kind) string {
	if name, ok := grammarNames[k]; ok {
		return name
	}
	if k.IsOperator() || k.IsReservedWord() {
		// Single-character operators and alphabetic reserved words are
		// terminals spelled by their text.
		return k.Text()
	}
	if k == lex.EOF {
		return "EOF"
	}
	return k.String()
}

var escaper = strings.NewReplacer("\n", `\n`, "\t", `\t`, "\r", `\r`, `\`, `\\`)

func escape(s string) string { return escaper.Replace(s) }
