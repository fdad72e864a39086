package parse

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// AST checking utilities. Used in test cases.

// ast is an AST specification. The name part identifies the type of the Node;
// for instance, "Pipeline" specifies a Pipeline. The fields part specifies
// fields to check; see document of fs.
//
// When a Node contains exactly one child, it can be coalesced with its child
// by adding "/ChildName" in the name part. For instance, "Pipeline/SimpleCommand"
// specifies a Pipeline that contains exactly one SimpleCommand. In this case,
// the fields part specifies the fields of the SimpleCommand instead of the
// Pipeline.
type ast struct {
	name   string
	fields fs
}

// fs specifies fields of a Node to check. For the value of field $f in the
// Node ("found value"), fs[$f] ("wanted value") is used to check against it.
//
// If the wanted value is nil, the found value is checked against nil.
//
// If the found value implements Node, then the wanted value must be either an
// ast, where the checking algorithm of ast applies, or a string, where the
// source text of the found value is checked.
//
// If the found value is a slice whose elements implement Node, then the wanted
// value must be a slice where checking is then done recursively.
//
// If the found value satisfied none of the above conditions, it is checked
// against the wanted value using reflect.DeepEqual.
//
// Exported fields not mentioned must have zero values.
type fs map[string]any

type astChecker struct{ code string }

// checkAST checks an AST against a specification.
func checkAST(code string, n Node, want ast) error {
	return astChecker{code}.check(n, want)
}

func (c astChecker) check(n Node, want ast) error {
	wantnames := strings.Split(want.name, "/")
	for i, wantname := range wantnames {
		name := reflect.TypeOf(n).Elem().Name()
		if wantname != name {
			return fmt.Errorf("want %s, got %s (%s)", wantname, name, c.summary(n))
		}
		if i == len(wantnames)-1 {
			break
		}
		children := Children(n)
		if len(children) != 1 {
			return fmt.Errorf("want exactly 1 child, got %d (%s)", len(children), c.summary(n))
		}
		n = children[0]
	}

	ntype := reflect.TypeOf(n).Elem()
	nvalue := reflect.ValueOf(n).Elem()

	for i := 0; i < ntype.NumField(); i++ {
		fieldname := ntype.Field(i).Name
		if !exported(fieldname) {
			continue
		}
		got := nvalue.Field(i).Interface()
		if want, ok := want.fields[fieldname]; ok {
			err := c.checkField(got, want, "field "+fieldname+" of: "+c.summary(n))
			if err != nil {
				return err
			}
		} else if !nvalue.Field(i).IsZero() {
			return fmt.Errorf("want zero value, got %v (field %s of: %s)", got, fieldname, c.summary(n))
		}
	}
	return nil
}

func (c astChecker) checkField(got any, want any, ctx string) error {
	if want == nil {
		if !reflect.ValueOf(got).IsNil() {
			return fmt.Errorf("want nil, got %v (%s)", got, ctx)
		}
		return nil
	}

	if got, ok := got.(Node); ok {
		if reflect.ValueOf(got).IsNil() {
			return fmt.Errorf("want %v, got nil (%s)", want, ctx)
		}
		return c.checkNodeInField(got, want)
	}
	tgot := reflect.TypeOf(got)
	if tgot.Kind() == reflect.Slice && tgot.Elem().Implements(nodeType) {
		vgot := reflect.ValueOf(got)
		vwant := reflect.ValueOf(want)
		if vgot.Len() != vwant.Len() {
			return fmt.Errorf("want %d, got %d (%s)", vwant.Len(), vgot.Len(), ctx)
		}
		for i := 0; i < vgot.Len(); i++ {
			err := c.checkNodeInField(vgot.Index(i).Interface().(Node),
				vwant.Index(i).Interface())
			if err != nil {
				return err
			}
		}
		return nil
	}

	if !reflect.DeepEqual(want, got) {
		return fmt.Errorf("want %v, got %v (%s)", want, got, ctx)
	}
	return nil
}

func (c astChecker) checkNodeInField(got Node, want any) error {
	switch want := want.(type) {
	case string:
		text := SourceText(got, c.code)
		if want != text {
			return fmt.Errorf("want %q, got %q (%s)", want, text, c.summary(got))
		}
		return nil
	case ast:
		return c.check(got, want)
	default:
		panic(fmt.Sprintf("bad want type %T (%s)", want, c.summary(got)))
	}
}

func (c astChecker) summary(n Node) string {
	return fmt.Sprintf("%s %s %d-%d", reflect.TypeOf(n).Elem().Name(),
		compactQuote(SourceText(n, c.code)), n.Range().From, n.Range().To)
}

func exported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
