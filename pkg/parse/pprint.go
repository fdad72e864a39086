package parse

import (
	"fmt"
	"io"
	"reflect"
	"strconv"
)

const (
	maxL      = 10
	maxR      = 10
	indentInc = 2
)

// PPrint pretty-prints the tree rooted at n to w, one node per line. A node
// with exactly one child covering the same source is printed on the same line
// as its child, like "Pipeline/SimpleCommand". Properties with zero values are
// omitted.
func PPrint(w io.Writer, n Node) {
	pprintRec(w, n, 0, "")
}

func pprintRec(w io.Writer, n Node, indent int, leading string) {
	nt := reflect.TypeOf(n).Elem()
	children := Children(n)
	props := Properties(n)
	if len(children) == 1 && children[0].Range() == n.Range() && len(props) == 0 {
		pprintRec(w, children[0], indent, leading+nt.Name()+"/")
		return
	}
	fmt.Fprintf(w, "%*s%s%s", indent, "", leading, nt.Name())
	for _, prop := range props {
		value := prop.Value
		if s, ok := value.(string); ok {
			value = compactQuote(s)
		}
		fmt.Fprintf(w, " %s=%v", prop.Name, value)
	}
	fmt.Fprint(w, "\n")
	for _, ch := range children {
		pprintRec(w, ch, indent+indentInc, "")
	}
}

// Property is a field of a node that is not a child node.
type Property struct {
	Name  string
	Value any
}

// Properties returns the properties of n with non-zero values, in the order
// of the fields.
func Properties(n Node) []Property {
	var props []Property
	nv := reflect.ValueOf(n).Elem()
	nt := nv.Type()
	for i := 0; i < nt.NumField(); i++ {
		f := nt.Field(i)
		if f.Anonymous || f.Type.Implements(nodeType) ||
			f.Type.Kind() == reflect.Slice && f.Type.Elem().Implements(nodeType) {
			continue
		}
		if fv := nv.Field(i); !fv.IsZero() {
			props = append(props, Property{f.Name, fv.Interface()})
		}
	}
	return props
}

func compactQuote(text string) string {
	if len(text) > maxL+maxR+3 {
		text = text[0:maxL] + "..." + text[len(text)-maxR:]
	}
	return strconv.Quote(text)
}
