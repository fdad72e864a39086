package parse

import "reflect"

var nodeType = reflect.TypeOf((*Node)(nil)).Elem()

// Children returns the child nodes of n, in source order.
func Children(n Node) []Node {
	var children []Node
	nv := reflect.ValueOf(n).Elem()
	nt := nv.Type()
	for i := 0; i < nt.NumField(); i++ {
		f := nt.Field(i)
		if f.Anonymous {
			continue
		}
		fv := nv.Field(i)
		if f.Type.Kind() == reflect.Slice {
			if f.Type.Elem().Implements(nodeType) {
				for j := 0; j < fv.Len(); j++ {
					children = append(children, fv.Index(j).Interface().(Node))
				}
			}
		} else if f.Type.Implements(nodeType) && !fv.IsNil() {
			children = append(children, fv.Interface().(Node))
		}
	}
	return children
}

// Walk traverses the tree rooted at n in depth-first order. It calls f for
// each node, and only descends into the children of nodes for which f returns
// true.
func Walk(n Node, f func(Node) bool) {
	if !f(n) {
		return
	}
	for _, ch := range Children(n) {
		Walk(ch, f)
	}
}

// SourceText returns the part of the source covered by n.
func SourceText(n Node, code string) string {
	r := n.Range()
	return code[r.From:r.To]
}
