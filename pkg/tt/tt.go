// Package tt supports table-driven tests with little boilerplate.
//
// A typical use of this package looks like this:
//
//	// Function being tested
//	func neg(i int) int { return -i }
//
//	func TestNeg(t *testing.T) {
//		tt.Test(t, neg,
//			Args(0).Rets(0),
//			Args(1).Rets(-1),
//		)
//	}
//
// Mismatches are reported with a diff produced by [cmp.Diff].
package tt

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// Case represents a test case. It is created by the Args function, and offers
// setters that augment and return itself; those calls can be chained like
// Args(...).Rets(...).
type Case struct {
	args         []any
	retsMatchers [][]any
}

// Args returns a new Case with the given arguments.
func Args(args ...any) *Case {
	return &Case{args: args}
}

// Rets modifies the test case so that it requires the return values to match
// the given values. It returns the receiver. The arguments may implement the
// Matcher interface, in which case its Match method is called with the actual
// return value. Otherwise, cmp.Equal is used to determine matches.
func (c *Case) Rets(matchers ...any) *Case {
	c.retsMatchers = append(c.retsMatchers, matchers)
	return c
}

// FnDescriptor describes a function to test. It has the same fields as
// the return value of Fn.
type FnDescriptor struct {
	name    string
	body    any
	argsFmt string
	retsFmt string
}

// Fn makes a new FnDescriptor with the given function name and body. Passing a
// FnDescriptor to Test is only needed when the name derived from the function
// value is not helpful, for example for closures.
func Fn(name string, body any) *FnDescriptor {
	return &FnDescriptor{name: name, body: body}
}

// ArgsFmt sets the string for formatting arguments in test error messages, and
// returns fn itself.
func (fn *FnDescriptor) ArgsFmt(s string) *FnDescriptor {
	fn.argsFmt = s
	return fn
}

// RetsFmt sets the string for formatting return values in test error
// messages, and returns fn itself.
func (fn *FnDescriptor) RetsFmt(s string) *FnDescriptor {
	fn.retsFmt = s
	return fn
}

// T is the interface for accessing testing.T.
type T interface {
	Helper()
	Errorf(format string, args ...any)
}

// Test tests a function against test cases. The fn argument is either a
// function or a *FnDescriptor.
func Test(t T, fn any, tests ...*Case) {
	t.Helper()
	desc, ok := fn.(*FnDescriptor)
	if !ok {
		desc = &FnDescriptor{name: funcName(fn), body: fn}
	}
	for _, test := range tests {
		rets := call(desc.body, test.args)
		for _, retsMatcher := range test.retsMatchers {
			if !match(retsMatcher, rets) {
				var args string
				if desc.argsFmt == "" {
					args = sprintCommaDelimited(test.args...)
				} else {
					args = fmt.Sprintf(desc.argsFmt, test.args...)
				}
				var diff string
				if desc.retsFmt == "" {
					diff = cmp.Diff(retsMatcher, rets, cmpopt)
				} else {
					diff = cmp.Diff(
						fmt.Sprintf(desc.retsFmt, retsMatcher...),
						fmt.Sprintf(desc.retsFmt, rets...))
				}
				t.Errorf("%s(%s) returns (-Wanted +Actual):\n%s", desc.name, args, diff)
			}
		}
	}
}

// Treats any Matcher in the wanted values as equal to whatever it matches.
var cmpopt = cmp.FilterValues(
	func(x, y any) bool {
		_, xm := x.(Matcher)
		_, ym := y.(Matcher)
		return xm || ym
	},
	cmp.Comparer(func(x, y any) bool {
		if m, ok := x.(Matcher); ok {
			return m.Match(y)
		}
		return y.(Matcher).Match(x)
	}))

// RetValue is an empty interface used in the Matcher interface.
type RetValue any

// Matcher wraps the Match method.
type Matcher interface {
	// Match reports whether a return value is considered a match. The argument
	// is of type RetValue so that it cannot be implemented accidentally.
	Match(RetValue) bool
}

// Any is a Matcher that matches any value.
var Any Matcher = anyMatcher{}

type anyMatcher struct{}

func (anyMatcher) Match(RetValue) bool { return true }

// ErrorMatching returns a Matcher that matches any non-nil error whose
// message contains the given substring.
func ErrorMatching(substr string) Matcher { return errorMatcher{substr} }

type errorMatcher struct{ substr string }

func (m errorMatcher) Match(v RetValue) bool {
	err, ok := v.(error)
	return ok && err != nil && strings.Contains(err.Error(), m.substr)
}

func match(matchers, actual []any) bool {
	for i, matcher := range matchers {
		if !matchOne(matcher, actual[i]) {
			return false
		}
	}
	return true
}

func matchOne(m, a any) bool {
	if m, ok := m.(Matcher); ok {
		return m.Match(a)
	}
	return cmp.Equal(m, a)
}

func sprintCommaDelimited(args ...any) string {
	var b strings.Builder
	for i, arg := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprint(&b, arg)
	}
	return b.String()
}

// Derives a short name like "parse.Quote" or "Ranging.Len" from a function
// value.
func funcName(f any) string {
	name := runtime.FuncForPC(reflect.ValueOf(f).Pointer()).Name()
	if i := strings.LastIndexByte(name, '/'); i != -1 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "-fm")
	if i := strings.IndexByte(name, '.'); i != -1 && strings.Count(name, ".") > 1 {
		// Method expressions are "pkg.Type.Method"; drop the package.
		name = name[i+1:]
	}
	return name
}

func call(fn any, args []any) []any {
	fnType := reflect.TypeOf(fn)
	argsReflect := make([]reflect.Value, len(args))
	for i, arg := range args {
		if arg == nil {
			// reflect.ValueOf(nil) returns a zero Value, which cannot be used
			// as an argument. Use the zero value of the parameter type instead.
			argsReflect[i] = reflect.Zero(paramType(fnType, i))
		} else {
			argsReflect[i] = reflect.ValueOf(arg)
		}
	}
	retsReflect := reflect.ValueOf(fn).Call(argsReflect)
	rets := make([]any, len(retsReflect))
	for i, retReflect := range retsReflect {
		rets[i] = retReflect.Interface()
	}
	return rets
}

func paramType(fnType reflect.Type, i int) reflect.Type {
	if fnType.IsVariadic() && i >= fnType.NumIn()-1 {
		return fnType.In(fnType.NumIn() - 1).Elem()
	}
	return fnType.In(i)
}
