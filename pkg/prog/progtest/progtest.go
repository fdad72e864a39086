// Package progtest contains utilities for testing [prog.Program] instances.
//
// A typical test looks like this:
//
//	progtest.Test(t, program,
//		progtest.ThatPosixsh("-tokens", "-c", "echo").WritesStdoutContaining("WORD"),
//		progtest.ThatPosixsh("-bad").ExitsWith(2).WritesStderrContaining("not defined"),
//	)
package progtest

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/elves/posixsh/pkg/must"
	"github.com/elves/posixsh/pkg/prog"
)

// Case is a test case for Test.
type Case struct {
	args  []string
	stdin string

	exit           int
	stdout         string
	stdoutExact    bool
	stderr         string
	stderrExact    bool
	stdoutContains []string
	stderrContains []string
}

// ThatPosixsh returns a new Case that runs the program with the given
// arguments. By default the case expects the program to exit with 0 and write
// nothing to stdout or stderr.
func ThatPosixsh(args ...string) Case {
	return Case{args: args, stdoutExact: true, stderrExact: true}
}

// WithStdin returns a copy of c that feeds s to the standard input.
func (c Case) WithStdin(s string) Case {
	c.stdin = s
	return c
}

// ExitsWith returns a copy of c that expects the given exit status.
func (c Case) ExitsWith(exit int) Case {
	c.exit = exit
	return c
}

// WritesStdout returns a copy of c that expects the exact stdout.
func (c Case) WritesStdout(s string) Case {
	c.stdout, c.stdoutExact = s, true
	return c
}

// WritesStdoutContaining returns a copy of c that expects stdout to contain s.
// The rest of stdout is not checked.
func (c Case) WritesStdoutContaining(s string) Case {
	c.stdoutExact = false
	c.stdoutContains = append(c.stdoutContains[:len(c.stdoutContains):len(c.stdoutContains)], s)
	return c
}

// WritesStderr returns a copy of c that expects the exact stderr.
func (c Case) WritesStderr(s string) Case {
	c.stderr, c.stderrExact = s, true
	return c
}

// WritesStderrContaining returns a copy of c that expects stderr to contain s.
// The rest of stderr is not checked.
func (c Case) WritesStderrContaining(s string) Case {
	c.stderrExact = false
	c.stderrContains = append(c.stderrContains[:len(c.stderrContains):len(c.stderrContains)], s)
	return c
}

// Test runs p against the test cases.
func Test(t *testing.T, p prog.Program, cases ...Case) {
	t.Helper()
	for _, c := range cases {
		t.Run(strings.Join(c.args, " "), func(t *testing.T) {
			t.Helper()
			exit, stdout, stderr := Run(p, c.stdin, c.args...)
			if exit != c.exit {
				t.Errorf("got exit %v, want %v\nstdout: %q\nstderr: %q", exit, c.exit, stdout, stderr)
			}
			check(t, "stdout", stdout, c.stdoutExact, c.stdout, c.stdoutContains)
			check(t, "stderr", stderr, c.stderrExact, c.stderr, c.stderrContains)
		})
	}
}

func check(t *testing.T, name, got string, exact bool, want string, contains []string) {
	t.Helper()
	if exact {
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s (-want +got):\n%s", name, diff)
		}
		return
	}
	for _, s := range contains {
		if !strings.Contains(got, s) {
			t.Errorf("got %s %q, want it to contain %q", name, got, s)
		}
	}
}

// Run runs p with the given stdin and arguments, and returns the exit status
// and the output. The name of the program is added to the arguments.
func Run(p prog.Program, stdin string, args ...string) (exit int, stdout, stderr string) {
	r0, w0 := must.Pipe()
	r1, w1 := must.Pipe()
	r2, w2 := must.Pipe()
	go func() {
		w0.WriteString(stdin)
		w0.Close()
	}()
	// Output is read concurrently, so that programs writing more than a pipe
	// can buffer do not block.
	outCh, errCh := readAll(r1), readAll(r2)
	exit = prog.Run([3]*os.File{r0, w1, w2}, append([]string{"posixsh"}, args...), p)
	w1.Close()
	w2.Close()
	r0.Close()
	return exit, <-outCh, <-errCh
}

func readAll(r *os.File) <-chan string {
	ch := make(chan string, 1)
	go func() {
		ch <- string(must.OK1(io.ReadAll(r)))
		r.Close()
	}()
	return ch
}
