// Posixsh reads POSIX shell scripts and prints their tokens or syntax trees,
// reporting syntax errors with their source context. With -lsp it runs as a
// language server instead.
package main

import (
	"os"

	"github.com/elves/posixsh/pkg/buildinfo"
	"github.com/elves/posixsh/pkg/inspect"
	"github.com/elves/posixsh/pkg/lsp"
	"github.com/elves/posixsh/pkg/prog"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		prog.Composite(&buildinfo.Program{}, &lsp.Program{}, &inspect.Program{})))
}
