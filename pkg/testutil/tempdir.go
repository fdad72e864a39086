package testutil

import (
	"os"
	"path/filepath"

	"github.com/elves/posixsh/pkg/must"
)

// InTempDir creates a temporary directory, changes into it, and returns its
// path. The working directory is restored when the test finishes.
func InTempDir(c TempDirer) string {
	dir := c.TempDir()
	oldWd := must.OK1(os.Getwd())
	must.Chdir(dir)
	c.Cleanup(func() { must.Chdir(oldWd) })
	return dir
}

// Dir describes the layout of a directory. Keys are file names relative to
// the directory; values are file contents.
type Dir map[string]string

// ApplyDir creates the files described by dir under the current directory,
// creating parent directories as needed.
func ApplyDir(dir Dir) {
	for name, content := range dir {
		if d := filepath.Dir(name); d != "." {
			must.OK(os.MkdirAll(d, 0o755))
		}
		must.WriteFile(name, content)
	}
}
