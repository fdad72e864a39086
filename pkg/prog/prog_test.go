package prog_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/elves/posixsh/pkg/must"
	. "github.com/elves/posixsh/pkg/prog"
	"github.com/elves/posixsh/pkg/prog/progtest"
	"github.com/elves/posixsh/pkg/testutil"
)

func TestCommonFlagHandling(t *testing.T) {
	testutil.Setenv(t, "XDG_CONFIG_HOME", t.TempDir())
	progtest.Test(t, &testProgram{},
		progtest.ThatPosixsh("-bad-flag").
			ExitsWith(2).
			WritesStderrContaining("flag provided but not defined: -bad-flag\nUsage:"),
		// -h is treated as a bad flag
		progtest.ThatPosixsh("-h").
			ExitsWith(2).
			WritesStderrContaining("flag provided but not defined: -h\nUsage:"),
		progtest.ThatPosixsh("-help").
			WritesStdoutContaining("Usage: posixsh [flags] [script]"),
	)
}

func TestLogFlag(t *testing.T) {
	testutil.Setenv(t, "XDG_CONFIG_HOME", t.TempDir())
	testutil.InTempDir(t)
	progtest.Test(t, &testProgram{}, progtest.ThatPosixsh("-log", "log"))
	if _, err := os.Stat("log"); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestSpecialErrors(t *testing.T) {
	testutil.Setenv(t, "XDG_CONFIG_HOME", t.TempDir())
	progtest.Test(t, &testProgram{returnErr: BadUsage("lorem ipsum")},
		progtest.ThatPosixsh().ExitsWith(2).WritesStderrContaining("lorem ipsum\nUsage:"))
	progtest.Test(t, &testProgram{returnErr: Exit(3)},
		progtest.ThatPosixsh().ExitsWith(3))
	progtest.Test(t, &testProgram{returnErr: Exit(0)},
		progtest.ThatPosixsh())
	progtest.Test(t, &testProgram{returnErr: fmt.Errorf("plain")},
		progtest.ThatPosixsh().ExitsWith(2).WritesStderr("plain\n"))
}

func TestComposite(t *testing.T) {
	testutil.Setenv(t, "XDG_CONFIG_HOME", t.TempDir())
	progtest.Test(t,
		Composite(
			&testProgram{returnErr: NextProgram(func(fds [3]*os.File) {
				fds[1].WriteString("cleanup\n")
			})},
			&testProgram{writeStdout: "program 2\n"}),
		progtest.ThatPosixsh().WritesStdout("program 2\ncleanup\n"))
	progtest.Test(t,
		Composite(&testProgram{returnErr: ErrNextProgram}),
		progtest.ThatPosixsh().ExitsWith(2).
			WritesStderr("internal error: no suitable subprogram\n"))
}

func TestIsNextProgram(t *testing.T) {
	if !IsNextProgram(ErrNextProgram) || !IsNextProgram(NextProgram(func([3]*os.File) {})) {
		t.Errorf("IsNextProgram returns false for next program errors")
	}
	if IsNextProgram(BadUsage("x")) {
		t.Errorf("IsNextProgram returns true for BadUsage")
	}
}

func TestSharedFlags(t *testing.T) {
	testutil.Setenv(t, "XDG_CONFIG_HOME", t.TempDir())
	progtest.Test(t,
		Composite(&testProgram{sharedFlags: true, returnErr: ErrNextProgram},
			&testProgram{sharedFlags: true}),
		progtest.ThatPosixsh("-json", "-format", "yaml").
			WritesStdout("-json true -format yaml\n"))
}

func TestConfigFile(t *testing.T) {
	dir := testutil.Setenv(t, "XDG_CONFIG_HOME", t.TempDir())
	must.OK(os.MkdirAll(filepath.Join(dir, "posixsh"), 0o755))
	must.WriteFile(filepath.Join(dir, "posixsh", "config.toml"),
		"flag = \"from-config\"\njson = true\n")

	progtest.Test(t, &testProgram{customFlag: true, sharedFlags: true},
		progtest.ThatPosixsh().
			WritesStdout("-flag from-config\n-json true -format text\n"),
		progtest.ThatPosixsh("-flag", "from-args").
			WritesStdout("-flag from-args\n-json true -format text\n"))

	explicit := filepath.Join(t.TempDir(), "other.toml")
	must.WriteFile(explicit, "flag = 42\n")
	progtest.Test(t, &testProgram{customFlag: true},
		progtest.ThatPosixsh("-config", explicit).WritesStdout("-flag 42\n"),
		progtest.ThatPosixsh("-config", explicit+".missing").
			ExitsWith(2).WritesStderrContaining("cannot load config"))

	bad := filepath.Join(t.TempDir(), "bad.toml")
	must.WriteFile(bad, "nosuchflag = 1\n")
	progtest.Test(t, &testProgram{},
		progtest.ThatPosixsh("-config", bad).
			ExitsWith(2).WritesStderrContaining(`unknown option "nosuchflag"`))

	for _, key := range []string{"help", "config"} {
		cfg := filepath.Join(t.TempDir(), "cmdline.toml")
		must.WriteFile(cfg, key+" = \"true\"\n")
		progtest.Test(t, &testProgram{},
			progtest.ThatPosixsh("-config", cfg).
				ExitsWith(2).
				WritesStderrContaining(fmt.Sprintf("option %q can only be given on the command line", key)))
	}
}

func TestDefaultConfigPath(t *testing.T) {
	testutil.Setenv(t, "XDG_CONFIG_HOME", "/xdg")
	path, err := DefaultConfigPath()
	if err != nil || path != filepath.Join("/xdg", "posixsh", "config.toml") {
		t.Errorf("got %q, %v", path, err)
	}
	testutil.Unsetenv(t, "XDG_CONFIG_HOME")
	path, _ = DefaultConfigPath()
	if !strings.HasSuffix(path, filepath.Join(".config", "posixsh", "config.toml")) {
		t.Errorf("got %q", path)
	}
}

type testProgram struct {
	writeStdout string
	customFlag  bool
	sharedFlags bool
	returnErr   error

	flag   string
	json   *bool
	format *string
}

func (p *testProgram) RegisterFlags(f *FlagSet) {
	if p.customFlag {
		f.StringVar(&p.flag, "flag", "default", "a flag")
	}
	if p.sharedFlags {
		p.json = f.JSON()
		p.format = f.Format()
	}
}

func (p *testProgram) Run(fds [3]*os.File, args []string) error {
	if p.returnErr != nil {
		return p.returnErr
	}
	fds[1].WriteString(p.writeStdout)
	if p.customFlag {
		fmt.Fprintf(fds[1], "-flag %s\n", p.flag)
	}
	if p.sharedFlags {
		fmt.Fprintf(fds[1], "-json %v -format %s\n", *p.json, *p.format)
	}
	return nil
}
