// Package prog supports building the posixsh command from subprograms.
//
// Each subprogram registers its own flags on a shared [FlagSet]. [Run] parses
// the command line, handles the flags common to all subprograms, and runs the
// first subprogram that does not return [ErrNextProgram].
package prog

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/elves/posixsh/pkg/logutil"
)

var logger = logutil.GetLogger("[prog] ")

// Program represents a subprogram.
type Program interface {
	// RegisterFlags registers the flags the subprogram uses.
	RegisterFlags(fs *FlagSet)
	// Run runs the subprogram. It may return ErrNextProgram to defer to the
	// next subprogram.
	Run(fds [3]*os.File, args []string) error
}

// Flags common to all subprograms.
type commonFlags struct {
	Log    string
	Help   bool
	Config string
}

func registerCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVar(&f.Log, "log", "", "a file to write debug log to")
	fs.BoolVar(&f.Help, "help", false, "show usage help and quit")
	fs.StringVar(&f.Config, "config", "",
		"path to a TOML file with default flag values (default $XDG_CONFIG_HOME/posixsh/config.toml)")
}

func usage(out io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(out, "Usage: posixsh [flags] [script]")
	fmt.Fprintln(out, "Supported flags:")
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// Run parses command-line flags and runs the first applicable subprogram. It
// returns the exit status of the program.
func Run(fds [3]*os.File, args []string, p Program) int {
	var f commonFlags
	fs := flag.NewFlagSet("posixsh", flag.ContinueOnError)
	// Error and usage will be printed explicitly.
	fs.SetOutput(io.Discard)
	registerCommonFlags(fs, &f)
	p.RegisterFlags(&FlagSet{FlagSet: fs})

	err := fs.Parse(args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			// (*flag.FlagSet).Parse returns ErrHelp when -h was requested; -help
			// is defined and handled below.
			fmt.Fprintln(fds[2], "flag provided but not defined: -h")
		} else {
			fmt.Fprintln(fds[2], err)
		}
		usage(fds[2], fs)
		return 2
	}

	if err := applyConfig(fs, f.Config); err != nil {
		fmt.Fprintln(fds[2], err)
		return 2
	}

	if f.Log != "" {
		err = logutil.SetOutputFile(f.Log)
		if err != nil {
			fmt.Fprintln(fds[2], err)
		}
	}

	if f.Help {
		usage(fds[1], fs)
		return 0
	}

	logger.Println("running with args", args)
	err = p.Run(fds, fs.Args())
	if err == nil {
		return 0
	}
	if np, ok := err.(nextProgramError); ok {
		np.runCleanups(fds)
		fmt.Fprintln(fds[2], "internal error: no suitable subprogram")
		return 2
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintln(fds[2], msg)
	}
	switch err := err.(type) {
	case badUsageError:
		usage(fds[2], fs)
	case exitError:
		return err.exit
	}
	return 2
}

// Composite returns a Program made up from other programs. It tries each
// program in turn, terminating at the first one that doesn't return
// ErrNextProgram. Cleanups attached with NextProgram are run in order once a
// program has run.
func Composite(programs ...Program) Program {
	return composite(programs)
}

type composite []Program

func (cp composite) RegisterFlags(f *FlagSet) {
	for _, p := range cp {
		p.RegisterFlags(f)
	}
}

func (cp composite) Run(fds [3]*os.File, args []string) error {
	var cleanups []func([3]*os.File)
	for _, p := range cp {
		err := p.Run(fds, args)
		if np, ok := err.(nextProgramError); ok {
			cleanups = append(cleanups, np.cleanups...)
			continue
		}
		for _, cleanup := range cleanups {
			cleanup(fds)
		}
		return err
	}
	return nextProgramError{cleanups}
}

// ErrNextProgram is a special error that may be returned by Program.Run that
// is part of a Composite program, indicating that the next program should be
// tried.
var ErrNextProgram error = nextProgramError{}

// NextProgram returns an error that is like ErrNextProgram, with cleanup
// functions to run once the next program has run.
func NextProgram(cleanups ...func([3]*os.File)) error {
	return nextProgramError{cleanups}
}

type nextProgramError struct{ cleanups []func([3]*os.File) }

func (nextProgramError) Error() string { return "internal error: no suitable subprogram" }

func (e nextProgramError) Is(target error) bool {
	_, ok := target.(nextProgramError)
	return ok
}

func (e nextProgramError) runCleanups(fds [3]*os.File) {
	for _, cleanup := range e.cleanups {
		cleanup(fds)
	}
}

// IsNextProgram reports whether err is ErrNextProgram or was made by
// NextProgram.
func IsNextProgram(err error) bool { return errors.Is(err, ErrNextProgram) }

// BadUsage returns a special error that may be returned by Program.Run. It
// causes the main function to print out a message, the usage information and
// exit with 2.
func BadUsage(msg string) error { return badUsageError{msg} }

type badUsageError struct{ msg string }

func (e badUsageError) Error() string { return e.msg }

// Exit returns a special error that may be returned by Program.Run. It causes
// the main function to exit with the given code without printing any error
// messages. Exit(0) returns nil.
func Exit(exit int) error {
	if exit == 0 {
		return nil
	}
	return exitError{exit}
}

type exitError struct{ exit int }

func (e exitError) Error() string { return "" }
