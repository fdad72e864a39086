// Package buildinfo contains build information and the subprogram that shows
// it.
//
// Build information can be overridden during compilation by passing
// -ldflags "-X github.com/elves/posixsh/pkg/buildinfo.VersionSuffix=value"
// to "go build".
package buildinfo

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/elves/posixsh/pkg/prog"
)

// VersionBase is the version of posixsh without any suffix. On development
// commits, it identifies the next release.
const VersionBase = "0.2.0"

// VersionSuffix is appended to VersionBase to build the full version string.
// When empty, the suffix is derived from the VCS information embedded by the
// Go toolchain.
var VersionSuffix = ""

// Reproducible identifies whether the build is reproducible.
var Reproducible = "false"

// Type of Value.
type Type struct {
	Version      string `json:"version"`
	GoVersion    string `json:"goversion"`
	Reproducible bool   `json:"reproducible"`
}

// Value contains all the build information.
var Value = Type{
	Version:      version(),
	GoVersion:    runtime.Version(),
	Reproducible: Reproducible == "true",
}

func version() string {
	if VersionSuffix != "" {
		return VersionBase + VersionSuffix
	}
	return devVersion(VersionBase, "", debug.ReadBuildInfo)
}

// Computes the version of a development build. It follows the format of Go
// pseudo-versions when VCS information is available.
func devVersion(next, vcsOverride string, readBuildInfo func() (*debug.BuildInfo, bool)) string {
	if vcsOverride != "" {
		return next + "-dev.0." + vcsOverride
	}
	fallback := next + "-dev.unknown"
	bi, ok := readBuildInfo()
	if !ok {
		return fallback
	}
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		return strings.TrimPrefix(v, "v")
	}
	var revision, modified string
	var commitTime time.Time
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.time":
			t, err := time.Parse(time.RFC3339, setting.Value)
			if err != nil {
				return fallback
			}
			commitTime = t
		case "vcs.modified":
			modified = setting.Value
		}
	}
	if len(revision) < 12 || commitTime.IsZero() {
		return fallback
	}
	v := fmt.Sprintf("%s-dev.0.%s-%s",
		next, commitTime.UTC().Format("20060102150405"), revision[:12])
	if modified == "true" {
		v += "-dirty"
	}
	return v
}

// Program is the buildinfo subprogram.
type Program struct {
	version, buildinfo bool
	json               *bool
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	fs.BoolVar(&p.version, "version", false, "show version and quit")
	fs.BoolVar(&p.buildinfo, "buildinfo", false, "show build info and quit")
	p.json = fs.JSON()
}

func (p *Program) Run(fds [3]*os.File, _ []string) error {
	switch {
	case p.buildinfo:
		if *p.json {
			fmt.Fprintln(fds[1], mustToJSON(Value))
		} else {
			fmt.Fprintln(fds[1], "Version:", Value.Version)
			fmt.Fprintln(fds[1], "Go version:", Value.GoVersion)
		}
	case p.version:
		if *p.json {
			fmt.Fprintln(fds[1], mustToJSON(Value.Version))
		} else {
			fmt.Fprintln(fds[1], Value.Version)
		}
	default:
		return prog.ErrNextProgram
	}
	return nil
}

func mustToJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
