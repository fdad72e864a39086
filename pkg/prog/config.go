package prog

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// DefaultConfigPath returns the path of the config file used when -config is
// not given: $XDG_CONFIG_HOME/posixsh/config.toml, falling back to
// ~/.config/posixsh/config.toml.
func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "posixsh", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "posixsh", "config.toml"), nil
}

// Flags that select what to run or supply code, which a config file may not
// set.
var commandLineOnly = map[string]bool{
	"config": true, "help": true, "c": true,
	"lsp": true, "version": true, "buildinfo": true,
}

// Applies the default flag values in a config file. The keys of the file are
// flag names; flags given on the command line take precedence. A missing
// default config file is not an error, but a missing explicit one is.
func applyConfig(fs *flag.FlagSet, path string) error {
	explicit := path != ""
	if !explicit {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			logger.Println("no default config path:", err)
			return nil
		}
	}
	var values map[string]any
	_, err := toml.DecodeFile(path, &values)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("cannot load config: %w", err)
	}
	logger.Println("loaded config", path)

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if fs.Lookup(name) == nil {
			return fmt.Errorf("%s: unknown option %q", path, name)
		}
		if commandLineOnly[name] {
			return fmt.Errorf("%s: option %q can only be given on the command line", path, name)
		}
		if set[name] {
			continue
		}
		if err := fs.Set(name, fmt.Sprint(values[name])); err != nil {
			return fmt.Errorf("%s: bad value for %q: %w", path, name, err)
		}
	}
	return nil
}
