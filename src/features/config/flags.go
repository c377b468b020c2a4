package config

// This file implements CLI flag parsing. The config file carries the full
// option surface; flags cover the interactive knobs (watch paths, recursion,
// verbosity) and override whatever the file says.

import (
	"errors"
	"flag"
	"fmt"
	"os"
)

// version is shown by --version; override at build time with
// -ldflags "-X github.com/contre95/snapshotd/src/features/config.version=...".
var version = "0.3.0-dev"

// Flags holds the parsed command line.
type Flags struct {
	ConfigPath  string
	Recursive   bool
	Verbosity   int // 0 = quiet (warn), 1 = info, 2 = debug
	ShowVersion bool
	Paths       []string
}

// ParseFlags parses args (not including the program name) into a Flags.
// On --version the caller is expected to print and exit 0.
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{}
	var verbose, veryVerbose bool

	fs := flag.NewFlagSet("snapshotd", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs) }

	fs.StringVar(&f.ConfigPath, "config", "config.yaml", "Path to the YAML config file")
	fs.BoolVar(&f.Recursive, "recursive", false, "Watch directory targets recursively")
	fs.BoolVar(&f.Recursive, "r", false, "Same as --recursive")
	fs.BoolVar(&verbose, "v", false, "Set log level to info")
	fs.BoolVar(&veryVerbose, "vv", false, "Set log level to debug")
	fs.BoolVar(&f.ShowVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch {
	case veryVerbose:
		f.Verbosity = 2
	case verbose:
		f.Verbosity = 1
	}

	f.Paths = fs.Args()
	return f, nil
}

// Apply merges parsed flags into the configuration. Watch paths from the
// command line are appended to the file's; at least one target must come from
// somewhere.
func (f *Flags) Apply(cfg *Config) error {
	cfg.Watch.Paths = append(cfg.Watch.Paths, f.Paths...)
	if len(cfg.Watch.Paths) == 0 {
		return errors.New("no watch targets: pass at least one FILE_OR_DIRECTORY or set watch.paths in the config")
	}
	if f.Recursive {
		cfg.Watch.Recursive = true
	}
	switch f.Verbosity {
	case 1:
		cfg.Logger.Level = "info"
	case 2:
		cfg.Logger.Level = "debug"
	}
	return nil
}

// Version returns the version string printed by --version.
func Version() string {
	return "snapshotd v" + version
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, "Usage: snapshotd [flags] FILE_OR_DIRECTORY...")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Watches the given paths and renames newly created screenshots to")
	fmt.Fprintln(os.Stderr, "Screenshot-YYYYMMDD-HHMMSS-<checksum8><ext>.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Flags:")
	fs.PrintDefaults()
}
