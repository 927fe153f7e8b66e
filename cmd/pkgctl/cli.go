package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

const (
	cmdSync     = "sync"
	cmdStatus   = "status"
	cmdDiff     = "diff"
	cmdValidate = "validate"
	cmdFmt      = "fmt"
	cmdInit     = "init"
)

type commandDef struct {
	name    string
	summary string
	// flags lists the command-local flags accepted in addition to the globals.
	flags []string
}

var commandDefs = []commandDef{
	{cmdSync, "Synchronize system state with the manifest (default)", []string{"no-confirm", "only-install", "only-remove"}},
	{cmdStatus, "Display current synchronization status", []string{"format"}},
	{cmdDiff, "Show differences between the manifest and the system", []string{"format"}},
	{cmdValidate, "Validate manifest syntax", nil},
	{cmdFmt, "Print the manifest in canonical form", []string{"write"}},
	{cmdInit, "Write starter manifest and settings files", []string{"force"}},
}

var globalFlags = map[string]struct{}{
	"config": {}, "settings": {}, "dry-run": {}, "verbose": {}, "quiet": {}, "no-color": {}, "help": {},
}

type invocation struct {
	command string
	help    bool

	configPath   string
	settingsPath string
	dryRun       bool
	verbose      bool
	quiet        bool
	noColor      bool

	noConfirm   bool
	onlyInstall bool
	onlyRemove  bool
	format      string
	write       bool
	force       bool
}

func newFlagSet(inv *invocation) *pflag.FlagSet {
	fs := pflag.NewFlagSet("pkgctl", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	fs.StringVarP(&inv.configPath, "config", "c", "", "path to the package manifest")
	fs.StringVar(&inv.settingsPath, "settings", "", "path to the settings file")
	fs.BoolVarP(&inv.dryRun, "dry-run", "n", false, "show what would be done without executing")
	fs.BoolVarP(&inv.verbose, "verbose", "v", false, "enable verbose output")
	fs.BoolVarP(&inv.quiet, "quiet", "q", false, "suppress non-error output")
	fs.BoolVar(&inv.noColor, "no-color", false, "disable colored output")
	fs.BoolVarP(&inv.help, "help", "h", false, "show help")

	fs.BoolVar(&inv.noConfirm, "no-confirm", false, "sync: skip confirmation for removals")
	fs.BoolVar(&inv.onlyInstall, "only-install", false, "sync: only install missing packages")
	fs.BoolVar(&inv.onlyRemove, "only-remove", false, "sync: only remove orphans")
	fs.StringVar(&inv.format, "format", "text", "status/diff: output format (text, json, yaml)")
	fs.BoolVarP(&inv.write, "write", "w", false, "fmt: rewrite the manifest in place")
	fs.BoolVar(&inv.force, "force", false, "init: overwrite existing files")
	return fs
}

// parseArgs reads flags from anywhere on the command line. The first
// positional argument names the command; none means sync.
func parseArgs(args []string) (invocation, error) {
	var inv invocation
	fs := newFlagSet(&inv)
	if err := fs.Parse(args); err != nil {
		return invocation{}, fmt.Errorf("%v\n\nRun 'pkgctl --help' for usage.", err)
	}

	rest := fs.Args()
	if len(rest) > 0 && rest[0] == "help" {
		inv.help = true
		rest = rest[1:]
	}
	inv.command = cmdSync
	if len(rest) > 0 {
		inv.command = rest[0]
		rest = rest[1:]
	}
	def, ok := lookupCommand(inv.command)
	if !ok {
		return invocation{}, fmt.Errorf("unknown command %q\n\nRun 'pkgctl --help' for usage.", inv.command)
	}
	if len(rest) > 0 {
		return invocation{}, fmt.Errorf("%s: unexpected arguments %q", inv.command, strings.Join(rest, " "))
	}

	var misplaced []string
	fs.Visit(func(f *pflag.Flag) {
		if _, ok := globalFlags[f.Name]; ok {
			return
		}
		if !contains(def.flags, f.Name) {
			misplaced = append(misplaced, "--"+f.Name)
		}
	})
	if len(misplaced) > 0 {
		return invocation{}, fmt.Errorf("%s: flag %s not supported by this command", inv.command, strings.Join(misplaced, ", "))
	}
	if inv.onlyInstall && inv.onlyRemove {
		return invocation{}, fmt.Errorf("sync: --only-install and --only-remove are mutually exclusive")
	}
	return inv, nil
}

func lookupCommand(name string) (commandDef, bool) {
	for _, def := range commandDefs {
		if def.name == name {
			return def, true
		}
	}
	return commandDef{}, false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func printHelp(w io.Writer) {
	fmt.Fprintf(w, "Declarative package manager for Arch Linux\n\n")
	fmt.Fprintf(w, "Usage:\n  pkgctl [command] [flags]\n")

	fmt.Fprintf(w, "\nCommands:\n")
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	for _, def := range commandDefs {
		fmt.Fprintf(tw, "  %s\t%s\n", def.name, def.summary)
	}
	tw.Flush()

	var inv invocation
	fs := newFlagSet(&inv)
	var flagHelp strings.Builder
	fs.SetOutput(&flagHelp)
	fs.PrintDefaults()
	fmt.Fprintf(w, "\nFlags:\n%s", flagHelp.String())

	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  # Preview a sync\n  pkgctl sync --dry-run\n\n")
	fmt.Fprintf(w, "  # Show pending changes as yaml\n  pkgctl diff --format yaml\n")
}
