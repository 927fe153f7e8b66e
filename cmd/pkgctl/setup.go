package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danmuck/pkgctl/internal/commands"
	"github.com/danmuck/pkgctl/internal/config"
	"github.com/danmuck/pkgctl/internal/logging"
	"github.com/danmuck/pkgctl/internal/output"
	"github.com/danmuck/pkgctl/internal/prompt"
	"github.com/danmuck/pkgctl/internal/report"
	"github.com/danmuck/pkgctl/internal/system"
	"github.com/danmuck/pkgctl/internal/tools"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type lookupFunc func(key string) (string, bool)

type session struct {
	settings config.Settings
	printer  *output.Printer
	app      *commands.App
}

// setup resolves settings, configures logging and builds the command app.
func setup(inv invocation, stdin io.Reader, stdout io.Writer, stderr io.Writer, env lookupFunc) (*session, error) {
	settings, err := resolveSettings(inv, env)
	if err != nil {
		return nil, err
	}
	logging.Configure(loggingConfig(inv, settings, env, stderr))

	format, err := report.ParseFormat(inv.format)
	if err != nil {
		return nil, err
	}

	if !isTerminal(stdout) {
		settings.NoColor = true
	}
	printer := output.NewPrinter(stdout, stderr, settings.NoColor)
	runner := newRunner(settings.Remote)
	if remote, ok := runner.(tools.SSHRunner); ok {
		log.Debug().Str("target", remote.Target()).Msg("running package commands over ssh")
	}
	pacman := system.NewPacman(system.Config{
		Pacman: settings.Pacman,
		Helper: settings.Helper,
		Sudo:   settings.Sudo,
		Runner: runner,
		Remote: settings.Remote.Enabled(),
	})
	log.Debug().
		Str("manifest", settings.Manifest).
		Str("pacman", settings.Pacman).
		Str("helper", settings.Helper).
		Bool("remote", settings.Remote.Enabled()).
		Msg("settings resolved")

	app := commands.NewApp(pacman, printer, prompt.NewTerminal(stdin, stdout), commands.Options{
		ManifestPath: settings.Manifest,
		SettingsPath: settingsPath(inv, env),
		StateDir:     settings.StateDir,
		MetricsFile:  settings.MetricsFile,
		Quiet:        inv.quiet,
		Verbose:      inv.verbose,
		Format:       format,
	})
	return &session{settings: settings, printer: printer, app: app}, nil
}

// resolveSettings layers command-line flags over the settings file and environment.
func resolveSettings(inv invocation, env lookupFunc) (config.Settings, error) {
	path, lookup := inv.settingsPath, config.Env(env)
	if inv.command == cmdInit {
		// init creates the settings file, so only an existing default is read.
		path = ""
		lookup = func(key string) (string, bool) {
			if key == config.EnvSettings {
				return "", false
			}
			return env(key)
		}
	}
	settings, err := config.Resolve(path, lookup)
	if err != nil {
		return config.Settings{}, err
	}
	if path := strings.TrimSpace(inv.configPath); path != "" {
		settings.Manifest = config.ExpandHome(path, homeDir(env))
	}
	if inv.noColor {
		settings.NoColor = true
	}
	if err := config.Validate(settings); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

// loggingConfig orders level sources from weakest to strongest: profile
// default, settings file, environment, then --verbose or --quiet.
func loggingConfig(inv invocation, settings config.Settings, env lookupFunc, out io.Writer) logging.Config {
	cfg := logging.DefaultConfig(logging.ProfileRuntime)
	cfg.Out = out
	cfg.NoColor = settings.NoColor
	if lvl, ok := logging.ParseLevel(settings.LogLevel); ok {
		cfg.Level = lvl
	}
	logging.ApplyEnv(&cfg, func(key string) string {
		v, _ := env(key)
		return v
	})
	switch {
	case inv.verbose:
		cfg.Level = zerolog.DebugLevel
	case inv.quiet:
		cfg.Level = zerolog.ErrorLevel
	}
	return cfg
}

func newRunner(remote config.Remote) tools.CommandRunner {
	if !remote.Enabled() {
		return tools.ExecRunner{}
	}
	return tools.SSHRunner{
		Host:                        remote.Host,
		Port:                        remote.Port,
		User:                        remote.User,
		KeyPath:                     remote.KeyPath,
		KnownHostsPath:              remote.KnownHostsPath,
		InsecureSkipHostKeyChecking: remote.InsecureSkipHostKeyChecking,
		Timeout:                     remote.Timeout,
		Passphrase:                  remote.Passphrase,
	}
}

// settingsPath is where init writes the settings template.
func settingsPath(inv invocation, env lookupFunc) string {
	home := homeDir(env)
	if path := strings.TrimSpace(inv.settingsPath); path != "" {
		return config.ExpandHome(path, home)
	}
	if v, ok := env(config.EnvSettings); ok && strings.TrimSpace(v) != "" {
		return config.ExpandHome(strings.TrimSpace(v), home)
	}
	return config.DefaultSettingsPath(home)
}

// isTerminal reports false only for files known not to be a terminal, so
// buffers used in tests keep the configured color setting.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return true
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func homeDir(env lookupFunc) string {
	if v, ok := env(config.EnvHome); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return "/root"
}

// newErrorPrinter is used before settings exist, so color follows the environment only.
func newErrorPrinter(stderr io.Writer, env lookupFunc) *output.Printer {
	_, noColor := env(config.EnvNoColor)
	if _, own := env(config.EnvOwnColor); own {
		noColor = true
	}
	return output.NewPrinter(io.Discard, stderr, noColor)
}

func dispatch(rt *session, inv invocation) error {
	app := rt.app
	switch inv.command {
	case cmdSync:
		return app.Sync(commands.SyncOptions{
			DryRun:      inv.dryRun,
			NoConfirm:   inv.noConfirm,
			OnlyInstall: inv.onlyInstall,
			OnlyRemove:  inv.onlyRemove,
		})
	case cmdStatus:
		return app.Status()
	case cmdDiff:
		return app.Diff()
	case cmdValidate:
		return app.Validate()
	case cmdFmt:
		return app.Fmt(inv.write)
	case cmdInit:
		return app.Init(inv.force)
	default:
		return fmt.Errorf("unknown command %q", inv.command)
	}
}
