package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	EnvManifest = "PKGCTL_CONFIG"
	EnvSettings = "PKGCTL_SETTINGS"
	EnvPacman   = "PACMAN"
	EnvHelper   = "YAY"
	EnvNoColor  = "NO_COLOR"
	EnvOwnColor = "PKGCTL_NO_COLOR"
	EnvHome     = "HOME"
)

// Settings is the resolved tool configuration handed to the command layer.
type Settings struct {
	Manifest    string
	Pacman      string
	Helper      string
	Sudo        string
	StateDir    string
	NoColor     bool
	LogLevel    string
	MetricsFile string
	Remote      Remote
}

// Remote targets another host over ssh. Empty Host means local execution.
type Remote struct {
	Host                        string
	Port                        string
	User                        string
	KeyPath                     string
	KnownHostsPath              string
	InsecureSkipHostKeyChecking bool
	Timeout                     time.Duration

	// PassphraseEnv names the variable holding the key passphrase.
	PassphraseEnv string
	Passphrase    []byte
}

// Enabled reports whether commands run on a remote host.
func (r Remote) Enabled() bool {
	return strings.TrimSpace(r.Host) != ""
}

type fileSettings struct {
	Manifest    string     `toml:"manifest"`
	Pacman      string     `toml:"pacman"`
	Helper      string     `toml:"aur_helper"`
	Sudo        string     `toml:"sudo"`
	StateDir    string     `toml:"state_dir"`
	NoColor     bool       `toml:"no_color"`
	LogLevel    string     `toml:"log_level"`
	MetricsFile string     `toml:"metrics_file"`
	Remote      fileRemote `toml:"remote"`
}

type fileRemote struct {
	Host                        string `toml:"host"`
	Port                        string `toml:"port"`
	User                        string `toml:"user"`
	KeyPath                     string `toml:"key_path"`
	KnownHosts                  string `toml:"known_hosts"`
	InsecureSkipHostKeyChecking bool   `toml:"insecure_skip_host_key_checking"`
	Timeout                     string `toml:"timeout"`
	PassphraseEnv               string `toml:"passphrase_env"`
}

// Env looks up one environment variable. The entry point passes os.LookupEnv.
type Env func(key string) (string, bool)

// Defaults returns settings rooted at home.
func Defaults(home string) Settings {
	return Settings{
		Manifest: filepath.Join(home, ".config", "pkgctl", "pkg.conf"),
		Pacman:   "pacman",
		Helper:   "yay",
		Sudo:     "sudo",
		StateDir: filepath.Join(home, ".config", "pkgctl"),
		Remote:   Remote{Timeout: 10 * time.Second},
	}
}

// DefaultSettingsPath is where Resolve looks when no path is given.
func DefaultSettingsPath(home string) string {
	return filepath.Join(home, ".config", "pkgctl", "settings.toml")
}

// Resolve layers defaults, the settings file and the environment. A missing
// settings file is only an error when settingsPath was given explicitly.
func Resolve(settingsPath string, env Env) (Settings, error) {
	if env == nil {
		env = func(string) (string, bool) { return "", false }
	}
	home, ok := env(EnvHome)
	if !ok || strings.TrimSpace(home) == "" {
		home = "/root"
	}
	cfg := Defaults(home)

	explicit := strings.TrimSpace(settingsPath) != ""
	path := strings.TrimSpace(settingsPath)
	if !explicit {
		if v, ok := env(EnvSettings); ok && strings.TrimSpace(v) != "" {
			path = strings.TrimSpace(v)
			explicit = true
		} else {
			path = DefaultSettingsPath(home)
		}
	}

	if err := LoadFile(path, &cfg); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			err = nil
		}
		if err != nil {
			return Settings{}, err
		}
	}

	applyEnv(&cfg, env)
	if err := resolvePassphrase(&cfg.Remote, env); err != nil {
		return Settings{}, err
	}
	cfg.Manifest = ExpandHome(cfg.Manifest, home)
	cfg.StateDir = ExpandHome(cfg.StateDir, home)
	cfg.MetricsFile = ExpandHome(cfg.MetricsFile, home)
	cfg.Remote.KeyPath = ExpandHome(cfg.Remote.KeyPath, home)
	cfg.Remote.KnownHostsPath = ExpandHome(cfg.Remote.KnownHostsPath, home)
	return cfg, nil
}

// LoadFile applies the keys defined in the TOML file at path onto cfg.
func LoadFile(path string, cfg *Settings) error {
	var raw fileSettings
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load settings (%s): %w", path, err)
	}

	setString := func(key string, value string, dst *string) {
		if meta.IsDefined(key) {
			if v := strings.TrimSpace(value); v != "" {
				*dst = v
			}
		}
	}
	setString("manifest", raw.Manifest, &cfg.Manifest)
	setString("pacman", raw.Pacman, &cfg.Pacman)
	setString("aur_helper", raw.Helper, &cfg.Helper)
	setString("sudo", raw.Sudo, &cfg.Sudo)
	setString("state_dir", raw.StateDir, &cfg.StateDir)
	setString("log_level", raw.LogLevel, &cfg.LogLevel)
	setString("metrics_file", raw.MetricsFile, &cfg.MetricsFile)
	if meta.IsDefined("no_color") {
		cfg.NoColor = raw.NoColor
	}

	return loadRemote(meta, raw.Remote, &cfg.Remote)
}

func loadRemote(meta toml.MetaData, raw fileRemote, dst *Remote) error {
	if meta.IsDefined("remote", "host") {
		dst.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("remote", "port") {
		dst.Port = strings.TrimSpace(raw.Port)
	}
	if meta.IsDefined("remote", "user") {
		dst.User = strings.TrimSpace(raw.User)
	}
	if meta.IsDefined("remote", "key_path") {
		dst.KeyPath = strings.TrimSpace(raw.KeyPath)
	}
	if meta.IsDefined("remote", "known_hosts") {
		dst.KnownHostsPath = strings.TrimSpace(raw.KnownHosts)
	}
	if meta.IsDefined("remote", "insecure_skip_host_key_checking") {
		dst.InsecureSkipHostKeyChecking = raw.InsecureSkipHostKeyChecking
	}
	if meta.IsDefined("remote", "passphrase_env") {
		dst.PassphraseEnv = strings.TrimSpace(raw.PassphraseEnv)
	}
	if meta.IsDefined("remote", "timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return fmt.Errorf("parse remote.timeout: %w", err)
		}
		dst.Timeout = d
	}
	return nil
}

func applyEnv(cfg *Settings, env Env) {
	if v, ok := env(EnvManifest); ok && strings.TrimSpace(v) != "" {
		cfg.Manifest = strings.TrimSpace(v)
	}
	if v, ok := env(EnvPacman); ok && strings.TrimSpace(v) != "" {
		cfg.Pacman = strings.TrimSpace(v)
	}
	if v, ok := env(EnvHelper); ok && strings.TrimSpace(v) != "" {
		cfg.Helper = strings.TrimSpace(v)
	}
	if _, ok := env(EnvNoColor); ok {
		cfg.NoColor = true
	}
	if _, ok := env(EnvOwnColor); ok {
		cfg.NoColor = true
	}
}

// resolvePassphrase reads the key passphrase from the variable named by
// remote.passphrase_env. The passphrase itself never lives in the file.
func resolvePassphrase(r *Remote, env Env) error {
	if r.PassphraseEnv == "" {
		return nil
	}
	v, ok := env(r.PassphraseEnv)
	if !ok {
		return fmt.Errorf("remote.passphrase_env names unset variable %s", r.PassphraseEnv)
	}
	r.Passphrase = []byte(v)
	return nil
}

// Validate rejects settings the command layer cannot run with.
func Validate(cfg Settings) error {
	if strings.TrimSpace(cfg.Manifest) == "" {
		return fmt.Errorf("settings missing manifest path")
	}
	if strings.TrimSpace(cfg.Pacman) == "" {
		return fmt.Errorf("settings missing pacman binary")
	}
	if cfg.Remote.Enabled() {
		if strings.TrimSpace(cfg.Remote.User) == "" {
			return fmt.Errorf("remote.user is required when remote.host is set")
		}
		if strings.TrimSpace(cfg.Remote.KeyPath) == "" {
			return fmt.Errorf("remote.key_path is required when remote.host is set")
		}
	}
	return nil
}

// ExpandHome replaces a leading ~/ in path with home.
func ExpandHome(path string, home string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(home, rest)
	}
	return path
}
