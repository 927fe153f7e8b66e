package system

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/pkgctl/internal/tools"
	"github.com/rs/zerolog/log"
)

var (
	ErrCommandFailed    = errors.New("system: package command failed")
	ErrPermissionDenied = errors.New("system: permission denied")
	ErrHelperMissing    = errors.New("system: aur helper not installed")
	ErrHostname         = errors.New("system: hostname unavailable")
)

// Config selects binaries and the execution target.
type Config struct {
	Pacman string
	Helper string
	Sudo   string
	Runner tools.CommandRunner
	// Remote resolves the hostname through the runner instead of the local kernel.
	Remote bool
}

// Pacman runs package queries and changes through pacman and the AUR helper.
type Pacman struct {
	pacman string
	helper string
	sudo   string
	runner tools.CommandRunner
	remote bool
}

func NewPacman(cfg Config) *Pacman {
	p := &Pacman{
		pacman: strings.TrimSpace(cfg.Pacman),
		helper: strings.TrimSpace(cfg.Helper),
		sudo:   strings.TrimSpace(cfg.Sudo),
		runner: cfg.Runner,
		remote: cfg.Remote,
	}
	if p.pacman == "" {
		p.pacman = "pacman"
	}
	if p.helper == "" {
		p.helper = "yay"
	}
	if p.sudo == "" {
		p.sudo = "sudo"
	}
	if p.runner == nil {
		p.runner = tools.ExecRunner{}
	}
	return p
}

// Helper returns the configured AUR helper binary.
func (p *Pacman) Helper() string {
	return p.helper
}

func (p *Pacman) Hostname() (string, error) {
	if !p.remote {
		name, err := os.Hostname()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrHostname, err)
		}
		return name, nil
	}
	res, err := p.runner.Run("uname", "-n")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHostname, commandError("uname", []string{"-n"}, res, err))
	}
	lines := res.StdoutLines()
	if len(lines) == 0 {
		return "", fmt.Errorf("%w: empty uname output", ErrHostname)
	}
	return lines[0], nil
}

// ExplicitlyInstalled returns packages carrying the explicit-install reason.
func (p *Pacman) ExplicitlyInstalled() (map[string]struct{}, error) {
	return p.querySet("-Qqe")
}

// Installed returns every installed package whatever its install reason.
func (p *Pacman) Installed() (map[string]struct{}, error) {
	return p.querySet("-Qq")
}

// Orphans returns dependency packages nothing requires anymore.
func (p *Pacman) Orphans() ([]string, error) {
	res, err := p.runner.Run(p.pacman, "-Qqdt")
	if err == nil {
		return res.StdoutLines(), nil
	}
	// pacman exits 1 when the orphan query matches nothing.
	if res.ExitCode == 1 && len(strings.TrimSpace(string(res.Stderr))) == 0 {
		return []string{}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrCommandFailed, commandError(p.pacman, []string{"-Qqdt"}, res, err))
}

func (p *Pacman) InstallRepo(names []string) error {
	if len(names) == 0 {
		return nil
	}
	log.Debug().Int("count", len(names)).Msg("installing repository packages")
	return p.privileged(ErrCommandFailed, "-S", append([]string{"--needed", "--noconfirm"}, names...)...)
}

// InstallAUR runs the helper unprivileged; helpers refuse to build as root.
func (p *Pacman) InstallAUR(names []string) error {
	if len(names) == 0 {
		return nil
	}
	log.Debug().Int("count", len(names)).Str("helper", p.helper).Msg("installing aur packages")
	args := append([]string{"-S", "--needed", "--noconfirm"}, names...)
	return p.run(ErrCommandFailed, p.helper, args...)
}

func (p *Pacman) MarkExplicit(names []string) error {
	if len(names) == 0 {
		return nil
	}
	log.Debug().Int("count", len(names)).Msg("marking packages explicit")
	return p.privileged(ErrPermissionDenied, "-D", append([]string{"--asexplicit"}, names...)...)
}

// MarkAllAsDeps demotes every explicitly installed package to a dependency
// so that only the manifest decides what stays explicit.
func (p *Pacman) MarkAllAsDeps() error {
	names, err := p.query("-Qqe")
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return nil
	}
	log.Debug().Int("count", len(names)).Msg("marking packages as dependencies")
	return p.privileged(ErrPermissionDenied, "-D", append([]string{"--asdeps"}, names...)...)
}

// RemoveOrphans re-queries orphans and removes them with their unneeded
// dependencies and config backups.
func (p *Pacman) RemoveOrphans() error {
	orphans, err := p.Orphans()
	if err != nil {
		return err
	}
	if len(orphans) == 0 {
		return nil
	}
	log.Debug().Int("count", len(orphans)).Msg("removing orphaned packages")
	return p.privileged(ErrCommandFailed, "-Rns", append([]string{"--noconfirm"}, orphans...)...)
}

// CheckHelper verifies the AUR helper is on PATH.
func (p *Pacman) CheckHelper() error {
	res, err := p.runner.Run("which", p.helper)
	if err != nil {
		log.Debug().Str("helper", p.helper).Int("exit", res.ExitCode).Msg("aur helper lookup failed")
		return fmt.Errorf("%w: %s (install it first: git clone https://aur.archlinux.org/%s.git && cd %s && makepkg -si)",
			ErrHelperMissing, p.helper, p.helper, p.helper)
	}
	return nil
}

func (p *Pacman) query(flag string) ([]string, error) {
	res, err := p.runner.Run(p.pacman, flag)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommandFailed, commandError(p.pacman, []string{flag}, res, err))
	}
	return res.StdoutLines(), nil
}

func (p *Pacman) querySet(flag string) (map[string]struct{}, error) {
	names, err := p.query(flag)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(names))
	for _, name := range names {
		out[name] = struct{}{}
	}
	return out, nil
}

func (p *Pacman) privileged(kind error, op string, args ...string) error {
	full := append([]string{p.pacman, op}, args...)
	return p.run(kind, p.sudo, full...)
}

func (p *Pacman) run(kind error, name string, args ...string) error {
	log.Debug().Str("cmd", name).Str("args", strings.Join(args, " ")).Msg("exec")
	res, err := p.runner.Run(name, args...)
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", kind, commandError(name, args, res, err))
}

func commandError(name string, args []string, res tools.Result, err error) error {
	return fmt.Errorf(
		"cmd=%s args=%q exit=%d stdout=%q stderr=%q: %w",
		name,
		strings.Join(args, " "),
		res.ExitCode,
		strings.TrimSpace(string(res.Stdout)),
		strings.TrimSpace(string(res.Stderr)),
		err,
	)
}
