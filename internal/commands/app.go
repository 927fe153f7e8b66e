package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/pkgctl/internal/manifest"
	"github.com/danmuck/pkgctl/internal/metrics"
	"github.com/danmuck/pkgctl/internal/output"
	"github.com/danmuck/pkgctl/internal/prompt"
	"github.com/danmuck/pkgctl/internal/reconcile"
	"github.com/danmuck/pkgctl/internal/report"
	"github.com/rs/zerolog/log"
)

var ErrUserCancelled = errors.New("user cancelled operation")

// System is the package database boundary the flows drive.
type System interface {
	Hostname() (string, error)
	ExplicitlyInstalled() (map[string]struct{}, error)
	Installed() (map[string]struct{}, error)
	Orphans() ([]string, error)
	InstallRepo(names []string) error
	InstallAUR(names []string) error
	MarkExplicit(names []string) error
	MarkAllAsDeps() error
	RemoveOrphans() error
	CheckHelper() error
}

// Options carries the resolved global settings for one invocation.
type Options struct {
	ManifestPath string
	SettingsPath string
	StateDir     string
	MetricsFile  string
	Quiet        bool
	Verbose      bool
	Format       report.Format
	Now          func() time.Time
}

type App struct {
	sys    System
	out    *output.Printer
	prompt prompt.Prompter
	opts   Options
}

func NewApp(sys System, out *output.Printer, p prompt.Prompter, opts Options) *App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Format == "" {
		opts.Format = report.FormatText
	}
	return &App{sys: sys, out: out, prompt: p, opts: opts}
}

// state is everything a read-only flow needs from one manifest and host.
type state struct {
	doc       manifest.Document
	host      string
	desired   reconcile.DesiredSet
	installed map[string]struct{}
	plan      reconcile.ActionPlan
}

// load parses the manifest before touching the system so a malformed file
// aborts without side effects.
func (a *App) load() (state, error) {
	doc, err := manifest.ParseFile(a.opts.ManifestPath)
	if err != nil {
		return state{}, err
	}
	host, err := a.sys.Hostname()
	if err != nil {
		return state{}, err
	}
	desired := reconcile.Select(doc, host)
	log.Debug().
		Str("host", host).
		Int("repo", len(desired.Repo)).
		Int("aur", len(desired.AUR)).
		Msg("selected packages")
	return state{doc: doc, host: host, desired: desired}, nil
}

func (a *App) query(st *state) error {
	installed, err := a.sys.ExplicitlyInstalled()
	if err != nil {
		return err
	}
	orphans, err := a.sys.Orphans()
	if err != nil {
		return err
	}
	st.installed = installed
	st.plan = reconcile.Plan(st.desired, installed, orphans)
	return nil
}

func (a *App) machineReadable() bool {
	return a.opts.Format != report.FormatText
}

func (a *App) recordMetrics(command string, st state, plan reconcile.ActionPlan) {
	if a.opts.MetricsFile == "" {
		return
	}
	snap := metrics.Snapshot{
		Host:        st.host,
		Command:     command,
		DesiredRepo: len(st.desired.Repo),
		DesiredAUR:  len(st.desired.AUR),
		MissingRepo: len(plan.InstallRepo),
		MissingAUR:  len(plan.InstallAUR),
		Orphaned:    len(plan.Remove),
		At:          a.opts.Now(),
	}
	if err := metrics.WriteTextfile(a.opts.MetricsFile, snap); err != nil {
		log.Warn().Err(err).Str("path", a.opts.MetricsFile).Msg("metrics write failed")
	}
}

func (a *App) success(msg string) {
	if !a.opts.Quiet {
		a.out.Success(msg)
	}
}

func (a *App) info(msg string) {
	if !a.opts.Quiet {
		a.out.Info(msg)
	}
}

func (a *App) plain(format string, args ...any) {
	if !a.opts.Quiet {
		a.out.Plain(fmt.Sprintf(format, args...))
	}
}

func (a *App) blank() {
	if !a.opts.Quiet {
		a.out.Blank()
	}
}
