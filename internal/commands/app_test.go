package commands

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/pkgctl/internal/config"
	"github.com/danmuck/pkgctl/internal/manifest"
	"github.com/danmuck/pkgctl/internal/output"
	"github.com/danmuck/pkgctl/internal/report"
	"github.com/danmuck/pkgctl/internal/system"
	"github.com/danmuck/pkgctl/internal/testutil/testlog"
)

type fakeSystem struct {
	host       string
	installed  map[string]struct{}
	present    map[string]struct{}
	orphans    [][]string
	helperErr  error
	installErr error
	calls      []string
}

func (f *fakeSystem) record(call string, names []string) {
	if len(names) > 0 {
		call += " " + strings.Join(names, ",")
	}
	f.calls = append(f.calls, call)
}

func (f *fakeSystem) Hostname() (string, error) { return f.host, nil }

func (f *fakeSystem) ExplicitlyInstalled() (map[string]struct{}, error) {
	f.record("installed", nil)
	return f.installed, nil
}

// Installed reports explicit packages plus any present only as dependencies.
func (f *fakeSystem) Installed() (map[string]struct{}, error) {
	f.record("installed-all", nil)
	return f.onHost(), nil
}

func (f *fakeSystem) onHost() map[string]struct{} {
	all := make(map[string]struct{}, len(f.installed)+len(f.present))
	for name := range f.installed {
		all[name] = struct{}{}
	}
	for name := range f.present {
		all[name] = struct{}{}
	}
	return all
}

func (f *fakeSystem) Orphans() ([]string, error) {
	f.record("orphans", nil)
	if len(f.orphans) == 0 {
		return []string{}, nil
	}
	next := f.orphans[0]
	if len(f.orphans) > 1 {
		f.orphans = f.orphans[1:]
	}
	return next, nil
}

func (f *fakeSystem) InstallRepo(names []string) error {
	f.record("install-repo", names)
	return f.installErr
}

func (f *fakeSystem) InstallAUR(names []string) error {
	f.record("install-aur", names)
	return f.installErr
}

func (f *fakeSystem) MarkExplicit(names []string) error {
	if len(names) == 0 {
		return nil
	}
	f.record("mark-explicit", names)
	all := f.onHost()
	for _, name := range names {
		if _, ok := all[name]; !ok {
			return fmt.Errorf("%w: error: package '%s' was not found", system.ErrPermissionDenied, name)
		}
	}
	return nil
}

func (f *fakeSystem) MarkAllAsDeps() error {
	f.record("mark-all-deps", nil)
	return nil
}

func (f *fakeSystem) RemoveOrphans() error {
	f.record("remove-orphans", nil)
	return nil
}

func (f *fakeSystem) CheckHelper() error {
	f.record("check-helper", nil)
	return f.helperErr
}

type scriptedPrompt struct {
	answers   []bool
	questions []string
}

func (p *scriptedPrompt) Confirm(question string) (bool, error) {
	p.questions = append(p.questions, question)
	if len(p.answers) == 0 {
		return false, nil
	}
	next := p.answers[0]
	p.answers = p.answers[1:]
	return next, nil
}

type harness struct {
	app    *App
	sys    *fakeSystem
	prompt *scriptedPrompt
	out    *bytes.Buffer
	opts   Options
}

func newHarness(t *testing.T, text string, sys *fakeSystem, opts Options) *harness {
	t.Helper()
	dir := t.TempDir()
	opts.ManifestPath = filepath.Join(dir, "pkg.conf")
	if opts.StateDir == "" {
		opts.StateDir = filepath.Join(dir, "state")
	}
	opts.Now = func() time.Time { return time.Unix(1700000000, 0) }
	if err := os.WriteFile(opts.ManifestPath, []byte(text), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	var out bytes.Buffer
	p := &scriptedPrompt{}
	return &harness{
		app:    NewApp(sys, output.NewPrinter(&out, &out, true), p, opts),
		sys:    sys,
		prompt: p,
		out:    &out,
		opts:   opts,
	}
}

func (h *harness) markInitialized(t *testing.T) {
	t.Helper()
	if err := os.MkdirAll(h.opts.StateDir, 0o755); err != nil {
		t.Fatalf("mkdir state: %v", err)
	}
	if err := os.WriteFile(h.app.MarkerPath(), nil, 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
}

func installedSet(names ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, name := range names {
		out[name] = struct{}{}
	}
	return out
}

func TestValidateReportsCounts(t *testing.T) {
	testlog.Start(t)
	h := newHarness(t, "## *\nbase\n## @h1\nnvidia\naur:yay\n", &fakeSystem{}, Options{})
	if err := h.app.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(h.out.String(), "2 sections, 3 total package entries") {
		t.Fatalf("unexpected output: %s", h.out.String())
	}
	if len(h.sys.calls) != 0 {
		t.Fatalf("validate must not touch the system: %v", h.sys.calls)
	}
}

func TestValidateParseErrorIsLinePinned(t *testing.T) {
	testlog.Start(t)
	h := newHarness(t, "## *\nbase\n##@h1\n", &fakeSystem{}, Options{})
	err := h.app.Validate()
	var perr *manifest.ParseError
	if !errors.As(err, &perr) || perr.Line != 3 {
		t.Fatalf("expected ParseError at line 3, got %v", err)
	}
}

func TestDiffListsChanges(t *testing.T) {
	testlog.Start(t)
	sys := &fakeSystem{host: "h1", installed: installedSet("base"), orphans: [][]string{{"old-lib"}}}
	h := newHarness(t, "## *\nbase\ngit\naur:yay\n", sys, Options{})
	if err := h.app.Diff(); err != nil {
		t.Fatalf("diff: %v", err)
	}
	out := h.out.String()
	for _, line := range []string{
		"+ git ",
		"+ aur:yay ",
		"// not installed (AUR)",
		"- old-lib ",
	} {
		if !strings.Contains(out, line) {
			t.Fatalf("diff output missing %q:\n%s", line, out)
		}
	}
	if strings.Contains(out, "+ base") {
		t.Fatalf("installed package listed as missing:\n%s", out)
	}
}

func TestDiffInSyncAndJSON(t *testing.T) {
	testlog.Start(t)
	sys := &fakeSystem{host: "h1", installed: installedSet("base")}
	h := newHarness(t, "## *\nbase\n", sys, Options{})
	if err := h.app.Diff(); err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !strings.Contains(h.out.String(), "System is in sync with configuration") {
		t.Fatalf("unexpected output: %s", h.out.String())
	}

	j := newHarness(t, "## *\nbase\n", &fakeSystem{host: "h1", installed: installedSet("base")}, Options{Format: report.FormatJSON})
	if err := j.app.Diff(); err != nil {
		t.Fatalf("diff json: %v", err)
	}
	if !strings.Contains(j.out.String(), `"in_sync": true`) {
		t.Fatalf("unexpected json: %s", j.out.String())
	}
}

func TestStatusSummary(t *testing.T) {
	testlog.Start(t)
	sys := &fakeSystem{host: "h1", installed: installedSet("base", "yay"), orphans: [][]string{{"old-lib"}}}
	h := newHarness(t, "## *\nbase\naur:yay\n## @h1\nnvidia\n## @h2\ntlp\n", sys, Options{})
	if err := h.app.Status(); err != nil {
		t.Fatalf("status: %v", err)
	}
	out := h.out.String()
	for _, line := range []string{
		"Hostname: h1",
		"  Common packages (## *): 2",
		"  Host-specific (## @h1): 1",
		"  Total configured: 3",
		"  Installed (official): 1",
		"  Installed (AUR): 1",
		"  Missing: 1",
		"    - nvidia",
		"  Orphans: 1",
		"    - old-lib",
		"  ## * (2 packages, 1 official + 1 AUR)",
		"  ## @h2 (1 packages - not current host)",
	} {
		if !strings.Contains(out, line) {
			t.Fatalf("status output missing %q:\n%s", line, out)
		}
	}
}

func TestStatusWritesMetrics(t *testing.T) {
	testlog.Start(t)
	metricsPath := filepath.Join(t.TempDir(), "pkgctl.prom")
	sys := &fakeSystem{host: "h1", installed: installedSet()}
	h := newHarness(t, "## *\nbase\n", sys, Options{MetricsFile: metricsPath, Quiet: true})
	if err := h.app.Status(); err != nil {
		t.Fatalf("status: %v", err)
	}
	if h.out.Len() != 0 {
		t.Fatalf("quiet status printed output: %s", h.out.String())
	}
	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(data), `pkgctl_packages_missing{host="h1",source="repo"} 1`) {
		t.Fatalf("unexpected metrics:\n%s", data)
	}
}

func TestSyncDryRunMakesNoChanges(t *testing.T) {
	testlog.Start(t)
	sys := &fakeSystem{host: "x", installed: installedSet(), orphans: [][]string{{"old-lib"}}}
	h := newHarness(t, "## *\nbase\naur:yay\n", sys, Options{})
	if err := h.app.Sync(SyncOptions{DryRun: true}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	want := []string{"check-helper", "installed", "orphans"}
	if !reflect.DeepEqual(sys.calls, want) {
		t.Fatalf("unexpected calls: %v", sys.calls)
	}
	out := h.out.String()
	for _, line := range []string{"Would install (official):", "  base", "Would install (AUR):", "  yay", "Would remove (orphans):", "  old-lib", "No changes made (dry run)"} {
		if !strings.Contains(out, line) {
			t.Fatalf("dry run output missing %q:\n%s", line, out)
		}
	}
}

func TestSyncAlreadyInSync(t *testing.T) {
	testlog.Start(t)
	sys := &fakeSystem{host: "x", installed: installedSet("base")}
	h := newHarness(t, "## *\nbase\n", sys, Options{})
	if err := h.app.Sync(SyncOptions{}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if !reflect.DeepEqual(sys.calls, []string{"installed", "orphans"}) {
		t.Fatalf("unexpected calls: %v", sys.calls)
	}
	if len(h.prompt.questions) != 0 {
		t.Fatalf("in-sync run must not prompt: %v", h.prompt.questions)
	}
}

func TestSyncParseErrorAbortsBeforeSystem(t *testing.T) {
	testlog.Start(t)
	sys := &fakeSystem{host: "x"}
	h := newHarness(t, "## *\nbase\naur:\n", sys, Options{})
	var perr *manifest.ParseError
	if err := h.app.Sync(SyncOptions{NoConfirm: true}); !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if len(sys.calls) != 0 {
		t.Fatalf("system touched after parse error: %v", sys.calls)
	}
}

func TestSyncHelperMissing(t *testing.T) {
	testlog.Start(t)
	sys := &fakeSystem{host: "x", helperErr: system.ErrHelperMissing}
	h := newHarness(t, "## *\naur:yay\n", sys, Options{})
	if err := h.app.Sync(SyncOptions{}); !errors.Is(err, system.ErrHelperMissing) {
		t.Fatalf("expected ErrHelperMissing, got %v", err)
	}
}

func TestSyncFullRun(t *testing.T) {
	testlog.Start(t)
	sys := &fakeSystem{
		host:      "h1",
		installed: installedSet("base"),
		present:   installedSet("zlib", "old-lib"),
		orphans:   [][]string{{"old-lib"}, {"old-lib", "stale-app"}},
	}
	h := newHarness(t, "## *\nbase\ngit\nzlib\naur:yay\n## @h2\ntlp\n", sys, Options{})
	h.markInitialized(t)
	h.prompt.answers = []bool{true}

	if err := h.app.Sync(SyncOptions{}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	want := []string{
		"check-helper",
		"installed",
		"orphans",
		"installed-all",
		"mark-all-deps",
		"mark-explicit base,zlib",
		"orphans",
		"remove-orphans",
		"install-repo git,zlib",
		"install-aur yay",
	}
	if !reflect.DeepEqual(sys.calls, want) {
		t.Fatalf("unexpected calls:\nwant: %v\ngot:  %v", want, sys.calls)
	}
	out := h.out.String()
	if !strings.Contains(out, "  stale-app") || !strings.Contains(out, "Removed 2 orphaned packages") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "Sync complete") {
		t.Fatalf("missing completion message:\n%s", out)
	}
}

func TestSyncMarksOnlyPackagesOnHost(t *testing.T) {
	testlog.Start(t)
	sys := &fakeSystem{host: "h1", installed: installedSet("git")}
	h := newHarness(t, "## *\ngit\nbase\n", sys, Options{})
	h.markInitialized(t)

	if err := h.app.Sync(SyncOptions{}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	want := []string{
		"installed",
		"orphans",
		"installed-all",
		"mark-all-deps",
		"mark-explicit git",
		"orphans",
		"install-repo base",
	}
	if !reflect.DeepEqual(sys.calls, want) {
		t.Fatalf("unexpected calls:\nwant: %v\ngot:  %v", want, sys.calls)
	}
}

func TestFakeSystemRejectsMarkingMissingPackage(t *testing.T) {
	testlog.Start(t)
	sys := &fakeSystem{installed: installedSet("git")}
	if err := sys.MarkExplicit([]string{"git", "base"}); !errors.Is(err, system.ErrPermissionDenied) {
		t.Fatalf("expected pacman-style failure for missing package, got %v", err)
	}
}

func TestSyncDeclinedRemovalCancels(t *testing.T) {
	testlog.Start(t)
	sys := &fakeSystem{host: "h1", installed: installedSet("base"), orphans: [][]string{{"old-lib"}}}
	h := newHarness(t, "## *\nbase\n", sys, Options{})
	h.markInitialized(t)
	h.prompt.answers = []bool{false}

	if err := h.app.Sync(SyncOptions{}); !errors.Is(err, ErrUserCancelled) {
		t.Fatalf("expected ErrUserCancelled, got %v", err)
	}
	for _, call := range sys.calls {
		if call == "remove-orphans" || strings.HasPrefix(call, "install-") {
			t.Fatalf("cancelled sync still ran %q", call)
		}
	}
}

func TestSyncOnlyInstallSkipsRemoval(t *testing.T) {
	testlog.Start(t)
	sys := &fakeSystem{host: "h1", installed: installedSet(), orphans: [][]string{{"old-lib"}}}
	h := newHarness(t, "## *\nbase\n", sys, Options{})
	h.markInitialized(t)

	if err := h.app.Sync(SyncOptions{OnlyInstall: true}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	want := []string{"installed", "orphans", "install-repo base"}
	if !reflect.DeepEqual(sys.calls, want) {
		t.Fatalf("unexpected calls: %v", sys.calls)
	}
}

func TestSyncOnlyRemoveNoConfirm(t *testing.T) {
	testlog.Start(t)
	sys := &fakeSystem{host: "h1", installed: installedSet(), orphans: [][]string{{"old-lib"}}}
	h := newHarness(t, "## *\nbase\n", sys, Options{})
	h.markInitialized(t)

	if err := h.app.Sync(SyncOptions{OnlyRemove: true, NoConfirm: true}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	want := []string{"installed", "orphans", "installed-all", "mark-all-deps", "orphans", "remove-orphans"}
	if !reflect.DeepEqual(sys.calls, want) {
		t.Fatalf("unexpected calls: %v", sys.calls)
	}
	if len(h.prompt.questions) != 0 {
		t.Fatalf("no-confirm run prompted: %v", h.prompt.questions)
	}
}

func TestSyncFirstRunGuard(t *testing.T) {
	testlog.Start(t)
	sys := &fakeSystem{host: "h1", installed: installedSet()}
	h := newHarness(t, "## *\nbase\n", sys, Options{})

	h.prompt.answers = []bool{false}
	if err := h.app.Sync(SyncOptions{}); !errors.Is(err, ErrUserCancelled) {
		t.Fatalf("expected ErrUserCancelled, got %v", err)
	}
	if _, err := os.Stat(h.app.MarkerPath()); !os.IsNotExist(err) {
		t.Fatalf("marker written after decline: %v", err)
	}

	h.prompt.answers = []bool{true}
	if err := h.app.Sync(SyncOptions{}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if _, err := os.Stat(h.app.MarkerPath()); err != nil {
		t.Fatalf("expected marker after accept: %v", err)
	}
	if !strings.Contains(h.out.String(), "First time setup detected") {
		t.Fatalf("missing first-run warning:\n%s", h.out.String())
	}
}

func TestSyncInstallFailurePropagates(t *testing.T) {
	testlog.Start(t)
	sys := &fakeSystem{host: "h1", installed: installedSet(), installErr: system.ErrCommandFailed}
	h := newHarness(t, "## *\nbase\n", sys, Options{})
	h.markInitialized(t)
	if err := h.app.Sync(SyncOptions{OnlyInstall: true}); !errors.Is(err, system.ErrCommandFailed) {
		t.Fatalf("expected ErrCommandFailed, got %v", err)
	}
}

func TestFmtRewritesManifest(t *testing.T) {
	testlog.Start(t)
	h := newHarness(t, "// Packages for every host.\n##  *\n  base // core\naur: yay\n// aur:paru\n", &fakeSystem{}, Options{})
	want := "// Packages for every host.\n## *\nbase // core\naur:yay\n// aur:paru\n"
	if err := h.app.Fmt(false); err != nil {
		t.Fatalf("fmt: %v", err)
	}
	if h.out.String() != want {
		t.Fatalf("unexpected fmt output: %q", h.out.String())
	}

	if err := h.app.Fmt(true); err != nil {
		t.Fatalf("fmt -w: %v", err)
	}
	data, err := os.ReadFile(h.opts.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if string(data) != want {
		t.Fatalf("unexpected rewritten manifest: %q", data)
	}
}

func TestFmtKeepsTemplateGuidance(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "pkg.conf")
	if err := config.WriteTemplate(path, config.TemplateManifest, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read template: %v", err)
	}

	var out bytes.Buffer
	app := NewApp(&fakeSystem{}, output.NewPrinter(&out, &out, true), &scriptedPrompt{}, Options{ManifestPath: path})
	if err := app.Fmt(true); err != nil {
		t.Fatalf("fmt -w: %v", err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if string(after) != string(before) {
		t.Fatalf("fmt changed the template\nbefore: %q\nafter:  %q", before, after)
	}
	if !strings.Contains(out.String(), "Already formatted") {
		t.Fatalf("unexpected fmt output: %q", out.String())
	}
}

func TestFmtRejectsInvalidManifestWithoutWriting(t *testing.T) {
	testlog.Start(t)
	h := newHarness(t, "base\n## *\n", &fakeSystem{}, Options{})
	var pe *manifest.ParseError
	if err := h.app.Fmt(true); !errors.As(err, &pe) {
		t.Fatalf("expected parse error, got %v", err)
	}
	data, err := os.ReadFile(h.opts.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if string(data) != "base\n## *\n" {
		t.Fatalf("invalid manifest was rewritten: %q", data)
	}
}

func TestInitWritesTemplates(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	var out bytes.Buffer
	app := NewApp(&fakeSystem{}, output.NewPrinter(&out, &out, true), &scriptedPrompt{}, Options{
		ManifestPath: filepath.Join(dir, "pkgctl", "pkg.conf"),
		SettingsPath: filepath.Join(dir, "pkgctl", "settings.toml"),
	})
	if err := app.Init(false); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := manifest.ParseFile(filepath.Join(dir, "pkgctl", "pkg.conf")); err != nil {
		t.Fatalf("template manifest invalid: %v", err)
	}
	if err := app.Init(false); err == nil {
		t.Fatalf("expected init to refuse overwriting")
	}
}
