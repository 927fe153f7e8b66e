package commands

import (
	"fmt"

	"github.com/danmuck/pkgctl/internal/reconcile"
	"github.com/danmuck/pkgctl/internal/report"
)

// Status prints a per-host summary of the manifest against the system.
func (a *App) Status() error {
	st, err := a.load()
	if err != nil {
		return err
	}
	if err := a.query(&st); err != nil {
		return err
	}
	a.recordMetrics("status", st, st.plan)

	summary := reconcile.Summarize(st.doc, st.host, st.desired, st.plan)
	if a.machineReadable() {
		return report.Encode(a.out.Writer(), a.opts.Format, summary)
	}
	if a.opts.Quiet {
		return nil
	}

	a.out.Info(fmt.Sprintf("Configuration: %s", a.opts.ManifestPath))
	a.out.Info(fmt.Sprintf("Hostname: %s", summary.Host))
	a.out.Blank()

	a.out.Plain("Package Summary:")
	a.out.Plain(fmt.Sprintf("  Common packages (## *): %d", summary.CommonEntries))
	a.out.Plain(fmt.Sprintf("  Host-specific (## @%s): %d", summary.Host, summary.HostEntries))
	a.out.Plain(fmt.Sprintf("  Total configured: %d", summary.Configured))
	a.out.Blank()

	a.out.Plain(fmt.Sprintf("  Installed (official): %d", summary.InstalledRepo))
	a.out.Plain(fmt.Sprintf("  Installed (AUR): %d", summary.InstalledAUR))
	a.out.Blank()

	plan := summary.Plan
	a.out.Plain(fmt.Sprintf("  Missing: %d", len(plan.InstallRepo)+len(plan.InstallAUR)))
	for _, name := range plan.InstallRepo {
		a.out.Plain("    - " + name)
	}
	for _, name := range plan.InstallAUR {
		a.out.Plain("    - aur:" + name)
	}
	a.out.Blank()

	a.out.Plain(fmt.Sprintf("  Orphans: %d", len(plan.Remove)))
	for _, name := range plan.Remove {
		a.out.Plain("    - " + name)
	}
	a.out.Blank()

	a.out.Plain("Sections in config:")
	for _, section := range summary.Sections {
		a.out.Plain(fmt.Sprintf("  %s (%s)", section.Header, sectionBreakdown(section)))
	}
	return nil
}

func sectionBreakdown(s reconcile.SectionSummary) string {
	suffix := ""
	if !s.Current {
		suffix = " - not current host"
	}
	if s.AUR > 0 {
		return fmt.Sprintf("%d packages, %d official + %d AUR%s", s.Total, s.Repo, s.AUR, suffix)
	}
	return fmt.Sprintf("%d packages%s", s.Total, suffix)
}
