package commands

import (
	"github.com/danmuck/pkgctl/internal/reconcile"
	"github.com/danmuck/pkgctl/internal/report"
)

// DiffReport is the machine-readable diff output.
type DiffReport struct {
	Host    string               `json:"host" yaml:"host"`
	Desired reconcile.DesiredSet `json:"desired" yaml:"desired"`
	Plan    reconcile.ActionPlan `json:"plan" yaml:"plan"`
	InSync  bool                 `json:"in_sync" yaml:"in_sync"`
}

// Diff shows what a sync would install and remove.
func (a *App) Diff() error {
	st, err := a.load()
	if err != nil {
		return err
	}
	if err := a.query(&st); err != nil {
		return err
	}
	a.recordMetrics("diff", st, st.plan)

	if a.machineReadable() {
		return report.Encode(a.out.Writer(), a.opts.Format, DiffReport{
			Host:    st.host,
			Desired: st.desired,
			Plan:    st.plan,
			InSync:  st.plan.Empty(),
		})
	}
	if a.opts.Quiet {
		return nil
	}

	for _, name := range st.plan.InstallRepo {
		a.out.Added(name, "// not installed")
	}
	for _, name := range st.plan.InstallAUR {
		a.out.Added("aur:"+name, "// not installed (AUR)")
	}
	for _, name := range st.plan.Remove {
		a.out.Removed(name, "// not in config, would be removed")
	}
	if st.plan.Empty() {
		a.out.Success("System is in sync with configuration")
	}
	return nil
}
