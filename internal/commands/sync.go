package commands

import (
	"fmt"

	"github.com/danmuck/pkgctl/internal/reconcile"
	"github.com/rs/zerolog/log"
)

// SyncOptions narrows what a sync may change.
type SyncOptions struct {
	DryRun      bool
	NoConfirm   bool
	OnlyInstall bool
	OnlyRemove  bool
}

// Sync brings the system in line with the manifest.
func (a *App) Sync(opts SyncOptions) error {
	st, err := a.load()
	if err != nil {
		return err
	}
	if a.opts.Verbose {
		a.info(fmt.Sprintf("Configuration: %s", a.opts.ManifestPath))
		a.info(fmt.Sprintf("Hostname: %s", st.host))
		a.info(fmt.Sprintf("Desired packages: %d official, %d AUR", len(st.desired.Repo), len(st.desired.AUR)))
	}

	if len(st.desired.AUR) > 0 {
		if err := a.sys.CheckHelper(); err != nil {
			return err
		}
	}
	if err := a.query(&st); err != nil {
		return err
	}
	plan := st.plan

	if opts.DryRun {
		a.recordMetrics("sync", st, plan)
		a.printPlan(st.host, plan)
		return nil
	}
	if plan.Empty() {
		a.recordMetrics("sync", st, plan)
		a.success("System is already in sync with configuration")
		return nil
	}

	if err := a.checkFirstRun(); err != nil {
		return err
	}

	if !opts.OnlyInstall {
		if err := a.reconcileReasons(st.desired, opts.NoConfirm); err != nil {
			return err
		}
	}

	if !opts.OnlyRemove {
		if len(plan.InstallRepo) > 0 {
			a.info(fmt.Sprintf("Installing %d official packages...", len(plan.InstallRepo)))
			if err := a.sys.InstallRepo(plan.InstallRepo); err != nil {
				return err
			}
		}
		if len(plan.InstallAUR) > 0 {
			a.info(fmt.Sprintf("Installing %d AUR packages...", len(plan.InstallAUR)))
			if err := a.sys.InstallAUR(plan.InstallAUR); err != nil {
				return err
			}
		}
	}

	a.recordMetrics("sync", st, remaining(plan, opts))
	a.success("Sync complete")
	return nil
}

// reconcileReasons resets install reasons so only manifest packages stay
// explicit, then removes the orphans that leaves behind. Only packages
// already on the host are marked; missing ones become explicit when they
// are installed. The orphan list is queried again after remarking because
// demoted packages become orphans too.
func (a *App) reconcileReasons(desired reconcile.DesiredSet, noConfirm bool) error {
	present, err := a.sys.Installed()
	if err != nil {
		return err
	}
	if err := a.sys.MarkAllAsDeps(); err != nil {
		return err
	}
	if err := a.sys.MarkExplicit(onHost(desired.Repo, present)); err != nil {
		return err
	}
	if err := a.sys.MarkExplicit(onHost(desired.AUR, present)); err != nil {
		return err
	}

	orphans, err := a.sys.Orphans()
	if err != nil {
		return err
	}
	unwanted := reconcile.Plan(desired, nil, orphans).Remove
	if len(unwanted) == 0 {
		return nil
	}

	if !a.opts.Quiet {
		a.out.Warning("The following packages will be removed (orphans):")
		for _, name := range unwanted {
			a.out.Plain("  " + name)
		}
	}
	if !noConfirm {
		a.blank()
		ok, err := a.prompt.Confirm("Proceed with removal?")
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUserCancelled, err)
		}
		if !ok {
			return ErrUserCancelled
		}
	}

	if err := a.sys.RemoveOrphans(); err != nil {
		return err
	}
	log.Debug().Int("count", len(unwanted)).Msg("orphans removed")
	a.success(fmt.Sprintf("Removed %d orphaned packages", len(unwanted)))
	return nil
}

// onHost keeps the names present on the host, in order.
func onHost(names []string, present map[string]struct{}) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := present[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// remaining is the part of plan a sync with opts leaves undone.
func remaining(plan reconcile.ActionPlan, opts SyncOptions) reconcile.ActionPlan {
	left := reconcile.ActionPlan{InstallRepo: []string{}, InstallAUR: []string{}, Remove: []string{}}
	if opts.OnlyRemove {
		left.InstallRepo = plan.InstallRepo
		left.InstallAUR = plan.InstallAUR
	}
	if opts.OnlyInstall {
		left.Remove = plan.Remove
	}
	return left
}

func (a *App) printPlan(host string, plan reconcile.ActionPlan) {
	if a.opts.Quiet {
		return
	}
	a.out.DryRun(fmt.Sprintf("Configuration: %s", a.opts.ManifestPath))
	a.out.DryRun(fmt.Sprintf("Hostname: %s", host))
	a.out.Blank()

	groups := []struct {
		title string
		names []string
	}{
		{"Would install (official):", plan.InstallRepo},
		{"Would install (AUR):", plan.InstallAUR},
		{"Would remove (orphans):", plan.Remove},
	}
	for _, group := range groups {
		if len(group.names) == 0 {
			continue
		}
		a.out.DryRun(group.title)
		for _, name := range group.names {
			a.out.Plain("  " + name)
		}
		a.out.Blank()
	}

	if plan.Empty() {
		a.out.DryRun("No changes needed")
	} else {
		a.out.DryRun("No changes made (dry run)")
	}
}
