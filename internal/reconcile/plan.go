package reconcile

// ActionPlan lists what a sync would change.
type ActionPlan struct {
	InstallRepo []string `json:"install_repo" yaml:"install_repo"`
	InstallAUR  []string `json:"install_aur" yaml:"install_aur"`
	Remove      []string `json:"remove" yaml:"remove"`
}

// Empty reports whether the plan has nothing to install or remove.
func (p ActionPlan) Empty() bool {
	return len(p.InstallRepo) == 0 && len(p.InstallAUR) == 0 && len(p.Remove) == 0
}

// Plan diffs desired packages against installed packages and orphan
// candidates. Output order follows the input order of each list.
func Plan(desired DesiredSet, installed map[string]struct{}, orphans []string) ActionPlan {
	wanted := desired.All()
	return ActionPlan{
		InstallRepo: missing(desired.Repo, installed),
		InstallAUR:  missing(desired.AUR, installed),
		Remove:      missing(orphans, wanted),
	}
}

func missing(names []string, present map[string]struct{}) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := present[name]; ok {
			continue
		}
		out = append(out, name)
	}
	return out
}

// Applied returns the installed set a host would have after the plan's
// installs succeed.
func (p ActionPlan) Applied(installed map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(installed)+len(p.InstallRepo)+len(p.InstallAUR))
	for name := range installed {
		out[name] = struct{}{}
	}
	for _, name := range p.InstallRepo {
		out[name] = struct{}{}
	}
	for _, name := range p.InstallAUR {
		out[name] = struct{}{}
	}
	return out
}
