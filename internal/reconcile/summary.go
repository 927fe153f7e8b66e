package reconcile

import "github.com/danmuck/pkgctl/internal/manifest"

// SectionSummary describes one manifest section relative to the current host.
type SectionSummary struct {
	Header  string `json:"header" yaml:"header"`
	Total   int    `json:"total" yaml:"total"`
	Repo    int    `json:"repo" yaml:"repo"`
	AUR     int    `json:"aur" yaml:"aur"`
	Current bool   `json:"current" yaml:"current"`
}

// Summary is the status report for one host.
type Summary struct {
	Host          string           `json:"host" yaml:"host"`
	CommonEntries int              `json:"common_entries" yaml:"common_entries"`
	HostEntries   int              `json:"host_entries" yaml:"host_entries"`
	Configured    int              `json:"configured" yaml:"configured"`
	InstalledRepo int              `json:"installed_repo" yaml:"installed_repo"`
	InstalledAUR  int              `json:"installed_aur" yaml:"installed_aur"`
	Plan          ActionPlan       `json:"plan" yaml:"plan"`
	Sections      []SectionSummary `json:"sections" yaml:"sections"`
}

// Summarize builds a status report. Entry counts are raw manifest counts;
// Configured and the installed counts use the deduplicated desired set.
func Summarize(doc manifest.Document, host string, desired DesiredSet, plan ActionPlan) Summary {
	s := Summary{
		Host:          host,
		Configured:    desired.Len(),
		InstalledRepo: len(desired.Repo) - len(plan.InstallRepo),
		InstalledAUR:  len(desired.AUR) - len(plan.InstallAUR),
		Plan:          plan,
		Sections:      make([]SectionSummary, 0, len(doc.Sections)),
	}

	for _, section := range doc.Sections {
		switch {
		case section.Scope.Kind == manifest.ScopeUniversal:
			s.CommonEntries += len(section.Entries)
		case section.Scope.Matches(host):
			s.HostEntries += len(section.Entries)
		}
		s.Sections = append(s.Sections, SectionSummary{
			Header:  section.Scope.String(),
			Total:   len(section.Entries),
			Repo:    section.Count(manifest.SourceRepository),
			AUR:     section.Count(manifest.SourceAUR),
			Current: section.Scope.Matches(host),
		})
	}
	return s
}
