package reconcile

import "github.com/danmuck/pkgctl/internal/manifest"

// DesiredSet holds the unique packages a host should have, in first-seen order.
type DesiredSet struct {
	Repo []string `json:"repo" yaml:"repo"`
	AUR  []string `json:"aur" yaml:"aur"`
}

// Len returns the number of desired packages across both sources.
func (d DesiredSet) Len() int {
	return len(d.Repo) + len(d.AUR)
}

// All returns the union of both sources for membership checks.
func (d DesiredSet) All() map[string]struct{} {
	out := make(map[string]struct{}, d.Len())
	for _, name := range d.Repo {
		out[name] = struct{}{}
	}
	for _, name := range d.AUR {
		out[name] = struct{}{}
	}
	return out
}

// Select collects the packages of every section that applies to host.
//
// One seen set spans both sources: the first declaration of a name in
// document order decides its source, and later declarations are ignored even
// when they name the other source.
func Select(doc manifest.Document, host string) DesiredSet {
	desired := DesiredSet{Repo: []string{}, AUR: []string{}}
	seen := make(map[string]struct{})

	for _, section := range doc.Sections {
		if !section.Scope.Matches(host) {
			continue
		}
		for _, entry := range section.Entries {
			if _, ok := seen[entry.Name]; ok {
				continue
			}
			seen[entry.Name] = struct{}{}
			switch entry.Source {
			case manifest.SourceAUR:
				desired.AUR = append(desired.AUR, entry.Name)
			default:
				desired.Repo = append(desired.Repo, entry.Name)
			}
		}
	}
	return desired
}
