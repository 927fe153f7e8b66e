package manifest

// ScopeKind selects which hosts a section applies to.
type ScopeKind int

const (
	// ScopeUniversal applies to every host (`## *`).
	ScopeUniversal ScopeKind = iota
	// ScopeHost applies only to one hostname (`## @name`).
	ScopeHost
)

// Scope is the header of one manifest section.
type Scope struct {
	Kind ScopeKind
	Host string
}

// Universal returns the scope shared by every host.
func Universal() Scope {
	return Scope{Kind: ScopeUniversal}
}

// HostScope returns a scope bound to one hostname.
func HostScope(host string) Scope {
	return Scope{Kind: ScopeHost, Host: host}
}

// Matches reports whether the scope includes host. Hostnames compare exactly.
func (s Scope) Matches(host string) bool {
	switch s.Kind {
	case ScopeUniversal:
		return true
	case ScopeHost:
		return s.Host == host
	default:
		return false
	}
}

// String renders the scope as its section header line.
func (s Scope) String() string {
	if s.Kind == ScopeHost {
		return sectionMarker + " @" + s.Host
	}
	return sectionMarker + " *"
}

// Source names where a package is installed from.
type Source int

const (
	SourceRepository Source = iota
	SourceAUR
)

func (s Source) String() string {
	if s == SourceAUR {
		return "aur"
	}
	return "repo"
}

// Entry is one package line.
type Entry struct {
	Name   string
	Source Source
}

// Section is a scope with its entries in declaration order.
type Section struct {
	Scope   Scope
	Entries []Entry
}

// Count returns the number of entries from source.
func (s Section) Count(source Source) int {
	n := 0
	for _, entry := range s.Entries {
		if entry.Source == source {
			n++
		}
	}
	return n
}

// Document is a parsed manifest. Sections keep their declared order and
// sections sharing a scope are not merged.
type Document struct {
	Sections []Section
}

// EntryCount returns the number of entries across all sections.
func (d Document) EntryCount() int {
	n := 0
	for _, section := range d.Sections {
		n += len(section.Entries)
	}
	return n
}
