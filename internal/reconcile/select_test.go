package reconcile

import (
	"reflect"
	"testing"

	"github.com/danmuck/pkgctl/internal/manifest"
	"github.com/danmuck/pkgctl/internal/testutil/testlog"
)

func repo(name string) manifest.Entry {
	return manifest.Entry{Name: name, Source: manifest.SourceRepository}
}

func aur(name string) manifest.Entry {
	return manifest.Entry{Name: name, Source: manifest.SourceAUR}
}

func section(scope manifest.Scope, entries ...manifest.Entry) manifest.Section {
	return manifest.Section{Scope: scope, Entries: entries}
}

func TestSelectUniversalOnly(t *testing.T) {
	testlog.Start(t)
	doc := manifest.Document{Sections: []manifest.Section{
		section(manifest.Universal(), repo("base"), repo("git"), aur("yay")),
	}}
	got := Select(doc, "myhost")
	want := DesiredSet{Repo: []string{"base", "git"}, AUR: []string{"yay"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected selection: got=%+v want=%+v", got, want)
	}
}

func TestSelectFiltersByHost(t *testing.T) {
	testlog.Start(t)
	doc, err := manifest.Parse("## *\nbase\n## @h1\nnvidia\n## @h2\ntlp\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := Select(doc, "h1")
	if !reflect.DeepEqual(got.Repo, []string{"base", "nvidia"}) {
		t.Fatalf("unexpected repo packages: %v", got.Repo)
	}
	if len(got.AUR) != 0 {
		t.Fatalf("unexpected aur packages: %v", got.AUR)
	}
}

func TestSelectDedupKeepsFirst(t *testing.T) {
	testlog.Start(t)
	doc := manifest.Document{Sections: []manifest.Section{
		section(manifest.Universal(), repo("firefox")),
		section(manifest.HostScope("h"), repo("firefox")),
	}}
	got := Select(doc, "h")
	if !reflect.DeepEqual(got.Repo, []string{"firefox"}) {
		t.Fatalf("expected single firefox, got %v", got.Repo)
	}
}

func TestSelectFirstDeclaredSourceWins(t *testing.T) {
	testlog.Start(t)
	doc := manifest.Document{Sections: []manifest.Section{
		section(manifest.Universal(), aur("code"), repo("neovim")),
		section(manifest.HostScope("h"), repo("code"), aur("neovim"), aur("paru")),
	}}
	got := Select(doc, "h")
	want := DesiredSet{Repo: []string{"neovim"}, AUR: []string{"code", "paru"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected selection: got=%+v want=%+v", got, want)
	}
}

func TestSelectInterleavesSameScopeSections(t *testing.T) {
	testlog.Start(t)
	doc := manifest.Document{Sections: []manifest.Section{
		section(manifest.HostScope("desktop"), repo("nvidia")),
		section(manifest.Universal(), repo("firefox")),
		section(manifest.HostScope("desktop"), repo("steam"), repo("nvidia")),
	}}
	got := Select(doc, "desktop")
	if !reflect.DeepEqual(got.Repo, []string{"nvidia", "firefox", "steam"}) {
		t.Fatalf("unexpected order: %v", got.Repo)
	}
}

func TestSelectNoMatchingSections(t *testing.T) {
	testlog.Start(t)
	doc := manifest.Document{Sections: []manifest.Section{
		section(manifest.HostScope("other"), repo("nvidia"), aur("yay")),
	}}
	got := Select(doc, "myhost")
	if got.Repo == nil || got.AUR == nil {
		t.Fatalf("expected non-nil empty slices, got %+v", got)
	}
	if got.Len() != 0 {
		t.Fatalf("expected empty selection, got %+v", got)
	}
}

func TestSelectHostIsCaseSensitive(t *testing.T) {
	testlog.Start(t)
	doc := manifest.Document{Sections: []manifest.Section{
		section(manifest.HostScope("Desktop"), repo("nvidia")),
	}}
	if got := Select(doc, "desktop"); got.Len() != 0 {
		t.Fatalf("expected no packages for mismatched case, got %+v", got)
	}
}

func TestSelectNeverReturnsDuplicates(t *testing.T) {
	testlog.Start(t)
	doc := manifest.Document{Sections: []manifest.Section{
		section(manifest.Universal(), repo("a"), repo("b"), repo("a"), aur("c")),
		section(manifest.HostScope("h"), aur("a"), aur("c"), repo("d")),
		section(manifest.Universal(), repo("d"), aur("e"), repo("b")),
	}}
	got := Select(doc, "h")
	seen := make(map[string]struct{})
	for _, name := range append(append([]string{}, got.Repo...), got.AUR...) {
		if _, ok := seen[name]; ok {
			t.Fatalf("duplicate package %q in %+v", name, got)
		}
		seen[name] = struct{}{}
	}
	want := DesiredSet{Repo: []string{"a", "b", "d"}, AUR: []string{"c", "e"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected selection: got=%+v want=%+v", got, want)
	}
}
