package reconcile

import (
	"reflect"
	"testing"

	"github.com/danmuck/pkgctl/internal/manifest"
	"github.com/danmuck/pkgctl/internal/testutil/testlog"
)

func TestSummarizeCountsSectionsForHost(t *testing.T) {
	testlog.Start(t)
	doc, err := manifest.Parse("## *\nbase\ngit\naur:yay-bin\n\n## @desk\nsteam\ngit\n\n## @laptop\ntlp\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	desired := Select(doc, "desk")
	plan := Plan(desired, set("base", "git"), []string{"htop"})

	s := Summarize(doc, "desk", desired, plan)
	if s.CommonEntries != 3 || s.HostEntries != 2 {
		t.Fatalf("unexpected entry counts: common=%d host=%d", s.CommonEntries, s.HostEntries)
	}
	if s.Configured != 4 {
		t.Fatalf("configured = %d, want 4 after dedup", s.Configured)
	}
	if s.InstalledRepo != 2 || s.InstalledAUR != 0 {
		t.Fatalf("unexpected installed counts: repo=%d aur=%d", s.InstalledRepo, s.InstalledAUR)
	}

	want := []SectionSummary{
		{Header: "## *", Total: 3, Repo: 2, AUR: 1, Current: true},
		{Header: "## @desk", Total: 2, Repo: 2, AUR: 0, Current: true},
		{Header: "## @laptop", Total: 1, Repo: 1, AUR: 0, Current: false},
	}
	if !reflect.DeepEqual(s.Sections, want) {
		t.Fatalf("unexpected sections:\ngot=%+v\nwant=%+v", s.Sections, want)
	}
	if !reflect.DeepEqual(s.Plan.Remove, []string{"htop"}) {
		t.Fatalf("unexpected removals: %v", s.Plan.Remove)
	}
}

func TestSummarizeEmptyDocument(t *testing.T) {
	testlog.Start(t)
	s := Summarize(manifest.Document{}, "desk", DesiredSet{}, ActionPlan{})
	if s.Sections == nil || len(s.Sections) != 0 {
		t.Fatalf("expected empty non-nil sections, got %#v", s.Sections)
	}
	if s.Configured != 0 {
		t.Fatalf("configured = %d", s.Configured)
	}
}
