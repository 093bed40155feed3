package buildinfo

import (
	"strings"
	"testing"
)

func TestCurrent(t *testing.T) {
	info := Current()
	if info.Version != Version {
		t.Errorf("Version = %v, want %v", info.Version, Version)
	}
	if info.Commit != Commit {
		t.Errorf("Commit = %v, want %v", info.Commit, Commit)
	}
}

func TestTemplate(t *testing.T) {
	tmpl := Template()
	if !strings.HasPrefix(tmpl, "{{.Name}} version ") {
		t.Errorf("Template() = %q, want cobra name placeholder", tmpl)
	}
	if !strings.Contains(String(), "commit: "+Commit) {
		t.Errorf("String() = %q, missing commit", String())
	}
}
