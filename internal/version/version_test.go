package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func TestResolve_LdflagsWin(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.9.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "deadbeef"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	info := resolve("1.2.3", "abc123", "false", "2026-01-01T00:00:00Z", bi)
	if info.Version != "1.2.3" {
		t.Errorf("Version = %q, want 1.2.3", info.Version)
	}
	if info.Commit != "abc123" {
		t.Errorf("Commit = %q, want abc123", info.Commit)
	}
	if !info.Dirty {
		t.Error("vcs.modified should mark the build dirty")
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("Platform = %q", info.Platform)
	}
}

func TestResolve_BuildInfoFallback(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "deadbeef"},
			{Key: "vcs.time", Value: "2026-02-03T04:05:06Z"},
		},
	}

	info := resolve("dev", "unknown", "false", "unknown", bi)
	if info.Version != "0.4.1" {
		t.Errorf("Version = %q, want 0.4.1", info.Version)
	}
	if info.Commit != "deadbeef" || info.BuildDate != "2026-02-03T04:05:06Z" {
		t.Errorf("Commit/BuildDate = %q/%q", info.Commit, info.BuildDate)
	}
	if info.Dirty {
		t.Error("Dirty should be false")
	}
}

func TestResolve_DevelBuild(t *testing.T) {
	info := resolve("dev", "unknown", "false", "unknown", &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	if info.Version != "dev" {
		t.Errorf("Version = %q, want dev", info.Version)
	}

	info = resolve("dev", "unknown", "false", "unknown", nil)
	if info.Commit != "unknown" {
		t.Errorf("Commit = %q, want unknown", info.Commit)
	}
}

func TestFull(t *testing.T) {
	out := Full()
	if !strings.HasPrefix(out, "countryleaders ") {
		t.Errorf("Full() = %q, want countryleaders prefix", out)
	}
	for _, want := range []string{"Commit:", "Go version:", "OS/Arch:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Full() missing %q", want)
		}
	}
}
