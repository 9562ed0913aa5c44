package main

import (
	_ "embed"
	"runtime/debug"
	"strings"
)

//go:embed VERSION
var embeddedVersion string

// Version reports the classgen release. A binary built from a tagged module
// reports that tag; a build from a checkout reports the VERSION file marked
// as devel, with the short commit when the toolchain stamped one.
func Version() string {
	info, _ := debug.ReadBuildInfo()
	return buildVersion(strings.TrimSpace(embeddedVersion), info)
}

func buildVersion(release string, info *debug.BuildInfo) string {
	if info == nil {
		return release
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	dev := "devel-" + release
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return dev + "+" + s.Value[:7]
		}
	}
	return dev
}
