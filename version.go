package main

import (
	"runtime/debug"
	"time"
)

// Set with -ldflags "-X main.commit=... -X main.buildDate=...". Otherwise
// filled from the VCS stamp of the build.
var (
	commit    = "dev"
	buildDate = ""
)

func init() {
	commit, buildDate = stampFrom(commit, buildDate, debug.ReadBuildInfo)
}

// stampFrom completes commit and date from the module build settings.
func stampFrom(commit, date string, read func() (*debug.BuildInfo, bool)) (string, string) {
	if info, ok := read(); ok {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if commit == "dev" && s.Value != "" {
					commit = s.Value
					if len(commit) > 7 {
						commit = commit[:7]
					}
				}
			case "vcs.time":
				if date == "" && s.Value != "" {
					if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
						date = t.Format("2006-01-02")
					}
				}
			}
		}
	}
	if date == "" {
		date = "unknown"
	}
	return commit, date
}
