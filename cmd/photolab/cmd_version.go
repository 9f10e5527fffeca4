package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/nvandessel/photolab/internal/physics"
	"github.com/spf13/cobra"
)

// versionInfo is the build description printed by the version command.
type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Go        string `json:"go"`
	Platform  string `json:"platform"`
	Materials int    `json:"materials"`
}

// currentVersion combines the ldflags values with the VCS stamp that
// `go install` and `go build` embed, preferring the ldflags.
func currentVersion() versionInfo {
	v := versionInfo{
		Version:   version,
		Commit:    commit,
		Date:      date,
		Go:        runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Materials: physics.CatalogSize(),
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}
	if mv := info.Main.Version; v.Version == devVersion && mv != "" && mv != "(devel)" {
		v.Version = mv
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && v.Commit == "none":
			v.Commit = s.Value[:min(12, len(s.Value))]
		case s.Key == "vcs.time" && v.Date == "unknown":
			v.Date = s.Value
		}
	}
	return v
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := currentVersion()
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "photolab %s (commit: %s, built: %s)\n", v.Version, v.Commit, v.Date)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s, %d photocathode materials\n", v.Go, v.Platform, v.Materials)
			return nil
		},
	}
}
