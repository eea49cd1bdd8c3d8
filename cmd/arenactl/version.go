package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=..." on release builds.
var (
	version = ""
	commit  = ""
	date    = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		writeVersion(os.Stdout, buildVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// versionInfo is what arenactl knows about its own build.
type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go"`
	Library   string `json:"arenakit"`
}

// buildVersion prefers linker-injected values and falls back to the module
// and VCS data the toolchain embeds in the binary.
func buildVersion() versionInfo {
	v := versionInfo{Version: version, Commit: commit, Date: date}
	if info, ok := debug.ReadBuildInfo(); ok {
		v.GoVersion = info.GoVersion
		if v.Version == "" && info.Main.Version != "" {
			v.Version = info.Main.Version
		}
		for _, dep := range info.Deps {
			if dep.Path == "github.com/joshuapare/arenakit" {
				v.Library = dep.Version
			}
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if v.Commit == "" {
					v.Commit = s.Value
				}
			case "vcs.time":
				if v.Date == "" {
					v.Date = s.Value
				}
			}
		}
	}
	if v.Version == "" {
		v.Version = "(devel)"
	}
	if v.Commit == "" {
		v.Commit = "none"
	}
	if v.Date == "" {
		v.Date = "unknown"
	}
	return v
}

func writeVersion(w io.Writer, v versionInfo) {
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(v)
		return
	}
	fmt.Fprintf(w, "arenactl %s\n", v.Version)
	fmt.Fprintf(w, "  commit: %s\n", v.Commit)
	fmt.Fprintf(w, "  built: %s\n", v.Date)
	if v.GoVersion != "" {
		fmt.Fprintf(w, "  go: %s\n", v.GoVersion)
	}
	if v.Library != "" {
		fmt.Fprintf(w, "  arenakit: %s\n", v.Library)
	}
}
