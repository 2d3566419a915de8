package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/mockforge/mockforge/pkg/cli/internal/output"
)

// BuildInfo holds the version metadata stamped in at build time via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// VersionOutput is the --json shape for the version command.
type VersionOutput struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show mockforge version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := VersionOutput{
			Version: Version,
			Commit:  Commit,
			Date:    BuildDate,
			Go:      runtime.Version(),
			OS:      runtime.GOOS,
			Arch:    runtime.GOARCH,
		}

		if jsonOutput {
			return output.JSON(out)
		}

		version := out.Version
		if len(version) > 0 && version[0] != 'v' {
			version = "v" + version
		}
		fmt.Printf("mockforge %s (%s, %s)\n", version, out.Commit, out.Date)
		fmt.Printf("%s %s/%s\n", out.Go, out.OS, out.Arch)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
