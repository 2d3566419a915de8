// mockforge CLI - entry point for the mockforge mock server.
package main

import "github.com/mockforge/mockforge/pkg/cli"

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cli.Version = Version
	cli.Commit = Commit
	cli.BuildDate = BuildDate
	cli.Execute()
}
