// HealthRelay keeps a local database of sleep and exercise sessions in sync
// with an external health-data provider, filing overlapping records in a
// conflict ledger for explicit resolution.
//
// Usage:
//
//	healthrelay setup                        # interactive first-run wizard
//	healthrelay daemon [--config <path>]     # backfill then poll continuously
//	healthrelay sync [--kind ...] [...]      # single sync pass then exit
//	healthrelay log sleep --bed ... --wake . # record a manual sleep session
//	healthrelay log exercise --start ... ... # record a manual exercise session
//	healthrelay conflicts list|resolve       # inspect and resolve conflicts
//	healthrelay status                       # show config, DB & provider state
//	healthrelay version                      # print version
package main

import (
	"fmt"
	"os"

	"github.com/willowtrack/healthrelay/internal/cli"
)

// version is set via -ldflags at build time.
var version = "dev"

func main() {
	if err := cli.NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
