// Package version carries build metadata injected via -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	App       = "AuthCore"
	Version   string
	GitCommit string
	BuildTime string
)

// String returns a single-line version description for logs and the
// health endpoint
func String() string {
	v := Version
	if v == "" {
		v = "dev"
	}
	if GitCommit != "" {
		commit := GitCommit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		v += "+" + commit
	}
	return v
}

// PrintVersion prints the version information
func PrintVersion() {
	fmt.Printf("%s version %s\n", App, String())
	if BuildTime != "" {
		fmt.Printf("Build time: %s\n", BuildTime)
	}
	fmt.Printf("Go version: %s\n", runtime.Version())
}
