// Package main provides the entry point for the chatmerge CLI tool.
package main

import (
	"github.com/firekeep/chatmerge/cmd/chatmerge/cmd"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	cmd.Execute(version, commit, date, builtBy)
}
