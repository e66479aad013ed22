// Package command provides CLI command definitions for fintrack-cli.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: App, global flags, error printing
//   - runtime.go: per-invocation wiring of config, storage, gateway and session
//   - auth.go: login, logout, whoami, refresh, passwd
//   - profile.go: profile subcommand group
//   - status.go: status, config and version
//
// Commands follow a consistent pattern of parsing flags, calling the
// SessionManager, and formatting a view through the output package.
// Token values are never printed.
package command
