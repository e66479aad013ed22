// Package config defines the fintrack-cli configuration structure.
//
// Configuration is layered by confloader: defaults, then the YAML file
// (default ~/.fintrack/cli.yaml), then FINTRACK_* environment variables,
// then command-line flags.
package config
