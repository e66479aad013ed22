// Package buildinfo provides build-time version information for fintrack-cli.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/fintrack-go/internal/infra/buildinfo.Version=v1.0.0"
//
// GoVersion and, when not injected, Commit fall back to the module
// information embedded by the Go toolchain.
package buildinfo
