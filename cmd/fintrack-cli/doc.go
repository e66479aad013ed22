// Package main provides the entry point for fintrack-cli.
//
// fintrack-cli signs in to the FinTrack auth API and keeps the resulting
// session in a local credential store, so later invocations stay signed in:
//
//   - Sign in and out (login, logout, whoami)
//   - Token refresh (refresh)
//   - Password change (passwd)
//   - Profile updates (profile update)
//   - Local diagnostics (status, config, version)
//
// Usage:
//
//	fintrack-cli login --email jane@example.com
//	fintrack-cli -o json whoami
//	fintrack-cli --server https://api.example.com/api status --metrics
package main
