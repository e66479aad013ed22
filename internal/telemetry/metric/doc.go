// Package metric provides Prometheus metrics for the FinTrack session client.
//
// Metrics include:
//
//   - Session operation counters by outcome
//   - The logged-in gauge and token rotation counters
//   - Gateway request latency histograms
//   - Credential store size gauges (registered by the storage layer)
//
// The client has no scrape endpoint; the registry is rendered on demand
// in Prometheus text format by the status command.
package metric
