// Package confloader merges configuration layers with koanf.
//
// Layers, lowest to highest:
//
//  1. defaults (WithDefaults)
//  2. YAML file (WithConfigFile, WithOptionalConfigFile)
//  3. environment variables (WithEnvPrefix, default FINTRACK_)
//  4. overrides (WithOverrides), normally command-line flags
//
// Environment variables are matched against keys already loaded, so
// FINTRACK_GATEWAY_BASE_URL sets gateway.base_url rather than
// gateway.base.url.
package confloader
