// Package output renders fintrack-cli results.
//
// Three formats are supported, selected by the global --output flag:
//
//   - table: aligned columns via text/tabwriter (default)
//   - json: indented JSON
//   - yaml: YAML via gopkg.in/yaml.v3
//
// Structs render as FIELD/VALUE rows, slices of structs as one row per
// element. A `table:"-"` tag hides a field from the table view only.
package output
