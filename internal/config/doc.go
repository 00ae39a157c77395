// Package config loads, validates, and persists tonearm's TOML configuration.
//
// Configuration resolves from ~/.config/tonearm/config.toml, then a local
// tonearm.toml, then built-in defaults. All path fields are expanded (~) and
// made absolute during load. The library roots (source_dir/target_dir) may be
// empty at startup; they are then selected at runtime through the path
// staging endpoints and written back here via Save.
package config
