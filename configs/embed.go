// Package configs embeds the configuration template shipped with the
// binaries. `ragctl init` writes it to ~/.mcp-hybrid-search/config.toml
// so a fresh install starts from a documented file instead of a blank
// one.
package configs

import _ "embed"

// ConfigTemplate is the annotated default configuration.
//
//go:embed config.example.toml
var ConfigTemplate string
