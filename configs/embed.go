// Package configs provides the embedded configuration template for ritrova.
//
// The template is embedded at build time so `ritrova init` can write a
// commented starter config regardless of how the binary was installed.
// To change the template, edit config.example.yaml and rebuild.
package configs

import _ "embed"

// ConfigTemplate is the commented starter configuration written by
// `ritrova init`. Its values match the hardcoded defaults in
// internal/config, so a freshly written file changes nothing until edited.
//
//go:embed config.example.yaml
var ConfigTemplate string
