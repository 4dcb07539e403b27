// Package configs provides embedded configuration templates for shotmcp.
//
// The template is embedded at build time so `shotmcp init` works from any
// distribution. Edit project-config.example.yaml and rebuild to change it.
package configs

import _ "embed"

// ProjectConfigTemplate is written to .shotmcp.yaml by `shotmcp init`.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
