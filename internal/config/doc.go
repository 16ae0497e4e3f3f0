// Package config loads runtime configuration from multiple sources (YAML files,
// environment variables, CLI flags) with precedence: CLI flags > YAML config >
// Environment variables > Defaults. It covers the HTTP server, the default
// item manifest and the bounds placed on each partition search.
package config
