// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the application configuration structure
// including server settings, static upstreams, online config sources, strategy
// selection, and health check intervals.
package config
