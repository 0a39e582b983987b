// Package config manages server configuration from a YAML file and
// environment variables, tracking the source of each value. Environment
// variables take precedence over the file, which takes precedence over
// built-in defaults.
package config
