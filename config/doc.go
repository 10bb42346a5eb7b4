// Package config handles loading and parsing of configuration from YAML files,
// an optional .env file and environment variables. It defines the server address,
// artifact directory, prediction cache, metrics and logging settings.
package config
