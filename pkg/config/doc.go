// Package config loads engine configuration from YAML.
//
// Configuration covers the poll scheduler, the combo watcher registry,
// and the diagnostic log sinks. Every field has a sensible default;
// an empty file is a valid configuration.
package config
