// Package config loads the YAML configuration shared by the feeder binaries.
//
// Files may reference environment variables as ${VAR}; they are expanded
// before parsing so credentials stay out of the file. Every optional field
// has a default (see defaults.go), and Validate reports the first problem
// found using the field's YAML path.
package config
