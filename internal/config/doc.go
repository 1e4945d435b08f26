// Package config provides the run configuration for cmsfinger: defaults,
// validation, the optional .cmsfinger YAML file and target list reading.
package config
