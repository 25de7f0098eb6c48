// Package config loads, normalizes, and validates the TOML configuration,
// including the ordered tier policy handed to the classifier.
package config
