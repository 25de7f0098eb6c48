// Package logging wires log/slog with the console and JSON handlers used by
// the CLI, plus the attribute helpers and standard field keys shared across
// components.
package logging
