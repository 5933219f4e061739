// Package logging provides a unified logging interface for the heat solver.
// It abstracts the underlying logging implementation (zerolog in production,
// the standard logger in tests) behind a small Logger interface with typed fields.
package logging
