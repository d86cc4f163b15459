// Package emoji provides symbol constants for CLI output.
package emoji

// Symbols used for status lines printed by commands.
const (
	// Success marks a completed operation or a valid catalog.
	Success = "✓"

	// Error marks a failed operation or an invalid catalog.
	Error = "✗"

	// Stop marks a shutdown in progress.
	Stop = "■"

	// Warning marks a non-fatal problem.
	Warning = "!"

	// Live marks an update received from a push stream.
	Live = "●"
)
