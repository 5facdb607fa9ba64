// Package taxfinder holds application-level metadata shared by the CLI
// and the pipeline packages.
package taxfinder

var (
	// Version is the application version. Set by build flags.
	Version = "v0.1.0"

	// Build is the build timestamp. Set by build flags.
	Build = "n/a"
)
