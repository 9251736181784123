// Command voicevault records a short clip from the microphone and reports
// which enrolled speaker it most likely belongs to.
//
// Usage:
//
//	voicevault [flags] <command> [args]
//
// Commands:
//
//	identify  - record, extract features and classify
//	record    - record a clip to a WAV file
//	features  - print the feature matrix shape of a WAV file
//	models    - describe speaker model artifacts
//	devices   - list audio input devices
//	history   - print past identifications
package main

import (
	"fmt"
	"os"

	"github.com/petems/voicevault/cmd/voicevault/commands"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	if err := commands.Execute(Version, Commit); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
