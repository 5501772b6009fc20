// Package output builds the termenv outputs fastrag writes colours through.
package output

import (
	"io"
	"os"

	"github.com/muesli/termenv"
)

// Target says who reads an output.
type Target int

const (
	// Terminal outputs use the profile the terminal advertises.
	Terminal Target = iota
	// Log outputs stay on the 16 ANSI colours that CI log viewers render.
	Log
)

// Profile returns the colour profile for target. NO_COLOR and TERM=dumb disable
// colours for both targets.
func Profile(target Target) termenv.Profile {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return termenv.Ascii
	}
	if target == Log {
		return termenv.ANSI
	}
	return termenv.EnvColorProfile()
}

// New returns an output on w for target. A nil writer means stderr.
func New(w io.Writer, target Target) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}
	return termenv.NewOutput(w,
		termenv.WithProfile(Profile(target)),
		termenv.WithTTY(true),
	)
}
