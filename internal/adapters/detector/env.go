// Package detector chooses between the interactive and the line-oriented renderer.
package detector

import (
	"os"
	"strings"

	"github.com/agrospai/fastrag/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

// OutputMode represents the rendering mode for the application.
type OutputMode int

const (
	// ModeAuto automatically detects the appropriate mode.
	ModeAuto OutputMode = iota
	// ModeTUI forces the interactive TUI renderer.
	ModeTUI
	// ModeLinear forces the linear CI renderer.
	ModeLinear
)

func (m OutputMode) String() string {
	switch m {
	case ModeTUI:
		return "tui"
	case ModeLinear:
		return "linear"
	default:
		return "auto"
	}
}

// ciVars are set by common CI providers.
var ciVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "BUILDKITE", "JENKINS_URL"}

// DetectEnvironment returns the recommended output mode for the current process.
func DetectEnvironment() OutputMode {
	return Detect(os.Getenv, term.IsTerminal(int(os.Stdout.Fd())))
}

// Detect picks linear output when stdout is not a terminal, when a CI provider
// is detected or when TERM is dumb. ModeAuto means the TUI may be used.
func Detect(getenv func(string) string, isTTY bool) OutputMode {
	if !isTTY || getenv("TERM") == "dumb" {
		return ModeLinear
	}
	for _, name := range ciVars {
		v := strings.ToLower(getenv(name))
		if v != "" && v != "false" && v != "0" {
			return ModeLinear
		}
	}
	return ModeAuto
}

// ParseMode reads the --output flag. Accepted values are auto, tui, linear and ci.
func ParseMode(flag string) (OutputMode, error) {
	switch strings.ToLower(flag) {
	case "auto", "":
		return ModeAuto, nil
	case "tui":
		return ModeTUI, nil
	case "linear", "ci":
		return ModeLinear, nil
	default:
		return ModeAuto, zerr.With(zerr.Wrap(domain.ErrInvalidOutputMode, "parse output mode"), "value", flag)
	}
}

// ResolveMode applies the user's choice to the detected mode. An explicit mode
// wins; auto falls back to detection, where ModeAuto resolves to the TUI.
func ResolveMode(detected, requested OutputMode) OutputMode {
	if requested != ModeAuto {
		return requested
	}
	if detected == ModeLinear {
		return ModeLinear
	}
	return ModeTUI
}
