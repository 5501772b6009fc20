// Package style holds the fastrag palette and the marks that flag pipeline events
// in every renderer.
package style

import (
	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	White  = lipgloss.Color("#FFFFFF")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Dot     = "●"
)

// Mark is how one event type is flagged.
type Mark struct {
	// Icon precedes the event text. Progress has none so verbose logs stay plain.
	Icon string
	// Color is used by lipgloss renderers.
	Color lipgloss.Color
	// ANSI is the fallback for line renderers writing to CI logs.
	ANSI termenv.ANSIColor
}

// ForEvent returns the mark of an event type. Unknown types are treated as progress.
func ForEvent(t domain.EventType) Mark {
	switch t {
	case domain.EventCompleted:
		return Mark{Icon: Check, Color: Green, ANSI: termenv.ANSIGreen}
	case domain.EventException:
		return Mark{Icon: Cross, Color: Red, ANSI: termenv.ANSIRed}
	default:
		return Mark{Color: Slate, ANSI: termenv.ANSIBrightBlack}
	}
}

// Flag renders the event icon in its colour for lipgloss output. Progress yields "".
func Flag(t domain.EventType) string {
	m := ForEvent(t)
	if m.Icon == "" {
		return ""
	}
	return lipgloss.NewStyle().Foreground(m.Color).Render(m.Icon)
}
