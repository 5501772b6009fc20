package tui

import (
	"fmt"
	"strings"

	"github.com/agrospai/fastrag/internal/ui/style"
	"github.com/charmbracelet/lipgloss"
)

// View renders the UI.
func (m *Model) View() string {
	if m.ListHeight == 0 {
		return "Initializing..."
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.spanList(),
		m.logPane(),
	)
}

func (m *Model) spanList() string {
	var s strings.Builder

	title := "FASTRAG"
	if len(m.Plan) > 0 {
		title = fmt.Sprintf("FASTRAG: %d experiment(s)", len(m.Plan))
	}
	s.WriteString(titleStyle.Render(title) + "\n\n")

	start := m.ListOffset
	end := min(m.ListOffset+m.ListHeight, len(m.Flat))
	start = min(start, end)

	for i := start; i < end; i++ {
		s.WriteString(m.renderRow(i, m.Flat[i]) + "\n")
	}

	return listStyle.Render(s.String())
}

func (m *Model) renderRow(index int, n *Node) string {
	rowStyle := statusStyle(n)

	cursor := "  "
	if index == m.SelectedIdx {
		cursor = selectedStyle.Render("> ")
		if n.Status == StatusRunning {
			rowStyle = selectedStyle
		}
	}

	row := fmt.Sprintf("%s%s %s", strings.Repeat("  ", n.Depth), statusIcon(n), n.Name)
	if n.Total > 0 {
		row += " " + m.bar.ViewAs(n.Percent()) + fmt.Sprintf(" %d/%d", n.Done, n.Total)
	}
	if n.Exceptions > 0 {
		row += " " + taskErrorStyle.Render(fmt.Sprintf("%s%d", style.Warning, n.Exceptions))
	}
	return cursor + rowStyle.Render(row)
}

func statusIcon(n *Node) string {
	switch n.Status {
	case StatusDone:
		return style.Check
	case StatusError:
		return style.Cross
	default:
		return style.Dot
	}
}

func statusStyle(n *Node) lipgloss.Style {
	switch n.Status {
	case StatusDone:
		return taskDoneStyle
	case StatusError:
		return taskErrorStyle
	default:
		return taskRunningStyle
	}
}

func (m *Model) logPane() string {
	header := titleStyle.Render("EVENTS (Waiting...)")
	if n := m.Selected(); n != nil {
		mode := " (Manual)"
		if m.FollowMode {
			mode = " (Following)"
		}
		header = titleStyle.Render("EVENTS: " + n.Name + mode)
	}

	return logStyle.Render(
		lipgloss.JoinVertical(
			lipgloss.Left,
			header,
			m.Log.View(),
		),
	)
}
