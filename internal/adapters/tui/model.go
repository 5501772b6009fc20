// Package tui provides the interactive terminal view of a pipeline run.
package tui

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/ui/output"
	"github.com/agrospai/fastrag/internal/ui/style"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	listWidthRatio     = 0.45
	logPaneBorderWidth = 4
	barWidth           = 16
	maxLinesPerSpan    = 1000
)

// Status represents the current state of a span.
type Status string

const (
	// StatusRunning indicates the span is open.
	StatusRunning Status = "Running"
	// StatusDone indicates the span ended without error.
	StatusDone Status = "Done"
	// StatusError indicates the span ended with an error.
	StatusError Status = "Error"
)

// MsgPlan announces the planned experiments.
type MsgPlan struct {
	Names []string
}

// MsgSpanStart indicates a span has started.
type MsgSpanStart struct {
	SpanID    string
	ParentID  string
	Name      string
	Total     int
	StartTime time.Time
}

// MsgSpanEvent carries one task event of a span.
type MsgSpanEvent struct {
	SpanID string
	Event  domain.Event
}

// MsgSpanAdvance moves a span's progress by one unit.
type MsgSpanAdvance struct {
	SpanID string
}

// MsgSpanEnd indicates a span has ended.
type MsgSpanEnd struct {
	SpanID  string
	EndTime time.Time
	Err     error
}

// Node is one span in the tree.
type Node struct {
	ID         string
	Name       string
	Parent     *Node
	Children   []*Node
	Depth      int
	Status     Status
	Total      int
	Done       int
	Exceptions int
	Lines      []string
	Started    time.Time
	Elapsed    time.Duration
}

// Percent is the completed share of the span, 0 when the total is unknown.
func (n *Node) Percent() float64 {
	if n.Total <= 0 {
		return 0
	}
	return min(float64(n.Done)/float64(n.Total), 1)
}

func (n *Node) appendLine(line string) {
	n.Lines = append(n.Lines, line)
	if len(n.Lines) > maxLinesPerSpan {
		n.Lines = n.Lines[len(n.Lines)-maxLinesPerSpan:]
	}
}

// eventLine prefixes the event text with its flag.
func eventLine(ev domain.Event) string {
	if flag := style.Flag(ev.Type); flag != "" {
		return flag + " " + ev.Data
	}
	return ev.Data
}

// Model represents the main TUI state.
type Model struct {
	Plan        []string
	Roots       []*Node
	Nodes       map[string]*Node
	Flat        []*Node
	SelectedIdx int
	ListOffset  int
	ListHeight  int
	ListWidth   int
	Log         viewport.Model
	FollowMode  bool
	Verbose     bool
	Interrupted bool

	bar progress.Model
}

// NewModel creates a new TUI model writing colours for w. Progress events are
// listed only when verbose is set.
func NewModel(w io.Writer, verbose bool) Model {
	if w == nil {
		w = os.Stderr
	}
	lipgloss.SetColorProfile(output.New(w, output.Terminal).Profile)

	return Model{
		Nodes:      make(map[string]*Node),
		Log:        viewport.New(0, 0),
		FollowMode: true,
		Verbose:    verbose,
		bar: progress.New(
			progress.WithSolidFill(string(style.Iris)),
			progress.WithWidth(barWidth),
			progress.WithoutPercentage(),
		),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Selected returns the highlighted span.
func (m *Model) Selected() *Node {
	if m.SelectedIdx >= 0 && m.SelectedIdx < len(m.Flat) {
		return m.Flat[m.SelectedIdx]
	}
	return nil
}

func (m *Model) ensureVisible() {
	if m.ListHeight <= 0 {
		return
	}
	if m.SelectedIdx < m.ListOffset {
		m.ListOffset = m.SelectedIdx
	} else if m.SelectedIdx >= m.ListOffset+m.ListHeight {
		m.ListOffset = m.SelectedIdx - m.ListHeight + 1
	}
}

func (m *Model) flatten() {
	m.Flat = m.Flat[:0]
	var walk func(*Node)
	walk = func(n *Node) {
		m.Flat = append(m.Flat, n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range m.Roots {
		walk(r)
	}
}

func (m *Model) indexOf(n *Node) int {
	for i, f := range m.Flat {
		if f == n {
			return i
		}
	}
	return -1
}

// refreshLog shows the selected span's lines in the log pane.
func (m *Model) refreshLog() {
	n := m.Selected()
	if n == nil {
		m.Log.SetContent("")
		return
	}
	m.Log.SetContent(strings.Join(n.Lines, "\n"))
	if m.FollowMode {
		m.Log.GotoBottom()
	}
}

func (m *Model) follow(n *Node) {
	if !m.FollowMode {
		return
	}
	if i := m.indexOf(n); i >= 0 {
		m.SelectedIdx = i
		m.ensureVisible()
	}
}

// Update handles incoming messages and updates the model state.
//
//nolint:cyclop // message dispatch
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Interrupted = true
			return m, tea.Quit
		case "k", "up":
			if m.SelectedIdx > 0 {
				m.SelectedIdx--
				m.FollowMode = false
				m.ensureVisible()
			}
		case "j", "down":
			if m.SelectedIdx < len(m.Flat)-1 {
				m.SelectedIdx++
				m.FollowMode = false
				m.ensureVisible()
			}
		case "esc":
			m.FollowMode = true
			for i := len(m.Flat) - 1; i >= 0; i-- {
				if m.Flat[i].Status == StatusRunning {
					m.SelectedIdx = i
					break
				}
			}
			m.ensureVisible()
		default:
			var cmd tea.Cmd
			m.Log, cmd = m.Log.Update(msg)
			return m, cmd
		}
		m.refreshLog()

	case tea.WindowSizeMsg:
		m.ListWidth = int(float64(msg.Width) * listWidthRatio)
		header := lipgloss.Height(titleStyle.Render("TEST")) + 1
		m.ListHeight = max(msg.Height-header-1, 1)
		m.Log.Width = max(msg.Width-m.ListWidth-logPaneBorderWidth, 1)
		m.Log.Height = max(msg.Height-header, 1)
		m.ensureVisible()
		m.refreshLog()

	case MsgPlan:
		m.Plan = msg.Names

	case MsgSpanStart:
		n := &Node{ID: msg.SpanID, Name: msg.Name, Status: StatusRunning, Total: msg.Total, Started: msg.StartTime}
		if parent, ok := m.Nodes[msg.ParentID]; ok {
			n.Parent = parent
			n.Depth = parent.Depth + 1
			parent.Children = append(parent.Children, n)
		} else {
			m.Roots = append(m.Roots, n)
		}
		m.Nodes[msg.SpanID] = n
		selected := m.Selected()
		m.flatten()
		if selected != nil && !m.FollowMode {
			m.SelectedIdx = m.indexOf(selected)
		}
		m.follow(n)
		m.refreshLog()

	case MsgSpanEvent:
		n, ok := m.Nodes[msg.SpanID]
		if !ok {
			return m, nil
		}
		switch msg.Event.Type {
		case domain.EventException:
			n.Exceptions++
		case domain.EventProgress:
			if !m.Verbose {
				return m, nil
			}
		}
		n.appendLine(eventLine(msg.Event))
		if m.Selected() == n {
			m.refreshLog()
		}

	case MsgSpanAdvance:
		if n, ok := m.Nodes[msg.SpanID]; ok {
			n.Done++
		}

	case MsgSpanEnd:
		n, ok := m.Nodes[msg.SpanID]
		if !ok {
			return m, nil
		}
		n.Elapsed = msg.EndTime.Sub(n.Started)
		n.Status = StatusDone
		if msg.Err != nil {
			n.Status = StatusError
			n.appendLine(eventLine(domain.Exception(msg.Err)))
		}
		if m.Selected() == n {
			m.refreshLog()
		}
	}

	return m, nil
}
