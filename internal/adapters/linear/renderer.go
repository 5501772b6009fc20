// Package linear provides a synchronous, line-oriented renderer for CI environments.
package linear

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/ui/output"
	"github.com/agrospai/fastrag/internal/ui/style"
	"github.com/muesli/termenv"
)

// Renderer implements ports.Renderer for CI/non-interactive environments.
// It outputs linear, chronological logs with span name prefixes.
type Renderer struct {
	stdout  io.Writer
	stderr  io.Writer
	output  *termenv.Output
	verbose bool

	mu    sync.Mutex
	spans map[string]*spanState
}

type spanState struct {
	name      string
	startTime time.Time
	total     int
	done      int
}

// NewRenderer creates a new Renderer. Progress events are printed only when verbose is set.
func NewRenderer(stdout, stderr io.Writer, verbose bool) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Renderer{
		stdout:  stdout,
		stderr:  stderr,
		output:  output.New(stderr, output.Log),
		verbose: verbose,
		spans:   make(map[string]*spanState),
	}
}

// Start is a no-op for linear renderer (synchronous).
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop is a no-op since every line is written as soon as it arrives.
func (r *Renderer) Stop() error {
	return nil
}

// Wait is a no-op for linear renderer (synchronous).
func (r *Renderer) Wait() error {
	return nil
}

// OnPlanEmit prints the planned units.
func (r *Renderer) OnPlanEmit(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.stderr, "Planning to run %d experiment(s)\n", len(names))
}

// OnTaskStart prints a span start message.
func (r *Renderer) OnTaskStart(spanID, _ /* parentID */, name string, total int, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.spans[spanID] = &spanState{name: name, startTime: startTime, total: total}

	prefix := r.output.String(fmt.Sprintf("[%s]", name)).Faint().String()
	_, _ = fmt.Fprintf(r.stderr, "%s Starting...\n", prefix)
}

// OnTaskEvent prints completion and exception events, and progress events in verbose mode.
func (r *Renderer) OnTaskEvent(spanID string, ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	span, ok := r.spans[spanID]
	if !ok {
		return
	}

	switch ev.Type {
	case domain.EventCompleted:
		r.printLinesLocked(r.stdout, span.name, r.flag(ev.Type), ev.Data)
	case domain.EventException:
		r.printLinesLocked(r.stderr, span.name, r.flag(ev.Type), ev.Data)
	default:
		if r.verbose {
			r.printLinesLocked(r.stdout, span.name, r.flag(ev.Type), ev.Data)
		}
	}
}

// flag is the coloured icon of an event type, empty for progress.
func (r *Renderer) flag(t domain.EventType) string {
	m := style.ForEvent(t)
	if m.Icon == "" {
		return ""
	}
	return r.output.String(m.Icon).Foreground(m.ANSI).String()
}

// OnTaskAdvance counts one finished unit of the span.
func (r *Renderer) OnTaskAdvance(spanID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if span, ok := r.spans[spanID]; ok {
		span.done++
	}
}

// OnTaskComplete prints the completion status.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	span, ok := r.spans[spanID]
	if !ok {
		return
	}
	delete(r.spans, spanID)

	duration := endTime.Sub(span.startTime)
	prefix := fmt.Sprintf("[%s]", span.name)

	progress := ""
	if span.total > 0 {
		progress = fmt.Sprintf(" (%d/%d)", span.done, span.total)
	}

	if err != nil {
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v%s: %v\n", prefix, r.flag(domain.EventException), duration, progress, err)
		return
	}
	_, _ = fmt.Fprintf(r.stderr, "%s %s Completed in %v%s\n", prefix, r.flag(domain.EventCompleted), duration, progress)
}

// printLinesLocked prints every non-empty line of data with the span name prefix.
// Must be called with r.mu held.
func (r *Renderer) printLinesLocked(w io.Writer, name, symbol, data string) {
	prefix := fmt.Sprintf("[%s]", name)
	if symbol != "" {
		prefix += " " + symbol
	}
	for line := range strings.Lines(data) {
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s %s\n", prefix, line)
	}
}
