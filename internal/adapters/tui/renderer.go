package tui

import (
	"context"
	"time"

	"github.com/agrospai/fastrag/internal/core/domain"
	tea "github.com/charmbracelet/bubbletea"
)

// Renderer wraps the TUI Bubble Tea model as a ports.Renderer.
type Renderer struct {
	program *tea.Program
	model   *Model
	errCh   chan error
}

// NewRenderer creates a new TUI renderer.
func NewRenderer(model *Model, opts ...tea.ProgramOption) *Renderer {
	return &Renderer{
		program: tea.NewProgram(model, opts...),
		model:   model,
		errCh:   make(chan error, 1),
	}
}

// Start launches the TUI in a background goroutine.
func (r *Renderer) Start(_ context.Context) error {
	go func() {
		_, err := r.program.Run()
		r.errCh <- err
	}()
	return nil
}

// Stop signals the TUI to quit.
func (r *Renderer) Stop() error {
	r.program.Quit()
	return nil
}

// Wait blocks until the TUI has terminated. It reports context.Canceled when the
// user quit before the run finished.
func (r *Renderer) Wait() error {
	if err := <-r.errCh; err != nil {
		return err
	}
	if r.model.Interrupted {
		return context.Canceled
	}
	return nil
}

// OnPlanEmit forwards the plan to the TUI.
func (r *Renderer) OnPlanEmit(names []string) {
	r.program.Send(MsgPlan{Names: names})
}

// OnTaskStart forwards span start events to the TUI.
func (r *Renderer) OnTaskStart(spanID, parentID, name string, total int, startTime time.Time) {
	r.program.Send(MsgSpanStart{
		SpanID:    spanID,
		ParentID:  parentID,
		Name:      name,
		Total:     total,
		StartTime: startTime,
	})
}

// OnTaskEvent forwards task events to the TUI.
func (r *Renderer) OnTaskEvent(spanID string, ev domain.Event) {
	r.program.Send(MsgSpanEvent{SpanID: spanID, Event: ev})
}

// OnTaskAdvance forwards progress to the TUI.
func (r *Renderer) OnTaskAdvance(spanID string) {
	r.program.Send(MsgSpanAdvance{SpanID: spanID})
}

// OnTaskComplete forwards span completion to the TUI.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.program.Send(MsgSpanEnd{SpanID: spanID, EndTime: endTime, Err: err})
}
