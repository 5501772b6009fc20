package pipeline

import (
	"context"
	"fmt"
	"runtime"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/panjf2000/ants/v2"
	"go.trai.ch/zerr"
)

// StreamBuffer is the capacity of every event channel.
const StreamBuffer = 16

// Executor runs task bodies on a bounded goroutine pool.
type Executor struct {
	pool *ants.Pool
}

// NewExecutor creates an Executor with size workers. Size <= 0 uses the CPU count.
func NewExecutor(size int) (*Executor, error) {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create worker pool")
	}
	return &Executor{pool: pool}, nil
}

// Stream runs fn on the pool and returns its events. The channel is closed when fn returns.
// A returned error or a panic is delivered as a final exception event.
func (e *Executor) Stream(ctx context.Context, fn func(ctx context.Context, emit Emit) error) <-chan domain.Event {
	ch := make(chan domain.Event, StreamBuffer)

	emit := func(ev domain.Event) {
		select {
		case ch <- ev:
		case <-ctx.Done():
		}
	}

	job := func() {
		defer close(ch)
		defer func() {
			if r := recover(); r != nil {
				emit(domain.Exception(fmt.Errorf("panic: %v", r)))
			}
		}()
		if err := fn(ctx, emit); err != nil {
			emit(domain.Exception(err))
		}
	}

	if err := e.pool.Submit(job); err != nil {
		ch <- domain.Exception(zerr.Wrap(err, "failed to schedule task"))
		close(ch)
	}
	return ch
}

// Release stops the pool once running jobs finish.
func (e *Executor) Release() {
	e.pool.Release()
}
