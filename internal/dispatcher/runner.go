package dispatcher

import (
	"context"
	"time"
)

// ResultKey holds a handler's return value when it is not already an output map
const ResultKey = "result"

// Runner exposes a Dispatcher as a synchronous command runner with named
// inputs and outputs.
type Runner struct {
	d *Dispatcher
}

// NewRunner wraps d
func NewRunner(d *Dispatcher) *Runner {
	return &Runner{d: d}
}

// Run dispatches the named command and returns its outputs
func (r *Runner) Run(ctx context.Context, name string, inputs map[string]any) (map[string]any, error) {
	result, err := r.d.Dispatch(ctx, Event{
		Command:   name,
		Inputs:    inputs,
		Timestamp: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	switch v := result.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	default:
		return map[string]any{ResultKey: v}, nil
	}
}
