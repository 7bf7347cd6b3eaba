package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("DEBUG: %s %v", msg, keysAndValues))
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("INFO: %s %v", msg, keysAndValues))
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("ERROR: %s %v", msg, keysAndValues))
}

func (l *testLogger) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	logger := &testLogger{}

	d, err := New(logger)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}

	return d, logger
}

func TestDispatcher_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	called := false
	d.Register("EXPORT", func(_ context.Context, e Event) (any, error) {
		called = true
		return "result", nil
	})

	result, err := d.Dispatch(context.Background(), Event{Command: "EXPORT", Args: []string{"arg1"}})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !called {
		t.Error("handler was not called")
	}
	if result != "result" {
		t.Errorf("expected 'result', got %v", result)
	}
}

func TestDispatcher_SetsTimestamp(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var got Event
	d.Register("EXPORT", func(_ context.Context, e Event) (any, error) {
		got = e
		return nil, nil
	})

	if _, err := d.Dispatch(context.Background(), Event{Command: "EXPORT"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestDispatcher_PassesContext(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register("EXPORT", func(ctx context.Context, e Event) (any, error) {
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Dispatch(ctx, Event{Command: "EXPORT"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Dispatch(context.Background(), Event{Command: "UNKNOWN"})

	if err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register("EXPORT", func(_ context.Context, e Event) (any, error) {
		return "ok", nil
	}, Logged())

	_, err := d.Dispatch(context.Background(), Event{Command: "EXPORT"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	messages := logger.snapshot()
	if len(messages) != 2 {
		t.Fatalf("expected 2 log messages, got %d: %v", len(messages), messages)
	}
	if !strings.HasPrefix(messages[0], "DEBUG: handling event") {
		t.Errorf("unexpected first message: %s", messages[0])
	}
	if !strings.HasPrefix(messages[1], "DEBUG: event complete") {
		t.Errorf("unexpected second message: %s", messages[1])
	}
}

func TestDispatcher_LoggedHandlerError(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register("EXPORT", func(_ context.Context, e Event) (any, error) {
		return nil, errors.New("disk full")
	}, Logged())

	_, err := d.Dispatch(context.Background(), Event{Command: "EXPORT"})
	if err == nil {
		t.Error("expected error")
	}

	found := false
	for _, msg := range logger.snapshot() {
		if strings.HasPrefix(msg, "ERROR: event failed") {
			found = true
		}
	}
	if !found {
		t.Error("expected error log entry")
	}
}

func TestDispatcher_HasHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register("EXPORT", func(_ context.Context, e Event) (any, error) {
		return nil, nil
	})

	if !d.HasHandler("EXPORT") {
		t.Error("expected HasHandler to return true")
	}
	if d.HasHandler("OTHER") {
		t.Error("expected HasHandler to return false")
	}
	if got := d.Commands(); len(got) != 1 || got[0] != "EXPORT" {
		t.Errorf("unexpected commands: %v", got)
	}
}

func TestDispatcher_ConcurrentDispatch(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var count atomic.Int32
	d.Register("EXPORT", func(_ context.Context, e Event) (any, error) {
		count.Add(1)
		return nil, nil
	}, Logged())

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = d.Dispatch(context.Background(), Event{Command: "EXPORT"})
		}()
	}
	wg.Wait()

	if count.Load() != 50 {
		t.Errorf("expected 50 calls, got %d", count.Load())
	}
}

func TestRunner_Outputs(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register("PUBLISH", func(_ context.Context, e Event) (any, error) {
		return map[string]any{"echo": e.Inputs["archive"]}, nil
	})
	d.Register("COUNT", func(_ context.Context, e Event) (any, error) {
		return len(e.Inputs), nil
	})
	d.Register("NOOP", func(_ context.Context, e Event) (any, error) {
		return nil, nil
	})

	r := NewRunner(d)
	ctx := context.Background()

	out, err := r.Run(ctx, "PUBLISH", map[string]any{"archive": "a1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["echo"] != "a1" {
		t.Errorf("expected echo a1, got %v", out["echo"])
	}

	out, err = r.Run(ctx, "COUNT", map[string]any{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[ResultKey] != 2 {
		t.Errorf("expected result 2, got %v", out[ResultKey])
	}

	out, err = r.Run(ctx, "NOOP", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty outputs, got %v", out)
	}

	if _, err := r.Run(ctx, "MISSING", nil); err == nil {
		t.Error("expected error for unknown command")
	}
}
