package geofence

import (
	"context"
	"fmt"
	"sync"

	"github.com/carolin-violet/violet-reminder/internal/logging"
)

// TaskFunc receives events delivered to a named background task.
type TaskFunc func(ctx context.Context, ev *TaskEvent)

// TaskRegistry maps task names to their functions. Tasks are looked up at
// delivery time, so a task defined after registration still receives events.
type TaskRegistry struct {
	mu    sync.RWMutex
	tasks map[string]TaskFunc
}

// NewTaskRegistry creates an empty registry.
func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{tasks: make(map[string]TaskFunc)}
}

// DefaultRegistry is the process-wide registry.
var DefaultRegistry = NewTaskRegistry()

// Define binds fn to name, replacing any earlier definition.
func (r *TaskRegistry) Define(name string, fn TaskFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[name] = fn
}

// IsDefined reports whether name has a function.
func (r *TaskRegistry) IsDefined(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tasks[name]
	return ok
}

// Deliver runs the task for name with ev. It reports false when no task is
// defined. A panicking task is logged and reported as delivered.
func (r *TaskRegistry) Deliver(ctx context.Context, name string, ev *TaskEvent) bool {
	r.mu.RLock()
	fn, ok := r.tasks[name]
	r.mu.RUnlock()
	if !ok {
		logging.WarnContext(ctx, "no task defined for event", logging.KeyTask, name)
		return false
	}

	defer func() {
		if p := recover(); p != nil {
			logging.ErrorContext(ctx, "task panicked",
				logging.KeyTask, name,
				logging.KeyError, fmt.Sprint(p),
			)
		}
	}()
	fn(ctx, ev)
	return true
}
