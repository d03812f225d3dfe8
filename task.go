package art

import (
	"sync"

	"github.com/miyake13000/art/internal/state"
	"github.com/miyake13000/art/reactor"
)

// Future is a step-advanceable computation: advancing it either
// produces a final result or installs a waker. Poll must return true
// exactly when the computation is complete; if it returns false it
// must have installed exactly one Waker (directly or via a nested
// Future it polled) before returning.
type Future interface {
	Poll(ctx *Context) bool
}

// FutureFunc lets a plain function satisfy Future, for Tasks whose
// entire body is a single closure (e.g. an accept loop).
type FutureFunc func(ctx *Context) bool

// Poll implements Future.
func (f FutureFunc) Poll(ctx *Context) bool { return f(ctx) }

// Context is handed to a Future's Poll method on every step. Waker
// re-enqueues the Task currently being stepped — it tolerates being
// called from the Reactor thread, from within a step, or from
// arbitrary user threads. Reactor is the runtime's Reactor, used by
// I/O adapters to register for readiness on would-block.
type Context struct {
	Waker   func()
	Reactor *reactor.Reactor
}

// Task is a handle holding one suspended computation plus the means to
// re-enqueue itself. A Task is referenced by at most one run-queue slot
// and at most one Waker registration at any instant — the one-shot
// property of readiness notifications plus the fact that Poll returns
// only after completing or installing exactly one waker enforces this.
//
// Unlike the Rust original, Task carries no explicit reference count:
// Go's garbage collector keeps a Task alive for exactly as long as
// something holds a reference to it — a run-queue slot, a Waker closure
// captured in the Reactor's WakerTable, or a caller's own handle — which
// is the same lifetime the Rust Arc<Task> refcount was approximating.
type Task struct {
	mu    sync.Mutex // guards concurrent stepping of this Task's computation
	fut   Future
	queue *runQueue
	st    *state.Machine
}

func newTask(fut Future, q *runQueue) *Task {
	return &Task{
		fut:   fut,
		queue: q,
		st:    state.New(state.Awake), // Awake stands in for Runnable here
	}
}

// Spawner is a cheap, cloneable handle that converts a user-supplied
// Future into a Task and pushes it onto a RunQueue. Spawner is a plain
// value type — copying it just copies the queue handle it wraps, so it
// may be passed around and shared across goroutines freely.
type Spawner struct {
	queue *runQueue
}

// Spawn wraps fut in a Task and pushes it onto the RunQueue. It blocks
// if the queue is at capacity, and may be called from any goroutine,
// including from within a running Task's own Poll.
func (s Spawner) Spawn(fut Future) {
	t := newTask(fut, s.queue)
	t.wake()
}

// wake pushes another reference to this Task onto the RunQueue.
// Tolerates being called from the Reactor thread, from within a step,
// or from any user goroutine.
func (t *Task) wake() {
	t.queue.push(t)
}

// step advances the computation by exactly one Poll call under the
// Task's computation guard.
func (t *Task) step(rc *reactor.Reactor) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.st.Load() == state.Terminated {
		return
	}

	t.st.Store(state.Running)
	ctx := &Context{Waker: t.wake, Reactor: rc}
	done := t.fut.Poll(ctx)
	if done {
		t.st.Store(state.Terminated)
	} else {
		t.st.Store(state.Pending)
	}
}
