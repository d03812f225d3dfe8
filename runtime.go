package art

import (
	"fmt"
	gruntime "runtime"

	"github.com/miyake13000/art/internal/logx"
	"github.com/miyake13000/art/reactor"
	"github.com/miyake13000/art/sched"
)

// Runtime owns the RunQueue, the Reactor, and the single Executor
// loop: the minimal unit that multiplexes many Futures onto one thread
// using readiness-based I/O.
type Runtime struct {
	cfg     runtimeConfig
	queue   *runQueue
	reactor *reactor.Reactor
	exec    *executor
}

// New constructs a Runtime and starts its Reactor thread. The Executor
// loop itself does not start until Run is called.
func New(opts ...RuntimeOption) (*Runtime, error) {
	cfg := defaultRuntimeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	rc, err := reactor.New(cfg.logger, cfg.reactorOpts...)
	if err != nil {
		return nil, fmt.Errorf("art: start reactor: %w", err)
	}

	q := newRunQueue(cfg.queueCapacity)

	return &Runtime{
		cfg:     cfg,
		queue:   q,
		reactor: rc,
		exec:    newExecutor(q, rc, cfg.logger),
	}, nil
}

// Spawner returns a cheap, cloneable handle that wraps a user-supplied
// Future into a Task and pushes it onto the RunQueue. Spawner values
// may be copied freely and shared across goroutines.
func (rt *Runtime) Spawner() Spawner {
	return Spawner{queue: rt.queue}
}

// Spawn is a convenience for Spawner().Spawn(fut). It may be called
// from any goroutine, including from within a running Task's own Poll.
func (rt *Runtime) Spawn(fut Future) {
	rt.Spawner().Spawn(fut)
}

// Run marks the calling (executor) thread as priority with the
// configured scheduler hook, then drives the Executor loop until the
// RunQueue is closed and drained. It blocks the calling goroutine —
// callers typically invoke it from main after spawning their top-level
// Futures.
func (rt *Runtime) Run() {
	// The scheduler hook marks a specific OS tid as priority, so the
	// calling goroutine must stay pinned to one OS thread for the rest
	// of the Runtime's life.
	gruntime.LockOSThread()
	defer gruntime.UnlockOSThread()

	if err := rt.cfg.scheduler.MarkPriority(); err != nil {
		logx.Warnf(rt.cfg.logger, "sched", err, "mark priority before run")
	}
	rt.exec.run()
}

// Close shuts the Runtime down: it closes the RunQueue, so Run returns
// once already-queued Tasks have been stepped, then stops the Reactor.
// Graceful draining of Tasks still suspended on I/O is out of scope —
// any such Task simply never resumes.
func (rt *Runtime) Close() error {
	rt.queue.close()
	if err := rt.reactor.Close(); err != nil {
		return fmt.Errorf("art: close reactor: %w", err)
	}
	return rt.cfg.scheduler.Close()
}

// Reactor exposes the Runtime's Reactor so adapters outside this
// package (tcpio.Listener, tcpio.Stream) can Register/Unregister file
// descriptors directly.
func (rt *Runtime) Reactor() *reactor.Reactor {
	return rt.reactor
}
