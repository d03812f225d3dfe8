package art

import (
	"fmt"

	"github.com/miyake13000/art/internal/logx"
	"github.com/miyake13000/art/reactor"
)

// executor is the single-threaded loop that pops Tasks from the
// RunQueue until the queue is closed and drained, advancing each by
// exactly one step. It never blocks except inside the queue's recv,
// and it never re-enters its own step for a different Task while one
// is in progress — there is exactly one executor goroutine.
type executor struct {
	queue   *runQueue
	reactor *reactor.Reactor
	log     logx.Logger
}

func newExecutor(q *runQueue, rc *reactor.Reactor, log logx.Logger) *executor {
	return &executor{queue: q, reactor: rc, log: log}
}

// run blocks until the RunQueue closes and drains.
func (e *executor) run() {
	for {
		t, ok := e.queue.recv()
		if !ok {
			return
		}
		e.step(t)
	}
}

// step advances t by one Poll call, recovering from a panicking Future
// so one misbehaving Task cannot take down the Executor thread.
func (e *executor) step(t *Task) {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf(e.log, "executor", fmt.Errorf("%v", r), "task step panicked")
		}
	}()
	t.step(e.reactor)
}
