// Package state provides a lock-free atomic state machine used to track
// a Task's lifecycle.
package state

import "sync/atomic"

// Value represents one state in a lifecycle state machine.
type Value uint32

// Task lifecycle as stored by Task.step: Awake (runnable, set at
// creation) -> Running -> Pending (Poll returned false) or Terminated
// (Poll returned true). Waking a Task re-enqueues it without changing
// the stored state, so a re-enqueued Task still reads Pending.
const (
	Awake Value = iota
	Running
	Pending
	Terminated
)

func (v Value) String() string {
	switch v {
	case Awake:
		return "awake"
	case Running:
		return "running"
	case Pending:
		return "pending"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Machine is an atomically loaded and stored state value. The zero
// value is not usable; construct with New.
type Machine struct {
	v atomic.Uint32
}

// New creates a Machine starting in the given state.
func New(initial Value) *Machine {
	m := &Machine{}
	m.v.Store(uint32(initial))
	return m
}

// Load returns the current state.
func (m *Machine) Load() Value {
	return Value(m.v.Load())
}

// Store unconditionally sets the state. Used for Task's own transitions,
// which are never contended since only the Executor steps a Task.
func (m *Machine) Store(v Value) {
	m.v.Store(uint32(v))
}
