package art

import "errors"

// ErrQueueClosed is the panic value raised when a Task's Waker, or a
// Spawner, pushes onto a RunQueue that has already been closed. This is
// fatal: the run queue must outlive all producers under normal
// operation.
var ErrQueueClosed = errors.New("art: run queue closed")
