// Package sched is an optional external scheduler-priority hook: a
// Runtime may ask a cooperating kernel scheduler (a Linux sched_ext BPF
// program) to favor the executor thread whenever it is about to resume
// running, by marking its tid in a shared map. Absence or failure of
// this hook must never be fatal to the Runtime — it is a best-effort
// collaborator, not a dependency.
package sched

// Client marks the calling OS thread as a priority task for the
// external scheduler. Implementations must be safe to call repeatedly
// from the single executor thread and must treat their own failures as
// non-fatal to the caller.
type Client interface {
	MarkPriority() error
	Close() error
}

// NoopClient is the default Client: it does nothing, successfully. Used
// whenever no scheduler cooperation is configured or the BPF-backed
// client failed to attach.
type NoopClient struct{}

func (NoopClient) MarkPriority() error { return nil }
func (NoopClient) Close() error        { return nil }
