// Package reactor implements the Reactor (IOSelector): a dedicated
// goroutine that owns an epoll instance, a FIFO control queue of
// register/unregister requests, an eventfd-based wakeup doorbell, and a
// table mapping file descriptor to the single Waker currently pending
// on it.
//
// Registrations are one-shot (EPOLLONESHOT): once epoll reports an fd
// ready, that watch is disarmed until explicitly re-armed via another
// Register call. This is what lets the Reactor both fire a waker
// exactly once per readiness event and safely remove its WakerTable
// entry on dispatch without racing a concurrent re-registration.
package reactor
