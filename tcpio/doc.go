// Package tcpio provides non-blocking TCP adapters whose Accept, Read,
// and Write operations are step-advanceable Futures: each attempts its
// syscall immediately, and on EAGAIN registers the calling Task's
// Waker with a [reactor.Reactor] instead of blocking.
//
// Unlike net.Conn, these types wrap raw, non-blocking file
// descriptors directly — the runtime's own Reactor owns readiness
// notification for them, so they must never be handed to Go's net
// poller (no net.FileConn wrapping).
package tcpio
