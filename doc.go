// Package art is a minimal cooperative asynchronous runtime for Linux.
//
// It multiplexes many network connections onto a single executor using
// readiness-based I/O notification: a [Runtime] owns a single-threaded
// executor run loop and a dedicated [reactor.Reactor] thread that
// watches file descriptors via epoll and resumes the computation
// waiting on each one.
//
// # Architecture
//
//   - A [Spawner] wraps a user-supplied [Future] into a [Task] and
//     pushes it onto the bounded run queue.
//   - [Runtime.Run] pops Tasks off that queue and advances each by one
//     [Future.Poll] step, passing a [Context] whose Waker re-enqueues
//     the same Task.
//   - A step that hits would-block registers its Waker with the
//     Reactor (via [reactor.Reactor.Register]) and returns Pending; the
//     Reactor thread invokes that Waker exactly once, when epoll next
//     reports the fd ready.
//
// # Usage
//
//	rt, err := art.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rt.Spawn(art.FutureFunc(func(ctx *art.Context) bool {
//	    // ... accept connections, spawn child Tasks per connection ...
//	    return false
//	}))
//
//	rt.Run() // blocks until the run queue drains and closes
//
// # Non-goals
//
// No work-stealing across executor threads, no fair scheduling, no
// timers, no cancellation of in-flight suspensions, no graceful
// shutdown, no TLS, Linux only.
package art
