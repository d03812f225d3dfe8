package reactor

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/miyake13000/art/internal/logx"
)

// Waker is invoked by the Reactor thread to re-enqueue the Task that
// installed it. It must be safe to call from the Reactor thread, from
// within a Task step, and from arbitrary user threads.
type Waker func()

// defaultMaxReadyEvents bounds how many ready entries a single
// EpollWait call may return.
const defaultMaxReadyEvents = 1024

// Option configures a Reactor at construction time.
type Option func(*Reactor)

// WithMaxEvents overrides how many ready entries a single EpollWait
// call may return. Values <= 0 are ignored.
func WithMaxEvents(n int) Option {
	return func(r *Reactor) {
		if n > 0 {
			r.maxEvents = n
		}
	}
}

var (
	// ErrClosed is returned by Register once the Reactor has been
	// closed. Unregister on a closed Reactor is a no-op and returns nil.
	ErrClosed = errors.New("reactor: closed")

	// errWakerAlreadyRegistered signals a WakerTable invariant
	// violation: an fd may have at most one pending Waker. A caller
	// hitting this has registered the same fd twice without an
	// intervening dispatch or explicit unregister, which is a
	// programming error in the runtime, not a recoverable condition.
	errWakerAlreadyRegistered = errors.New("reactor: waker already registered for fd")
)

type opKind int

const (
	opAdd opKind = iota
	opRemove
)

// controlOp is one ADD(flags, fd, waker) or REMOVE(fd) entry in the
// ControlQueue.
type controlOp struct {
	kind   opKind
	fd     int
	events Events
	waker  Waker
}

// Reactor is the IOSelector: a dedicated thread owning the epoll
// instance, the WakerTable (fd -> pending Waker), the ControlQueue of
// pending register/unregister requests, and the WakeupFd used to
// summon that thread from any other goroutine.
type Reactor struct {
	log logx.Logger

	poller *epoller
	wake   *wakeupFd

	tableMu sync.Mutex
	wakers  map[int]Waker

	queueMu sync.Mutex
	queue   []controlOp

	closed chan struct{}
	done   chan struct{}

	maxEvents int
}

// New constructs a Reactor and starts its dispatch goroutine. Only the
// dispatch goroutine waits on the epoll fd and drains the wakeup fd;
// other goroutines only signal the wakeup fd, and Close releases both
// fds after the dispatch goroutine has exited.
func New(log logx.Logger, opts ...Option) (*Reactor, error) {
	if log == nil {
		log = logx.NoopLogger{}
	}

	poller, err := newEpoller()
	if err != nil {
		return nil, fmt.Errorf("reactor: create epoll: %w", err)
	}
	wake, err := newWakeupFd()
	if err != nil {
		_ = poller.close()
		return nil, fmt.Errorf("reactor: create wakeup fd: %w", err)
	}

	// Register the WakeupFd for level-triggered input readiness, not
	// one-shot — the Reactor drains it itself on every cycle, and the
	// watch stays armed without being re-added.
	if err := poller.addLevel(wake.fd, EventRead); err != nil {
		_ = wake.close()
		_ = poller.close()
		return nil, fmt.Errorf("reactor: register wakeup fd: %w", err)
	}

	r := &Reactor{
		log:       log,
		poller:    poller,
		wake:      wake,
		wakers:    make(map[int]Waker),
		closed:    make(chan struct{}),
		done:      make(chan struct{}),
		maxEvents: defaultMaxReadyEvents,
	}
	for _, opt := range opts {
		opt(r)
	}

	go r.run()

	return r, nil
}

// Register pushes ADD(flags, fd, waker) onto the ControlQueue and
// signals the WakeupFd.
func (r *Reactor) Register(events Events, fd int, waker Waker) error {
	select {
	case <-r.closed:
		return ErrClosed
	default:
	}

	r.queueMu.Lock()
	r.queue = append(r.queue, controlOp{kind: opAdd, fd: fd, events: events, waker: waker})
	r.queueMu.Unlock()

	return r.wake.signal()
}

// Unregister pushes REMOVE(fd) onto the ControlQueue and signals the
// WakeupFd. Safe to call after the Reactor has been closed (a no-op in
// that case) so adapter destructors never need to special-case
// shutdown ordering.
func (r *Reactor) Unregister(fd int) error {
	select {
	case <-r.closed:
		return nil
	default:
	}

	r.queueMu.Lock()
	r.queue = append(r.queue, controlOp{kind: opRemove, fd: fd})
	r.queueMu.Unlock()

	return r.wake.signal()
}

// run is the Reactor's dedicated thread. It never returns except when
// Close has been called and the epoll wait observes the resulting
// teardown; an epoll_wait failure outside Close is fatal (panic).
func (r *Reactor) run() {
	defer close(r.done)

	events := make([]unix.EpollEvent, r.maxEvents)

	for {
		ready, err := r.poller.wait(events)
		if err != nil {
			select {
			case <-r.closed:
				return
			default:
			}
			logx.Errorf(r.log, "reactor", err, "epoll_wait failed")
			panic(fmt.Sprintf("reactor: epoll_wait: %v", err))
		}

		select {
		case <-r.closed:
			return
		default:
		}

		// WakerTable lock is held for the entire dispatch pass.
		r.tableMu.Lock()
		for _, ev := range ready {
			fd := int(ev.Fd)
			if fd == r.wake.fd {
				r.drainControlQueue()
				r.wake.drain()
				continue
			}
			waker, ok := r.wakers[fd]
			if !ok {
				// One-shot semantics mean this should never happen: a
				// readiness event implies a prior ADD that inserted an
				// entry, and dispatch removes it atomically with
				// invocation. Surviving it defensively (log + skip)
				// keeps one stray event from taking down the Reactor.
				logx.Warnf(r.log, "reactor", nil, "readiness event for fd %d with no registered waker", fd)
				continue
			}
			delete(r.wakers, fd)
			waker()
		}
		r.tableMu.Unlock()
	}
}

// drainControlQueue applies every pending ControlQueue op in FIFO
// order. Must be called with tableMu held (lock order: WakerTable then
// ControlQueue).
func (r *Reactor) drainControlQueue() {
	r.queueMu.Lock()
	ops := r.queue
	r.queue = nil
	r.queueMu.Unlock()

	for _, op := range ops {
		switch op.kind {
		case opAdd:
			r.applyAdd(op.fd, op.events, op.waker)
		case opRemove:
			r.applyRemove(op.fd)
		}
	}
}

// applyAdd is the ADD handler: construct a one-shot watch for fd,
// falling back to MOD on "already exists", then insert into the
// WakerTable. Caller holds tableMu.
func (r *Reactor) applyAdd(fd int, events Events, waker Waker) {
	if err := r.poller.addOneShot(fd, events); err != nil {
		// Any failure other than "already exists" (handled inside
		// addOneShot) indicates a programming error in the runtime,
		// fatal rather than recoverable.
		panic(fmt.Sprintf("reactor: epoll_ctl add/mod fd=%d: %v", fd, err))
	}
	if _, exists := r.wakers[fd]; exists {
		panic(errWakerAlreadyRegistered)
	}
	r.wakers[fd] = waker
}

// applyRemove is the REMOVE handler: delete the epoll watch (ignoring
// "not found") and the WakerTable entry (ignoring absence). Caller
// holds tableMu.
func (r *Reactor) applyRemove(fd int) {
	if err := r.poller.remove(fd); err != nil {
		logx.Warnf(r.log, "reactor", err, "epoll_ctl del fd=%d", fd)
	}
	delete(r.wakers, fd)
}

// Close stops the Reactor's dispatch thread and releases the epoll and
// wakeup fds. Close does not drain or notify any still-pending wakers;
// graceful shutdown of in-flight suspensions is out of scope.
func (r *Reactor) Close() error {
	select {
	case <-r.closed:
		return nil
	default:
		close(r.closed)
	}

	if err := r.wake.signal(); err != nil {
		logx.Warnf(r.log, "reactor", err, "wakeup signal during close")
	}
	<-r.done

	errWake := r.wake.close()
	errPoll := r.poller.close()
	if errWake != nil {
		return errWake
	}
	return errPoll
}
