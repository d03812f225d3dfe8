//go:build linux

package reactor

import (
	"golang.org/x/sys/unix"
)

// Events is the set of readiness classes a watch can request.
type Events uint32

const (
	// EventRead requests input readiness (accept/read).
	EventRead Events = 1 << iota
	// EventWrite requests output readiness (write).
	EventWrite
)

func toEpoll(ev Events) uint32 {
	var e uint32
	if ev&EventRead != 0 {
		e |= unix.EPOLLIN
	}
	if ev&EventWrite != 0 {
		e |= unix.EPOLLOUT
	}
	return e
}

// epoller wraps a one-shot epoll instance. It owns no wakers itself —
// Reactor keeps the WakerTable — it only speaks fd/event-mask.
type epoller struct {
	fd int
}

func newEpoller() (*epoller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epoller{fd: fd}, nil
}

// addLevel registers fd with level-triggered semantics (no one-shot).
// Used only for the wakeup fd, which the Reactor re-drains itself and
// keeps armed for the life of the Reactor.
func (p *epoller) addLevel(fd int, ev Events) error {
	e := &unix.EpollEvent{Events: toEpoll(ev), Fd: int32(fd)}
	return unix.EpollCtl(p.fd, unix.EPOLL_CTL_ADD, fd, e)
}

// addOneShot registers fd for ev OR'd with EPOLLONESHOT. If the kernel
// reports the fd is already watched, it modifies the existing watch in
// place instead — the ADD handler's fallback for re-registration.
func (p *epoller) addOneShot(fd int, ev Events) error {
	e := &unix.EpollEvent{Events: toEpoll(ev) | unix.EPOLLONESHOT, Fd: int32(fd)}
	err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_ADD, fd, e)
	if err == unix.EEXIST {
		return unix.EpollCtl(p.fd, unix.EPOLL_CTL_MOD, fd, e)
	}
	return err
}

// remove deletes fd from the watch set. "not found" is not an error —
// REMOVE for a stale or already-deleted fd must be idempotent.
func (p *epoller) remove(fd int) error {
	err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, fd, nil)
	if err == unix.ENOENT {
		return nil
	}
	return err
}

// wait blocks until at least one watched fd is ready (or forever, since
// the Reactor never passes a timeout), filling buf and returning the fds
// that fired.
func (p *epoller) wait(buf []unix.EpollEvent) ([]unix.EpollEvent, error) {
	n, err := unix.EpollWait(p.fd, buf, -1)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	return buf[:n], nil
}

func (p *epoller) close() error {
	return unix.Close(p.fd)
}
