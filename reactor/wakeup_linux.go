//go:build linux

package reactor

import "golang.org/x/sys/unix"

// wakeupFd is the self-pipe (eventfd) doorbell: an 8-byte kernel
// counter fd. Writing to it from any thread is the race-free way to
// ask the Reactor to drain its ControlQueue at the next readiness
// dispatch.
type wakeupFd struct {
	fd int
}

func newWakeupFd() (*wakeupFd, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &wakeupFd{fd: fd}, nil
}

// signal increments the counter by one, waking the Reactor's EpollWait.
func (w *wakeupFd) signal() error {
	var buf [8]byte
	buf[0] = 1
	_, err := unix.Write(w.fd, buf[:])
	return err
}

// drain reads (and discards) the accumulated counter, rearming the fd
// for level-triggered re-delivery on the next write.
func (w *wakeupFd) drain() {
	var buf [8]byte
	for {
		_, err := unix.Read(w.fd, buf[:])
		if err != nil {
			return
		}
	}
}

func (w *wakeupFd) close() error {
	return unix.Close(w.fd)
}
