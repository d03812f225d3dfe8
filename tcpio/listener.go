package tcpio

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/miyake13000/art"
	"github.com/miyake13000/art/reactor"
)

// Listener is a non-blocking TCP listening socket, registered with a
// Reactor on demand by its Accept Future — the Go counterpart of
// net.rs's TcpListener.
type Listener struct {
	fd  int
	rc  *reactor.Reactor
	raw net.Addr
}

// Listen binds and listens on addr (host:port), mirroring
// TcpListener::listen: the socket is created non-blocking, then bound
// and put into listening mode.
func Listen(rt *art.Runtime, addr string) (*Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcpio: resolve %q: %w", addr, err)
	}

	domain := unix.AF_INET
	sa, err := toSockaddr(tcpAddr)
	if err != nil {
		return nil, err
	}
	if _, ok := sa.(*unix.SockaddrInet6); ok {
		domain = unix.AF_INET6
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("tcpio: socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("tcpio: setsockopt SO_REUSEADDR: %w", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("tcpio: bind %s: %w", addr, err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("tcpio: listen: %w", err)
	}

	bound, err := unix.Getsockname(fd)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("tcpio: getsockname: %w", err)
	}
	localAddr := sockaddrToAddr(bound)
	if localAddr == nil {
		localAddr = tcpAddr
	}

	return &Listener{fd: fd, rc: rt.Reactor(), raw: localAddr}, nil
}

// Addr returns the address the Listener is bound to.
func (l *Listener) Addr() net.Addr { return l.raw }

// Accept returns a Future that yields the next inbound connection,
// mirroring net.rs's Accept Future.
func (l *Listener) Accept() *AcceptFuture {
	return &AcceptFuture{ln: l}
}

// Close unregisters the listening fd from the Reactor (a no-op if it
// was never registered) and closes the socket.
func (l *Listener) Close() error {
	_ = l.rc.Unregister(l.fd)
	return unix.Close(l.fd)
}

// AcceptFuture is the step-advanceable computation behind Listener.Accept.
// Once Poll returns true, exactly one of Stream/Err is set.
type AcceptFuture struct {
	ln     *Listener
	Stream *Stream
	Addr   net.Addr
	Err    error
}

// Poll implements art.Future.
func (f *AcceptFuture) Poll(ctx *art.Context) bool {
	connFd, sa, err := unix.Accept4(f.ln.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	switch {
	case err == nil:
		f.Stream = newStream(connFd, f.ln.rc)
		f.Addr = sockaddrToAddr(sa)
		return true
	case err == unix.EAGAIN:
		if regErr := f.ln.rc.Register(reactor.EventRead, f.ln.fd, ctx.Waker); regErr != nil {
			f.Err = fmt.Errorf("tcpio: register listener fd: %w", regErr)
			return true
		}
		return false
	default:
		f.Err = fmt.Errorf("tcpio: accept: %w", err)
		return true
	}
}
