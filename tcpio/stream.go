package tcpio

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/miyake13000/art"
	"github.com/miyake13000/art/reactor"
)

// Stream is a non-blocking TCP connection, the Go counterpart of
// net.rs's TcpStream: Read and Write each return a step-advanceable
// Future instead of blocking.
type Stream struct {
	fd int
	rc *reactor.Reactor
}

func newStream(fd int, rc *reactor.Reactor) *Stream {
	return &Stream{fd: fd, rc: rc}
}

// Read returns a Future that reads into buf, registering for input
// readiness on EAGAIN.
func (s *Stream) Read(buf []byte) *ReadFuture {
	return &ReadFuture{stream: s, buf: buf}
}

// Write returns a Future that writes buf, registering for output
// readiness on EAGAIN.
func (s *Stream) Write(buf []byte) *WriteFuture {
	return &WriteFuture{stream: s, buf: buf}
}

// Close unregisters the fd from the Reactor and closes the socket.
func (s *Stream) Close() error {
	_ = s.rc.Unregister(s.fd)
	return unix.Close(s.fd)
}

// ReadFuture is the step-advanceable computation behind Stream.Read.
// Once Poll returns true, N holds the byte count read (0 at EOF) and
// Err holds any non-EOF error.
type ReadFuture struct {
	stream *Stream
	buf    []byte
	N      int
	Err    error
}

// Poll implements art.Future.
func (f *ReadFuture) Poll(ctx *art.Context) bool {
	n, err := unix.Read(f.stream.fd, f.buf)
	switch {
	case err == nil:
		f.N = n
		return true
	case err == unix.EAGAIN:
		if regErr := f.stream.rc.Register(reactor.EventRead, f.stream.fd, ctx.Waker); regErr != nil {
			f.Err = fmt.Errorf("tcpio: register read fd: %w", regErr)
			return true
		}
		return false
	default:
		f.Err = fmt.Errorf("tcpio: read: %w", err)
		return true
	}
}

// WriteFuture is the step-advanceable computation behind Stream.Write.
// Once Poll returns true, N holds the byte count written and Err holds
// any error.
type WriteFuture struct {
	stream *Stream
	buf    []byte
	N      int
	Err    error
}

// Poll implements art.Future.
func (f *WriteFuture) Poll(ctx *art.Context) bool {
	n, err := unix.Write(f.stream.fd, f.buf)
	switch {
	case err == nil:
		f.N = n
		return true
	case err == unix.EAGAIN:
		if regErr := f.stream.rc.Register(reactor.EventWrite, f.stream.fd, ctx.Waker); regErr != nil {
			f.Err = fmt.Errorf("tcpio: register write fd: %w", regErr)
			return true
		}
		return false
	default:
		f.Err = fmt.Errorf("tcpio: write: %w", err)
		return true
	}
}
