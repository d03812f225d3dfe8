//go:build linux

package tcpio_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/miyake13000/art"
	"github.com/miyake13000/art/tcpio"
)

func newTestRuntime(t *testing.T) *art.Runtime {
	t.Helper()
	rt, err := art.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	go rt.Run()
	return rt
}

// pollToCompletion drives f on the Runtime's own Task machinery by
// spawning it and waiting on a completion channel, since Accept/Read/
// Write Futures are driven by the Executor, not by the calling
// goroutine directly.
func pollToCompletion(rt *art.Runtime, step func(ctx *art.Context) bool) <-chan struct{} {
	done := make(chan struct{})
	rt.Spawn(art.FutureFunc(func(ctx *art.Context) bool {
		if step(ctx) {
			close(done)
			return true
		}
		return false
	}))
	return done
}

func TestListenerAcceptsConnection(t *testing.T) {
	rt := newTestRuntime(t)

	ln, err := tcpio.Listen(rt, "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	af := ln.Accept()
	done := pollToCompletion(rt, af.Poll)

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("accept did not complete")
	}

	require.NoError(t, af.Err)
	require.NotNil(t, af.Stream)
	defer af.Stream.Close()
}

func TestStreamReadWriteRoundTrip(t *testing.T) {
	rt := newTestRuntime(t)

	ln, err := tcpio.Listen(rt, "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	af := ln.Accept()
	acceptDone := pollToCompletion(rt, af.Poll)

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	select {
	case <-acceptDone:
	case <-time.After(2 * time.Second):
		t.Fatal("accept did not complete")
	}
	require.NoError(t, af.Err)
	stream := af.Stream
	defer stream.Close()

	_, err = conn.Write([]byte("ping"))
	require.NoError(t, err)

	buf := make([]byte, 4)
	rf := stream.Read(buf)
	readDone := pollToCompletion(rt, rf.Poll)
	select {
	case <-readDone:
	case <-time.After(2 * time.Second):
		t.Fatal("read did not complete")
	}
	require.NoError(t, rf.Err)
	require.Equal(t, 4, rf.N)
	require.Equal(t, "ping", string(buf))

	wf := stream.Write([]byte("pong"))
	writeDone := pollToCompletion(rt, wf.Poll)
	select {
	case <-writeDone:
	case <-time.After(2 * time.Second):
		t.Fatal("write did not complete")
	}
	require.NoError(t, wf.Err)
	require.Equal(t, 4, wf.N)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	out := make([]byte, 4)
	_, err = conn.Read(out)
	require.NoError(t, err)
	require.Equal(t, "pong", string(out))
}

func TestStreamReadReturnsZeroOnPeerClose(t *testing.T) {
	rt := newTestRuntime(t)

	ln, err := tcpio.Listen(rt, "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	af := ln.Accept()
	acceptDone := pollToCompletion(rt, af.Poll)

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)

	select {
	case <-acceptDone:
	case <-time.After(2 * time.Second):
		t.Fatal("accept did not complete")
	}
	require.NoError(t, af.Err)
	stream := af.Stream
	defer stream.Close()

	require.NoError(t, conn.Close())

	buf := make([]byte, 16)
	rf := stream.Read(buf)
	readDone := pollToCompletion(rt, rf.Poll)
	select {
	case <-readDone:
	case <-time.After(2 * time.Second):
		t.Fatal("read did not complete")
	}
	require.NoError(t, rf.Err)
	require.Equal(t, 0, rf.N)
}
