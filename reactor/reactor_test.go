//go:build linux

package reactor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// socketpair returns two connected, non-blocking unix-domain socket fds
// for use as readiness test fixtures, mirroring the fd-acquisition
// pattern eventloop's poller tests use via net.Listen/Dial + File().
func socketpair(t *testing.T) (a, b int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	require.NoError(t, unix.SetNonblock(fds[0], true))
	require.NoError(t, unix.SetNonblock(fds[1], true))
	t.Cleanup(func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for condition")
}

func TestRegisterDispatchesOnReadiness(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)
	defer r.Close()

	a, b := socketpair(t)

	var woke atomic.Bool
	require.NoError(t, r.Register(EventRead, a, func() { woke.Store(true) }))

	_, err = unix.Write(b, []byte("x"))
	require.NoError(t, err)

	waitFor(t, woke.Load)
}

// TestWakerTableSingleEntry checks that a single registration installs
// exactly one WakerTable entry for its fd. The duplicate-insert panic
// in applyAdd is not exercised here.
func TestWakerTableSingleEntry(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)
	defer r.Close()

	a, _ := socketpair(t)

	require.NoError(t, r.Register(EventWrite, a, func() {}))
	// Wait for the reactor goroutine to apply the ADD, then check that
	// the table holds exactly one entry.
	waitFor(t, func() bool {
		r.tableMu.Lock()
		_, ok := r.wakers[a]
		r.tableMu.Unlock()
		return ok
	})

	r.tableMu.Lock()
	size := len(r.wakers)
	r.tableMu.Unlock()
	require.Equal(t, 1, size)
}

// TestOneShotConsumesEntry checks one-shot correctness: after dispatch,
// the WakerTable entry for the fired fd is gone until re-registered.
func TestOneShotConsumesEntry(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)
	defer r.Close()

	a, b := socketpair(t)

	fired := make(chan struct{}, 1)
	require.NoError(t, r.Register(EventRead, a, func() { fired <- struct{}{} }))

	_, err = unix.Write(b, []byte("y"))
	require.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("waker never fired")
	}

	waitFor(t, func() bool {
		r.tableMu.Lock()
		_, ok := r.wakers[a]
		r.tableMu.Unlock()
		return !ok
	})
}

// TestUnregisterRemovesWatch checks that a dropped Listener or Stream's
// Unregister call is observed within one dispatch cycle and leaves no
// dangling WakerTable entry.
func TestUnregisterRemovesWatch(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)
	defer r.Close()

	a, _ := socketpair(t)

	var called atomic.Bool
	require.NoError(t, r.Register(EventRead, a, func() { called.Store(true) }))
	require.NoError(t, r.Unregister(a))

	waitFor(t, func() bool {
		r.tableMu.Lock()
		_, ok := r.wakers[a]
		r.tableMu.Unlock()
		return !ok
	})
	require.False(t, called.Load())
}

// TestConcurrentRegisterUnregisterDistinctFDs is a light property check:
// across many concurrent register/unregister pairs on distinct fds, the
// table settles to empty.
func TestConcurrentRegisterUnregisterDistinctFDs(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)
	defer r.Close()

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		a, _ := socketpair(t)
		wg.Add(1)
		go func(fd int) {
			defer wg.Done()
			require.NoError(t, r.Register(EventRead, fd, func() {}))
			require.NoError(t, r.Unregister(fd))
		}(a)
	}
	wg.Wait()

	waitFor(t, func() bool {
		r.tableMu.Lock()
		size := len(r.wakers)
		r.tableMu.Unlock()
		return size == 0
	})
}
