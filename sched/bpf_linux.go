//go:build linux

package sched

import (
	"fmt"

	"github.com/cilium/ebpf"
	"golang.org/x/sys/unix"
)

// mapPinPath mirrors the original sched-art crate's MAP_PIN_PATH: a
// sched_ext BPF program pins its priority-tasks map here, and any
// process may open and update it without attaching a program itself.
const mapPinPath = "/sys/fs/bpf/sched_ext/art/prior_tasks"

// BPFClient marks the executor thread as prioritized in a pinned
// tid -> priority map, for cooperation with an external sched_ext
// program. It is the Go counterpart of the Rust original's
// libbpf-rs-backed SchedulerClient.
type BPFClient struct {
	m *ebpf.Map
}

// NewBPFClient opens the pinned map at mapPinPath. Callers should treat
// a non-nil error as "run without scheduler cooperation" rather than
// fatal — the pin only exists when the companion sched_ext program is
// loaded.
func NewBPFClient() (*BPFClient, error) {
	m, err := ebpf.LoadPinnedMap(mapPinPath, nil)
	if err != nil {
		return nil, fmt.Errorf("sched: open pinned map %s: %w", mapPinPath, err)
	}
	return &BPFClient{m: m}, nil
}

// MarkPriority sets this thread's tid to priority 1 in the pinned map,
// exactly as client.rs's get_priority does.
func (c *BPFClient) MarkPriority() error {
	tid := int32(unix.Gettid())
	var value uint8 = 1
	if err := c.m.Put(tid, value); err != nil {
		return fmt.Errorf("sched: update priority map: %w", err)
	}
	return nil
}

// Close releases the map handle. It does not unpin the map; the
// sched_ext program that pinned it owns that lifecycle.
func (c *BPFClient) Close() error {
	return c.m.Close()
}
