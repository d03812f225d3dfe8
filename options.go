package art

import (
	"github.com/miyake13000/art/internal/logx"
	"github.com/miyake13000/art/reactor"
	"github.com/miyake13000/art/sched"
)

// defaultRunQueueCapacity is the RunQueue's default capacity, used when
// WithRunQueueCapacity is not given.
const defaultRunQueueCapacity = 1024

// RuntimeOption configures a Runtime at construction time, following
// the same functional-options convention used elsewhere in this module.
type RuntimeOption func(*runtimeConfig)

type runtimeConfig struct {
	queueCapacity int
	reactorOpts   []reactor.Option
	logger        logx.Logger
	scheduler     sched.Client
}

func defaultRuntimeConfig() runtimeConfig {
	return runtimeConfig{
		queueCapacity: defaultRunQueueCapacity,
		logger:        logx.NoopLogger{},
		scheduler:     sched.NoopClient{},
	}
}

// WithRunQueueCapacity overrides the RunQueue's capacity. Values <= 0
// fall back to the default.
func WithRunQueueCapacity(n int) RuntimeOption {
	return func(c *runtimeConfig) {
		if n > 0 {
			c.queueCapacity = n
		}
	}
}

// WithReactorMaxEvents overrides how many ready file descriptors a
// single epoll_wait call may return.
func WithReactorMaxEvents(n int) RuntimeOption {
	return func(c *runtimeConfig) {
		c.reactorOpts = append(c.reactorOpts, reactor.WithMaxEvents(n))
	}
}

// WithLogger directs the Runtime's diagnostics (reactor dispatch
// warnings, task panics, scheduler hook failures) to log instead of
// discarding them.
func WithLogger(log logx.Logger) RuntimeOption {
	return func(c *runtimeConfig) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithSchedulerClient attaches an optional external scheduler-priority
// hook. A nil client is ignored; failures from the client itself are
// always non-fatal to the Runtime.
func WithSchedulerClient(c sched.Client) RuntimeOption {
	return func(cfg *runtimeConfig) {
		if c != nil {
			cfg.scheduler = c
		}
	}
}
