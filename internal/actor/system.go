package actor

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// SystemConfig configures an ActorSystem. It follows the functional
// options shape the teacher codebase uses for its own ActorSystem
// (internal/baselib/actor/system.go's RegisterOption pattern), simplified
// here to the one knob this core actually needs.
type SystemConfig struct {
	// ShutdownTimeout bounds how long Shutdown waits for every actor's
	// Act body to return before giving up and returning a deadline
	// error.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the configuration used when NewActorSystem is
// called with no overrides.
func DefaultConfig() SystemConfig {
	return SystemConfig{ShutdownTimeout: 5 * time.Second}
}

// SystemOption mutates a SystemConfig during NewActorSystemWithConfig.
type SystemOption func(*SystemConfig)

// WithShutdownTimeout overrides the default shutdown deadline.
func WithShutdownTimeout(d time.Duration) SystemOption {
	return func(c *SystemConfig) { c.ShutdownTimeout = d }
}

// ActorSystem owns the registry, group table, and scheduler shared by a
// set of actors, plus the bookkeeping Shutdown needs to wait for every
// actor's goroutine to exit within a bound.
type ActorSystem struct {
	cfg       SystemConfig
	registry  *registry
	groups    *groupRegistry
	scheduler *Scheduler

	mu       sync.Mutex
	shutdown bool

	wg sync.WaitGroup
}

// NewActorSystem builds an ActorSystem with DefaultConfig.
func NewActorSystem() *ActorSystem {
	return NewActorSystemWithConfig(DefaultConfig())
}

// NewActorSystemWithConfig builds an ActorSystem with the given base
// config, further adjusted by opts.
func NewActorSystemWithConfig(cfg SystemConfig, opts ...SystemOption) *ActorSystem {
	for _, opt := range opts {
		opt(&cfg)
	}
	reg := newRegistry()
	return &ActorSystem{
		cfg:       cfg,
		registry:  reg,
		groups:    newGroupRegistry(reg),
		scheduler: NewScheduler(),
	}
}

// Spawn constructs and starts a BlockingActor running f, returning its
// Address. It fails with ErrSystemShuttingDown once Shutdown has been
// called.
func (s *ActorSystem) Spawn(f ActFunc) (Address, error) {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return Address{}, ErrSystemShuttingDown
	}
	s.mu.Unlock()

	a := newBlockingActor(s, f)
	a.Start(s)
	return a.Address(), nil
}

// AwaitAllOtherActorsDone blocks the caller (identified by self, so it
// does not wait on itself) until every other registered actor has
// deregistered, i.e. cleaned up. There is no polling: this delegates to
// the registry's own condition variable, which unregister broadcasts on
// (§4.H).
func (s *ActorSystem) AwaitAllOtherActorsDone(ctx context.Context, self Address) error {
	return s.registry.awaitEmpty(ctx, self)
}

// Shutdown stops accepting new Spawn calls, signals every registered
// actor to stop, and waits up to cfg.ShutdownTimeout for every started
// actor's goroutine to return. Each actor is told to stop by setting its
// planned exit reason to ExitReasonUserShutdown and closing its mailbox:
// an actor blocked in dequeue (the common case for a ReceiveLoop body)
// wakes immediately because mailbox.close broadcasts its own condition
// variable, observes the closed mailbox, and unwinds via the same
// errActorExited path an ordinary Quit takes, now carrying the reason
// Shutdown actually set rather than a hardcoded one (§9). It uses
// errgroup.WithContext to fold the "wait, but bounded by a deadline"
// dance into a single Wait call.
func (s *ActorSystem) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	for _, a := range s.registry.snapshot() {
		a.Quit(ExitReasonUserShutdown)
		a.mailbox.close()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-gctx.Done():
			return gctx.Err()
		}
	})

	err := g.Wait()
	s.scheduler.Close()
	return err
}

// Lookup exposes read-only registry lookup for callers (e.g. actorutil) that need
// to resolve an Address without going through an actor method.
func (s *ActorSystem) Lookup(addr Address) (*LocalActor, bool) {
	return s.registry.lookup(addr)
}

// Group returns the named pub/sub group, creating it on first use.
func (s *ActorSystem) Group(name string) *Group {
	return s.groups.get(name)
}

// Tell delivers msg to dest asynchronously with no sender, for callers
// that are not themselves an actor (e.g. an HTTP handler kicking off
// work). It is otherwise identical to LocalActor.Send's soft-fail
// semantics: an invalid or already-exited dest is a silent drop.
func (s *ActorSystem) Tell(dest Address, msg Message) {
	if !dest.Valid() {
		return
	}
	s.registry.deliver(dest, envelope{Mid: MessageID{}, Payload: msg})
}
