package actor

import (
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Scheduler is the timer source described in §4.H. It is deliberately
// narrow: a delayed-send timer only (the actor count behind
// AwaitAllOtherActorsDone lives in the registry). The work-stealing
// policy of a real thread-pool scheduler is out of this core's scope (§1) — Scheduler only ever needs
// to know "fire this later," never "run this on which worker."
type Scheduler struct {
	mu      sync.Mutex
	closed  bool
	timers  []*time.Timer
	pending errgroup.Group
}

// NewScheduler constructs a Scheduler backed by time.AfterFunc. Each
// ActorSystem builds and owns its own instance, so tests get full
// isolation.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// delayedSend arms a timer that delivers env to dest (via reg) after
// relTime. The firing goroutine is tracked by an errgroup so Close can wait
// for any in-flight fire to settle before returning.
func (s *Scheduler) delayedSend(relTime time.Duration, reg *registry, dest Address, env envelope) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	var t *time.Timer
	t = time.AfterFunc(relTime, func() {
		s.pending.Go(func() error {
			reg.deliver(dest, env)
			return nil
		})
	})
	s.timers = append(s.timers, t)
	s.mu.Unlock()
}

// Close stops every still-pending timer and waits for any already-fired
// delivery goroutines to finish, bounding shutdown the same way
// ActorSystem.Shutdown bounds actor teardown.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	timers := s.timers
	s.timers = nil
	s.mu.Unlock()

	for _, t := range timers {
		t.Stop()
	}
	_ = s.pending.Wait()
}
