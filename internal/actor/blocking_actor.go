package actor

import "time"

// ActFunc is the user-supplied actor body for a function-based
// BlockingActor. The two constructors below correspond to the source's
// functor_based detection of whether the supplied callable wants the actor
// as its first argument; Go has no overload resolution on function values,
// so the two forms get two separate constructors instead of one (§6).
type ActFunc func(*BlockingActor)

// BlockingActor is the thread-mapped actor described in §4.G: it runs its
// Act body on one goroutine, issuing blocking receive calls that suspend
// the goroutine until a matching envelope arrives.
type BlockingActor struct {
	*LocalActor
	syncState

	skipBuffer []envelope
	act        ActFunc
}

// NewBlockingActorSelfFunc builds a BlockingActor whose body receives the
// actor itself, for bodies that need to call Send/Monitor/etc. on self
// from a closure that doesn't already capture it.
func NewBlockingActorSelfFunc(sys *ActorSystem, f func(*BlockingActor)) *BlockingActor {
	return newBlockingActor(sys, f)
}

// NewBlockingActorFunc builds a BlockingActor whose body takes no
// arguments; it must have captured whatever BlockingActor reference it
// needs through its closure (typically unnecessary, since such bodies
// usually only call package-level helpers).
func NewBlockingActorFunc(sys *ActorSystem, f func()) *BlockingActor {
	return newBlockingActor(sys, func(*BlockingActor) { f() })
}

func newBlockingActor(sys *ActorSystem, f ActFunc) *BlockingActor {
	a := &BlockingActor{
		LocalActor: newLocalActor(sys.registry, sys.groups, sys.scheduler),
		syncState:  newSyncState(),
		act:        f,
	}
	return a
}

// Start registers the actor and launches its Act body on a new goroutine.
// The ActorSystem's WaitGroup tracks the goroutine so Shutdown can block
// until it exits.
func (a *BlockingActor) Start(sys *ActorSystem) {
	sys.registry.register(a.LocalActor)
	sys.wg.Add(1)
	go func() {
		defer sys.wg.Done()
		a.run()
	}()
}

func (a *BlockingActor) run() {
	reason := ExitReasonNormal

	func() {
		defer func() {
			if r := recover(); r != nil {
				if exited, ok := asActorExited(asError(r)); ok {
					reason = exited
					return
				}
				log.Errorf("actor %s: unhandled panic: %v", a.Address(), r)
				reason = ExitReasonUnhandledException
			}
		}()
		a.act(a)
		if planned := a.PlannedExitReason(); planned != ExitReasonNotExited {
			reason = planned
		}
	}()

	a.Cleanup(reason)
}

// asError normalizes a recovered panic value to an error so
// asActorExited's errors.As can inspect it; non-error panic values (a
// genuine user bug) simply fail the type assertion and fall through to
// the unhandled-exception path.
func asError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return nil
}

// checkExit panics with the actor-exited sentinel if Quit has been called.
// This is the sole non-local-control-transfer mechanism in this package:
// Go has no equivalent to the source's C++ exception unwinding through
// arbitrary call depth, and panic/recover is the idiomatic substitute (the
// same technique encoding/gob and text/template use internally).
func (a *BlockingActor) checkExit() {
	if reason := a.PlannedExitReason(); reason != ExitReasonNotExited {
		panic(&errActorExited{reason: reason})
	}
}

// matchOne attempts to match env against the sync-call correlator first,
// then against b. It returns the thunk to invoke (already bound to env's
// payload) and true on a match.
func (a *BlockingActor) matchOne(env envelope, b *Behavior) (func(), bool) {
	if env.Mid.IsResponse() {
		if cont, ok := a.takeContinuation(env.Mid); ok {
			payload := env.Payload
			return func() { cont(payload) }, true
		}
	}
	return b.fires(env.Payload)
}

// dequeue implements the matching algorithm of §4.G: scan the skip-buffer
// first, then block on the mailbox, stashing non-matching envelopes into
// the skip-buffer in arrival order (P8) until one matches or the
// behavior's timeout elapses.
func (a *BlockingActor) dequeue(b *Behavior) {
	for i, env := range a.skipBuffer {
		if invoke, ok := a.matchOne(env, b); ok {
			a.skipBuffer = append(a.skipBuffer[:i], a.skipBuffer[i+1:]...)
			a.deliverToHandler(env, invoke)
			return
		}
	}

	var deadline time.Time
	hasDeadline := b.timeout > 0
	if hasDeadline {
		deadline = time.Now().Add(b.timeout)
	}

	for {
		remaining := time.Duration(-1)
		if hasDeadline {
			remaining = time.Until(deadline)
			if remaining <= 0 {
				if b.onTimeout != nil {
					b.onTimeout()
				}
				a.checkExit()
				return
			}
		}

		env, ok, timedOut := a.mailbox.dequeue(remaining)
		if !ok {
			if timedOut {
				if b.onTimeout != nil {
					b.onTimeout()
				}
				a.checkExit()
				return
			}
			// Mailbox closed with nothing pending: unwind with
			// whatever reason Quit already planned (e.g.
			// ExitReasonUserShutdown from ActorSystem.Shutdown), or
			// ExitReasonNormal if nothing planned one.
			reason := a.PlannedExitReason()
			if reason == ExitReasonNotExited {
				reason = ExitReasonNormal
			}
			panic(&errActorExited{reason: reason})
		}

		if invoke, ok := a.matchOne(env, b); ok {
			a.deliverToHandler(env, invoke)
			return
		}
		a.skipBuffer = append(a.skipBuffer, env)
	}
}

func (a *BlockingActor) deliverToHandler(env envelope, invoke func()) {
	a.setCurrent(&env)
	invoke()
	a.setCurrent(nil)
	a.checkExit()
}

// Receive dequeues and handles exactly one envelope matching b.
func (a *BlockingActor) Receive(b *Behavior) {
	a.dequeue(b)
}

// ReceiveLoop dequeues and handles envelopes matching b forever, until
// Quit unwinds the loop. The behavior is built once by the caller and
// reused across iterations, per §4.G.
func (a *BlockingActor) ReceiveLoop(b *Behavior) {
	for {
		a.dequeue(b)
	}
}

// ReceiveFor runs dequeue while *i != end, incrementing *i after each
// successful dequeue.
func (a *BlockingActor) ReceiveFor(i *int, end int, b *Behavior) {
	for *i != end {
		a.dequeue(b)
		*i++
	}
}

// ReceiveWhile runs dequeue while pred returns true, evaluated before each
// iteration.
func (a *BlockingActor) ReceiveWhile(pred func() bool, b *Behavior) {
	for pred() {
		a.dequeue(b)
	}
}

// DoReceiveBuilder supports the do_receive(...).Until(pred) combinator.
type DoReceiveBuilder struct {
	actor *BlockingActor
	b     *Behavior
}

// DoReceive begins a do-while style receive: the behavior runs at least
// once before Until's predicate is first consulted.
func (a *BlockingActor) DoReceive(b *Behavior) *DoReceiveBuilder {
	return &DoReceiveBuilder{actor: a, b: b}
}

// Until runs the behavior at least once, stopping as soon as pred returns
// true immediately after a dequeue.
func (d *DoReceiveBuilder) Until(pred func() bool) {
	for {
		d.actor.dequeue(d.b)
		if pred() {
			return
		}
	}
}
