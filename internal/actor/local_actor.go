package actor

import (
	"sync"
	"sync/atomic"
	"time"
)

// Promise is returned by MakeResponsePromise. Fulfilling it enqueues a
// response envelope to whoever issued the original request, exactly once.
// A Promise obtained when there was no current element is "empty": Fulfill
// on it is a no-op, matching the source's behavior of handing back a
// default-constructed (inert) promise in that case.
type Promise struct {
	reg    *registry
	target Address
	mid    MessageID
	self   Address

	once sync.Once
}

// Fulfill sends msg back to the original caller as the response envelope.
// Calling Fulfill more than once has no additional effect.
func (p *Promise) Fulfill(msg Message) {
	if p == nil || !p.target.Valid() {
		return
	}
	p.once.Do(func() {
		p.reg.deliver(p.target, envelope{
			Sender:  p.self,
			Mid:     p.mid,
			Payload: msg,
		})
	})
}

// LocalActor is the base every actor in this runtime embeds. It owns
// addressing, the mailbox, the attachable list, and the bookkeeping
// required by Send/Reply/Forward/Monitor/Join/Quit as specified in §4.E.
// It does not itself run anything; BlockingActor (and, outside this core,
// any event-driven counterpart) drives it.
type LocalActor struct {
	addr    Address
	reg     *registry
	groups  *groupRegistry
	sched   *Scheduler
	mailbox *mailbox

	attachables *attachableList

	// currentMu guards currentElement, which is non-nil only for the
	// duration of whichever handler invocation is using it. It is only
	// ever touched from this actor's own goroutine, so the mutex exists
	// purely to make LastDequeued/LastSender/Reply/Forward safe to call
	// from helper functions that might (incorrectly) be invoked from
	// another goroutine; it is never contended in normal operation.
	currentMu sync.Mutex
	current   *envelope

	reqSeq uint64

	exitReason atomic.Uint32
	cleanupOn  sync.Once

	onExitPanic func(recovered any)
}

// newLocalActor constructs a LocalActor bound to reg but not yet registered
// in it. Callers
// (Spawn, BlockingActor constructors) are responsible for calling
// reg.register once the actor is otherwise ready to receive.
func newLocalActor(reg *registry, groups *groupRegistry, sched *Scheduler) *LocalActor {
	return &LocalActor{
		addr:        NewAddress(),
		reg:         reg,
		groups:      groups,
		sched:       sched,
		mailbox:     newMailbox(),
		attachables: &attachableList{},
		onExitPanic: func(recovered any) {
			log.Warnf("attachable panicked during cleanup: %v", recovered)
		},
	}
}

// Address returns this actor's stable handle.
func (a *LocalActor) Address() Address { return a.addr }

// PlannedExitReason returns ExitReasonNotExited until Quit has been called,
// after which it returns the reason Quit was called with.
func (a *LocalActor) PlannedExitReason() ExitReason {
	return ExitReason(a.exitReason.Load())
}

// NewRequestID allocates the next per-actor request sequence, stamped
// normal-priority, not a response, not answered.
func (a *LocalActor) NewRequestID() MessageID {
	seq := atomic.AddUint64(&a.reqSeq, 1)
	return MessageID{seq: seq}
}

// Send asynchronously enqueues msg on target's mailbox at the given
// priority. It never blocks and never fails visibly: an invalid or
// already-exited target is a silent drop (§7.3).
func (a *LocalActor) Send(priority Priority, target Address, msg Message) {
	if !target.Valid() {
		return
	}
	mid := MessageID{priority: priority}
	a.reg.deliver(target, envelope{Sender: a.addr, Mid: mid, Payload: msg})
}

// LastDequeued returns the payload of the envelope currently being
// handled. It fails with ErrNoCurrentElement outside a handler invocation
// (§7.2).
func (a *LocalActor) LastDequeued() (Message, error) {
	a.currentMu.Lock()
	defer a.currentMu.Unlock()
	if a.current == nil {
		log.Warnf("actor %s: LastDequeued called with no current element", a.addr)
		return nil, ErrNoCurrentElement
	}
	return a.current.Payload, nil
}

// LastSender returns the sender of the envelope currently being handled.
// It fails with ErrNoCurrentElement outside a handler invocation (§7.2).
func (a *LocalActor) LastSender() (Address, error) {
	a.currentMu.Lock()
	defer a.currentMu.Unlock()
	if a.current == nil {
		log.Warnf("actor %s: LastSender called with no current element", a.addr)
		return Address{}, ErrNoCurrentElement
	}
	return a.current.Sender, nil
}

// ReplyMessage answers the envelope currently being handled. Per §4.E:
//   - no sender on the current envelope -> silent drop.
//   - current id invalid or itself a response -> treated as an async Tell
//     to the sender (the "reply to a group" degenerate case, §9).
//   - otherwise -> enqueue with the response id, then mark the current id
//     answered so a second ReplyMessage call is a no-op (P4).
func (a *LocalActor) ReplyMessage(msg Message) {
	a.currentMu.Lock()
	defer a.currentMu.Unlock()

	if a.current == nil {
		return
	}
	if !a.current.Sender.Valid() {
		return
	}
	if a.current.Mid.IsAnswered() {
		return
	}
	if !a.current.Mid.Valid() || a.current.Mid.IsResponse() {
		a.reg.deliver(a.current.Sender, envelope{
			Sender:  a.addr,
			Mid:     MessageID{},
			Payload: msg,
		})
		return
	}

	respID := a.current.Mid.ResponseID()
	a.reg.deliver(a.current.Sender, envelope{
		Sender:  a.addr,
		Mid:     respID,
		Payload: msg,
	})
	a.current.Mid = a.current.Mid.MarkAsAnswered()
}

// ForwardMessage rewrites the current envelope's priority and re-enqueues
// it (sender preserved) on dest, consuming currentElement: after Forward
// returns, LastDequeued/LastSender/ReplyMessage observe no current element
// for the remainder of the handler (§4.E).
func (a *LocalActor) ForwardMessage(dest Address, priority Priority) {
	a.currentMu.Lock()
	cur := a.current
	a.current = nil
	a.currentMu.Unlock()

	if cur == nil || !dest.Valid() {
		return
	}

	fwd := *cur
	if priority == PriorityHigh {
		fwd.Mid = fwd.Mid.WithHighPriority()
	} else {
		fwd.Mid = fwd.Mid.WithNormalPriority()
	}
	a.reg.deliver(dest, fwd)
}

// MakeResponsePromise captures (self, currentElement.Sender,
// currentElement.Mid.ResponseID()) and marks the current id answered. If
// there is no current element, it returns an inert Promise whose Fulfill
// is a no-op (§4.E).
func (a *LocalActor) MakeResponsePromise() *Promise {
	a.currentMu.Lock()
	defer a.currentMu.Unlock()

	if a.current == nil {
		return &Promise{}
	}
	p := &Promise{
		reg:    a.reg,
		target: a.current.Sender,
		mid:    a.current.Mid.ResponseID(),
		self:   a.addr,
	}
	a.current.Mid = a.current.Mid.MarkAsAnswered()
	return p
}

// Monitor attaches a one-shot observer on target: when target exits, a
// DownMsg is enqueued to this actor. A no-op for an invalid target (§4.E).
func (a *LocalActor) Monitor(target Address) {
	if !target.Valid() {
		return
	}
	other, ok := a.reg.lookup(target)
	if !ok {
		return
	}
	self := a.addr
	other.attachables.attach(&attachable{
		token: monitorToken{target: self},
		onExit: func(reason ExitReason) {
			a.reg.deliver(self, envelope{
				Sender: target,
				Mid:    MessageID{}.WithHighPriority(),
				Payload: DownMsg{
					Source: target,
					Reason: reason,
				},
			})
		},
	})
}

// Demonitor removes a previously installed monitor on target, if any.
func (a *LocalActor) Demonitor(target Address) {
	if !target.Valid() {
		return
	}
	other, ok := a.reg.lookup(target)
	if !ok {
		return
	}
	other.attachables.detach(monitorToken{target: a.addr}, false)
}

// Link establishes a bidirectional exit-propagation relationship: when
// either side exits, the other receives a high-priority ExitMsg.
func (a *LocalActor) Link(peer Address) {
	if !peer.Valid() || peer == a.addr {
		return
	}
	other, ok := a.reg.lookup(peer)
	if !ok {
		return
	}
	self := a.addr
	linkFire := func(from Address, to *LocalActor) func(ExitReason) {
		return func(reason ExitReason) {
			a.reg.deliver(to.addr, envelope{
				Sender: from,
				Mid:    MessageID{}.WithHighPriority(),
				Payload: ExitMsg{
					Source: from,
					Reason: reason,
				},
			})
		}
	}
	other.attachables.attach(&attachable{
		token:  linkToken{peer: self},
		onExit: linkFire(peer, a),
	})
	a.attachables.attach(&attachable{
		token:  linkToken{peer: peer},
		onExit: linkFire(self, other),
	})
}

// Unlink tears down a previously established Link in both directions.
func (a *LocalActor) Unlink(peer Address) {
	a.attachables.detach(linkToken{peer: peer}, false)
	if other, ok := a.reg.lookup(peer); ok {
		other.attachables.detach(linkToken{peer: a.addr}, false)
	}
}

// Join subscribes this actor to the named group, idempotently: a second
// Join with no intervening Leave produces exactly one subscription (P7),
// implemented by a dry-run detach before attaching (§4.C).
func (a *LocalActor) Join(groupName string) {
	g := a.groups.get(groupName)
	tok := subscriptionToken{group: groupName}
	if a.attachables.detach(tok, true) > 0 {
		return
	}
	self := a.addr
	a.attachables.attach(&attachable{
		token: tok,
		onExit: func(ExitReason) {
			g.removeMember(self)
		},
	})
	g.addMember(self)
}

// Leave unsubscribes this actor from the named group.
func (a *LocalActor) Leave(groupName string) {
	g := a.groups.get(groupName)
	a.attachables.detach(subscriptionToken{group: groupName}, false)
	g.removeMember(a.addr)
}

// TellGroup asynchronously broadcasts msg to every current member of the
// named group.
func (a *LocalActor) TellGroup(groupName string, msg Message) {
	g := a.groups.get(groupName)
	g.Tell(envelope{Sender: a.addr, Mid: MessageID{}, Payload: msg})
}

// SendExit sends a high-priority ExitMsg to target, the async analogue of
// Link's automatic propagation for callers that want to trigger it
// explicitly.
func (a *LocalActor) SendExit(target Address, reason ExitReason) {
	if !target.Valid() {
		return
	}
	a.reg.deliver(target, envelope{
		Sender: a.addr,
		Mid:    MessageID{}.WithHighPriority(),
		Payload: ExitMsg{
			Source: a.addr,
			Reason: reason,
		},
	})
}

// DelayedSend arranges for msg to be enqueued on dest after relTime,
// handing off to the scheduling coordinator's timer source (§4.H).
func (a *LocalActor) DelayedSend(relTime time.Duration, dest Address, msg Message, priority Priority) {
	if !dest.Valid() {
		return
	}
	a.sched.delayedSend(relTime, a.reg, dest, envelope{
		Sender:  a.addr,
		Mid:     MessageID{priority: priority},
		Payload: msg,
	})
}

// Quit sets the planned exit reason. For a BlockingActor this is observed
// by the receive combinators via the errActorExited sentinel (§9); for an
// actor that never calls Quit, Act() returning normally implies
// ExitReasonNormal.
func (a *LocalActor) Quit(reason ExitReason) {
	a.exitReason.CompareAndSwap(uint32(ExitReasonNotExited), uint32(reason))
}

// Cleanup runs every attachable's OnExit in attach order, deregisters the
// actor, and closes the mailbox. It is idempotent: only the first call has
// any effect.
func (a *LocalActor) Cleanup(reason ExitReason) {
	a.cleanupOn.Do(func() {
		a.attachables.cleanup(reason, a.onExitPanic)
		a.reg.unregister(a.addr)
		a.mailbox.close()
	})
}

func (a *LocalActor) setCurrent(env *envelope) {
	a.currentMu.Lock()
	a.current = env
	a.currentMu.Unlock()
}
