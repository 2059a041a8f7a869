package actor

import (
	"sync"
	"time"
)

// PendingRequest represents an in-flight SyncSend/TimedSyncSend awaiting a
// continuation. Then installs the behavior that runs when the matching
// response (or, for a timed request, the timeout) is dequeued. Installing
// a continuation is deliberately separate from issuing the send (§4.F):
// the caller may want to keep doing other work (e.g. issue several
// requests) before it starts consuming responses.
type PendingRequest struct {
	actor *BlockingActor
	id    MessageID
}

// Then installs handler as the continuation for this request's response.
// If the response (or timeout) has somehow already been consumed by the
// time Then is called, handler is dropped silently — callers that need a
// guarantee should install the continuation before yielding control.
func (r *PendingRequest) Then(handler func(Message)) {
	r.actor.pendingMu.Lock()
	r.actor.pendingSync[r.id] = handler
	r.actor.pendingMu.Unlock()
}

// syncState is the per-actor bookkeeping for the sync-call correlator
// (§4.F), embedded in BlockingActor rather than LocalActor because only a
// blocking actor's cooperative receive loop can service continuations.
type syncState struct {
	pendingMu   sync.Mutex
	pendingSync map[MessageID]func(Message)
}

func newSyncState() syncState {
	return syncState{pendingSync: make(map[MessageID]func(Message))}
}

// takeContinuation removes and returns the continuation registered for id,
// if any. The removal is what makes "first of {response, timeout} to
// arrive wins" correct: whichever is dequeued first pops the entry, so the
// second one (if it ever arrives) finds nothing and falls through to the
// unmatched path (P5).
func (s *syncState) takeContinuation(id MessageID) (func(Message), bool) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	f, ok := s.pendingSync[id]
	if ok {
		delete(s.pendingSync, id)
	}
	return f, ok
}

// SyncSend issues a one-shot request to dest, returning a PendingRequest
// the caller can chain .Then onto. Per §4.F rule 1, an invalid dest is
// rejected immediately rather than silently dropped, since a synchronous
// caller needs to know its request has no chance of ever completing.
func (a *BlockingActor) SyncSend(priority Priority, dest Address, msg Message) (*PendingRequest, error) {
	if !dest.Valid() {
		return nil, ErrInvalidTarget
	}
	id := a.NewRequestID()
	if priority == PriorityHigh {
		id = id.WithHighPriority()
	}
	a.reg.deliver(dest, envelope{Sender: a.addr, Mid: id, Payload: msg})
	return &PendingRequest{actor: a, id: id.ResponseID()}, nil
}

// TimedSyncSend is SyncSend plus a race against a timer: if no response
// for this request has been consumed within relTime, a SyncTimeoutMsg is
// delivered to the caller carrying the same response id, and whichever of
// {real response, timeout} is dequeued first wins (P5); the loser is
// dropped because takeContinuation already removed the map entry.
func (a *BlockingActor) TimedSyncSend(priority Priority, dest Address, relTime time.Duration, msg Message) (*PendingRequest, error) {
	req, err := a.SyncSend(priority, dest, msg)
	if err != nil {
		return nil, err
	}
	a.sched.delayedSend(relTime, a.reg, a.addr, envelope{
		Sender:  dest,
		Mid:     req.id,
		Payload: SyncTimeoutMsg{},
	})
	return req, nil
}
