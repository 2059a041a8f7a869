package actor

import "sync"

// attachToken discriminates the kind of attachable node hanging off an
// actor's attachable list. Each variant implements matches against a token
// built by Detach so that Detach(monitorToken{addr}) removes only monitor
// nodes for that address, never link or subscription nodes.
type attachToken interface {
	matches(other attachToken) bool
}

type monitorToken struct{ target Address }

func (t monitorToken) matches(other attachToken) bool {
	o, ok := other.(monitorToken)
	return ok && o.target == t.target
}

type linkToken struct{ peer Address }

func (t linkToken) matches(other attachToken) bool {
	o, ok := other.(linkToken)
	return ok && o.peer == t.peer
}

type subscriptionToken struct{ group string }

func (t subscriptionToken) matches(other attachToken) bool {
	o, ok := other.(subscriptionToken)
	return ok && o.group == t.group
}

// attachable is one node in an actor's attachable list: a lifecycle
// observer fired exactly once, in attach order, when the owning actor
// cleans up.
type attachable struct {
	token  attachToken
	onExit func(reason ExitReason)
}

// attachableList is the per-actor linked list of lifecycle observers
// described in §4.C. All operations are O(n) under mtx, which is
// acceptable: an actor's set of monitors/links/subscriptions is expected to
// be small relative to its message volume.
type attachableList struct {
	mtx    sync.Mutex
	nodes  []*attachable
	fired  bool
	reason ExitReason
}

// attach pushes a new node. Nodes fire in the order they were attached
// (index order), matching the source's head-insertion-but-tail-firing
// traversal semantics as observed via its iterator.
func (l *attachableList) attach(a *attachable) {
	l.mtx.Lock()
	if l.fired {
		reason := l.reason
		l.mtx.Unlock()
		// Cleanup already ran; fire immediately with the reason it
		// actually exited with, so a late attach observes the real
		// terminal state instead of the misleading "not exited" value.
		a.onExit(reason)
		return
	}
	l.nodes = append(l.nodes, a)
	l.mtx.Unlock()
}

// detach removes every node whose token matches tok, returning the number
// removed. When dryRun is true, nodes are counted but not removed — used by
// Join's idempotence check (§4.C).
func (l *attachableList) detach(tok attachToken, dryRun bool) int {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	count := 0
	if dryRun {
		for _, n := range l.nodes {
			if n.token.matches(tok) {
				count++
			}
		}
		return count
	}

	kept := l.nodes[:0]
	for _, n := range l.nodes {
		if n.token.matches(tok) {
			count++
			continue
		}
		kept = append(kept, n)
	}
	l.nodes = kept
	return count
}

// cleanup fires every remaining node's onExit, head to tail, exactly once.
// A panicking onExit is recovered so the remaining attachables still run
// (§7 propagation policy); the recovered value is reported via the
// optional onPanic hook so the caller can log it.
func (l *attachableList) cleanup(reason ExitReason, onPanic func(recovered any)) {
	l.mtx.Lock()
	if l.fired {
		l.mtx.Unlock()
		return
	}
	l.fired = true
	l.reason = reason
	nodes := l.nodes
	l.nodes = nil
	l.mtx.Unlock()

	for _, n := range nodes {
		func() {
			defer func() {
				if r := recover(); r != nil && onPanic != nil {
					onPanic(r)
				}
			}()
			n.onExit(reason)
		}()
	}
}
