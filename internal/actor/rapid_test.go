package actor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// P1: a Lookup on an Address is only ever valid while its actor is
// registered; after cleanup it always fails, regardless of how many times
// it is retried. Modeled as a property over an arbitrary number of
// actors spawned and then torn down in arbitrary order.
func TestRapidLookupReflectsLifetime(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		sys := NewActorSystemWithConfig(SystemConfig{ShutdownTimeout: time.Second})
		defer sys.scheduler.Close()

		n := rapid.IntRange(1, 8).Draw(rt, "n")
		addrs := make([]Address, n)
		for i := 0; i < n; i++ {
			addr, err := sys.Spawn(func(a *BlockingActor) {
				a.Receive(NewBehavior(On(func(strMsg) {
					a.Quit(ExitReasonNormal)
				})))
			})
			if err != nil {
				rt.Fatal(err)
			}
			addrs[i] = addr
		}

		for _, addr := range addrs {
			_, ok := sys.Lookup(addr)
			require.True(rt, ok, "freshly spawned actor must resolve")
		}

		for _, addr := range addrs {
			sys.Tell(addr, strMsg{s: "die"})
		}

		for _, addr := range addrs {
			require.Eventually(rt, func() bool {
				_, ok := sys.Lookup(addr)
				return !ok
			}, time.Second, time.Millisecond, "exited actor must stop resolving")
		}
	})
}

// P2: envelopes sent by a single sender to a single target are delivered
// in the order Send was called, regardless of how many are enqueued
// before the target starts draining its mailbox.
func TestRapidFIFOPerSender(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		sys := NewActorSystemWithConfig(SystemConfig{ShutdownTimeout: time.Second})
		defer sys.scheduler.Close()

		n := rapid.IntRange(1, 50).Draw(rt, "n")
		gotCh := make(chan int, n)

		addr, err := sys.Spawn(func(a *BlockingActor) {
			i := 0
			a.ReceiveFor(&i, n, NewBehavior(On(func(m intMsg) {
				gotCh <- m.n
			})))
			a.Quit(ExitReasonNormal)
		})
		if err != nil {
			rt.Fatal(err)
		}

		for i := 0; i < n; i++ {
			sys.Tell(addr, intMsg{n: i})
		}

		for i := 0; i < n; i++ {
			select {
			case got := <-gotCh:
				require.Equal(rt, i, got, "messages from one sender must arrive in send order")
			case <-time.After(time.Second):
				rt.Fatal("mailbox never drained")
			}
		}
	})
}

// P3: however many normal-priority envelopes precede a high-priority one
// in a mailbox, the high-priority envelope is always dequeued first.
func TestRapidHighPriorityAlwaysFirst(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		mb := newMailbox()
		n := rapid.IntRange(0, 200).Draw(rt, "n")
		for i := 0; i < n; i++ {
			mb.enqueue(envelope{Payload: OpaqueMessage{Tag: "normal"}})
		}
		mb.enqueue(envelope{
			Mid:     MessageID{}.WithHighPriority(),
			Payload: OpaqueMessage{Tag: "high"},
		})
		for i := 0; i < n; i++ {
			mb.enqueue(envelope{Payload: OpaqueMessage{Tag: "normal"}})
		}

		env, ok, _ := mb.dequeue(time.Second)
		require.True(rt, ok)
		require.Equal(rt, "high", env.Payload.(OpaqueMessage).Tag)
	})
}

// P6: Cleanup may be invoked any number of times (run()'s recover path and
// a concurrent external Shutdown can both reach it); only the first call
// has any effect; later calls are no-ops, observable via each attachable
// firing exactly once.
func TestRapidCleanupFiresOnce(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		reg := newRegistry()
		groups := newGroupRegistry(reg)
		sched := NewScheduler()
		defer sched.Close()

		a := newLocalActor(reg, groups, sched)
		reg.register(a)

		fireCount := 0
		a.attachables.attach(&attachable{
			token:  monitorToken{target: NewAddress()},
			onExit: func(ExitReason) { fireCount++ },
		})

		calls := rapid.IntRange(1, 6).Draw(rt, "calls")
		for i := 0; i < calls; i++ {
			a.Cleanup(ExitReasonNormal)
		}

		require.Equal(rt, 1, fireCount, "cleanup must fire attachables exactly once no matter how many times it's invoked")

		_, ok := reg.lookup(a.Address())
		require.False(rt, ok)
	})
}

// P8: non-matching envelopes encountered while waiting for a specific
// message are preserved in the skip-buffer in arrival order and are
// still deliverable, in that order, to a later, broader Receive.
func TestRapidSkipBufferPreservesArrivalOrder(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		sys := NewActorSystemWithConfig(SystemConfig{ShutdownTimeout: time.Second})
		defer sys.scheduler.Close()

		n := rapid.IntRange(1, 20).Draw(rt, "n")
		resultCh := make(chan []int, 1)

		addr, err := sys.Spawn(func(a *BlockingActor) {
			// First, wait specifically for the strMsg "go" signal,
			// stashing every intMsg that arrives before it.
			a.Receive(NewBehavior(On(func(strMsg) {})))

			got := make([]int, 0, n)
			i := 0
			a.ReceiveFor(&i, n, NewBehavior(On(func(m intMsg) {
				got = append(got, m.n)
			})))
			resultCh <- got
			a.Quit(ExitReasonNormal)
		})
		if err != nil {
			rt.Fatal(err)
		}

		for i := 0; i < n; i++ {
			sys.Tell(addr, intMsg{n: i})
		}
		sys.Tell(addr, strMsg{s: "go"})

		select {
		case got := <-resultCh:
			want := make([]int, n)
			for i := range want {
				want[i] = i
			}
			require.Equal(rt, want, got, "skip-buffered envelopes must replay in their original arrival order")
		case <-time.After(2 * time.Second):
			rt.Fatal("actor never drained its skip buffer")
		}
	})
}
