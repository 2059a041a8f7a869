package actor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Shutdown must actually stop a long-lived ReceiveLoop actor well within
// the configured timeout, and that actor's monitor must observe
// ExitReasonUserShutdown rather than whatever reason a hardcoded unwind
// would otherwise produce.
func TestShutdownStopsReceiveLoopActorsWithUserShutdownReason(t *testing.T) {
	t.Parallel()

	sys := NewActorSystemWithConfig(SystemConfig{ShutdownTimeout: 2 * time.Second})

	workerAddr, err := sys.Spawn(func(a *BlockingActor) {
		a.ReceiveLoop(NewBehavior(On(func(strMsg) {})))
	})
	require.NoError(t, err)

	// Attach an observer directly (bypassing a second actor, whose own
	// mailbox Shutdown would otherwise close in the same sweep) so the
	// reason is observed without racing Shutdown's own signaling order.
	downCh := make(chan ExitReason, 1)
	worker, ok := sys.registry.lookup(workerAddr)
	require.True(t, ok)
	worker.attachables.attach(&attachable{
		token:  monitorToken{target: NewAddress()},
		onExit: func(reason ExitReason) { downCh <- reason },
	})

	start := time.Now()
	err = sys.Shutdown(context.Background())
	elapsed := time.Since(start)
	require.NoError(t, err)
	require.Less(t, elapsed, time.Second, "shutdown must not run out the clock waiting on a blocked ReceiveLoop")

	select {
	case reason := <-downCh:
		require.Equal(t, ExitReasonUserShutdown, reason)
	case <-time.After(time.Second):
		t.Fatal("monitor never observed the worker's shutdown")
	}
}

// Shutdown must reject new Spawn calls and still return promptly when
// there are no actors at all.
func TestShutdownRejectsSpawnAndCompletesWhenEmpty(t *testing.T) {
	t.Parallel()

	sys := NewActorSystemWithConfig(SystemConfig{ShutdownTimeout: time.Second})

	err := sys.Shutdown(context.Background())
	require.NoError(t, err)

	_, err = sys.Spawn(func(*BlockingActor) {})
	require.ErrorIs(t, err, ErrSystemShuttingDown)
}

// AwaitAllOtherActorsDone must unblock as soon as the watched actor exits,
// without waiting for any fixed polling interval, and must still respect
// context cancellation if the actor never exits.
func TestAwaitAllOtherActorsDoneWakesOnExit(t *testing.T) {
	t.Parallel()

	sys := NewActorSystemWithConfig(SystemConfig{ShutdownTimeout: time.Second})
	t.Cleanup(func() { sys.scheduler.Close() })

	workerAddr, err := sys.Spawn(func(a *BlockingActor) {
		a.Receive(NewBehavior(On(func(strMsg) {
			a.Quit(ExitReasonNormal)
		})))
	})
	require.NoError(t, err)

	doneCh := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		doneCh <- sys.AwaitAllOtherActorsDone(ctx, InvalidAddress)
	}()

	time.Sleep(20 * time.Millisecond)
	sys.Tell(workerAddr, strMsg{s: "die"})

	select {
	case err := <-doneCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("AwaitAllOtherActorsDone never woke up after the actor exited")
	}
}

func TestAwaitAllOtherActorsDoneRespectsContextDeadline(t *testing.T) {
	t.Parallel()

	sys := NewActorSystemWithConfig(SystemConfig{ShutdownTimeout: time.Second})
	t.Cleanup(func() { sys.scheduler.Close() })

	_, err := sys.Spawn(func(a *BlockingActor) {
		a.Receive(NewBehavior(On(func(strMsg) {})))
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = sys.AwaitAllOtherActorsDone(ctx, InvalidAddress)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
