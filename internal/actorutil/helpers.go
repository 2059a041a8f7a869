// Package actorutil provides convenience helpers for code that needs to
// talk to actors from an ordinary goroutine — one that is not itself the
// single owning goroutine of a BlockingActor and therefore cannot call
// SyncSend/Receive directly.
package actorutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/go-actors/actorcore/internal/actor"
)

// ErrCallTimeout is returned by CallBlocking when the request's
// SyncTimeoutMsg wins the race against a real response.
var ErrCallTimeout = fmt.Errorf("actorutil: call timed out")

// CallBlocking spawns a disposable one-shot BlockingActor that performs a
// TimedSyncSend to dest and blocks the calling goroutine until the
// response (or timeout) arrives. It is the bridge between "plain Go code"
// and the synchronous-call correlator described in §4.F: everything the
// actor runtime offers for request/response is expressed in terms of a
// BlockingActor's own goroutine, so calling it from outside one still
// needs a throwaway actor to own the receive.
func CallBlocking[T actor.Message](
	ctx context.Context,
	sys *actor.ActorSystem,
	dest actor.Address,
	msg actor.Message,
	timeout time.Duration,
) fn.Result[T] {

	resultCh := make(chan fn.Result[T], 1)

	_, err := sys.Spawn(func(a *actor.BlockingActor) {
		req, err := a.TimedSyncSend(actor.PriorityNormal, dest, timeout, msg)
		if err != nil {
			resultCh <- fn.Err[T](err)
			a.Quit(actor.ExitReasonNormal)
			return
		}

		req.Then(func(resp actor.Message) {
			defer a.Quit(actor.ExitReasonNormal)

			if _, isTimeout := resp.(actor.SyncTimeoutMsg); isTimeout {
				resultCh <- fn.Err[T](ErrCallTimeout)
				return
			}

			typed, ok := resp.(T)
			if !ok {
				resultCh <- fn.Err[T](fmt.Errorf(
					"actorutil: unexpected response type %T", resp,
				))
				return
			}
			resultCh <- fn.Ok(typed)
		})

		a.Receive(actor.NewBehavior())
	})
	if err != nil {
		return fn.Err[T](err)
	}

	select {
	case res := <-resultCh:
		return res
	case <-ctx.Done():
		return fn.Err[T](ctx.Err())
	}
}

// ParallelCall issues CallBlocking against every dest concurrently and
// collects the results in input order.
func ParallelCall[T actor.Message](
	ctx context.Context,
	sys *actor.ActorSystem,
	dests []actor.Address,
	msg actor.Message,
	timeout time.Duration,
) []fn.Result[T] {

	results := make([]fn.Result[T], len(dests))

	var wg sync.WaitGroup
	wg.Add(len(dests))
	for i, dest := range dests {
		go func(idx int, d actor.Address) {
			defer wg.Done()
			results[idx] = CallBlocking[T](ctx, sys, d, msg, timeout)
		}(i, dest)
	}
	wg.Wait()

	return results
}

// BroadcastTell fires msg at every address in dests without waiting for
// any response, the async analogue of ParallelCall.
func BroadcastTell(sys *actor.ActorSystem, dests []actor.Address, msg actor.Message) {
	for _, dest := range dests {
		sys.Tell(dest, msg)
	}
}

// CollectSuccesses filters a slice of results and returns only the
// successful values, discarding any errors — carried over from the
// teacher's generic result-helper set.
func CollectSuccesses[T any](results []fn.Result[T]) []T {
	var out []T
	for _, r := range results {
		if val, err := r.Unpack(); err == nil {
			out = append(out, val)
		}
	}
	return out
}

// FirstError returns the first error among results, or nil if every call
// succeeded.
func FirstError[T any](results []fn.Result[T]) error {
	for _, r := range results {
		if _, err := r.Unpack(); err != nil {
			return err
		}
	}
	return nil
}
