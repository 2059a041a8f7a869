package actorutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/go-actors/actorcore/internal/actor"
)

func echoFactory(idx int) actor.ActFunc {
	return func(a *actor.BlockingActor) {
		a.ReceiveLoop(actor.NewBehavior(actor.On(func(p pingMsg) {
			a.ReplyMessage(pongMsg{n: p.n*1000 + idx})
		})))
	}
}

func TestPoolRoundRobinsAcrossMembers(t *testing.T) {
	t.Parallel()
	sys := newTestSystem(t)

	pool, err := NewPool(sys, PoolConfig{Size: 3, Factory: echoFactory})
	require.NoError(t, err)
	require.Equal(t, 3, pool.Size())
	require.Len(t, pool.Addresses(), 3)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	seen := make(map[int]struct{})
	for i := 0; i < 6; i++ {
		res := Call[pongMsg](ctx, pool, pingMsg{n: 0}, 200*time.Millisecond)
		val, err := res.Unpack()
		require.NoError(t, err)
		seen[val.n%1000] = struct{}{}
	}
	require.Len(t, seen, 3, "round-robin must eventually touch every member")
}

func TestPoolDefaultsSizeToOne(t *testing.T) {
	t.Parallel()
	sys := newTestSystem(t)

	pool, err := NewPool(sys, PoolConfig{Size: 0, Factory: echoFactory})
	require.NoError(t, err)
	require.Equal(t, 1, pool.Size())
}

func TestPoolBroadcastCallReachesEveryMember(t *testing.T) {
	t.Parallel()
	sys := newTestSystem(t)

	pool, err := NewPool(sys, PoolConfig{Size: 4, Factory: echoFactory})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	results := BroadcastCall[pongMsg](ctx, pool, pingMsg{n: 7}, 200*time.Millisecond)
	require.Len(t, results, 4)

	indices := make(map[int]struct{})
	for _, res := range results {
		val, err := res.Unpack()
		require.NoError(t, err)
		require.Equal(t, 7000, (val.n/1000)*1000)
		indices[val.n%1000] = struct{}{}
	}
	require.Len(t, indices, 4, "broadcast must reach every distinct member")
}

func TestPoolTellAndBroadcastDeliverAsync(t *testing.T) {
	t.Parallel()
	sys := newTestSystem(t)

	const size = 3
	doneCh := make(chan int, size*2)
	pool, err := NewPool(sys, PoolConfig{Size: size, Factory: func(idx int) actor.ActFunc {
		return func(a *actor.BlockingActor) {
			a.ReceiveLoop(actor.NewBehavior(actor.On(func(pingMsg) {
				doneCh <- idx
			})))
		}
	}})
	require.NoError(t, err)

	pool.Tell(pingMsg{n: 0})
	pool.Broadcast(pingMsg{n: 0})

	received := 0
	for received < 1+size {
		select {
		case <-doneCh:
			received++
		case <-time.After(time.Second):
			t.Fatalf("only received %d of %d expected deliveries", received, 1+size)
		}
	}
}
