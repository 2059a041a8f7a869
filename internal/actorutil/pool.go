package actorutil

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/go-actors/actorcore/internal/actor"
)

// Pool distributes requests across a fixed set of BlockingActor instances
// using round-robin scheduling, horizontally scaling a workload that a
// single actor's serial mailbox would otherwise bottleneck.
type Pool struct {
	sys  *actor.ActorSystem
	addr []actor.Address
	next atomic.Uint64
}

// PoolConfig configures a pool.
type PoolConfig struct {
	// Size is the number of actor instances to create.
	Size int
	// Factory builds the Act body for the idx'th pool member.
	Factory func(idx int) actor.ActFunc
}

// NewPool spawns Size actors via sys.Spawn using Factory, returning a Pool
// ready to round-robin requests across them.
func NewPool(sys *actor.ActorSystem, cfg PoolConfig) (*Pool, error) {
	if cfg.Size <= 0 {
		cfg.Size = 1
	}

	addrs := make([]actor.Address, cfg.Size)
	for i := 0; i < cfg.Size; i++ {
		addr, err := sys.Spawn(cfg.Factory(i))
		if err != nil {
			return nil, err
		}
		addrs[i] = addr
	}

	return &Pool{sys: sys, addr: addrs}, nil
}

// Size returns the number of actors in the pool.
func (p *Pool) Size() int { return len(p.addr) }

// Addresses returns a copy of the pool's member addresses.
func (p *Pool) Addresses() []actor.Address {
	out := make([]actor.Address, len(p.addr))
	copy(out, p.addr)
	return out
}

func (p *Pool) pick() actor.Address {
	idx := p.next.Add(1) % uint64(len(p.addr))
	return p.addr[idx]
}

// Call performs a synchronous call against the next pool member in
// round-robin order.
func Call[T actor.Message](ctx context.Context, p *Pool, msg actor.Message, timeout time.Duration) fn.Result[T] {
	return CallBlocking[T](ctx, p.sys, p.pick(), msg, timeout)
}

// Tell fires a message at the next pool member without waiting for a
// response.
func (p *Pool) Tell(msg actor.Message) {
	p.sys.Tell(p.pick(), msg)
}

// Broadcast fires msg at every member of the pool.
func (p *Pool) Broadcast(msg actor.Message) {
	BroadcastTell(p.sys, p.addr, msg)
}

// BroadcastCall issues a synchronous call against every member of the pool
// concurrently and collects the results in member order.
func BroadcastCall[T actor.Message](
	ctx context.Context, p *Pool, msg actor.Message, timeout time.Duration,
) []fn.Result[T] {

	return ParallelCall[T](ctx, p.sys, p.addr, msg, timeout)
}
