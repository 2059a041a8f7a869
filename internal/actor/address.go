package actor

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// systemTag is a per-process-run identifier mixed into every Address so that
// addresses from different process runs never collide. Every ActorSystem in
// one process shares this tag; within a process, uniqueness comes from
// addrSeq, which all systems share.
var systemTag = uuid.New()

// addrSeq is the process-wide monotonic counter backing Address allocation.
// It is never reset; 0 is reserved for the invalid/zero Address.
var addrSeq atomic.Uint64

// Address is a stable, copyable handle identifying an actor for its
// lifetime. It is a weak reference: holding an Address does not keep the
// underlying actor alive, and resolving it to a live actor is always a
// checked lookup through a Registry that can fail once the actor has been
// cleaned up.
//
// Address is comparable and therefore usable as a map key; equality is
// identity, never a function of actor state.
type Address struct {
	seq uint64
	tag uuid.UUID
}

// InvalidAddress is the sentinel zero-value Address. No actor is ever
// assigned this value.
var InvalidAddress = Address{}

// NewAddress allocates a fresh, process-unique Address.
func NewAddress() Address {
	return Address{
		seq: addrSeq.Add(1),
		tag: systemTag,
	}
}

// Valid reports whether a is anything other than the zero Address.
func (a Address) Valid() bool {
	return a.seq != 0
}

// String implements fmt.Stringer.
func (a Address) String() string {
	if !a.Valid() {
		return "actor://invalid"
	}
	return fmt.Sprintf("actor://%s/%d", a.tag, a.seq)
}

// Less provides a total order over addresses: by tag first, then by
// sequence number.
func (a Address) Less(other Address) bool {
	if a.tag != other.tag {
		return a.tag.String() < other.tag.String()
	}
	return a.seq < other.seq
}
