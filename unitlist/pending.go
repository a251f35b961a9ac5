package unitlist

import "github.com/bugVanisher/signedvideo/common/errs"

// MaxPendingGOPs bounds the number of closed-but-unverified groups a
// session will hold while waiting for a public key to arrive via the
// recurrent TLV fields (spec §3 Group State, Design Note 5).
const MaxPendingGOPs = 120

// PendingSnapshot captures a closed group's window bounds so it can be
// replayed once the data it was waiting on shows up. Data is opaque to
// unitlist (session stores its own pending-group record there); keeping it
// as interface{} avoids an import cycle between unitlist and session.
type PendingSnapshot struct {
	Start Handle
	End   Handle
	Data  interface{}
}

// PendingRing is the bounded FIFO of PendingSnapshots. Overflow is fatal:
// the spec treats unbounded waiting on a late key as a stream-level error,
// not a recoverable per-unit one.
type PendingRing struct {
	items []PendingSnapshot
}

// NewPendingRing returns an empty ring.
func NewPendingRing() *PendingRing {
	return &PendingRing{items: make([]PendingSnapshot, 0, MaxPendingGOPs)}
}

// Push appends a snapshot, returning a fatal errs.Error if the ring is
// already at MaxPendingGOPs.
func (r *PendingRing) Push(s PendingSnapshot) error {
	if len(r.items) >= MaxPendingGOPs {
		return errs.Wrapf(errs.ErrMemory, "pending group ring exceeded %d entries", MaxPendingGOPs)
	}
	r.items = append(r.items, s)
	return nil
}

// Len returns the number of snapshots currently waiting.
func (r *PendingRing) Len() int { return len(r.items) }

// PopAll drains and returns every pending snapshot in arrival order, for
// replay once a late public key arrives.
func (r *PendingRing) PopAll() []PendingSnapshot {
	out := r.items
	r.items = make([]PendingSnapshot, 0, MaxPendingGOPs)
	return out
}
