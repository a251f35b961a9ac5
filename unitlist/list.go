// Package unitlist implements the windowed list of units awaiting
// validation (spec §4.4) and the bounded ring of pending-group snapshots
// used when a GOP closes before its public key has arrived.
package unitlist

import (
	"github.com/bugVanisher/signedvideo/nalu"
	"github.com/bugVanisher/signedvideo/report"
)

// List is the doubly-linked window of Items, backed by an arena of
// integer handles (spec Design Note 1) rather than raw pointers.
type List struct {
	items map[Handle]*Item
	next  Handle
	first Handle
	last  Handle
	count int

	Pending *PendingRing
}

// New returns an empty List.
func New() *List {
	return &List{
		items:   make(map[Handle]*Item),
		next:    0,
		first:   NoHandle,
		last:    NoHandle,
		Pending: NewPendingRing(),
	}
}

// Append adds u to the tail of the window and returns its handle.
// Non-hashable units are marked Ignored immediately (spec §4.6 step 1);
// everything else starts out Pending.
func (l *List) Append(u *nalu.Unit) Handle {
	h := l.next
	l.next++

	verdict := report.Pending
	if !u.IsHashable {
		verdict = report.Ignored
	}

	item := &Item{
		Unit:    u,
		Verdict: verdict,
		handle:  h,
		prev:    l.last,
		next:    NoHandle,
	}
	l.items[h] = item

	if l.last != NoHandle {
		l.items[l.last].next = h
	} else {
		l.first = h
	}
	l.last = h
	l.count++
	return h
}

// Get returns the item for h, or nil if it has been pruned.
func (l *List) Get(h Handle) *Item {
	if h == NoHandle {
		return nil
	}
	return l.items[h]
}

// First returns the handle of the oldest unpruned item.
func (l *List) First() Handle { return l.first }

// Last returns the handle of the most recently appended item.
func (l *List) Last() Handle { return l.last }

// Next returns h's successor, or NoHandle at the tail.
func (l *List) Next(h Handle) Handle {
	it := l.Get(h)
	if it == nil {
		return NoHandle
	}
	return it.next
}

// Prev returns h's predecessor, or NoHandle at the head.
func (l *List) Prev(h Handle) Handle {
	it := l.Get(h)
	if it == nil {
		return NoHandle
	}
	return it.prev
}

// Count returns the number of items currently in the window.
func (l *List) Count() int { return l.count }

// PruneBefore destroys every item strictly before h — no later unit could
// still reference them (spec §3 Item lifecycle). h itself is kept.
func (l *List) PruneBefore(h Handle) {
	cur := l.first
	for cur != NoHandle && cur != h {
		nextH := l.items[cur].next
		delete(l.items, cur)
		l.count--
		cur = nextH
	}
	l.first = cur
	if l.first == NoHandle {
		l.last = NoHandle
	} else {
		l.items[l.first].prev = NoHandle
	}
}

// Range calls fn for every item from first up to but excluding until, in
// list order. It is how the group-closure verdict sweep walks "from the
// first unvalidated item to the newly arrived SEI" (spec §4.4).
func (l *List) Range(first, until Handle, fn func(h Handle, it *Item)) {
	h := first
	for h != NoHandle && h != until {
		it := l.items[h]
		if it == nil {
			return
		}
		next := it.next
		fn(h, it)
		h = next
	}
}
