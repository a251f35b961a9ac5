// Package digest implements the hash engine (spec §4.3): it produces a
// fixed-width digest of a coded unit's hashable span and maintains the
// running, chained per-group digest. The chained-hash primitive itself
// stays on the standard library's crypto/sha256 — no example repo in the
// retrieval pack supplies an alternate primitive the spec's fixed-width,
// chain-by-concatenation protocol would need instead (see DESIGN.md).
package digest

import "crypto/sha256"

// Size is the fixed digest width (spec §4.3, HASH_DIGEST_SIZE).
const Size = 32

// Of returns the digest of a coded unit's hashable span.
func Of(hashable []byte) [Size]byte {
	return sha256.Sum256(hashable)
}

// Chain computes the evolving per-group digest: H(prev || new), with
// big-endian concatenation (spec §4.3 numeric semantics). An all-zero
// prev represents "no group digest yet".
func Chain(prev [Size]byte, next [Size]byte) [Size]byte {
	buf := make([]byte, 0, Size*2)
	buf = append(buf, prev[:]...)
	buf = append(buf, next[:]...)
	return sha256.Sum256(buf)
}

// Engine accumulates a running group digest and, when per-frame
// authenticity is active, a bounded list of per-unit digests.
type Engine struct {
	running      [Size]byte
	hashList     [][Size]byte
	hashListCap  int
	listOverflow bool
}

// NewEngine returns an Engine whose per-unit hash list holds up to
// listCap entries before overflowing (spec §4.6 fallback). listCap <= 0
// disables per-unit list collection entirely (GOP-level authenticity).
func NewEngine(listCap int) *Engine {
	return &Engine{hashListCap: listCap}
}

// Reset clears the running digest and hash list, for the start of a new
// group.
func (e *Engine) Reset() {
	e.running = [Size]byte{}
	e.hashList = nil
	e.listOverflow = false
}

// HashAndAdd digests a unit's hashable span, optionally appends it to the
// per-unit hash list, and folds it into the running group digest
// (spec §4.3, hash_and_add). It returns the unit's own digest.
func (e *Engine) HashAndAdd(hashable []byte) [Size]byte {
	h := Of(hashable)
	if e.hashListCap > 0 {
		if len(e.hashList) < e.hashListCap {
			e.hashList = append(e.hashList, h)
		} else {
			e.listOverflow = true
		}
	}
	e.running = Chain(e.running, h)
	return h
}

// Running returns the current running group digest.
func (e *Engine) Running() [Size]byte { return e.running }

// HashList returns the accumulated per-unit digests, or nil if per-frame
// collection is disabled or the group already overflowed its cap.
func (e *Engine) HashList() [][Size]byte {
	if e.listOverflow {
		return nil
	}
	return e.hashList
}

// Overflowed reports whether the per-unit hash list exceeded its cap for
// the current group, meaning this group must fall back to GOP-level
// comparison semantics (spec §4.6 fallback, Design Note 6).
func (e *Engine) Overflowed() bool { return e.listOverflow }
