package gopstate

import "github.com/bugVanisher/signedvideo/digest"

// Info is the Group Info record (spec §3): the evolving per-group digest
// state, plus the optional per-unit digest list used at Frame authenticity
// level and its fallback-to-GOP-level signal.
type Info struct {
	// Running is the evolving chained group digest (spec §4.3).
	Running [digest.Size]byte

	// PerUnit holds one digest per hashable unit when the Frame
	// authenticity level is active, bounded by Cap.
	PerUnit []([digest.Size]byte)
	Cap     int
	// Fallback is set once PerUnit would have overflowed Cap; the group
	// that set it compares at GOP level only (spec §4.6 Fallback).
	Fallback bool

	// Linking is the previous group's finalized running digest, carried
	// forward so a verifier can re-derive the chain across group
	// boundaries if the wire format links them (spec Glossary "GOP").
	Linking [digest.Size]byte

	started bool
}

// NewInfo returns a Group Info with a per-unit digest cap (0 disables the
// per-frame list entirely, i.e. GOP-only authenticity level).
func NewInfo(cap int) *Info {
	return &Info{Cap: cap}
}

// ResetForNewGroup clears per-group accumulation while carrying the
// chain-linking hash forward from the group that just closed.
func (g *Info) ResetForNewGroup(linking [digest.Size]byte) {
	g.Running = [digest.Size]byte{}
	g.PerUnit = nil
	g.Fallback = false
	g.Linking = linking
	g.started = false
}

// AddUnitDigest chains d into the running digest and, when the per-frame
// list has room, appends it. Returns true the first time this group's
// list overflows its cap (the fallback-to-GOP-level signal, spec Design
// Note 6); the caller switches that group's comparison path and should
// not treat subsequent calls this group as a repeated fallback event.
func (g *Info) AddUnitDigest(d [digest.Size]byte) (demotedNow bool) {
	if !g.started {
		g.Running = d
		g.started = true
	} else {
		g.Running = digest.Chain(g.Running, d)
	}

	if g.Fallback || g.Cap == 0 {
		return false
	}
	if len(g.PerUnit) >= g.Cap {
		g.Fallback = true
		g.PerUnit = nil
		return true
	}
	g.PerUnit = append(g.PerUnit, d)
	return false
}

// Finalize returns the group's finished running digest for comparison
// against a SEI's signed manifest.
func (g *Info) Finalize() [digest.Size]byte {
	return g.Running
}
