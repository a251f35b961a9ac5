package session

// SetRecurrenceOffset overrides which SEI (by 0-based index within the
// recurrence interval) carries the recurrent fields. This is a test-only
// setter (spec §9 "ambiguous source behavior" note: the source
// conditionally enables test-only setters like set_recurrence_offset) —
// Go has no first-class internal-test-API distinct from the normal
// exported surface within a module, so this lives in its own file, is
// exported, and is documented as test-only rather than part of the
// public configuration surface callers outside this module should rely
// on.
func (s *Session) SetRecurrenceOffset(n int) {
	if n < 0 {
		n = 0
	}
	s.recurrenceOffset = n
}
