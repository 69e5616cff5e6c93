package roomwire

import "slices"

// rosterTracker holds the membership snapshot between updates. Every update
// replaces the held roster wholesale; the delta is computed from sizes
// before replacement because size is the only signal the protocol gives.
type rosterTracker struct {
	users []string
}

// Apply swaps in the next snapshot and returns it together with the
// size-only delta against the previous one.
func (r *rosterTracker) Apply(next []string) RosterUpdate {
	change := PresenceNone
	switch {
	case len(next) > len(r.users):
		change = PresenceJoined
	case len(next) < len(r.users):
		change = PresenceLeft
	}
	r.users = slices.Clone(next)
	return RosterUpdate{Users: slices.Clone(next), Change: change}
}

// Users returns the currently held snapshot.
func (r *rosterTracker) Users() []string {
	return slices.Clone(r.users)
}
