package cst

// LitID is the stable identity of an integer literal, assigned at
// creation time by the front end. Sentinel membership is decided by
// identity, not value, so a textually identical literal elsewhere in
// the program never matches by accident.
type LitID uint32

// LitArena hands out literal identities for one translation session.
type LitArena struct {
	next LitID
}

// NewLitArena creates an arena. The zero LitID is reserved.
func NewLitArena() *LitArena {
	return &LitArena{next: 1}
}

// Next returns a fresh literal identity.
func (a *LitArena) Next() LitID {
	id := a.next
	a.next++
	return id
}

// SentinelSet is the set of integer-literal identities that mark a
// safe/unsafe branch pair by project convention.
//
// Lifetime: the front end populates the set while building the source
// tree, before lowering of statements begins; it is read-only for the
// rest of the invocation and owned by the translation session. The
// whole pipeline is single-threaded per invocation, so no
// synchronization is needed.
type SentinelSet struct {
	ids map[LitID]struct{}
}

// NewSentinelSet creates an empty set.
func NewSentinelSet() *SentinelSet {
	return &SentinelSet{ids: make(map[LitID]struct{})}
}

// Add records a literal identity. Only the front end calls this, and
// only before lowering runs.
func (s *SentinelSet) Add(id LitID) {
	s.ids[id] = struct{}{}
}

// Contains reports whether the literal identity is a sentinel.
func (s *SentinelSet) Contains(id LitID) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of recorded sentinels.
func (s *SentinelSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}
