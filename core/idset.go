package core

import mapset "github.com/deckarep/golang-set/v2"

// segmentIDSet tracks a set of segment ids. It is used to freeze the
// pre-merge "old_set" (spec §4.6 step 1: sealed ∪ {active}) and to take the
// difference between that set and the merge output's ids, the same
// set-difference role the teacher's checkOrphanedSegments plays against its
// MANIFEST. Open does not use it; no orphan-segment check is made there.
type segmentIDSet struct {
	ids mapset.Set[uint64]
}

func newSegmentIDSet(ids ...uint64) segmentIDSet {
	return segmentIDSet{ids: mapset.NewSet(ids...)}
}

func (s segmentIDSet) Contains(id uint64) bool { return s.ids.Contains(id) }

func (s segmentIDSet) Len() int { return s.ids.Cardinality() }

func (s segmentIDSet) Difference(other segmentIDSet) []uint64 {
	return s.ids.Difference(other.ids).ToSlice()
}
