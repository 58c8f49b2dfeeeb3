package core

// Locator identifies exactly where one record lives on disk: which segment,
// at what byte offset, how long the full record (header+key+value) is, and
// the wall-clock timestamp it was written with.
type Locator struct {
	SegmentID uint64
	Offset    int64
	Length    int64
	Timestamp float64
}

// keyEntry pairs a key with its locator, returned by entries() for Fold.
type keyEntry struct {
	key string
	loc Locator
}

// keyDir is the in-memory key directory (spec §3/§4.3): a map from key to
// Locator that also preserves first-insertion order so list_keys/fold can
// satisfy Invariant K3. Grounded on the teacher's core/db.go index map,
// generalized with order tracking since the teacher never needed to
// enumerate its index.
//
// order only ever grows by appending a key the first time it is ever seen
// in the session (including by replay); deleting a key removes it from loc
// but leaves its slot in order, which is filtered out on iteration. This
// way a delete-then-reset of the same key keeps its original position,
// matching K3's "first time each surviving key entered the directory"
// wording rather than treating a reinsertion as a fresh arrival.
type keyDir struct {
	loc   map[string]Locator
	order []string
	seen  map[string]struct{}
}

func newKeyDir() *keyDir {
	return &keyDir{
		loc:  make(map[string]Locator),
		seen: make(map[string]struct{}),
	}
}

func (k *keyDir) put(key string, loc Locator) {
	if _, ok := k.seen[key]; !ok {
		k.seen[key] = struct{}{}
		k.order = append(k.order, key)
	}
	k.loc[key] = loc
}

func (k *keyDir) delete(key string) {
	delete(k.loc, key)
}

func (k *keyDir) get(key string) (Locator, bool) {
	loc, ok := k.loc[key]
	return loc, ok
}

func (k *keyDir) len() int { return len(k.loc) }

// keys returns every live key in insertion order (K3).
func (k *keyDir) keys() []string {
	out := make([]string, 0, len(k.loc))
	for _, key := range k.order {
		if _, ok := k.loc[key]; ok {
			out = append(out, key)
		}
	}
	return out
}

// entries returns every live (key, Locator) pair in insertion order (K3),
// used by Fold and by Merge.
func (k *keyDir) entries() []keyEntry {
	out := make([]keyEntry, 0, len(k.loc))
	for _, key := range k.order {
		if loc, ok := k.loc[key]; ok {
			out = append(out, keyEntry{key: key, loc: loc})
		}
	}
	return out
}
