package core

import (
	"fmt"
	"os"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Engine is an open instance of the log-structured store rooted at one
// directory. It deliberately carries no internal mutex (spec §5: "the core
// provides no locking of its own"); callers that share an Engine across
// goroutines are responsible for serializing every call themselves, reads
// included: Get and Fold populate the unsynchronized readers cache, so even
// two concurrent Gets race. This is the one place
// this module diverges from the teacher's core/db.go, which wraps every
// operation in a sync.RWMutex — removed here because the spec assigns that
// responsibility to the embedder, not the library.
type Engine struct {
	dir        string
	maxLogSize int64
	log        *zap.SugaredLogger

	kd     *keyDir
	active *segment
	nextID uint64

	// readers caches read-only handles to sealed segments so Get doesn't
	// reopen a file descriptor on every call. Invalidated per-id whenever
	// Merge unlinks a segment.
	readers map[uint64]*segment

	closed atomic.Bool
}

// Open replays dir's existing segments (if any) to rebuild the key
// directory, then starts a fresh active segment for new writes (spec §4.4:
// "Open always begins a new active segment; it never resumes appending to
// an existing file").
func Open(dir string, opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MaxLogSize < MinLogSize || cfg.MaxLogSize > MaxLogSize {
		return nil, invalidArgError("Open", fmt.Sprintf("MaxLogSize %d out of range [%d, %d]", cfg.MaxLogSize, MinLogSize, MaxLogSize))
	}
	if cfg.Logger == nil {
		cfg.Logger = newDefaultLogger()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ioError("Open", "create data directory", err)
	}

	ids, err := discoverSegments(dir)
	if err != nil {
		return nil, err
	}

	kd, err := replayAll(dir, ids, cfg.MaxLogSize, cfg.Logger)
	if err != nil {
		return nil, err
	}

	nextID := uint64(1)
	if len(ids) > 0 {
		nextID = ids[len(ids)-1] + 1
	}

	active, err := openActiveSegment(dir, nextID)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		dir:        dir,
		maxLogSize: cfg.MaxLogSize,
		log:        cfg.Logger,
		kd:         kd,
		active:     active,
		nextID:     nextID + 1,
		readers:    make(map[uint64]*segment),
	}

	e.log.Infow("engine opened", "dir", dir, "segments", len(ids), "keys", kd.len(), "activeSegment", active.id)
	return e, nil
}

// discoverSegments lists dir, keeps only names matching the segment pattern,
// and returns their ids sorted ascending (spec §4.4/§9: pure directory
// listing, no MANIFEST file).
func discoverSegments(dir string) ([]uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ioError("discoverSegments", "read data directory", err)
	}

	var ids []uint64
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		id, ok := parseSegmentID(de.Name())
		if !ok {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (e *Engine) checkOpen(op string) error {
	if e.closed.Load() {
		return &Error{Kind: KindClosed, Op: op, Message: ErrClosed.Message}
	}
	return nil
}

// rollover seals the current active segment and opens a fresh one. Set and
// Delete call it before an append that would push a non-empty active
// segment past MaxLogSize (spec §4.4).
func (e *Engine) rollover() error {
	if err := e.active.sync(); err != nil {
		return err
	}
	sealedID := e.active.id
	if err := e.active.close(); err != nil {
		return err
	}

	next, err := openActiveSegment(e.dir, e.nextID)
	if err != nil {
		return err
	}
	e.log.Infow("segment rollover", "sealed", sealedID, "active", e.nextID)
	e.active = next
	e.nextID++
	return nil
}

// Set appends a record for key/value to the active segment, rolling over
// first if the write would push the segment past MaxLogSize, fsyncs it, and
// updates the key directory to point at the new record (spec §4.1/§4.3). The record
// is timestamped with the current wall-clock time (spec §3: "wall-clock ms
// since epoch").
func (e *Engine) Set(key, value []byte) error {
	if err := e.checkOpen("Set"); err != nil {
		return err
	}

	timestamp := float64(time.Now().UnixMilli())
	data := encodeKV(timestamp, key, value)
	if e.active.size > 0 && e.active.size+int64(len(data)) > e.maxLogSize {
		if err := e.rollover(); err != nil {
			return err
		}
	}

	offset := e.active.size
	if _, err := e.active.append(data); err != nil {
		return err
	}
	if err := e.active.sync(); err != nil {
		return err
	}

	e.kd.put(string(key), Locator{
		SegmentID: e.active.id,
		Offset:    offset,
		Length:    int64(len(data)),
		Timestamp: timestamp,
	})
	return nil
}

// segmentReader returns a cached read handle for a sealed segment id,
// opening and caching one on first use. The active segment is read
// directly, never through this cache, since its size keeps changing.
func (e *Engine) segmentReader(id uint64) (*segment, error) {
	if id == e.active.id {
		return e.active, nil
	}
	if s, ok := e.readers[id]; ok {
		return s, nil
	}
	s, err := openReadonlySegment(e.dir, id)
	if err != nil {
		return nil, err
	}
	e.readers[id] = s
	return s, nil
}

// Get returns the current value for key, or ErrNotFound if it is absent or
// has been deleted (spec §4.1).
func (e *Engine) Get(key []byte) ([]byte, error) {
	if err := e.checkOpen("Get"); err != nil {
		return nil, err
	}

	loc, ok := e.kd.get(string(key))
	if !ok {
		return nil, &Error{Kind: KindNotFound, Op: "Get", Message: fmt.Sprintf("key %q not found", key)}
	}

	seg, err := e.segmentReader(loc.SegmentID)
	if err != nil {
		return nil, err
	}
	buf, err := seg.readAt(loc.Offset, loc.Length)
	if err != nil {
		return nil, err
	}

	rec := decodeKV(buf, 0)
	return rec.value, nil
}

// Delete appends a tombstone record for key and removes it from the key
// directory. Deleting an absent key is a no-op that still appends the
// tombstone, matching the teacher's semantics for an idempotent delete
// (spec §4.1 edge case E3).
func (e *Engine) Delete(key []byte) error {
	if err := e.checkOpen("Delete"); err != nil {
		return err
	}

	timestamp := float64(time.Now().UnixMilli())
	data := encodeKV(timestamp, key, tombstoneMarker)
	if e.active.size > 0 && e.active.size+int64(len(data)) > e.maxLogSize {
		if err := e.rollover(); err != nil {
			return err
		}
	}

	if _, err := e.active.append(data); err != nil {
		return err
	}
	if err := e.active.sync(); err != nil {
		return err
	}
	e.kd.delete(string(key))
	return nil
}

// ListKeys returns every live key, in first-insertion order (Invariant K3).
func (e *Engine) ListKeys() ([][]byte, error) {
	if err := e.checkOpen("ListKeys"); err != nil {
		return nil, err
	}
	keys := e.kd.keys()
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = []byte(k)
	}
	return out, nil
}

// FoldFunc is invoked once per live key, in first-insertion order, by Fold.
// Returning an error stops the fold early and Fold returns that error.
type FoldFunc func(key, value []byte) error

// Fold walks every live key in the directory in first-insertion order,
// reading each value and invoking fn (spec §4.1).
func (e *Engine) Fold(fn FoldFunc) error {
	if err := e.checkOpen("Fold"); err != nil {
		return err
	}

	for _, ent := range e.kd.entries() {
		seg, err := e.segmentReader(ent.loc.SegmentID)
		if err != nil {
			return err
		}
		buf, err := seg.readAt(ent.loc.Offset, ent.loc.Length)
		if err != nil {
			return err
		}
		rec := decodeKV(buf, 0)
		if err := fn([]byte(ent.key), rec.value); err != nil {
			return err
		}
	}
	return nil
}

// Sync fsyncs the active segment, forcing every write accepted so far to
// disk (spec §4.1).
func (e *Engine) Sync() error {
	if err := e.checkOpen("Sync"); err != nil {
		return err
	}
	return e.active.sync()
}

// Merge compacts the store: every live record is rewritten into a fresh run
// of segments and every original segment is removed, leaving the key
// directory's logical contents unchanged (spec §4.6, property P5).
func (e *Engine) Merge() error {
	if err := e.checkOpen("Merge"); err != nil {
		return err
	}

	if err := e.active.sync(); err != nil {
		return err
	}

	// The old set is every segment id currently on disk, not merely the
	// ones this Engine happens to have cached a read handle for — a
	// sealed segment that was rolled over but never read via Get/Fold
	// would otherwise be left behind after merge.
	onDisk, err := discoverSegments(e.dir)
	if err != nil {
		return err
	}
	oldSet := newSegmentIDSet(onDisk...)

	if err := e.active.close(); err != nil {
		return err
	}

	result, err := runMerge(e.dir, e.kd, oldSet, e.nextID, e.maxLogSize, e.log)
	if err != nil {
		// The pre-merge active segment was already closed; reopening it
		// for append would truncate due to O_TRUNC, so merge failure past
		// this point is unrecoverable for this Engine instance. This
		// mirrors the teacher's merge, which also treats a mid-merge
		// failure as fatal to the running process rather than attempting
		// a rollback.
		return internalError("Merge", "merge failed after sealing active segment", err)
	}

	for id, s := range e.readers {
		_ = s.close()
		delete(e.readers, id)
	}

	e.kd = result.kd
	e.nextID = result.nextID

	active, err := openActiveSegment(e.dir, e.nextID)
	if err != nil {
		return err
	}
	e.active = active
	e.nextID++

	e.log.Infow("merge applied", "keys", e.kd.len(), "newActiveSegment", e.active.id)
	return nil
}

// DiskSize reports the combined size, in bytes, of every segment file
// currently on disk. Not part of spec.md's literal interface but a natural
// operational signal for an embedder deciding when to call Merge (§2.3).
func (e *Engine) DiskSize() (int64, error) {
	if err := e.checkOpen("DiskSize"); err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		return 0, ioError("DiskSize", "read data directory", err)
	}

	var total int64
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		if _, ok := parseSegmentID(de.Name()); !ok {
			continue
		}
		info, err := de.Info()
		if err != nil {
			return 0, ioError("DiskSize", fmt.Sprintf("stat %s", de.Name()), err)
		}
		total += info.Size()
	}
	return total, nil
}

// Close fsyncs and closes every open file handle held by the Engine. Any
// further operation on a closed Engine returns ErrClosed.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	record(e.active.sync())
	record(e.active.close())
	for _, s := range e.readers {
		record(s.close())
	}

	e.log.Infow("engine closed", "dir", e.dir)
	return firstErr
}
