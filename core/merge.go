package core

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// mergeResult reports the new on-disk layout produced by a merge, so the
// caller (Engine.Merge) can swap its in-memory state over atomically.
type mergeResult struct {
	kd          *keyDir
	newSegments []uint64 // ids of the freshly written, read-only segments
	nextID      uint64   // id the engine should use for its next active segment
}

// runMerge rewrites every live record in kd into a fresh run of segments,
// skipping dead (overwritten or deleted) records entirely, then removes the
// segments in oldSet (spec §4.6). The merge is two-phase: every new segment
// is written and fsynced — and the directory fsynced — before any original
// segment is unlinked, so a crash before the unlinks begin leaves every
// pre-merge segment intact alongside the merge output. The unlinks
// themselves run one file at a time and are not atomic as a group: a crash
// partway through them leaves some originals removed and others present.
// This strengthens the teacher's core/merge.go, which interleaves writes
// for the new segment with removal of consumed ones; the spec permits (§9
// Open Question 3) a stricter-than-required crash-safety story as long as
// the wire format and the merge-equivalence property (P5) are preserved.
func runMerge(dir string, kd *keyDir, oldSet segmentIDSet, nextID uint64, maxLogSize int64, log *zap.SugaredLogger) (*mergeResult, error) {
	entries := kd.entries()

	newKD := newKeyDir()
	var newSegments []uint64
	var cur *segment
	var curID uint64

	openNext := func() error {
		if cur != nil {
			if err := cur.sync(); err != nil {
				return err
			}
			if err := cur.close(); err != nil {
				return err
			}
		}
		s, err := openActiveSegment(dir, nextID)
		if err != nil {
			return err
		}
		cur = s
		curID = nextID
		newSegments = append(newSegments, nextID)
		nextID++
		return nil
	}

	if err := openNext(); err != nil {
		return nil, err
	}

	openReaders := make(map[uint64]*segment)
	defer func() {
		for _, s := range openReaders {
			_ = s.close()
		}
	}()

	for _, ent := range entries {
		var data []byte
		if ent.loc.SegmentID == curID {
			return nil, internalError("Merge", "live record points at merge output segment", nil)
		}

		rs, ok := openReaders[ent.loc.SegmentID]
		if !ok {
			s, err := openReadonlySegment(dir, ent.loc.SegmentID)
			if err != nil {
				return nil, err
			}
			rs = s
			openReaders[ent.loc.SegmentID] = rs
		}

		buf, err := rs.readAt(ent.loc.Offset, ent.loc.Length)
		if err != nil {
			return nil, err
		}
		data = buf

		if cur.size+int64(len(data)) > maxLogSize && cur.size > 0 {
			if err := openNext(); err != nil {
				return nil, err
			}
		}

		offset := cur.size
		if _, err := cur.append(data); err != nil {
			return nil, err
		}

		rec := decodeKV(data, 0)
		newKD.put(ent.key, Locator{
			SegmentID: curID,
			Offset:    offset,
			Length:    int64(len(data)),
			Timestamp: rec.timestamp,
		})
	}

	if err := cur.sync(); err != nil {
		return nil, err
	}
	if err := cur.close(); err != nil {
		return nil, err
	}
	if err := syncDir(dir); err != nil {
		return nil, err
	}

	for id, s := range openReaders {
		if err := s.close(); err != nil {
			return nil, err
		}
		delete(openReaders, id)
	}

	removed := 0
	for _, id := range oldSet.Difference(newSegmentIDSet(newSegments...)) {
		path := filepath.Join(dir, segmentName(id))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, ioError("Merge", fmt.Sprintf("remove old segment %d", id), err)
		}
		removed++
	}
	if err := syncDir(dir); err != nil {
		return nil, err
	}

	if log != nil {
		log.Infow("merge complete",
			"liveRecords", len(entries),
			"newSegments", len(newSegments),
			"removedSegments", removed,
		)
	}

	return &mergeResult{kd: newKD, newSegments: newSegments, nextID: nextID}, nil
}
