package core

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

// segmentNamePattern matches five alphanumeric characters followed by
// ".dat" (spec §4.4: "filter to those matching the segment-name pattern").
// Files that don't match are ignored by Open, per §6.
var segmentNamePattern = regexp.MustCompile(`^[0-9A-Za-z]{5}\.dat$`)

// segmentName formats a segment id as the fixed NNNNN.dat name (§4.2: five
// decimal digits, zero-padded).
func segmentName(id uint64) string {
	return fmt.Sprintf("%05d.dat", id)
}

// parseSegmentID extracts the numeric id from a matched segment filename.
// Non-numeric five-character names (permitted by the alphanumeric filter
// pattern but never produced by this engine) are reported via ok=false so
// callers can skip them the same way they'd skip an unrelated file.
func parseSegmentID(name string) (id uint64, ok bool) {
	if !segmentNamePattern.MatchString(name) {
		return 0, false
	}
	digits := name[:5]
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// segment is a handle over one append-only data file. Exactly one segment
// per engine is active (writable); all others are sealed (read-only).
type segment struct {
	id   uint64
	path string
	file *os.File
	size int64 // bytes written/present in the file so far
}

// openActiveSegment creates (or truncates, on the unexpected case of a
// leftover file with this id) a fresh segment file and opens it for
// appending. Open always assigns a brand-new id for the active segment
// (spec §4.4), so this never has to resume a partially-written file.
func openActiveSegment(dir string, id uint64) (*segment, error) {
	path := filepath.Join(dir, segmentName(id))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC|os.O_APPEND, 0o644)
	if err != nil {
		return nil, ioError("openActiveSegment", fmt.Sprintf("create segment %d", id), err)
	}

	if err := syncDir(dir); err != nil {
		_ = f.Close()
		return nil, err
	}

	return &segment{id: id, path: path, file: f}, nil
}

// openReadonlySegment opens an existing segment file for reads only. Used
// both during replay and for on-demand reads of sealed segments.
func openReadonlySegment(dir string, id uint64) (*segment, error) {
	path := filepath.Join(dir, segmentName(id))

	f, err := os.OpenFile(path, os.O_RDONLY, 0o644)
	if err != nil {
		return nil, ioError("openReadonlySegment", fmt.Sprintf("open segment %d", id), err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, ioError("openReadonlySegment", fmt.Sprintf("stat segment %d", id), err)
	}

	return &segment{id: id, path: path, file: f, size: info.Size()}, nil
}

// append writes data in a single call and returns the number of bytes
// written. The caller is responsible for invoking sync if durability is
// required before advancing engine state (spec §4.2: "No implicit syncing
// except as specified in 4.4").
func (s *segment) append(data []byte) (int64, error) {
	n, err := s.file.Write(data)
	if err != nil {
		return int64(n), ioError("append", fmt.Sprintf("write segment %d", s.id), err)
	}
	s.size += int64(n)
	return int64(n), nil
}

// readAt reads exactly length bytes starting at offset. A range that runs
// past end-of-file is a KindInternal error; other read failures are KindIO.
func (s *segment) readAt(offset, length int64) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := s.file.ReadAt(buf, offset); err != nil {
		if isEOFLike(err) {
			return nil, internalError("readAt", fmt.Sprintf("record at %d (+%d bytes) runs past end of segment %d", offset, length, s.id), err)
		}
		return nil, ioError("readAt", fmt.Sprintf("read segment %d at %d", s.id, offset), err)
	}
	return buf, nil
}

// readAll reads up to n bytes from the start of the segment, used by
// replay (spec §4.5 step 1: "Read up to max_log_size bytes from offset 0").
func (s *segment) readAll(n int64) ([]byte, error) {
	buf := make([]byte, n)
	read, err := s.file.ReadAt(buf, 0)
	if err != nil && read == 0 {
		if isEOFLike(err) {
			return nil, nil
		}
		return nil, ioError("readAll", fmt.Sprintf("read segment %d", s.id), err)
	}
	return buf[:read], nil
}

func (s *segment) sync() error {
	if err := s.file.Sync(); err != nil {
		return ioError("sync", fmt.Sprintf("sync segment %d", s.id), err)
	}
	return nil
}

func (s *segment) close() error {
	if err := s.file.Close(); err != nil {
		return ioError("close", fmt.Sprintf("close segment %d", s.id), err)
	}
	return nil
}
