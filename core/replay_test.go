package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestReplayTruncatedTrailingHeaderIsDropped exercises spec §4.5: a torn
// trailing header (fewer than 16 bytes present) is dropped silently, and
// every well-formed record before it survives.
func TestReplayTruncatedTrailingHeaderIsDropped(t *testing.T) {
	dir, e := SetupTempDB(t)
	if err := e.Set([]byte("x"), []byte("y")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Append 2 of the next record's 16 header bytes — a torn header.
	segPath := filepath.Join(dir, "00001.dat")
	f, err := os.OpenFile(segPath, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open segment: %v", err)
	}
	if _, err := f.Write([]byte{0x02, 0x00}); err != nil {
		t.Fatalf("write torn header: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close segment: %v", err)
	}

	e2, err := Open(dir)
	if err != nil {
		t.Fatalf("Open on torn header: %v", err)
	}
	defer e2.Close() //nolint:errcheck

	got, err := e2.Get([]byte("x"))
	if err != nil || string(got) != "y" {
		t.Fatalf("Get(x) = %q, %v; want y, nil", got, err)
	}
}

// TestReplayTruncatedTrailingRecordIsDropped exercises the torn-record
// (complete header, incomplete key/value payload) case.
func TestReplayTruncatedTrailingRecordIsDropped(t *testing.T) {
	dir, e := SetupTempDB(t)
	if err := e.Set([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	segPath := filepath.Join(dir, "00001.dat")
	f, err := os.OpenFile(segPath, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open segment: %v", err)
	}
	// A full, well-formed header claiming a 2-byte key and 2-byte value,
	// followed by only one of those four payload bytes.
	header := make([]byte, headerLen)
	encodeHeader(header, 2, 2, 2)
	if _, err := f.Write(header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if _, err := f.Write([]byte("h")); err != nil {
		t.Fatalf("write partial payload: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close segment: %v", err)
	}

	e2, err := Open(dir)
	if err != nil {
		t.Fatalf("Open on torn record: %v", err)
	}
	defer e2.Close() //nolint:errcheck

	got, err := e2.Get([]byte("k"))
	if err != nil || string(got) != "v" {
		t.Fatalf("Get(k) = %q, %v; want v, nil", got, err)
	}

	keys, err := e2.ListKeys()
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("ListKeys = %v, want exactly [k]", keys)
	}
}

// TestReplaySkipsNonSegmentFiles ensures files that don't match the
// NNNNN.dat pattern are ignored rather than causing Open to fail.
func TestReplaySkipsNonSegmentFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a segment"), 0o644); err != nil {
		t.Fatalf("seed stray file: %v", err)
	}

	e, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close() //nolint:errcheck

	if _, err := e.Get([]byte("anything")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get = %v, want ErrNotFound", err)
	}
}

// TestReplayAcrossMultipleSegments confirms replay walks segments in
// ascending id order so the last writer across segment boundaries wins.
func TestReplayAcrossMultipleSegments(t *testing.T) {
	dir, e := SetupTempDB(t, WithMaxLogSize(MinLogSize))

	for i := 1; i <= 40; i++ {
		if err := e.Set(paddedKey("0k", i), paddedKey("0v", i)); err != nil {
			t.Fatalf("Set %d: %v", i, err)
		}
	}
	_ = e.Set(paddedKey("0k", 1), []byte("overwritten-later"))
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	e2, err := Open(dir, WithMaxLogSize(MinLogSize))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer e2.Close() //nolint:errcheck

	got, err := e2.Get(paddedKey("0k", 1))
	if err != nil || string(got) != "overwritten-later" {
		t.Fatalf("Get(0k00001) = %q, %v; want overwritten-later, nil", got, err)
	}
}
