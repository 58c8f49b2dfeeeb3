package core

import "testing"

func TestDiskSizeTracksWrittenBytes(t *testing.T) {
	_, e := SetupTempDB(t)

	size0, err := e.DiskSize()
	if err != nil {
		t.Fatalf("DiskSize: %v", err)
	}
	if size0 != 0 {
		t.Fatalf("DiskSize on empty store = %d, want 0", size0)
	}

	if err := e.Set([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	size1, err := e.DiskSize()
	if err != nil {
		t.Fatalf("DiskSize: %v", err)
	}
	want := int64(headerLen + 1 + 1)
	if size1 != want {
		t.Fatalf("DiskSize after one record = %d, want %d", size1, want)
	}
}

func TestSyncIsSafeToCallRepeatedly(t *testing.T) {
	_, e := SetupTempDB(t)
	_ = e.Set([]byte("k"), []byte("v"))

	if err := e.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := e.Sync(); err != nil {
		t.Fatalf("second Sync: %v", err)
	}
}
