package core

import (
	"errors"
	"io"
	"os"
)

// syncDir fsyncs a directory so that a file creation or removal within it
// is durable, not just the file's own contents. Grounded on the teacher's
// core/file.go createFileDurable/writeFileAtomic, which fsyncs the parent
// directory after every structural change to the data directory; here it's
// repurposed for segment file creation and merge cleanup rather than for a
// MANIFEST file, since this engine keeps none (spec §9: directory-listing-
// based segment enumeration).
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return ioError("syncDir", "open data directory", err)
	}
	defer d.Close() //nolint:errcheck

	if err := d.Sync(); err != nil {
		return ioError("syncDir", "sync data directory", err)
	}
	return nil
}

// isEOFLike reports whether err indicates a clean end-of-file, as opposed
// to a genuine I/O failure.
func isEOFLike(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
