package ovfile

import (
	"errors"
	"os"
)

// ErrClosed is returned by WriteOverlap, ReadOverlap and SeekOverlap on a
// file that has already been closed (a second Close returns nil), matching
// wal_writer.go's own ErrWALClosed = os.ErrClosed.
var ErrClosed = os.ErrClosed

// ErrCorruptRecord is returned for a detected but non-fatal record-format
// problem; most corruption in this package is reported via diag.Fatalf
// instead, per spec.md §7, but the .index sidecar loaded by Open is purely
// a seek accelerant rather than part of the record format itself, so a
// malformed one is reported with ErrCorruptRecord and silently treated as
// "no index available" instead of aborting the process.
var ErrCorruptRecord = errors.New("ovfile: corrupt record")

// ErrSeekUnsupported is returned by SeekOverlap on a compressed file.
var ErrSeekUnsupported = errors.New("ovfile: seek not supported on compressed files")

// ErrWrongDirection is returned when a read is attempted on a write-only
// file, a write on a read-only file, or a read or write on a FullCounts
// file (which never opens the main data file at all).
var ErrWrongDirection = errors.New("ovfile: operation not valid for this open mode")
