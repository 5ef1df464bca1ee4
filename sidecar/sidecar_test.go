package sidecar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/korenlab/ovstore/internal/diag"
)

func withTempDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

func TestCountsRoundTrip(t *testing.T) {
	dir := withTempDir(t)
	path := filepath.Join(dir, "out.counts")

	c := NewCounts()
	c.Observe(false, 36)
	c.Observe(false, 36)
	c.Observe(true, 40)

	if err := c.SaveToPath(path); err != nil {
		t.Fatalf("SaveToPath: %v", err)
	}

	got, err := LoadCounts(path)
	if err != nil {
		t.Fatalf("LoadCounts: %v", err)
	}

	if got.Records != 3 || got.NormalRecords != 2 || got.FullRecords != 1 || got.Bytes != 36+36+40 {
		t.Fatalf("LoadCounts = %+v, want Records=3 Normal=2 Full=1 Bytes=112", got)
	}
}

func TestHistogramRoundTrip(t *testing.T) {
	dir := withTempDir(t)
	path := filepath.Join(dir, "out.histogram")

	h := NewHistogram(1000, 0.01)
	h.Observe(1, 100, 40)
	h.Observe(1, 200, 40)
	h.Observe(2, 300, 40)

	if err := h.SaveToPath(path); err != nil {
		t.Fatalf("SaveToPath: %v", err)
	}

	loaded, err := LoadHistogram(path)
	if err != nil {
		t.Fatalf("LoadHistogram: %v", err)
	}

	if loaded.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", loaded.Len())
	}

	records, bytesWritten, ok := loaded.StatsFor(1)
	if !ok || records != 2 || bytesWritten != 80 {
		t.Fatalf("StatsFor(1) = (%d,%d,%v), want (2,80,true)", records, bytesWritten, ok)
	}

	if !loaded.HasSeenBID(100) || !loaded.HasSeenBID(300) {
		t.Fatal("expected HasSeenBID to report true for observed b_ids")
	}
}

func TestCountsCorruptChecksumIsFatal(t *testing.T) {
	dir := withTempDir(t)
	path := filepath.Join(dir, "out.counts")

	c := NewCounts()
	c.Observe(false, 36)
	if err := c.SaveToPath(path); err != nil {
		t.Fatalf("SaveToPath: %v", err)
	}

	flipLastPayloadByte(t, path)

	var loaded *Counts
	fired, code := diag.ExpectFatal(func() {
		loaded, _ = LoadCounts(path)
	})

	if !fired {
		t.Fatal("expected LoadCounts of a corrupted file to call diag.Fatalf")
	}
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if loaded != nil {
		t.Fatalf("expected no Counts to be returned, got %+v", loaded)
	}
}

// flipLastPayloadByte corrupts the byte just before the trailing CRC32 of
// a sidecar file written by SaveToPath, so the payload no longer matches
// its checksum.
func flipLastPayloadByte(t *testing.T, path string) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) < 5 {
		t.Fatalf("file %s too short to corrupt (%d bytes)", path, len(data))
	}

	corruptAt := len(data) - 5
	data[corruptAt] ^= 0xff

	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}
