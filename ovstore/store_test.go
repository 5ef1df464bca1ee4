package ovstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/korenlab/ovstore/ovfile"
)

func TestPathFormat(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	got := s.Path(7, 12)
	want := filepath.Join(s.Dir(), "0007<012>")
	if got != want {
		t.Fatalf("Path(7, 12) = %q, want %q", got, want)
	}
}

func TestPrefixStripsExtension(t *testing.T) {
	cases := map[string]string{
		"/a/b/0007<012>":              "/a/b/0007<012>",
		"/a/b/0007<012>.counts":       "/a/b/0007<012>",
		"/a/b/0007<012>.histogram.tmp": "/a/b/0007<012>.histogram",
	}
	for in, want := range cases {
		if got := Prefix(in); got != want {
			t.Errorf("Prefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpenCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "store")

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Dir() != dir {
		t.Fatalf("Dir() = %q, want %q", s.Dir(), dir)
	}
}

func TestOpenRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-dir")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f.Close()

	if _, err := Open(path); err == nil {
		t.Fatal("expected error opening a plain file as a store directory")
	}
}

func TestStoreOpenWriteReadRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	w, err := s.Open(3, 21, ovfile.NormalWrite)
	if err != nil {
		t.Fatalf("Store.Open write: %v", err)
	}
	want := ovfile.Overlap{AID: 3, BID: 99}
	want.Dat[0] = 0xDEADBEEF
	if err := w.WriteOverlap(want); err != nil {
		t.Fatalf("WriteOverlap: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := s.Open(3, 21, ovfile.Normal, ovfile.WithContextAID(3))
	if err != nil {
		t.Fatalf("Store.Open read: %v", err)
	}
	defer r.Close()

	var got ovfile.Overlap
	eof, err := r.ReadOverlap(&got)
	if err != nil || eof {
		t.Fatalf("ReadOverlap: eof=%v err=%v", eof, err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
