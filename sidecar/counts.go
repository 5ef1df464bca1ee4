// Package sidecar implements the two small companion files an ovfile
// writer produces alongside its main record stream: an aggregate Counts
// summary and a per-a_id Histogram enriched with a bloom filter over
// observed b_id values.
//
// Grounded on wal.go's CRC | payload framing and sst/writer.go's
// hash/crc32.NewIEEE() + io.MultiWriter idiom used by writeFooter and
// writeBloomFilter.
package sidecar

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/korenlab/ovstore/internal/diag"
)

// Counts is an aggregate summary of records written to one ovfile: total
// record and byte counts, broken down by shape.
type Counts struct {
	Records       uint64
	Bytes         uint64
	NormalRecords uint64
	FullRecords   uint64
}

// NewCounts returns an empty Counts accumulator.
func NewCounts() *Counts {
	return &Counts{}
}

// Observe records one write of size recordBytes in the given shape.
func (c *Counts) Observe(shapeFull bool, recordBytes int) {
	c.Records++
	c.Bytes += uint64(recordBytes)
	if shapeFull {
		c.FullRecords++
	} else {
		c.NormalRecords++
	}
}

// SaveToPath writes the counts sidecar to path as a CRC32-trailed payload.
func (c *Counts) SaveToPath(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sidecar: failed to create %s: %w", path, err)
	}
	defer f.Close()

	crc := crc32.NewIEEE()
	mw := io.MultiWriter(f, crc)

	for _, v := range []uint64{c.Records, c.Bytes, c.NormalRecords, c.FullRecords} {
		if err := binary.Write(mw, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("sidecar: failed to write counts to %s: %w", path, err)
		}
	}

	if err := binary.Write(f, binary.LittleEndian, crc.Sum32()); err != nil {
		return fmt.Errorf("sidecar: failed to write counts crc to %s: %w", path, err)
	}

	return nil
}

// LoadCounts reads a counts sidecar previously written by SaveToPath. A
// checksum mismatch is a file-format corruption and is fatal.
func LoadCounts(path string) (*Counts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sidecar: failed to read %s: %w", path, err)
	}
	if len(data) < 4 {
		diag.Fatalf("sidecar", "%s: counts file too short (%d bytes)", path, len(data))
	}

	payload := data[:len(data)-4]
	wantCRC := binary.LittleEndian.Uint32(data[len(data)-4:])
	if gotCRC := crc32.ChecksumIEEE(payload); gotCRC != wantCRC {
		diag.Fatalf("sidecar", "%s: counts checksum mismatch: got %08x want %08x", path, gotCRC, wantCRC)
	}

	r := bytes.NewReader(payload)
	c := &Counts{}
	for _, dst := range []*uint64{&c.Records, &c.Bytes, &c.NormalRecords, &c.FullRecords} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			diag.Fatalf("sidecar", "%s: truncated counts payload: %v", path, err)
		}
	}

	return c, nil
}
