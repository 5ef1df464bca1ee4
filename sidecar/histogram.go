package sidecar

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"sort"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/korenlab/ovstore/internal/diag"
)

type aidStat struct {
	Records uint64
	Bytes   uint64
}

// Histogram is a sequence-identifier-keyed summary of record statistics,
// enriched with a bloom filter over every b_id observed, so a caller can
// cheaply ask "has this id ever appeared as a b_id in this file?" without
// scanning the full histogram.
//
// Grounded on sst/writer.go's bloomFilter section (K/Cap/WriteTo plus a
// CRC32 trailer written via hash/crc32.NewIEEE()+io.MultiWriter), repurposed
// here to track b_id membership instead of SST keys.
type Histogram struct {
	stats map[uint32]*aidStat
	bloom *bloom.BloomFilter
}

// NewHistogram returns an empty histogram sized for roughly expectedIDs
// distinct b_id values at the given false-positive rate.
func NewHistogram(expectedIDs uint, falsePositiveRate float64) *Histogram {
	return &Histogram{
		stats: make(map[uint32]*aidStat),
		bloom: bloom.NewWithEstimates(expectedIDs, falsePositiveRate),
	}
}

// Observe records one write of recordBytes bytes belonging to aID, with
// bID folded into the bloom filter.
func (h *Histogram) Observe(aID, bID uint32, recordBytes int) {
	s := h.stats[aID]
	if s == nil {
		s = &aidStat{}
		h.stats[aID] = s
	}
	s.Records++
	s.Bytes += uint64(recordBytes)

	h.bloom.Add(uint32Bytes(bID))
}

// HasSeenBID reports whether id may have appeared as a b_id in this file.
// False positives are possible; false negatives are not.
func (h *Histogram) HasSeenBID(id uint32) bool {
	return h.bloom.Test(uint32Bytes(id))
}

// Len reports the number of distinct a_id values observed.
func (h *Histogram) Len() int {
	return len(h.stats)
}

// StatsFor returns the observed record and byte counts for aID.
func (h *Histogram) StatsFor(aID uint32) (records, bytesWritten uint64, ok bool) {
	s, ok := h.stats[aID]
	if !ok {
		return 0, 0, false
	}
	return s.Records, s.Bytes, true
}

func uint32Bytes(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b[:]
}

// SaveToPath persists the histogram to path: a sorted table of per-a_id
// stats, then the bloom filter section, each CRC32-trailed.
func (h *Histogram) SaveToPath(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sidecar: failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := h.writeStats(f, path); err != nil {
		return err
	}
	if err := h.writeBloomFilter(f, path); err != nil {
		return err
	}

	return nil
}

func (h *Histogram) writeStats(f *os.File, path string) error {
	crc := crc32.NewIEEE()
	mw := io.MultiWriter(f, crc)

	ids := make([]uint32, 0, len(h.stats))
	for id := range h.stats {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if err := binary.Write(mw, binary.LittleEndian, uint32(len(ids))); err != nil {
		return fmt.Errorf("sidecar: failed to write histogram count to %s: %w", path, err)
	}

	for _, id := range ids {
		s := h.stats[id]
		if err := binary.Write(mw, binary.LittleEndian, id); err != nil {
			return fmt.Errorf("sidecar: failed to write histogram entry to %s: %w", path, err)
		}
		if err := binary.Write(mw, binary.LittleEndian, s.Records); err != nil {
			return fmt.Errorf("sidecar: failed to write histogram entry to %s: %w", path, err)
		}
		if err := binary.Write(mw, binary.LittleEndian, s.Bytes); err != nil {
			return fmt.Errorf("sidecar: failed to write histogram entry to %s: %w", path, err)
		}
	}

	if err := binary.Write(f, binary.LittleEndian, crc.Sum32()); err != nil {
		return fmt.Errorf("sidecar: failed to write histogram crc to %s: %w", path, err)
	}

	return nil
}

func (h *Histogram) writeBloomFilter(f *os.File, path string) error {
	crc := crc32.NewIEEE()
	mw := io.MultiWriter(f, crc)

	if err := binary.Write(mw, binary.LittleEndian, uint32(h.bloom.K())); err != nil {
		return fmt.Errorf("sidecar: failed to write bloom filter k to %s: %w", path, err)
	}
	if err := binary.Write(mw, binary.LittleEndian, uint32(h.bloom.Cap())); err != nil {
		return fmt.Errorf("sidecar: failed to write bloom filter cap to %s: %w", path, err)
	}
	if _, err := h.bloom.WriteTo(mw); err != nil {
		return fmt.Errorf("sidecar: failed to write bloom filter bits to %s: %w", path, err)
	}

	if err := binary.Write(f, binary.LittleEndian, crc.Sum32()); err != nil {
		return fmt.Errorf("sidecar: failed to write bloom filter crc to %s: %w", path, err)
	}

	return nil
}

// LoadHistogram restores a histogram previously written by SaveToPath. A
// checksum mismatch anywhere in the file is a file-format corruption and
// is fatal.
func LoadHistogram(path string) (*Histogram, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sidecar: failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := &Histogram{stats: make(map[uint32]*aidStat)}

	if err := h.readStats(f, path); err != nil {
		return nil, err
	}
	if err := h.readBloomFilter(f, path); err != nil {
		return nil, err
	}

	return h, nil
}

func (h *Histogram) readStats(f *os.File, path string) error {
	crc := crc32.NewIEEE()

	var n uint32
	if err := binary.Read(io.TeeReader(f, crc), binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("sidecar: failed to read histogram count from %s: %w", path, err)
	}

	for i := uint32(0); i < n; i++ {
		var id uint32
		var s aidStat

		tr := io.TeeReader(f, crc)
		if err := binary.Read(tr, binary.LittleEndian, &id); err != nil {
			diag.Fatalf("sidecar", "%s: truncated histogram entry: %v", path, err)
		}
		if err := binary.Read(tr, binary.LittleEndian, &s.Records); err != nil {
			diag.Fatalf("sidecar", "%s: truncated histogram entry: %v", path, err)
		}
		if err := binary.Read(tr, binary.LittleEndian, &s.Bytes); err != nil {
			diag.Fatalf("sidecar", "%s: truncated histogram entry: %v", path, err)
		}

		h.stats[id] = &s
	}

	var wantCRC uint32
	if err := binary.Read(f, binary.LittleEndian, &wantCRC); err != nil {
		return fmt.Errorf("sidecar: failed to read histogram crc from %s: %w", path, err)
	}
	if gotCRC := crc.Sum32(); gotCRC != wantCRC {
		diag.Fatalf("sidecar", "%s: histogram stats checksum mismatch: got %08x want %08x", path, gotCRC, wantCRC)
	}

	return nil
}

func (h *Histogram) readBloomFilter(f *os.File, path string) error {
	crc := crc32.NewIEEE()

	var k, bcap uint32
	if err := binary.Read(io.TeeReader(f, crc), binary.LittleEndian, &k); err != nil {
		return fmt.Errorf("sidecar: failed to read bloom filter k from %s: %w", path, err)
	}
	if err := binary.Read(io.TeeReader(f, crc), binary.LittleEndian, &bcap); err != nil {
		return fmt.Errorf("sidecar: failed to read bloom filter cap from %s: %w", path, err)
	}

	bf := &bloom.BloomFilter{}
	if _, err := bf.ReadFrom(io.TeeReader(f, crc)); err != nil {
		return fmt.Errorf("sidecar: failed to read bloom filter bits from %s: %w", path, err)
	}
	h.bloom = bf

	var wantCRC uint32
	if err := binary.Read(f, binary.LittleEndian, &wantCRC); err != nil {
		return fmt.Errorf("sidecar: failed to read bloom filter crc from %s: %w", path, err)
	}
	if gotCRC := crc.Sum32(); gotCRC != wantCRC {
		diag.Fatalf("sidecar", "%s: bloom filter checksum mismatch: got %08x want %08x", path, gotCRC, wantCRC)
	}

	return nil
}
