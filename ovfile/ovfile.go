// Package ovfile implements the record-stream file format: six open
// modes over two on-disk record shapes (normal/full), buffered write and
// read, byte-offset seek for uncompressed files, and counts/histogram
// sidecars persisted at close.
//
// Grounded on end to end (construct/writeBuffer/writeOverlap(s)/
// readBuffer/readOverlap(s)/seekOverlap/destructor); the Go error
// vocabulary and wrapped-error style follow wal_writer.go's
// ErrWALClosed = os.ErrClosed and segmentmanager/disk.go's
// fmt.Errorf("failed to ...: %w", err) chains; the open-mode option
// pattern follows segmentmanager's WithMaxSegmentSize/DiskSegmentManagerOption.
package ovfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/korenlab/ovstore/fastcodec"
	"github.com/korenlab/ovstore/internal/diag"
	"github.com/korenlab/ovstore/sidecar"
)

const defaultBufferSize = 16 * 1024

const (
	countsSuffix    = ".counts"
	histogramSuffix = ".histogram"
	indexSuffix     = ".index"
)

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	return a / gcd(a, b) * b
}

// Options configure Open beyond the open mode itself.
type Option func(*options)

type options struct {
	bufferSize        int
	contextAID        uint32
	temp              bool
	expectedHistoSize uint
	histoFalsePos     float64
}

// WithBufferSize overrides the requested record-buffer size (rounded down
// to a multiple of lcm(normalRecordSize, fullRecordSize)).
func WithBufferSize(n int) Option {
	return func(o *options) { o.bufferSize = n }
}

// WithContextAID supplies the a_id normal-shape records are read/written
// under, since normal shape never stores it on disk.
func WithContextAID(id uint32) Option {
	return func(o *options) { o.contextAID = id }
}

// WithTemp marks the file as fetched from a remote object store into a
// local temporary; Close will unlink it.
func WithTemp() Option {
	return func(o *options) { o.temp = true }
}

// WithHistogramSizeHint sizes the histogram's bloom filter for roughly n
// distinct b_id values at the given false-positive rate.
func WithHistogramSizeHint(n uint, falsePositiveRate float64) Option {
	return func(o *options) {
		o.expectedHistoSize = n
		o.histoFalsePos = falsePositiveRate
	}
}

// File is an open overlap record stream: either a reader or a writer,
// never both, over one of the six Modes.
type File struct {
	path   string
	prefix string
	mode   Mode
	cfg    modeConfig

	contextAID uint32

	f *os.File

	buf        []byte
	bufLen     int
	bufPos     int
	bufMax     int
	recordSize int

	bytesWritten int64
	index        []int64

	counts    *sidecar.Counts
	histogram *sidecar.Histogram

	temp   bool
	closed bool
}

func prefixOf(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return path
	}
	return strings.TrimSuffix(path, ext)
}

// Open opens path in the given Mode.
func Open(path string, mode Mode, opts ...Option) (*File, error) {
	cfg := options{
		bufferSize:        defaultBufferSize,
		expectedHistoSize: 100000,
		histoFalsePos:     0.01,
	}
	for _, o := range opts {
		o(&cfg)
	}

	mc := configFor(mode)
	prefix := prefixOf(path)

	file := &File{
		path:       path,
		prefix:     prefix,
		mode:       mode,
		cfg:        mc,
		contextAID: cfg.contextAID,
		temp:       cfg.temp,
	}

	if mc.makeCounts {
		if mc.writing {
			file.counts = sidecar.NewCounts()
		} else {
			counts, err := sidecar.LoadCounts(prefix + countsSuffix)
			switch {
			case err == nil:
				file.counts = counts
			case errors.Is(err, fs.ErrNotExist):
				// No counts sidecar was written alongside this file (e.g.
				// it was written with FullWriteNoCounts); leave it unset
				// rather than fail the open. LoadCounts wraps the
				// underlying *PathError with %w, so this must be
				// errors.Is against fs.ErrNotExist rather than
				// os.IsNotExist, which only unwraps concrete *PathError/
				// *LinkError/*SyscallError values and would never see
				// through the wrapping here.
			default:
				return nil, err
			}
		}
	}

	if mc.makeHistogram {
		file.histogram = sidecar.NewHistogram(cfg.expectedHistoSize, cfg.histoFalsePos)
	}

	if mc.noMainFile {
		return file, nil // no main file handle to flush or close
	}

	file.recordSize = recordSizeFor(mc.shapeFull)

	blockLCM := lcm(normalRecordSize, fullRecordSize)
	bufMax := (cfg.bufferSize / blockLCM) * blockLCM
	if bufMax < blockLCM {
		bufMax = blockLCM
	}
	file.bufMax = bufMax
	file.buf = make([]byte, bufMax)

	var flags int
	if mc.writing {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	} else {
		flags = os.O_RDONLY
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("ovfile: failed to open %s: %w", path, err)
	}
	file.f = f

	if !mc.writing && !mc.shapeFull {
		idx, err := loadIndex(path + indexSuffix)
		switch {
		case err == nil:
			file.index = idx
		case errors.Is(err, fs.ErrNotExist):
			// No .index sidecar was written alongside this file; Seek
			// falls back to arithmetic i*recordSize offsets.
		case errors.Is(err, ErrCorruptRecord):
			// A stale or truncated index is not fatal: it is a seek
			// accelerant, not part of the record format itself, so we
			// simply fall back to arithmetic seeking.
		default:
			return nil, err
		}
	}

	return file, nil
}

// Mode reports the mode the file was opened with.
func (f *File) Mode() Mode {
	return f.mode
}

// Path reports the path the file was opened with.
func (f *File) Path() string {
	return f.path
}

// Counts returns the file's counts sidecar, or nil if this mode does not
// carry one.
func (f *File) Counts() *sidecar.Counts {
	return f.counts
}

// Histogram returns the file's histogram sidecar, or nil if this mode
// does not carry one.
func (f *File) Histogram() *sidecar.Histogram {
	return f.histogram
}

// RemoveHistogram discards the in-memory histogram without persisting
// it, for callers that never want it written at Close.
func (f *File) RemoveHistogram() {
	f.histogram = nil
}

// WriteOverlap appends one record to the write buffer, flushing when full.
func (f *File) WriteOverlap(o Overlap) error {
	if f.closed {
		return ErrClosed
	}
	if !f.cfg.writing {
		return fmt.Errorf("ovfile: %s: %w", f.path, ErrWrongDirection)
	}

	encode(o, f.cfg.shapeFull, f.buf[f.bufLen:f.bufLen+f.recordSize])
	if !f.cfg.shapeFull {
		f.index = append(f.index, f.bytesWritten+int64(f.bufLen))
	}
	f.bufLen += f.recordSize

	if f.counts != nil {
		f.counts.Observe(f.cfg.shapeFull, f.recordSize)
	}
	if f.histogram != nil {
		f.histogram.Observe(o.AID, o.BID, f.recordSize)
	}

	return f.writeBuffer(false)
}

// WriteOverlaps writes every record in os, in order.
func (f *File) WriteOverlaps(os []Overlap) error {
	for _, o := range os {
		if err := f.WriteOverlap(o); err != nil {
			return err
		}
	}
	return nil
}

// writeBuffer flushes the write buffer when force is true or the buffer
// is full. An empty buffer is never flushed.
func (f *File) writeBuffer(force bool) error {
	if f.bufLen == 0 {
		return nil
	}
	if !force && f.bufLen < f.bufMax {
		return nil
	}

	if f.cfg.compressed {
		if err := fastcodec.WriteBlock(f.f, f.buf[:f.bufLen]); err != nil {
			return fmt.Errorf("ovfile: %s: %w", f.path, err)
		}
	} else {
		if _, err := f.f.Write(f.buf[:f.bufLen]); err != nil {
			return fmt.Errorf("ovfile: failed to write %s: %w", f.path, err)
		}
	}

	f.bytesWritten += int64(f.bufLen)
	f.bufLen = 0
	return nil
}

// ReadOverlap reads the next record into o, refilling the buffer as
// needed. eof is true when the stream is exhausted and o was not filled.
func (f *File) ReadOverlap(o *Overlap) (eof bool, err error) {
	if f.closed {
		return false, ErrClosed
	}
	if f.cfg.writing || f.cfg.noMainFile {
		return false, fmt.Errorf("ovfile: %s: %w", f.path, ErrWrongDirection)
	}

	if f.bufPos == f.bufLen {
		if err := f.readBuffer(); err != nil {
			if err == io.EOF {
				return true, nil
			}
			return false, err
		}
		if f.bufLen == 0 {
			return true, nil
		}
	}

	*o = decode(f.buf[f.bufPos:f.bufPos+f.recordSize], f.cfg.shapeFull, f.contextAID)
	f.bufPos += f.recordSize

	return false, nil
}

// ReadOverlaps fills out with up to len(out) records, returning the
// number actually read (less than len(out) only at end of stream).
func (f *File) ReadOverlaps(out []Overlap) (n int, err error) {
	for n < len(out) {
		eof, err := f.ReadOverlap(&out[n])
		if err != nil {
			return n, err
		}
		if eof {
			return n, nil
		}
		n++
	}
	return n, nil
}

// readBuffer refills buf from the underlying file, uncompressed or
// compressed depending on mode.
func (f *File) readBuffer() error {
	if f.cfg.compressed {
		data, err := fastcodec.ReadBlock(f.f, f.path)
		if err == io.EOF {
			f.bufLen = 0
			f.bufPos = 0
			return io.EOF
		}
		if err != nil {
			return fmt.Errorf("ovfile: %s: %w", f.path, err)
		}
		if len(data) > len(f.buf) {
			f.buf = make([]byte, len(data))
		}
		copy(f.buf, data)
		f.bufLen = len(data)
		f.bufPos = 0
		return nil
	}

	n, err := io.ReadFull(f.f, f.buf)
	switch {
	case err == nil:
		f.bufLen = len(f.buf)
	case err == io.EOF:
		f.bufLen = 0
	case err == io.ErrUnexpectedEOF:
		if n%f.recordSize != 0 {
			diag.Fatalf("ovfile", "%s: partial record at end of file: %d bytes", f.path, n)
		}
		f.bufLen = n
	default:
		return fmt.Errorf("ovfile: failed to read %s: %w", f.path, err)
	}

	f.bufPos = 0
	if f.bufLen == 0 {
		return io.EOF
	}
	return nil
}

// SeekOverlap positions the file so the next ReadOverlap returns record
// i. Defined only for uncompressed files.
func (f *File) SeekOverlap(i uint64) error {
	if f.closed {
		return ErrClosed
	}
	if f.cfg.compressed {
		return fmt.Errorf("ovfile: %s: %w", f.path, ErrSeekUnsupported)
	}

	var offset int64
	if i < uint64(len(f.index)) {
		offset = f.index[i]
	} else {
		offset = int64(i) * int64(f.recordSize)
	}

	if _, err := f.f.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("ovfile: failed to seek %s: %w", f.path, err)
	}

	f.bufLen = 0
	f.bufPos = 0
	return nil
}

// WriteIndex persists the record-start-offset index built while writing,
// to <path>.index, for normal-shape output files. Close calls this
// automatically for every normal-shape writer; it is exported so a caller
// that wants the index available before Close (e.g. to hand the file off
// to a reader in the same process) can force it early.
func (f *File) WriteIndex() error {
	if f.cfg.shapeFull || !f.cfg.writing {
		return fmt.Errorf("ovfile: %s: index is only built for normal-shape writers", f.path)
	}

	idxPath := f.path + indexSuffix
	idxFile, err := os.Create(idxPath)
	if err != nil {
		return fmt.Errorf("ovfile: failed to create %s: %w", idxPath, err)
	}
	defer idxFile.Close()

	if err := binary.Write(idxFile, binary.LittleEndian, uint64(len(f.index))); err != nil {
		return fmt.Errorf("ovfile: failed to write %s: %w", idxPath, err)
	}
	if err := binary.Write(idxFile, binary.LittleEndian, f.index); err != nil {
		return fmt.Errorf("ovfile: failed to write %s: %w", idxPath, err)
	}

	return nil
}

// loadIndex reads an index previously persisted by WriteIndex. The index
// is a seek accelerant, not part of the core record format, so any
// malformed sidecar is reported as ErrCorruptRecord rather than a fatal
// abort: the caller falls back to arithmetic i*recordSize seeking instead
// of failing the open.
func loadIndex(idxPath string) ([]int64, error) {
	data, err := os.ReadFile(idxPath)
	if err != nil {
		return nil, err
	}

	if len(data) < 8 {
		return nil, fmt.Errorf("ovfile: %s: %w: truncated index header", idxPath, ErrCorruptRecord)
	}

	count := binary.LittleEndian.Uint64(data[:8])
	want := 8 + 8*int(count)
	if len(data) != want {
		return nil, fmt.Errorf("ovfile: %s: %w: expected %d bytes, got %d", idxPath, ErrCorruptRecord, want, len(data))
	}

	idx := make([]int64, count)
	for i := range idx {
		idx[i] = int64(binary.LittleEndian.Uint64(data[8+8*i:]))
	}

	return idx, nil
}

// Close flushes any pending write, closes the underlying handle, persists
// sidecars for output modes, and unlinks the path if it was temporary.
// Every owned resource is released on every exit path, including error ones.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if f.cfg.writing && f.f != nil {
		record(f.writeBuffer(true))
	}

	if f.cfg.writing && !f.cfg.shapeFull && f.f != nil {
		record(f.WriteIndex())
	}

	if f.f != nil {
		record(f.f.Close())
	}

	if f.cfg.writing && f.histogram != nil {
		record(f.histogram.SaveToPath(f.prefix + histogramSuffix))
	}

	if f.cfg.writing && f.counts != nil {
		record(f.counts.SaveToPath(f.prefix + countsSuffix))
	}

	if f.temp {
		record(os.Remove(f.path))
	}

	return firstErr
}
