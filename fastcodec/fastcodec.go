// Package fastcodec frames one block's worth of snappy-compressed payload
// on disk as a length-prefixed record: an 8-byte little-endian byte count
// followed by that many bytes of compressed data. The decoded length is
// recovered from snappy's own embedded varint, so no separate
// uncompressed-size field is needed.
//
// Grounded on canu's ovStoreFile writeBuffer/readBuffer (compress-then-
// length-prefix a block before writing it), with the framing itself
// following the teacher's encoding/binary length-prefix idiom.
package fastcodec

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/golang/snappy"

	"github.com/korenlab/ovstore/internal/diag"
)

// WriteBlock compresses data and writes it to w as a length-prefixed frame.
func WriteBlock(w io.Writer, data []byte) error {
	compressed := snappy.Encode(make([]byte, snappy.MaxEncodedLen(len(data))), data)

	if err := binary.Write(w, binary.LittleEndian, uint64(len(compressed))); err != nil {
		return fmt.Errorf("fastcodec: failed to write frame length: %w", err)
	}

	if _, err := w.Write(compressed); err != nil {
		return fmt.Errorf("fastcodec: failed to write frame body: %w", err)
	}

	return nil
}

// ReadBlock reads one length-prefixed frame from r and returns the
// decompressed block. It returns io.EOF, unwrapped, if r is exhausted
// exactly at a frame boundary (a clean end of stream). A short read once
// inside a frame is a corrupt-file condition and is fatal, since it means
// the file was truncated mid-record rather than simply ending.
func ReadBlock(r io.Reader, name string) ([]byte, error) {
	var length uint64
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("fastcodec: failed to read frame length: %w", err)
	}

	compressed := make([]byte, length)
	if n, err := io.ReadFull(r, compressed); err != nil {
		diag.Fatalf("fastcodec", "%s: truncated compressed frame: expected %d bytes, got %d (%d missing): %v", name, length, n, length-uint64(n), err)
	}

	decodedLen, err := snappy.DecodedLen(compressed)
	if err != nil {
		diag.Fatalf("fastcodec", "%s: corrupt compressed frame: %v", name, err)
	}

	decoded, err := snappy.Decode(make([]byte, decodedLen), compressed)
	if err != nil {
		diag.Fatalf("fastcodec", "%s: corrupt compressed frame: %v", name, err)
	}

	return decoded, nil
}
