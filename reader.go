// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package car

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
)

// byteReader provides positioned reads of fixed-width integers, floats,
// fixed-byte arrays, and fixed-length padded strings over a bounded byte
// slice. Every container record in this package fixes its endianness at
// the call site: BOM-level records read big-endian, CAR-level records read
// little-endian (§6 of the spec this package implements). The reader never
// panics; every accessor returns ErrTruncated once the cursor would run
// past the end of the bound slice.
type byteReader struct {
	data []byte
	pos  uint32
}

func newByteReader(data []byte) *byteReader {
	return &byteReader{data: data}
}

// sub returns a new reader bounded to [off, off+n), independent of this
// reader's cursor, so a variant decoder can never read past its own body.
func (r *byteReader) sub(off, n uint32) (*byteReader, error) {
	if uint64(off)+uint64(n) > uint64(len(r.data)) {
		return nil, fmtErr(ErrTruncated, off, "sub-range exceeds buffer")
	}
	return newByteReader(r.data[off : off+n]), nil
}

func (r *byteReader) len() uint32 { return uint32(len(r.data)) }

func (r *byteReader) remaining() uint32 {
	if r.pos > uint32(len(r.data)) {
		return 0
	}
	return uint32(len(r.data)) - r.pos
}

func (r *byteReader) seek(pos uint32) { r.pos = pos }

func (r *byteReader) require(n uint32) error {
	if uint64(r.pos)+uint64(n) > uint64(len(r.data)) {
		return fmtErr(ErrTruncated, r.pos, "need more bytes")
	}
	return nil
}

func (r *byteReader) bytes(n uint32) ([]byte, error) {
	if err := r.require(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *byteReader) u8() (uint8, error) {
	b, err := r.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *byteReader) u16le() (uint16, error) {
	b, err := r.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *byteReader) u16be() (uint16, error) {
	b, err := r.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *byteReader) u32le() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *byteReader) u32be() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *byteReader) u64le() (uint64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *byteReader) u64be() (uint64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *byteReader) f32le() (float32, error) {
	v, err := r.u32le()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *byteReader) f64le() (float64, error) {
	v, err := r.u64le()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// fixedString reads n bytes and decodes them as a NUL-padded, UTF-8 string:
// trailing bytes from (and including) the first NUL are dropped.
func (r *byteReader) fixedString(n uint32) (string, error) {
	b, err := r.bytes(n)
	if err != nil {
		return "", err
	}
	return stripNul(b), nil
}

// cString reads a NUL-terminated string out of a bounded area, starting at
// the reader's current position, without a fixed length (used for
// FACETKEYS names).
func (r *byteReader) cString() (string, error) {
	idx := bytes.IndexByte(r.data[r.pos:], 0)
	if idx < 0 {
		s := string(r.data[r.pos:])
		r.pos = uint32(len(r.data))
		return s, nil
	}
	s := string(r.data[r.pos : r.pos+uint32(idx)])
	r.pos += uint32(idx) + 1
	return s, nil
}

func stripNul(b []byte) string {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return string(b)
	}
	return string(b[:i])
}

// magic4 reads the next 4 bytes verbatim, without endianness conversion,
// and compares them against want (e.g. "ISTC", "RAWD").
func (r *byteReader) magic4(want string) error {
	b, err := r.bytes(4)
	if err != nil {
		return err
	}
	if string(b) != want {
		return fmtErr(ErrBadMagic, r.pos-4, "want "+want+" got "+strings.TrimSpace(string(b)))
	}
	return nil
}

// peekMagic4 returns the next 4 bytes without advancing the cursor.
func (r *byteReader) peekMagic4() (string, bool) {
	if r.remaining() < 4 {
		return "", false
	}
	return string(r.data[r.pos : r.pos+4]), true
}
