// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package car

import (
	"errors"
	"fmt"
)

// Error kinds, distinguished by cause. Every parse failure returned by this
// package wraps exactly one of these sentinels so callers can test with
// errors.Is, the way the teacher's ErrDOSMagicNotFound/ErrOutsideBoundary
// sentinels work.
var (
	// ErrTruncated is returned when the mapped range ends before a
	// required field.
	ErrTruncated = errors.New("unexpected end of input")

	// ErrBadMagic is returned when a 4-byte sentinel does not match the
	// expected value for the context.
	ErrBadMagic = errors.New("bad magic")

	// ErrUnknownEnum is returned when a fixed-width field holds a value
	// outside its declared set.
	ErrUnknownEnum = errors.New("unknown enum value")

	// ErrLayout is returned when a structural invariant is violated, such
	// as an internal (non-leaf) tree node or an inconsistent length field.
	ErrLayout = errors.New("layout invariant violated")

	// ErrNotFound is returned when a named block required by an
	// operation is absent.
	ErrNotFound = errors.New("named block not found")

	// ErrPaletteDecode is returned when LZFSE decode or the quantized
	// image parse fails.
	ErrPaletteDecode = errors.New("palette image decode failed")

	// ErrUnsupported is returned when extraction is requested for a
	// rendition whose variant/compression has no defined handler.
	ErrUnsupported = errors.New("unsupported rendition variant")
)

// FormatError adds positional context to one of the sentinels above while
// still satisfying errors.Is against it.
type FormatError struct {
	Offset uint32
	Kind   error
	Msg    string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%v at offset %d", e.Kind, e.Offset)
	}
	return fmt.Sprintf("%v at offset %d: %s", e.Kind, e.Offset, e.Msg)
}

// Unwrap exposes the underlying sentinel to errors.Is/errors.As.
func (e *FormatError) Unwrap() error { return e.Kind }

func fmtErr(kind error, offset uint32, msg string) error {
	return &FormatError{Offset: offset, Kind: kind, Msg: msg}
}
