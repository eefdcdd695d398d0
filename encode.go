// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package car

import (
	"bytes"
	"encoding/binary"
	"math"
)

// byteWriter is byteReader's mirror: positioned, appending writes of
// fixed-width integers/floats and fixed-length padded byte arrays. Every
// writer in this package fixes its endianness at the call site, exactly
// like the reader does.
type byteWriter struct {
	buf bytes.Buffer
}

func newByteWriter() *byteWriter { return &byteWriter{} }

func (w *byteWriter) bytes() []byte { return w.buf.Bytes() }

func (w *byteWriter) writeBytes(b []byte) { w.buf.Write(b) }

func (w *byteWriter) u8(v uint8) { w.buf.WriteByte(v) }

func (w *byteWriter) u16le(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *byteWriter) u16be(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *byteWriter) u32le(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *byteWriter) u32be(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *byteWriter) f64le(v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	w.buf.Write(b[:])
}

// magic4 writes exactly the 4 bytes of s, unconverted.
func (w *byteWriter) magic4(s string) { w.buf.WriteString(s) }

// fixedString zero-pads s to n bytes (or truncates, which callers must
// avoid) so unused suffixes round-trip byte-exact, per spec §9.
func (w *byteWriter) fixedString(s string, n int) {
	b := make([]byte, n)
	copy(b, s)
	w.buf.Write(b)
}

// cString writes a NUL-terminated string.
func (w *byteWriter) cString(s string) {
	w.buf.WriteString(s)
	w.buf.WriteByte(0)
}

// encode serializes the 436-byte CARHEADER record.
func (h CarHeader) encode() []byte {
	w := newByteWriter()
	w.magic4(carHeaderMagic)
	w.u32le(h.CoreUIVersion)
	w.u32le(h.StorageVersion)
	w.u32le(h.StorageTimestamp)
	w.u32le(h.RenditionCount)
	w.fixedString(h.MainVersionString, 128)
	w.fixedString(h.VersionString, 256)
	w.writeBytes(h.UUID[:])
	w.u32le(h.AssociatedChecksum)
	w.u32le(h.SchemaVersion)
	w.u32le(h.ColorSpaceID)
	w.u32le(h.KeySemantics)
	return w.bytes()
}

// encode serializes the 1028-byte EXTENDED_METADATA record.
func (m CarExtendedMetadata) encode() []byte {
	w := newByteWriter()
	w.magic4("META")
	w.fixedString(m.ThinningArguments, 256)
	w.fixedString(m.DeploymentPlatformVersion, 256)
	w.fixedString(m.DeploymentPlatform, 256)
	w.fixedString(m.AuthoringTool, 256)
	return w.bytes()
}

// encode serializes the KEYFORMAT record.
func (kf KeyFormat) encode() []byte {
	w := newByteWriter()
	w.magic4(keyFormatMagic)
	w.u32le(kf.Version)
	w.u32le(uint32(len(kf.Attributes)))
	for _, a := range kf.Attributes {
		w.u32le(uint32(a))
	}
	return w.bytes()
}

// encode serializes the 18-slot RenditionKey.
func (k RenditionKey) encode() []byte {
	w := newByteWriter()
	for _, v := range k {
		w.u16le(v)
	}
	return w.bytes()
}

// encode serializes a KeyToken's cursor hotspot and attribute vector.
func (t KeyToken) encode() []byte {
	w := newByteWriter()
	w.u16le(t.CursorHotspotX)
	w.u16le(t.CursorHotspotY)
	w.u16le(uint16(len(t.Attributes)))
	for _, a := range t.Attributes {
		w.u16le(uint16(a.Type))
		w.u16le(a.Value)
	}
	return w.bytes()
}

// encode serializes the full CSI record: fixed header, TLV stream, and the
// dispatched rendition body, recomputing TLVLength/RenditionLength from the
// encoded payloads rather than trusting stale header fields.
func (c CSI) encode() []byte {
	tlvBytes := encodeTLVs(c.TLVs)
	bodyBytes := encodeRenditionBody(c.Body)

	w := newByteWriter()
	w.magic4(csiHeaderMagic)
	w.u32le(c.Header.Version)
	w.u32le(uint32(c.Header.Flags))
	w.u32le(c.Header.Width)
	w.u32le(c.Header.Height)
	w.u32le(c.Header.ScaleFactor)
	w.writeBytes([]byte(c.Header.PixelFormat))
	w.u32le(c.Header.ColorModelRaw)
	w.u32le(c.Header.Metadata.ModTime)
	w.u32le(uint32(c.Header.Metadata.Layout))
	w.fixedString(c.Header.Metadata.Name, 128)
	w.u32le(uint32(len(tlvBytes)))
	w.u32le(c.Header.TLVUnknown)
	w.u32le(c.Header.TLVZero)
	w.u32le(uint32(len(bodyBytes)))
	w.writeBytes(tlvBytes)
	w.writeBytes(bodyBytes)
	return w.bytes()
}

func encodeTLVs(tlvs []TLV) []byte {
	w := newByteWriter()
	for _, t := range tlvs {
		w.u32le(uint32(t.Type))
		w.u32le(uint32(len(t.Bytes)))
		w.writeBytes(t.Bytes)
	}
	return w.bytes()
}

// encodeRenditionBody dispatches on the body's concrete type, mirroring
// parseRenditionBody's magic-based dispatch in reverse.
func encodeRenditionBody(body RenditionBody) []byte {
	w := newByteWriter()
	switch v := body.(type) {
	case RawData:
		w.magic4("RAWD")
		w.u32le(v.Version)
		w.u32le(uint32(len(v.Bytes)))
		w.writeBytes(v.Bytes)
	case ThemePixels:
		w.magic4("MLEC")
		w.u32le(v.Version)
		w.u32le(uint32(v.Compression))
		w.u32le(uint32(len(v.Bytes)))
		w.writeBytes(v.Bytes)
	case ThemePixelsKCBC:
		w.magic4("MLEC")
		w.u32le(v.Version)
		w.u32le(uint32(v.Compression))
		w.magic4("KCBC")
		w.u32le(uint32(len(v.Inner)))
		w.writeBytes(v.Inner)
	case FlatColor:
		w.magic4("RLOC")
		w.u32le(v.Version)
		w.u8(uint8(v.ColorSpace))
		w.writeBytes([]byte{0, 0, 0})
		w.u32le(uint32(len(v.Components)))
		for _, c := range v.Components {
			w.f64le(c)
		}
	case MultisizeImageSet:
		w.magic4("SISM")
		w.u32le(v.Version)
		w.u32le(uint32(len(v.Entries)))
		for _, e := range v.Entries {
			w.u32le(e.Width)
			w.u32le(e.Height)
			w.u16le(e.Index)
			w.u16le(uint16(e.Idiom))
		}
	case UnknownBody:
		w.magic4(v.Tag)
		w.u32le(v.Version)
		w.u32le(uint32(len(v.Bytes)))
		w.writeBytes(v.Bytes)
	}
	return w.bytes()
}
