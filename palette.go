// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package car

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/png"

	lzfse "github.com/blacktop/lzfse"
)

// quantizedImageMagic is the 4-byte sentinel the LZFSE-decompressed
// quantized-image stream begins with.
const quantizedImageMagic = 0xCAFEF00D

// decodePaletteImage runs the full §4.8 pipeline over an MLEC body whose
// CompressionType is PaletteImg: LZFSE-decompress, parse the quantized
// image, expand the palette, and return an RGBA8 image ready for PNG
// encoding. width/height come from the owning CSI header (falling back to
// its Slices TLV, per widthHeight).
func decodePaletteImage(raw []byte, width, height uint32) (*image.NRGBA, error) {
	plain, err := lzfse.DecodeBuffer(raw)
	if err != nil {
		return nil, fmtErr(ErrPaletteDecode, 0, "lzfse: "+err.Error())
	}
	return parseQuantizedImage(plain, width, height)
}

// parseQuantizedImage decodes the already-LZFSE-decompressed quantized
// image stream: the CAFEF00D-tagged header, the BGRA palette table, and the
// 2-pixels-per-u16-word index stream. Split out from decodePaletteImage so
// it can be exercised without a real LZFSE-compressed fixture.
func parseQuantizedImage(plain []byte, width, height uint32) (*image.NRGBA, error) {
	r := newByteReader(plain)
	magic, err := r.u32be()
	if err != nil {
		return nil, fmtErr(ErrPaletteDecode, 0, "quantized image too short")
	}
	if magic != quantizedImageMagic {
		return nil, fmtErr(ErrPaletteDecode, 0, "bad quantized image magic")
	}
	if _, err := r.u32le(); err != nil { // version, unused
		return nil, fmtErr(ErrPaletteDecode, r.pos, "quantized image too short")
	}
	colorCount, err := r.u16le()
	if err != nil {
		return nil, fmtErr(ErrPaletteDecode, r.pos, "quantized image too short")
	}

	palette := make([]uint32, colorCount)
	for i := range palette {
		v, err := r.u32le()
		if err != nil {
			return nil, fmtErr(ErrPaletteDecode, r.pos, "palette table truncated")
		}
		palette[i] = v
	}

	img := image.NewNRGBA(image.Rect(0, 0, int(width), int(height)))
	total := int(width) * int(height)
	words := (total + 1) / 2

	pix := 0
	for i := 0; i < words; i++ {
		w, err := r.u16le()
		if err != nil {
			return nil, fmtErr(ErrPaletteDecode, r.pos, "pixel data truncated")
		}
		// High byte indexes color A, low byte indexes color B: each word
		// contributes exactly two output pixels, in that order.
		idxA := byte(w >> 8)
		idxB := byte(w & 0xff)
		if pix < total {
			setNRGBAFromBGRA(img, pix, paletteEntry(palette, idxA))
			pix++
		}
		if pix < total {
			setNRGBAFromBGRA(img, pix, paletteEntry(palette, idxB))
			pix++
		}
	}
	return img, nil
}

func paletteEntry(palette []uint32, idx byte) uint32 {
	if int(idx) >= len(palette) {
		return 0
	}
	return palette[idx]
}

// setNRGBAFromBGRA rotates a stored BGRA color-table entry into RGBA pixel
// order and writes it at linear offset pix (row-major, left-to-right,
// top-to-bottom — the same order the source u16 words are read in).
func setNRGBAFromBGRA(img *image.NRGBA, pix int, bgra uint32) {
	b := byte(bgra >> 24)
	g := byte(bgra >> 16)
	r := byte(bgra >> 8)
	a := byte(bgra)
	x := pix % img.Rect.Dx()
	y := pix / img.Rect.Dx()
	o := img.PixOffset(x, y)
	img.Pix[o+0] = r
	img.Pix[o+1] = g
	img.Pix[o+2] = b
	img.Pix[o+3] = a
}

// encodeSRGBPNG encodes img as an 8-bit RGBA PNG through the standard
// library encoder, then patches in the sRGB chromaticity (cHRM) and gamma
// (gAMA) chunks the spec calls for. image/png has no public hook for either
// ancillary chunk, so this package does what the rest of this codebase does
// everywhere else: treat the output as a binary record and splice the
// chunks in directly, immediately after IHDR.
func encodeSRGBPNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return insertColorChunks(buf.Bytes())
}

// pngChromaticity is the fixed point (100000ths) sRGB primaries/whitepoint
// the spec names: R 0.64,0.33; G 0.30,0.60; B 0.15,0.06; W 0.3127,0.329.
var pngChromaticity = [8]uint32{
	64000, 33000, // red x,y
	30000, 60000, // green x,y
	15000, 6000, // blue x,y
	31270, 32900, // white x,y
}

// pngGamma is 1/2.2 expressed in PNG's 100000ths-fixed-point gAMA units.
const pngGamma = 45455

func insertColorChunks(src []byte) ([]byte, error) {
	if len(src) < 8 {
		return nil, fmtErr(ErrPaletteDecode, 0, "encoded PNG too short")
	}
	out := make([]byte, 0, len(src)+64)
	out = append(out, src[:8]...) // PNG signature
	pos := 8

	gama := buildChunk("gAMA", encodeU32BE(pngGamma))
	chrm := buildChunk("cHRM", encodeChrm(pngChromaticity))
	inserted := false

	for pos < len(src) {
		if pos+8 > len(src) {
			return nil, fmtErr(ErrPaletteDecode, uint32(pos), "truncated PNG chunk")
		}
		length := binary.BigEndian.Uint32(src[pos : pos+4])
		typ := string(src[pos+4 : pos+8])
		end := pos + 12 + int(length)
		if end > len(src) {
			return nil, fmtErr(ErrPaletteDecode, uint32(pos), "truncated PNG chunk body")
		}
		out = append(out, src[pos:end]...)
		if typ == "IHDR" && !inserted {
			out = append(out, gama...)
			out = append(out, chrm...)
			inserted = true
		}
		pos = end
	}
	return out, nil
}

func buildChunk(typ string, data []byte) []byte {
	buf := make([]byte, 0, 12+len(data))
	buf = append(buf, encodeU32BE(uint32(len(data)))...)
	buf = append(buf, []byte(typ)...)
	buf = append(buf, data...)
	crc := crc32.ChecksumIEEE(append([]byte(typ), data...))
	buf = append(buf, encodeU32BE(crc)...)
	return buf
}

func encodeU32BE(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func encodeChrm(v [8]uint32) []byte {
	b := make([]byte, 32)
	for i, x := range v {
		binary.BigEndian.PutUint32(b[i*4:], x)
	}
	return b
}
