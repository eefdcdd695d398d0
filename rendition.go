// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package car

// RenditionBody is the tagged-union rendition payload living after a CSI's
// TLV area. Every concrete type below implements it; Unknown is the
// catch-all that preserves raw bytes for any unrecognized magic.
type RenditionBody interface {
	Magic() string
}

// CompressionType identifies how a Theme (MLEC) body's raw bytes are
// encoded.
type CompressionType uint32

// Known compression types.
const (
	CompressionUncompressed CompressionType = iota
	CompressionRLE
	CompressionZIP
	CompressionLZVN
	CompressionLZFSE
	CompressionJPEGLZFSE
	CompressionBlurred
	CompressionASTC
	CompressionPaletteImg
	CompressionHEVC
	CompressionDeepMapLZFSE
	CompressionDeepMap2
)

func (c CompressionType) String() string {
	switch c {
	case CompressionUncompressed:
		return "uncompressed"
	case CompressionRLE:
		return "rle"
	case CompressionZIP:
		return "zip"
	case CompressionLZVN:
		return "lzvn"
	case CompressionLZFSE:
		return "lzfse"
	case CompressionJPEGLZFSE:
		return "jpeg-lzfse"
	case CompressionBlurred:
		return "blurred"
	case CompressionASTC:
		return "astc"
	case CompressionPaletteImg:
		return "palette-img"
	case CompressionHEVC:
		return "hevc"
	case CompressionDeepMapLZFSE:
		return "deepmap-lzfse"
	case CompressionDeepMap2:
		return "deepmap2"
	default:
		return "unknown"
	}
}

// RawData is the RAWD rendition body: an uninterpreted byte blob, used for
// Data-layout renditions.
type RawData struct {
	Version   uint32
	RawLength uint32
	Bytes     []byte
}

func (RawData) Magic() string { return "RAWD" }

// ThemePixels is the MLEC rendition body: a compressed payload whose codec
// is named by Compression. See ThemePixelsKCBC for the nested variant.
type ThemePixels struct {
	Version     uint32
	Compression CompressionType
	RawLength   uint32
	Bytes       []byte
}

func (ThemePixels) Magic() string { return "MLEC" }

// ThemePixelsKCBC is the nested MLEC→KCBC shape: the reference producer
// occasionally double-wraps a theme payload in an inner KCBC frame right
// after the compression field. Readers must speculatively attempt this
// shape first and fall back to the plain ThemePixels layout on a magic
// mismatch at that exact offset (spec §4.7, §9 open question 1).
type ThemePixelsKCBC struct {
	Version     uint32
	Compression CompressionType
	InnerLength uint32
	Inner       []byte
}

func (ThemePixelsKCBC) Magic() string { return "MLEC" }

// ColorSpaceID identifies the source color space of a flat-color (RLOC)
// rendition.
type ColorSpaceID uint8

// Known color spaces.
const (
	ColorSpaceSRGB              ColorSpaceID = 0
	ColorSpaceGrayGamma22       ColorSpaceID = 1
	ColorSpaceDisplayP3         ColorSpaceID = 2
	ColorSpaceExtendedRangeSRGB ColorSpaceID = 3
	ColorSpaceExtendedLinearSRGB ColorSpaceID = 4
	ColorSpaceExtendedGray      ColorSpaceID = 5
	ColorSpaceUnknown           ColorSpaceID = 14
)

func (c ColorSpaceID) String() string {
	switch c {
	case ColorSpaceSRGB:
		return "srgb"
	case ColorSpaceGrayGamma22:
		return "gray-gamma-22"
	case ColorSpaceDisplayP3:
		return "display-p3"
	case ColorSpaceExtendedRangeSRGB:
		return "extended-range-srgb"
	case ColorSpaceExtendedLinearSRGB:
		return "extended-linear-srgb"
	case ColorSpaceExtendedGray:
		return "extended-gray"
	default:
		return "unknown"
	}
}

// FlatColor is the RLOC rendition body: a flat color described by N f64
// components in its own color space.
type FlatColor struct {
	Version    uint32
	ColorSpace ColorSpaceID
	Components []float64
}

func (FlatColor) Magic() string { return "RLOC" }

// MultisizeEntry is one (width,height,index,idiom) tuple of a SISM body.
type MultisizeEntry struct {
	Width, Height uint32
	Index         uint16
	Idiom         Idiom
}

// MultisizeImageSet is the SISM rendition body: a directory of image
// variants at different sizes/idioms.
type MultisizeImageSet struct {
	Version uint32
	Entries []MultisizeEntry
}

func (MultisizeImageSet) Magic() string { return "SISM" }

// UnknownBody is the fallback for any rendition magic this package does
// not recognize. It is not an error: the decoder always succeeds, just
// with less structure.
type UnknownBody struct {
	Tag     string
	Version uint32
	Length  uint32
	Bytes   []byte
}

func (u UnknownBody) Magic() string { return u.Tag }

// parseRenditionBody dispatches on the body's first 4-byte magic.
func parseRenditionBody(r *byteReader) (RenditionBody, error) {
	tag, ok := r.peekMagic4()
	if !ok {
		return nil, fmtErr(ErrTruncated, r.pos, "rendition body too short for magic")
	}

	switch tag {
	case "RAWD":
		return parseRawData(r)
	case "MLEC":
		return parseThemePixels(r)
	case "RLOC":
		return parseFlatColor(r)
	case "SISM":
		return parseMultisizeImageSet(r)
	default:
		return parseUnknownBody(r)
	}
}

func parseRawData(r *byteReader) (RawData, error) {
	var b RawData
	if err := r.magic4("RAWD"); err != nil {
		return b, err
	}
	var err error
	if b.Version, err = r.u32le(); err != nil {
		return b, err
	}
	if b.RawLength, err = r.u32le(); err != nil {
		return b, err
	}
	if b.Bytes, err = r.bytes(b.RawLength); err != nil {
		return b, err
	}
	return b, nil
}

// parseThemePixels implements the MLEC magic's two shapes: it first
// speculatively tries the nested MLEC→KCBC form, and falls back to the
// plain ThemePixels layout when the bytes right after the compression
// field are not the KCBC magic.
func parseThemePixels(r *byteReader) (RenditionBody, error) {
	start := r.pos
	if err := r.magic4("MLEC"); err != nil {
		return nil, err
	}
	version, err := r.u32le()
	if err != nil {
		return nil, err
	}
	compressionRaw, err := r.u32le()
	if err != nil {
		return nil, err
	}
	compression := CompressionType(compressionRaw)

	if tag, ok := r.peekMagic4(); ok && tag == "KCBC" {
		if err := r.magic4("KCBC"); err != nil {
			return nil, err
		}
		innerLength, err := r.u32le()
		if err != nil {
			return nil, err
		}
		inner, err := r.bytes(innerLength)
		if err != nil {
			return nil, err
		}
		return ThemePixelsKCBC{
			Version:     version,
			Compression: compression,
			InnerLength: innerLength,
			Inner:       inner,
		}, nil
	}

	// Not nested: rewind to right after the compression field and read
	// the plain shape.
	r.seek(start + 4 + 4 + 4)
	rawLength, err := r.u32le()
	if err != nil {
		return nil, err
	}
	raw, err := r.bytes(rawLength)
	if err != nil {
		return nil, err
	}
	return ThemePixels{Version: version, Compression: compression, RawLength: rawLength, Bytes: raw}, nil
}

func parseFlatColor(r *byteReader) (FlatColor, error) {
	var c FlatColor
	if err := r.magic4("RLOC"); err != nil {
		return c, err
	}
	var err error
	if c.Version, err = r.u32le(); err != nil {
		return c, err
	}
	csFlag, err := r.u8()
	if err != nil {
		return c, err
	}
	c.ColorSpace = ColorSpaceID(csFlag)
	if _, err = r.bytes(3); err != nil { // reserved
		return c, err
	}
	count, err := r.u32le()
	if err != nil {
		return c, err
	}
	c.Components = make([]float64, count)
	for i := uint32(0); i < count; i++ {
		v, err := r.f64le()
		if err != nil {
			return c, err
		}
		c.Components[i] = v
	}
	return c, nil
}

func parseMultisizeImageSet(r *byteReader) (MultisizeImageSet, error) {
	var s MultisizeImageSet
	if err := r.magic4("SISM"); err != nil {
		return s, err
	}
	var err error
	if s.Version, err = r.u32le(); err != nil {
		return s, err
	}
	count, err := r.u32le()
	if err != nil {
		return s, err
	}
	s.Entries = make([]MultisizeEntry, count)
	for i := uint32(0); i < count; i++ {
		w, err := r.u32le()
		if err != nil {
			return s, err
		}
		h, err := r.u32le()
		if err != nil {
			return s, err
		}
		idx, err := r.u16le()
		if err != nil {
			return s, err
		}
		idiom, err := r.u16le()
		if err != nil {
			return s, err
		}
		s.Entries[i] = MultisizeEntry{Width: w, Height: h, Index: idx, Idiom: Idiom(idiom)}
	}
	return s, nil
}

func parseUnknownBody(r *byteReader) (UnknownBody, error) {
	var u UnknownBody
	tag, err := r.bytes(4)
	if err != nil {
		return u, err
	}
	u.Tag = string(tag)
	if u.Version, err = r.u32le(); err != nil {
		return u, err
	}
	if u.Length, err = r.u32le(); err != nil {
		return u, err
	}
	if u.Bytes, err = r.bytes(u.Length); err != nil {
		return u, err
	}
	return u, nil
}
