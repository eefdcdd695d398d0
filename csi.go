// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package car

const csiHeaderMagic = "ISTC"

// RenditionFlags is the bit-packed flag word attached to every CSI record.
// Individual bits are read through accessors rather than a per-bit struct
// layout, since the word must round-trip byte-exact.
type RenditionFlags uint32

// IsVectorBased reports bit 0.
func (f RenditionFlags) IsVectorBased() bool { return f&(1<<0) != 0 }

// IsOpaque reports bit 1.
func (f RenditionFlags) IsOpaque() bool { return f&(1<<1) != 0 }

// HasAlignmentInfo reports bit 2.
func (f RenditionFlags) HasAlignmentInfo() bool { return f&(1<<2) != 0 }

// ResizingMode reports bits 3-4.
func (f RenditionFlags) ResizingMode() uint32 { return uint32(f>>3) & 0x3 }

// TemplateRenderingMode values.
type TemplateRenderingMode uint32

// Known template rendering modes.
const (
	TemplateAutomatic TemplateRenderingMode = iota
	TemplateOriginal
	TemplateTemplate
)

func (t TemplateRenderingMode) String() string {
	switch t {
	case TemplateOriginal:
		return "original"
	case TemplateTemplate:
		return "template"
	default:
		return "automatic"
	}
}

// TemplateRenderingMode reports bits 5-7.
func (f RenditionFlags) TemplateRenderingMode() TemplateRenderingMode {
	return TemplateRenderingMode(uint32(f>>5) & 0x7)
}

// PixelFormat is the 4-ASCII pixel-format code carried by a CSI header.
type PixelFormat string

// Known pixel formats.
const (
	PixelFormatNone  PixelFormat = "\x00\x00\x00\x00"
	PixelFormatARGB  PixelFormat = "ARGB"
	PixelFormatData  PixelFormat = "Data"
	PixelFormatGray  PixelFormat = "Gray"
	PixelFormatJPEG  PixelFormat = "JPEG"
)

// Layout is the low-16-bits-meaningful layout type carried in
// csimetadata.layout (spec §9 open question 2: some code paths read it as
// u16, some as u32; only the low 16 bits are meaningful, so this package
// always masks to them). Ordinals are LayoutType32's real wire values, not
// small sequential ones: a rendition's layout code is read directly off a
// real .car file and must match what Apple's own toolchain writes.
type Layout uint16

// Known layout types.
const (
	LayoutImage          Layout = 0x00C
	LayoutData           Layout = 0x3E8
	LayoutColor          Layout = 0x3F1
	LayoutMultisizeImage Layout = 0x3F2
)

// CSIMetadata is the embedded metadata block of a CSI header.
type CSIMetadata struct {
	ModTime uint32
	Layout  Layout
	Name    string
}

// CSIHeader is the fixed 184-byte prefix of every rendition record.
type CSIHeader struct {
	Version      uint32
	Flags        RenditionFlags
	Width        uint32
	Height       uint32
	ScaleFactor  uint32 // ×100
	PixelFormat  PixelFormat
	ColorModelRaw uint32
	Metadata     CSIMetadata
	TLVLength    uint32
	TLVUnknown   uint32
	TLVZero      uint32
	RenditionLength uint32
}

// Scale returns the decoded scale factor: ScaleFactor/100, or 1 if the
// on-disk value is 0.
func (h CSIHeader) Scale() float64 {
	if h.ScaleFactor == 0 {
		return 1
	}
	return float64(h.ScaleFactor) / 100
}

// ColorModel is the low nibble of CSIHeader.ColorModelRaw.
type ColorModel uint32

// Known color models.
const (
	ColorModelNone       ColorModel = 0
	ColorModelRGB        ColorModel = 1
	ColorModelMonochrome ColorModel = 2
	ColorModelRGB14      ColorModel = 14
)

func (c ColorModel) String() string {
	switch c {
	case ColorModelRGB, ColorModelRGB14:
		return "RGB"
	case ColorModelMonochrome:
		return "Monochrome"
	default:
		return "None"
	}
}

// ColorModel decodes the low nibble of the CSI color-space word.
func (h CSIHeader) ColorModel() ColorModel {
	return ColorModel(h.ColorModelRaw & 0xF)
}

const csiFixedSize = 184

func parseCSIHeader(r *byteReader) (CSIHeader, error) {
	var h CSIHeader
	if err := r.magic4(csiHeaderMagic); err != nil {
		return h, err
	}
	var err error
	if h.Version, err = r.u32le(); err != nil {
		return h, err
	}
	flags, err := r.u32le()
	if err != nil {
		return h, err
	}
	h.Flags = RenditionFlags(flags)
	if h.Width, err = r.u32le(); err != nil {
		return h, err
	}
	if h.Height, err = r.u32le(); err != nil {
		return h, err
	}
	if h.ScaleFactor, err = r.u32le(); err != nil {
		return h, err
	}
	pf, err := r.bytes(4)
	if err != nil {
		return h, err
	}
	h.PixelFormat = PixelFormat(pf)
	if h.ColorModelRaw, err = r.u32le(); err != nil {
		return h, err
	}
	if h.Metadata.ModTime, err = r.u32le(); err != nil {
		return h, err
	}
	layout32, err := r.u32le()
	if err != nil {
		return h, err
	}
	h.Metadata.Layout = Layout(layout32 & 0xFFFF)
	name, err := r.fixedString(128)
	if err != nil {
		return h, err
	}
	h.Metadata.Name = name
	if h.TLVLength, err = r.u32le(); err != nil {
		return h, err
	}
	if h.TLVUnknown, err = r.u32le(); err != nil {
		return h, err
	}
	if h.TLVZero, err = r.u32le(); err != nil {
		return h, err
	}
	if h.RenditionLength, err = r.u32le(); err != nil {
		return h, err
	}
	return h, nil
}

// TLVType identifies a known TLV record kind. Unknown ids are preserved,
// not rejected.
type TLVType uint32

// Known TLV types.
const (
	TLVSlices              TLVType = 0x3E9
	TLVMetrics             TLVType = 0x3EB
	TLVBlendModeAndOpacity TLVType = 0x3EC
	TLVUTI                 TLVType = 0x3ED
	TLVEXIFOrientation     TLVType = 0x3EE
	TLVExternalTags        TLVType = 0x3F0
	TLVFrame               TLVType = 0x3F1
)

// TLV is one type-length-value record from a CSI's auxiliary data area.
type TLV struct {
	Type  TLVType
	Bytes []byte
}

// Slices is the decoded TLVSlices payload.
type Slices struct {
	Unknown0, Unknown1, Unknown2 uint32
	Height, Width                uint32
}

func (t TLV) slices() (Slices, bool) {
	if t.Type != TLVSlices || len(t.Bytes) < 20 {
		return Slices{}, false
	}
	r := newByteReader(t.Bytes)
	u0, _ := r.u32le()
	u1, _ := r.u32le()
	u2, _ := r.u32le()
	h, _ := r.u32le()
	w, _ := r.u32le()
	return Slices{Unknown0: u0, Unknown1: u1, Unknown2: u2, Height: h, Width: w}, true
}

func (t TLV) uti() (string, bool) {
	if t.Type != TLVUTI || len(t.Bytes) < 8 {
		return "", false
	}
	r := newByteReader(t.Bytes)
	strLen, _ := r.u32le()
	r.seek(8)
	if int(strLen) > len(t.Bytes)-8 {
		return "", false
	}
	s, err := r.fixedString(strLen)
	if err != nil {
		return "", false
	}
	return s, true
}

// parseTLVs iterates (type, length, bytes) records until the bounded area
// is exhausted. Unknown type ids are preserved as plain TLV values, never
// rejected.
func parseTLVs(r *byteReader, total uint32) ([]TLV, error) {
	end := r.pos + total
	var out []TLV
	for r.pos < end {
		typ, err := r.u32le()
		if err != nil {
			return nil, err
		}
		length, err := r.u32le()
		if err != nil {
			return nil, err
		}
		b, err := r.bytes(length)
		if err != nil {
			return nil, err
		}
		out = append(out, TLV{Type: TLVType(typ), Bytes: append([]byte(nil), b...)})
	}
	return out, nil
}

// CSI is a fully parsed per-rendition record: the fixed header, its TLV
// stream, and its decoded rendition body.
type CSI struct {
	Header CSIHeader
	TLVs   []TLV
	Body   RenditionBody
}

// SizeOnDisk is 184 + tlv_length + rendition_length.
func (c CSI) SizeOnDisk() uint32 {
	return csiFixedSize + c.Header.TLVLength + c.Header.RenditionLength
}

// parseCSI reads the full record starting at r's current position: the
// fixed prefix, the TLV area, then the variant rendition body.
func parseCSI(r *byteReader) (CSI, error) {
	var c CSI
	header, err := parseCSIHeader(r)
	if err != nil {
		return c, err
	}
	c.Header = header

	tlvs, err := parseTLVs(r, header.TLVLength)
	if err != nil {
		return c, err
	}
	c.TLVs = tlvs

	bodyReader, err := r.sub(r.pos, header.RenditionLength)
	if err != nil {
		return c, err
	}
	r.pos += header.RenditionLength

	body, err := parseRenditionBody(bodyReader)
	if err != nil {
		return c, err
	}
	c.Body = body
	return c, nil
}

// widthHeight resolves PixelWidth/PixelHeight, falling back to the
// matching Slices TLV entry when the CSI header's own value is zero.
func (c CSI) widthHeight() (width, height uint32) {
	width, height = c.Header.Width, c.Header.Height
	if width != 0 && height != 0 {
		return
	}
	for _, t := range c.TLVs {
		if s, ok := t.slices(); ok {
			if width == 0 {
				width = s.Width
			}
			if height == 0 {
				height = s.Height
			}
		}
	}
	return
}
