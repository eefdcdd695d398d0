// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package car

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// AssetType classifies a rendition's top-level kind, derived from its CSI
// layout code.
type AssetType string

// Known asset types.
const (
	AssetTypeColor          AssetType = "Color"
	AssetTypeData           AssetType = "Data"
	AssetTypeImage          AssetType = "Image"
	AssetTypeMultisizeImage AssetType = "MultisizeImage"
	AssetTypeUnknown        AssetType = "Unknown"
)

func assetTypeFor(layout Layout) AssetType {
	switch layout {
	case LayoutData:
		return AssetTypeData
	case LayoutImage:
		return AssetTypeImage
	case LayoutColor:
		return AssetTypeColor
	case LayoutMultisizeImage:
		return AssetTypeMultisizeImage
	default:
		return AssetTypeUnknown
	}
}

// InventoryHeader is the first element of an `assetutil -I` report: the
// catalog-wide metadata plus the active key format, in the shape the
// reference tool emits it.
type InventoryHeader struct {
	AssetStorageVersion string   `json:"AssetStorageVersion,omitempty"`
	AuthoringTool       string   `json:"Authoring Tool,omitempty"`
	CoreUIVersion       uint32   `json:"CoreUIVersion"`
	Platform            string   `json:"Platform,omitempty"`
	PlatformVersion     string   `json:"PlatformVersion,omitempty"`
	SchemaVersion       uint32   `json:"SchemaVersion"`
	StorageVersion      uint32   `json:"StorageVersion"`
	Timestamp           uint32   `json:"Timestamp"`
	KeyFormat           []string `json:"key-format"`
}

// InventoryEntry is one rendition's report row. Most fields are optional:
// which ones are populated depends on AssetType exactly as §4.9 specifies,
// so every field beyond the always-present ones is either a pointer or
// carries `omitempty` to drop it when the asset type doesn't define it.
type InventoryEntry struct {
	AssetType        AssetType     `json:"AssetType"`
	Appearance       string        `json:"Appearance,omitempty"`
	BitsPerComponent *int          `json:"BitsPerComponent,omitempty"`
	ColorComponents  []interface{} `json:"Color components,omitempty"`
	ColorModel       string        `json:"ColorModel,omitempty"`
	Colorspace       string        `json:"Colorspace,omitempty"`
	Compression      string        `json:"Compression,omitempty"`
	DataLength       *uint32       `json:"Data Length,omitempty"`
	Encoding         string        `json:"Encoding,omitempty"`
	Idiom            string        `json:"Idiom,omitempty"`
	Name             string        `json:"Name,omitempty"`
	NameIdentifier   uint16        `json:"NameIdentifier"`
	Opaque           *bool         `json:"Opaque,omitempty"`
	PixelHeight      *uint32       `json:"PixelHeight,omitempty"`
	PixelWidth       *uint32       `json:"PixelWidth,omitempty"`
	RenditionName    string        `json:"RenditionName,omitempty"`
	Scale            float64       `json:"Scale"`
	SHA1Digest       string        `json:"SHA1Digest"`
	SizeOnDisk       uint32        `json:"SizeOnDisk"`
	Sizes            []string      `json:"Sizes,omitempty"`
	State            string        `json:"State,omitempty"`
	TemplateMode     string        `json:"Template Mode,omitempty"`
	UTI              string        `json:"UTI,omitempty"`
	Value            string        `json:"Value,omitempty"`
}

// Inventory is the full decoded report: header plus every rendition row,
// sorted the way §4.9 requires.
type Inventory struct {
	Header  InventoryHeader
	Entries []InventoryEntry
}

// BuildInventory derives the per-rendition report the JSON dumper
// (`assetutil -I`) consumes from a fully parsed Catalog.
func BuildInventory(c *Catalog) Inventory {
	attrNames := make([]string, len(c.KeyFormat.Attributes))
	for i, a := range c.KeyFormat.Attributes {
		attrNames[i] = a.String()
	}

	var platform, platformVersion, authoring string
	if c.ExtendedMetadata != nil {
		platform = c.ExtendedMetadata.DeploymentPlatform
		platformVersion = c.ExtendedMetadata.DeploymentPlatformVersion
		authoring = c.ExtendedMetadata.AuthoringTool
	}

	inv := Inventory{
		Header: InventoryHeader{
			AuthoringTool:   authoring,
			CoreUIVersion:   c.Header.CoreUIVersion,
			Platform:        platform,
			PlatformVersion: platformVersion,
			SchemaVersion:   c.Header.SchemaVersion,
			StorageVersion:  c.Header.StorageVersion,
			Timestamp:       c.Header.StorageTimestamp,
			KeyFormat:       attrNames,
		},
	}

	for _, r := range c.Renditions {
		inv.Entries = append(inv.Entries, buildInventoryEntry(c, r))
	}

	sort.SliceStable(inv.Entries, func(i, j int) bool {
		a, b := inv.Entries[i], inv.Entries[j]
		if a.AssetType != b.AssetType {
			return a.AssetType < b.AssetType
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.RenditionName < b.RenditionName
	})
	return inv
}

func buildInventoryEntry(c *Catalog, r Rendition) InventoryEntry {
	csi := r.CSI
	layout := csi.Header.Metadata.Layout
	e := InventoryEntry{
		AssetType:      assetTypeFor(layout),
		Appearance:     r.Appearance,
		Name:           r.FacetName,
		Scale:          csi.Header.Scale(),
		SHA1Digest:     sha256Upper(r.RawBytes),
		SizeOnDisk:     csi.SizeOnDisk(),
	}

	if id, ok := r.Key.find(c.KeyFormat, AttributeIdentifier); ok {
		e.NameIdentifier = id
	}
	if v, ok := r.Key.find(c.KeyFormat, AttributeIdiom); ok {
		e.Idiom = Idiom(v).String()
	}
	if v, ok := r.Key.find(c.KeyFormat, AttributeState); ok {
		e.State = StateValue(v).String()
	}
	if v, ok := r.Key.find(c.KeyFormat, AttributeValue); ok {
		e.Value = OnOffValue(v).String()
	}

	switch layout {
	case LayoutColor:
		e.Colorspace = colorspaceForColorModel(csi.Header.ColorModel())
		if fc, ok := csi.Body.(FlatColor); ok {
			e.ColorComponents = colorComponentsJSON(fc.Components)
		}
	case LayoutData:
		e.Compression = "uncompressed"
		if rd, ok := csi.Body.(RawData); ok {
			l := rd.RawLength
			e.DataLength = &l
		}
		e.UTI = utiFor(csi.TLVs)
	case LayoutImage:
		bpc := 8
		e.BitsPerComponent = &bpc
		e.ColorModel = csi.Header.ColorModel().String()
		e.Colorspace = colorspaceForColorModel(csi.Header.ColorModel())
		e.Compression = compressionFor(csi.Body)
		e.Encoding = strings.TrimRight(string(csi.Header.PixelFormat), "\x00")
		opaque := csi.Header.Flags.IsOpaque()
		e.Opaque = &opaque
		w, h := csi.widthHeight()
		e.PixelWidth, e.PixelHeight = &w, &h
		e.RenditionName = csi.Header.Metadata.Name
		if templateModeApplies(csi) {
			e.TemplateMode = csi.Header.Flags.TemplateRenderingMode().String()
		}
	case LayoutMultisizeImage:
		if ms, ok := csi.Body.(MultisizeImageSet); ok {
			for _, entry := range ms.Entries {
				e.Sizes = append(e.Sizes, fmt.Sprintf("%dx%d index:%d idiom:%s",
					entry.Width, entry.Height, entry.Index, entry.Idiom.String()))
			}
		}
	}

	return e
}

func colorspaceForColorModel(cm ColorModel) string {
	if cm == ColorModelMonochrome {
		return "gray-gamma-22"
	}
	return "srgb"
}

func compressionFor(body RenditionBody) string {
	switch b := body.(type) {
	case ThemePixels:
		return b.Compression.String()
	case ThemePixelsKCBC:
		return b.Compression.String()
	case RawData:
		return "uncompressed"
	default:
		return ""
	}
}

func templateModeApplies(csi CSI) bool {
	if csi.Header.Flags.IsOpaque() {
		return true
	}
	switch b := csi.Body.(type) {
	case ThemePixels:
		return b.Compression == CompressionPaletteImg
	case ThemePixelsKCBC:
		return b.Compression == CompressionPaletteImg
	}
	return false
}

func utiFor(tlvs []TLV) string {
	for _, t := range tlvs {
		if s, ok := t.uti(); ok {
			return s
		}
	}
	return "UTI-Unknown"
}

// colorComponentsJSON renders color components the way §4.9 requires:
// values exactly 0.0 or 1.0 as bare integers, everything else as decimals.
func colorComponentsJSON(components []float64) []interface{} {
	out := make([]interface{}, len(components))
	for i, v := range components {
		switch v {
		case 0:
			out[i] = 0
		case 1:
			out[i] = 1
		default:
			out[i] = v
		}
	}
	return out
}

func sha256Upper(b []byte) string {
	sum := sha256.Sum256(b)
	return strings.ToUpper(fmt.Sprintf("%x", sum))
}
