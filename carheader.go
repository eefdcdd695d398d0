// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package car

import "time"

// CarHeader is the fixed 436-byte CARHEADER record (magic included).
type CarHeader struct {
	CoreUIVersion     uint32 `json:"CoreUIVersion"`
	StorageVersion    uint32 `json:"StorageVersion"`
	StorageTimestamp  uint32 `json:"Timestamp"`
	RenditionCount    uint32 `json:"AssetCount"`
	MainVersionString string `json:"MainVersionString"`
	VersionString     string `json:"VersionString"`
	UUID              [16]byte
	AssociatedChecksum uint32
	SchemaVersion     uint32 `json:"SchemaVersion"`
	ColorSpaceID      uint32
	KeySemantics      uint32 `json:"KeySemantics"`
}

const carHeaderMagic = "RATC" // little-endian bytes of "CTAR"

// parseCarHeader parses the fixed-layout CARHEADER record. A zero
// StorageTimestamp is silently repaired to the caller-supplied fallback
// (the file's mtime) rather than surfaced as an error.
func parseCarHeader(r *byteReader, mtimeFallback time.Time) (CarHeader, error) {
	var h CarHeader
	if err := r.magic4(carHeaderMagic); err != nil {
		return h, err
	}
	var err error
	if h.CoreUIVersion, err = r.u32le(); err != nil {
		return h, err
	}
	if h.StorageVersion, err = r.u32le(); err != nil {
		return h, err
	}
	if h.StorageTimestamp, err = r.u32le(); err != nil {
		return h, err
	}
	if h.RenditionCount, err = r.u32le(); err != nil {
		return h, err
	}
	if h.MainVersionString, err = r.fixedString(128); err != nil {
		return h, err
	}
	if h.VersionString, err = r.fixedString(256); err != nil {
		return h, err
	}
	uuid, err := r.bytes(16)
	if err != nil {
		return h, err
	}
	copy(h.UUID[:], uuid)
	if h.AssociatedChecksum, err = r.u32le(); err != nil {
		return h, err
	}
	if h.SchemaVersion, err = r.u32le(); err != nil {
		return h, err
	}
	if h.ColorSpaceID, err = r.u32le(); err != nil {
		return h, err
	}
	if h.KeySemantics, err = r.u32le(); err != nil {
		return h, err
	}

	if h.StorageTimestamp == 0 {
		h.StorageTimestamp = uint32(mtimeFallback.Unix())
	}
	return h, nil
}

// CarExtendedMetadata is the EXTENDED_METADATA record (1028 bytes including
// its magic).
type CarExtendedMetadata struct {
	ThinningArguments        string `json:"ThinningArguments"`
	DeploymentPlatformVersion string `json:"DeploymentPlatformVersion"`
	DeploymentPlatform       string `json:"DeploymentPlatform"`
	AuthoringTool            string `json:"AuthoringTool"`
}

func parseCarExtendedMetadata(r *byteReader) (CarExtendedMetadata, error) {
	var m CarExtendedMetadata
	if err := r.magic4("META"); err != nil {
		return m, err
	}
	var err error
	if m.ThinningArguments, err = r.fixedString(256); err != nil {
		return m, err
	}
	if m.DeploymentPlatformVersion, err = r.fixedString(256); err != nil {
		return m, err
	}
	if m.DeploymentPlatform, err = r.fixedString(256); err != nil {
		return m, err
	}
	if m.AuthoringTool, err = r.fixedString(256); err != nil {
		return m, err
	}
	return m, nil
}

// KeyFormat defines the meaning of each slot of every rendition key in the
// file: a sequence of up to 18 attribute-type codes, read in file order.
type KeyFormat struct {
	Version    uint32
	Attributes []AttributeType
}

const keyFormatMagic = "tmfk"

func parseKeyFormat(r *byteReader) (KeyFormat, error) {
	var kf KeyFormat
	if err := r.magic4(keyFormatMagic); err != nil {
		return kf, err
	}
	var err error
	if kf.Version, err = r.u32le(); err != nil {
		return kf, err
	}
	n, err := r.u32le()
	if err != nil {
		return kf, err
	}
	kf.Attributes = make([]AttributeType, n)
	for i := uint32(0); i < n; i++ {
		v, err := r.u32le()
		if err != nil {
			return kf, err
		}
		kf.Attributes[i] = AttributeType(v)
	}
	return kf, nil
}
