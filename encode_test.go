// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package car

import (
	"reflect"
	"testing"
	"time"
)

func TestCarHeaderRoundTrip(t *testing.T) {
	h := CarHeader{
		CoreUIVersion:      498,
		StorageVersion:     15,
		StorageTimestamp:   1539543253,
		RenditionCount:     3,
		MainVersionString:  "1.0",
		VersionString:      "1.0.0",
		AssociatedChecksum: 0xdeadbeef,
		SchemaVersion:      2,
		ColorSpaceID:       0,
		KeySemantics:       1,
	}
	encoded := h.encode()
	r := newByteReader(encoded)
	got, err := parseCarHeader(r, time.Unix(1, 0))
	if err != nil {
		t.Fatalf("parseCarHeader: %v", err)
	}
	if got != h {
		t.Errorf("round-trip mismatch:\n got  %+v\n want %+v", got, h)
	}
}

func TestCarHeaderZeroTimestampRepaired(t *testing.T) {
	h := CarHeader{CoreUIVersion: 1, StorageVersion: 1, SchemaVersion: 1}
	r := newByteReader(h.encode())
	fallback := time.Unix(12345, 0)
	got, err := parseCarHeader(r, fallback)
	if err != nil {
		t.Fatalf("parseCarHeader: %v", err)
	}
	if got.StorageTimestamp != uint32(fallback.Unix()) {
		t.Errorf("StorageTimestamp = %d, want %d", got.StorageTimestamp, fallback.Unix())
	}
}

func TestKeyFormatRoundTrip(t *testing.T) {
	kf := defaultKeyFormat
	r := newByteReader(kf.encode())
	got, err := parseKeyFormat(r)
	if err != nil {
		t.Fatalf("parseKeyFormat: %v", err)
	}
	if !reflect.DeepEqual(got.Attributes, kf.Attributes) {
		t.Errorf("Attributes = %v, want %v", got.Attributes, kf.Attributes)
	}
}

func TestRenditionKeyRoundTrip(t *testing.T) {
	var k RenditionKey
	k[0] = 1
	k[5] = 44959
	k[17] = 0xffff
	r := newByteReader(k.encode())
	got, err := parseRenditionKey(r)
	if err != nil {
		t.Fatalf("parseRenditionKey: %v", err)
	}
	if got != k {
		t.Errorf("round-trip mismatch: got %v, want %v", got, k)
	}
}

func TestKeyTokenRoundTrip(t *testing.T) {
	tok := KeyToken{
		CursorHotspotX: 10,
		CursorHotspotY: 20,
		Attributes: []struct {
			Type  AttributeType
			Value uint16
		}{
			{Type: AttributeIdentifier, Value: 44959},
			{Type: AttributeIdiom, Value: uint16(IdiomPad)},
		},
	}
	r := newByteReader(tok.encode())
	got, err := parseKeyToken(r)
	if err != nil {
		t.Fatalf("parseKeyToken: %v", err)
	}
	if !reflect.DeepEqual(got, tok) {
		t.Errorf("round-trip mismatch:\n got  %+v\n want %+v", got, tok)
	}
}

func TestCSIRoundTripFlatColor(t *testing.T) {
	c := CSI{
		Header: CSIHeader{
			Version:     1,
			Flags:       RenditionFlags(1 << 1),
			ScaleFactor: 100,
			PixelFormat: PixelFormatNone,
			Metadata:    CSIMetadata{ModTime: 42, Layout: LayoutColor, Name: "MyColor"},
		},
		TLVs: []TLV{{Type: TLVUTI, Bytes: []byte{1, 2, 3}}},
		Body: FlatColor{Version: 1, ColorSpace: ColorSpaceSRGB, Components: []float64{1, 0, 0, 0.5}},
	}
	r := newByteReader(c.encode())
	got, err := parseCSI(r)
	if err != nil {
		t.Fatalf("parseCSI: %v", err)
	}
	if got.Header.Metadata.Name != "MyColor" {
		t.Errorf("Name = %q, want MyColor", got.Header.Metadata.Name)
	}
	if got.Header.Flags.IsOpaque() != true {
		t.Error("IsOpaque() = false, want true")
	}
	fc, ok := got.Body.(FlatColor)
	if !ok {
		t.Fatalf("Body type = %T, want FlatColor", got.Body)
	}
	if !reflect.DeepEqual(fc.Components, []float64{1, 0, 0, 0.5}) {
		t.Errorf("Components = %v, want [1 0 0 0.5]", fc.Components)
	}
	if got.SizeOnDisk() != uint32(len(c.encode())) {
		t.Errorf("SizeOnDisk() = %d, want %d", got.SizeOnDisk(), len(c.encode()))
	}
}

func TestCSIRoundTripRawData(t *testing.T) {
	c := CSI{
		Header: CSIHeader{Version: 1, PixelFormat: PixelFormatData, Metadata: CSIMetadata{Layout: LayoutData, Name: "MyText"}},
		Body:   RawData{Version: 1, RawLength: 5, Bytes: []byte("hello")},
	}
	r := newByteReader(c.encode())
	got, err := parseCSI(r)
	if err != nil {
		t.Fatalf("parseCSI: %v", err)
	}
	rd, ok := got.Body.(RawData)
	if !ok {
		t.Fatalf("Body type = %T, want RawData", got.Body)
	}
	if string(rd.Bytes) != "hello" {
		t.Errorf("Bytes = %q, want hello", rd.Bytes)
	}
}

func TestCSIRoundTripMultisizeImageSet(t *testing.T) {
	c := CSI{
		Header: CSIHeader{Version: 1, Metadata: CSIMetadata{Layout: LayoutMultisizeImage}},
		Body: MultisizeImageSet{Version: 1, Entries: []MultisizeEntry{
			{Width: 29, Height: 29, Index: 0, Idiom: IdiomPhone},
			{Width: 58, Height: 58, Index: 1, Idiom: IdiomPad},
		}},
	}
	r := newByteReader(c.encode())
	got, err := parseCSI(r)
	if err != nil {
		t.Fatalf("parseCSI: %v", err)
	}
	ms, ok := got.Body.(MultisizeImageSet)
	if !ok {
		t.Fatalf("Body type = %T, want MultisizeImageSet", got.Body)
	}
	if len(ms.Entries) != 2 || ms.Entries[1].Width != 58 {
		t.Errorf("Entries = %+v, want 2 entries with second Width=58", ms.Entries)
	}
}

func TestEncodeRenditionBodyKCBC(t *testing.T) {
	body := ThemePixelsKCBC{Version: 1, Compression: CompressionPaletteImg, Inner: []byte{1, 2, 3, 4}}
	encoded := encodeRenditionBody(body)
	r := newByteReader(encoded)
	got, err := parseRenditionBody(r)
	if err != nil {
		t.Fatalf("parseRenditionBody: %v", err)
	}
	kcbc, ok := got.(ThemePixelsKCBC)
	if !ok {
		t.Fatalf("body type = %T, want ThemePixelsKCBC", got)
	}
	if !reflect.DeepEqual(kcbc.Inner, body.Inner) {
		t.Errorf("Inner = %v, want %v", kcbc.Inner, body.Inner)
	}
}
