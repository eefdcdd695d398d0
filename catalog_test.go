// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package car

import (
	"testing"
	"time"
)

// buildFixtureCatalog assembles an in-memory catalog mirroring the shape of
// spec §8's canonical fixture (CoreUIVersion=498, a color/data/two image
// renditions). No real Assets.car ships in the retrieval pack, so this
// stands in for the table-driven binary fixtures the teacher's tests load
// from test/*.exe: every scenario value that depends only on structure (not
// on the exact bytes of a real Apple-produced file) is reproduced here.
func buildFixtureCatalog(t *testing.T) *Catalog {
	t.Helper()

	b := &CatalogBuilder{
		Header: CarHeader{
			CoreUIVersion:    498,
			StorageVersion:   15,
			StorageTimestamp: 1539543253,
			SchemaVersion:    2,
			RenditionCount:   4,
		},
		ExtendedMetadata: &CarExtendedMetadata{
			DeploymentPlatform:        "ios",
			DeploymentPlatformVersion: "12.0",
			AuthoringTool:             "go-assetcar test fixture",
		},
		KeyFormat: defaultKeyFormat,
	}

	keyWithID := func(id uint16) RenditionKey {
		var k RenditionKey
		k[slotIdentifier] = id
		return k
	}

	// MyColor: flat sRGB color, components [1,0,0,0.5].
	b.Renditions = append(b.Renditions, BuilderRendition{
		Key: keyWithID(44959),
		CSI: CSI{
			Header: CSIHeader{
				Version:     1,
				ScaleFactor: 100,
				PixelFormat: PixelFormatNone,
				Metadata:    CSIMetadata{Layout: LayoutColor, Name: "MyColor"},
			},
			Body: FlatColor{Version: 1, ColorSpace: ColorSpaceSRGB, Components: []float64{1, 0, 0, 0.5}},
		},
	})
	b.Facets = append(b.Facets, BuilderFacet{
		Name: "MyColor",
		Token: KeyToken{Attributes: []struct {
			Type  AttributeType
			Value uint16
		}{{Type: AttributeIdentifier, Value: 44959}}},
	})

	// MyText: 14 bytes of uninterpreted data.
	b.Renditions = append(b.Renditions, BuilderRendition{
		Key: keyWithID(37430),
		CSI: CSI{
			Header: CSIHeader{
				Version:     1,
				ScaleFactor: 100,
				PixelFormat: PixelFormatData,
				Metadata:    CSIMetadata{Layout: LayoutData, Name: "MyText"},
			},
			Body: RawData{Version: 1, RawLength: 14, Bytes: []byte("12345678901234")},
		},
	})
	b.Facets = append(b.Facets, BuilderFacet{
		Name: "MyText",
		Token: KeyToken{Attributes: []struct {
			Type  AttributeType
			Value uint16
		}{{Type: AttributeIdentifier, Value: 37430}}},
	})

	// Timac@3x.png: palette-compressed image, 84x84, not opaque.
	b.Renditions = append(b.Renditions, BuilderRendition{
		Key: keyWithID(32625),
		CSI: CSI{
			Header: CSIHeader{
				Version:     1,
				Flags:       0,
				Width:       84,
				Height:      84,
				ScaleFactor: 300,
				PixelFormat: PixelFormatARGB,
				Metadata:    CSIMetadata{Layout: LayoutImage, Name: "Timac@3x.png"},
			},
			Body: ThemePixels{Version: 1, Compression: CompressionPaletteImg, Bytes: []byte{0x01, 0x02, 0x03, 0x04}},
		},
	})
	b.Facets = append(b.Facets, BuilderFacet{
		Name: "Timac",
		Token: KeyToken{Attributes: []struct {
			Type  AttributeType
			Value uint16
		}{{Type: AttributeIdentifier, Value: 32625}}},
	})

	// MyJPG: opaque JPEG-encoded image, 200x200.
	b.Renditions = append(b.Renditions, BuilderRendition{
		Key: keyWithID(50001),
		CSI: CSI{
			Header: CSIHeader{
				Version:     1,
				Flags:       1 << 1, // opaque
				Width:       200,
				Height:      200,
				ScaleFactor: 100,
				PixelFormat: PixelFormatJPEG,
				Metadata:    CSIMetadata{Layout: LayoutImage, Name: "MyJPG"},
			},
			Body: ThemePixels{Version: 1, Compression: CompressionJPEGLZFSE, Bytes: []byte{0xff, 0xd8, 0xff}},
		},
	})
	b.Facets = append(b.Facets, BuilderFacet{
		Name: "MyJPG",
		Token: KeyToken{Attributes: []struct {
			Type  AttributeType
			Value uint16
		}{{Type: AttributeIdentifier, Value: 50001}}},
	})

	data := b.Build()
	cat, err := OpenBytes(data, time.Unix(0, 0), &StoreOptions{})
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	return cat
}

func TestOpenBytesHeader(t *testing.T) {
	cat := buildFixtureCatalog(t)
	defer cat.Close()

	if cat.Header.CoreUIVersion != 498 {
		t.Errorf("CoreUIVersion = %d, want 498", cat.Header.CoreUIVersion)
	}
	if cat.Header.SchemaVersion != 2 {
		t.Errorf("SchemaVersion = %d, want 2", cat.Header.SchemaVersion)
	}
	if cat.Header.StorageVersion != 15 {
		t.Errorf("StorageVersion = %d, want 15", cat.Header.StorageVersion)
	}
	if cat.Header.StorageTimestamp != 1539543253 {
		t.Errorf("StorageTimestamp = %d, want 1539543253", cat.Header.StorageTimestamp)
	}
	if cat.ExtendedMetadata == nil {
		t.Fatal("ExtendedMetadata missing")
	}
	if cat.ExtendedMetadata.DeploymentPlatform != "ios" {
		t.Errorf("Platform = %q, want ios", cat.ExtendedMetadata.DeploymentPlatform)
	}
	if cat.ExtendedMetadata.DeploymentPlatformVersion != "12.0" {
		t.Errorf("PlatformVersion = %q, want 12.0", cat.ExtendedMetadata.DeploymentPlatformVersion)
	}
	if len(cat.Renditions) != 4 {
		t.Fatalf("len(Renditions) = %d, want 4", len(cat.Renditions))
	}
}

// TestSizeOnDiskInvariant covers Testable Property 1.
func TestSizeOnDiskInvariant(t *testing.T) {
	cat := buildFixtureCatalog(t)
	defer cat.Close()

	for _, r := range cat.Renditions {
		want := uint32(csiFixedSize) + r.CSI.Header.TLVLength + r.CSI.Header.RenditionLength
		if got := r.CSI.SizeOnDisk(); got != want {
			t.Errorf("%s: SizeOnDisk() = %d, want %d", r.FacetName, got, want)
		}
		if uint32(len(r.RawBytes)) != r.CSI.SizeOnDisk() {
			t.Errorf("%s: len(RawBytes) = %d, want %d", r.FacetName, len(r.RawBytes), r.CSI.SizeOnDisk())
		}
	}
}

// TestScaleInvariant covers Testable Property 2.
func TestScaleInvariant(t *testing.T) {
	cat := buildFixtureCatalog(t)
	defer cat.Close()

	for _, r := range cat.Renditions {
		want := float64(r.CSI.Header.ScaleFactor) / 100
		if r.CSI.Header.ScaleFactor == 0 {
			want = 1
		}
		if got := r.CSI.Header.Scale(); got != want {
			t.Errorf("%s: Scale() = %v, want %v", r.FacetName, got, want)
		}
	}
}

// TestNameIdentifierInvariant covers Testable Property 3.
func TestNameIdentifierInvariant(t *testing.T) {
	cat := buildFixtureCatalog(t)
	defer cat.Close()

	want := map[string]uint16{"MyColor": 44959, "MyText": 37430, "Timac": 32625, "MyJPG": 50001}
	for _, r := range cat.Renditions {
		id, ok := r.Key.find(cat.KeyFormat, AttributeIdentifier)
		if !ok {
			t.Fatalf("%s: Identifier slot missing", r.FacetName)
		}
		if w, ok := want[r.FacetName]; ok && id != w {
			t.Errorf("%s: NameIdentifier = %d, want %d", r.FacetName, id, w)
		}
	}
}

// TestFacetUniqueness covers Testable Property 4: a resolved facet name
// occurs exactly once in FACETKEYS.
func TestFacetUniqueness(t *testing.T) {
	cat := buildFixtureCatalog(t)
	defer cat.Close()

	tr, err := cat.store.namedTree(varFacetKeys)
	if err != nil {
		t.Fatalf("namedTree(FACETKEYS): %v", err)
	}
	entries, err := cat.store.treeItems(tr)
	if err != nil {
		t.Fatalf("treeItems: %v", err)
	}
	counts := map[string]int{}
	for _, e := range entries {
		name, err := cat.readFacetName(e.KeyBlockID())
		if err != nil {
			t.Fatalf("readFacetName: %v", err)
		}
		counts[name]++
	}
	for _, r := range cat.Renditions {
		if r.FacetName == "" {
			continue
		}
		if counts[r.FacetName] != 1 {
			t.Errorf("facet %q occurs %d times in FACETKEYS, want 1", r.FacetName, counts[r.FacetName])
		}
	}
}

// TestGetNamedBlockIdempotent covers Testable Property 6.
func TestGetNamedBlockIdempotent(t *testing.T) {
	cat := buildFixtureCatalog(t)
	defer cat.Close()

	a, err := cat.Store().GetNamedBlock("CARHEADER")
	if err != nil {
		t.Fatalf("GetNamedBlock: %v", err)
	}
	b, err := cat.Store().GetNamedBlock("CARHEADER")
	if err != nil {
		t.Fatalf("GetNamedBlock: %v", err)
	}
	if a != b {
		t.Errorf("GetNamedBlock not idempotent: %+v != %+v", a, b)
	}
}

func TestAppearanceRoundTrip(t *testing.T) {
	b := &CatalogBuilder{
		Header:      CarHeader{CoreUIVersion: 1, StorageVersion: 1, SchemaVersion: 1},
		KeyFormat:   defaultKeyFormat,
		Appearances: []BuilderAppearance{{Name: "dark", ID: 7}},
	}
	data := b.Build()
	cat, err := OpenBytes(data, time.Unix(0, 0), &StoreOptions{})
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	defer cat.Close()

	name, ok := cat.appearances.nameFor(7)
	if !ok || name != "dark" {
		t.Errorf("appearances.nameFor(7) = (%q, %v), want (dark, true)", name, ok)
	}
}

func TestBitmapKeyRoundTrip(t *testing.T) {
	var raw [bitmapKeySize]byte
	raw[0] = 0xAB
	raw[21] = 0xCD

	b := &CatalogBuilder{
		Header:     CarHeader{CoreUIVersion: 1, StorageVersion: 1, SchemaVersion: 1},
		KeyFormat:  defaultKeyFormat,
		BitmapKeys: []BuilderBitmapKey{{KeyBytes: raw[:], NameID: 9001}},
	}
	data := b.Build()
	cat, err := OpenBytes(data, time.Unix(0, 0), &StoreOptions{})
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	defer cat.Close()

	names, err := cat.loadBitmapNames()
	if err != nil {
		t.Fatalf("loadBitmapNames: %v", err)
	}
	got, ok := names[9001]
	if !ok {
		t.Fatalf("bitmap name for id 9001 not found")
	}
	want := "ab0000000000000000000000000000000000000000cd"
	if got != want {
		t.Errorf("bitmap name = %q, want %q", got, want)
	}
}
