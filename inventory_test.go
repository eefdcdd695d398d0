// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package car

import "testing"

func TestBuildInventoryHeader(t *testing.T) {
	cat := buildFixtureCatalog(t)
	defer cat.Close()

	inv := BuildInventory(cat)
	if inv.Header.CoreUIVersion != 498 {
		t.Errorf("CoreUIVersion = %d, want 498", inv.Header.CoreUIVersion)
	}
	if inv.Header.Platform != "ios" {
		t.Errorf("Platform = %q, want ios", inv.Header.Platform)
	}
	if len(inv.Header.KeyFormat) != len(cat.KeyFormat.Attributes) {
		t.Errorf("len(KeyFormat) = %d, want %d", len(inv.Header.KeyFormat), len(cat.KeyFormat.Attributes))
	}
	if len(inv.Entries) != 4 {
		t.Fatalf("len(Entries) = %d, want 4", len(inv.Entries))
	}
}

// TestBuildInventorySortOrder covers the §4.9 ordering rule: AssetType,
// then Name, then RenditionName.
func TestBuildInventorySortOrder(t *testing.T) {
	cat := buildFixtureCatalog(t)
	defer cat.Close()

	inv := BuildInventory(cat)
	for i := 1; i < len(inv.Entries); i++ {
		a, b := inv.Entries[i-1], inv.Entries[i]
		if a.AssetType > b.AssetType {
			t.Fatalf("entries not sorted by AssetType at %d: %q > %q", i, a.AssetType, b.AssetType)
		}
		if a.AssetType == b.AssetType && a.Name > b.Name {
			t.Fatalf("entries not sorted by Name at %d: %q > %q", i, a.Name, b.Name)
		}
	}
}

func TestBuildInventoryColorEntry(t *testing.T) {
	cat := buildFixtureCatalog(t)
	defer cat.Close()

	inv := BuildInventory(cat)
	var found *InventoryEntry
	for i := range inv.Entries {
		if inv.Entries[i].AssetType == AssetTypeColor {
			found = &inv.Entries[i]
		}
	}
	if found == nil {
		t.Fatal("no Color entry found")
	}
	if found.Name != "MyColor" {
		t.Errorf("Name = %q, want MyColor", found.Name)
	}
	if found.Colorspace != "srgb" {
		t.Errorf("Colorspace = %q, want srgb", found.Colorspace)
	}
	if len(found.ColorComponents) != 4 {
		t.Fatalf("len(ColorComponents) = %d, want 4", len(found.ColorComponents))
	}
	if found.ColorComponents[0] != 1 {
		t.Errorf("ColorComponents[0] = %v, want 1 (bare int)", found.ColorComponents[0])
	}
	if found.ColorComponents[3] != 0.5 {
		t.Errorf("ColorComponents[3] = %v, want 0.5", found.ColorComponents[3])
	}
}

func TestBuildInventoryImageEntry(t *testing.T) {
	cat := buildFixtureCatalog(t)
	defer cat.Close()

	inv := BuildInventory(cat)
	var jpg *InventoryEntry
	for i := range inv.Entries {
		if inv.Entries[i].RenditionName == "MyJPG" {
			jpg = &inv.Entries[i]
		}
	}
	if jpg == nil {
		t.Fatal("no MyJPG entry found")
	}
	if jpg.AssetType != AssetTypeImage {
		t.Errorf("AssetType = %q, want Image", jpg.AssetType)
	}
	if jpg.Opaque == nil || !*jpg.Opaque {
		t.Error("Opaque = false/nil, want true")
	}
	if jpg.PixelWidth == nil || *jpg.PixelWidth != 200 {
		t.Errorf("PixelWidth = %v, want 200", jpg.PixelWidth)
	}
	if jpg.Compression != CompressionJPEGLZFSE.String() {
		t.Errorf("Compression = %q, want %q", jpg.Compression, CompressionJPEGLZFSE.String())
	}
}

// TestBuildInventoryDigestDeterministic covers the digest half of Testable
// Property 5: the same raw bytes always hash to the same digest, and the
// digest is a 64-character uppercase hex string (SHA-256, reported under
// the legacy SHA1Digest field name).
func TestBuildInventoryDigestDeterministic(t *testing.T) {
	cat := buildFixtureCatalog(t)
	defer cat.Close()

	inv1 := BuildInventory(cat)
	inv2 := BuildInventory(cat)
	for i := range inv1.Entries {
		d1, d2 := inv1.Entries[i].SHA1Digest, inv2.Entries[i].SHA1Digest
		if d1 != d2 {
			t.Errorf("digest not deterministic: %q != %q", d1, d2)
		}
		if len(d1) != 64 {
			t.Errorf("digest length = %d, want 64", len(d1))
		}
	}
}
