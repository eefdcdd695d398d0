// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package car

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractDataLayoutWritesVerbatimBytes(t *testing.T) {
	r := Rendition{
		CSI: CSI{
			Header: CSIHeader{Metadata: CSIMetadata{Layout: LayoutData, Name: "MyText"}},
			Body:   RawData{Bytes: []byte("12345678901234")},
		},
	}
	dir := t.TempDir()
	path, err := r.Extract(dir)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("path = %q, want under %q", path, dir)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "12345678901234" {
		t.Errorf("contents = %q, want 12345678901234", got)
	}
}

func TestExtractUnsupportedLayout(t *testing.T) {
	r := Rendition{
		CSI: CSI{
			Header: CSIHeader{Metadata: CSIMetadata{Layout: LayoutMultisizeImage}},
			Body:   MultisizeImageSet{},
		},
	}
	if _, err := r.Extract(t.TempDir()); err != ErrUnsupported {
		t.Errorf("Extract() err = %v, want ErrUnsupported", err)
	}
}

func TestExtractImageLayoutNonPaletteUnsupported(t *testing.T) {
	r := Rendition{
		CSI: CSI{
			Header: CSIHeader{Metadata: CSIMetadata{Layout: LayoutImage}},
			Body:   ThemePixels{Compression: CompressionJPEGLZFSE, Bytes: []byte{0xff, 0xd8}},
		},
	}
	if _, err := r.Extract(t.TempDir()); err != ErrUnsupported {
		t.Errorf("Extract() err = %v, want ErrUnsupported", err)
	}
}

func TestExtractAllBestEffort(t *testing.T) {
	cat := buildFixtureCatalog(t)
	defer cat.Close()

	dir := t.TempDir()
	results, err := cat.ExtractAll(dir)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if len(results) != len(cat.Renditions) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(cat.Renditions))
	}

	var gotText bool
	for _, res := range results {
		if res.Rendition.CSI.Header.Metadata.Name == "MyText" {
			gotText = true
			if res.Err != nil {
				t.Errorf("MyText extraction failed: %v", res.Err)
			}
		}
	}
	if !gotText {
		t.Error("MyText rendition not found in results")
	}
}
