// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package car

import (
	"os"
	"path/filepath"
)

// Extract writes r to destDir under a name derived from its CSI metadata,
// when its layout/body combination has a defined handler. Only two paths
// are defined: Data layout with a RAWD body (written verbatim), and Image
// layout with an MLEC/PaletteImg body (decoded to PNG). Anything else
// returns ErrUnsupported; the caller decides whether that's fatal (it
// isn't, for the CLI's best-effort extraction loop).
func (r Rendition) Extract(destDir string) (string, error) {
	layout := r.CSI.Header.Metadata.Layout
	name := r.CSI.Header.Metadata.Name
	if name == "" {
		name = r.FacetName
	}

	switch {
	case layout == LayoutData:
		raw, ok := r.CSI.Body.(RawData)
		if !ok {
			return "", ErrUnsupported
		}
		path := filepath.Join(destDir, name)
		if err := os.WriteFile(path, raw.Bytes, 0o644); err != nil {
			return "", err
		}
		return path, nil

	case layout == LayoutImage:
		compression, raw, ok := themeBytes(r.CSI.Body)
		if !ok || compression != CompressionPaletteImg {
			return "", ErrUnsupported
		}
		width, height := r.CSI.widthHeight()
		img, err := decodePaletteImage(raw, width, height)
		if err != nil {
			return "", err
		}
		png, err := encodeSRGBPNG(img)
		if err != nil {
			return "", err
		}
		path := filepath.Join(destDir, name)
		if err := os.WriteFile(path, png, 0o644); err != nil {
			return "", err
		}
		return path, nil

	default:
		return "", ErrUnsupported
	}
}

// themeBytes unwraps either MLEC shape to its compression type and raw
// payload bytes. The nested MLEC->KCBC shape carries its bytes under
// Inner rather than Bytes.
func themeBytes(body RenditionBody) (CompressionType, []byte, bool) {
	switch b := body.(type) {
	case ThemePixels:
		return b.Compression, b.Bytes, true
	case ThemePixelsKCBC:
		return b.Compression, b.Inner, true
	default:
		return 0, nil, false
	}
}

// ExtractResult records the outcome of extracting one rendition.
type ExtractResult struct {
	Rendition Rendition
	Path      string
	Err       error
}

// ExtractAll runs Extract over every rendition in the catalog, sequentially
// (§5: single-threaded cooperative execution; extraction within one file
// is never fanned out across goroutines). Best-effort: an Unsupported
// rendition is recorded, not fatal, and the loop continues.
func (c *Catalog) ExtractAll(destDir string) ([]ExtractResult, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, err
	}
	results := make([]ExtractResult, 0, len(c.Renditions))
	for _, r := range c.Renditions {
		path, err := r.Extract(destDir)
		results = append(results, ExtractResult{Rendition: r, Path: path, Err: err})
		if err != nil {
			c.logger.Warnf("skip rendition %q: %v", r.FacetName, err)
		}
	}
	return results, nil
}
