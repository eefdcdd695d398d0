// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package car

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-assetcar/car/log"
)

// defaultKeyFormat is the attribute-slot layout this compiler writes. A
// real Assets.car's KeyFormat is whatever the producing Xcode/actool
// version chose; this one only needs to be internally consistent with the
// RenditionKeys this package itself writes.
var defaultKeyFormat = KeyFormat{
	Version: 0,
	Attributes: []AttributeType{
		AttributeIdiom,
		AttributeScale,
		AttributeState,
		AttributeValue,
		AttributeAppearance,
		AttributeIdentifier,
	},
}

const (
	slotIdiom      = 0
	slotScale      = 1
	slotState      = 2
	slotValue      = 3
	slotAppearance = 4
	slotIdentifier = 5
)

// contentsColorSet is the minimal subset of a .colorset/Contents.json this
// compiler reads.
type contentsColorSet struct {
	Colors []struct {
		Idiom string `json:"idiom"`
		Color struct {
			ColorSpace string `json:"color-space"`
			Components struct {
				Red   string `json:"red"`
				Green string `json:"green"`
				Blue  string `json:"blue"`
				Alpha string `json:"alpha"`
			} `json:"components"`
		} `json:"color"`
	} `json:"colors"`
}

// contentsImageSet is the minimal subset of a .imageset/.appiconset
// Contents.json this compiler reads.
type contentsImageSet struct {
	Images []struct {
		Filename string `json:"filename"`
		Idiom    string `json:"idiom"`
		Scale    string `json:"scale"`
	} `json:"images"`
}

// scaleSuffix matches the @Nx scale suffix conventionally present in asset
// catalog source filenames (e.g. "Foo@2x~ipad.png").
var scaleSuffix = regexp.MustCompile(`@(\d+)x`)

// idiomSuffix matches the ~idiom suffix (e.g. "~ipad").
var idiomSuffix = regexp.MustCompile(`~(\w+)`)

// CompileOptions configures CompileCatalog.
type CompileOptions struct {
	Logger log.Logger
}

// CompileCatalog walks srcDir (an .xcassets-shaped source tree) looking
// for Contents.json files, and writes the resulting catalog to outPath.
// Per spec.md §6 this currently produces a minimal catalog: .colorset
// directories round-trip fully through an RLOC rendition; .imageset and
// .appiconset directories are cataloged (a FACETKEYS entry plus an
// empty-body RAWD placeholder per image) without real pixel transcoding —
// see SPEC_FULL.md §6.10 and DESIGN.md for the scope rationale.
func CompileCatalog(srcDir, outPath string, opts *CompileOptions) error {
	helper := log.DefaultHelper()
	if opts != nil && opts.Logger != nil {
		helper = log.NewHelper(opts.Logger)
	}

	b := &CatalogBuilder{
		Header: CarHeader{
			CoreUIVersion:    498,
			StorageVersion:   15,
			StorageTimestamp: uint32(time.Now().Unix()),
			SchemaVersion:    2,
		},
		KeyFormat: defaultKeyFormat,
	}

	var nextID uint32 = 1
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != "Contents.json" {
			return nil
		}
		assetDir := filepath.Dir(path)
		name := strings.TrimSuffix(filepath.Base(assetDir), filepath.Ext(assetDir))

		switch {
		case strings.HasSuffix(assetDir, ".colorset"):
			if err := compileColorSet(b, path, name, &nextID); err != nil {
				helper.Warnf("skip colorset %s: %v", assetDir, err)
			}
		case strings.HasSuffix(assetDir, ".imageset"), strings.HasSuffix(assetDir, ".appiconset"):
			if err := compileImageSet(b, path, assetDir, name, &nextID); err != nil {
				helper.Warnf("skip imageset %s: %v", assetDir, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	data := b.Build()
	return os.WriteFile(outPath, data, 0o644)
}

func compileColorSet(b *CatalogBuilder, contentsPath, name string, nextID *uint32) error {
	raw, err := os.ReadFile(contentsPath)
	if err != nil {
		return err
	}
	var c contentsColorSet
	if err := json.Unmarshal(raw, &c); err != nil {
		return err
	}
	if len(c.Colors) == 0 {
		return nil
	}
	entry := c.Colors[0]
	components := []float64{
		parseComponent(entry.Color.Components.Red),
		parseComponent(entry.Color.Components.Green),
		parseComponent(entry.Color.Components.Blue),
		parseComponent(entry.Color.Components.Alpha),
	}

	id := *nextID
	*nextID++

	var key RenditionKey
	key[slotIdentifier] = uint16(id)

	csi := CSI{
		Header: CSIHeader{
			Version:     1,
			ScaleFactor: 100,
			PixelFormat: PixelFormatNone,
			Metadata:    CSIMetadata{Layout: LayoutColor, Name: name},
		},
		Body: FlatColor{Version: 1, ColorSpace: ColorSpaceSRGB, Components: components},
	}

	b.Renditions = append(b.Renditions, BuilderRendition{Key: key, CSI: csi})
	b.Facets = append(b.Facets, BuilderFacet{
		Name: name,
		Token: KeyToken{
			Attributes: []struct {
				Type  AttributeType
				Value uint16
			}{{Type: AttributeIdentifier, Value: uint16(id)}},
		},
	})
	return nil
}

func parseComponent(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func compileImageSet(b *CatalogBuilder, contentsPath, assetDir, name string, nextID *uint32) error {
	raw, err := os.ReadFile(contentsPath)
	if err != nil {
		return err
	}
	var c contentsImageSet
	if err := json.Unmarshal(raw, &c); err != nil {
		return err
	}

	id := *nextID
	*nextID++

	for _, img := range c.Images {
		if img.Filename == "" {
			continue
		}
		scale := uint16(1)
		if m := scaleSuffix.FindStringSubmatch(img.Filename); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil {
				scale = uint16(v)
			}
		}
		idiom := IdiomUniversal
		if m := idiomSuffix.FindStringSubmatch(img.Filename); m != nil {
			idiom = idiomFromSuffix(m[1])
		} else if img.Idiom != "" {
			idiom = idiomFromSuffix(img.Idiom)
		}

		var key RenditionKey
		key[slotIdentifier] = uint16(id)
		key[slotIdiom] = uint16(idiom)
		key[slotScale] = scale

		csi := CSI{
			Header: CSIHeader{
				Version:     1,
				ScaleFactor: uint32(scale) * 100,
				PixelFormat: PixelFormatData,
				Metadata:    CSIMetadata{Layout: LayoutData, Name: img.Filename},
			},
			Body: RawData{Version: 1},
		}
		b.Renditions = append(b.Renditions, BuilderRendition{Key: key, CSI: csi})
	}

	b.Facets = append(b.Facets, BuilderFacet{
		Name: name,
		Token: KeyToken{
			Attributes: []struct {
				Type  AttributeType
				Value uint16
			}{{Type: AttributeIdentifier, Value: uint16(id)}},
		},
	})
	return nil
}

func idiomFromSuffix(s string) Idiom {
	switch strings.ToLower(s) {
	case "iphone", "phone":
		return IdiomPhone
	case "ipad", "pad":
		return IdiomPad
	case "tv":
		return IdiomTV
	case "watch":
		return IdiomWatch
	case "car":
		return IdiomCar
	case "marketing", "ios-marketing":
		return IdiomMarketing
	default:
		return IdiomUniversal
	}
}
