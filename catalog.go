// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package car

import (
	"fmt"
	"os"
	"time"

	"github.com/go-assetcar/car/log"
)

// bitmapKeySize is the fixed width of a raw BITMAPKEYS key: eleven
// little-endian u16 values (original_source/src/coreui/bitmap.rs).
const bitmapKeySize = 22

// Named top-level blocks inside the BOM var table.
const (
	varCarHeader         = "CARHEADER"
	varExtendedMetadata  = "EXTENDED_METADATA"
	varKeyFormat         = "KEYFORMAT"
	varRenditions        = "RENDITIONS"
	varFacetKeys         = "FACETKEYS"
	varBitmapKeys        = "BITMAPKEYS"
	varAppearanceKeys    = "APPEARANCEKEYS"
	varPartInfo          = "PART_INFO"
)

// Rendition is one fully resolved entry out of the RENDITIONS tree: its key,
// the facet/appearance names it resolves to, and its decoded CSI record.
type Rendition struct {
	Key        RenditionKey
	FacetName  string
	Appearance string
	BitmapName string
	CSI        CSI

	// RawBytes is exactly csi.SizeOnDisk() bytes starting at the CSI
	// record's address: the span the SHA-256 digest (§4.6) is computed
	// over.
	RawBytes []byte
}

// Catalog is a fully parsed asset catalog: the block store plus every
// top-level record this package understands. Catalog never mutates the
// underlying store; every field is populated once at Open time, mirroring
// the teacher's eager-parse File.
type Catalog struct {
	store *BlockStore

	Header           CarHeader
	ExtendedMetadata *CarExtendedMetadata
	KeyFormat        KeyFormat
	Renditions       []Rendition

	facets      facetIndex
	appearances appearanceIndex
	logger      *log.Helper
}

// Open memory-maps path and parses every top-level record it contains.
func Open(path string, opts *StoreOptions) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	store, err := openBlockStore(path, opts)
	if err != nil {
		return nil, err
	}
	c, err := parseCatalog(store, info.ModTime(), opts)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

// OpenBytes parses a catalog already resident in memory. mtimeFallback
// stands in for the file's mtime, used only to repair a zero storage
// timestamp (spec: CARHEADER.Timestamp==0 is repaired from the file mtime).
func OpenBytes(data []byte, mtimeFallback time.Time, opts *StoreOptions) (*Catalog, error) {
	store, err := openBlockStoreBytes(data, opts)
	if err != nil {
		return nil, err
	}
	return parseCatalog(store, mtimeFallback, opts)
}

func parseCatalog(store *BlockStore, mtimeFallback time.Time, opts *StoreOptions) (*Catalog, error) {
	c := &Catalog{store: store, logger: helperFor(opts)}

	hdrRng, err := store.GetNamedBlock(varCarHeader)
	if err != nil {
		return nil, err
	}
	hdrReader, err := store.readerFor(hdrRng)
	if err != nil {
		return nil, err
	}
	c.Header, err = parseCarHeader(hdrReader, mtimeFallback)
	if err != nil {
		return nil, err
	}

	if rng, err := store.GetNamedBlock(varExtendedMetadata); err == nil {
		r, err := store.readerFor(rng)
		if err != nil {
			return nil, err
		}
		m, err := parseCarExtendedMetadata(r)
		if err != nil {
			return nil, err
		}
		c.ExtendedMetadata = &m
	}

	kfRng, err := store.GetNamedBlock(varKeyFormat)
	if err != nil {
		return nil, err
	}
	kfReader, err := store.readerFor(kfRng)
	if err != nil {
		return nil, err
	}
	c.KeyFormat, err = parseKeyFormat(kfReader)
	if err != nil {
		return nil, err
	}

	c.facets, err = c.loadFacets()
	if err != nil {
		return nil, err
	}

	c.appearances, err = c.loadAppearances()
	if err != nil {
		return nil, err
	}

	bitmapNames, err := c.loadBitmapNames()
	if err != nil {
		return nil, err
	}

	c.Renditions, err = c.loadRenditions(bitmapNames)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// loadFacets scans FACETKEYS: key is a cString name, value is a KeyToken.
func (c *Catalog) loadFacets() (facetIndex, error) {
	t, err := c.store.namedTree(varFacetKeys)
	if err != nil {
		if isNotFound(err) {
			return facetIndex{byID: map[uint16]string{}, byName: map[string]uint16{}}, nil
		}
		return facetIndex{}, err
	}
	entries, err := c.store.treeItems(t)
	if err != nil {
		return facetIndex{}, err
	}

	raw := make([]struct {
		Name  string
		Token KeyToken
	}, 0, len(entries))
	for _, e := range entries {
		name, err := c.readFacetName(e.KeyBlockID())
		if err != nil {
			return facetIndex{}, err
		}
		tokenReader, err := c.store.readerForID(e.ValueBlockID())
		if err != nil {
			return facetIndex{}, err
		}
		token, err := parseKeyToken(tokenReader)
		if err != nil {
			return facetIndex{}, err
		}
		raw = append(raw, struct {
			Name  string
			Token KeyToken
		}{Name: name, Token: token})
	}
	return buildFacetIndex(raw), nil
}

func (c *Catalog) readFacetName(blockID uint32) (string, error) {
	r, err := c.store.readerForID(blockID)
	if err != nil {
		return "", err
	}
	return r.cString()
}

// loadAppearances scans APPEARANCEKEYS. Both slots are block pointers, with
// the same key/value roles as FACETKEYS and RENDITIONS, but the payloads
// differ: the value block (Index0) holds a raw little-endian u32 appearance
// id, and the key block (Index1) holds the name's raw bytes with no NUL
// terminator to strip (a trailing NUL is stripped anyway, harmlessly,
// should one be present).
func (c *Catalog) loadAppearances() (appearanceIndex, error) {
	idx := appearanceIndex{}
	t, err := c.store.namedTree(varAppearanceKeys)
	if err != nil {
		if isNotFound(err) {
			return idx, nil
		}
		return nil, err
	}
	entries, err := c.store.treeItems(t)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		idReader, err := c.store.readerForID(e.ValueBlockID())
		if err != nil {
			return nil, err
		}
		id, err := idReader.u32le()
		if err != nil {
			return nil, err
		}
		nameRng, err := c.store.blockRange(e.KeyBlockID())
		if err != nil {
			return nil, err
		}
		nameBytes, err := c.store.rawBytesAt(nameRng.Address, nameRng.Length)
		if err != nil {
			return nil, err
		}
		idx[id] = stripNul(nameBytes)
	}
	return idx, nil
}

// loadBitmapNames scans BITMAPKEYS. Unlike every other named tree, a
// BITMAPKEYS entry's index1 slot is not a block pointer at all: it is the
// raw 32-bit name identifier a rendition key's Identifier attribute
// references directly. Its index0 slot does point at a block, but that
// block is not a cString: it is a fixed 22-byte raw bitmap key (eleven
// little-endian u16 values), so it is rendered here as a hex string rather
// than decoded as text.
func (c *Catalog) loadBitmapNames() (map[uint32]string, error) {
	names := map[uint32]string{}
	t, err := c.store.namedTree(varBitmapKeys)
	if err != nil {
		if isNotFound(err) {
			return names, nil
		}
		return nil, err
	}
	entries, err := c.store.treeItems(t)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		r, err := c.store.readerForID(e.Index0)
		if err != nil {
			return nil, err
		}
		raw, err := r.bytes(bitmapKeySize)
		if err != nil {
			return nil, err
		}
		names[e.Index1] = fmt.Sprintf("%x", raw)
	}
	return names, nil
}

// loadRenditions scans RENDITIONS: key is a RenditionKey, value is a CSI.
func (c *Catalog) loadRenditions(bitmapNames map[uint32]string) ([]Rendition, error) {
	t, err := c.store.namedTree(varRenditions)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	entries, err := c.store.treeItems(t)
	if err != nil {
		return nil, err
	}

	out := make([]Rendition, 0, len(entries))
	for _, e := range entries {
		keyReader, err := c.store.readerForID(e.KeyBlockID())
		if err != nil {
			return nil, err
		}
		key, err := parseRenditionKey(keyReader)
		if err != nil {
			return nil, err
		}
		csiRng, err := c.store.blockRange(e.ValueBlockID())
		if err != nil {
			return nil, err
		}
		csiReader, err := c.store.readerFor(csiRng)
		if err != nil {
			return nil, err
		}
		csi, err := parseCSI(csiReader)
		if err != nil {
			return nil, err
		}
		raw, err := c.store.rawBytesAt(csiRng.Address, csi.SizeOnDisk())
		if err != nil {
			return nil, err
		}

		rend := Rendition{Key: key, CSI: csi, RawBytes: raw}
		if id, ok := key.find(c.KeyFormat, AttributeIdentifier); ok {
			rend.FacetName = c.facets.nameFor(id)
			rend.BitmapName = bitmapNames[uint32(id)]
		}
		if id, ok := key.find(c.KeyFormat, AttributeAppearance); ok {
			if name, ok := c.appearances.nameFor(uint32(id)); ok {
				rend.Appearance = name
			}
		}
		out = append(out, rend)
	}
	return out, nil
}

// Close releases the underlying block store.
func (c *Catalog) Close() error { return c.store.Close() }

// Store exposes the underlying block store, for callers (the `debug` CLI
// command) that need the raw BOMStore header/var table rather than the
// parsed CAR-level view.
func (c *Catalog) Store() *BlockStore { return c.store }

func isNotFound(err error) bool {
	fe, ok := err.(*FormatError)
	return ok && fe.Kind == ErrNotFound
}
