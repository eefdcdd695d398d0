// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package car

import (
	"bytes"
	"encoding/binary"
)

// storeHeaderSize is the fixed byte width of the BOMStore header: magic(8)
// + version + numberOfBlocks + indexOffset + indexLength + varsOffset +
// unknown, each a big-endian u32 — 32 bytes total.
const storeHeaderSize = 8 + 4*6

// blockWriter assembles a BOM container from scratch: a growing payload
// buffer, a block table, and a var table, matching §4.2's write algorithm.
// Payloads are appended first; the block and var tables are serialized
// immediately after the payload area; the header is patched last, once
// every offset is known.
type blockWriter struct {
	buf    bytes.Buffer
	blocks []BlockRange
	vars   []namedVar
}

type namedVar struct {
	Name    string
	BlockID uint32
}

func newBlockWriter() *blockWriter {
	w := &blockWriter{}
	w.blocks = append(w.blocks, BlockRange{}) // block 0 is reserved/unused
	w.buf.Write(make([]byte, storeHeaderSize))
	return w
}

// addBlock appends payload and records a new block table entry, returning
// its assigned id. Block 0 is never reassigned, so every id returned here
// is a valid live reference.
func (w *blockWriter) addBlock(payload []byte) uint32 {
	addr := uint32(w.buf.Len())
	w.buf.Write(payload)
	id := uint32(len(w.blocks))
	w.blocks = append(w.blocks, BlockRange{Address: addr, Length: uint32(len(payload))})
	return id
}

func (w *blockWriter) setVar(name string, blockID uint32) {
	w.vars = append(w.vars, namedVar{Name: name, BlockID: blockID})
}

// writeTree emits a tree's Paths leaf and tree header and returns the tree
// header's block id. entries is always written as a valid Paths node, even
// when empty — block id 0 is never used as a live reference (§4.2's
// tie-break rule).
func (w *blockWriter) writeTree(entries []treeEntrySpec) uint32 {
	paths := make([]pathEntry, 0, len(entries))
	for _, e := range entries {
		keyID := w.addBlock(e.KeyBytes)
		var idx0, idx1 uint32
		if e.RawIndex1 != nil {
			// BITMAPKEYS shape: index1 is the literal name id, not a block
			// pointer.
			idx0 = keyID
			idx1 = *e.RawIndex1
		} else {
			// Common shape (RENDITIONS, FACETKEYS, APPEARANCEKEYS): both
			// slots are block pointers, index0 the value and index1 the
			// key.
			idx0 = w.addBlock(e.ValueBytes)
			idx1 = keyID
		}
		paths = append(paths, pathEntry{Index0: idx0, Index1: idx1})
	}
	pathsID := w.addBlock(encodePaths(paths))
	return w.addBlock(encodeTreeHeader(pathsID, uint32(len(paths))))
}

// treeEntrySpec describes one key/value pair to add to a tree being
// written. RawIndex1 is set only for the BITMAPKEYS shape; otherwise
// ValueBytes is written as its own block, matching the common
// RENDITIONS/FACETKEYS/APPEARANCEKEYS shape.
type treeEntrySpec struct {
	KeyBytes   []byte
	ValueBytes []byte
	RawIndex1  *uint32
}

func encodePaths(entries []pathEntry) []byte {
	w := newByteWriter()
	w.u16be(1) // is_leaf
	w.u16be(uint16(len(entries)))
	w.u32be(0) // forward
	w.u32be(0) // backward
	for _, e := range entries {
		w.u32be(e.Index0)
		w.u32be(e.Index1)
	}
	return w.bytes()
}

func encodeTreeHeader(pathBlockID, count uint32) []byte {
	w := newByteWriter()
	w.magic4(treeMagic)
	w.u32be(1) // version
	w.u32be(pathBlockID)
	w.u32be(0) // block_size: unused by this writer's single-leaf trees
	w.u32be(count)
	w.u32be(0) // unknown
	return w.bytes()
}

// finish serializes the block table and var table directly after the
// payload area (not at fixed far offsets, so no padding is written) and
// patches the BOMStore header with their final offsets; an empty catalog
// stays well under 64 KiB.
func (w *blockWriter) finish() []byte {
	blockTableOff := uint32(w.buf.Len())
	for _, b := range w.blocks {
		writeU32BE(&w.buf, b.Address)
		writeU32BE(&w.buf, b.Length)
	}
	blockTableLen := uint32(w.buf.Len()) - blockTableOff

	varTableOff := uint32(w.buf.Len())
	writeU32BE(&w.buf, uint32(len(w.vars)))
	for _, v := range w.vars {
		writeU32BE(&w.buf, v.BlockID)
		w.buf.WriteByte(byte(len(v.Name)))
		w.buf.WriteString(v.Name)
	}

	out := w.buf.Bytes()
	hdr := out[:storeHeaderSize]
	copy(hdr[0:8], blockStoreMagic)
	binary.BigEndian.PutUint32(hdr[8:12], 1)
	binary.BigEndian.PutUint32(hdr[12:16], uint32(len(w.blocks)))
	binary.BigEndian.PutUint32(hdr[16:20], blockTableOff)
	binary.BigEndian.PutUint32(hdr[20:24], blockTableLen)
	binary.BigEndian.PutUint32(hdr[24:28], varTableOff)
	binary.BigEndian.PutUint32(hdr[28:32], 0)
	return out
}

func writeU32BE(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

// CatalogBuilder assembles a fresh .car file from scratch. It never edits
// an existing file (§5's mutation rules: write is whole-file only); every
// field here mirrors Catalog's parsed shape one level up, so a catalog
// built then reopened reproduces every declared payload byte-exactly
// (Testable Property 5).
type CatalogBuilder struct {
	Header           CarHeader
	ExtendedMetadata *CarExtendedMetadata
	KeyFormat        KeyFormat
	Renditions       []BuilderRendition
	Facets           []BuilderFacet
	Appearances      []BuilderAppearance
	BitmapKeys       []BuilderBitmapKey
}

// BuilderRendition is one RENDITIONS tree entry to write.
type BuilderRendition struct {
	Key RenditionKey
	CSI CSI
}

// BuilderFacet is one FACETKEYS tree entry to write.
type BuilderFacet struct {
	Name  string
	Token KeyToken
}

// BuilderAppearance is one APPEARANCEKEYS tree entry to write.
type BuilderAppearance struct {
	Name string
	ID   uint32
}

// BuilderBitmapKey is one BITMAPKEYS tree entry to write.
type BuilderBitmapKey struct {
	KeyBytes []byte
	NameID   uint32
}

// Build serializes the whole catalog to a single in-memory byte slice,
// ready to be written to disk in one call (§5: atomic whole-file output).
func (b *CatalogBuilder) Build() []byte {
	w := newBlockWriter()

	w.setVar(varCarHeader, w.addBlock(b.Header.encode()))
	if b.ExtendedMetadata != nil {
		w.setVar(varExtendedMetadata, w.addBlock(b.ExtendedMetadata.encode()))
	}
	w.setVar(varKeyFormat, w.addBlock(b.KeyFormat.encode()))

	renditionEntries := make([]treeEntrySpec, len(b.Renditions))
	for i, r := range b.Renditions {
		key := r.Key.encode()
		if len(key) > renditionKeyTruncatedSize {
			key = key[:renditionKeyTruncatedSize]
		}
		renditionEntries[i] = treeEntrySpec{KeyBytes: key, ValueBytes: r.CSI.encode()}
	}
	w.setVar(varRenditions, w.writeTree(renditionEntries))

	facetEntries := make([]treeEntrySpec, len(b.Facets))
	for i, f := range b.Facets {
		facetEntries[i] = treeEntrySpec{KeyBytes: cStringBytes(f.Name), ValueBytes: f.Token.encode()}
	}
	w.setVar(varFacetKeys, w.writeTree(facetEntries))

	appearanceEntries := make([]treeEntrySpec, len(b.Appearances))
	for i, a := range b.Appearances {
		appearanceEntries[i] = treeEntrySpec{KeyBytes: []byte(a.Name), ValueBytes: encodeU32LE(a.ID)}
	}
	w.setVar(varAppearanceKeys, w.writeTree(appearanceEntries))

	bitmapEntries := make([]treeEntrySpec, len(b.BitmapKeys))
	for i, bk := range b.BitmapKeys {
		id := bk.NameID
		bitmapEntries[i] = treeEntrySpec{KeyBytes: bk.KeyBytes, RawIndex1: &id}
	}
	w.setVar(varBitmapKeys, w.writeTree(bitmapEntries))

	return w.finish()
}

func cStringBytes(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

// encodeU32LE encodes v as a standalone 4-byte little-endian block payload,
// the shape an APPEARANCEKEYS value block holds.
func encodeU32LE(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}
