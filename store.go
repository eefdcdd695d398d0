// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package car

import (
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/go-assetcar/car/log"
)

// blockStoreMagic is the 8-byte magic at the start of every BOM container.
const blockStoreMagic = "BOMStore"

// BlockRange is the sole handle passed between components: an address and
// length into the block store's payload area. Resolving a range yields a
// bounded sub-reader.
type BlockRange struct {
	Address uint32
	Length  uint32
}

func (b BlockRange) empty() bool { return b.Address == 0 && b.Length == 0 }

// storeHeader is the big-endian BOMStore header: magic(8) + six u32 fields,
// 32 bytes total (original_source/src/bom.rs's BOMHeader).
type storeHeader struct {
	Magic          [8]byte
	Version        uint32
	NumberOfBlocks uint32
	IndexOffset    uint32 // pointer to the block table
	IndexLength    uint32
	VarsOffset     uint32 // pointer to the var table
	Unknown        uint32
}

// BlockStore is a process-wide container holding a header, a block table
// (address,length pairs indexed by block id) and a var table (name -> block
// id). Block 0 is reserved; a block id of 0 means absent. Opening a store
// is the single mmap of the whole file, matching the teacher's pe.New.
type BlockStore struct {
	data   mmap.MMap
	f      *os.File
	header storeHeader
	blocks []BlockRange      // index 0 is always the reserved/unused block
	vars   map[string]uint32 // name -> block id
	logger *log.Helper
}

// StoreOptions configures Open/OpenBytes.
type StoreOptions struct {
	Logger log.Logger
}

func helperFor(opts *StoreOptions) *log.Helper {
	if opts == nil || opts.Logger == nil {
		return log.DefaultHelper()
	}
	return log.NewHelper(opts.Logger)
}

// openBlockStore memory-maps path read-only and parses its BOM header,
// block table, and var table eagerly. Callers outside this package use
// Open/OpenBytes on Catalog instead; this is the lower-level building
// block they're built on.
func openBlockStore(path string, opts *StoreOptions) (*BlockStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	s, err := newBlockStore(data, opts)
	if err != nil {
		data.Unmap()
		f.Close()
		return nil, err
	}
	s.f = f
	return s, nil
}

// openBlockStoreBytes parses a BOM container already resident in memory.
func openBlockStoreBytes(data []byte, opts *StoreOptions) (*BlockStore, error) {
	return newBlockStore(mmap.MMap(data), opts)
}

func newBlockStore(data mmap.MMap, opts *StoreOptions) (*BlockStore, error) {
	s := &BlockStore{data: data, logger: helperFor(opts)}

	r := newByteReader(data)
	var hdr storeHeader
	magic, err := r.bytes(8)
	if err != nil {
		return nil, err
	}
	copy(hdr.Magic[:], magic)
	if string(hdr.Magic[:]) != blockStoreMagic {
		return nil, fmtErr(ErrBadMagic, 0, "not a BOM store")
	}
	if hdr.Version, err = r.u32be(); err != nil {
		return nil, err
	}
	if hdr.NumberOfBlocks, err = r.u32be(); err != nil {
		return nil, err
	}
	if hdr.IndexOffset, err = r.u32be(); err != nil {
		return nil, err
	}
	if hdr.IndexLength, err = r.u32be(); err != nil {
		return nil, err
	}
	if hdr.VarsOffset, err = r.u32be(); err != nil {
		return nil, err
	}
	if hdr.Unknown, err = r.u32be(); err != nil {
		return nil, err
	}

	blocks, err := parseBlockTable(data, hdr.IndexOffset, hdr.NumberOfBlocks)
	if err != nil {
		return nil, err
	}
	s.blocks = blocks

	vars, err := parseVarTable(data, hdr.VarsOffset, blocks)
	if err != nil {
		return nil, err
	}
	s.vars = vars
	s.header = hdr

	return s, nil
}

// parseBlockTable reads count (address,length) pairs, big-endian, starting
// at offset. The declared count may include unused trailing entries with a
// (0,0) range; these are accepted but never dereferenced.
func parseBlockTable(data []byte, offset, count uint32) ([]BlockRange, error) {
	r := newByteReader(data)
	r.seek(offset)

	out := make([]BlockRange, count)
	for i := uint32(0); i < count; i++ {
		addr, err := r.u32be()
		if err != nil {
			return nil, err
		}
		length, err := r.u32be()
		if err != nil {
			return nil, err
		}
		out[i] = BlockRange{Address: addr, Length: length}
	}
	return out, nil
}

// parseVarTable reads the (name, block-id) sequence into a name -> id map.
// Names are short byte strings (<=255 bytes), length-prefixed.
func parseVarTable(data []byte, offset uint32, blocks []BlockRange) (map[string]uint32, error) {
	r := newByteReader(data)
	r.seek(offset)
	count, err := r.u32be()
	if err != nil {
		return nil, err
	}
	vars := make(map[string]uint32, count)
	for i := uint32(0); i < count; i++ {
		blockID, err := r.u32be()
		if err != nil {
			return nil, err
		}
		nameLen, err := r.u8()
		if err != nil {
			return nil, err
		}
		name, err := r.fixedString(uint32(nameLen))
		if err != nil {
			return nil, err
		}
		if _, dup := vars[name]; dup {
			return nil, fmtErr(ErrLayout, offset, "duplicate var name "+name)
		}
		vars[name] = blockID
	}
	return vars, nil
}

// Close releases the mapped view and the underlying file handle.
func (s *BlockStore) Close() error {
	if s.data != nil {
		_ = s.data.Unmap()
	}
	if s.f != nil {
		return s.f.Close()
	}
	return nil
}

// blockRange returns the range for a block id, validating it is in bounds.
func (s *BlockStore) blockRange(id uint32) (BlockRange, error) {
	if id == 0 || int(id) >= len(s.blocks) {
		return BlockRange{}, fmtErr(ErrNotFound, id, "block id out of range")
	}
	return s.blocks[id], nil
}

// GetNamedBlock resolves a var-table entry to its block range. Deterministic
// and idempotent within a single open: repeated calls with the same name
// return the identical range.
func (s *BlockStore) GetNamedBlock(name string) (BlockRange, error) {
	id, ok := s.vars[name]
	if !ok {
		return BlockRange{}, fmtErr(ErrNotFound, 0, "no var named "+name)
	}
	return s.blockRange(id)
}

// readerFor returns a byteReader bounded to the given range. The range's
// length is informational only — callers must themselves know when the
// payload ends (structures are self-describing via embedded lengths).
func (s *BlockStore) readerFor(rng BlockRange) (*byteReader, error) {
	if rng.empty() {
		return nil, fmtErr(ErrNotFound, rng.Address, "empty block range")
	}
	if uint64(rng.Address) > uint64(len(s.data)) {
		return nil, fmtErr(ErrTruncated, rng.Address, "block address beyond file")
	}
	return newByteReader(s.data[rng.Address:]), nil
}

// rawBytesAt returns the n bytes starting at address, unconverted — used to
// compute the SHA-256 digest over a CSI record's exact on-disk span.
func (s *BlockStore) rawBytesAt(address, n uint32) ([]byte, error) {
	if uint64(address)+uint64(n) > uint64(len(s.data)) {
		return nil, fmtErr(ErrTruncated, address, "raw span exceeds buffer")
	}
	return s.data[address : address+n], nil
}

// readerForID resolves a block id (0 meaning absent) to a bounded reader.
func (s *BlockStore) readerForID(id uint32) (*byteReader, error) {
	rng, err := s.blockRange(id)
	if err != nil {
		return nil, err
	}
	return s.readerFor(rng)
}

// StoreDebugInfo is a snapshot of the BOMStore header and var table, for
// the `debug` CLI command — nothing else in this package needs it.
type StoreDebugInfo struct {
	Version        uint32
	NumberOfBlocks uint32
	IndexOffset    uint32
	IndexLength    uint32
	VarsOffset     uint32
	Unknown        uint32
	Vars           map[string]BlockRange
}

// DebugInfo returns the resolved header and var table in a form safe to
// hand to callers outside this package.
func (s *BlockStore) DebugInfo() StoreDebugInfo {
	vars := make(map[string]BlockRange, len(s.vars))
	for name, id := range s.vars {
		if rng, err := s.blockRange(id); err == nil {
			vars[name] = rng
		}
	}
	return StoreDebugInfo{
		Version:        s.header.Version,
		NumberOfBlocks: s.header.NumberOfBlocks,
		IndexOffset:    s.header.IndexOffset,
		IndexLength:    s.header.IndexLength,
		VarsOffset:     s.header.VarsOffset,
		Unknown:        s.header.Unknown,
		Vars:           vars,
	}
}
