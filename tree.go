// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package car

// treeMagic is the 4-byte magic ("tree") every named index block starts
// with.
const treeMagic = "tree"

// tree is a B-tree-shaped associative index sitting inside the block
// store, keyed by one block range and valued by another.
type tree struct {
	Version     uint32
	PathBlockID uint32
	BlockSize   uint32
	PathCount   uint32
	Unknown     uint32
}

// pathEntry is one raw (index0, index1) slot of a Paths leaf node, exactly
// as stored on disk. Most trees (RENDITIONS, FACETKEYS, APPEARANCEKEYS)
// consume it swapped: KeyBlockID() is Index1, ValueBlockID() is Index0.
// BITMAPKEYS is the one tree where Index1 is not a block id at all but the
// raw 32-bit name identifier itself (§3's "value's index-1 slot").
type pathEntry struct {
	Index0 uint32
	Index1 uint32
}

// KeyBlockID returns the block id holding this entry's key payload.
func (p pathEntry) KeyBlockID() uint32 { return p.Index1 }

// ValueBlockID returns the block id holding this entry's value payload.
func (p pathEntry) ValueBlockID() uint32 { return p.Index0 }

// paths is the decoded leaf node a tree's PathBlockID points at.
type paths struct {
	IsLeaf   bool
	Forward  uint32
	Backward uint32
	Entries  []pathEntry
}

func parseTree(r *byteReader) (tree, error) {
	var t tree
	if err := r.magic4(treeMagic); err != nil {
		return t, err
	}
	var err error
	if t.Version, err = r.u32be(); err != nil {
		return t, err
	}
	if t.PathBlockID, err = r.u32be(); err != nil {
		return t, err
	}
	if t.BlockSize, err = r.u32be(); err != nil {
		return t, err
	}
	if t.PathCount, err = r.u32be(); err != nil {
		return t, err
	}
	if t.Unknown, err = r.u32be(); err != nil {
		return t, err
	}
	return t, nil
}

// parsePaths decodes the Paths block a tree's PathBlockID resolves to. Only
// leaf nodes are supported: the reference encoder never emits internal
// nodes, and a reader that encounters one surfaces ErrLayout rather than
// guessing at a traversal order never observed in practice.
func parsePaths(r *byteReader) (paths, error) {
	var p paths
	isLeaf, err := r.u16be()
	if err != nil {
		return p, err
	}
	p.IsLeaf = isLeaf == 1
	count, err := r.u16be()
	if err != nil {
		return p, err
	}
	if p.Forward, err = r.u32be(); err != nil {
		return p, err
	}
	if p.Backward, err = r.u32be(); err != nil {
		return p, err
	}
	if !p.IsLeaf {
		return p, fmtErr(ErrLayout, r.pos, "internal tree nodes are not supported")
	}
	p.Entries = make([]pathEntry, count)
	for i := uint16(0); i < count; i++ {
		idx0, err := r.u32be()
		if err != nil {
			return p, err
		}
		idx1, err := r.u32be()
		if err != nil {
			return p, err
		}
		p.Entries[i] = pathEntry{Index0: idx0, Index1: idx1}
	}
	return p, nil
}

// treeItems resolves a named tree's Paths block and returns its raw
// (keyBlockID, valueBlockID) pairs.
func (s *BlockStore) treeItems(t tree) ([]pathEntry, error) {
	r, err := s.readerForID(t.PathBlockID)
	if err != nil {
		return nil, err
	}
	p, err := parsePaths(r)
	if err != nil {
		return nil, err
	}
	return p.Entries, nil
}

// namedTree resolves a var-table entry to a parsed tree header.
func (s *BlockStore) namedTree(name string) (tree, error) {
	rng, err := s.GetNamedBlock(name)
	if err != nil {
		return tree{}, err
	}
	r, err := s.readerFor(rng)
	if err != nil {
		return tree{}, err
	}
	return parseTree(r)
}
