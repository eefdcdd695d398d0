// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package car

// maxKeySlots is the fixed width of a RenditionKey and a KeyToken's
// attribute vector.
const maxKeySlots = 18

// RenditionKey is the fixed 18-slot attribute-value tuple identifying one
// specific rendition. Slot k means "the value of the k-th attribute listed
// in the active KeyFormat" — ordering is strictly by KeyFormat, never by
// attribute-type ordinal.
type RenditionKey [maxKeySlots]uint16

// find returns the value of the first slot whose KeyFormat attribute type
// matches want, and whether it was present (format slots beyond the
// declared attribute count are ignored).
func (k RenditionKey) find(format KeyFormat, want AttributeType) (uint16, bool) {
	for i, a := range format.Attributes {
		if i >= maxKeySlots {
			break
		}
		if a == want {
			return k[i], true
		}
	}
	return 0, false
}

// mapPairs returns the (attribute, value) pairs this key carries under the
// given format, in format order.
func (k RenditionKey) mapPairs(format KeyFormat) []struct {
	Attribute AttributeType
	Value     uint16
} {
	n := len(format.Attributes)
	if n > maxKeySlots {
		n = maxKeySlots
	}
	out := make([]struct {
		Attribute AttributeType
		Value     uint16
	}, n)
	for i := 0; i < n; i++ {
		out[i].Attribute = format.Attributes[i]
		out[i].Value = k[i]
	}
	return out
}

func parseRenditionKey(r *byteReader) (RenditionKey, error) {
	var k RenditionKey
	for i := range k {
		v, err := r.u16le()
		if err != nil {
			return k, err
		}
		k[i] = v
	}
	return k, nil
}

// renditionKeyTruncatedSize is the fixed width of a RENDITIONS tree key:
// CatalogBuilder.Build caps every encoded key to it, unconditionally (spec
// §9 open question 4: the condition under which a shorter key would apply
// is not determined by any field this package parses).
const renditionKeyTruncatedSize = 36

// KeyToken is a named facet's key template, as stored in FACETKEYS: a
// cursor hotspot plus an attribute vector. Identifier appears here too,
// linking the facet name to its rendition-side id.
type KeyToken struct {
	CursorHotspotX uint16
	CursorHotspotY uint16
	Attributes     []struct {
		Type  AttributeType
		Value uint16
	}
}

// identifier returns the token's Identifier attribute value, if present.
func (t KeyToken) identifier() (uint16, bool) {
	for _, a := range t.Attributes {
		if a.Type == AttributeIdentifier {
			return a.Value, true
		}
	}
	return 0, false
}

func parseKeyToken(r *byteReader) (KeyToken, error) {
	var t KeyToken
	var err error
	if t.CursorHotspotX, err = r.u16le(); err != nil {
		return t, err
	}
	if t.CursorHotspotY, err = r.u16le(); err != nil {
		return t, err
	}
	n, err := r.u16le()
	if err != nil {
		return t, err
	}
	t.Attributes = make([]struct {
		Type  AttributeType
		Value uint16
	}, n)
	for i := uint16(0); i < n; i++ {
		typ, err := r.u16le()
		if err != nil {
			return t, err
		}
		val, err := r.u16le()
		if err != nil {
			return t, err
		}
		t.Attributes[i] = struct {
			Type  AttributeType
			Value uint16
		}{Type: AttributeType(typ), Value: val}
	}
	return t, nil
}

// facetIndex maps a rendition's name identifier to its facet name, built by
// scanning FACETKEYS once (§4.5). Each name occurs in the index at most
// once; a caller asking for an absent id gets "" and should degrade to an
// empty display name rather than fail the whole operation.
type facetIndex struct {
	byID   map[uint16]string
	byName map[string]uint16
}

func buildFacetIndex(entries []struct {
	Name  string
	Token KeyToken
}) facetIndex {
	idx := facetIndex{byID: map[uint16]string{}, byName: map[string]uint16{}}
	for _, e := range entries {
		id, ok := e.Token.identifier()
		if !ok {
			continue
		}
		idx.byID[id] = e.Name
		idx.byName[e.Name] = id
	}
	return idx
}

func (f facetIndex) nameFor(id uint16) string {
	return f.byID[id]
}

// appearanceIndex maps an appearance id to its name, built from
// APPEARANCEKEYS.
type appearanceIndex map[uint32]string

func (a appearanceIndex) nameFor(id uint32) (string, bool) {
	if id == 0 {
		return "", false
	}
	name, ok := a[id]
	return name, ok
}
