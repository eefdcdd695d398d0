// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package car

// AttributeType identifies one slot of a rendition key. Ordinal values are
// fixed by the reference container format.
type AttributeType uint32

// The canonical attribute type set. Ordinal position is the wire value.
const (
	AttributeLook AttributeType = iota
	AttributeElement
	AttributePart
	AttributeSize
	AttributeDirection
	AttributePlaceHolder
	AttributeValue
	AttributeAppearance
	AttributeDimension1
	AttributeDimension2
	AttributeState
	AttributeLayer
	AttributeScale
	AttributeUnknown13
	AttributePresentationState
	AttributeIdiom
	AttributeSubtype
	AttributeIdentifier
	AttributePreviousValue
	AttributePreviousState
	AttributeSizeClassHorizontal
	AttributeSizeClassVertical
	AttributeMemoryClass
	AttributeGraphicsClass
	AttributeDisplayGamut
	AttributeDeploymentTarget
)

var attributeNames = map[AttributeType]string{
	AttributeLook:                "Look",
	AttributeElement:             "Element",
	AttributePart:                "Part",
	AttributeSize:                "Size",
	AttributeDirection:           "Direction",
	AttributePlaceHolder:         "PlaceHolder",
	AttributeValue:               "Value",
	AttributeAppearance:          "Appearance",
	AttributeDimension1:          "Dimension1",
	AttributeDimension2:          "Dimension2",
	AttributeState:               "State",
	AttributeLayer:               "Layer",
	AttributeScale:               "Scale",
	AttributeUnknown13:           "Unknown13",
	AttributePresentationState:   "PresentationState",
	AttributeIdiom:               "Idiom",
	AttributeSubtype:             "Subtype",
	AttributeIdentifier:          "Identifier",
	AttributePreviousValue:       "PreviousValue",
	AttributePreviousState:       "PreviousState",
	AttributeSizeClassHorizontal: "SizeClassHorizontal",
	AttributeSizeClassVertical:   "SizeClassVertical",
	AttributeMemoryClass:         "MemoryClass",
	AttributeGraphicsClass:       "GraphicsClass",
	AttributeDisplayGamut:        "DisplayGamut",
	AttributeDeploymentTarget:    "DeploymentTarget",
}

// String returns the attribute's canonical name, or "Unknown" when the
// ordinal is outside the fixed set.
func (a AttributeType) String() string {
	if s, ok := attributeNames[a]; ok {
		return s
	}
	return "Unknown"
}

// Idiom is the target form factor decoded from a key's Idiom slot.
type Idiom uint16

// Idiom values.
const (
	IdiomUniversal Idiom = iota
	IdiomPhone
	IdiomPad
	IdiomTV
	IdiomCar
	IdiomWatch
	IdiomMarketing
)

func (i Idiom) String() string {
	switch i {
	case IdiomUniversal:
		return "universal"
	case IdiomPhone:
		return "phone"
	case IdiomPad:
		return "pad"
	case IdiomTV:
		return "tv"
	case IdiomCar:
		return "car"
	case IdiomWatch:
		return "watch"
	case IdiomMarketing:
		return "marketing"
	default:
		return "unknown"
	}
}

// StateValue is the enum decoded from a key's State slot.
type StateValue uint16

// Known state values.
const (
	StateNormal StateValue = 0
)

func (s StateValue) String() string {
	switch s {
	case StateNormal:
		return "normal"
	default:
		return "unknown"
	}
}

// OnOffValue is the enum decoded from a key's Value slot.
type OnOffValue uint16

// Known on/off values.
const (
	ValueOff OnOffValue = 0
	ValueOn  OnOffValue = 1
)

func (v OnOffValue) String() string {
	if v == ValueOn {
		return "on"
	}
	return "off"
}
