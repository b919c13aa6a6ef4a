// Package types implements the per-routine type encoding used by flow
// analysis: a compact bitmask over interned type references, a context that
// gives mask bits meaning, and the polymorphic type-reference descriptors.
package types

import (
	"math/bits"
)

// TypeRefMask is a set of possible types for one expression or variable,
// encoded as bits over a per-routine Context. The top two bits are flags:
// IsRef marks a value that may be an alias, AnyType marks the unknown/top
// type. A mask is only meaningful together with the Context that interned
// its bits; crossing routine boundaries requires Context.AddToContext.
type TypeRefMask uint64

const (
	isRefMask   TypeRefMask = 1 << 63
	anyTypeMask TypeRefMask = 1 << 62

	flagsMask TypeRefMask = isRefMask | anyTypeMask

	// BitsCount is the number of distinct types one context can track
	// before collapsing to AnyType.
	BitsCount = 62
)

// Void is the empty mask: no type bits, no flags. It means
// void/unreachable, not "unknown".
const Void TypeRefMask = 0

// AnyType is the top type: analysis gave up precision.
const AnyType TypeRefMask = anyTypeMask

// IsVoid reports whether the mask carries no type information at all.
// The IsRef flag alone does not make a mask non-void.
func (m TypeRefMask) IsVoid() bool {
	return m&^isRefMask == 0
}

// IsAnyType reports whether the top-type flag is set.
func (m TypeRefMask) IsAnyType() bool {
	return m&anyTypeMask != 0
}

// IsRef reports whether the value may be an alias.
func (m TypeRefMask) IsRef() bool {
	return m&isRefMask != 0
}

// WithRef returns the mask with the IsRef flag set.
func (m TypeRefMask) WithRef() TypeRefMask {
	return m | isRefMask
}

// WithoutRef returns the mask with the IsRef flag cleared.
func (m TypeRefMask) WithoutRef() TypeRefMask {
	return m &^ isRefMask
}

// WithAny returns the mask with the AnyType flag set.
func (m TypeRefMask) WithAny() TypeRefMask {
	return m | anyTypeMask
}

// Union is the lattice join: commutative, associative, idempotent. Masks
// only ever grow under Union, which is what bounds the fixed-point
// iteration.
func (m TypeRefMask) Union(other TypeRefMask) TypeRefMask {
	return m | other
}

// Intersects reports whether the two masks share a type bit or either is
// AnyType.
func (m TypeRefMask) Intersects(other TypeRefMask) bool {
	if m.IsAnyType() || other.IsAnyType() {
		return !m.IsVoid() && !other.IsVoid()
	}
	return m&other&^flagsMask != 0
}

// IsSingleType reports whether exactly one type bit is set and the mask is
// not AnyType.
func (m TypeRefMask) IsSingleType() bool {
	return !m.IsAnyType() && bits.OnesCount64(uint64(m&^flagsMask)) == 1
}

// TypeBits returns the mask without its flag bits.
func (m TypeRefMask) TypeBits() uint64 {
	return uint64(m &^ flagsMask)
}

// HasBit reports whether the type bit at index i is set.
func (m TypeRefMask) HasBit(i int) bool {
	if i < 0 || i >= BitsCount {
		return false
	}
	return m&(1<<uint(i)) != 0
}

// bitMask returns a mask with only bit i set. Out-of-range indices
// collapse to AnyType.
func bitMask(i int) TypeRefMask {
	if i < 0 || i >= BitsCount {
		return AnyType
	}
	return 1 << uint(i)
}
