package rt

import "strings"

// Compare imposes a total order across every tag pair. Numeric pairs
// compare numerically, a number against a string parses the string
// first and falls back to lexical comparison, null goes through the
// dedicated null path.
func Compare(x, y Value, cc *ConvContext) int {
	return x.table().compare(x, y, cc)
}

// CompareNull compares null against v: null orders equal to every falsy
// scalar and below everything else.
func CompareNull(v Value, cc *ConvContext) int {
	return compareNullWith(v, cc)
}

// compareNullWith compares a null left operand against other.
func compareNullWith(other Value, cc *ConvContext) int {
	other = other.Deref()
	switch other.Tag() {
	case TagDefault, TagNull:
		return 0
	case TagBool:
		return cmpBool(false, other.AsBool())
	case TagLong:
		return cmpLong(0, other.AsLong())
	case TagDouble:
		return cmpDouble(0, other.AsDouble())
	case TagString:
		return strings.Compare("", other.AsString())
	case TagMutString:
		return strings.Compare("", other.AsMutString().String())
	case TagArray:
		if other.AsArray().Len() == 0 {
			return 0
		}
		return -1
	case TagObject:
		return -1
	default:
		return -1
	}
}

func compareBoolWith(v, other Value, cc *ConvContext) int {
	// A boolean operand forces boolean comparison on both sides.
	return cmpBool(v.AsBool(), other.ToBool())
}

func compareLongWith(v, other Value, cc *ConvContext) int {
	other = other.Deref()
	switch other.Tag() {
	case TagDefault, TagNull:
		return cmpLong(v.AsLong(), 0)
	case TagBool:
		return cmpBool(v.toBoolPayload(), other.AsBool())
	case TagLong:
		return cmpLong(v.AsLong(), other.AsLong())
	case TagDouble:
		return cmpDouble(float64(v.AsLong()), other.AsDouble())
	case TagString:
		return compareNumberString(float64(v.AsLong()), v.String(), other.AsString(), cc)
	case TagMutString:
		return compareNumberString(float64(v.AsLong()), v.String(), other.AsMutString().String(), cc)
	case TagArray, TagObject:
		// Compound values order above scalars.
		return -1
	default:
		return -1
	}
}

func compareDoubleWith(v, other Value, cc *ConvContext) int {
	other = other.Deref()
	switch other.Tag() {
	case TagDefault, TagNull:
		return cmpDouble(v.AsDouble(), 0)
	case TagBool:
		return cmpBool(v.toBoolPayload(), other.AsBool())
	case TagLong:
		return cmpDouble(v.AsDouble(), float64(other.AsLong()))
	case TagDouble:
		return cmpDouble(v.AsDouble(), other.AsDouble())
	case TagString:
		return compareNumberString(v.AsDouble(), doubleToString(v.AsDouble()), other.AsString(), cc)
	case TagMutString:
		return compareNumberString(v.AsDouble(), doubleToString(v.AsDouble()), other.AsMutString().String(), cc)
	case TagArray, TagObject:
		return -1
	default:
		return -1
	}
}

func compareStringWith(s string, other Value, cc *ConvContext) int {
	other = other.Deref()
	switch other.Tag() {
	case TagDefault, TagNull:
		return strings.Compare(s, "")
	case TagBool:
		return cmpBool(!stringIsFalsy(s), other.AsBool())
	case TagLong:
		return -compareNumberString(float64(other.AsLong()), other.String(), s, cc)
	case TagDouble:
		return -compareNumberString(other.AsDouble(), doubleToString(other.AsDouble()), s, cc)
	case TagString:
		return compareStrings(s, other.AsString())
	case TagMutString:
		return compareStrings(s, other.AsMutString().String())
	case TagArray, TagObject:
		return -1
	default:
		return -1
	}
}

// compareNumberString compares a numeric left operand against a string
// right operand. A parsable string compares numerically; otherwise the
// number's rendering compares lexically against the string.
func compareNumberString(n float64, rendered, s string, cc *ConvContext) int {
	kind, _, d, consumed := ParseNumberPrefix(s)
	if kind != NotNumber && consumed == len(s) {
		return cmpDouble(n, d)
	}
	cc.warn("comparing number against non-numeric string %q", s)
	return strings.Compare(rendered, s)
}

// compareStrings compares two strings: numerically when both are fully
// numeric, lexically otherwise.
func compareStrings(a, b string) int {
	ka, _, da, ca := ParseNumberPrefix(a)
	kb, _, db, cb := ParseNumberPrefix(b)
	if ka != NotNumber && ca == len(a) && kb != NotNumber && cb == len(b) {
		return cmpDouble(da, db)
	}
	return strings.Compare(a, b)
}

func compareArrayWith(v, other Value, cc *ConvContext) int {
	other = other.Deref()
	switch other.Tag() {
	case TagDefault, TagNull:
		if v.AsArray().Len() == 0 {
			return 0
		}
		return 1
	case TagBool:
		return cmpBool(v.AsArray().Len() != 0, other.AsBool())
	case TagArray:
		return compareArrays(v.AsArray(), other.AsArray(), cc)
	case TagObject:
		return -1
	default:
		// An array orders above every scalar.
		return 1
	}
}

// compareArrays orders by size first, then element-wise: a key missing
// on the right makes the left greater, the first unequal element
// decides.
func compareArrays(a, b *Array, cc *ConvContext) int {
	if c := cmpLong(int64(a.Len()), int64(b.Len())); c != 0 {
		return c
	}
	result := 0
	a.ForEach(func(k ArrayKey, av Value) bool {
		bv, ok := b.Get(k)
		if !ok {
			result = 1
			return false
		}
		if c := Compare(av, bv, cc); c != 0 {
			result = c
			return false
		}
		return true
	})
	return result
}

func compareObjectWith(v, other Value, cc *ConvContext) int {
	other = other.Deref()
	switch other.Tag() {
	case TagObject:
		return compareObjects(v.AsObject(), other.AsObject(), cc)
	case TagBool:
		return cmpBool(true, other.AsBool())
	default:
		// An object orders above every non-object.
		return 1
	}
}

// compareObjects: identity is equality; instances of one type compare
// field-wise; unrelated types order by type name.
func compareObjects(a, b *Object, cc *ConvContext) int {
	if a == b {
		return 0
	}
	if a.Type() != b.Type() {
		return strings.Compare(a.Type().Name(), b.Type().Name())
	}
	result := 0
	a.ForEachField(func(name string, av Value) bool {
		bv, ok := b.GetField(name)
		if !ok {
			result = 1
			return false
		}
		if c := Compare(av, bv, cc); c != 0 {
			result = c
			return false
		}
		return true
	})
	return result
}

// StrictEquals requires matching representations: no coercion, arrays
// structural, objects by reference. The two string representations
// count as one type.
func StrictEquals(x, y Value) bool {
	x, y = x.Deref(), y.Deref()
	if isStringTag(x.Tag()) && isStringTag(y.Tag()) {
		return stringPayload(x) == stringPayload(y)
	}
	if x.Tag() != y.Tag() {
		return false
	}
	switch x.Tag() {
	case TagDefault, TagNull:
		return true
	case TagBool:
		return x.AsBool() == y.AsBool()
	case TagLong:
		return x.AsLong() == y.AsLong()
	case TagDouble:
		return x.AsDouble() == y.AsDouble()
	case TagArray:
		return strictEqualArrays(x.AsArray(), y.AsArray())
	case TagObject:
		return x.AsObject() == y.AsObject()
	default:
		return false
	}
}

func isStringTag(t Tag) bool { return t == TagString || t == TagMutString }

func stringPayload(v Value) string {
	if v.Tag() == TagMutString {
		return v.AsMutString().String()
	}
	return v.AsString()
}

// strictEqualArrays requires the same key/value pairs in the same
// order, values strictly equal.
func strictEqualArrays(a, b *Array) bool {
	if a.Len() != b.Len() {
		return false
	}
	type pair struct {
		k ArrayKey
		v Value
	}
	var bs []pair
	b.ForEach(func(k ArrayKey, v Value) bool {
		bs = append(bs, pair{k, v})
		return true
	})
	i := 0
	equal := true
	a.ForEach(func(k ArrayKey, v Value) bool {
		if bs[i].k != k || !StrictEquals(v, bs[i].v) {
			equal = false
			return false
		}
		i++
		return true
	})
	return equal
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case b:
		return -1
	default:
		return 1
	}
}

func cmpLong(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpDouble(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// toBoolPayload is ToBool without table dispatch, for scalar operands
// already in hand.
func (v Value) toBoolPayload() bool {
	if v.tag == TagDouble {
		return v.dbl != 0
	}
	return v.long != 0
}
