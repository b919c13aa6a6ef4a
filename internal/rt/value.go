// Package rt implements the dynamic value engine: the tagged runtime
// Value, its conversion and comparison semantics, arrays, aliases and
// the runtime type registry.
package rt

import "fmt"

// Tag identifies the runtime representation of a Value.
type Tag uint8

const (
	// TagDefault is the zero-initialized, never-assigned state. It is
	// distinct from a deliberate null.
	TagDefault Tag = iota
	// TagNull is the null singleton.
	TagNull
	// TagBool is a boolean.
	TagBool
	// TagLong is a signed 64-bit integer.
	TagLong
	// TagDouble is a 64-bit float.
	TagDouble
	// TagString is an immutable string.
	TagString
	// TagMutString is a mutable string buffer.
	TagMutString
	// TagArray is an ordered hash array.
	TagArray
	// TagObject is a class instance.
	TagObject
	// TagAlias is a shared mutable cell.
	TagAlias

	tagCount
)

// String returns a human-readable name for the tag.
func (t Tag) String() string {
	switch t {
	case TagDefault:
		return "default"
	case TagNull:
		return "null"
	case TagBool:
		return "bool"
	case TagLong:
		return "long"
	case TagDouble:
		return "double"
	case TagString:
		return "string"
	case TagMutString:
		return "mutable string"
	case TagArray:
		return "array"
	case TagObject:
		return "object"
	case TagAlias:
		return "alias"
	default:
		return fmt.Sprintf("Tag(%d)", t)
	}
}

// Value is the universal runtime value. Exactly one payload field is
// meaningful per tag: long for TagBool (0/1) and TagLong, dbl for
// TagDouble, ref for the reference tags.
type Value struct {
	tag  Tag
	long int64
	dbl  float64
	ref  any // string, *MutString, *Array, *Object or *Alias
}

// Tag returns the value's representation tag.
func (v Value) Tag() Tag { return v.tag }

// IsDefault reports whether the value is the invalid zero state. Only a
// zero-initialized, never-assigned Value is default.
func (v Value) IsDefault() bool { return v.tag == TagDefault }

// Null returns the null singleton.
func Null() Value { return Value{tag: TagNull} }

// Bool makes a boolean value.
func Bool(b bool) Value {
	v := Value{tag: TagBool}
	if b {
		v.long = 1
	}
	return v
}

// Long makes an integer value.
func Long(n int64) Value { return Value{tag: TagLong, long: n} }

// Double makes a float value.
func Double(d float64) Value { return Value{tag: TagDouble, dbl: d} }

// Str makes an immutable string value.
func Str(s string) Value { return Value{tag: TagString, ref: s} }

// MutStr wraps a mutable string buffer.
func MutStr(ms *MutString) Value { return Value{tag: TagMutString, ref: ms} }

// Arr wraps an array.
func Arr(a *Array) Value { return Value{tag: TagArray, ref: a} }

// Obj wraps an object instance.
func Obj(o *Object) Value { return Value{tag: TagObject, ref: o} }

// Ref wraps a shared alias cell.
func Ref(a *Alias) Value { return Value{tag: TagAlias, ref: a} }

// AsBool returns the boolean payload. Valid only for TagBool.
func (v Value) AsBool() bool { return v.long != 0 }

// AsLong returns the integer payload. Valid only for TagLong.
func (v Value) AsLong() int64 { return v.long }

// AsDouble returns the float payload. Valid only for TagDouble.
func (v Value) AsDouble() float64 { return v.dbl }

// AsString returns the string payload. Valid only for TagString.
func (v Value) AsString() string { return v.ref.(string) }

// AsMutString returns the buffer payload. Valid only for TagMutString.
func (v Value) AsMutString() *MutString { return v.ref.(*MutString) }

// AsArray returns the array payload. Valid only for TagArray.
func (v Value) AsArray() *Array { return v.ref.(*Array) }

// AsObject returns the object payload. Valid only for TagObject.
func (v Value) AsObject() *Object { return v.ref.(*Object) }

// AsAlias returns the alias payload. Valid only for TagAlias.
func (v Value) AsAlias() *Alias { return v.ref.(*Alias) }

// Deref follows alias cells until a non-alias value is reached.
func (v Value) Deref() Value {
	for v.tag == TagAlias {
		v = v.AsAlias().GetValue()
	}
	return v
}

// String renders the value for debugging. Conversion to the language's
// string representation goes through ToString.
func (v Value) String() string {
	switch v.tag {
	case TagDefault:
		return "<default>"
	case TagNull:
		return "null"
	case TagBool:
		if v.long != 0 {
			return "true"
		}
		return "false"
	case TagLong:
		return fmt.Sprintf("%d", v.long)
	case TagDouble:
		return fmt.Sprintf("%g", v.dbl)
	case TagString:
		return fmt.Sprintf("%q", v.ref.(string))
	case TagMutString:
		return fmt.Sprintf("%q*", v.ref.(*MutString).String())
	case TagArray:
		return fmt.Sprintf("array(%d)", v.ref.(*Array).Len())
	case TagObject:
		return fmt.Sprintf("object(%s)", v.ref.(*Object).Type().Name())
	case TagAlias:
		return "&" + v.AsAlias().GetValue().String()
	default:
		return fmt.Sprintf("<bad tag %d>", v.tag)
	}
}
