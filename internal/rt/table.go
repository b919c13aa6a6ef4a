package rt

import "fmt"

// typeTable is the operation set of one runtime representation. Value
// operations dispatch by tag into these tables; adding a representation
// means adding one table, call sites do not change.
type typeTable struct {
	isNull   func(v Value) bool
	isEmpty  func(v Value) bool
	toBool   func(v Value) bool
	toLong   func(v Value, cc *ConvContext) int64
	toDouble func(v Value, cc *ConvContext) float64
	toString func(v Value, cc *ConvContext) string
	compare  func(v, other Value, cc *ConvContext) int
	deepCopy func(v Value) Value

	ensureArray  func(v *Value) (*Array, error)
	ensureObject func(v *Value, reg *Registry) (*Object, error)
	ensureAlias  func(v *Value) *Alias
}

var tables [tagCount]*typeTable

func init() {
	tables[TagDefault] = defaultTable
	tables[TagNull] = nullTable
	tables[TagBool] = boolTable
	tables[TagLong] = longTable
	tables[TagDouble] = doubleTable
	tables[TagString] = stringTable
	tables[TagMutString] = mutStringTable
	tables[TagArray] = arrayTable
	tables[TagObject] = objectTable
	tables[TagAlias] = aliasTable
}

func (v Value) table() *typeTable { return tables[v.tag] }

// IsNull reports whether the value is null. Default counts as null.
func (v Value) IsNull() bool { return v.table().isNull(v) }

// IsEmpty reports the language's emptiness predicate: true for every
// value that coerces to false.
func (v Value) IsEmpty() bool { return v.table().isEmpty(v) }

// ToBool coerces to boolean. Never warns: every value has a defined
// truthiness.
func (v Value) ToBool() bool { return v.table().toBool(v) }

// ToLong coerces to integer, reporting lossy cases on cc.
func (v Value) ToLong(cc *ConvContext) int64 { return v.table().toLong(v, cc) }

// ToDouble coerces to float, reporting lossy cases on cc.
func (v Value) ToDouble(cc *ConvContext) float64 { return v.table().toDouble(v, cc) }

// ToString coerces to the language's string rendering, reporting
// surprising cases on cc.
func (v Value) ToString(cc *ConvContext) string { return v.table().toString(v, cc) }

// DeepCopy applies the value-semantics copy policy: scalars and
// immutable strings are identity, arrays and mutable buffers copy
// storage, objects and aliases keep the same reference.
func (v Value) DeepCopy() Value { return v.table().deepCopy(v) }

// EnsureArray makes v usable as an array in place: null and default
// become a fresh array, an existing array is returned as-is. Scalars
// cannot be used as arrays.
func EnsureArray(v *Value) (*Array, error) { return v.table().ensureArray(v) }

// EnsureObject makes v usable as an object in place: null and default
// become a bare instance of reg's root object type.
func EnsureObject(v *Value, reg *Registry) (*Object, error) {
	return v.table().ensureObject(v, reg)
}

// EnsureAlias makes v an alias cell in place and returns the cell.
func EnsureAlias(v *Value) *Alias { return v.table().ensureAlias(v) }

func identityCopy(v Value) Value { return v }

func cannotBeArray(v *Value) (*Array, error) {
	return nil, fmt.Errorf("rt: cannot use %s as array", v.Tag())
}

func cannotBeObject(v *Value, _ *Registry) (*Object, error) {
	return nil, fmt.Errorf("rt: cannot use %s as object", v.Tag())
}

func wrapAlias(v *Value) *Alias {
	a := NewAlias(*v)
	*v = Ref(a)
	return a
}

// rootObjectType resolves reg's implicit root type for promoted nulls.
func rootObjectType(reg *Registry) *TypeInfo {
	return reg.DeclareType(TypeDecl{Name: "object"})
}

var defaultTable = &typeTable{
	isNull:   func(Value) bool { return true },
	isEmpty:  func(Value) bool { return true },
	toBool:   func(Value) bool { return false },
	toLong:   func(Value, *ConvContext) int64 { return 0 },
	toDouble: func(Value, *ConvContext) float64 { return 0 },
	toString: func(Value, *ConvContext) string { return "" },
	compare:  func(_, other Value, cc *ConvContext) int { return compareNullWith(other, cc) },
	deepCopy: identityCopy,
	ensureArray: func(v *Value) (*Array, error) {
		a := NewArray()
		*v = Arr(a)
		return a, nil
	},
	ensureObject: func(v *Value, reg *Registry) (*Object, error) {
		o := NewObject(rootObjectType(reg))
		*v = Obj(o)
		return o, nil
	},
	ensureAlias: wrapAlias,
}

var nullTable = &typeTable{
	isNull:   func(Value) bool { return true },
	isEmpty:  func(Value) bool { return true },
	toBool:   func(Value) bool { return false },
	toLong:   func(Value, *ConvContext) int64 { return 0 },
	toDouble: func(Value, *ConvContext) float64 { return 0 },
	toString: func(Value, *ConvContext) string { return "" },
	compare:  func(_, other Value, cc *ConvContext) int { return compareNullWith(other, cc) },
	deepCopy: identityCopy,
	ensureArray: func(v *Value) (*Array, error) {
		a := NewArray()
		*v = Arr(a)
		return a, nil
	},
	ensureObject: func(v *Value, reg *Registry) (*Object, error) {
		o := NewObject(rootObjectType(reg))
		*v = Obj(o)
		return o, nil
	},
	ensureAlias: wrapAlias,
}

var boolTable = &typeTable{
	isNull:  func(Value) bool { return false },
	isEmpty: func(v Value) bool { return v.long == 0 },
	toBool:  func(v Value) bool { return v.long != 0 },
	toLong:  func(v Value, _ *ConvContext) int64 { return v.long },
	toDouble: func(v Value, _ *ConvContext) float64 {
		return float64(v.long)
	},
	toString: func(v Value, _ *ConvContext) string {
		if v.long != 0 {
			return "1"
		}
		return ""
	},
	compare:      compareBoolWith,
	deepCopy:     identityCopy,
	ensureArray:  cannotBeArray,
	ensureObject: cannotBeObject,
	ensureAlias:  wrapAlias,
}

var longTable = &typeTable{
	isNull:   func(Value) bool { return false },
	isEmpty:  func(v Value) bool { return v.long == 0 },
	toBool:   func(v Value) bool { return v.long != 0 },
	toLong:   func(v Value, _ *ConvContext) int64 { return v.long },
	toDouble: func(v Value, _ *ConvContext) float64 { return float64(v.long) },
	toString: func(v Value, _ *ConvContext) string {
		return fmt.Sprintf("%d", v.long)
	},
	compare:      compareLongWith,
	deepCopy:     identityCopy,
	ensureArray:  cannotBeArray,
	ensureObject: cannotBeObject,
	ensureAlias:  wrapAlias,
}

var doubleTable = &typeTable{
	isNull:   func(Value) bool { return false },
	isEmpty:  func(v Value) bool { return v.dbl == 0 },
	toBool:   func(v Value) bool { return v.dbl != 0 },
	toLong:   func(v Value, cc *ConvContext) int64 { return doubleToLong(v.dbl, cc) },
	toDouble: func(v Value, _ *ConvContext) float64 { return v.dbl },
	toString: func(v Value, _ *ConvContext) string {
		return doubleToString(v.dbl)
	},
	compare:      compareDoubleWith,
	deepCopy:     identityCopy,
	ensureArray:  cannotBeArray,
	ensureObject: cannotBeObject,
	ensureAlias:  wrapAlias,
}

var stringTable = &typeTable{
	isNull:   func(Value) bool { return false },
	isEmpty:  func(v Value) bool { return stringIsFalsy(v.AsString()) },
	toBool:   func(v Value) bool { return !stringIsFalsy(v.AsString()) },
	toLong:   func(v Value, cc *ConvContext) int64 { return stringToLong(v.AsString(), cc) },
	toDouble: func(v Value, cc *ConvContext) float64 { return stringToDouble(v.AsString(), cc) },
	toString: func(v Value, _ *ConvContext) string { return v.AsString() },
	compare: func(v, other Value, cc *ConvContext) int {
		return compareStringWith(v.AsString(), other, cc)
	},
	deepCopy:     identityCopy,
	ensureArray:  cannotBeArray,
	ensureObject: cannotBeObject,
	ensureAlias:  wrapAlias,
}

var mutStringTable = &typeTable{
	isNull:   func(Value) bool { return false },
	isEmpty:  func(v Value) bool { return stringIsFalsy(v.AsMutString().String()) },
	toBool:   func(v Value) bool { return !stringIsFalsy(v.AsMutString().String()) },
	toLong:   func(v Value, cc *ConvContext) int64 { return stringToLong(v.AsMutString().String(), cc) },
	toDouble: func(v Value, cc *ConvContext) float64 { return stringToDouble(v.AsMutString().String(), cc) },
	toString: func(v Value, _ *ConvContext) string { return v.AsMutString().String() },
	compare: func(v, other Value, cc *ConvContext) int {
		return compareStringWith(v.AsMutString().String(), other, cc)
	},
	deepCopy: func(v Value) Value {
		return MutStr(v.AsMutString().Clone())
	},
	ensureArray:  cannotBeArray,
	ensureObject: cannotBeObject,
	ensureAlias:  wrapAlias,
}

var arrayTable = &typeTable{
	isNull:  func(Value) bool { return false },
	isEmpty: func(v Value) bool { return v.AsArray().Len() == 0 },
	toBool:  func(v Value) bool { return v.AsArray().Len() != 0 },
	toLong: func(v Value, cc *ConvContext) int64 {
		cc.warn("array converted to integer")
		if v.AsArray().Len() != 0 {
			return 1
		}
		return 0
	},
	toDouble: func(v Value, cc *ConvContext) float64 {
		cc.warn("array converted to float")
		if v.AsArray().Len() != 0 {
			return 1
		}
		return 0
	},
	toString: func(v Value, cc *ConvContext) string {
		cc.warn("array converted to string")
		return "Array"
	},
	compare: compareArrayWith,
	deepCopy: func(v Value) Value {
		return Arr(v.AsArray().DeepCopy())
	},
	ensureArray: func(v *Value) (*Array, error) {
		return v.AsArray(), nil
	},
	ensureObject: cannotBeObject,
	ensureAlias:  wrapAlias,
}

var objectTable = &typeTable{
	isNull:  func(Value) bool { return false },
	isEmpty: func(Value) bool { return false },
	toBool:  func(Value) bool { return true },
	toLong: func(v Value, cc *ConvContext) int64 {
		cc.warn("object of type %s converted to integer", v.AsObject().Type().Name())
		return 1
	},
	toDouble: func(v Value, cc *ConvContext) float64 {
		cc.warn("object of type %s converted to float", v.AsObject().Type().Name())
		return 1
	},
	toString: func(v Value, cc *ConvContext) string {
		cc.warn("object of type %s converted to string", v.AsObject().Type().Name())
		return v.AsObject().Type().Name()
	},
	compare:     compareObjectWith,
	deepCopy:    identityCopy,
	ensureArray: cannotBeArray,
	ensureObject: func(v *Value, _ *Registry) (*Object, error) {
		return v.AsObject(), nil
	},
	ensureAlias: wrapAlias,
}

var aliasTable = &typeTable{
	isNull:  func(v Value) bool { return v.Deref().IsNull() },
	isEmpty: func(v Value) bool { return v.Deref().IsEmpty() },
	toBool:  func(v Value) bool { return v.Deref().ToBool() },
	toLong: func(v Value, cc *ConvContext) int64 {
		return v.Deref().ToLong(cc)
	},
	toDouble: func(v Value, cc *ConvContext) float64 {
		return v.Deref().ToDouble(cc)
	},
	toString: func(v Value, cc *ConvContext) string {
		return v.Deref().ToString(cc)
	},
	compare: func(v, other Value, cc *ConvContext) int {
		return Compare(v.Deref(), other, cc)
	},
	deepCopy: identityCopy,
	ensureArray: func(v *Value) (*Array, error) {
		a := v.AsAlias()
		inner := a.GetValue()
		arr, err := EnsureArray(&inner)
		if err != nil {
			return nil, err
		}
		a.SetValue(inner)
		return arr, nil
	},
	ensureObject: func(v *Value, reg *Registry) (*Object, error) {
		a := v.AsAlias()
		inner := a.GetValue()
		obj, err := EnsureObject(&inner, reg)
		if err != nil {
			return nil, err
		}
		a.SetValue(inner)
		return obj, nil
	},
	ensureAlias: func(v *Value) *Alias { return v.AsAlias() },
}
