package types

import (
	"fmt"
	"strings"
)

// Ref describes one concrete type a mask bit can stand for. Implementations
// are value-like: equality is by Key, and Transfer re-expresses any masks a
// ref embeds in a different context.
type Ref interface {
	// Key is the dedup identity of the ref within a context.
	Key() string
	// QualifiedName is the source-level name (empty for anonymous lambdas).
	QualifiedName() string

	IsObject() bool
	IsArray() bool
	IsPrimitive() bool
	IsLambda() bool

	// Transfer re-interns any masks embedded in the ref from src into dst.
	// Identity when the contexts match or the embedded masks are trivial
	// (void or AnyType).
	Transfer(src, dst *Context) Ref
}

// PrimKind enumerates the primitive representations of the language.
type PrimKind uint8

const (
	PrimNull PrimKind = iota
	PrimBool
	PrimLong
	PrimDouble
	PrimString
	PrimResource
)

func (k PrimKind) String() string {
	switch k {
	case PrimNull:
		return "null"
	case PrimBool:
		return "bool"
	case PrimLong:
		return "long"
	case PrimDouble:
		return "double"
	case PrimString:
		return "string"
	case PrimResource:
		return "resource"
	default:
		return fmt.Sprintf("PrimKind(%d)", k)
	}
}

// PrimRef is a primitive type reference.
type PrimRef struct {
	Kind PrimKind
}

func (r PrimRef) Key() string           { return "p:" + r.Kind.String() }
func (r PrimRef) QualifiedName() string { return r.Kind.String() }
func (r PrimRef) IsObject() bool        { return false }
func (r PrimRef) IsArray() bool         { return false }
func (r PrimRef) IsPrimitive() bool     { return true }
func (r PrimRef) IsLambda() bool        { return false }

func (r PrimRef) Transfer(_, _ *Context) Ref { return r }

// ClassRef is a reference to a user or library class by qualified name.
type ClassRef struct {
	Name string
}

func (r ClassRef) Key() string           { return "c:" + r.Name }
func (r ClassRef) QualifiedName() string { return r.Name }
func (r ClassRef) IsObject() bool        { return true }
func (r ClassRef) IsArray() bool         { return false }
func (r ClassRef) IsPrimitive() bool     { return false }
func (r ClassRef) IsLambda() bool        { return false }

func (r ClassRef) Transfer(_, _ *Context) Ref { return r }

// GenericClassRef is a class reference with type arguments. Arguments are
// masks and therefore context-bound.
type GenericClassRef struct {
	Name string
	Args []TypeRefMask
}

func (r GenericClassRef) Key() string {
	var sb strings.Builder
	sb.WriteString("g:")
	sb.WriteString(r.Name)
	for _, a := range r.Args {
		fmt.Fprintf(&sb, "<%x>", uint64(a))
	}
	return sb.String()
}

func (r GenericClassRef) QualifiedName() string { return r.Name }
func (r GenericClassRef) IsObject() bool        { return true }
func (r GenericClassRef) IsArray() bool         { return false }
func (r GenericClassRef) IsPrimitive() bool     { return false }
func (r GenericClassRef) IsLambda() bool        { return false }

func (r GenericClassRef) Transfer(src, dst *Context) Ref {
	if src == dst {
		return r
	}
	changed := false
	args := make([]TypeRefMask, len(r.Args))
	for i, a := range r.Args {
		args[i] = transferMask(a, src, dst)
		if args[i] != a {
			changed = true
		}
	}
	if !changed {
		return r
	}
	return GenericClassRef{Name: r.Name, Args: args}
}

// ArrayKeyKind describes the statically known key shape of an array type.
type ArrayKeyKind uint8

const (
	ArrayKeyAny ArrayKeyKind = iota
	ArrayKeyInt
	ArrayKeyString
)

// ArrayRef is an array-of type reference: element mask plus key shape.
type ArrayRef struct {
	Elem TypeRefMask
	Key_ ArrayKeyKind
}

func (r ArrayRef) Key() string {
	return fmt.Sprintf("a:%d:%x", r.Key_, uint64(r.Elem))
}

func (r ArrayRef) QualifiedName() string { return "array" }
func (r ArrayRef) IsObject() bool        { return false }
func (r ArrayRef) IsArray() bool         { return true }
func (r ArrayRef) IsPrimitive() bool     { return false }
func (r ArrayRef) IsLambda() bool        { return false }

func (r ArrayRef) Transfer(src, dst *Context) Ref {
	if src == dst {
		return r
	}
	elem := transferMask(r.Elem, src, dst)
	if elem == r.Elem {
		return r
	}
	return ArrayRef{Elem: elem, Key_: r.Key_}
}

// LambdaRef is a closure type reference: parameter masks and a return mask.
type LambdaRef struct {
	Params []TypeRefMask
	Return TypeRefMask
}

func (r LambdaRef) Key() string {
	var sb strings.Builder
	sb.WriteString("l:")
	for _, p := range r.Params {
		fmt.Fprintf(&sb, "%x,", uint64(p))
	}
	fmt.Fprintf(&sb, ":%x", uint64(r.Return))
	return sb.String()
}

func (r LambdaRef) QualifiedName() string { return "" }
func (r LambdaRef) IsObject() bool        { return true }
func (r LambdaRef) IsArray() bool         { return false }
func (r LambdaRef) IsPrimitive() bool     { return false }
func (r LambdaRef) IsLambda() bool        { return true }

func (r LambdaRef) Transfer(src, dst *Context) Ref {
	if src == dst {
		return r
	}
	changed := false
	params := make([]TypeRefMask, len(r.Params))
	for i, p := range r.Params {
		params[i] = transferMask(p, src, dst)
		if params[i] != p {
			changed = true
		}
	}
	ret := transferMask(r.Return, src, dst)
	if ret != r.Return {
		changed = true
	}
	if !changed {
		return r
	}
	return LambdaRef{Params: params, Return: ret}
}

// transferMask re-interns an embedded mask. Trivial masks (void, AnyType)
// transfer as themselves.
func transferMask(m TypeRefMask, src, dst *Context) TypeRefMask {
	if m.IsVoid() || m.IsAnyType() || src == dst || src == nil || dst == nil {
		return m
	}
	return dst.AddToContext(m, src)
}
