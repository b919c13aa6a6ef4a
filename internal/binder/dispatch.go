package binder

import (
	"errors"
	"fmt"

	"fern/internal/diag"
	"fern/internal/rt"
	"fern/internal/source"
)

// convertArg reshapes v into the host-native representation target.
// Resolve has already graded the conversion, so anything the grade
// admits converts here without failing.
func convertArg(v rt.Value, target rt.ParamType, cc *rt.ConvContext) rt.Value {
	if target == rt.ParamAlias {
		if v.Tag() == rt.TagAlias {
			return v
		}
		return rt.Ref(rt.NewAlias(v))
	}
	v = v.Deref()
	switch target {
	case rt.ParamBool:
		return rt.Bool(v.ToBool())
	case rt.ParamLong:
		return rt.Long(v.ToLong(cc))
	case rt.ParamDouble:
		return rt.Double(v.ToDouble(cc))
	case rt.ParamString:
		return rt.Str(v.ToString(cc))
	default:
		return v
	}
}

// Call binds and invokes the member name on recv. The overload set is
// collected across the receiver's base chain.
func Call(recv *rt.Object, name string, args []rt.Value, cc *rt.ConvContext) (rt.Value, error) {
	m, _, err := Resolve(recv.Type().FindMethod(name), args)
	if err != nil {
		return rt.Null(), fmt.Errorf("%s::%s: %w", recv.Type().Name(), name, err)
	}
	return invoke(m, recv, args, cc)
}

// Construct binds a constructor overload callable from vis and runs it
// against a fresh instance of typ. A type with no constructors accepts
// only the empty argument list.
func Construct(typ *rt.TypeInfo, vis rt.Visibility, args []rt.Value, cc *rt.ConvContext) (*rt.Object, error) {
	ctors := typ.Constructors(vis)
	if len(ctors) == 0 {
		if declaresConstructor(typ) || len(args) != 0 {
			return nil, fmt.Errorf("new %s: %w", typ.Name(), ErrNoMatch)
		}
		return rt.NewObject(typ), nil
	}
	m, _, err := Resolve(ctors, args)
	if err != nil {
		return nil, fmt.Errorf("new %s: %w", typ.Name(), err)
	}
	o := rt.NewObject(typ)
	if _, err := invoke(m, o, args, cc); err != nil {
		return nil, err
	}
	return o, nil
}

// declaresConstructor reports whether typ has any constructor overload,
// visible or not. A type that declares one never falls back to bare
// construction.
func declaresConstructor(typ *rt.TypeInfo) bool {
	for _, m := range typ.Methods() {
		if m.IsConstructor {
			return true
		}
	}
	return false
}

func invoke(m *rt.MethodInfo, recv *rt.Object, args []rt.Value, cc *rt.ConvContext) (rt.Value, error) {
	if m.Invoke == nil {
		return rt.Null(), fmt.Errorf("binder: %s is abstract", m.Name)
	}
	native := make([]rt.Value, len(args))
	for i, a := range args {
		native[i] = convertArg(a, m.Params[i], cc)
	}
	return m.Invoke(recv, native, cc)
}

// Diagnose converts a binding failure on callee into its diagnostic. A
// cost tie carries a distinct code from an empty applicable set.
func Diagnose(err error, callee string, sp source.Span) diag.Diagnostic {
	code := diag.BindFailed
	if errors.Is(err, ErrAmbiguous) {
		code = diag.BindAmbiguous
	}
	return diag.NewError(code, sp, fmt.Sprintf("cannot bind call to %s: %v", callee, err))
}
