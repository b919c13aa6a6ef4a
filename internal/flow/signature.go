package flow

import (
	"fern/internal/types"
)

// SigParam is one declared parameter of a known routine.
type SigParam struct {
	Name     string
	ByRef    bool
	Optional bool
	Mask     types.TypeRefMask
}

// Signature is the externally visible type summary of a routine. Its
// masks are expressed against Ctx; consumers in another routine must
// transfer them with AddToContext.
type Signature struct {
	Name   string
	Ctx    *types.Context
	Params []SigParam
	Return types.TypeRefMask
}

// RoutineLookup resolves a call-site name to a routine signature. The
// driver implements it over the module being compiled plus the library
// surface.
type RoutineLookup interface {
	LookupRoutine(name string) (*Signature, bool)
}

// NoLookup resolves nothing. Analysis falls back to AnyType for every
// call.
type NoLookup struct{}

func (NoLookup) LookupRoutine(string) (*Signature, bool) { return nil, false }

// HintMask translates a declared parameter hint into a mask in tc.
// Unknown or empty hints are AnyType.
func HintMask(tc *types.Context, hint string) types.TypeRefMask {
	switch hint {
	case "":
		return types.AnyType
	case "int":
		return tc.GetLongTypeMask()
	case "float", "double":
		return tc.GetDoubleTypeMask()
	case "string":
		return tc.GetStringTypeMask()
	case "bool":
		return tc.GetBoolTypeMask()
	case "null":
		return tc.GetNullTypeMask()
	case "array":
		return tc.GetArrayTypeMask()
	case "callable":
		return tc.GetTypeMask(types.LambdaRef{Return: types.AnyType})
	default:
		return tc.GetTypeMask(types.ClassRef{Name: hint})
	}
}
