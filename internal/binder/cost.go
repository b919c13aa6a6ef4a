// Package binder selects among candidate native signatures at
// dynamically-typed call sites using a total-ordered conversion cost.
package binder

import (
	"fern/internal/rt"
)

// Cost grades one argument-to-parameter conversion. Lower is better;
// a call binds only as well as its worst parameter.
type Cost uint8

const (
	// Pass is an identity match.
	Pass Cost = iota
	// PassCostly is a safe wrap, such as boxing into the universal
	// value representation.
	PassCostly
	// ImplicitCast is a widening conversion.
	ImplicitCast
	// LoosingPrecision is a narrowing or semantic coercion.
	LoosingPrecision
	// Warning is a surprising but defined conversion.
	Warning
	// NoConversion means the conversion is not defined.
	NoConversion
	// Error means the candidate cannot apply at all, such as an arity
	// mismatch.
	Error
)

// String returns a human-readable cost name.
func (c Cost) String() string {
	switch c {
	case Pass:
		return "pass"
	case PassCostly:
		return "pass-costly"
	case ImplicitCast:
		return "implicit-cast"
	case LoosingPrecision:
		return "loosing-precision"
	case Warning:
		return "warning"
	case NoConversion:
		return "no-conversion"
	default:
		return "error"
	}
}

// Max returns the worse of two costs.
func Max(a, b Cost) Cost {
	if a > b {
		return a
	}
	return b
}

// CostOf grades converting v into the host-native representation
// target. It never mutates v and is safe to re-evaluate concurrently.
func CostOf(v rt.Value, target rt.ParamType) Cost {
	if target == rt.ParamAlias {
		if v.Tag() == rt.TagAlias {
			return Pass
		}
		return PassCostly
	}
	v = v.Deref()
	if target == rt.ParamValue {
		return PassCostly
	}
	switch v.Tag() {
	case rt.TagDefault, rt.TagNull:
		switch target {
		case rt.ParamArray, rt.ParamObject:
			return NoConversion
		default:
			return LoosingPrecision
		}
	case rt.TagBool:
		switch target {
		case rt.ParamBool:
			return Pass
		case rt.ParamLong, rt.ParamDouble, rt.ParamString:
			return ImplicitCast
		default:
			return NoConversion
		}
	case rt.TagLong:
		switch target {
		case rt.ParamLong:
			return Pass
		case rt.ParamDouble, rt.ParamString:
			return ImplicitCast
		case rt.ParamBool:
			return LoosingPrecision
		default:
			return NoConversion
		}
	case rt.TagDouble:
		switch target {
		case rt.ParamDouble:
			return Pass
		case rt.ParamString:
			return ImplicitCast
		case rt.ParamLong, rt.ParamBool:
			return LoosingPrecision
		default:
			return NoConversion
		}
	case rt.TagString, rt.TagMutString:
		switch target {
		case rt.ParamString:
			return Pass
		case rt.ParamLong, rt.ParamDouble:
			return stringNumberCost(v)
		case rt.ParamBool:
			return LoosingPrecision
		default:
			return NoConversion
		}
	case rt.TagArray:
		switch target {
		case rt.ParamArray:
			return Pass
		case rt.ParamBool:
			return LoosingPrecision
		case rt.ParamString, rt.ParamLong, rt.ParamDouble:
			return Warning
		default:
			return NoConversion
		}
	case rt.TagObject:
		switch target {
		case rt.ParamObject:
			return Pass
		case rt.ParamBool:
			return LoosingPrecision
		case rt.ParamString:
			return Warning
		default:
			return NoConversion
		}
	default:
		return NoConversion
	}
}

// stringNumberCost grades a string argument against a numeric
// parameter: a fully numeric string widens, anything else converts as
// zero with a runtime warning.
func stringNumberCost(v rt.Value) Cost {
	s := v.ToString(nil)
	kind, _, _, consumed := rt.ParseNumberPrefix(s)
	if kind != rt.NotNumber && consumed == len(s) {
		return ImplicitCast
	}
	return Warning
}

// BindCost grades a whole call against one candidate's parameter list.
// Aggregation is Max across parameters; an arity mismatch is Error.
func BindCost(args []rt.Value, params []rt.ParamType) Cost {
	if len(args) != len(params) {
		return Error
	}
	cost := Pass
	for i, a := range args {
		cost = Max(cost, CostOf(a, params[i]))
		if cost >= Error {
			return cost
		}
	}
	return cost
}
