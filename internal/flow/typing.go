package flow

import (
	"fmt"

	"fern/internal/bound"
	"fern/internal/diag"
	"fern/internal/types"
)

// typeExpr computes the type mask of an expression at the given state,
// reporting flow diagnostics along the way. It never fails: when precision
// is lost the result degrades to AnyType so downstream blocks still get an
// answer.
func (a *Analyzer) typeExpr(e *bound.Expr, s *State) types.TypeRefMask {
	if e == nil {
		return a.fc.TypeContext().GetNullTypeMask()
	}
	tc := a.fc.TypeContext()
	switch d := e.Data.(type) {
	case bound.LiteralData:
		switch d.Kind {
		case bound.LitNull:
			return tc.GetNullTypeMask()
		case bound.LitBool:
			return tc.GetBoolTypeMask()
		case bound.LitLong:
			return tc.GetLongTypeMask()
		case bound.LitDouble:
			return tc.GetDoubleTypeMask()
		case bound.LitString:
			return tc.GetStringTypeMask()
		}
		return types.AnyType

	case bound.VarUseData:
		slot, ok := a.fc.TryGetVarIndex(d.Name)
		if !ok {
			return types.AnyType
		}
		a.fc.SetUsed(slot)
		m := s.VarType(slot)
		if m.IsVoid() {
			a.rep.Report(diag.FlowUseBeforeAssign, diag.SevWarning, e.Span,
				fmt.Sprintf("variable $%s may be used before assignment", d.Name), nil)
			// An unassigned variable reads as null.
			return tc.GetNullTypeMask()
		}
		return m

	case bound.UnaryData:
		operand := a.typeExpr(d.Operand, s)
		switch d.Op {
		case bound.OpNot:
			return tc.GetBoolTypeMask()
		case bound.OpBitNot:
			return tc.GetLongTypeMask()
		default: // OpNeg, OpPlus
			if operand == tc.GetDoubleTypeMask() {
				return tc.GetDoubleTypeMask()
			}
			return tc.GetNumberTypeMask()
		}

	case bound.BinaryData:
		return a.typeBinary(d, s)

	case bound.CallData:
		return a.typeCall(e, d, s)

	case bound.NewData:
		for _, arg := range d.Args {
			a.typeExpr(arg, s)
		}
		return tc.GetTypeMask(types.ClassRef{Name: d.ClassName})

	case bound.IndexData:
		subject := a.typeExpr(d.Subject, s)
		a.typeExpr(d.Index, s)
		return a.elementType(subject)

	case bound.FieldData:
		a.typeExpr(d.Subject, s)
		return types.AnyType

	case bound.LambdaData:
		params := make([]types.TypeRefMask, len(d.Params))
		for i, p := range d.Params {
			params[i] = HintMask(tc, p.TypeHint)
		}
		for _, u := range d.Uses {
			if slot, ok := a.fc.TryGetVarIndex(u.Name); ok {
				a.fc.SetUsed(slot)
				if u.ByRef {
					a.fc.SetVarRef(slot)
				}
			}
		}
		return tc.GetTypeMask(types.LambdaRef{Params: params, Return: types.AnyType})

	case bound.TernaryData:
		cond := a.typeExpr(d.Cond, s)
		var thenMask types.TypeRefMask
		if d.Then != nil {
			thenMask = a.typeExpr(d.Then, s)
		} else {
			// Short form: the condition value itself is the result.
			thenMask = cond
		}
		return thenMask.Union(a.typeExpr(d.Else, s))

	case bound.IssetData:
		for _, v := range d.Vars {
			if vu, ok := v.Data.(bound.VarUseData); ok {
				// isset does not count as a read of an unassigned var.
				if slot, ok := a.fc.TryGetVarIndex(vu.Name); ok {
					a.fc.SetUsed(slot)
				}
				continue
			}
			a.typeExpr(v, s)
		}
		return tc.GetBoolTypeMask()

	case bound.ArrayLitData:
		elem := types.Void
		for _, it := range d.Items {
			a.typeExpr(it.Key, s)
			elem = elem.Union(a.typeExpr(it.Value, s))
		}
		if elem.IsVoid() {
			elem = types.AnyType
		}
		return tc.GetTypeMask(types.ArrayRef{Elem: elem, Key_: types.ArrayKeyAny})

	default:
		return types.AnyType
	}
}

func (a *Analyzer) typeBinary(d bound.BinaryData, s *State) types.TypeRefMask {
	tc := a.fc.TypeContext()
	left := a.typeExpr(d.Left, s)
	right := a.typeExpr(d.Right, s)

	switch d.Op {
	case bound.OpAdd:
		// Array + array is array union; anything else is numeric.
		if tc.IsArrayOnly(left) && tc.IsArrayOnly(right) {
			return left.Union(right)
		}
		return numericResult(tc, left, right)
	case bound.OpSub, bound.OpMul, bound.OpDiv:
		return numericResult(tc, left, right)
	case bound.OpMod, bound.OpBitAnd, bound.OpBitOr, bound.OpBitXor, bound.OpShl, bound.OpShr:
		return tc.GetLongTypeMask()
	case bound.OpConcat:
		return tc.GetStringTypeMask()
	case bound.OpEq, bound.OpNotEq, bound.OpIdentical, bound.OpNotIdentical,
		bound.OpLess, bound.OpLessEq, bound.OpGreater, bound.OpGreaterEq,
		bound.OpAnd, bound.OpOr:
		return tc.GetBoolTypeMask()
	case bound.OpCoalesce:
		return left.Union(right)
	default:
		return types.AnyType
	}
}

// numericResult narrows arithmetic to double when both operands are known
// doubles; otherwise long|double.
func numericResult(tc *types.Context, left, right types.TypeRefMask) types.TypeRefMask {
	dbl := tc.GetDoubleTypeMask()
	if left == dbl && right == dbl {
		return dbl
	}
	return tc.GetNumberTypeMask()
}

func (a *Analyzer) typeCall(e *bound.Expr, d bound.CallData, s *State) types.TypeRefMask {
	for _, arg := range d.Args {
		a.typeExpr(arg, s)
	}
	if d.Recv != nil {
		// Dynamic method dispatch: the receiver's runtime type decides.
		a.typeExpr(d.Recv, s)
		return types.AnyType
	}
	sig, ok := a.lookup.LookupRoutine(d.Name)
	if !ok {
		a.rep.Report(diag.FlowUnresolvedSymbol, diag.SevWarning, e.Span,
			fmt.Sprintf("cannot resolve routine %q, assuming mixed result", d.Name), nil)
		return types.AnyType
	}
	required := 0
	for _, p := range sig.Params {
		if !p.Optional {
			required++
		}
	}
	if len(d.Args) < required || len(d.Args) > len(sig.Params) {
		a.rep.Report(diag.FlowBadArgumentCount, diag.SevWarning, e.Span,
			fmt.Sprintf("%s expects %d..%d arguments, got %d",
				d.Name, required, len(sig.Params), len(d.Args)), nil)
	}
	// By-ref parameters alias their argument for the rest of the routine.
	for i, p := range sig.Params {
		if !p.ByRef || i >= len(d.Args) {
			continue
		}
		if vu, ok := d.Args[i].Data.(bound.VarUseData); ok {
			if slot, ok := a.fc.TryGetVarIndex(vu.Name); ok {
				a.fc.SetVarRef(slot)
			}
		}
	}
	return a.fc.TypeContext().AddToContext(sig.Return, sig.Ctx)
}

// elementType extracts the element mask when every type in subject is an
// array with a known element mask.
func (a *Analyzer) elementType(subject types.TypeRefMask) types.TypeRefMask {
	tc := a.fc.TypeContext()
	if subject.IsVoid() || subject.IsAnyType() {
		return types.AnyType
	}
	elem := types.Void
	for _, ref := range tc.Types(subject) {
		ar, ok := ref.(types.ArrayRef)
		if !ok {
			return types.AnyType
		}
		if ar.Elem.IsAnyType() {
			return types.AnyType
		}
		elem = elem.Union(ar.Elem)
	}
	if elem.IsVoid() {
		return types.AnyType
	}
	return elem
}
