package flow

import (
	"fern/internal/bound"
	"fern/internal/diag"
	"fern/internal/types"
)

// AnalyzeRoutine builds the CFG for a routine and iterates the type
// analysis to its fixed point. The returned flow context is frozen and
// ready for code generation.
func AnalyzeRoutine(r *bound.Routine, lookup RoutineLookup, rep diag.Reporter) (*Graph, *FlowContext) {
	g := Build(r, rep)
	fc := NewFlowContext(types.NewContext())
	a := NewAnalyzer(g, fc, lookup, rep)
	a.Run()
	fc.Freeze()
	return g, fc
}

// SignatureOf derives the externally visible signature of an analyzed
// routine: declared parameter hints plus the converged return mask.
func SignatureOf(r *bound.Routine, fc *FlowContext) *Signature {
	tc := fc.TypeContext()
	sig := &Signature{
		Name:   r.Name,
		Ctx:    tc,
		Return: fc.ReturnType(),
	}
	for _, p := range r.Params {
		sig.Params = append(sig.Params, SigParam{
			Name:     p.Name,
			ByRef:    p.ByRef,
			Optional: p.Optional,
			Mask:     HintMask(tc, p.TypeHint),
		})
	}
	return sig
}
