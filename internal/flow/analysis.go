package flow

import (
	"fern/internal/bound"
	"fern/internal/diag"
	"fern/internal/types"
)

type blockStatus uint8

const (
	statusIdle blockStatus = iota
	statusQueued
	statusInProgress
	statusStable
)

// Analyzer runs the worklist-driven forward type analysis over one
// routine's CFG. It is strictly single-threaded: the flow context it
// mutates is shared by every block visit. Independent routines run
// concurrently in the driver, each with its own Analyzer.
type Analyzer struct {
	g      *Graph
	fc     *FlowContext
	lookup RoutineLookup
	rep    diag.Reporter

	entry  []*State
	status []blockStatus
	queue  []BlockID
}

// NewAnalyzer prepares analysis state for the graph: registers every
// variable of the routine and seeds parameter types from their declared
// hints.
func NewAnalyzer(g *Graph, fc *FlowContext, lookup RoutineLookup, rep diag.Reporter) *Analyzer {
	if lookup == nil {
		lookup = NoLookup{}
	}
	if rep == nil {
		rep = diag.NopReporter{}
	}
	registerVars(fc, g.Routine)
	a := &Analyzer{
		g:      g,
		fc:     fc,
		lookup: lookup,
		rep:    rep,
		entry:  make([]*State, len(g.Blocks())),
		status: make([]blockStatus, len(g.Blocks())),
	}
	return a
}

// FlowContext returns the analysis target.
func (a *Analyzer) FlowContext() *FlowContext { return a.fc }

// Run iterates to a fixed point. Termination is guaranteed by the mask
// lattice: every re-visit strictly grows some block's entry state or the
// worklist drains. Running again after convergence changes nothing.
func (a *Analyzer) Run() {
	tc := a.fc.TypeContext()

	init := NewState(a.fc)
	for _, p := range a.g.Routine.Params {
		slot := a.fc.GetVarIndex(p.Name)
		mask := HintMask(tc, p.TypeHint)
		if p.ByRef {
			a.fc.SetVarRef(slot)
		}
		init.Assign(slot, mask)
	}

	a.mergeInto(a.g.Start, init)
	for len(a.queue) > 0 {
		id := a.queue[0]
		a.queue = a.queue[1:]
		a.status[id] = statusInProgress
		a.visit(id)
		if a.status[id] == statusInProgress {
			a.status[id] = statusStable
		}
	}

	if a.g.Routine.IsGenerator {
		a.checkGeneratorReturns()
	}
	// A routine that can fall through its Exit returns null.
	if a.fc.ReturnType().IsVoid() {
		a.fc.AddReturnType(tc.GetNullTypeMask())
	}
}

// visit runs the forward transfer function over one block and propagates
// the exit state to its successors.
func (a *Analyzer) visit(id BlockID) {
	b := a.g.Block(id)
	s := a.entry[id].Clone()

	for i := range b.Stmts {
		a.transferStmt(&b.Stmts[i], s)
	}

	switch b.Term.Kind {
	case TermIf:
		a.typeExpr(b.Term.Cond, s)
		a.mergeInto(b.Term.Next, s)
		a.mergeInto(b.Term.Alt, s)
	case TermSwitch:
		a.typeExpr(b.Term.Subject, s)
		for _, c := range b.Term.Cases {
			if c.Match != nil {
				a.typeExpr(c.Match, s)
			}
			a.mergeInto(c.Target, s)
		}
	case TermForeach:
		subject := a.typeExpr(b.Term.Subject, s)
		body := s.Clone()
		a.bindForeach(b.Term.Foreach, subject, body)
		a.mergeInto(b.Term.Next, body)
		a.mergeInto(b.Term.Alt, s)
	default: // TermNext, TermReturn, TermThrow
		if b.Term.Next != NoBlockID {
			a.mergeInto(b.Term.Next, s)
		}
	}
	for _, succ := range b.ExtraSuccs {
		a.mergeInto(succ, s)
	}
}

// mergeInto unions state into the successor's entry state and enqueues
// the successor when it changed (or was never seen). Self-edges re-enqueue
// the same block: loop back-edges converge through repeated visits.
func (a *Analyzer) mergeInto(id BlockID, s *State) {
	if id == NoBlockID || id == a.g.Exit {
		return
	}
	changed := false
	if a.entry[id] == nil {
		a.entry[id] = s.Clone()
		changed = true
	} else if a.entry[id].MergeWith(s) {
		changed = true
	}
	if changed && a.status[id] != statusQueued {
		a.status[id] = statusQueued
		a.queue = append(a.queue, id)
	}
}

func (a *Analyzer) transferStmt(st *bound.Stmt, s *State) {
	switch d := st.Data.(type) {
	case bound.ExprStmtData:
		a.typeExpr(d.Expr, s)

	case bound.AssignData:
		v := a.typeExpr(d.Value, s)
		a.assignTo(d.Target, v, s)

	case bound.RefAssignData:
		v := a.typeExpr(d.Source, s)
		if vu, ok := d.Target.Data.(bound.VarUseData); ok {
			slot := a.fc.GetVarIndex(vu.Name)
			s.Assign(slot, v)
			a.fc.SetVarRef(slot)
		} else {
			a.rep.Report(diag.FlowCannotAlias, diag.SevWarning, d.Target.Span,
				"only a variable can hold a reference binding", nil)
		}
		// Taking a reference aliases the source as well.
		if vu, ok := d.Source.Data.(bound.VarUseData); ok {
			if slot, ok := a.fc.TryGetVarIndex(vu.Name); ok {
				a.fc.SetVarRef(slot)
			}
		}

	case bound.EchoData:
		for _, v := range d.Values {
			a.typeExpr(v, s)
		}

	case bound.ReturnData:
		a.fc.AddReturnType(a.typeExpr(d.Value, s))

	case bound.YieldData:
		a.typeExpr(d.Key, s)
		a.typeExpr(d.Value, s)

	case bound.ThrowData:
		a.typeExpr(d.Value, s)
	}
}

// assignTo routes an assigned value into the target's storage.
func (a *Analyzer) assignTo(target *bound.Expr, v types.TypeRefMask, s *State) {
	tc := a.fc.TypeContext()
	switch d := target.Data.(type) {
	case bound.VarUseData:
		s.Assign(a.fc.GetVarIndex(d.Name), v)

	case bound.IndexData:
		a.typeExpr(d.Index, s)
		// Writing an element makes the subject an array holding v.
		arr := tc.GetTypeMask(types.ArrayRef{Elem: v, Key_: types.ArrayKeyAny})
		if vu, ok := d.Subject.Data.(bound.VarUseData); ok {
			s.Assign(a.fc.GetVarIndex(vu.Name), arr)
		} else {
			a.typeExpr(d.Subject, s)
		}

	case bound.FieldData:
		a.typeExpr(d.Subject, s)

	default:
		a.typeExpr(target, s)
	}
}

// bindForeach assigns the key and value variables on the loop's body
// edge.
func (a *Analyzer) bindForeach(d *bound.ForeachData, subject types.TypeRefMask, s *State) {
	if d == nil {
		return
	}
	tc := a.fc.TypeContext()
	if d.KeyVar != "" {
		s.Assign(a.fc.GetVarIndex(d.KeyVar), tc.GetLongTypeMask().Union(tc.GetStringTypeMask()))
	}
	slot := a.fc.GetVarIndex(d.ValueVar)
	s.Assign(slot, a.elementType(subject))
	if d.ValueByRef {
		a.fc.SetVarRef(slot)
	}
}

// checkGeneratorReturns diagnoses value-carrying returns inside generator
// routines.
func (a *Analyzer) checkGeneratorReturns() {
	color := a.g.NewColor()
	for _, b := range a.g.Blocks() {
		if b.Color == color {
			continue
		}
		b.Color = color
		if b.Term.Kind != TermReturn || len(b.Stmts) == 0 {
			continue
		}
		last := &b.Stmts[len(b.Stmts)-1]
		if rd, ok := last.Data.(bound.ReturnData); ok && rd.Value != nil {
			a.rep.Report(diag.FlowGeneratorReturn, diag.SevWarning, last.Span,
				"generator routines yield values, the returned expression is only visible via getReturn", nil)
		}
	}
}
