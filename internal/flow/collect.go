package flow

import (
	"fern/internal/bound"
)

// registerVars walks the routine body once and registers every variable
// name with the flow context. All slots exist before the worklist runs:
// block states never have to grow mid-analysis, and AddVarType can treat
// an out-of-bounds slot as the no-op the contract demands.
func registerVars(fc *FlowContext, r *bound.Routine) {
	for _, p := range r.Params {
		fc.GetVarIndex(p.Name)
	}
	collectStmts(fc, r.Body)
}

func collectStmts(fc *FlowContext, stmts []bound.Stmt) {
	for i := range stmts {
		collectStmt(fc, &stmts[i])
	}
}

func collectStmt(fc *FlowContext, s *bound.Stmt) {
	switch d := s.Data.(type) {
	case bound.ExprStmtData:
		collectExpr(fc, d.Expr)
	case bound.AssignData:
		collectExpr(fc, d.Target)
		collectExpr(fc, d.Value)
	case bound.RefAssignData:
		collectExpr(fc, d.Target)
		collectExpr(fc, d.Source)
	case bound.IfData:
		collectExpr(fc, d.Cond)
		collectStmts(fc, d.Then)
		collectStmts(fc, d.Else)
	case bound.WhileData:
		collectExpr(fc, d.Cond)
		collectStmts(fc, d.Body)
	case bound.ForeachData:
		collectExpr(fc, d.Subject)
		if d.KeyVar != "" {
			fc.GetVarIndex(d.KeyVar)
		}
		fc.GetVarIndex(d.ValueVar)
		collectStmts(fc, d.Body)
	case bound.SwitchData:
		collectExpr(fc, d.Subject)
		for _, c := range d.Cases {
			collectExpr(fc, c.Match)
			collectStmts(fc, c.Body)
		}
	case bound.TryData:
		collectStmts(fc, d.Body)
		for _, c := range d.Catches {
			if c.Var != "" {
				fc.GetVarIndex(c.Var)
			}
			collectStmts(fc, c.Body)
		}
		collectStmts(fc, d.Finally)
	case bound.ReturnData:
		collectExpr(fc, d.Value)
	case bound.EchoData:
		for _, v := range d.Values {
			collectExpr(fc, v)
		}
	case bound.YieldData:
		collectExpr(fc, d.Key)
		collectExpr(fc, d.Value)
	case bound.BlockData:
		collectStmts(fc, d.Body)
	case bound.ThrowData:
		collectExpr(fc, d.Value)
	}
}

func collectExpr(fc *FlowContext, e *bound.Expr) {
	if e == nil {
		return
	}
	switch d := e.Data.(type) {
	case bound.VarUseData:
		fc.GetVarIndex(d.Name)
	case bound.UnaryData:
		collectExpr(fc, d.Operand)
	case bound.BinaryData:
		collectExpr(fc, d.Left)
		collectExpr(fc, d.Right)
	case bound.CallData:
		collectExpr(fc, d.Recv)
		for _, a := range d.Args {
			collectExpr(fc, a)
		}
	case bound.NewData:
		for _, a := range d.Args {
			collectExpr(fc, a)
		}
	case bound.IndexData:
		collectExpr(fc, d.Subject)
		collectExpr(fc, d.Index)
	case bound.FieldData:
		collectExpr(fc, d.Subject)
	case bound.TernaryData:
		collectExpr(fc, d.Cond)
		collectExpr(fc, d.Then)
		collectExpr(fc, d.Else)
	case bound.IssetData:
		for _, v := range d.Vars {
			collectExpr(fc, v)
		}
	case bound.ArrayLitData:
		for _, it := range d.Items {
			collectExpr(fc, it.Key)
			collectExpr(fc, it.Value)
		}
	case bound.LambdaData:
		// Lambda bodies own their variable scope; only the captured
		// names touch this routine's slots.
		for _, u := range d.Uses {
			fc.GetVarIndex(u.Name)
		}
	}
}
