package bound

import (
	"fern/internal/source"
)

// Param is a declared routine parameter.
type Param struct {
	Name     string
	ByRef    bool
	TypeHint string // declared hint ("", "int", "string", "array", class name)
	Optional bool
}

// Routine is one routine body as delivered by the front end: a name, its
// parameters and an ordered statement list.
type Routine struct {
	Name        string
	Params      []Param
	Body        []Stmt
	IsGenerator bool // contains at least one yield
	Span        source.Span
}

// Module groups the routines of one compiled unit in input order.
type Module struct {
	Name     string
	Routines []Routine
}

// HasYield scans stmts (without descending into lambdas) for a yield.
// The front end sets Routine.IsGenerator, but decoded payloads are
// re-checked so a mislabeled routine cannot corrupt codegen's state
// machine.
func HasYield(stmts []Stmt) bool {
	for i := range stmts {
		if stmtHasYield(&stmts[i]) {
			return true
		}
	}
	return false
}

func stmtHasYield(s *Stmt) bool {
	switch d := s.Data.(type) {
	case YieldData:
		return true
	case IfData:
		return HasYield(d.Then) || HasYield(d.Else)
	case WhileData:
		return HasYield(d.Body)
	case ForeachData:
		return HasYield(d.Body)
	case SwitchData:
		for _, c := range d.Cases {
			if HasYield(c.Body) {
				return true
			}
		}
	case TryData:
		if HasYield(d.Body) || HasYield(d.Finally) {
			return true
		}
		for _, c := range d.Catches {
			if HasYield(c.Body) {
				return true
			}
		}
	case BlockData:
		return HasYield(d.Body)
	}
	return false
}
