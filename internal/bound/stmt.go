// Package bound defines the semantic statement and expression nodes the
// external front end delivers to the compiler core, plus the msgpack
// interchange codec for them. The CFG builder consumes these nodes; no
// source syntax is defined here.
package bound

import (
	"fern/internal/source"
)

// StmtKind enumerates bound statement kinds.
type StmtKind uint8

const (
	// StmtExpr represents an expression statement.
	StmtExpr StmtKind = iota
	// StmtAssign represents a value assignment (copy semantics).
	StmtAssign
	// StmtRefAssign represents an aliasing assignment (target becomes an
	// alias of source).
	StmtRefAssign
	// StmtIf represents if/else.
	StmtIf
	// StmtWhile represents a while loop.
	StmtWhile
	// StmtForeach represents iteration over an array or traversable.
	StmtForeach
	// StmtSwitch represents a switch with loose-equality case matching.
	StmtSwitch
	// StmtTry represents try/catch/finally.
	StmtTry
	// StmtReturn represents a return statement.
	StmtReturn
	// StmtEcho represents output of one or more expressions.
	StmtEcho
	// StmtGoto represents a jump to a named label.
	StmtGoto
	// StmtLabel declares a named label.
	StmtLabel
	// StmtBreak exits the innermost enclosing loop or switch.
	StmtBreak
	// StmtContinue continues the innermost enclosing loop.
	StmtContinue
	// StmtYield suspends a generator routine.
	StmtYield
	// StmtBlock represents a nested statement block.
	StmtBlock
	// StmtThrow raises a runtime error value.
	StmtThrow
)

// String returns a human-readable name for the statement kind.
func (k StmtKind) String() string {
	switch k {
	case StmtExpr:
		return "Expr"
	case StmtAssign:
		return "Assign"
	case StmtRefAssign:
		return "RefAssign"
	case StmtIf:
		return "If"
	case StmtWhile:
		return "While"
	case StmtForeach:
		return "Foreach"
	case StmtSwitch:
		return "Switch"
	case StmtTry:
		return "Try"
	case StmtReturn:
		return "Return"
	case StmtEcho:
		return "Echo"
	case StmtGoto:
		return "Goto"
	case StmtLabel:
		return "Label"
	case StmtBreak:
		return "Break"
	case StmtContinue:
		return "Continue"
	case StmtYield:
		return "Yield"
	case StmtBlock:
		return "Block"
	case StmtThrow:
		return "Throw"
	default:
		return "Unknown"
	}
}

// Stmt represents a bound statement.
type Stmt struct {
	Kind StmtKind
	Span source.Span
	Data StmtData // Kind-specific payload
}

// StmtData is the interface for statement-specific data.
type StmtData interface {
	stmtData()
}

// ExprStmtData holds data for StmtExpr.
type ExprStmtData struct {
	Expr *Expr
}

func (ExprStmtData) stmtData() {}

// AssignData holds data for StmtAssign.
type AssignData struct {
	Target *Expr // VarUse, Index or Field
	Value  *Expr
}

func (AssignData) stmtData() {}

// RefAssignData holds data for StmtRefAssign. After it executes, Target
// and Source share one storage cell.
type RefAssignData struct {
	Target *Expr // VarUse
	Source *Expr
}

func (RefAssignData) stmtData() {}

// IfData holds data for StmtIf.
type IfData struct {
	Cond *Expr
	Then []Stmt
	Else []Stmt // nil when there is no else branch
}

func (IfData) stmtData() {}

// WhileData holds data for StmtWhile.
type WhileData struct {
	Cond *Expr
	Body []Stmt
}

func (WhileData) stmtData() {}

// ForeachData holds data for StmtForeach.
type ForeachData struct {
	Subject    *Expr
	KeyVar     string // empty when the key is not bound
	ValueVar   string
	ValueByRef bool
	Body       []Stmt
}

func (ForeachData) stmtData() {}

// SwitchCase is one arm of a switch. A nil Match is the default arm.
type SwitchCase struct {
	Match *Expr
	Body  []Stmt
}

// SwitchData holds data for StmtSwitch.
type SwitchData struct {
	Subject *Expr
	Cases   []SwitchCase
}

func (SwitchData) stmtData() {}

// Catch is one catch clause of a try statement.
type Catch struct {
	ClassName string
	Var       string
	Body      []Stmt
}

// TryData holds data for StmtTry.
type TryData struct {
	Body    []Stmt
	Catches []Catch
	Finally []Stmt // nil when there is no finally clause
}

func (TryData) stmtData() {}

// ReturnData holds data for StmtReturn. A nil Value returns null.
type ReturnData struct {
	Value *Expr
}

func (ReturnData) stmtData() {}

// EchoData holds data for StmtEcho.
type EchoData struct {
	Values []*Expr
}

func (EchoData) stmtData() {}

// GotoData holds data for StmtGoto.
type GotoData struct {
	Label string
}

func (GotoData) stmtData() {}

// LabelData holds data for StmtLabel.
type LabelData struct {
	Name string
}

func (LabelData) stmtData() {}

// BreakData holds data for StmtBreak. Depth counts enclosing loop/switch
// levels; 0 means 1.
type BreakData struct {
	Depth int
}

func (BreakData) stmtData() {}

// ContinueData holds data for StmtContinue.
type ContinueData struct {
	Depth int
}

func (ContinueData) stmtData() {}

// YieldData holds data for StmtYield. Key and Value may both be nil
// (a bare yield).
type YieldData struct {
	Key   *Expr
	Value *Expr
}

func (YieldData) stmtData() {}

// BlockData holds data for StmtBlock.
type BlockData struct {
	Body []Stmt
}

func (BlockData) stmtData() {}

// ThrowData holds data for StmtThrow.
type ThrowData struct {
	Value *Expr
}

func (ThrowData) stmtData() {}
