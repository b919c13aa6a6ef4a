package bound

import (
	"fern/internal/source"
)

// ExprKind enumerates bound expression kinds.
type ExprKind uint8

const (
	// ExprLiteral represents literals (null, bool, long, double, string).
	ExprLiteral ExprKind = iota
	// ExprVarUse represents a variable read.
	ExprVarUse
	// ExprUnary represents unary operators.
	ExprUnary
	// ExprBinary represents binary operators.
	ExprBinary
	// ExprCall represents a routine or method call.
	ExprCall
	// ExprNew represents object construction.
	ExprNew
	// ExprIndex represents array indexing; a nil index is the append slot.
	ExprIndex
	// ExprField represents member access (expr->field).
	ExprField
	// ExprLambda represents a closure literal.
	ExprLambda
	// ExprTernary represents cond ? a : b.
	ExprTernary
	// ExprIsset tests whether variables are set and non-null.
	ExprIsset
	// ExprArrayLit represents an array literal.
	ExprArrayLit
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprLiteral:
		return "Literal"
	case ExprVarUse:
		return "VarUse"
	case ExprUnary:
		return "Unary"
	case ExprBinary:
		return "Binary"
	case ExprCall:
		return "Call"
	case ExprNew:
		return "New"
	case ExprIndex:
		return "Index"
	case ExprField:
		return "Field"
	case ExprLambda:
		return "Lambda"
	case ExprTernary:
		return "Ternary"
	case ExprIsset:
		return "Isset"
	case ExprArrayLit:
		return "ArrayLit"
	default:
		return "Unknown"
	}
}

// Expr represents a bound expression.
type Expr struct {
	Kind ExprKind
	Span source.Span
	Data ExprData // Kind-specific payload
}

// ExprData is the interface for expression-specific data.
type ExprData interface {
	exprData()
}

// LitKind enumerates literal kinds.
type LitKind uint8

const (
	LitNull LitKind = iota
	LitBool
	LitLong
	LitDouble
	LitString
)

// LiteralData holds data for ExprLiteral. Only the field selected by Kind
// is meaningful.
type LiteralData struct {
	Kind   LitKind
	Bool   bool
	Long   int64
	Double float64
	Str    string
}

func (LiteralData) exprData() {}

// VarUseData holds data for ExprVarUse.
type VarUseData struct {
	Name string
}

func (VarUseData) exprData() {}

// UnaryOp enumerates unary operators.
type UnaryOp uint8

const (
	OpNeg UnaryOp = iota
	OpPlus
	OpNot
	OpBitNot
)

// UnaryData holds data for ExprUnary.
type UnaryData struct {
	Op      UnaryOp
	Operand *Expr
}

func (UnaryData) exprData() {}

// BinaryOp enumerates binary operators.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpConcat
	OpEq        // loose equality
	OpNotEq     // loose inequality
	OpIdentical // strict equality
	OpNotIdentical
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
	OpAnd
	OpOr
	OpCoalesce
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
)

// BinaryData holds data for ExprBinary.
type BinaryData struct {
	Op    BinaryOp
	Left  *Expr
	Right *Expr
}

func (BinaryData) exprData() {}

// CallData holds data for ExprCall. Recv is nil for plain routine calls.
type CallData struct {
	Name string
	Recv *Expr
	Args []*Expr
}

func (CallData) exprData() {}

// NewData holds data for ExprNew.
type NewData struct {
	ClassName string
	Args      []*Expr
}

func (NewData) exprData() {}

// IndexData holds data for ExprIndex. A nil Index denotes the append slot
// ($a[] = ...).
type IndexData struct {
	Subject *Expr
	Index   *Expr
}

func (IndexData) exprData() {}

// FieldData holds data for ExprField.
type FieldData struct {
	Subject *Expr
	Name    string
}

func (FieldData) exprData() {}

// Use is one captured variable of a lambda.
type Use struct {
	Name  string
	ByRef bool
}

// LambdaData holds data for ExprLambda. The lambda body is a routine of
// its own; the flow analyzer treats it as an independent routine.
type LambdaData struct {
	Params []Param
	Uses   []Use
	Body   []Stmt
}

func (LambdaData) exprData() {}

// TernaryData holds data for ExprTernary. A nil Then is the short form
// (cond ?: else).
type TernaryData struct {
	Cond *Expr
	Then *Expr
	Else *Expr
}

func (TernaryData) exprData() {}

// IssetData holds data for ExprIsset.
type IssetData struct {
	Vars []*Expr
}

func (IssetData) exprData() {}

// ArrayItem is one element of an array literal.
type ArrayItem struct {
	Key   *Expr // nil for positional items
	Value *Expr
	ByRef bool
}

// ArrayLitData holds data for ExprArrayLit.
type ArrayLitData struct {
	Items []ArrayItem
}

func (ArrayLitData) exprData() {}
