package codegen

import (
	"fmt"
	"io"

	"fern/internal/rt"
)

var opNames = [...]string{
	OpNop:           "nop",
	OpPop:           "pop",
	OpDup:           "dup",
	OpAdd:           "add",
	OpSub:           "sub",
	OpMul:           "mul",
	OpDiv:           "div",
	OpMod:           "mod",
	OpPow:           "pow",
	OpConcat:        "concat",
	OpNeg:           "neg",
	OpNot:           "not",
	OpBitAnd:        "band",
	OpBitOr:         "bor",
	OpBitXor:        "bxor",
	OpBitNot:        "bnot",
	OpShl:           "shl",
	OpShr:           "shr",
	OpCmp:           "cmp",
	OpEq:            "eq",
	OpNe:            "ne",
	OpLt:            "lt",
	OpLe:            "le",
	OpGt:            "gt",
	OpGe:            "ge",
	OpIdentical:     "ident",
	OpNotIdentical:  "nident",
	OpCoalesce:      "coalesce",
	OpIsset:         "isset",
	OpNewArray:      "newarr",
	OpArrayAppend:   "append",
	OpArraySet:      "arrset",
	OpAppendSet:     "appendset",
	OpIndex:         "index",
	OpIndexAddr:     "indexaddr",
	OpFieldLoad:     "fldload",
	OpFieldStore:    "fldstore",
	OpFieldAddr:     "fldaddr",
	OpNew:           "new",
	OpEcho:          "echo",
	OpThrow:         "throw",
	OpYield:         "yield",
	OpResumeState:   "resumestate",
	OpMakeAlias:     "mkalias",
	OpDeref:         "deref",
	OpCellSet:       "cellset",
	OpStaticLoad:    "sload",
	OpStaticStore:   "sstore",
	OpStaticAddr:    "saddr",
	OpIterInit:      "iterinit",
	OpIterValid:     "itervalid",
	OpIterKey:       "iterkey",
	OpIterValue:     "iterval",
	OpIterValueAddr: "itervaladdr",
	OpIterAdvance:   "iternext",
	OpDynLoad:       "dynload",
	OpDynStore:      "dynstore",
}

func (op OpCode) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// TextEmitter renders the instruction stream as a readable listing, one
// instruction per line, labels outdented. Write errors are remembered
// and surfaced once from Err.
type TextEmitter struct {
	w   io.Writer
	err error
}

func NewTextEmitter(w io.Writer) *TextEmitter { return &TextEmitter{w: w} }

// Err reports the first write error, if any.
func (t *TextEmitter) Err() error { return t.err }

func (t *TextEmitter) line(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format+"\n", args...)
}

func (t *TextEmitter) EmitOpCode(op OpCode)    { t.line("\t%s", op) }
func (t *TextEmitter) EmitToken(symbol string) { t.line("\t.sym %s", symbol) }
func (t *TextEmitter) EmitLoadConst(v rt.Value) {
	t.line("\tconst %s", v.String())
}
func (t *TextEmitter) EmitLocalLoad(slot int)  { t.line("\tload %d", slot) }
func (t *TextEmitter) EmitLocalStore(slot int) { t.line("\tstore %d", slot) }
func (t *TextEmitter) EmitLocalAddr(slot int)  { t.line("\taddr %d", slot) }
func (t *TextEmitter) EmitCall(name string, argc int) {
	t.line("\tcall %s/%d", name, argc)
}
func (t *TextEmitter) EmitRet()                { t.line("\tret") }
func (t *TextEmitter) EmitLabel(l Label)       { t.line("L%d:", l) }
func (t *TextEmitter) EmitBranch(l Label)      { t.line("\tjmp L%d", l) }
func (t *TextEmitter) EmitBranchFalse(l Label) { t.line("\tjmpf L%d", l) }
