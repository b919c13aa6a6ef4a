// Package codegen lowers converged, typed routines into an abstract
// instruction sink. It never knows the concrete binary format: the
// Emitter contract is the whole back-end boundary.
package codegen

import "fern/internal/rt"

// OpCode is an abstract stack-machine operation. The sink maps these to
// its own encoding.
type OpCode uint8

const (
	// OpNop does nothing.
	OpNop OpCode = iota
	// OpPop discards the top of stack.
	OpPop
	// OpDup duplicates the top of stack.
	OpDup
	// OpAdd through OpPow are arithmetic on two operands.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	// OpConcat joins two string operands.
	OpConcat
	// OpNeg and OpNot are unary.
	OpNeg
	OpNot
	// OpBitAnd through OpShr are bitwise.
	OpBitAnd
	OpBitOr
	OpBitXor
	OpBitNot
	OpShl
	OpShr
	// OpCmp pushes the three-way comparison of two operands.
	OpCmp
	// OpEq through OpGe are relational, loose semantics.
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	// OpIdentical and OpNotIdentical are strict.
	OpIdentical
	OpNotIdentical
	// OpCoalesce picks the right operand when the left is null.
	OpCoalesce
	// OpIsset tests definedness without use warnings.
	OpIsset
	// OpNewArray pushes an empty array.
	OpNewArray
	// OpArrayAppend pops value, array; appends; pushes the array back.
	OpArrayAppend
	// OpArraySet pops value, key, array; stores; pushes the array back.
	OpArraySet
	// OpAppendSet pops value, then an array cell; appends to the array
	// held in the cell.
	OpAppendSet
	// OpIndex pops key, subject; pushes the element.
	OpIndex
	// OpIndexAddr pops key, subject; pushes the element's alias cell,
	// ensuring the subject is a writable array.
	OpIndexAddr
	// OpFieldLoad pops the receiver; pushes the named field.
	OpFieldLoad
	// OpFieldStore pops value, receiver; stores into the named field.
	OpFieldStore
	// OpFieldAddr pops the receiver; pushes the field's alias cell.
	OpFieldAddr
	// OpNew instantiates the named type.
	OpNew
	// OpEcho pops and prints.
	OpEcho
	// OpThrow pops and raises.
	OpThrow
	// OpYield suspends the generator with the popped value.
	OpYield
	// OpResumeState stores the popped resumption index into the
	// generator's state cell.
	OpResumeState
	// OpMakeAlias pops a value and pushes a fresh alias cell for it.
	OpMakeAlias
	// OpDeref pops an alias cell and pushes its contents.
	OpDeref
	// OpCellSet pops value, cell; writes the value through the cell.
	OpCellSet
	// OpStaticLoad, OpStaticStore and OpStaticAddr access the static
	// property named by the following token.
	OpStaticLoad
	OpStaticStore
	OpStaticAddr
	// OpIterInit pops a subject and pushes a fresh iterator over it.
	OpIterInit
	// OpIterValid pops an iterator and pushes whether it has a current
	// element.
	OpIterValid
	// OpIterKey pops an iterator and pushes the current key.
	OpIterKey
	// OpIterValue pops an iterator and pushes the current value.
	OpIterValue
	// OpIterValueAddr pops an iterator and pushes the current
	// element's alias cell.
	OpIterValueAddr
	// OpIterAdvance pops an iterator and moves it one element forward.
	OpIterAdvance
	// OpDynLoad pops name, receiver; pushes the named member.
	OpDynLoad
	// OpDynStore pops value, name, receiver; stores into the member.
	OpDynStore
)

// Label marks a branch target within one routine.
type Label int

// Emitter is the instruction sink code generation writes into. One
// implementation per target format; this package never branches on the
// concrete sink.
type Emitter interface {
	EmitOpCode(op OpCode)
	// EmitToken attaches a symbol operand to the preceding opcode.
	EmitToken(symbol string)
	EmitLoadConst(v rt.Value)
	EmitLocalLoad(slot int)
	EmitLocalStore(slot int)
	// EmitLocalAddr pushes the local's alias cell, promoting the slot
	// to a cell on first use.
	EmitLocalAddr(slot int)
	EmitCall(name string, argc int)
	EmitRet()
	EmitLabel(l Label)
	EmitBranch(l Label)
	// EmitBranchFalse branches when the popped operand is falsy.
	EmitBranchFalse(l Label)
}
