package codegen

import (
	"fmt"

	"fern/internal/bound"
	"fern/internal/flow"
	"fern/internal/rt"
)

// Generator lowers one analyzed routine into an Emitter. It consumes a
// frozen flow context for slot assignment and the routine's graph for
// block structure. Internal invariant violations panic; the driver
// recovers them per routine.
type Generator struct {
	em Emitter
	g  *flow.Graph
	fc *flow.FlowContext

	blockLabel []Label
	nextLabel  Label

	// Hidden slots past the named variables: the generator resumption
	// state and one iterator slot per foreach header.
	resumeSlot int
	iterSlots  map[flow.BlockID]int
	hiddenTop  int
}

// NewGenerator prepares emission for g's routine.
func NewGenerator(em Emitter, g *flow.Graph, fc *flow.FlowContext) *Generator {
	gen := &Generator{
		em:         em,
		g:          g,
		fc:         fc,
		blockLabel: make([]Label, len(g.Blocks())),
		iterSlots:  make(map[flow.BlockID]int),
		hiddenTop:  fc.VarCount(),
	}
	for i := range gen.blockLabel {
		gen.blockLabel[i] = gen.newLabel()
	}
	gen.resumeSlot = gen.hiddenSlot()
	return gen
}

func (gen *Generator) newLabel() Label {
	l := gen.nextLabel
	gen.nextLabel++
	return l
}

func (gen *Generator) hiddenSlot() int {
	s := gen.hiddenTop
	gen.hiddenTop++
	return s
}

// Emit lowers the whole routine: prologue, every reachable block in
// allocation order, and the exit epilogue.
func (gen *Generator) Emit() {
	if gen.g.Routine.IsGenerator {
		gen.emitResumeDispatch()
	}
	gen.em.EmitBranch(gen.blockLabel[gen.g.Start])

	reachable := gen.markReachable()
	for _, b := range gen.g.Blocks() {
		if !reachable[b.ID] || b.ID == gen.g.Exit {
			continue
		}
		gen.emitBlock(b)
	}

	// Exit: falling through the routine returns null.
	gen.em.EmitLabel(gen.blockLabel[gen.g.Exit])
	gen.em.EmitLoadConst(rt.Null())
	gen.em.EmitRet()
}

// emitResumeDispatch routes a resumed generator to the block after the
// yield it suspended at. A zero state falls through to Start.
func (gen *Generator) emitResumeDispatch() {
	for _, yp := range gen.g.Yields {
		next := gen.newLabel()
		gen.em.EmitLocalLoad(gen.resumeSlot)
		gen.em.EmitLoadConst(rt.Long(int64(yp.Index)))
		gen.em.EmitOpCode(OpEq)
		gen.em.EmitBranchFalse(next)
		gen.em.EmitBranch(gen.blockLabel[yp.Resume])
		gen.em.EmitLabel(next)
	}
}

func (gen *Generator) markReachable() []bool {
	out := make([]bool, len(gen.g.Blocks()))
	stack := []flow.BlockID{gen.g.Start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if out[id] {
			continue
		}
		out[id] = true
		stack = append(stack, gen.g.Block(id).Succs()...)
	}
	return out
}

func (gen *Generator) emitBlock(b *flow.Block) {
	gen.em.EmitLabel(gen.blockLabel[b.ID])
	for i := range b.Stmts {
		gen.emitStmt(&b.Stmts[i])
	}
	gen.emitTerminator(b)
}

func (gen *Generator) emitTerminator(b *flow.Block) {
	t := &b.Term
	switch t.Kind {
	case flow.TermNext:
		target := t.Next
		if target == flow.NoBlockID {
			target = gen.g.Exit
		}
		gen.em.EmitBranch(gen.blockLabel[target])
	case flow.TermIf:
		gen.emitExpr(t.Cond)
		gen.em.EmitBranchFalse(gen.blockLabel[t.Alt])
		gen.em.EmitBranch(gen.blockLabel[t.Next])
	case flow.TermSwitch:
		gen.emitSwitch(t)
	case flow.TermForeach:
		gen.emitForeach(b.ID, t)
	case flow.TermReturn, flow.TermThrow:
		// The value-producing statement already ran; nothing to emit.
	default:
		panic(fmt.Sprintf("codegen: unknown terminator %d", t.Kind))
	}
}

// emitSwitch compares the subject loosely against each arm in order,
// like a chain of equality tests with one shared subject operand.
func (gen *Generator) emitSwitch(t *flow.Terminator) {
	gen.emitExpr(t.Subject)
	defaultTarget := gen.g.Exit
	for _, c := range t.Cases {
		if c.Match == nil {
			defaultTarget = c.Target
			continue
		}
		miss := gen.newLabel()
		gen.em.EmitOpCode(OpDup)
		gen.emitExpr(c.Match)
		gen.em.EmitOpCode(OpEq)
		gen.em.EmitBranchFalse(miss)
		gen.em.EmitOpCode(OpPop)
		gen.em.EmitBranch(gen.blockLabel[c.Target])
		gen.em.EmitLabel(miss)
	}
	gen.em.EmitOpCode(OpPop)
	gen.em.EmitBranch(gen.blockLabel[defaultTarget])
}

// emitForeach drives the iterator protocol from the loop header. The
// iterator lives in a hidden slot, initialized on first entry and
// cleared when the loop leaves, so re-entering the loop starts over.
func (gen *Generator) emitForeach(header flow.BlockID, t *flow.Terminator) {
	slot, ok := gen.iterSlots[header]
	if !ok {
		slot = gen.hiddenSlot()
		gen.iterSlots[header] = slot
	}
	valid := gen.newLabel()
	leave := gen.newLabel()
	init := gen.newLabel()

	gen.em.EmitLocalLoad(slot)
	gen.em.EmitBranchFalse(init)
	gen.em.EmitBranch(valid)

	// First entry: build the iterator, then fall into the valid check.
	gen.em.EmitLabel(init)
	gen.emitExpr(t.Subject)
	gen.em.EmitOpCode(OpIterInit)
	gen.em.EmitLocalStore(slot)

	gen.em.EmitLabel(valid)
	gen.em.EmitLocalLoad(slot)
	gen.em.EmitOpCode(OpIterValid)
	gen.em.EmitBranchFalse(leave)

	d := t.Foreach
	if d.KeyVar != "" {
		gen.em.EmitLocalLoad(slot)
		gen.em.EmitOpCode(OpIterKey)
		gen.storeVar(d.KeyVar)
	}
	gen.em.EmitLocalLoad(slot)
	if d.ValueByRef {
		gen.em.EmitOpCode(OpIterValueAddr)
	} else {
		gen.em.EmitOpCode(OpIterValue)
	}
	gen.storeVar(d.ValueVar)

	gen.em.EmitLocalLoad(slot)
	gen.em.EmitOpCode(OpIterAdvance)
	gen.em.EmitBranch(gen.blockLabel[t.Next])

	gen.em.EmitLabel(leave)
	gen.em.EmitLoadConst(rt.Null())
	gen.em.EmitLocalStore(slot)
	gen.em.EmitBranch(gen.blockLabel[t.Alt])
}

func (gen *Generator) emitStmt(s *bound.Stmt) {
	switch d := s.Data.(type) {
	case bound.ExprStmtData:
		gen.emitExpr(d.Expr)
		gen.em.EmitOpCode(OpPop)
	case bound.AssignData:
		p := gen.placeFor(d.Target)
		p.EmitStorePrepare(gen.em)
		gen.emitExpr(d.Value)
		p.EmitStore(gen.em)
	case bound.RefAssignData:
		src := gen.placeFor(d.Source)
		src.EmitLoadAddress(gen.em)
		tgt := d.Target.Data.(bound.VarUseData)
		gen.em.EmitLocalStore(gen.slotOf(tgt.Name))
	case bound.EchoData:
		for _, v := range d.Values {
			gen.emitExpr(v)
			gen.em.EmitOpCode(OpEcho)
		}
	case bound.ReturnData:
		if d.Value != nil {
			gen.emitExpr(d.Value)
		} else {
			gen.em.EmitLoadConst(rt.Null())
		}
		gen.em.EmitRet()
	case bound.ThrowData:
		gen.emitExpr(d.Value)
		gen.em.EmitOpCode(OpThrow)
	case bound.YieldData:
		gen.emitYield(s, d)
	default:
		panic(fmt.Sprintf("codegen: statement %v survived graph construction", s.Kind))
	}
}

// emitYield persists the resumption index, hands the yielded pair to
// the scheduler and suspends.
func (gen *Generator) emitYield(s *bound.Stmt, d bound.YieldData) {
	yp := gen.yieldPoint(s)
	gen.em.EmitLoadConst(rt.Long(int64(yp.Index)))
	gen.em.EmitOpCode(OpResumeState)
	if d.Key != nil {
		gen.emitExpr(d.Key)
	} else {
		gen.em.EmitLoadConst(rt.Null())
	}
	if d.Value != nil {
		gen.emitExpr(d.Value)
	} else {
		gen.em.EmitLoadConst(rt.Null())
	}
	gen.em.EmitOpCode(OpYield)
	gen.em.EmitRet()
}

func (gen *Generator) yieldPoint(s *bound.Stmt) *flow.YieldPoint {
	for i := range gen.g.Yields {
		if gen.g.Yields[i].Stmt == s {
			return &gen.g.Yields[i]
		}
	}
	panic("codegen: yield statement missing from the graph's yield set")
}

func (gen *Generator) slotOf(name string) int {
	slot, ok := gen.fc.TryGetVarIndex(name)
	if !ok {
		panic(fmt.Sprintf("codegen: variable %q missing from flow context", name))
	}
	return slot
}

func (gen *Generator) storeVar(name string) {
	gen.em.EmitLocalStore(gen.slotOf(name))
}

// placeFor maps an assignable expression onto its storage location.
func (gen *Generator) placeFor(e *bound.Expr) Place {
	switch d := e.Data.(type) {
	case bound.VarUseData:
		return LocalPlace{Slot: gen.slotOf(d.Name)}
	case bound.IndexData:
		if d.Index == nil {
			// The append slot has no stable cell; the store lowers to
			// an array append against the subject's cell.
			return appendPlace{arr: gen.placeFor(d.Subject), gen: gen}
		}
		return ElementPlace{
			Arr: gen.placeFor(d.Subject),
			Key: ConstPlace{Emit: func(em Emitter) { gen.emitExpr(d.Index) }},
		}
	case bound.FieldData:
		return FieldPlace{
			Recv: ConstPlace{Emit: func(em Emitter) { gen.emitExpr(d.Subject) }},
			Name: d.Name,
		}
	default:
		panic(fmt.Sprintf("codegen: %v is not assignable", e.Kind))
	}
}

// appendPlace stores into the next integer key of an array.
type appendPlace struct {
	arr Place
	gen *Generator
}

func (p appendPlace) EmitLoad(e Emitter)        { noAddress("append slot") }
func (p appendPlace) EmitLoadAddress(e Emitter) { noAddress("append slot") }
func (p appendPlace) HasAddress() bool          { return false }

func (p appendPlace) EmitStorePrepare(e Emitter) {
	p.arr.EmitLoadAddress(e)
}

func (p appendPlace) EmitStore(e Emitter) {
	e.EmitOpCode(OpAppendSet)
}

func (gen *Generator) emitExpr(e *bound.Expr) {
	switch d := e.Data.(type) {
	case bound.LiteralData:
		gen.em.EmitLoadConst(literalValue(d))
	case bound.VarUseData:
		gen.em.EmitLocalLoad(gen.slotOf(d.Name))
	case bound.UnaryData:
		gen.emitExpr(d.Operand)
		switch d.Op {
		case bound.OpNeg:
			gen.em.EmitOpCode(OpNeg)
		case bound.OpPlus:
			// Unary plus only forces numeric context; the sink's
			// arithmetic coerces anyway.
		case bound.OpNot:
			gen.em.EmitOpCode(OpNot)
		case bound.OpBitNot:
			gen.em.EmitOpCode(OpBitNot)
		}
	case bound.BinaryData:
		gen.emitBinary(d)
	case bound.CallData:
		for _, a := range d.Args {
			gen.emitExpr(a)
		}
		if d.Recv != nil {
			gen.emitExpr(d.Recv)
		}
		gen.em.EmitCall(d.Name, len(d.Args))
	case bound.NewData:
		for _, a := range d.Args {
			gen.emitExpr(a)
		}
		gen.em.EmitOpCode(OpNew)
		gen.em.EmitToken(d.ClassName)
	case bound.IndexData:
		gen.emitExpr(d.Subject)
		if d.Index == nil {
			noAddress("append slot used as a value")
		}
		gen.emitExpr(d.Index)
		gen.em.EmitOpCode(OpIndex)
	case bound.FieldData:
		gen.emitExpr(d.Subject)
		gen.em.EmitOpCode(OpFieldLoad)
		gen.em.EmitToken(d.Name)
	case bound.TernaryData:
		gen.emitTernary(d)
	case bound.IssetData:
		for _, v := range d.Vars {
			gen.emitExpr(v)
		}
		gen.em.EmitOpCode(OpIsset)
	case bound.ArrayLitData:
		gen.em.EmitOpCode(OpNewArray)
		for _, it := range d.Items {
			if it.Key != nil {
				gen.emitExpr(it.Key)
				gen.emitExpr(it.Value)
				gen.em.EmitOpCode(OpArraySet)
			} else {
				gen.emitExpr(it.Value)
				gen.em.EmitOpCode(OpArrayAppend)
			}
		}
	case bound.LambdaData:
		gen.em.EmitOpCode(OpNew)
		gen.em.EmitToken("closure")
	default:
		panic(fmt.Sprintf("codegen: unknown expression %v", e.Kind))
	}
}

func (gen *Generator) emitBinary(d bound.BinaryData) {
	// Short-circuit operators branch instead of evaluating both sides.
	switch d.Op {
	case bound.OpAnd:
		done := gen.newLabel()
		short := gen.newLabel()
		gen.emitExpr(d.Left)
		gen.em.EmitBranchFalse(short)
		gen.emitExpr(d.Right)
		gen.em.EmitOpCode(OpNot)
		gen.em.EmitOpCode(OpNot)
		gen.em.EmitBranch(done)
		gen.em.EmitLabel(short)
		gen.em.EmitLoadConst(rt.Bool(false))
		gen.em.EmitLabel(done)
		return
	case bound.OpOr:
		done := gen.newLabel()
		long := gen.newLabel()
		gen.emitExpr(d.Left)
		gen.em.EmitBranchFalse(long)
		gen.em.EmitLoadConst(rt.Bool(true))
		gen.em.EmitBranch(done)
		gen.em.EmitLabel(long)
		gen.emitExpr(d.Right)
		gen.em.EmitOpCode(OpNot)
		gen.em.EmitOpCode(OpNot)
		gen.em.EmitLabel(done)
		return
	}

	gen.emitExpr(d.Left)
	gen.emitExpr(d.Right)
	gen.em.EmitOpCode(binaryOp(d.Op))
}

func binaryOp(op bound.BinaryOp) OpCode {
	switch op {
	case bound.OpAdd:
		return OpAdd
	case bound.OpSub:
		return OpSub
	case bound.OpMul:
		return OpMul
	case bound.OpDiv:
		return OpDiv
	case bound.OpMod:
		return OpMod
	case bound.OpConcat:
		return OpConcat
	case bound.OpEq:
		return OpEq
	case bound.OpNotEq:
		return OpNe
	case bound.OpIdentical:
		return OpIdentical
	case bound.OpNotIdentical:
		return OpNotIdentical
	case bound.OpLess:
		return OpLt
	case bound.OpLessEq:
		return OpLe
	case bound.OpGreater:
		return OpGt
	case bound.OpGreaterEq:
		return OpGe
	case bound.OpCoalesce:
		return OpCoalesce
	case bound.OpBitAnd:
		return OpBitAnd
	case bound.OpBitOr:
		return OpBitOr
	case bound.OpBitXor:
		return OpBitXor
	case bound.OpShl:
		return OpShl
	case bound.OpShr:
		return OpShr
	default:
		panic(fmt.Sprintf("codegen: unknown binary operator %d", op))
	}
}

func (gen *Generator) emitTernary(d bound.TernaryData) {
	alt := gen.newLabel()
	done := gen.newLabel()
	if d.Then == nil {
		// Short form: the condition's value is the result when truthy.
		gen.emitExpr(d.Cond)
		gen.em.EmitOpCode(OpDup)
		gen.em.EmitBranchFalse(alt)
		gen.em.EmitBranch(done)
		gen.em.EmitLabel(alt)
		gen.em.EmitOpCode(OpPop)
		gen.emitExpr(d.Else)
		gen.em.EmitLabel(done)
		return
	}
	gen.emitExpr(d.Cond)
	gen.em.EmitBranchFalse(alt)
	gen.emitExpr(d.Then)
	gen.em.EmitBranch(done)
	gen.em.EmitLabel(alt)
	gen.emitExpr(d.Else)
	gen.em.EmitLabel(done)
}

func literalValue(d bound.LiteralData) rt.Value {
	switch d.Kind {
	case bound.LitNull:
		return rt.Null()
	case bound.LitBool:
		return rt.Bool(d.Bool)
	case bound.LitLong:
		return rt.Long(d.Long)
	case bound.LitDouble:
		return rt.Double(d.Double)
	case bound.LitString:
		return rt.Str(d.Str)
	default:
		panic(fmt.Sprintf("codegen: unknown literal kind %d", d.Kind))
	}
}
