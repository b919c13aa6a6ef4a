package flow

import (
	"fmt"

	"fern/internal/bound"
	"fern/internal/diag"
	"fern/internal/source"
)

// builder carries the mutable construction state: a current-block cursor,
// open break/continue scopes and the label table with pending forward
// gotos.
type builder struct {
	g   *Graph
	cur *Block
	rep diag.Reporter

	loops []loopScope
}

type loopScope struct {
	breakTo    BlockID
	continueTo BlockID // NoBlockID inside switch scopes
}

// Build constructs the control-flow graph for a routine body. Label
// problems (duplicates, unresolved or unused labels) and statically
// unreachable statements become diagnostics on rep; Build itself never
// fails.
func Build(r *bound.Routine, rep diag.Reporter) *Graph {
	g := &Graph{
		Routine: r,
		Labels:  make(map[string]*LabelInfo),
	}
	if rep == nil {
		rep = diag.NopReporter{}
	}
	b := &builder{g: g, rep: rep}

	exit := g.newBlock() // allocate Exit first so it is never nil
	start := g.newBlock()
	g.Exit = exit.ID
	g.Start = start.ID
	b.cur = start

	b.stmts(r.Body)

	// Implicit return falls through to Exit.
	if !b.terminated() {
		b.cur.Term = Terminator{Kind: TermNext, Next: g.Exit}
	}

	b.finishLabels(r.Span)
	return g
}

func (b *builder) terminated() bool {
	return b.cur.Term.Kind != TermNext || b.cur.Term.Next != NoBlockID
}

// startBlock moves the cursor to a fresh block without wiring an edge to
// it. Used for code that follows an unconditional exit: the block is
// recorded as unreachable, kept for diagnostics, never analyzed.
func (b *builder) startUnreachable(sp source.Span) {
	dead := b.g.newBlock()
	b.g.Unreachable = append(b.g.Unreachable, dead.ID)
	b.cur = dead
	b.rep.Report(diag.DeclUnreachableCode, diag.SevWarning, sp, "unreachable code", nil)
}

// moveTo terminates the current block with a fall-through edge and makes
// next the cursor.
func (b *builder) moveTo(next *Block) {
	if !b.terminated() {
		b.cur.Term = Terminator{Kind: TermNext, Next: next.ID}
	}
	b.cur = next
}

func (b *builder) stmts(list []bound.Stmt) {
	for i := range list {
		b.stmt(&list[i])
	}
}

func (b *builder) stmt(s *bound.Stmt) {
	if b.terminated() {
		b.startUnreachable(s.Span)
	}
	switch d := s.Data.(type) {
	case bound.ExprStmtData, bound.AssignData, bound.RefAssignData, bound.EchoData:
		b.cur.Stmts = append(b.cur.Stmts, *s)

	case bound.BlockData:
		b.stmts(d.Body)

	case bound.IfData:
		b.buildIf(d)

	case bound.WhileData:
		b.buildWhile(d)

	case bound.ForeachData:
		b.buildForeach(d)

	case bound.SwitchData:
		b.buildSwitch(d)

	case bound.TryData:
		b.buildTry(s, d)

	case bound.ReturnData:
		b.cur.Stmts = append(b.cur.Stmts, *s)
		b.cur.Term = Terminator{Kind: TermReturn, Next: b.g.Exit}

	case bound.ThrowData:
		b.cur.Stmts = append(b.cur.Stmts, *s)
		b.cur.Term = Terminator{Kind: TermThrow, Next: b.g.Exit}

	case bound.YieldData:
		b.buildYield(s)

	case bound.GotoData:
		b.buildGoto(d)

	case bound.LabelData:
		b.buildLabel(s, d)

	case bound.BreakData:
		b.buildBreak(s, d.Depth, false)

	case bound.ContinueData:
		b.buildBreak(s, d.Depth, true)

	default:
		// Unknown statement kinds are carried as plain block members so
		// the analyzer can at least report on them.
		b.cur.Stmts = append(b.cur.Stmts, *s)
	}
}

func (b *builder) buildIf(d bound.IfData) {
	thenB := b.g.newBlock()
	join := b.g.newBlock()
	elseTarget := join.ID
	var elseB *Block
	if len(d.Else) > 0 {
		elseB = b.g.newBlock()
		elseTarget = elseB.ID
	}

	b.cur.Term = Terminator{Kind: TermIf, Cond: d.Cond, Next: thenB.ID, Alt: elseTarget}

	b.cur = thenB
	b.stmts(d.Then)
	b.moveTo(join)

	if elseB != nil {
		b.cur = elseB
		b.stmts(d.Else)
		// moveTo would hijack the cursor when the else arm terminated;
		// wire the edge manually.
		if !b.terminated() {
			b.cur.Term = Terminator{Kind: TermNext, Next: join.ID}
		}
		b.cur = join
	}
}

func (b *builder) buildWhile(d bound.WhileData) {
	header := b.g.newBlock()
	body := b.g.newBlock()
	after := b.g.newBlock()

	b.moveTo(header)
	header.Term = Terminator{Kind: TermIf, Cond: d.Cond, Next: body.ID, Alt: after.ID}

	b.loops = append(b.loops, loopScope{breakTo: after.ID, continueTo: header.ID})
	b.cur = body
	b.stmts(d.Body)
	if !b.terminated() {
		b.cur.Term = Terminator{Kind: TermNext, Next: header.ID} // back-edge
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.cur = after
}

func (b *builder) buildForeach(d bound.ForeachData) {
	header := b.g.newBlock()
	body := b.g.newBlock()
	after := b.g.newBlock()

	b.moveTo(header)
	dd := d
	header.Term = Terminator{
		Kind:    TermForeach,
		Subject: d.Subject,
		Foreach: &dd,
		Next:    body.ID,
		Alt:     after.ID,
	}

	b.loops = append(b.loops, loopScope{breakTo: after.ID, continueTo: header.ID})
	b.cur = body
	b.stmts(d.Body)
	if !b.terminated() {
		b.cur.Term = Terminator{Kind: TermNext, Next: header.ID}
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.cur = after
}

func (b *builder) buildSwitch(d bound.SwitchData) {
	after := b.g.newBlock()

	term := Terminator{Kind: TermSwitch, Subject: d.Subject}
	caseBlocks := make([]*Block, len(d.Cases))
	hasDefault := false
	for i := range d.Cases {
		caseBlocks[i] = b.g.newBlock()
		term.Cases = append(term.Cases, SwitchTarget{
			Match:  d.Cases[i].Match,
			Target: caseBlocks[i].ID,
		})
		if d.Cases[i].Match == nil {
			hasDefault = true
		}
	}
	if !hasDefault {
		term.Cases = append(term.Cases, SwitchTarget{Match: nil, Target: after.ID})
	}
	b.cur.Term = term

	// Case bodies fall through to the next case unless broken out of.
	b.loops = append(b.loops, loopScope{breakTo: after.ID, continueTo: NoBlockID})
	for i := range d.Cases {
		b.cur = caseBlocks[i]
		b.stmts(d.Cases[i].Body)
		if !b.terminated() {
			next := after.ID
			if i+1 < len(caseBlocks) {
				next = caseBlocks[i+1].ID
			}
			b.cur.Term = Terminator{Kind: TermNext, Next: next}
		}
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.cur = after
}

func (b *builder) buildTry(s *bound.Stmt, d bound.TryData) {
	body := b.g.newBlock()
	after := b.g.newBlock()
	joinTarget := after

	var finallyB *Block
	if len(d.Finally) > 0 {
		finallyB = b.g.newBlock()
		joinTarget = finallyB
	}

	// An exception may fire anywhere in the body, so every handler is a
	// successor of the block entering the try: handlers must merge the
	// variable state from before the protected region.
	entry := b.cur
	b.moveTo(body)

	catchBlocks := make([]*Block, len(d.Catches))
	for i := range d.Catches {
		catchBlocks[i] = b.g.newBlock()
		entry.ExtraSuccs = append(entry.ExtraSuccs, catchBlocks[i].ID)
	}

	b.stmts(d.Body)
	if !b.terminated() {
		b.cur.Term = Terminator{Kind: TermNext, Next: joinTarget.ID}
	}

	for i := range d.Catches {
		b.cur = catchBlocks[i]
		c := d.Catches[i]
		if c.Var != "" {
			// The handler observes the caught value as an assignment of
			// the declared class to the catch variable.
			b.cur.Stmts = append(b.cur.Stmts, bound.Stmt{
				Kind: bound.StmtAssign,
				Span: s.Span,
				Data: bound.AssignData{
					Target: &bound.Expr{Kind: bound.ExprVarUse, Span: s.Span, Data: bound.VarUseData{Name: c.Var}},
					Value:  &bound.Expr{Kind: bound.ExprNew, Span: s.Span, Data: bound.NewData{ClassName: c.ClassName}},
				},
			})
		}
		b.stmts(c.Body)
		if !b.terminated() {
			b.cur.Term = Terminator{Kind: TermNext, Next: joinTarget.ID}
		}
	}

	if finallyB != nil {
		b.cur = finallyB
		b.stmts(d.Finally)
		if !b.terminated() {
			b.cur.Term = Terminator{Kind: TermNext, Next: after.ID}
		}
	}

	b.cur = after
}

func (b *builder) buildYield(s *bound.Stmt) {
	b.cur.Stmts = append(b.cur.Stmts, *s)
	resume := b.g.newBlock()
	b.cur.Term = Terminator{Kind: TermNext, Next: resume.ID}
	b.g.Yields = append(b.g.Yields, YieldPoint{
		Index:  len(b.g.Yields) + 1,
		Stmt:   &b.cur.Stmts[len(b.cur.Stmts)-1],
		Resume: resume.ID,
	})
	b.cur = resume
}

func (b *builder) buildGoto(d bound.GotoData) {
	info := b.label(d.Label)
	info.Flags |= LabelUsed
	if info.Flags&LabelDefined != 0 {
		b.cur.Term = Terminator{Kind: TermNext, Next: info.Target}
		return
	}
	// Forward goto: leave the block open and patch once the label is
	// defined.
	info.Pending = append(info.Pending, b.cur.ID)
	b.cur.Term = Terminator{Kind: TermNext, Next: b.g.Exit} // placeholder edge
}

func (b *builder) buildLabel(s *bound.Stmt, d bound.LabelData) {
	info := b.label(d.Name)
	target := b.g.newBlock()

	if info.Flags&LabelDefined != 0 {
		info.Flags |= LabelRedefined
		b.rep.Report(diag.DeclDuplicateLabel, diag.SevError, s.Span,
			fmt.Sprintf("label %q is already defined in this routine", d.Name), nil)
	} else {
		info.Flags |= LabelDefined
		info.Target = target.ID
		for _, pending := range info.Pending {
			b.g.Block(pending).Term = Terminator{Kind: TermNext, Next: target.ID}
		}
		info.Pending = nil
	}
	b.moveTo(target)
}

func (b *builder) buildBreak(s *bound.Stmt, depth int, isContinue bool) {
	if depth <= 0 {
		depth = 1
	}
	if depth > len(b.loops) {
		kind := "break"
		if isContinue {
			kind = "continue"
		}
		b.rep.Report(diag.FlowInternal, diag.SevError, s.Span,
			fmt.Sprintf("%s %d outside of a matching loop", kind, depth), nil)
		b.cur.Term = Terminator{Kind: TermNext, Next: b.g.Exit}
		return
	}
	scope := b.loops[len(b.loops)-depth]
	target := scope.breakTo
	if isContinue {
		target = scope.continueTo
		if target == NoBlockID {
			// continue inside switch behaves like break
			target = scope.breakTo
		}
	}
	b.cur.Term = Terminator{Kind: TermNext, Next: target}
}

func (b *builder) label(name string) *LabelInfo {
	if info, ok := b.g.Labels[name]; ok {
		return info
	}
	info := &LabelInfo{Name: name, Target: NoBlockID}
	b.g.Labels[name] = info
	return info
}

// finishLabels reports gotos whose label never appeared and labels nobody
// jumps to.
func (b *builder) finishLabels(sp source.Span) {
	for name, info := range b.g.Labels {
		if info.Flags&LabelUsed != 0 && info.Flags&LabelDefined == 0 {
			b.rep.Report(diag.DeclUndefinedLabel, diag.SevError, sp,
				fmt.Sprintf("goto target %q is not defined", name), nil)
		}
		if info.Flags&LabelDefined != 0 && info.Flags&LabelUsed == 0 {
			b.rep.Report(diag.DeclUnusedLabel, diag.SevWarning, sp,
				fmt.Sprintf("label %q is never used", name), nil)
		}
	}
}
