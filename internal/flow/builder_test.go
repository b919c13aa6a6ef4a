package flow

import (
	"testing"

	"fern/internal/bound"
	"fern/internal/diag"
)

func lit(l int64) *bound.Expr {
	return &bound.Expr{Kind: bound.ExprLiteral, Data: bound.LiteralData{Kind: bound.LitLong, Long: l}}
}

func strLit(s string) *bound.Expr {
	return &bound.Expr{Kind: bound.ExprLiteral, Data: bound.LiteralData{Kind: bound.LitString, Str: s}}
}

func varUse(name string) *bound.Expr {
	return &bound.Expr{Kind: bound.ExprVarUse, Data: bound.VarUseData{Name: name}}
}

func assign(name string, v *bound.Expr) bound.Stmt {
	return bound.Stmt{Kind: bound.StmtAssign, Data: bound.AssignData{Target: varUse(name), Value: v}}
}

func ret(v *bound.Expr) bound.Stmt {
	return bound.Stmt{Kind: bound.StmtReturn, Data: bound.ReturnData{Value: v}}
}

func echo(vs ...*bound.Expr) bound.Stmt {
	return bound.Stmt{Kind: bound.StmtEcho, Data: bound.EchoData{Values: vs}}
}

func routine(name string, body ...bound.Stmt) *bound.Routine {
	return &bound.Routine{Name: name, Body: body, IsGenerator: bound.HasYield(body)}
}

func TestBuildStartExitNonNil(t *testing.T) {
	g := Build(routine("empty"), nil)
	if g.Block(g.Start) == nil || g.Block(g.Exit) == nil {
		t.Fatal("Start and Exit must exist")
	}
	if g.Block(g.Start).Term.Next != g.Exit {
		t.Fatal("empty body must fall through to Exit")
	}
}

func TestUnreachableAfterReturn(t *testing.T) {
	bag := diag.NewBag(10)
	g := Build(routine("r",
		ret(lit(1)),
		echo(strLit("x")),
	), diag.BagReporter{Bag: bag})

	if len(g.Unreachable) != 1 {
		t.Fatalf("Unreachable = %v, want one block", g.Unreachable)
	}
	dead := g.Block(g.Unreachable[0])
	if len(dead.Stmts) != 1 || dead.Stmts[0].Kind != bound.StmtEcho {
		t.Fatalf("the echo must live in the unreachable block, got %+v", dead.Stmts)
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.DeclUnreachableCode {
			found = true
		}
	}
	if !found {
		t.Fatal("unreachable code must be diagnosed")
	}
}

func TestWhileBackEdge(t *testing.T) {
	g := Build(routine("loop",
		bound.Stmt{Kind: bound.StmtWhile, Data: bound.WhileData{
			Cond: varUse("c"),
			Body: []bound.Stmt{assign("i", lit(1))},
		}},
	), nil)

	// Find the loop header: the block with a TermIf.
	var header *Block
	for _, b := range g.Blocks() {
		if b.Term.Kind == TermIf {
			header = b
		}
	}
	if header == nil {
		t.Fatal("while must produce a conditional header")
	}
	body := g.Block(header.Term.Next)
	if body.Term.Kind != TermNext || body.Term.Next != header.ID {
		t.Fatal("loop body must branch back to the header")
	}
}

func TestLabelDiagnostics(t *testing.T) {
	bag := diag.NewBag(10)
	Build(routine("labels",
		bound.Stmt{Kind: bound.StmtLabel, Data: bound.LabelData{Name: "a"}},
		bound.Stmt{Kind: bound.StmtLabel, Data: bound.LabelData{Name: "a"}},
		bound.Stmt{Kind: bound.StmtGoto, Data: bound.GotoData{Label: "missing"}},
	), diag.BagReporter{Bag: bag})

	var dup, missing, unused bool
	for _, d := range bag.Items() {
		switch d.Code {
		case diag.DeclDuplicateLabel:
			dup = true
		case diag.DeclUndefinedLabel:
			missing = true
		case diag.DeclUnusedLabel:
			unused = true
		}
	}
	if !dup || !missing || !unused {
		t.Fatalf("expected duplicate+undefined+unused label diagnostics, got %+v", bag.Items())
	}
}

func TestForwardGotoResolves(t *testing.T) {
	bag := diag.NewBag(10)
	g := Build(routine("fwd",
		bound.Stmt{Kind: bound.StmtGoto, Data: bound.GotoData{Label: "end"}},
		echo(strLit("skipped")),
		bound.Stmt{Kind: bound.StmtLabel, Data: bound.LabelData{Name: "end"}},
	), diag.BagReporter{Bag: bag})

	info := g.Labels["end"]
	if info == nil || info.Flags&LabelDefined == 0 || info.Flags&LabelUsed == 0 {
		t.Fatalf("label flags = %+v", info)
	}
	if g.Block(g.Start).Term.Next != info.Target {
		t.Fatal("forward goto must be patched to the label's block")
	}
	if len(g.Unreachable) != 1 {
		t.Fatalf("the skipped echo must be unreachable, got %v", g.Unreachable)
	}
}

func TestYieldPoints(t *testing.T) {
	g := Build(routine("gen",
		bound.Stmt{Kind: bound.StmtYield, Data: bound.YieldData{Value: lit(1)}},
		bound.Stmt{Kind: bound.StmtYield, Data: bound.YieldData{Value: lit(2)}},
	), nil)

	if len(g.Yields) != 2 {
		t.Fatalf("Yields = %d, want 2", len(g.Yields))
	}
	if g.Yields[0].Index != 1 || g.Yields[1].Index != 2 {
		t.Fatalf("resumption indices must be 1-based and ordered: %+v", g.Yields)
	}
	// Each yield suspends its block: the resume block follows it.
	if g.Yields[0].Resume == g.Yields[1].Resume {
		t.Fatal("distinct yields need distinct resume blocks")
	}
}

func TestSwitchDefaultEdge(t *testing.T) {
	g := Build(routine("sw",
		bound.Stmt{Kind: bound.StmtSwitch, Data: bound.SwitchData{
			Subject: varUse("x"),
			Cases: []bound.SwitchCase{
				{Match: lit(1), Body: []bound.Stmt{assign("a", lit(1))}},
				{Match: lit(2), Body: []bound.Stmt{assign("a", lit(2))}},
			},
		}},
	), nil)

	var sw *Block
	for _, b := range g.Blocks() {
		if b.Term.Kind == TermSwitch {
			sw = b
		}
	}
	if sw == nil {
		t.Fatal("no switch terminator built")
	}
	// Two cases plus the synthesized default edge.
	if len(sw.Term.Cases) != 3 {
		t.Fatalf("cases = %d, want 3 (incl. default)", len(sw.Term.Cases))
	}
	if sw.Term.Cases[2].Match != nil {
		t.Fatal("synthesized arm must be the default")
	}
}

func TestNewColorMonotonic(t *testing.T) {
	g := Build(routine("c"), nil)
	a, b := g.NewColor(), g.NewColor()
	if b <= a {
		t.Fatalf("colors must increase: %d then %d", a, b)
	}
}
