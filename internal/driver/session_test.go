package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fern/internal/bound"
	"fern/internal/codegen"
	"fern/internal/diag"
	"fern/internal/project"
)

func lit(l int64) *bound.Expr {
	return &bound.Expr{Kind: bound.ExprLiteral, Data: bound.LiteralData{Kind: bound.LitLong, Long: l}}
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

func routine(name string, body ...bound.Stmt) bound.Routine {
	return bound.Routine{Name: name, Body: body, IsGenerator: bound.HasYield(body)}
}

func module(routines ...bound.Routine) *bound.Module {
	return &bound.Module{Name: "m", Routines: routines}
}

func TestAnalyzeModulePreservesOrder(t *testing.T) {
	m := module(
		routine("a", assign("x", lit(1)), ret(varUse("x"))),
		routine("b", ret(lit(2))),
		routine("c", ret(lit(3))),
	)
	s := NewSession(Options{Jobs: 3})
	res, err := s.AnalyzeModule(context.Background(), m, project.Digest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Routines) != 3 {
		t.Fatalf("got %d routine results, want 3", len(res.Routines))
	}
	for i, want := range []string{"a", "b", "c"} {
		r := &res.Routines[i]
		if r.Name != want {
			t.Fatalf("slot %d holds %q, want %q", i, r.Name, want)
		}
		if r.Flow == nil || r.Graph == nil {
			t.Fatalf("routine %s missing analysis results", want)
		}
		tc := r.Flow.TypeContext()
		if r.Return != tc.GetLongTypeMask() {
			t.Fatalf("routine %s return = %x, want long", want, r.Return)
		}
	}
}

func TestDuplicateRoutineReported(t *testing.T) {
	m := module(
		routine("f", ret(lit(1))),
		routine("f", ret(lit(2))),
	)
	s := NewSession(Options{})
	res, err := s.AnalyzeModule(context.Background(), m, project.Digest{})
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, d := range res.Bag.Items() {
		if d.Code == diag.DeclDuplicateRoutine {
			found = true
		}
	}
	if !found {
		t.Fatal("duplicate routine name must be diagnosed")
	}
}

func TestDecodeFailureBecomesDiagnostic(t *testing.T) {
	p := filepath.Join(t.TempDir(), "broken.fnb")
	if err := os.WriteFile(p, []byte{0xc1, 0xff, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewSession(Options{})
	res, err := s.AnalyzeFile(context.Background(), p)
	if err != nil {
		t.Fatalf("decode problems must not be errors: %v", err)
	}
	if !res.Bag.HasErrors() {
		t.Fatal("expected a payload diagnostic")
	}
	if res.Bag.Items()[0].Code != diag.ModBadPayload {
		t.Fatalf("code = %v, want ModBadPayload", res.Bag.Items()[0].Code)
	}
}

func TestMissingFileIsError(t *testing.T) {
	s := NewSession(Options{})
	_, err := s.AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "absent.fnb"))
	if err == nil {
		t.Fatal("I/O failure must surface as an error")
	}
}

func TestCancelledContextStopsAnalysis(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := module(routine("f", ret(lit(1))))
	s := NewSession(Options{Jobs: 1})
	_, err := s.AnalyzeModule(ctx, m, project.Digest{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m := module(routine("f", assign("x", lit(1)), ret(varUse("x"))))
	hash := project.HashBytes([]byte("payload-v1"))
	s := NewSession(Options{Cache: cache})

	first, err := s.AnalyzeModule(context.Background(), m, hash)
	if err != nil {
		t.Fatal(err)
	}
	if first.Routines[0].FromCache {
		t.Fatal("first run must analyze fresh")
	}

	second, err := s.AnalyzeModule(context.Background(), m, hash)
	if err != nil {
		t.Fatal(err)
	}
	r := &second.Routines[0]
	if !r.FromCache {
		t.Fatal("second run over identical content must hit the cache")
	}
	if r.Return != first.Routines[0].Return {
		t.Fatalf("cached return = %x, want %x", r.Return, first.Routines[0].Return)
	}
	if len(r.Masks) != len(first.Routines[0].Masks) {
		t.Fatalf("cached %d masks, want %d", len(r.Masks), len(first.Routines[0].Masks))
	}
}

func TestDiskCacheMissOnChangedContent(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m := module(routine("f", ret(lit(1))))
	s := NewSession(Options{Cache: cache})

	if _, err := s.AnalyzeModule(context.Background(), m, project.HashBytes([]byte("v1"))); err != nil {
		t.Fatal(err)
	}
	res, err := s.AnalyzeModule(context.Background(), m, project.HashBytes([]byte("v2")))
	if err != nil {
		t.Fatal(err)
	}
	if res.Routines[0].FromCache {
		t.Fatal("changed content must not hit the cache")
	}
}

func TestZeroDigestDisablesCache(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m := module(routine("f", ret(lit(1))))
	s := NewSession(Options{Cache: cache})
	for i := 0; i < 2; i++ {
		res, err := s.AnalyzeModule(context.Background(), m, project.Digest{})
		if err != nil {
			t.Fatal(err)
		}
		if res.Routines[0].FromCache {
			t.Fatal("zero digest must bypass the cache")
		}
	}
}

func TestPhaseObserverSeesPipeline(t *testing.T) {
	var events []string
	obs := func(e PhaseEvent) {
		suffix := "start"
		if e.Status == PhaseEnd {
			suffix = "end"
		}
		events = append(events, e.Name+":"+suffix)
	}
	m := module(routine("f", ret(lit(1))))
	s := NewSession(Options{Observer: obs})
	if _, err := s.AnalyzeModule(context.Background(), m, project.Digest{}); err != nil {
		t.Fatal(err)
	}
	want := []string{"signatures:start", "signatures:end", "analyze:start", "analyze:end"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestEmitConfinesLoweringFailure(t *testing.T) {
	// $x =& $a[] asks the append slot for an address, which it lacks.
	bad := routine("bad",
		assign("a", lit(0)),
		bound.Stmt{Kind: bound.StmtRefAssign, Data: bound.RefAssignData{
			Target: varUse("x"),
			Source: &bound.Expr{Kind: bound.ExprIndex, Data: bound.IndexData{Subject: varUse("a")}},
		}})
	good := routine("good", ret(lit(1)))
	m := module(bad, good)

	s := NewSession(Options{})
	res, err := s.AnalyzeModule(context.Background(), m, project.Digest{})
	if err != nil {
		t.Fatal(err)
	}

	emitted := map[string]bool{}
	EmitModule(res, func(name string) codegen.Emitter {
		emitted[name] = true
		return codegen.NewTextEmitter(discard{})
	})
	if !emitted["good"] {
		t.Fatal("healthy sibling routine must still be lowered")
	}
	badBag := res.Routines[0].Bag
	if !badBag.HasErrors() {
		t.Fatal("lowering failure must be diagnosed")
	}
	found := false
	for _, d := range badBag.Items() {
		if d.Code == diag.GenNoAddress {
			found = true
		}
	}
	if !found {
		t.Fatalf("want GenNoAddress among %v", badBag.Items())
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
