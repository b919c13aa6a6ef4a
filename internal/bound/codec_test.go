package bound

import (
	"errors"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"fern/internal/source"
)

func lit(l int64) *Expr {
	return &Expr{Kind: ExprLiteral, Data: LiteralData{Kind: LitLong, Long: l}}
}

func varUse(name string) *Expr {
	return &Expr{Kind: ExprVarUse, Data: VarUseData{Name: name}}
}

func assign(name string, v *Expr) Stmt {
	return Stmt{Kind: StmtAssign, Data: AssignData{Target: varUse(name), Value: v}}
}

func TestModuleRoundTrip(t *testing.T) {
	m := &Module{
		Name: "demo",
		Routines: []Routine{
			{
				Name:   "gen",
				Params: []Param{{Name: "n", TypeHint: "int"}},
				Body: []Stmt{
					assign("i", lit(0)),
					{Kind: StmtWhile, Data: WhileData{
						Cond: &Expr{Kind: ExprBinary, Data: BinaryData{
							Op: OpLess, Left: varUse("i"), Right: varUse("n"),
						}},
						Body: []Stmt{
							{Kind: StmtYield, Data: YieldData{Value: varUse("i")}},
						},
					}},
					{Kind: StmtReturn, Data: ReturnData{}},
				},
				Span: source.Span{File: 1, Start: 0, End: 42},
			},
		},
	}

	data, err := EncodeModule(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeModule(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "demo" || len(got.Routines) != 1 {
		t.Fatalf("module shape lost: %+v", got)
	}
	r := got.Routines[0]
	if !r.IsGenerator {
		t.Fatal("yield in body must mark the routine as a generator")
	}
	if len(r.Body) != 3 || r.Body[1].Kind != StmtWhile {
		t.Fatalf("body shape lost: %+v", r.Body)
	}
	while := r.Body[1].Data.(WhileData)
	if while.Cond.Data.(BinaryData).Op != OpLess {
		t.Fatal("binary operator lost in transit")
	}
}

func TestDecodeRejectsForeignSchema(t *testing.T) {
	raw, err := msgpack.Marshal(map[string]any{"schema": uint16(99), "name": "x"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = DecodeModule(raw)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("err = %v, want schema mismatch", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := DecodeModule([]byte{0xc1, 0xff, 0x00})
	if !errors.Is(err, ErrBadPayload) {
		t.Fatalf("err = %v, want bad payload", err)
	}
}
