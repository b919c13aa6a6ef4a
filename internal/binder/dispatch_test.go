package binder

import (
	"errors"
	"testing"

	"fern/internal/diag"
	"fern/internal/rt"
	"fern/internal/source"
)

func describeType(t *testing.T) *rt.TypeInfo {
	t.Helper()
	reg := rt.NewRegistry()
	return reg.DeclareType(rt.TypeDecl{
		Name: "Probe",
		Methods: []rt.MethodInfo{
			{
				Name:   "describe",
				Params: []rt.ParamType{rt.ParamLong},
				Invoke: func(_ *rt.Object, args []rt.Value, _ *rt.ConvContext) (rt.Value, error) {
					return rt.Str("long"), nil
				},
			},
			{
				Name:   "describe",
				Params: []rt.ParamType{rt.ParamString},
				Invoke: func(_ *rt.Object, args []rt.Value, _ *rt.ConvContext) (rt.Value, error) {
					return rt.Str("string"), nil
				},
			},
		},
	})
}

func TestCallPicksCheapestOverload(t *testing.T) {
	obj := rt.NewObject(describeType(t))

	cases := []struct {
		name string
		arg  rt.Value
		want string
	}{
		{"long argument", rt.Long(7), "long"},
		{"string argument", rt.Str("x"), "string"},
		{"numeric string still prefers string", rt.Str("12"), "string"},
	}
	for _, c := range cases {
		got, err := Call(obj, "describe", []rt.Value{c.arg}, nil)
		if err != nil {
			t.Fatalf("%s: Call: %v", c.name, err)
		}
		if got.AsString() != c.want {
			t.Errorf("%s: picked %q, want %q", c.name, got.AsString(), c.want)
		}
	}
}

func TestCallConvertsToNativeRepresentation(t *testing.T) {
	reg := rt.NewRegistry()
	var seen rt.Value
	ti := reg.DeclareType(rt.TypeDecl{
		Name: "Sink",
		Methods: []rt.MethodInfo{{
			Name:   "take",
			Params: []rt.ParamType{rt.ParamLong},
			Invoke: func(_ *rt.Object, args []rt.Value, _ *rt.ConvContext) (rt.Value, error) {
				seen = args[0]
				return rt.Null(), nil
			},
		}},
	})

	if _, err := Call(rt.NewObject(ti), "take", []rt.Value{rt.Str("42")}, nil); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if seen.Tag() != rt.TagLong || seen.AsLong() != 42 {
		t.Fatalf("native argument = %v, want long 42", seen)
	}
}

func TestCallAliasParameterWritesBack(t *testing.T) {
	reg := rt.NewRegistry()
	ti := reg.DeclareType(rt.TypeDecl{
		Name: "Writer",
		Methods: []rt.MethodInfo{{
			Name:   "bump",
			Params: []rt.ParamType{rt.ParamAlias},
			Invoke: func(_ *rt.Object, args []rt.Value, _ *rt.ConvContext) (rt.Value, error) {
				cell := args[0].AsAlias()
				cell.SetValue(rt.Long(cell.GetValue().AsLong() + 1))
				return rt.Null(), nil
			},
		}},
	})

	cell := rt.NewAlias(rt.Long(1))
	if _, err := Call(rt.NewObject(ti), "bump", []rt.Value{rt.Ref(cell)}, nil); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if cell.GetValue().AsLong() != 2 {
		t.Fatalf("cell = %v, want 2 after by-reference write", cell.GetValue())
	}
}

func TestConstructRunsBoundConstructor(t *testing.T) {
	reg := rt.NewRegistry()
	ti := reg.DeclareType(rt.TypeDecl{
		Name:   "Point",
		Fields: []string{"x"},
		Methods: []rt.MethodInfo{{
			Name:          "Point",
			IsConstructor: true,
			Params:        []rt.ParamType{rt.ParamLong},
			Invoke: func(recv *rt.Object, args []rt.Value, _ *rt.ConvContext) (rt.Value, error) {
				recv.SetField("x", args[0])
				return rt.Null(), nil
			},
		}},
	})

	o, err := Construct(ti, rt.VisPublic, []rt.Value{rt.Long(3)}, nil)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if v, ok := o.GetField("x"); !ok || v.AsLong() != 3 {
		t.Fatalf("field x = %v, want 3", v)
	}
}

func TestConstructWithoutConstructors(t *testing.T) {
	reg := rt.NewRegistry()
	ti := reg.DeclareType(rt.TypeDecl{Name: "Bare"})

	if _, err := Construct(ti, rt.VisPublic, nil, nil); err != nil {
		t.Fatalf("bare construction: %v", err)
	}
	if _, err := Construct(ti, rt.VisPublic, []rt.Value{rt.Long(1)}, nil); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("err = %v, want ErrNoMatch for arguments without a constructor", err)
	}
}

func TestConstructRespectsVisibility(t *testing.T) {
	reg := rt.NewRegistry()
	ti := reg.DeclareType(rt.TypeDecl{
		Name: "Sealed",
		Methods: []rt.MethodInfo{{
			Name:          "Sealed",
			IsConstructor: true,
			Visibility:    rt.VisPrivate,
			Invoke: func(recv *rt.Object, _ []rt.Value, _ *rt.ConvContext) (rt.Value, error) {
				return rt.Null(), nil
			},
		}},
	})

	if _, err := Construct(ti, rt.VisPublic, nil, nil); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("err = %v, want ErrNoMatch from an outside scope", err)
	}
	if _, err := Construct(ti, rt.VisPrivate, nil, nil); err != nil {
		t.Fatalf("declaring scope: %v", err)
	}
}

func TestDiagnoseSeparatesTieFromNoMatch(t *testing.T) {
	sp := source.Span{File: 0, Start: 4, End: 9}

	d := Diagnose(ErrAmbiguous, "Probe::describe", sp)
	if d.Code != diag.BindAmbiguous || d.Severity != diag.SevError {
		t.Fatalf("tie mapped to %s/%s", d.Code, d.Severity)
	}
	d = Diagnose(ErrNoMatch, "Probe::describe", sp)
	if d.Code != diag.BindFailed {
		t.Fatalf("empty applicable set mapped to %s", d.Code)
	}
	if d.Primary != sp {
		t.Fatal("diagnostic must carry the call site span")
	}
}
