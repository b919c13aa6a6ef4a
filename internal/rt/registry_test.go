package rt

import (
	"sync"
	"testing"
)

func TestRegistryNFCCanonicalization(t *testing.T) {
	reg := NewRegistry()
	// U+00E9 precomposed vs U+0065 U+0301 combining.
	reg.DeclareType(TypeDecl{Name: "Café"})
	if _, ok := reg.Lookup("Café"); !ok {
		t.Fatal("decomposed spelling must resolve to the precomposed entry")
	}
	if reg.Len() != 1 {
		t.Fatalf("registry has %d entries, want 1", reg.Len())
	}
}

func TestLazyBaseResolution(t *testing.T) {
	reg := NewRegistry()
	child := reg.DeclareType(TypeDecl{Name: "Child", BaseName: "Base", Fields: []string{"c"}})
	// Base declared after Child: resolution is lazy, first use pays.
	base := reg.DeclareType(TypeDecl{Name: "Base", Fields: []string{"b"}})
	if child.Base() != base {
		t.Fatal("base must resolve through the registry on first use")
	}

	o := NewObject(child)
	if _, ok := o.GetField("b"); !ok {
		t.Fatal("inherited fields must exist on instances")
	}
	if !o.InstanceOf(base) {
		t.Fatal("instance must satisfy its base type")
	}
}

func TestConstructorPartitions(t *testing.T) {
	reg := NewRegistry()
	ti := reg.DeclareType(TypeDecl{Name: "T", Methods: []MethodInfo{
		{Name: "__construct", IsConstructor: true, Visibility: VisPublic},
		{Name: "__construct", IsConstructor: true, Visibility: VisPrivate, Params: []ParamType{ParamLong}},
		{Name: "helper"},
	}})
	if got := len(ti.Constructors(VisPublic)); got != 1 {
		t.Fatalf("public partition has %d constructors, want 1", got)
	}
	if got := len(ti.Constructors(VisPrivate)); got != 2 {
		t.Fatalf("private partition has %d constructors, want 2", got)
	}
	// The partition is a compute-once cell.
	if &ti.Constructors(VisPublic)[0] != &ti.Constructors(VisPublic)[0] {
		t.Fatal("repeated calls must return the cached slice")
	}
}

func TestConcurrentFirstUse(t *testing.T) {
	reg := NewRegistry()
	child := reg.DeclareType(TypeDecl{Name: "C", BaseName: "B"})
	reg.DeclareType(TypeDecl{Name: "B"})

	var wg sync.WaitGroup
	results := make([]*TypeInfo, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = child.Base()
		}(i)
	}
	wg.Wait()
	for i := 1; i < 16; i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent first use must observe one resolution")
		}
	}
}

func TestRedeclareKeepsFirst(t *testing.T) {
	reg := NewRegistry()
	first := reg.DeclareType(TypeDecl{Name: "T", Fields: []string{"a"}})
	second := reg.DeclareType(TypeDecl{Name: "T", Fields: []string{"b"}})
	if first != second {
		t.Fatal("redeclaration must return the existing descriptor")
	}
}

func TestFieldRefAliasesField(t *testing.T) {
	reg := NewRegistry()
	o := NewObject(reg.DeclareType(TypeDecl{Name: "T", Fields: []string{"x"}}))
	cell := o.FieldRef("x")
	cell.SetValue(Long(42))
	if v, _ := o.GetField("x"); v.AsLong() != 42 {
		t.Fatal("a write through the field cell must be visible on the object")
	}
}
