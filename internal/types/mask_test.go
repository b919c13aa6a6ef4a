package types

import "testing"

func TestUnionLaws(t *testing.T) {
	c := NewContext()
	a := c.GetLongTypeMask()
	b := c.GetStringTypeMask()
	d := c.GetTypeMask(ClassRef{Name: "Foo"})

	if a.Union(b) != b.Union(a) {
		t.Fatal("union must be commutative")
	}
	if a.Union(b).Union(d) != a.Union(b.Union(d)) {
		t.Fatal("union must be associative")
	}
	if a.Union(a) != a {
		t.Fatal("union must be idempotent")
	}
}

func TestVoidAndFlags(t *testing.T) {
	if !Void.IsVoid() {
		t.Fatal("zero mask must be void")
	}
	if !Void.WithRef().IsVoid() {
		t.Fatal("IsRef alone does not carry type information")
	}
	if Void.WithAny().IsVoid() {
		t.Fatal("AnyType is not void")
	}
	m := Void.WithRef()
	if !m.IsRef() || m.WithoutRef().IsRef() {
		t.Fatal("ref flag set/clear broken")
	}
}

func TestIntersects(t *testing.T) {
	c := NewContext()
	num := c.GetNumberTypeMask()
	long := c.GetLongTypeMask()
	str := c.GetStringTypeMask()

	if !num.Intersects(long) {
		t.Fatal("number must intersect long")
	}
	if long.Intersects(str) {
		t.Fatal("long must not intersect string")
	}
	if !AnyType.Intersects(str) {
		t.Fatal("AnyType intersects everything non-void")
	}
	if AnyType.Intersects(Void) {
		t.Fatal("nothing intersects void")
	}
}

func TestIsSingleType(t *testing.T) {
	c := NewContext()
	if !c.GetLongTypeMask().IsSingleType() {
		t.Fatal("long must be a single type")
	}
	if c.GetNumberTypeMask().IsSingleType() {
		t.Fatal("long|double is not single")
	}
	if AnyType.IsSingleType() {
		t.Fatal("AnyType is not single")
	}
}
