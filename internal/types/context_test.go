package types

import (
	"sync"
	"testing"
)

func TestInternDeduplicates(t *testing.T) {
	c := NewContext()
	a := c.GetTypeMask(ClassRef{Name: "Foo"})
	b := c.GetTypeMask(ClassRef{Name: "Foo"})
	if a != b {
		t.Fatalf("same class must reuse its bit: %x vs %x", a, b)
	}
	other := c.GetTypeMask(ClassRef{Name: "Bar"})
	if a == other {
		t.Fatal("distinct classes must get distinct bits")
	}
}

func TestPrimitiveBitsStableAcrossContexts(t *testing.T) {
	a := NewContext()
	b := NewContext()
	if a.GetLongTypeMask() != b.GetLongTypeMask() {
		t.Fatal("primitive bit positions must match across fresh contexts")
	}
	if a.GetStringTypeMask() != b.GetStringTypeMask() {
		t.Fatal("primitive bit positions must match across fresh contexts")
	}
}

func TestOverflowCollapsesToAnyType(t *testing.T) {
	c := NewContext()
	var last TypeRefMask
	for i := 0; i < BitsCount+8; i++ {
		last = c.GetTypeMask(ClassRef{Name: className(i)})
	}
	if !last.IsAnyType() {
		t.Fatalf("mask after overflow = %x, want AnyType", last)
	}
	if c.Count() > BitsCount {
		t.Fatalf("context interned %d refs, cap is %d", c.Count(), BitsCount)
	}
}

func className(i int) string {
	buf := []byte("C")
	for ; i > 0; i /= 26 {
		buf = append(buf, byte('A'+i%26))
	}
	return string(buf)
}

func TestAddToContextReinterns(t *testing.T) {
	src := NewContext()
	dst := NewContext()

	// Skew dst's bit allocation so Foo lands on different bits.
	dst.GetTypeMask(ClassRef{Name: "Skew1"})
	dst.GetTypeMask(ClassRef{Name: "Skew2"})

	foo := src.GetTypeMask(ClassRef{Name: "Foo"})
	got := dst.AddToContext(foo.WithRef(), src)

	if !got.IsRef() {
		t.Fatal("flags must survive transfer")
	}
	want := dst.GetTypeMask(ClassRef{Name: "Foo"})
	if got.WithoutRef() != want {
		t.Fatalf("transferred mask %x, want %x", got.WithoutRef(), want)
	}
}

func TestAddToContextIdentity(t *testing.T) {
	c := NewContext()
	m := c.GetTypeMask(ClassRef{Name: "Foo"}).Union(c.GetLongTypeMask())
	if c.AddToContext(m, c) != m {
		t.Fatal("transfer within one context must be identity")
	}
}

func TestArrayRefTransferReinternsElem(t *testing.T) {
	src := NewContext()
	dst := NewContext()
	dst.GetTypeMask(ClassRef{Name: "Skew"})

	elem := src.GetTypeMask(ClassRef{Name: "Elem"})
	arr := src.GetTypeMask(ArrayRef{Elem: elem, Key_: ArrayKeyInt})

	got := dst.AddToContext(arr, src)
	refs := dst.Types(got)
	if len(refs) != 1 || !refs[0].IsArray() {
		t.Fatalf("expected a single array ref, got %v", refs)
	}
	ar := refs[0].(ArrayRef)
	wantElem := dst.GetTypeMask(ClassRef{Name: "Elem"})
	if ar.Elem != wantElem {
		t.Fatalf("element mask %x not re-interned, want %x", ar.Elem, wantElem)
	}
}

func TestConcurrentInternStable(t *testing.T) {
	c := NewContext()
	const n = 32
	results := make([]TypeRefMask, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.GetTypeMask(ClassRef{Name: "Shared"})
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatalf("concurrent intern diverged: %x vs %x", results[i], results[0])
		}
	}
}
