package rt

import "testing"

func TestArrayInsertionOrder(t *testing.T) {
	a := NewArray()
	a.Set(StringKey("b"), Long(1))
	a.Set(IntKey(10), Long(2))
	a.Set(StringKey("a"), Long(3))

	var keys []ArrayKey
	a.ForEach(func(k ArrayKey, _ Value) bool {
		keys = append(keys, k)
		return true
	})
	want := []ArrayKey{StringKey("b"), IntKey(10), StringKey("a")}
	if len(keys) != len(want) {
		t.Fatalf("got %d keys, want %d", len(keys), len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("key[%d] = %v, want %v", i, keys[i], want[i])
		}
	}
}

func TestArrayNextIntKey(t *testing.T) {
	a := NewArray()
	a.Set(IntKey(5), Long(1))
	a.Append(Long(2))
	if _, ok := a.Get(IntKey(6)); !ok {
		t.Fatal("append after key 5 must land on key 6")
	}
	a.Delete(IntKey(6))
	a.Append(Long(3))
	if _, ok := a.Get(IntKey(7)); !ok {
		t.Fatal("the next-key counter never rewinds after a delete")
	}
}

func TestNumericStringKeysCanonicalize(t *testing.T) {
	a := NewArray()
	a.Set(StringKey("3"), Long(1))
	if _, ok := a.Get(IntKey(3)); !ok {
		t.Fatal(`key "3" must canonicalize to integer 3`)
	}
	a.Set(StringKey("03"), Long(2))
	if _, ok := a.Get(IntKey(3)); !ok {
		t.Fatal("a padded key must not disturb the integer entry")
	}
	if v, _ := a.Get(StringKey("03")); v.AsLong() != 2 {
		t.Fatal(`"03" must stay a string key`)
	}
}

func TestDeepCopyRoundTrip(t *testing.T) {
	orig := NewArray()
	orig.Append(Long(1))
	inner := NewArray()
	inner.Append(Str("x"))
	orig.Append(Arr(inner))

	copied := orig.DeepCopy()
	if Compare(Arr(orig), Arr(copied), nil) != 0 {
		t.Fatal("a fresh copy must compare equal to the original")
	}

	copied.Set(IntKey(0), Long(99))
	if v, _ := orig.Get(IntKey(0)); v.AsLong() != 1 {
		t.Fatal("mutating the copy must not affect the original")
	}

	// Nested arrays keep value semantics across the copy.
	cv, _ := copied.Get(IntKey(1))
	cv.AsArray().Append(Str("y"))
	ov, _ := orig.Get(IntKey(1))
	if ov.AsArray().Len() != 1 {
		t.Fatal("mutating a nested array in the copy must not affect the original")
	}
}

func TestDeepCopySharesUntilWrite(t *testing.T) {
	a := NewArray()
	a.Append(Long(1))
	b := a.DeepCopy()
	if a.data != b.data {
		t.Fatal("copy must share storage before any write")
	}
	b.Append(Long(2))
	if a.data == b.data {
		t.Fatal("a write must detach the copy")
	}
	if a.Len() != 1 || b.Len() != 2 {
		t.Fatalf("lengths after detach = %d, %d; want 1, 2", a.Len(), b.Len())
	}
}

func TestStrictArrayEquality(t *testing.T) {
	a := NewArray()
	a.Set(StringKey("k"), Long(1))
	b := NewArray()
	b.Set(StringKey("k"), Long(1))
	if !StrictEquals(Arr(a), Arr(b)) {
		t.Fatal("structurally identical arrays must be strictly equal")
	}
	b.Set(StringKey("k"), Str("1"))
	if StrictEquals(Arr(a), Arr(b)) {
		t.Fatal("element tags must match for strict equality")
	}
	if Compare(Arr(a), Arr(b), nil) != 0 {
		t.Fatal("loose comparison still coerces elements")
	}
}
