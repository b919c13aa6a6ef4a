package source

import "testing"

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 10, End: 20}
	b := Span{File: 1, Start: 5, End: 15}
	got := a.Cover(b)
	if got.Start != 5 || got.End != 20 {
		t.Fatalf("Cover = %v, want 1:5-20", got)
	}
}

func TestSpanCoverDifferentFiles(t *testing.T) {
	a := Span{File: 1, Start: 10, End: 20}
	b := Span{File: 2, Start: 0, End: 100}
	if got := a.Cover(b); got != a {
		t.Fatalf("Cover across files must be identity, got %v", got)
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("t.fn", []byte("one\ntwo\nthree"))
	start, end := fs.Resolve(Span{File: id, Start: 4, End: 7})
	if start.Line != 2 || start.Col != 1 {
		t.Fatalf("start = %+v, want 2:1", start)
	}
	if end.Line != 2 || end.Col != 4 {
		t.Fatalf("end = %+v, want 2:4", end)
	}
}

func TestResolveNewlineBoundary(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("t.fn", []byte("one\ntwo\nthree"))

	// The newline byte belongs to the line it terminates.
	nl, _ := fs.Resolve(Span{File: id, Start: 3, End: 3})
	if nl.Line != 1 || nl.Col != 4 {
		t.Fatalf("newline = %+v, want 1:4", nl)
	}
	third, _ := fs.Resolve(Span{File: id, Start: 8, End: 13})
	if third.Line != 3 || third.Col != 1 {
		t.Fatalf("third line start = %+v, want 3:1", third)
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("t.fn", []byte("one\ntwo\nthree"))
	f := fs.Get(id)
	if got := f.GetLine(2); got != "two" {
		t.Fatalf("GetLine(2) = %q", got)
	}
	if got := f.GetLine(4); got != "" {
		t.Fatalf("GetLine(4) = %q, want empty", got)
	}
}
