package rt

// Alias is a shared mutable cell. Two variables bound by reference hold
// the same *Alias; a write through either is visible to both. Deep copy
// of an alias returns the same cell, the copy-on-write boundary is the
// array or string buffer inside it.
type Alias struct {
	v Value
}

// NewAlias makes a cell holding v. An alias never nests another alias.
func NewAlias(v Value) *Alias {
	return &Alias{v: v.Deref()}
}

// GetValue dereferences the cell.
func (a *Alias) GetValue() Value { return a.v }

// SetValue replaces the cell's contents.
func (a *Alias) SetValue(v Value) { a.v = v.Deref() }
