package rt

// Object is a class instance. Fields live in alias cells so a field can
// be bound by reference without special-casing the object layout.
type Object struct {
	typ   *TypeInfo
	order []string
	cells map[string]*Alias
}

// NewObject instantiates typ with its declared fields set to null.
func NewObject(typ *TypeInfo) *Object {
	o := &Object{typ: typ, cells: make(map[string]*Alias)}
	for t := typ; t != nil; t = t.Base() {
		for _, f := range t.fields {
			if _, ok := o.cells[f]; !ok {
				o.order = append(o.order, f)
				o.cells[f] = NewAlias(Null())
			}
		}
	}
	return o
}

// Type returns the runtime type descriptor.
func (o *Object) Type() *TypeInfo { return o.typ }

// GetField reads a field, creating it on first write-less read of an
// undeclared name is not allowed: the second result is false then.
func (o *Object) GetField(name string) (Value, bool) {
	name = CanonicalName(name)
	c, ok := o.cells[name]
	if !ok {
		return Value{}, false
	}
	return c.GetValue(), true
}

// SetField writes a field, declaring it dynamically when absent.
func (o *Object) SetField(name string, v Value) {
	name = CanonicalName(name)
	c, ok := o.cells[name]
	if !ok {
		c = NewAlias(Null())
		o.order = append(o.order, name)
		o.cells[name] = c
	}
	c.SetValue(v)
}

// FieldRef returns the field's alias cell, declaring the field when
// absent. Binding a field by reference goes through here.
func (o *Object) FieldRef(name string) *Alias {
	name = CanonicalName(name)
	c, ok := o.cells[name]
	if !ok {
		c = NewAlias(Null())
		o.order = append(o.order, name)
		o.cells[name] = c
	}
	return c
}

// ForEachField visits fields in declaration order.
func (o *Object) ForEachField(f func(name string, v Value) bool) {
	for _, name := range o.order {
		if !f(name, o.cells[name].GetValue()) {
			return
		}
	}
}

// InstanceOf reports whether the object's type is typ or derives from it.
func (o *Object) InstanceOf(typ *TypeInfo) bool {
	for t := o.typ; t != nil; t = t.Base() {
		if t == typ {
			return true
		}
	}
	return false
}
