package codegen

import "fmt"

// Place is a storage location seen through a fixed capability set.
// Stores are two-phase: EmitStorePrepare runs before the value to store
// is produced, EmitStore after, so location effects and value effects
// keep their evaluation order under the sink's single-pass stack model.
// Callers stay polymorphic over the capability set and never branch on
// the concrete variant.
type Place interface {
	EmitLoad(e Emitter)
	EmitStorePrepare(e Emitter)
	EmitStore(e Emitter)
	// EmitLoadAddress pushes the location's alias cell. Panics for a
	// place without an address; check HasAddress first.
	EmitLoadAddress(e Emitter)
	HasAddress() bool
}

// NoAddressError is the panic value raised when codegen needs the
// address of a location that has none. The driver recovers it at
// routine granularity.
type NoAddressError struct{ What string }

func (e NoAddressError) Error() string {
	return fmt.Sprintf("codegen: %s has no address", e.What)
}

func noAddress(what string) {
	panic(NoAddressError{What: what})
}

// LocalPlace is a routine-local variable slot.
type LocalPlace struct {
	Slot int
}

func (p LocalPlace) EmitLoad(e Emitter)         { e.EmitLocalLoad(p.Slot) }
func (p LocalPlace) EmitStorePrepare(e Emitter) {}
func (p LocalPlace) EmitStore(e Emitter)        { e.EmitLocalStore(p.Slot) }
func (p LocalPlace) EmitLoadAddress(e Emitter)  { e.EmitLocalAddr(p.Slot) }
func (p LocalPlace) HasAddress() bool           { return true }

// ParamPlace is a declared parameter. Parameters occupy the leading
// local slots; by-ref parameters already hold alias cells.
type ParamPlace struct {
	Slot  int
	ByRef bool
}

func (p ParamPlace) EmitLoad(e Emitter) {
	e.EmitLocalLoad(p.Slot)
	if p.ByRef {
		e.EmitOpCode(OpDeref)
	}
}

func (p ParamPlace) EmitStorePrepare(e Emitter) {
	if p.ByRef {
		e.EmitLocalLoad(p.Slot)
	}
}

func (p ParamPlace) EmitStore(e Emitter) {
	if p.ByRef {
		e.EmitOpCode(OpCellSet)
		return
	}
	e.EmitLocalStore(p.Slot)
}

func (p ParamPlace) EmitLoadAddress(e Emitter) {
	if p.ByRef {
		e.EmitLocalLoad(p.Slot)
		return
	}
	e.EmitLocalAddr(p.Slot)
}

func (p ParamPlace) HasAddress() bool { return true }

// FieldPlace is a named field of a receiver.
type FieldPlace struct {
	Recv Place
	Name string
}

func (p FieldPlace) EmitLoad(e Emitter) {
	p.Recv.EmitLoad(e)
	e.EmitOpCode(OpFieldLoad)
	e.EmitToken(p.Name)
}

func (p FieldPlace) EmitStorePrepare(e Emitter) {
	p.Recv.EmitLoad(e)
}

func (p FieldPlace) EmitStore(e Emitter) {
	e.EmitOpCode(OpFieldStore)
	e.EmitToken(p.Name)
}

func (p FieldPlace) EmitLoadAddress(e Emitter) {
	p.Recv.EmitLoad(e)
	e.EmitOpCode(OpFieldAddr)
	e.EmitToken(p.Name)
}

func (p FieldPlace) HasAddress() bool { return true }

// ElementPlace is one array element. The prepare step resolves the
// element's cell, which includes the subject's ensure-writable effect,
// before the stored value is produced.
type ElementPlace struct {
	Arr Place
	Key Place
}

func (p ElementPlace) EmitLoad(e Emitter) {
	p.Arr.EmitLoad(e)
	p.Key.EmitLoad(e)
	e.EmitOpCode(OpIndex)
}

func (p ElementPlace) EmitStorePrepare(e Emitter) {
	p.Arr.EmitLoadAddress(e)
	p.Key.EmitLoad(e)
	e.EmitOpCode(OpIndexAddr)
}

func (p ElementPlace) EmitStore(e Emitter) {
	e.EmitOpCode(OpCellSet)
}

func (p ElementPlace) EmitLoadAddress(e Emitter) {
	p.Arr.EmitLoadAddress(e)
	p.Key.EmitLoad(e)
	e.EmitOpCode(OpIndexAddr)
}

func (p ElementPlace) HasAddress() bool { return true }

// PropertyPlace is a static property of a named type.
type PropertyPlace struct {
	TypeName string
	Name     string
}

func (p PropertyPlace) token() string { return p.TypeName + "::" + p.Name }

func (p PropertyPlace) EmitLoad(e Emitter) {
	e.EmitOpCode(OpStaticLoad)
	e.EmitToken(p.token())
}

func (p PropertyPlace) EmitStorePrepare(e Emitter) {}

func (p PropertyPlace) EmitStore(e Emitter) {
	e.EmitOpCode(OpStaticStore)
	e.EmitToken(p.token())
}

func (p PropertyPlace) EmitLoadAddress(e Emitter) {
	e.EmitOpCode(OpStaticAddr)
	e.EmitToken(p.token())
}

func (p PropertyPlace) HasAddress() bool { return true }

// DynamicMemberPlace is a member whose name is computed at runtime. It
// is resolved per access and has no address to hand out.
type DynamicMemberPlace struct {
	Recv Place
	Name Place
}

func (p DynamicMemberPlace) EmitLoad(e Emitter) {
	p.Recv.EmitLoad(e)
	p.Name.EmitLoad(e)
	e.EmitOpCode(OpDynLoad)
}

func (p DynamicMemberPlace) EmitStorePrepare(e Emitter) {
	p.Recv.EmitLoad(e)
	p.Name.EmitLoad(e)
}

func (p DynamicMemberPlace) EmitStore(e Emitter) {
	e.EmitOpCode(OpDynStore)
}

func (p DynamicMemberPlace) EmitLoadAddress(e Emitter) {
	noAddress("dynamically named member")
}

func (p DynamicMemberPlace) HasAddress() bool { return false }

// ConstPlace is a read-only operand wrapped as a place so value-
// producing expressions compose with place-consuming emission paths.
type ConstPlace struct {
	Emit func(e Emitter)
}

func (p ConstPlace) EmitLoad(e Emitter)         { p.Emit(e) }
func (p ConstPlace) EmitStorePrepare(e Emitter) { noAddress("constant operand") }
func (p ConstPlace) EmitStore(e Emitter)        { noAddress("constant operand") }
func (p ConstPlace) EmitLoadAddress(e Emitter)  { noAddress("constant operand") }
func (p ConstPlace) HasAddress() bool           { return false }
