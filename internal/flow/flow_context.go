package flow

import (
	"sync"

	"fern/internal/types"
)

// usedMaskWidth is the width of the per-slot bookkeeping masks. Slots past
// the width are conservatively treated as always used and always aliased;
// precision degrades for routines with that many locals, correctness does
// not.
const usedMaskWidth = 64

// FlowContext is the per-routine store the fixed-point analysis converges
// into: a name-to-slot map for locals, the merged-so-far type mask per slot,
// used/aliased bookkeeping and the merged return mask. Created once when a
// routine is first enqueued, mutated by every block visit, frozen when
// analysis converges.
type FlowContext struct {
	mu sync.Mutex

	typeCtx *types.Context
	names   map[string]int
	slots   []string // slot -> name

	varTypes []types.TypeRefMask
	usedMask uint64
	refMask  uint64
	retMask  types.TypeRefMask

	frozen bool
}

// NewFlowContext creates an empty flow context over the given type
// context.
func NewFlowContext(tc *types.Context) *FlowContext {
	return &FlowContext{
		typeCtx: tc,
		names:   make(map[string]int),
	}
}

// TypeContext returns the type context masks in this flow context are
// expressed against.
func (fc *FlowContext) TypeContext() *types.Context {
	return fc.typeCtx
}

// GetVarIndex returns the slot for name, registering it on first use.
// Idempotent and safe under concurrent calls.
func (fc *FlowContext) GetVarIndex(name string) int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if i, ok := fc.names[name]; ok {
		return i
	}
	if fc.frozen {
		panic("flow: GetVarIndex on frozen context")
	}
	i := len(fc.slots)
	fc.names[name] = i
	fc.slots = append(fc.slots, name)
	fc.varTypes = append(fc.varTypes, types.Void)
	return i
}

// TryGetVarIndex looks a name up without registering it.
func (fc *FlowContext) TryGetVarIndex(name string) (int, bool) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	i, ok := fc.names[name]
	return i, ok
}

// VarName returns the name registered at slot.
func (fc *FlowContext) VarName(slot int) string {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if slot < 0 || slot >= len(fc.slots) {
		return ""
	}
	return fc.slots[slot]
}

// VarCount returns the number of registered slots.
func (fc *FlowContext) VarCount() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return len(fc.slots)
}

// AddVarType unions mask into the slot's merged type. A slot outside the
// current bounds is a no-op: slots are pre-registered, never grown
// implicitly.
func (fc *FlowContext) AddVarType(slot int, mask types.TypeRefMask) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if slot < 0 || slot >= len(fc.varTypes) {
		return
	}
	merged := fc.varTypes[slot].Union(mask)
	if merged == fc.varTypes[slot] {
		return
	}
	if fc.frozen {
		// Re-analysis after convergence must be a no-op; a widening
		// write on a frozen context is an internal invariant violation.
		panic("flow: AddVarType on frozen context")
	}
	fc.varTypes[slot] = merged
}

// GetVarType returns the merged-so-far mask for slot.
func (fc *FlowContext) GetVarType(slot int) types.TypeRefMask {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if slot < 0 || slot >= len(fc.varTypes) {
		return types.Void
	}
	m := fc.varTypes[slot]
	if fc.isRefLocked(slot) {
		m = m.WithRef()
	}
	return m
}

// SetUsed marks slot as used.
func (fc *FlowContext) SetUsed(slot int) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if slot >= 0 && slot < usedMaskWidth {
		fc.usedMask |= 1 << uint(slot)
	}
}

// IsUsed reports whether slot was ever read. Slots past the mask width
// are unconditionally used.
func (fc *FlowContext) IsUsed(slot int) bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if slot >= usedMaskWidth {
		return true
	}
	if slot < 0 {
		return false
	}
	return fc.usedMask&(1<<uint(slot)) != 0
}

// SetVarRef marks slot as aliased for the remainder of the routine. A
// variable ever aliased is conservatively aliased everywhere: flow merges
// are not path-sensitive backwards.
func (fc *FlowContext) SetVarRef(slot int) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.frozen && !fc.isRefLocked(slot) {
		panic("flow: SetVarRef on frozen context")
	}
	if slot >= 0 && slot < usedMaskWidth {
		fc.refMask |= 1 << uint(slot)
	}
	if slot >= 0 && slot < len(fc.varTypes) {
		fc.varTypes[slot] = fc.varTypes[slot].WithRef()
	}
}

// IsReference reports whether slot may be an alias. Slots past the mask
// width are unconditionally references.
func (fc *FlowContext) IsReference(slot int) bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.isRefLocked(slot)
}

func (fc *FlowContext) isRefLocked(slot int) bool {
	if slot >= usedMaskWidth {
		return true
	}
	if slot < 0 {
		return false
	}
	return fc.refMask&(1<<uint(slot)) != 0
}

// AddReturnType unions mask into the routine's merged return mask.
func (fc *FlowContext) AddReturnType(mask types.TypeRefMask) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	merged := fc.retMask.Union(mask)
	if merged == fc.retMask {
		return
	}
	if fc.frozen {
		panic("flow: AddReturnType on frozen context")
	}
	fc.retMask = merged
}

// ReturnType returns the merged return mask.
func (fc *FlowContext) ReturnType() types.TypeRefMask {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.retMask
}

// Freeze makes the context read-only. Codegen consumes frozen contexts;
// a write after Freeze is an internal invariant violation.
func (fc *FlowContext) Freeze() {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.frozen = true
}

// Frozen reports whether the context converged and was sealed.
func (fc *FlowContext) Frozen() bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.frozen
}

// Snapshot copies the per-slot masks, with ref flags applied, in slot
// order. Used for convergence checks and cache serialization.
func (fc *FlowContext) Snapshot() []types.TypeRefMask {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	out := make([]types.TypeRefMask, len(fc.varTypes))
	for i, m := range fc.varTypes {
		if fc.isRefLocked(i) {
			m = m.WithRef()
		}
		out[i] = m
	}
	return out
}
