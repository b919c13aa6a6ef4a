package flow

import (
	"fmt"
	"testing"

	"fern/internal/types"
)

func TestFrozenAllowsNoopWrites(t *testing.T) {
	fc := NewFlowContext(types.NewContext())
	slot := fc.GetVarIndex("x")
	long := fc.TypeContext().GetLongTypeMask()
	fc.AddVarType(slot, long)
	fc.SetVarRef(slot)
	fc.AddReturnType(long)
	fc.Freeze()

	// Re-applying converged facts must not panic.
	fc.AddVarType(slot, long)
	fc.SetVarRef(slot)
	fc.AddReturnType(long)
	if fc.GetVarIndex("x") != slot {
		t.Fatal("existing lookups must survive a freeze")
	}
}

func TestFrozenRejectsChangingWrites(t *testing.T) {
	fc := NewFlowContext(types.NewContext())
	slot := fc.GetVarIndex("x")
	fc.AddVarType(slot, fc.TypeContext().GetLongTypeMask())
	fc.Freeze()

	defer func() {
		if recover() == nil {
			t.Fatal("widening a frozen context must panic")
		}
	}()
	fc.AddVarType(slot, fc.TypeContext().GetStringTypeMask())
}

func TestFrozenRejectsNewVariables(t *testing.T) {
	fc := NewFlowContext(types.NewContext())
	fc.GetVarIndex("x")
	fc.Freeze()

	defer func() {
		if recover() == nil {
			t.Fatal("allocating a slot in a frozen context must panic")
		}
	}()
	fc.GetVarIndex("y")
}

func TestOutOfRangeSlotIsNoop(t *testing.T) {
	fc := NewFlowContext(types.NewContext())
	fc.AddVarType(99, fc.TypeContext().GetLongTypeMask())
	if got := fc.GetVarType(99); !got.IsVoid() {
		t.Fatalf("phantom slot mask = %x, want void", got)
	}
}

func TestUsedTrackingSaturatesPastWidth(t *testing.T) {
	fc := NewFlowContext(types.NewContext())
	for i := 0; i < 70; i++ {
		fc.GetVarIndex(fmt.Sprintf("v%d", i))
	}
	if fc.IsUsed(3) {
		t.Fatal("fresh in-range slot must start unused")
	}
	fc.SetUsed(3)
	if !fc.IsUsed(3) {
		t.Fatal("in-range used bit lost")
	}
	// Slots past the tracked width are conservatively treated as used.
	if !fc.IsUsed(68) {
		t.Fatal("overflow slots must be conservatively used")
	}
	if !fc.IsUsed(69) {
		t.Fatal("overflow slots must be conservatively used")
	}
}

func TestRefFlagSurvivesSnapshot(t *testing.T) {
	fc := NewFlowContext(types.NewContext())
	slot := fc.GetVarIndex("a")
	fc.AddVarType(slot, fc.TypeContext().GetLongTypeMask())
	fc.SetVarRef(slot)
	snap := fc.Snapshot()
	if !snap[slot].IsRef() {
		t.Fatal("snapshot must carry the alias flag")
	}
	if snap[slot].WithoutRef() != fc.TypeContext().GetLongTypeMask() {
		t.Fatalf("snapshot mask = %x, want long under the flag", snap[slot])
	}
}
