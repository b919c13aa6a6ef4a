package flow

import (
	"fern/internal/types"
)

// State is the per-block flow state: the mask of every registered local at
// one program point, backed by the routine's FlowContext. Writes mirror
// into the context so it accumulates the merged summary codegen consumes.
type State struct {
	fc   *FlowContext
	vars []types.TypeRefMask
}

// NewState creates a state with one void slot per registered variable.
func NewState(fc *FlowContext) *State {
	return &State{
		fc:   fc,
		vars: make([]types.TypeRefMask, fc.VarCount()),
	}
}

// Clone returns an independent copy sharing the flow context.
func (s *State) Clone() *State {
	out := &State{fc: s.fc, vars: make([]types.TypeRefMask, len(s.vars))}
	copy(out.vars, s.vars)
	return out
}

// MergeWith unions other into s and reports whether s changed.
func (s *State) MergeWith(other *State) bool {
	changed := false
	for i := range s.vars {
		if i >= len(other.vars) {
			break
		}
		merged := s.vars[i].Union(other.vars[i])
		if merged != s.vars[i] {
			s.vars[i] = merged
			changed = true
		}
	}
	return changed
}

// Equals reports whether both states carry identical masks.
func (s *State) Equals(other *State) bool {
	if len(s.vars) != len(other.vars) {
		return false
	}
	for i := range s.vars {
		if s.vars[i] != other.vars[i] {
			return false
		}
	}
	return true
}

// Assign unions mask into the slot, both locally and in the merged
// summary. Union, not overwrite: join points must keep every incoming
// type.
func (s *State) Assign(slot int, mask types.TypeRefMask) {
	if slot < 0 || slot >= len(s.vars) {
		return
	}
	s.vars[slot] = s.vars[slot].Union(mask)
	s.fc.AddVarType(slot, mask)
}

// VarType returns the slot's mask at this program point, with the
// routine-wide alias flag applied.
func (s *State) VarType(slot int) types.TypeRefMask {
	if slot < 0 || slot >= len(s.vars) {
		return types.Void
	}
	m := s.vars[slot]
	if s.fc.IsReference(slot) {
		m = m.WithRef()
	}
	return m
}
