// Package flow builds control-flow graphs from bound routine bodies and
// runs the worklist-driven, fixed-point type analysis over them.
package flow

import (
	"fern/internal/bound"
)

// BlockID indexes a block inside its owning Graph. Blocks reference each
// other by ID rather than pointer so the graph can be cyclic without
// shared-ownership cycles.
type BlockID int32

// NoBlockID marks an absent edge target.
const NoBlockID BlockID = -1

// TermKind enumerates how a block transfers control.
type TermKind uint8

const (
	// TermNext falls through to a single successor.
	TermNext TermKind = iota
	// TermIf branches on a condition.
	TermIf
	// TermSwitch dispatches over loosely-compared case values.
	TermSwitch
	// TermForeach advances an iteration: enter the body or leave the loop.
	TermForeach
	// TermReturn leaves the routine through Exit.
	TermReturn
	// TermThrow raises; control goes to the matching handlers and Exit.
	TermThrow
)

// SwitchTarget is one arm of a TermSwitch.
type SwitchTarget struct {
	Match  *bound.Expr // nil for the default arm
	Target BlockID
}

// Terminator describes a block's outgoing control transfer. Only the
// fields selected by Kind are meaningful.
type Terminator struct {
	Kind    TermKind
	Cond    *bound.Expr        // TermIf
	Subject *bound.Expr        // TermSwitch, TermForeach
	Foreach *bound.ForeachData // TermForeach: key/value binding
	Next    BlockID            // TermNext, TermForeach (body), TermReturn/TermThrow (Exit)
	Alt     BlockID            // TermIf false edge, TermForeach leave edge
	Cases   []SwitchTarget     // TermSwitch
}

// Succs appends every successor of the terminator to buf and returns it.
func (t *Terminator) Succs(buf []BlockID) []BlockID {
	switch t.Kind {
	case TermNext, TermReturn, TermThrow:
		if t.Next != NoBlockID {
			buf = append(buf, t.Next)
		}
	case TermIf, TermForeach:
		if t.Next != NoBlockID {
			buf = append(buf, t.Next)
		}
		if t.Alt != NoBlockID {
			buf = append(buf, t.Alt)
		}
	case TermSwitch:
		for _, c := range t.Cases {
			if c.Target != NoBlockID {
				buf = append(buf, c.Target)
			}
		}
	}
	return buf
}

// Block is a basic block: an ordered run of simple statements plus a
// terminator. Color is a traversal mark issued by Graph.NewColor.
type Block struct {
	ID    BlockID
	Stmts []bound.Stmt
	Term  Terminator
	Color int

	// Additional successors beyond the structural terminator edges
	// (exception handler entries).
	ExtraSuccs []BlockID
}

// Succs returns every successor of the block.
func (b *Block) Succs() []BlockID {
	out := b.Term.Succs(nil)
	return append(out, b.ExtraSuccs...)
}

// LabelFlags diagnoses label declaration problems.
type LabelFlags uint8

const (
	LabelNone LabelFlags = 0
	// LabelDefined is set when the label statement was seen.
	LabelDefined LabelFlags = 1 << iota
	// LabelUsed is set when at least one goto targets the label.
	LabelUsed
	// LabelRedefined is set when the label was declared more than once.
	LabelRedefined
)

// LabelInfo tracks one named label inside a routine.
type LabelInfo struct {
	Name    string
	Flags   LabelFlags
	Target  BlockID
	Pending []BlockID // blocks whose goto awaits this label's definition
}

// YieldPoint is one suspension point of a generator routine. Index is the
// 1-based resumption index; Resume is the block control re-enters at.
type YieldPoint struct {
	Index  int
	Stmt   *bound.Stmt
	Resume BlockID
}

// Graph is the control-flow graph of one routine. Built exactly once;
// never structurally mutated afterwards (only analysis state attached to
// blocks changes).
type Graph struct {
	Routine *bound.Routine

	blocks []*Block
	Start  BlockID
	Exit   BlockID

	Labels      map[string]*LabelInfo
	Yields      []YieldPoint
	Unreachable []BlockID

	colorGen int
}

// Block returns the block with the given ID.
func (g *Graph) Block(id BlockID) *Block {
	return g.blocks[id]
}

// Blocks returns all blocks in allocation order.
func (g *Graph) Blocks() []*Block {
	return g.blocks
}

// NewColor issues a fresh traversal color. Colors are monotonically
// increasing and never reused within one traversal generation.
func (g *Graph) NewColor() int {
	g.colorGen++
	return g.colorGen
}

func (g *Graph) newBlock() *Block {
	b := &Block{
		ID:   BlockID(len(g.blocks)),
		Term: Terminator{Kind: TermNext, Next: NoBlockID},
	}
	g.blocks = append(g.blocks, b)
	return b
}
