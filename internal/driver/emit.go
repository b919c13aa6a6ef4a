package driver

import (
	"fmt"

	"fern/internal/codegen"
	"fern/internal/diag"
)

// EmitterFactory makes one emitter per routine, named after it.
type EmitterFactory func(routine string) codegen.Emitter

// EmitModule lowers every analyzed routine through its emitter. Cached
// results carry no graph and are skipped; so are routines whose
// analysis failed. A panic in lowering is confined to its routine and
// recorded on that routine's bag.
func EmitModule(res *ModuleResult, factory EmitterFactory) {
	for i := range res.Routines {
		r := &res.Routines[i]
		if r.Graph == nil || r.Flow == nil || r.Bag.HasErrors() {
			continue
		}
		emitRoutine(r, factory(r.Name))
	}
}

func emitRoutine(r *RoutineResult, em codegen.Emitter) {
	defer func() {
		if rec := recover(); rec != nil {
			span := r.Graph.Routine.Span
			msg := fmt.Sprintf("cannot lower %s: %v", r.Name, rec)
			code := diag.GenUnsupported
			if _, ok := rec.(codegen.NoAddressError); ok {
				code = diag.GenNoAddress
			}
			r.Bag.Add(diag.NewError(code, span, msg))
		}
	}()
	codegen.NewGenerator(em, r.Graph, r.Flow).Emit()
}
