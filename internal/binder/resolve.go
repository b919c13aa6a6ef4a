package binder

import (
	"errors"
	"sync/atomic"

	"fern/internal/rt"
)

// ErrAmbiguous means two candidates tied on the minimum cost.
var ErrAmbiguous = errors.New("binder: ambiguous overload")

// ErrNoMatch means no candidate converts.
var ErrNoMatch = errors.New("binder: no applicable overload")

// Resolve picks the candidate with the minimum aggregate cost for args.
// A tie is ErrAmbiguous and an all-unconvertible set is ErrNoMatch,
// never a silent pick. Resolve holds no state and may run concurrently
// for the same candidates.
func Resolve(candidates []*rt.MethodInfo, args []rt.Value) (*rt.MethodInfo, Cost, error) {
	best := Error
	var pick *rt.MethodInfo
	tied := false
	for _, c := range candidates {
		cost := BindCost(args, c.Params)
		switch {
		case cost < best:
			best, pick, tied = cost, c, false
		case cost == best && cost < NoConversion:
			tied = true
		}
	}
	if pick == nil || best >= NoConversion {
		return nil, NoConversion, ErrNoMatch
	}
	if tied {
		return nil, best, ErrAmbiguous
	}
	return pick, best, nil
}

// CallSite caches one call site's resolved pick. Binding is lazy: the
// first call pays for resolution and publishes it atomically, later
// calls with the same argument shape reuse it.
type CallSite struct {
	resolved atomic.Pointer[rt.MethodInfo]
}

// Resolve returns the cached pick, resolving on first use. The cache
// keeps whatever the first successful resolution chose; call sites with
// genuinely polymorphic argument shapes should bypass the cache.
func (cs *CallSite) Resolve(candidates []*rt.MethodInfo, args []rt.Value) (*rt.MethodInfo, error) {
	if m := cs.resolved.Load(); m != nil {
		return m, nil
	}
	m, _, err := Resolve(candidates, args)
	if err != nil {
		return nil, err
	}
	cs.resolved.CompareAndSwap(nil, m)
	return cs.resolved.Load(), nil
}
