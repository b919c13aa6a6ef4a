// Package driver owns the compilation pipeline: interchange decode,
// graph construction, parallel flow analysis, optional code emission
// and the converged-result disk cache.
package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"fern/internal/bound"
	"fern/internal/diag"
	"fern/internal/flow"
	"fern/internal/observ"
	"fern/internal/project"
	"fern/internal/source"
	"fern/internal/types"
)

// DefaultMaxDiagnostics bounds each diagnostic bag unless the manifest
// overrides it.
const DefaultMaxDiagnostics = 100

// Options configures a Session.
type Options struct {
	// Jobs caps analysis parallelism. Zero means GOMAXPROCS.
	Jobs int
	// MaxDiagnostics bounds every bag. Zero means DefaultMaxDiagnostics.
	MaxDiagnostics int
	// Cache, when set, serves converged per-routine masks for unchanged
	// inputs and stores fresh ones.
	Cache *DiskCache
	// Observer receives phase boundary events. May be nil.
	Observer PhaseObserver
}

// RoutineResult is the analysis outcome for one routine, written into a
// slot indexed by the routine's position in the module.
type RoutineResult struct {
	Name  string
	Graph *flow.Graph
	Flow  *flow.FlowContext
	Bag   *diag.Bag

	// Converged masks, with ref flags applied, in slot order, plus the
	// merged return mask. Present for cached results too.
	Masks  []types.TypeRefMask
	Return types.TypeRefMask

	FromCache bool
}

// ModuleResult is the outcome for one interchange module.
type ModuleResult struct {
	Module   *bound.Module
	Routines []RoutineResult
	Bag      *diag.Bag
	Timings  observ.Report
}

// HasErrors reports whether any bag holds an error.
func (r *ModuleResult) HasErrors() bool {
	if r.Bag.HasErrors() {
		return true
	}
	for i := range r.Routines {
		if r.Routines[i].Bag != nil && r.Routines[i].Bag.HasErrors() {
			return true
		}
	}
	return false
}

// MergedBag folds every routine bag into the module bag, in input
// order, and returns the module bag.
func (r *ModuleResult) MergedBag() *diag.Bag {
	for i := range r.Routines {
		if r.Routines[i].Bag != nil {
			r.Bag.Merge(r.Routines[i].Bag)
		}
	}
	r.Bag.Sort()
	r.Bag.Dedup()
	return r.Bag
}

// Session runs compilations with one fixed option set.
type Session struct {
	opts Options
}

// NewSession makes a session, applying option defaults.
func NewSession(opts Options) *Session {
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = DefaultMaxDiagnostics
	}
	return &Session{opts: opts}
}

func (s *Session) observe(name string, status PhaseStatus, elapsed time.Duration) {
	if s.opts.Observer != nil {
		s.opts.Observer(PhaseEvent{Name: name, Status: status, Elapsed: elapsed})
	}
}

// AnalyzeFile decodes one interchange file and analyzes it. Decode
// problems become diagnostics on the result, not errors; only I/O
// failures are returned as errors.
func (s *Session) AnalyzeFile(ctx context.Context, path string) (*ModuleResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	m, err := bound.DecodeModule(data)
	if err != nil {
		bag := diag.NewBag(s.opts.MaxDiagnostics)
		code := diag.ModBadPayload
		if errors.Is(err, bound.ErrSchemaMismatch) {
			code = diag.ModSchemaMismatch
		}
		bag.Add(diag.NewError(code, source.Span{}, fmt.Sprintf("%s: %v", path, err)))
		return &ModuleResult{Bag: bag}, nil
	}
	return s.AnalyzeModule(ctx, m, project.HashBytes(data))
}

// AnalyzeModule runs the full pipeline over a decoded module. Routines
// are analyzed in parallel; each owns a disjoint graph and flow
// context, so the only shared state is the pre-sized result slice.
// contentHash keys the disk cache; a zero digest disables caching for
// this module.
func (s *Session) AnalyzeModule(ctx context.Context, m *bound.Module, contentHash project.Digest) (*ModuleResult, error) {
	timer := observ.NewTimer()
	res := &ModuleResult{
		Module:   m,
		Routines: make([]RoutineResult, len(m.Routines)),
		Bag:      diag.NewBag(s.opts.MaxDiagnostics),
	}

	s.observe("signatures", PhaseStart, 0)
	sigPhase := timer.Begin("signatures")
	lookup := s.collectSignatures(m, res.Bag)
	timer.End(sigPhase, "")
	s.observe("signatures", PhaseEnd, 0)

	s.observe("analyze", PhaseStart, 0)
	anPhase := timer.Begin("analyze")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(s.opts.Jobs, max(len(m.Routines), 1)))

	for i := range m.Routines {
		i := i
		g.Go(func() error {
			// Cancellation is coarse: checked between routines, never
			// inside a worklist run.
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res.Routines[i] = s.analyzeRoutine(&m.Routines[i], lookup, contentHash)
			return nil
		})
	}
	err := g.Wait()
	timer.End(anPhase, fmt.Sprintf("%d routines", len(m.Routines)))
	s.observe("analyze", PhaseEnd, 0)

	res.Timings = timer.Report()
	return res, err
}

// analyzeRoutine runs one routine end to end. A panic inside analysis
// is an internal invariant violation of that routine only; it becomes a
// diagnostic so sibling routines are unaffected.
func (s *Session) analyzeRoutine(r *bound.Routine, lookup flow.RoutineLookup, contentHash project.Digest) (out RoutineResult) {
	out.Name = r.Name
	out.Bag = diag.NewBag(s.opts.MaxDiagnostics)

	key := routineKey(contentHash, r.Name)
	if !contentHash.IsZero() {
		if cached, ok := s.cacheGet(key); ok {
			out.Masks = cached.Masks
			out.Return = cached.Return
			out.FromCache = true
			return out
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			out.Graph, out.Flow = nil, nil
			out.Bag.Add(diag.NewError(diag.FlowInternal, r.Span,
				fmt.Sprintf("internal error analyzing %s: %v", r.Name, rec)))
		}
	}()

	g, fc := flow.AnalyzeRoutine(r, lookup, diag.BagReporter{Bag: out.Bag})
	out.Graph = g
	out.Flow = fc
	out.Masks = fc.Snapshot()
	out.Return = fc.ReturnType()

	// Only clean runs are cached; a cache hit replays no diagnostics.
	if !contentHash.IsZero() && out.Bag.Len() == 0 {
		s.cachePut(key, &out)
	}
	return out
}

// collectSignatures builds the call-resolution table from declared
// parameter hints. Return masks are unknown before analysis, so every
// signature returns the universal mask; analysis stays independent per
// routine and safe to parallelize.
func (s *Session) collectSignatures(m *bound.Module, bag *diag.Bag) flow.RoutineLookup {
	tc := types.NewContext()
	table := make(moduleLookup, len(m.Routines))
	for i := range m.Routines {
		r := &m.Routines[i]
		if _, dup := table[r.Name]; dup {
			bag.Add(diag.NewError(diag.DeclDuplicateRoutine, r.Span,
				fmt.Sprintf("routine %q is declared more than once", r.Name)))
			continue
		}
		sig := &flow.Signature{Name: r.Name, Ctx: tc, Return: types.AnyType}
		for _, p := range r.Params {
			sig.Params = append(sig.Params, flow.SigParam{
				Name:     p.Name,
				ByRef:    p.ByRef,
				Optional: p.Optional,
				Mask:     flow.HintMask(tc, p.TypeHint),
			})
		}
		table[r.Name] = sig
	}
	return table
}

type moduleLookup map[string]*flow.Signature

func (m moduleLookup) LookupRoutine(name string) (*flow.Signature, bool) {
	sig, ok := m[name]
	return sig, ok
}

func routineKey(contentHash project.Digest, name string) project.Digest {
	return project.Combine(contentHash, project.HashBytes([]byte(name)))
}
