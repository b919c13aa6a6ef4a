package driver

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Stage identifies one step of the per-file pipeline.
type Stage uint8

const (
	StageDecode Stage = iota
	StageAnalyze
	StageLower
)

// Status is the lifecycle of one file within a stage.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusError
)

// Event reports per-file pipeline progress. An empty File describes the
// whole build.
type Event struct {
	File   string
	Stage  Stage
	Status Status
}

// BuildFiles analyzes every input file in parallel and returns results
// indexed by input order. Progress is reported on events when non-nil;
// the channel is not closed here, the caller owns it. A file whose
// payload fails to decode yields a result carrying diagnostics, like
// AnalyzeFile; only I/O failures abort the build.
func (s *Session) BuildFiles(ctx context.Context, paths []string, events chan<- Event) ([]*ModuleResult, error) {
	results := make([]*ModuleResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(s.opts.Jobs, max(len(paths), 1)))

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			emit(events, Event{File: path, Stage: StageAnalyze, Status: StatusWorking})
			res, err := s.AnalyzeFile(gctx, path)
			if err != nil {
				emit(events, Event{File: path, Stage: StageAnalyze, Status: StatusError})
				return err
			}
			results[i] = res
			status := StatusDone
			if res.HasErrors() {
				status = StatusError
			}
			emit(events, Event{File: path, Stage: StageAnalyze, Status: status})
			return nil
		})
	}
	return results, g.Wait()
}

func emit(events chan<- Event, ev Event) {
	if events != nil {
		events <- ev
	}
}
