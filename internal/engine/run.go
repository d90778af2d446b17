package engine

import "context"

// RunRecord aggregates results across every pass in a run, the basis of the
// final summary spec.md §3 describes.
type RunRecord struct {
	Successful map[string]SuccessfulUpdate // package -> (target requested, version reached)
	Failed     map[string]FailedUpdate     // package -> (target requested, failure reason)
	Passes     int
}

// NewRunRecord returns an empty, ready-to-fold RunRecord.
func NewRunRecord() *RunRecord {
	return &RunRecord{
		Successful: map[string]SuccessfulUpdate{},
		Failed:     map[string]FailedUpdate{},
	}
}

// Fold merges one pass's outcome into the run record. A package accepted in
// a later pass overwrites an earlier failure for the same package; a
// failure is recorded only for a package with no recorded success, so a
// later failure never replaces an earlier success.
func (r *RunRecord) Fold(o PassOutcome) {
	for _, s := range o.Successes {
		r.Successful[s.Package] = s
		delete(r.Failed, s.Package)
	}
	for _, f := range o.Failures {
		if _, ok := r.Successful[f.Package]; ok {
			continue
		}
		r.Failed[f.Package] = f
	}
}

// HealthCheckFunc installs manifestLines fresh and validates, the shape of
// the "final health check" spec.md §4.J requires both on entry and at run
// end.
type HealthCheckFunc func(ctx context.Context, manifestLines []string) (ValidationOutcome, error)

// PlanFunc derives the next pass's risk-ordered plan from the current
// baseline lines (registry lookups, usage counts, and primary-list
// membership are all resolved here, outside the engine's direct purview).
type PlanFunc func(ctx context.Context, baselineLines []string) (PassPlan, error)

// SnapshotPassFunc persists the pass baseline to its per-pass snapshot file
// before any attempt runs, returning a cleanup that deletes the snapshot at
// pass exit (spec.md §4.H steps 1 and 7).
type SnapshotPassFunc func(pass int, baselineLines []string) (cleanup func(), err error)

// PersistBaselineFunc writes a freshly committed baseline to the
// authoritative manifest, keeping the on-disk file equal to the current
// baseline between passes (spec.md §3's baseline invariant).
type PersistBaselineFunc func(lines []string) error

// RunLoop executes spec.md §4.J: at most MaxPasses passes, stopping early on
// a pass with no effective change, plus a health check on entry and at run
// end. SnapshotPass and PersistBaseline are optional; nil skips them (tests
// that hold the baseline purely in memory don't need either).
type RunLoop struct {
	Orchestrator    *PassOrchestrator
	Plan            PlanFunc
	HealthCheck     HealthCheckFunc
	SnapshotPass    SnapshotPassFunc
	PersistBaseline PersistBaselineFunc
	MaxPasses       int
}

// RunResult is the outcome of an entire run.
type RunResult struct {
	Record         *RunRecord
	FinalLines     []string
	EntryHealth    ValidationOutcome
	FinalHealth    ValidationOutcome
	PassesExecuted int
}

// Run drives the loop, starting from baselineLines (the already-bootstrapped
// or already-pinned starting manifest).
func (l *RunLoop) Run(ctx context.Context, baselineLines []string) (RunResult, error) {
	entry, err := l.HealthCheck(ctx, baselineLines)
	if err != nil {
		return RunResult{}, err
	}

	record := NewRunRecord()
	lines := baselineLines

	for pass := 0; pass < l.MaxPasses; pass++ {
		plan, err := l.Plan(ctx, lines)
		if err != nil {
			return RunResult{}, err
		}
		if len(plan) == 0 {
			break
		}

		var cleanup func()
		if l.SnapshotPass != nil {
			cleanup, err = l.SnapshotPass(pass+1, lines)
			if err != nil {
				return RunResult{}, err
			}
		}

		outcome, err := l.Orchestrator.RunPass(ctx, lines, plan)
		if cleanup != nil {
			cleanup()
		}
		if err != nil {
			return RunResult{}, err
		}
		record.Fold(outcome)
		record.Passes++

		if !outcome.Changed {
			break
		}
		lines = outcome.NewBaseline
		if l.PersistBaseline != nil {
			if err := l.PersistBaseline(lines); err != nil {
				return RunResult{}, err
			}
		}
	}

	final, err := l.HealthCheck(ctx, lines)
	if err != nil {
		return RunResult{}, err
	}

	return RunResult{
		Record:         record,
		FinalLines:     lines,
		EntryHealth:    entry,
		FinalHealth:    final,
		PassesExecuted: record.Passes,
	}, nil
}
