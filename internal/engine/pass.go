package engine

import "context"

// FailedUpdate is a run-record row for a package whose upgrade attempt (and
// healing) never found an acceptable version.
type FailedUpdate struct {
	Package string
	Target  string // version originally requested
	Reason  string
}

// SuccessfulUpdate is a run-record row for a package that landed on a new
// (or unchanged) pinned version.
type SuccessfulUpdate struct {
	Package  string
	Target   string // version originally requested
	Accepted string // version actually reached
}

// PassPlan is the ordered set of candidate upgrades for one pass, already
// sorted by descending risk.
type PassPlan []Upgrade

// PassOutcome is what one pass reports to the run loop: whether it changed
// anything, plus the rows to fold into the run record.
type PassOutcome struct {
	Changed     bool
	Successes   []SuccessfulUpdate
	Failures    []FailedUpdate
	NewBaseline []string // only set when Changed
}

// CommitFunc installs the combined baseline (pass baseline with every
// accepted upgrade applied) in a fresh environment and, on success, freezes
// it. It returns the frozen, pruned manifest lines, or ok=false if the
// combined install failed (in which case the pass orchestrator restores the
// pass baseline verbatim and reports no change).
type CommitFunc func(ctx context.Context, combinedLines []string) (frozen []string, ok bool, err error)

// PassOrchestrator runs one pass of spec.md's §4.H algorithm: plan, attempt
// every candidate in risk order against a frozen, read-only pass baseline,
// then commit the union of successes with a single fresh install+freeze.
type PassOrchestrator struct {
	Attempt AttemptEngine
	Heal    Healer
	Commit  CommitFunc
}

// BuildPlan derives the risk-ordered upgrade plan for a pinned manifest. pkgs
// carries, per exact-pin line, the package's usage/primary signals and the
// registry's view of its latest version. Only packages whose latest version
// parses strictly greater than the current pin are included.
func BuildPlan(pkgs []Package) PassPlan {
	var plan PassPlan
	for _, p := range pkgs {
		if !p.HasLatest || !p.Current.Valid() || !p.Latest.Valid() {
			continue
		}
		if c, ok := p.Current.Compare(p.Latest); !ok || c >= 0 {
			continue
		}
		plan = append(plan, Upgrade{
			Package: p.Name,
			Current: p.Current,
			Target:  p.Latest,
			Usage:   p.Usage,
			Primary: p.Primary,
		})
	}
	SortByRiskDescending(plan)
	return plan
}

// RunPass executes steps 5 and 6 of spec.md §4.H: attempt (and heal) every
// planned upgrade, then commit the combined result. Plan-building and the
// risk sort (steps 2 and 4) are BuildPlan's job; the empty-plan check
// (step 3) and the per-pass snapshot and its deletion (steps 1 and 7) are
// RunLoop's. baselineLines is the pass baseline; it is never mutated.
func (o *PassOrchestrator) RunPass(ctx context.Context, baselineLines []string, plan PassPlan) (PassOutcome, error) {
	if len(plan) == 0 {
		return PassOutcome{}, nil
	}

	accepted := map[string]string{}
	changed := map[string]bool{}
	var successes []SuccessfulUpdate
	var failures []FailedUpdate
	anyChanged := false

	for _, u := range plan {
		res, err := o.Attempt.Try(ctx, u.Package, u.Target.String(), baselineLines, anyChanged)
		if err != nil {
			return PassOutcome{}, err
		}

		if !res.OK {
			heal := o.Heal.Heal(ctx, u.Package, u.Current, u.Target, baselineLines, anyChanged)
			if !heal.Accepted {
				failures = append(failures, FailedUpdate{
					Package: u.Package,
					Target:  u.Target.String(),
					Reason:  "All backtracking attempts failed.",
				})
				continue
			}
			accepted[u.Package] = heal.Version
			successes = append(successes, SuccessfulUpdate{Package: u.Package, Target: u.Target.String(), Accepted: heal.Version})
			if heal.Version != u.Current.String() {
				changed[u.Package] = true
				anyChanged = true
			}
			continue
		}

		accepted[u.Package] = u.Target.String()
		successes = append(successes, SuccessfulUpdate{Package: u.Package, Target: u.Target.String(), Accepted: u.Target.String()})
		if u.Target.String() != u.Current.String() {
			changed[u.Package] = true
			anyChanged = true
		}
	}

	if len(changed) == 0 {
		return PassOutcome{Successes: successes, Failures: failures}, nil
	}

	combined := baselineLines
	for pkg, version := range accepted {
		combined = SubstitutePin(combined, pkg, version)
	}

	frozen, ok, err := o.Commit(ctx, combined)
	if err != nil {
		return PassOutcome{}, err
	}
	if !ok {
		// Pass-commit failure: restore is the caller's job (it owns the
		// baseline file); we just report no effective change, demoting
		// every package that looked like a success to a commit failure.
		for _, s := range successes {
			failures = append(failures, FailedUpdate{Package: s.Package, Target: s.Target, Reason: "Pass commit failed: combined install did not succeed."})
		}
		return PassOutcome{Successes: nil, Failures: failures}, nil
	}

	return PassOutcome{Changed: true, Successes: successes, Failures: failures, NewBaseline: frozen}, nil
}
