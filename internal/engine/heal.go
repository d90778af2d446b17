package engine

import "context"

// HealAttempt abstracts the single-variable probe the healing controller
// drives: identical to AttemptEngine.Try but named from the healer's point
// of view, so fakes in tests don't need a whole AttemptEngine.
type HealAttempt func(ctx context.Context, pkg, version string, baselineLines []string, anyChangedThisPass bool) (AttemptResult, error)

// HealOutcome is what the healing controller reports: either an accepted
// fallback version with its attempt result, or no accepted version at all.
type HealOutcome struct {
	Accepted bool
	Version  string
	Result   AttemptResult
}

// Healer runs the two-stage fallback triggered by a failed ordinary
// attempt: an oracle-suggested backtrack, then a descending scan over
// registry history.
type Healer struct {
	Try             HealAttempt
	Oracle          Oracle // nil or circuit-broken: Stage 1 is skipped entirely
	Registry        Registry
	MaxOracleTries  int // MAX_LLM_BACKTRACK_ATTEMPTS
	OracleAvailable func() bool
	LatchUnavailable func()
}

// Heal attempts to recover from a failed try(pkg, target, ...) by first
// asking the oracle for plausible prior releases, then scanning the
// registry's release history for pkg downward from target, stopping at the
// first version whose attempt succeeds. baselineLines is the pass
// baseline; current is the version pkg is pinned to before this upgrade
// attempt.
func (h *Healer) Heal(ctx context.Context, pkg string, current, target Version, baselineLines []string, anyChangedThisPass bool) HealOutcome {
	if out, ok := h.stageOracleBacktrack(ctx, pkg, current, target, baselineLines, anyChangedThisPass); ok {
		return out
	}
	return h.stageIntervalScan(ctx, pkg, current, target, baselineLines, anyChangedThisPass)
}

func (h *Healer) stageOracleBacktrack(ctx context.Context, pkg string, current, target Version, baselineLines []string, anyChangedThisPass bool) (HealOutcome, bool) {
	if h.Oracle == nil || h.MaxOracleTries <= 0 {
		return HealOutcome{}, false
	}
	if h.OracleAvailable != nil && !h.OracleAvailable() {
		return HealOutcome{}, false
	}

	reply := h.Oracle.BacktrackVersions(ctx, pkg, target.String(), h.MaxOracleTries)
	if reply.Kind == OracleQuotaExhausted {
		if h.LatchUnavailable != nil {
			h.LatchUnavailable()
		}
		return HealOutcome{}, false
	}
	if reply.Kind != OracleVersionList {
		return HealOutcome{}, false
	}

	for _, candidate := range reply.Versions {
		v := ParseVersion(candidate)
		if !v.Valid() {
			continue
		}
		if current.Valid() {
			if c, ok := v.Compare(current); ok && c <= 0 {
				continue
			}
		}

		res, err := h.Try(ctx, pkg, v.String(), baselineLines, anyChangedThisPass)
		if err != nil {
			continue
		}
		if res.OK {
			return HealOutcome{Accepted: true, Version: v.String(), Result: res}, true
		}
	}
	return HealOutcome{}, false
}

func (h *Healer) stageIntervalScan(ctx context.Context, pkg string, current, target Version, baselineLines []string, anyChangedThisPass bool) HealOutcome {
	candidates := h.Registry.Range(ctx, pkg, current, target)
	candidates = ensureCurrentPresent(candidates, current)

	q := NewBacktrackQueue(candidates, target)
	for !q.Exhausted() {
		v, _ := q.Current()
		res, err := h.Try(ctx, pkg, v.String(), baselineLines, anyChangedThisPass)
		if err != nil {
			q.Advance(err.Error())
			continue
		}
		if res.OK {
			return HealOutcome{Accepted: true, Version: v.String(), Result: res}
		}
		q.Advance(res.Result)
	}
	return HealOutcome{}
}

// ensureCurrentPresent prepends current to the ascending candidates slice
// if it isn't already present, per the half-open interval contract
// ([current_version, target_version) with current guaranteed a member).
func ensureCurrentPresent(candidates []Version, current Version) []Version {
	if !current.Valid() {
		return candidates
	}
	for _, c := range candidates {
		if eq, ok := c.Compare(current); ok && eq == 0 {
			return candidates
		}
	}
	out := make([]Version, 0, len(candidates)+1)
	out = append(out, current)
	out = append(out, candidates...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].LessThan(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
