package engine

import (
	"context"
	"testing"
)

type fakeRegistry struct {
	versions map[string][]Version
}

func (r *fakeRegistry) Latest(ctx context.Context, name string) (Version, bool) {
	vs := r.versions[name]
	return GreatestStable(vs)
}

func (r *fakeRegistry) Range(ctx context.Context, name string, lo, hi Version) []Version {
	return Range(r.versions[name], lo, hi)
}

type fakeHealOracle struct {
	reply OracleReply
}

func (o *fakeHealOracle) BacktrackVersions(ctx context.Context, name, failedVersion string, k int) OracleReply {
	return o.reply
}
func (o *fakeHealOracle) SummarizeError(ctx context.Context, errorLog string) OracleReply {
	return OracleReply{Kind: OracleEmpty}
}
func (o *fakeHealOracle) RootCause(ctx context.Context, pkg, errorLog, manifest string) OracleReply {
	return OracleReply{Kind: OracleEmpty}
}

func TestHealOracleBacktrackSucceeds(t *testing.T) {
	var tried []string
	try := func(ctx context.Context, pkg, version string, baselineLines []string, anyChanged bool) (AttemptResult, error) {
		tried = append(tried, version)
		if version == "1.9.4" {
			return AttemptResult{OK: true, Result: "ok"}, nil
		}
		return AttemptResult{OK: false, Result: "fail"}, nil
	}

	h := &Healer{
		Try:            try,
		Oracle:         &fakeHealOracle{reply: OracleReply{Kind: OracleVersionList, Versions: []string{"1.9.5", "1.9.4", "1.9.3"}}},
		Registry:       &fakeRegistry{},
		MaxOracleTries: 3,
	}

	out := h.Heal(context.Background(), "foo", ParseVersion("1.9.0"), ParseVersion("2.0.0"), nil, false)
	if !out.Accepted || out.Version != "1.9.4" {
		t.Fatalf("Heal() = %+v", out)
	}
	if len(tried) != 2 {
		t.Fatalf("tried = %v, want 2 attempts (1.9.5 then 1.9.4)", tried)
	}
}

func TestHealOracleSkipsSuggestionsAtOrBelowCurrent(t *testing.T) {
	var tried []string
	try := func(ctx context.Context, pkg, version string, baselineLines []string, anyChanged bool) (AttemptResult, error) {
		tried = append(tried, version)
		return AttemptResult{OK: false}, nil
	}

	h := &Healer{
		Try:            try,
		Oracle:         &fakeHealOracle{reply: OracleReply{Kind: OracleVersionList, Versions: []string{"1.9.0", "1.8.0", "2.1.0"}}},
		Registry:       &fakeRegistry{versions: map[string][]Version{"foo": {}}},
		MaxOracleTries: 3,
	}

	out := h.Heal(context.Background(), "foo", ParseVersion("1.9.0"), ParseVersion("3.0.0"), nil, false)
	if out.Accepted {
		t.Fatalf("Heal() = %+v, want not accepted", out)
	}
	// Stage 1 tries only 2.1.0 (1.9.0 == current, 1.8.0 < current skipped);
	// Stage 2 then probes the current pin, which ensureCurrentPresent adds
	// to the empty registry range.
	if len(tried) != 2 || tried[0] != "2.1.0" || tried[1] != "1.9.0" {
		t.Fatalf("tried = %v, want [2.1.0 1.9.0]", tried)
	}
}

func TestHealSkipsOracleWhenUnavailable(t *testing.T) {
	called := false
	try := func(ctx context.Context, pkg, version string, baselineLines []string, anyChanged bool) (AttemptResult, error) {
		called = true
		if version == "1.5.0" {
			return AttemptResult{OK: true}, nil
		}
		return AttemptResult{OK: false}, nil
	}

	h := &Healer{
		Try:    try,
		Oracle: &fakeHealOracle{reply: OracleReply{Kind: OracleVersionList, Versions: []string{"1.9.9"}}},
		Registry: &fakeRegistry{versions: map[string][]Version{
			"foo": {ParseVersion("1.0.0"), ParseVersion("1.5.0"), ParseVersion("1.8.0")},
		}},
		MaxOracleTries:  3,
		OracleAvailable: func() bool { return false },
	}

	out := h.Heal(context.Background(), "foo", ParseVersion("1.0.0"), ParseVersion("2.0.0"), nil, false)
	if !called {
		t.Fatal("expected Stage 2 to still run")
	}
	if !out.Accepted || out.Version != "1.5.0" {
		t.Fatalf("Heal() = %+v", out)
	}
}

func TestHealIntervalScanDescendsFromHighest(t *testing.T) {
	var tried []string
	try := func(ctx context.Context, pkg, version string, baselineLines []string, anyChanged bool) (AttemptResult, error) {
		tried = append(tried, version)
		return AttemptResult{OK: version == "1.2.0"}, nil
	}

	h := &Healer{
		Try: try,
		Registry: &fakeRegistry{versions: map[string][]Version{
			"foo": {ParseVersion("1.0.0"), ParseVersion("1.2.0"), ParseVersion("1.5.0"), ParseVersion("1.9.0")},
		}},
	}

	out := h.Heal(context.Background(), "foo", ParseVersion("1.0.0"), ParseVersion("2.0.0"), nil, false)
	if !out.Accepted || out.Version != "1.2.0" {
		t.Fatalf("Heal() = %+v", out)
	}
	want := []string{"1.9.0", "1.5.0", "1.2.0"}
	if len(tried) != len(want) {
		t.Fatalf("tried = %v, want %v", tried, want)
	}
	for i := range want {
		if tried[i] != want[i] {
			t.Errorf("tried[%d] = %q, want %q", i, tried[i], want[i])
		}
	}
}

func TestHealIntervalScanPrependsCurrentWhenAbsent(t *testing.T) {
	h := &Healer{
		Registry: &fakeRegistry{versions: map[string][]Version{
			"foo": {ParseVersion("1.2.0"), ParseVersion("1.5.0")},
		}},
	}
	out := ensureCurrentPresent(h.Registry.Range(context.Background(), "foo", ParseVersion("1.0.0"), ParseVersion("2.0.0")), ParseVersion("1.0.0"))
	if len(out) != 3 || out[0].String() != "1.0.0" {
		t.Fatalf("ensureCurrentPresent() = %v", out)
	}
}

func TestHealQuotaExhaustionLatchesAndFallsThroughToStage2(t *testing.T) {
	try := func(ctx context.Context, pkg, version string, baselineLines []string, anyChanged bool) (AttemptResult, error) {
		return AttemptResult{OK: version == "1.2.0"}, nil
	}

	latched := false
	h := &Healer{
		Try:            try,
		Oracle:         &fakeHealOracle{reply: OracleReply{Kind: OracleQuotaExhausted}},
		MaxOracleTries: 3,
		Registry: &fakeRegistry{versions: map[string][]Version{
			"foo": {ParseVersion("1.0.0"), ParseVersion("1.2.0"), ParseVersion("1.5.0")},
		}},
		LatchUnavailable: func() { latched = true },
	}

	out := h.Heal(context.Background(), "foo", ParseVersion("1.0.0"), ParseVersion("2.0.0"), nil, false)
	if !latched {
		t.Fatal("expected oracle quota exhaustion to latch the circuit breaker")
	}
	if !out.Accepted || out.Version != "1.2.0" {
		t.Fatalf("Heal() = %+v, want Stage 2 to still find 1.2.0", out)
	}
}

func TestHealNoSuccessReturnsUnaccepted(t *testing.T) {
	try := func(ctx context.Context, pkg, version string, baselineLines []string, anyChanged bool) (AttemptResult, error) {
		return AttemptResult{OK: false}, nil
	}
	h := &Healer{
		Try:      try,
		Registry: &fakeRegistry{versions: map[string][]Version{"foo": {ParseVersion("1.0.0")}}},
	}
	out := h.Heal(context.Background(), "foo", ParseVersion("1.0.0"), ParseVersion("2.0.0"), nil, false)
	if out.Accepted {
		t.Fatalf("Heal() = %+v, want unaccepted", out)
	}
}
